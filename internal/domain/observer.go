package domain

import "sync"

// Topic names the model that changed
type Topic string

const (
	TopicInstances Topic = "instances"
	TopicProfiles  Topic = "profiles" // quality profiles, root folders, tags
	TopicMovies    Topic = "movies"
	TopicSeries    Topic = "series"
	TopicEpisodes  Topic = "episodes"
	TopicReleases  Topic = "releases"
	TopicMetadata  Topic = "metadata"
	TopicCalendar  Topic = "calendar"
	TopicSearch    Topic = "search"
)

// Change is published after a model's observable state changed
type Change struct {
	Topic   Topic
	Version uint64
	Err     error
}

// ChangeObserver receives change notifications. Implementations must not block.
type ChangeObserver interface {
	OnChange(c Change)
}

// ObserverFunc adapts a function to ChangeObserver
type ObserverFunc func(Change)

func (f ObserverFunc) OnChange(c Change) { f(c) }

// NoOpObserver discards notifications (for testing/batch operations).
type NoOpObserver struct{}

func (NoOpObserver) OnChange(Change) {}

// Notifier fans change notifications out to subscribers.
// Each topic carries a monotonically increasing version.
type Notifier struct {
	mu        sync.Mutex
	versions  map[Topic]uint64
	observers []ChangeObserver
}

// NewNotifier creates an empty notifier
func NewNotifier() *Notifier {
	return &Notifier{versions: make(map[Topic]uint64)}
}

// Subscribe registers an observer for all topics
func (n *Notifier) Subscribe(o ChangeObserver) {
	if n == nil || o == nil {
		return
	}
	n.mu.Lock()
	n.observers = append(n.observers, o)
	n.mu.Unlock()
}

// Publish bumps the topic version and notifies subscribers. Safe on a nil Notifier.
func (n *Notifier) Publish(topic Topic, err error) uint64 {
	if n == nil {
		return 0
	}
	n.mu.Lock()
	n.versions[topic]++
	c := Change{Topic: topic, Version: n.versions[topic], Err: err}
	observers := make([]ChangeObserver, len(n.observers))
	copy(observers, n.observers)
	n.mu.Unlock()

	for _, o := range observers {
		o.OnChange(c)
	}
	return c.Version
}

// Version returns the current version of a topic
func (n *Notifier) Version(topic Topic) uint64 {
	if n == nil {
		return 0
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.versions[topic]
}
