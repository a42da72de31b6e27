package registry

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/mmcdole/arrdeck/internal/domain"
)

// Persister saves the registry state
type Persister interface {
	SaveInstances(instances []domain.Instance, selected map[domain.InstanceType]string) error
}

// Validator probes an instance before it is saved
type Validator interface {
	Validate(ctx context.Context, inst domain.Instance) (domain.InstanceStatus, error)
}

// Invalidator drops cached data of a removed instance
type Invalidator interface {
	InvalidateInstance(instanceID string)
}

// Registry owns the configured instances and the selection per type.
// Reads return copies so callers never observe a half-applied mutation.
type Registry struct {
	mu        sync.RWMutex
	instances []domain.Instance
	selected  map[domain.InstanceType]string

	persister   Persister
	validator   Validator
	invalidator Invalidator
	notifier    *domain.Notifier
	logger      *slog.Logger
}

// Options wires the registry's collaborators. All fields are optional.
type Options struct {
	Persister   Persister
	Validator   Validator
	Invalidator Invalidator
	Notifier    *domain.Notifier
	Logger      *slog.Logger
}

// New creates a registry seeded with persisted instances and selection
func New(instances []domain.Instance, selected map[domain.InstanceType]string, opts Options) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &Registry{
		selected:    make(map[domain.InstanceType]string),
		persister:   opts.Persister,
		validator:   opts.Validator,
		invalidator: opts.Invalidator,
		notifier:    opts.Notifier,
		logger:      logger,
	}
	for _, inst := range instances {
		if inst.ID == "" {
			inst.ID = uuid.NewString()
		}
		r.instances = append(r.instances, inst.Clone())
	}

	// Drop stale selections, then default each type to its first instance
	for _, t := range []domain.InstanceType{domain.InstanceRadarr, domain.InstanceSonarr} {
		id := selected[t]
		if _, ok := r.find(id); ok && id != "" {
			r.selected[t] = id
			continue
		}
		r.selected[t] = r.firstOf(t).ID
	}
	return r
}

// Instances returns the configured instances of a type in insertion order
func (r *Registry) Instances(t domain.InstanceType) []domain.Instance {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.Instance
	for _, inst := range r.instances {
		if inst.Type == t {
			out = append(out, inst.Clone())
		}
	}
	return out
}

// All returns every configured instance
func (r *Registry) All() []domain.Instance {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Instance, len(r.instances))
	for i, inst := range r.instances {
		out[i] = inst.Clone()
	}
	return out
}

// Get returns an instance by id
func (r *Registry) Get(id string) (domain.Instance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.find(id)
	if !ok {
		return domain.Instance{}, false
	}
	return r.instances[i].Clone(), true
}

// Selected returns the selected instance of a type, or the void instance
func (r *Registry) Selected(t domain.InstanceType) domain.Instance {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i, ok := r.find(r.selected[t]); ok {
		return r.instances[i].Clone()
	}
	return domain.VoidInstance(t)
}

// Select makes id the selected instance of its type
func (r *Registry) Select(t domain.InstanceType, id string) error {
	r.mu.Lock()
	i, ok := r.find(id)
	if !ok || r.instances[i].Type != t {
		r.mu.Unlock()
		return fmt.Errorf("select %s %q: %w", t, id, domain.ErrInstanceNotFound)
	}
	if r.selected[t] == id {
		r.mu.Unlock()
		return nil
	}
	r.selected[t] = id
	err := r.persistLocked()
	r.mu.Unlock()

	r.logger.Info("instance selected", "type", t, "instance", id)
	r.notifier.Publish(domain.TopicInstances, nil)
	return err
}

// Validate probes an instance without saving it
func (r *Registry) Validate(ctx context.Context, inst domain.Instance) (domain.InstanceStatus, error) {
	if r.validator == nil {
		return domain.InstanceStatus{}, nil
	}
	return r.validator.Validate(ctx, inst)
}

// Add stores a new instance and returns it with its assigned id.
// The first instance of a type becomes the selected one.
func (r *Registry) Add(inst domain.Instance) (domain.Instance, error) {
	if inst.Type != domain.InstanceRadarr && inst.Type != domain.InstanceSonarr {
		return domain.Instance{}, fmt.Errorf("add instance: unknown type %q", inst.Type)
	}
	inst = inst.Clone()
	inst.ID = uuid.NewString()
	inst.URL = strings.TrimSpace(inst.URL)

	r.mu.Lock()
	r.instances = append(r.instances, inst)
	if r.selected[inst.Type] == "" {
		r.selected[inst.Type] = inst.ID
	}
	err := r.persistLocked()
	r.mu.Unlock()

	r.logger.Info("instance added", "type", inst.Type, "instance", inst.ID, "url", inst.BaseURL())
	r.notifier.Publish(domain.TopicInstances, nil)
	return inst.Clone(), err
}

// Edit replaces an existing instance. The id and type cannot change.
func (r *Registry) Edit(inst domain.Instance) error {
	r.mu.Lock()
	i, ok := r.find(inst.ID)
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("edit instance %q: %w", inst.ID, domain.ErrInstanceNotFound)
	}
	if r.instances[i].Type != inst.Type {
		r.mu.Unlock()
		return fmt.Errorf("edit instance %q: type cannot change", inst.ID)
	}
	r.instances[i] = inst.Clone()
	err := r.persistLocked()
	r.mu.Unlock()

	r.logger.Info("instance edited", "instance", inst.ID)
	r.notifier.Publish(domain.TopicInstances, nil)
	return err
}

// Remove deletes an instance. When it was selected, the selection falls back to
// the first remaining instance of the type, or to the void instance.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	i, ok := r.find(id)
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("remove instance %q: %w", id, domain.ErrInstanceNotFound)
	}
	t := r.instances[i].Type
	r.instances = slices.Delete(r.instances, i, i+1)
	if r.selected[t] == id {
		r.selected[t] = r.firstOf(t).ID
	}
	err := r.persistLocked()
	r.mu.Unlock()

	if r.invalidator != nil {
		r.invalidator.InvalidateInstance(id)
	}

	r.logger.Info("instance removed", "type", t, "instance", id)
	r.notifier.Publish(domain.TopicInstances, nil)
	return err
}

// find returns the index of id. Caller holds the lock.
func (r *Registry) find(id string) (int, bool) {
	if id == "" {
		return -1, false
	}
	i := slices.IndexFunc(r.instances, func(inst domain.Instance) bool { return inst.ID == id })
	return i, i >= 0
}

// firstOf returns the first instance of a type or the void instance. Caller holds the lock.
func (r *Registry) firstOf(t domain.InstanceType) domain.Instance {
	for _, inst := range r.instances {
		if inst.Type == t {
			return inst
		}
	}
	return domain.VoidInstance(t)
}

func (r *Registry) persistLocked() error {
	if r.persister == nil {
		return nil
	}
	instances := make([]domain.Instance, len(r.instances))
	for i, inst := range r.instances {
		instances[i] = inst.Clone()
	}
	selected := make(map[domain.InstanceType]string, len(r.selected))
	for k, v := range r.selected {
		selected[k] = v
	}
	if err := r.persister.SaveInstances(instances, selected); err != nil {
		r.logger.Error("failed to persist instances", "error", err)
		return fmt.Errorf("persist instances: %w", err)
	}
	return nil
}
