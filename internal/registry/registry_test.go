package registry

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/mmcdole/arrdeck/internal/domain"
)

type fakePersister struct {
	mu       sync.Mutex
	saves    int
	last     []domain.Instance
	selected map[domain.InstanceType]string
	err      error
}

func (p *fakePersister) SaveInstances(instances []domain.Instance, selected map[domain.InstanceType]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saves++
	p.last = instances
	p.selected = selected
	return p.err
}

type fakeInvalidator struct{ removed []string }

func (f *fakeInvalidator) InvalidateInstance(id string) { f.removed = append(f.removed, id) }

type fakeValidator struct{ err error }

func (v fakeValidator) Validate(ctx context.Context, inst domain.Instance) (domain.InstanceStatus, error) {
	return domain.InstanceStatus{AppName: inst.Type.AppName()}, v.err
}

func TestAddSelectsFirstOfType(t *testing.T) {
	p := &fakePersister{}
	r := New(nil, nil, Options{Persister: p})

	if !r.Selected(domain.InstanceRadarr).IsVoid() {
		t.Fatal("empty registry should select the void instance")
	}

	a, err := r.Add(domain.Instance{Label: "A", URL: "http://a", Type: domain.InstanceRadarr})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if a.ID == "" {
		t.Fatal("Add did not assign an id")
	}
	b, _ := r.Add(domain.Instance{Label: "B", URL: "http://b", Type: domain.InstanceRadarr})

	if got := r.Selected(domain.InstanceRadarr).ID; got != a.ID {
		t.Errorf("selected = %q, want first added %q", got, a.ID)
	}
	if got := len(r.Instances(domain.InstanceRadarr)); got != 2 {
		t.Errorf("radarr instances = %d, want 2", got)
	}
	if !r.Selected(domain.InstanceSonarr).IsVoid() {
		t.Error("sonarr selection should stay void")
	}
	if p.saves != 2 || len(p.last) != 2 {
		t.Errorf("persister saves = %d with %d instances", p.saves, len(p.last))
	}

	if err := r.Select(domain.InstanceRadarr, b.ID); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if p.selected[domain.InstanceRadarr] != b.ID {
		t.Error("selection was not persisted")
	}
}

func TestRemoveSelectedFallsBack(t *testing.T) {
	inv := &fakeInvalidator{}
	seed := []domain.Instance{
		{ID: "r1", Type: domain.InstanceRadarr},
		{ID: "s1", Type: domain.InstanceSonarr},
		{ID: "r2", Type: domain.InstanceRadarr},
	}
	r := New(seed, map[domain.InstanceType]string{domain.InstanceRadarr: "r2"}, Options{Invalidator: inv})

	if err := r.Remove("r2"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if got := r.Selected(domain.InstanceRadarr).ID; got != "r1" {
		t.Errorf("fallback selection = %q, want r1", got)
	}
	if len(inv.removed) != 1 || inv.removed[0] != "r2" {
		t.Errorf("invalidated = %v, want [r2]", inv.removed)
	}

	if err := r.Remove("r1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !r.Selected(domain.InstanceRadarr).IsVoid() {
		t.Error("removing the last instance should select the void instance")
	}
	if got := r.Selected(domain.InstanceSonarr).ID; got != "s1" {
		t.Errorf("sonarr selection changed to %q", got)
	}
}

func TestNewDropsStaleSelection(t *testing.T) {
	seed := []domain.Instance{{ID: "s1", Type: domain.InstanceSonarr}}
	r := New(seed, map[domain.InstanceType]string{domain.InstanceSonarr: "gone"}, Options{})
	if got := r.Selected(domain.InstanceSonarr).ID; got != "s1" {
		t.Errorf("selected = %q, want s1", got)
	}
}

func TestEditAndErrors(t *testing.T) {
	r := New([]domain.Instance{{ID: "r1", Label: "old", Type: domain.InstanceRadarr}}, nil, Options{})

	if err := r.Edit(domain.Instance{ID: "r1", Label: "new", Type: domain.InstanceRadarr}); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if got, _ := r.Get("r1"); got.Label != "new" {
		t.Errorf("label = %q, want new", got.Label)
	}
	if err := r.Edit(domain.Instance{ID: "r1", Type: domain.InstanceSonarr}); err == nil {
		t.Error("changing type should fail")
	}
	if err := r.Edit(domain.Instance{ID: "nope", Type: domain.InstanceRadarr}); !errors.Is(err, domain.ErrInstanceNotFound) {
		t.Errorf("Edit unknown = %v, want ErrInstanceNotFound", err)
	}
	if err := r.Select(domain.InstanceSonarr, "r1"); !errors.Is(err, domain.ErrInstanceNotFound) {
		t.Errorf("Select across types = %v, want ErrInstanceNotFound", err)
	}
	if err := r.Remove("nope"); !errors.Is(err, domain.ErrInstanceNotFound) {
		t.Errorf("Remove unknown = %v", err)
	}
}

func TestReadsReturnCopies(t *testing.T) {
	r := New([]domain.Instance{{ID: "r1", Type: domain.InstanceRadarr, Headers: map[string]string{"a": "1"}}}, nil, Options{})
	got := r.Selected(domain.InstanceRadarr)
	got.Headers["a"] = "changed"
	if again := r.Selected(domain.InstanceRadarr); again.Headers["a"] != "1" {
		t.Error("caller mutation leaked into the registry")
	}
}

func TestMutationsNotify(t *testing.T) {
	n := domain.NewNotifier()
	var changes []domain.Change
	n.Subscribe(domain.ObserverFunc(func(c domain.Change) { changes = append(changes, c) }))

	r := New(nil, nil, Options{Notifier: n, Validator: fakeValidator{}})
	inst, _ := r.Add(domain.Instance{Type: domain.InstanceSonarr, URL: "http://s"})
	r.Remove(inst.ID)

	if len(changes) != 2 {
		t.Fatalf("got %d notifications, want 2", len(changes))
	}
	if changes[1].Version != 2 || changes[1].Topic != domain.TopicInstances {
		t.Errorf("unexpected change %+v", changes[1])
	}

	if _, err := r.Validate(context.Background(), inst); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestPersistErrorSurfaces(t *testing.T) {
	r := New(nil, nil, Options{Persister: &fakePersister{err: errors.New("disk full")}})
	inst, err := r.Add(domain.Instance{Type: domain.InstanceRadarr})
	if err == nil {
		t.Fatal("expected persist error")
	}
	// memory state is still updated
	if r.Selected(domain.InstanceRadarr).ID != inst.ID {
		t.Error("instance should remain registered in memory")
	}
}
