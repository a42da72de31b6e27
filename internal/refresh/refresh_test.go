package refresh

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mmcdole/arrdeck/internal/domain"
	"github.com/mmcdole/arrdeck/internal/store"
)

type fakeClient struct {
	calls atomic.Int32
	err   error
}

func (f *fakeClient) SystemStatus(ctx context.Context, inst domain.Instance) (domain.InstanceStatus, error) {
	return domain.InstanceStatus{}, nil
}

func (f *fakeClient) FetchMetadata(ctx context.Context, inst domain.Instance) (domain.InstanceMetadata, error) {
	f.calls.Add(1)
	if f.err != nil {
		return domain.InstanceMetadata{}, f.err
	}
	return domain.InstanceMetadata{
		QualityProfiles: []domain.QualityProfile{{ID: 1, Name: "HD-1080p"}},
		RootFolders:     []domain.RootFolder{{ID: 1, Path: "/movies"}},
	}, nil
}

func (f *fakeClient) SendCommand(ctx context.Context, inst domain.Instance, cmd domain.Command) error {
	return nil
}

type fakeInstances []domain.Instance

func (f fakeInstances) All() []domain.Instance { return f }

var radarr = domain.Instance{ID: "r1", URL: "http://radarr", Type: domain.InstanceRadarr}

func newRefresher(t *testing.T, client *fakeClient, instances ...domain.Instance) (*Refresher, *store.SnapshotStore) {
	t.Helper()
	st, err := store.NewSnapshotStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewSnapshotStore() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return New(client, st, fakeInstances(instances), time.Minute, nil, nil), st
}

func TestRefreshThrottledPerInstance(t *testing.T) {
	client := &fakeClient{}
	r, st := newRefresher(t, client, radarr)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }
	ctx := context.Background()

	fetched, err := r.Refresh(ctx, radarr, false)
	if err != nil || !fetched {
		t.Fatalf("Refresh() = %v, %v", fetched, err)
	}
	if last, ok := st.LastRefresh("r1"); !ok || !last.Equal(now) {
		t.Errorf("LastRefresh() = %v, %v", last, ok)
	}

	now = now.Add(30 * time.Second)
	if fetched, _ := r.Refresh(ctx, radarr, false); fetched {
		t.Error("refreshed inside the window")
	}
	if fetched, _ := r.Refresh(ctx, radarr, true); !fetched {
		t.Error("forced refresh skipped")
	}

	now = now.Add(2 * time.Minute)
	if fetched, _ := r.Refresh(ctx, radarr, false); !fetched {
		t.Error("refresh skipped after the window")
	}
	if got := client.calls.Load(); got != 3 {
		t.Errorf("FetchMetadata called %d times, want 3", got)
	}
}

func TestMetadataFallsBackToStore(t *testing.T) {
	client := &fakeClient{}
	r, st := newRefresher(t, client, radarr)
	if _, err := r.Refresh(context.Background(), radarr, true); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	// a fresh refresher sees the persisted copy
	other := New(client, st, fakeInstances{radarr}, time.Minute, nil, nil)
	meta, ok := other.Metadata("r1")
	if !ok || len(meta.QualityProfiles) != 1 || meta.QualityProfiles[0].Name != "HD-1080p" {
		t.Errorf("Metadata() = %+v, %v", meta, ok)
	}
	if _, ok := other.Metadata("missing"); ok {
		t.Error("Metadata() found an unknown instance")
	}
}

func TestFailedRefreshIsRetried(t *testing.T) {
	client := &fakeClient{err: &domain.APIError{Kind: domain.ErrorNotConnected}}
	r, st := newRefresher(t, client, radarr)

	if _, err := r.Refresh(context.Background(), radarr, false); !errors.Is(err, domain.ErrServerOffline) {
		t.Fatalf("Refresh() error = %v", err)
	}
	if _, ok := st.LastRefresh("r1"); ok {
		t.Error("failure recorded as a refresh")
	}

	client.err = nil
	if fetched, err := r.Refresh(context.Background(), radarr, false); err != nil || !fetched {
		t.Errorf("retry = %v, %v", fetched, err)
	}
}

func TestRefreshAll(t *testing.T) {
	sonarr := domain.Instance{ID: "s1", URL: "http://sonarr", Type: domain.InstanceSonarr}
	client := &fakeClient{}
	r, _ := newRefresher(t, client, radarr, sonarr, domain.VoidInstance(domain.InstanceRadarr))

	if err := r.RefreshAll(context.Background()); err != nil {
		t.Fatalf("RefreshAll() error = %v", err)
	}
	if got := client.calls.Load(); got != 2 {
		t.Errorf("FetchMetadata called %d times, want 2", got)
	}
	for _, id := range []string{"r1", "s1"} {
		if _, ok := r.Metadata(id); !ok {
			t.Errorf("no metadata for %s", id)
		}
	}
}

func TestStartRunsImmediately(t *testing.T) {
	client := &fakeClient{}
	r, _ := newRefresher(t, client, radarr)
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer r.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for client.calls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("initial refresh did not run")
		}
		time.Sleep(2 * time.Millisecond)
	}
}
