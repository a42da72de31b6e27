package metadata

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mmcdole/arrdeck/internal/domain"
)

type fakeRepo struct {
	filesCalls   atomic.Int32
	extrasCalls  atomic.Int32
	historyCalls atomic.Int32

	filesErr   error
	historyErr error
}

func (f *fakeRepo) GetMovieFiles(ctx context.Context, inst domain.Instance, movieID int) ([]domain.MovieFile, error) {
	f.filesCalls.Add(1)
	if f.filesErr != nil {
		return nil, f.filesErr
	}
	return []domain.MovieFile{{ID: movieID * 10, MovieID: movieID, Size: 1 << 30}}, nil
}

func (f *fakeRepo) GetMovieExtraFiles(ctx context.Context, inst domain.Instance, movieID int) ([]domain.ExtraFile, error) {
	f.extrasCalls.Add(1)
	return []domain.ExtraFile{{ID: 1, MovieID: movieID, Extension: ".srt", Type: "subtitle"}}, nil
}

func (f *fakeRepo) GetMovieHistory(ctx context.Context, inst domain.Instance, movieID int) ([]domain.HistoryEvent, error) {
	f.historyCalls.Add(1)
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	return []domain.HistoryEvent{
		{ID: 1, MovieID: movieID, EventType: domain.HistoryGrabbed, Date: base},
		{ID: 2, MovieID: movieID, EventType: domain.HistoryImported, Date: base.Add(time.Hour)},
	}, nil
}

var radarr = domain.Instance{ID: "r1", URL: "http://radarr", Type: domain.InstanceRadarr}

func newModel(repo *fakeRepo) *Model {
	m := New(repo, domain.NewNotifier(), nil)
	m.SetInstance(radarr)
	return m
}

func TestSwitchingMovieClearsAndReselectKeepsCache(t *testing.T) {
	repo := &fakeRepo{}
	m := newModel(repo)
	ctx := context.Background()

	m.SetMovie(domain.Movie{ID: 1})
	if err := m.FetchFiles(ctx); err != nil {
		t.Fatalf("FetchFiles() error = %v", err)
	}
	if len(m.Files()) != 1 {
		t.Fatalf("Files() = %v", m.Files())
	}

	// same movie: no clear, no refetch
	m.SetMovie(domain.Movie{ID: 1})
	if err := m.FetchFiles(ctx); err != nil {
		t.Fatalf("FetchFiles() error = %v", err)
	}
	if got := repo.filesCalls.Load(); got != 1 {
		t.Errorf("files fetched %d times, want 1", got)
	}
	if len(m.Files()) != 1 {
		t.Error("reselecting cleared the cache")
	}

	m.SetMovie(domain.Movie{ID: 2})
	if len(m.Files()) != 0 {
		t.Error("switching movie kept the old files")
	}
	m.FetchFiles(ctx)
	if got := m.Files(); len(got) != 1 || got[0].MovieID != 2 {
		t.Errorf("Files() = %+v", got)
	}
	if repo.filesCalls.Load() != 2 {
		t.Errorf("files fetched %d times, want 2", repo.filesCalls.Load())
	}
}

func TestFetchFailureSetsFailedFlag(t *testing.T) {
	repo := &fakeRepo{historyErr: &domain.APIError{Kind: domain.ErrorServerError, StatusCode: 500, Message: "db locked"}}
	m := newModel(repo)
	m.SetMovie(domain.Movie{ID: 1})

	if err := m.FetchHistory(context.Background()); err == nil {
		t.Fatal("FetchHistory() error = nil")
	}
	st := m.State(SectionHistory)
	if !st.Failed || st.Loading {
		t.Errorf("State() = %+v, want failed and not loading", st)
	}
	if m.Err() == nil {
		t.Error("Err() = nil")
	}

	// a new attempt clears the failed flag
	repo.historyErr = nil
	if err := m.FetchHistory(context.Background()); err != nil {
		t.Fatalf("FetchHistory() error = %v", err)
	}
	if st := m.State(SectionHistory); st.Failed {
		t.Error("failed flag kept after success")
	}
	history := m.History()
	if len(history) != 2 || history[0].ID != 2 {
		t.Errorf("History() = %+v, want newest first", history)
	}
}

func TestNoSelectionDoesNothing(t *testing.T) {
	repo := &fakeRepo{}
	m := New(repo, nil, nil)
	m.SetMovie(domain.Movie{ID: 1})

	if err := m.FetchFiles(context.Background()); err != nil {
		t.Errorf("FetchFiles() without instance error = %v", err)
	}
	if err := m.Refresh(context.Background()); err != nil {
		t.Errorf("Refresh() without instance error = %v", err)
	}
	if repo.filesCalls.Load() != 0 {
		t.Error("request made without an instance")
	}
}

func TestRefreshAllOrNothing(t *testing.T) {
	repo := &fakeRepo{}
	m := newModel(repo)
	m.SetMovie(domain.Movie{ID: 3})

	if err := m.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if len(m.Files()) != 1 || len(m.ExtraFiles()) != 1 || len(m.History()) != 2 {
		t.Fatal("Refresh() did not populate every section")
	}

	m.SetMovie(domain.Movie{ID: 4})
	repo.filesErr = errors.New("disk scan failed")
	if err := m.Refresh(context.Background()); err == nil {
		t.Fatal("Refresh() error = nil")
	}
	if len(m.Files()) != 0 || len(m.ExtraFiles()) != 0 || len(m.History()) != 0 {
		t.Error("partial refresh applied")
	}
	if !m.State(SectionFiles).Failed {
		t.Error("files not marked failed")
	}
	for _, s := range []Section{SectionFiles, SectionExtraFiles, SectionHistory} {
		if m.State(s).Loading {
			t.Errorf("%s still loading", s)
		}
	}
}

func TestSwitchingInstanceClearsSelection(t *testing.T) {
	m := newModel(&fakeRepo{})
	m.SetMovie(domain.Movie{ID: 1})
	m.FetchExtraFiles(context.Background())

	m.SetInstance(domain.Instance{ID: "r2", URL: "http://other", Type: domain.InstanceRadarr})
	if m.MovieID() != 0 || len(m.ExtraFiles()) != 0 {
		t.Error("instance change kept the selection")
	}
}
