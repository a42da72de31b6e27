package arr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mmcdole/arrdeck/internal/domain"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*Client, domain.Instance) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	inst := domain.Instance{
		ID:      "inst-1",
		URL:     srv.URL + "/",
		APIKey:  "secret",
		Type:    domain.InstanceRadarr,
		Headers: map[string]string{"X-Proxy-Auth": "token"},
	}
	return NewClient(Options{Timeout: 5 * time.Second}, nil), inst
}

func TestFetchMoviesSendsAuthAndDecodes(t *testing.T) {
	client, inst := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/movie" {
			t.Errorf("path = %q, want /api/v3/movie", r.URL.Path)
		}
		if got := r.Header.Get("X-Api-Key"); got != "secret" {
			t.Errorf("X-Api-Key = %q, want secret", got)
		}
		if got := r.Header.Get("X-Proxy-Auth"); got != "token" {
			t.Errorf("extra header = %q, want token", got)
		}
		w.Write([]byte(`[{"id": 1, "title": "Alien", "year": 1979, "tmdbId": 348,
			"digitalRelease": "1999-10-26T00:00:00Z", "hasFile": true}]`))
	})

	movies, err := client.FetchMovies(context.Background(), inst)
	if err != nil {
		t.Fatalf("FetchMovies: %v", err)
	}
	if len(movies) != 1 || movies[0].Title != "Alien" || movies[0].TmdbID != 348 {
		t.Fatalf("unexpected movies: %+v", movies)
	}
	if movies[0].DigitalRelease == nil || movies[0].DigitalRelease.Year() != 1999 {
		t.Errorf("digital release not decoded: %v", movies[0].DigitalRelease)
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind domain.ErrorKind
		wantMsg  string
	}{
		{"message object", 500, `{"message": "database is locked"}`, domain.ErrorServerError, "database is locked"},
		{"validation array", 400, `[{"propertyName": "Path", "errorMessage": "Path is required"}]`, domain.ErrorServerError, "Path is required"},
		{"empty body", 503, ``, domain.ErrorBadStatusCode, ""},
		{"html body", 404, `<html>not found</html>`, domain.ErrorBadStatusCode, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, inst := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := client.FetchMovies(context.Background(), inst)
			var apiErr *domain.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %v", err)
			}
			if apiErr.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", apiErr.Kind, tt.wantKind)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.status)
			}
			if apiErr.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", apiErr.Message, tt.wantMsg)
			}
		})
	}
}

func TestDecodeFailure(t *testing.T) {
	client, inst := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not": "a list"}`))
	})

	_, err := client.FetchMovies(context.Background(), inst)
	if domain.KindOf(err) != domain.ErrorDecodeFailure {
		t.Fatalf("KindOf = %v, want decode failure (err: %v)", domain.KindOf(err), err)
	}
}

func TestUnreachableIsNotConnected(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClient(Options{Timeout: time.Second}, nil)
	inst := domain.Instance{ID: "x", URL: url, Type: domain.InstanceSonarr}

	_, err := client.FetchSeries(context.Background(), inst)
	if domain.KindOf(err) != domain.ErrorNotConnected {
		t.Fatalf("KindOf = %v, want not connected", domain.KindOf(err))
	}
	if !errors.Is(err, domain.ErrServerOffline) {
		t.Error("expected ErrServerOffline match")
	}
}

func TestCancelledRequest(t *testing.T) {
	release := make(chan struct{})
	client, inst := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := client.FetchMovies(ctx, inst)
	if !domain.IsCancelled(err) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestVoidInstanceMakesNoRequest(t *testing.T) {
	client := NewClient(Options{}, nil)
	_, err := client.FetchMovies(context.Background(), domain.VoidInstance(domain.InstanceRadarr))
	if !errors.Is(err, domain.ErrNoInstance) {
		t.Fatalf("err = %v, want ErrNoInstance", err)
	}
}

func TestDeleteMovieQuery(t *testing.T) {
	client, inst := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/api/v3/movie/12" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("deleteFiles") != "true" || q.Get("addImportExclusion") != "false" {
			t.Errorf("unexpected query %v", q)
		}
		w.WriteHeader(http.StatusOK)
	})

	err := client.DeleteMovie(context.Background(), inst, 12, domain.DeleteOptions{DeleteFiles: true})
	if err != nil {
		t.Fatalf("DeleteMovie: %v", err)
	}
}

func TestMonitorEpisodesBody(t *testing.T) {
	client, inst := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body episodeMonitor
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if len(body.EpisodeIDs) != 2 || body.Monitored {
			t.Errorf("unexpected body %+v", body)
		}
		w.Write([]byte(`[{"id": 4, "seriesId": 1, "monitored": false}, {"id": 5, "seriesId": 1, "monitored": false}]`))
	})

	eps, err := client.MonitorEpisodes(context.Background(), inst, []int{4, 5}, false)
	if err != nil {
		t.Fatalf("MonitorEpisodes: %v", err)
	}
	if len(eps) != 2 {
		t.Fatalf("got %d episodes, want 2", len(eps))
	}
}

func TestEpisodeReleasesRequiresTarget(t *testing.T) {
	client := NewClient(Options{}, nil)
	inst := domain.Instance{ID: "x", URL: "http://localhost:1", Type: domain.InstanceSonarr}
	if _, err := client.EpisodeReleases(context.Background(), inst, domain.ReleaseQuery{SeriesID: 3}); err == nil {
		t.Fatal("expected error for series without season")
	}
}

func TestFetchMetadata(t *testing.T) {
	client, inst := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v3/qualityprofile":
			w.Write([]byte(`[{"id": 1, "name": "HD-1080p"}]`))
		case "/api/v3/rootfolder":
			w.Write([]byte(`[{"id": 1, "path": "/movies", "accessible": true, "freeSpace": 1000}]`))
		case "/api/v3/tag":
			w.Write([]byte(`[{"id": 2, "label": "kids"}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	meta, err := client.FetchMetadata(context.Background(), inst)
	if err != nil {
		t.Fatalf("FetchMetadata: %v", err)
	}
	if len(meta.QualityProfiles) != 1 || len(meta.RootFolders) != 1 || len(meta.Tags) != 1 {
		t.Fatalf("unexpected metadata %+v", meta)
	}
	if meta.FetchedAt.IsZero() {
		t.Error("FetchedAt not set")
	}
}
