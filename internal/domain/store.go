package domain

import "time"

// Store handles the local snapshot cache (BoltDB + memory).
// Keys are scoped by instance id so removing an instance wipes its data.
type Store interface {
	// === Collections ===
	GetMovies(instanceID string) ([]Movie, bool)
	SaveMovies(instanceID string, movies []Movie) error

	GetSeries(instanceID string) ([]Series, bool)
	SaveSeries(instanceID string, series []Series) error

	// === Instance metadata ===
	GetMetadata(instanceID string) (InstanceMetadata, bool)
	SaveMetadata(instanceID string, meta InstanceMetadata) error

	// === Refresh throttle ===
	LastRefresh(instanceID string) (time.Time, bool)
	MarkRefreshed(instanceID string, at time.Time) error

	// === Invalidation ===
	InvalidateInstance(instanceID string)
	InvalidateAll()

	Close() error
}
