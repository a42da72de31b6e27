package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// HistoryEventType is the server's history event name
type HistoryEventType string

const (
	HistoryGrabbed         HistoryEventType = "grabbed"
	HistoryImported        HistoryEventType = "downloadFolderImported"
	HistoryDownloadFailed  HistoryEventType = "downloadFailed"
	HistoryFileDeleted     HistoryEventType = "movieFileDeleted"
	HistoryFileRenamed     HistoryEventType = "movieFileRenamed"
	HistoryDownloadIgnored HistoryEventType = "downloadIgnored"
)

// Label returns the display name of the event type
func (t HistoryEventType) Label() string {
	switch t {
	case HistoryGrabbed:
		return "Grabbed"
	case HistoryImported:
		return "Imported"
	case HistoryDownloadFailed:
		return "Failed"
	case HistoryFileDeleted:
		return "Deleted"
	case HistoryFileRenamed:
		return "Renamed"
	case HistoryDownloadIgnored:
		return "Ignored"
	default:
		return string(t)
	}
}

// HistoryEvent is one entry of a movie's history
type HistoryEvent struct {
	ID          int              `json:"id"`
	MovieID     int              `json:"movieId,omitempty"`
	EpisodeID   int              `json:"episodeId,omitempty"`
	SourceTitle string           `json:"sourceTitle"`
	EventType   HistoryEventType `json:"eventType"`
	Date        time.Time        `json:"date"`
	DownloadID  string           `json:"downloadId,omitempty"`
	Quality     Quality          `json:"quality"`
	Languages   []Language       `json:"languages,omitempty"`
	Data        HistoryData      `json:"data"`
}

// GetID returns the server identifier
func (h HistoryEvent) GetID() int { return h.ID }

// HistoryData is the free-form data object of a history event.
// Values arrive as strings, numbers or booleans and are stored as strings.
type HistoryData map[string]string

// UnmarshalJSON decodes a mixed-type object, stringifying scalars
func (d *HistoryData) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*d = nil
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	out := make(HistoryData, len(raw))
	for k, v := range raw {
		if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			out[k] = s
			continue
		}
		var n json.Number
		dec := json.NewDecoder(bytes.NewReader(v))
		dec.UseNumber()
		if err := dec.Decode(&n); err == nil {
			out[k] = n.String()
			continue
		}
		var bv bool
		if err := json.Unmarshal(v, &bv); err == nil {
			out[k] = strconv.FormatBool(bv)
			continue
		}
		// nested objects and arrays are skipped
	}
	*d = out
	return nil
}

// Indexer returns the indexer the release was grabbed from
func (d HistoryData) Indexer() string { return d["indexer"] }

// ReleaseGroup returns the release group
func (d HistoryData) ReleaseGroup() string { return d["releaseGroup"] }

// Reason returns the server-provided reason (deletions, ignores)
func (d HistoryData) Reason() string { return d["reason"] }

// Message returns the failure message of a failed download
func (d HistoryData) Message() string { return d["message"] }

// DroppedPath returns the path the download client dropped the file at
func (d HistoryData) DroppedPath() string { return d["droppedPath"] }

// ImportedPath returns the path the file was imported to
func (d HistoryData) ImportedPath() string { return d["importedPath"] }

// Size returns the release size in bytes, or 0
func (d HistoryData) Size() int64 {
	n, _ := strconv.ParseInt(d["size"], 10, 64)
	return n
}

// Int returns the integer value stored under key
func (d HistoryData) Int(key string) (int, bool) {
	v, ok := d[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Bool returns the boolean value stored under key
func (d HistoryData) Bool(key string) (bool, bool) {
	v, ok := d[key]
	if !ok {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}
