package domain

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

// InstanceType identifies which server application an instance runs
type InstanceType string

const (
	InstanceRadarr InstanceType = "radarr"
	InstanceSonarr InstanceType = "sonarr"
)

// String returns the type name
func (t InstanceType) String() string { return string(t) }

// AppName returns the name the server reports in /system/status
func (t InstanceType) AppName() string {
	switch t {
	case InstanceRadarr:
		return "Radarr"
	case InstanceSonarr:
		return "Sonarr"
	default:
		return ""
	}
}

// ParseInstanceType parses a config or flag value
func ParseInstanceType(s string) (InstanceType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "radarr", "movie", "movies":
		return InstanceRadarr, nil
	case "sonarr", "series", "tv":
		return InstanceSonarr, nil
	default:
		return "", fmt.Errorf("unknown instance type %q", s)
	}
}

// Instance is one configured server
type Instance struct {
	ID      string            `mapstructure:"id" json:"id"`
	Label   string            `mapstructure:"label" json:"label"`
	URL     string            `mapstructure:"url" json:"url"`
	APIKey  string            `mapstructure:"api_key" json:"-"`
	Type    InstanceType      `mapstructure:"type" json:"type"`
	Headers map[string]string `mapstructure:"headers" json:"-"`
}

// VoidInstance returns the placeholder used when no instance of a type is configured
func VoidInstance(t InstanceType) Instance {
	return Instance{Type: t}
}

// IsVoid reports whether this is the placeholder instance
func (i Instance) IsVoid() bool { return i.ID == "" }

// DisplayName returns the label, or the host when no label is set
func (i Instance) DisplayName() string {
	if i.Label != "" {
		return i.Label
	}
	if u, err := url.Parse(i.URL); err == nil && u.Host != "" {
		return u.Host
	}
	return i.URL
}

// BaseURL returns the URL without a trailing slash
func (i Instance) BaseURL() string {
	return strings.TrimRight(i.URL, "/")
}

// LogValue omits the API key and headers
func (i Instance) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", i.ID),
		slog.String("type", string(i.Type)),
		slog.String("url", i.URL),
	)
}

// Clone returns a copy that shares no maps with the receiver
func (i Instance) Clone() Instance {
	if i.Headers != nil {
		h := make(map[string]string, len(i.Headers))
		for k, v := range i.Headers {
			h[k] = v
		}
		i.Headers = h
	}
	return i
}
