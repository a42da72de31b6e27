package domain

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestInstanceLogValueOmitsSecrets(t *testing.T) {
	inst := Instance{
		ID:      "r1",
		URL:     "http://radarr:7878",
		APIKey:  "s3cret",
		Type:    InstanceRadarr,
		Headers: map[string]string{"X-Proxy-Auth": "token"},
	}

	var buf bytes.Buffer
	slog.New(slog.NewJSONHandler(&buf, nil)).Info("probe", "instance", inst)

	out := buf.String()
	for _, secret := range []string{"s3cret", "token"} {
		if strings.Contains(out, secret) {
			t.Errorf("log contains %q: %s", secret, out)
		}
	}
	if !strings.Contains(out, `"id":"r1"`) {
		t.Errorf("log missing instance id: %s", out)
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		inst Instance
		want string
	}{
		{Instance{Label: "Movies 4K", URL: "http://radarr:7878"}, "Movies 4K"},
		{Instance{URL: "http://radarr:7878/base"}, "radarr:7878"},
		{Instance{URL: "not a url"}, "not a url"},
	}
	for _, tt := range tests {
		if got := tt.inst.DisplayName(); got != tt.want {
			t.Errorf("DisplayName(%+v) = %q, want %q", tt.inst, got, tt.want)
		}
	}
}
