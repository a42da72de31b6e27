package arr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/arrdeck/internal/domain"
)

const detectTimeout = 10 * time.Second

// ValidateURL checks that raw is an absolute http(s) URL
func ValidateURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return &domain.ValidationError{Kind: domain.ValidationURLInvalid, Err: err}
	}
	return nil
}

// Validate probes an instance and confirms it runs the expected application.
// Failures are returned as *domain.ValidationError.
func (c *Client) Validate(ctx context.Context, inst domain.Instance) (domain.InstanceStatus, error) {
	if err := ValidateURL(inst.URL); err != nil {
		return domain.InstanceStatus{}, err
	}

	client := &http.Client{Timeout: detectTimeout}
	status, err := probeStatus(ctx, client, inst)
	if err != nil {
		return domain.InstanceStatus{}, err
	}

	if !strings.EqualFold(status.AppName, inst.Type.AppName()) {
		return status, &domain.ValidationError{
			Kind:     domain.ValidationWrongAppType,
			Expected: inst.Type,
			Found:    status.AppName,
		}
	}

	c.logger.Info("instance validated", "url", inst.BaseURL(), "app", status.AppName, "version", status.Version)
	return status, nil
}

// DetectType probes a URL and reports which application answers
func (c *Client) DetectType(ctx context.Context, inst domain.Instance) (domain.InstanceType, error) {
	if err := ValidateURL(inst.URL); err != nil {
		return "", err
	}

	client := &http.Client{Timeout: detectTimeout}
	status, err := probeStatus(ctx, client, inst)
	if err != nil {
		return "", err
	}

	for _, t := range []domain.InstanceType{domain.InstanceRadarr, domain.InstanceSonarr} {
		if strings.EqualFold(status.AppName, t.AppName()) {
			return t, nil
		}
	}
	return "", &domain.ValidationError{Kind: domain.ValidationWrongAppType, Expected: inst.Type, Found: status.AppName}
}

// probeStatus requests /system/status and maps failures to validation kinds
func probeStatus(ctx context.Context, client *http.Client, inst domain.Instance) (domain.InstanceStatus, error) {
	var status domain.InstanceStatus

	reqURL := inst.BaseURL() + apiPrefix + "/system/status"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return status, &domain.ValidationError{Kind: domain.ValidationURLInvalid, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", inst.APIKey)
	req.Header.Set("User-Agent", userAgent)
	for k, v := range inst.Headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return status, ctx.Err()
		}
		return status, &domain.ValidationError{Kind: domain.ValidationUnreachable, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return status, &domain.ValidationError{Kind: domain.ValidationBadResponse, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		if msg := extractMessage(body); msg != "" && resp.StatusCode != http.StatusUnauthorized {
			return status, &domain.ValidationError{
				Kind:       domain.ValidationErrorResponse,
				StatusCode: resp.StatusCode,
				Message:    msg,
			}
		}
		return status, &domain.ValidationError{Kind: domain.ValidationBadStatus, StatusCode: resp.StatusCode}
	}

	if err := json.Unmarshal(body, &status); err != nil {
		return status, &domain.ValidationError{Kind: domain.ValidationBadResponse, Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	if status.AppName == "" {
		return status, &domain.ValidationError{Kind: domain.ValidationBadResponse}
	}
	return status, nil
}
