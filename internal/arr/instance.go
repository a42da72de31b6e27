package arr

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mmcdole/arrdeck/internal/domain"
)

// SystemStatus returns the server's identity
func (c *Client) SystemStatus(ctx context.Context, inst domain.Instance) (domain.InstanceStatus, error) {
	return get[domain.InstanceStatus](ctx, c, inst, "/system/status", nil)
}

// FetchMetadata loads quality profiles, root folders and tags concurrently
func (c *Client) FetchMetadata(ctx context.Context, inst domain.Instance) (domain.InstanceMetadata, error) {
	var meta domain.InstanceMetadata

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		profiles, err := get[[]domain.QualityProfile](gctx, c, inst, "/qualityprofile", nil)
		if err != nil {
			return fmt.Errorf("quality profiles: %w", err)
		}
		meta.QualityProfiles = profiles
		return nil
	})
	g.Go(func() error {
		folders, err := get[[]domain.RootFolder](gctx, c, inst, "/rootfolder", nil)
		if err != nil {
			return fmt.Errorf("root folders: %w", err)
		}
		meta.RootFolders = folders
		return nil
	})
	g.Go(func() error {
		tags, err := get[[]domain.Tag](gctx, c, inst, "/tag", nil)
		if err != nil {
			return fmt.Errorf("tags: %w", err)
		}
		meta.Tags = tags
		return nil
	})

	if err := g.Wait(); err != nil {
		return domain.InstanceMetadata{}, err
	}
	meta.FetchedAt = time.Now()
	return meta, nil
}

// SendCommand queues a server task
func (c *Client) SendCommand(ctx context.Context, inst domain.Instance, cmd domain.Command) error {
	return c.doRequest(ctx, inst, http.MethodPost, "/command", nil, cmd, nil)
}

// releaseGrab is the body of POST /release
type releaseGrab struct {
	GUID      string `json:"guid"`
	IndexerID int    `json:"indexerId"`
}

// DownloadRelease sends a release to the download client
func (c *Client) DownloadRelease(ctx context.Context, inst domain.Instance, release domain.Release) error {
	body := releaseGrab{GUID: release.GUID, IndexerID: release.IndexerID}
	return c.doRequest(ctx, inst, http.MethodPost, "/release", nil, body, nil)
}
