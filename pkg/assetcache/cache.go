// Package assetcache maintains the per-folder cache of resized cover images
// downloaded from the remote store.
package assetcache

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dlshelf/dlshelf/pkg/models"
	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

const (
	// maxImages caps how many of the candidate URLs are cached per folder.
	maxImages = 5
	// maxWidth is the cache-time resize threshold. Anything wider gets
	// scaled down before encoding.
	maxWidth = 200
	// jpegQuality keeps the cache small; these are previews, not originals.
	jpegQuality = 50
)

// Cache downloads cover images into <folder>/thumb_imgs/.
type Cache struct {
	httpClient *http.Client
	log        logger.Logger
}

func New(timeout time.Duration) *Cache {
	return &Cache{
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.New(),
	}
}

// EnsureCoverImage makes sure the folder's primary cached image exists,
// fetching the whole image set if it doesn't. Returns the path of the primary
// image, or an empty string when there is nothing to cache.
func (c *Cache) EnsureCoverImage(ctx context.Context, folderPath string, urls []string) (string, error) {
	if len(urls) == 0 {
		return "", nil
	}

	destDir := filepath.Join(folderPath, models.ThumbDirName)
	primary := filepath.Join(destDir, "00.jpg")

	if _, err := os.Stat(primary); err == nil {
		return primary, nil
	}

	if err := c.FetchAndStore(ctx, urls, destDir); err != nil {
		return "", err
	}

	if _, err := os.Stat(primary); err != nil {
		return "", nil
	}
	return primary, nil
}

// FetchAndStore downloads up to maxImages of the given URLs into destDir as
// zero-padded NN.jpg files. Files that already exist are left untouched, so
// interrupted runs resume where they stopped. Per-URL failures are logged and
// skipped.
func (c *Cache) FetchAndStore(ctx context.Context, urls []string, destDir string) error {
	if len(urls) > maxImages {
		urls = urls[:maxImages]
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return errors.WithStack(err)
	}

	for i, url := range urls {
		dest := filepath.Join(destDir, fmt.Sprintf("%02d.jpg", i))
		if _, err := os.Stat(dest); err == nil {
			continue
		}

		if err := c.fetchOne(ctx, url, dest); err != nil {
			c.log.Err(err).Warn("cover image download failed", logger.Data{
				"url":  url,
				"dest": dest,
			})
		}
	}

	return nil
}

func (c *Cache) fetchOne(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, normalizeURL(url), nil)
	if err != nil {
		return errors.WithStack(err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.WithStack(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WithStack(err)
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return errors.Errorf("not an image: %s", mtype.String())
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return errors.WithStack(err)
	}

	img = shrinkToWidth(img, maxWidth)

	f, err := os.Create(dest)
	if err != nil {
		return errors.WithStack(err)
	}

	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		f.Close()
		os.Remove(dest)
		return errors.WithStack(err)
	}

	return errors.WithStack(f.Close())
}

// normalizeURL upgrades schemeless URLs (the store serves "//img.example/x"
// style references) to https.
func normalizeURL(url string) string {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}
	return "https://" + strings.TrimLeft(url, "/")
}
