// Package thumbnail fetches a playlist entry's thumbnail image, decodes
// and downsamples it, and caches the result on disk as a small PNG keyed
// by JobId. Resolution is best-effort: callers treat a failure as "no
// thumbnail" rather than a hard error.
package thumbnail

import (
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"time"

	_ "golang.org/x/image/webp"
	"golang.org/x/image/draw"

	"multiytdlp/internal/model"
)

// maxSize is the longest edge, in pixels, of a cached thumbnail.
const maxSize = 96

// fetchTimeout bounds the best-effort HTTP fetch of the source image.
const fetchTimeout = 10 * time.Second

// Cache resolves and stores downsampled thumbnails under dir.
type Cache struct {
	dir    string
	client *http.Client
}

// NewCache returns a Cache rooted at dir. The directory is created by
// Resolve on first use, not here.
func NewCache(dir string) *Cache {
	return &Cache{dir: dir, client: &http.Client{Timeout: fetchTimeout}}
}

// Resolve fetches sourceURL, downsamples it, writes it to the cache keyed
// by id, and returns the cached file's path. Any failure is returned as
// an error; the caller decides whether to treat a missing thumbnail as
// fatal (it generally should not).
func (c *Cache) Resolve(id model.JobId, sourceURL string) (string, error) {
	if sourceURL == "" {
		return "", fmt.Errorf("thumbnail: empty source URL")
	}

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return "", fmt.Errorf("thumbnail: cache dir: %w", err)
	}

	dest := filepath.Join(c.dir, id.String()+".png")
	if _, err := os.Stat(dest); err == nil {
		return dest, nil
	}

	resp, err := c.client.Get(sourceURL)
	if err != nil {
		return "", fmt.Errorf("thumbnail: fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("thumbnail: fetch: status %d", resp.StatusCode)
	}

	src, _, err := image.Decode(resp.Body)
	if err != nil {
		return "", fmt.Errorf("thumbnail: decode: %w", err)
	}

	dst := downsample(src)

	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("thumbnail: create: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, dst); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("thumbnail: encode: %w", err)
	}

	return dest, nil
}

// downsample scales src so its longest edge is maxSize, preserving
// aspect ratio.
func downsample(src image.Image) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	var newW, newH int
	if w >= h {
		newW = maxSize
		newH = int(float64(h) * float64(maxSize) / float64(w))
	} else {
		newH = maxSize
		newW = int(float64(w) * float64(maxSize) / float64(h))
	}
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}
