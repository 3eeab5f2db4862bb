package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"sync"

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder (common scanner output)
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// PageCache provides thread-safe caching of decoded page scans.
//
// Grading a batch usually touches the answer-key sheet many times (overlay,
// calibration, ROI fallback), so decoded pages are kept keyed by path until
// evicted.
//
// PageCache is safe for concurrent use by multiple goroutines.
//
// # Example Usage
//
//	cache := imaging.NewPageCache()
//	img, err := cache.Load("/scans/sheet-001.png")
//	if err != nil {
//	    return err
//	}
//	defer cache.Evict("/scans/sheet-001.png")
type PageCache struct {
	mu      sync.RWMutex
	pages   map[string]image.Image
	formats map[string]string
}

// NewPageCache creates an empty page cache.
func NewPageCache() *PageCache {
	return &PageCache{
		pages:   make(map[string]image.Image),
		formats: make(map[string]string),
	}
}

// Load returns the decoded page at path, reading it from disk on first use.
//
// Parameters:
//   - path: File path of the scan. PNG, JPEG, GIF, BMP, TIFF and WebP are
//     supported.
//
// Returns:
//   - image.Image: The decoded page.
//   - error: Non-nil if the file cannot be opened or decoded.
//
// Different spellings of the same path produce separate cache entries.
func (c *PageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.pages[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode page %s: %w", path, err)
	}

	c.mu.Lock()
	c.pages[path] = img
	c.formats[path] = format
	c.mu.Unlock()

	return img, nil
}

// Evict drops a single page from the cache.
func (c *PageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.pages, path)
	delete(c.formats, path)
	c.mu.Unlock()
}

// Clear drops every cached page.
func (c *PageCache) Clear() {
	c.mu.Lock()
	c.pages = make(map[string]image.Image)
	c.formats = make(map[string]string)
	c.mu.Unlock()
}

// Len returns the number of cached pages.
func (c *PageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pages)
}

func (c *PageCache) format(path string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if f, ok := c.formats[path]; ok {
		return f
	}
	return "unknown"
}

// PageInfo describes a loaded scan.
type PageInfo struct {
	// Path is the file the page was loaded from.
	Path string `json:"path"`

	// Width is the page width in pixels.
	Width int `json:"width"`

	// Height is the page height in pixels.
	Height int `json:"height"`

	// Format is the decoder that read the file ("png", "jpeg", "tiff", ...).
	Format string `json:"format"`

	// Grayscale is true when the scan was stored as a single channel.
	Grayscale bool `json:"grayscale"`

	// FileSizeBytes is the size of the file on disk.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadPageInfo loads a page through cache and reports its metadata.
//
// Parameters:
//   - cache: The page cache to load through. Must not be nil.
//   - path: Path to the scan.
//
// Returns:
//   - *PageInfo: Metadata about the page.
//   - error: Non-nil if the page cannot be loaded or stat'd.
func LoadPageInfo(cache *PageCache, path string) (*PageInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat page: %w", err)
	}

	grayscale := false
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		grayscale = true
	}

	b := img.Bounds()
	return &PageInfo{
		Path:          path,
		Width:         b.Dx(),
		Height:        b.Dy(),
		Format:        cache.format(path),
		Grayscale:     grayscale,
		FileSizeBytes: stat.Size(),
	}, nil
}
