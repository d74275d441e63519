// Package assets resolves texture paths against a directory on disk.
package assets

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sync"

	"github.com/signalsfoundry/orrery-sim/core"
	"github.com/signalsfoundry/orrery-sim/internal/logging"
	"github.com/signalsfoundry/orrery-sim/model"
	"golang.org/x/sync/singleflight"
)

var errAbsolutePath = errors.New("texture path must be relative to the asset root")

// FileResolver implements core.AssetResolver for textures stored under Root.
// A texture resolves when the file exists and its header decodes as PNG or
// JPEG. Paths are relative to Root and cannot leave it; absolute paths are
// rejected. Results, including failures, are cached per path.
type FileResolver struct {
	Root string

	log   logging.Logger
	group singleflight.Group

	mu    sync.RWMutex
	cache map[string]result
}

type result struct {
	tex *core.Texture
	err error
}

// NewFileResolver returns a resolver rooted at root.
func NewFileResolver(root string, log logging.Logger) *FileResolver {
	return &FileResolver{
		Root:  root,
		log:   logging.OrNoop(log).With(logging.String("component", "assets")),
		cache: make(map[string]result),
	}
}

// Resolve never fails: any problem is logged at warn level and the fallback
// colour is returned instead.
func (r *FileResolver) Resolve(ctx context.Context, path string, fallback model.Color) core.SurfaceInput {
	if path == "" {
		return core.SurfaceInput{Color: fallback}
	}

	res, cached := r.lookup(path)
	if !cached {
		v, _, _ := r.group.Do(path, func() (any, error) {
			if res, ok := r.lookup(path); ok {
				return res, nil
			}
			res := r.load(path)
			r.mu.Lock()
			r.cache[path] = res
			r.mu.Unlock()
			if res.err != nil {
				r.log.Warn(ctx, "texture unavailable; using fallback colour",
					logging.String("path", path),
					logging.String("fallback", fallback.Hex()),
					logging.Err(res.err),
				)
			}
			return res, nil
		})
		res = v.(result)
	}

	if res.err != nil {
		return core.SurfaceInput{Color: fallback}
	}
	return core.SurfaceInput{Texture: res.tex, Color: fallback}
}

// Loaded reports how many distinct paths have been attempted.
func (r *FileResolver) Loaded() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}

func (r *FileResolver) lookup(path string) (result, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.cache[path]
	return res, ok
}

func (r *FileResolver) load(path string) result {
	if filepath.IsAbs(path) {
		return result{err: fmt.Errorf("%w: %s", errAbsolutePath, path)}
	}
	full := filepath.Join(r.Root, filepath.Clean("/"+path))

	f, err := os.Open(full)
	if err != nil {
		return result{err: err}
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return result{err: fmt.Errorf("decode %s: %w", full, err)}
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return result{err: fmt.Errorf("decode %s: empty %s image", full, format)}
	}
	return result{tex: &core.Texture{Path: path, Width: cfg.Width, Height: cfg.Height}}
}

var _ core.AssetResolver = (*FileResolver)(nil)
