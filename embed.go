// Package badger provides the embedded badge assets (templates, glyphs and
// the colorscheme table) and an overlay filesystem that checks a local
// directory first, falling back to the embedded copy.
package badger

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

//go:embed templates/*-template.*
var rawTemplates embed.FS

//go:embed glyphs/*.svg
var rawGlyphs embed.FS

// Colorschemes is the embedded colorscheme table in YAML.
//
//go:embed colorscheme.yaml
var Colorschemes []byte

// Templates is the embedded templates filesystem with the "templates/" prefix stripped.
var Templates = mustSub(rawTemplates, "templates")

// Glyphs is the embedded glyph filesystem with the "glyphs/" prefix stripped.
var Glyphs = mustSub(rawGlyphs, "glyphs")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

// OverlayFS returns a filesystem that checks localDir on disk first,
// falling back to the embedded filesystem for files not found locally.
// Directory listings merge both sources, local entries taking precedence.
func OverlayFS(localDir string, embedded fs.FS) fs.FS {
	return overlayFS{localDir: localDir, embedded: embedded}
}

type overlayFS struct {
	localDir string
	embedded fs.FS
}

func (o overlayFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	f, err := os.DirFS(o.localDir).Open(name)
	if err == nil {
		return f, nil
	}
	return o.embedded.Open(name)
}

func (o overlayFS) ReadDir(name string) ([]fs.DirEntry, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}
	local, localErr := fs.ReadDir(os.DirFS(o.localDir), name)
	embedded, embeddedErr := fs.ReadDir(o.embedded, name)
	if localErr != nil && embeddedErr != nil {
		return nil, embeddedErr
	}

	seen := make(map[string]bool, len(local))
	entries := make([]fs.DirEntry, 0, len(local)+len(embedded))
	for _, e := range local {
		seen[e.Name()] = true
		entries = append(entries, e)
	}
	for _, e := range embedded {
		if !seen[e.Name()] {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

// Assets bundles the asset sources used by the badge pipeline.
type Assets struct {
	Templates    fs.FS
	Glyphs       fs.FS
	Colorschemes []byte
}

// LoadAssets returns the embedded assets, overlaid by dir when it is not empty.
// dir may contain "templates/", "glyphs/" and "colorscheme.yaml".
func LoadAssets(dir string) (Assets, error) {
	a := Assets{Templates: Templates, Glyphs: Glyphs, Colorschemes: Colorschemes}
	if dir == "" {
		return a, nil
	}
	a.Templates = OverlayFS(filepath.Join(dir, "templates"), Templates)
	a.Glyphs = OverlayFS(filepath.Join(dir, "glyphs"), Glyphs)

	data, err := os.ReadFile(filepath.Join(dir, "colorscheme.yaml"))
	switch {
	case err == nil:
		a.Colorschemes = data
	case !errors.Is(err, fs.ErrNotExist):
		return Assets{}, fmt.Errorf("badger: reading colorscheme table: %w", err)
	}
	return a, nil
}
