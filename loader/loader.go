// Package loader provides the ByteLoader implementations shader binaries
// are read through: plain files, a packr box and kar archives.
package loader

import (
	"io/ioutil"
	"path/filepath"

	"github.com/gobuffalo/packr"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/mmap"

	"github.com/devblok/vkboot/gfx"
	"github.com/devblok/vkboot/utility/kar"
)

// File loads from the file system, relative to Root.
type File struct {
	Root string
}

// Load implements interface
func (f File) Load(path string) ([]byte, error) {
	contents, err := ioutil.ReadFile(filepath.Join(f.Root, path))
	if err != nil {
		return nil, gfx.E(gfx.FileNotFound, "loader.File.Load()", err)
	}
	return contents, nil
}

// Box loads from a packr box, from disk during development and from
// the binary once packed.
type Box struct {
	box packr.Box
}

// NewBox serves files from box. Boxes resolve their directory relative to
// the source file calling packr.NewBox, so they are created by the caller.
func NewBox(box packr.Box) *Box {
	return &Box{box: box}
}

// Load implements interface
func (b *Box) Load(path string) ([]byte, error) {
	contents, err := b.box.Find(path)
	if err != nil {
		return nil, gfx.E(gfx.FileNotFound, "loader.Box.Load()", err)
	}
	return contents, nil
}

// Archive loads files stored in a kar archive.
type Archive struct {
	archive *kar.Archive
	closer  func() error
}

// NewArchive serves files from an already opened archive.
func NewArchive(ar *kar.Archive) *Archive {
	return &Archive{archive: ar}
}

// OpenArchive memory maps the kar archive at path.
func OpenArchive(path string) (*Archive, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, gfx.E(gfx.FileNotFound, "mmap.Open()", err)
	}
	ar, err := kar.Open(r)
	if err != nil {
		r.Close()
		return nil, gfx.E(gfx.Initialization, "kar.Open()", err)
	}
	log.WithFields(log.Fields{
		"archive": path,
		"files":   len(ar.Names()),
	}).Debug("archive opened")
	return &Archive{archive: ar, closer: r.Close}, nil
}

// Load implements interface
func (a *Archive) Load(path string) ([]byte, error) {
	contents, err := a.archive.ReadAll(path)
	if err == kar.ErrNotExist {
		return nil, gfx.E(gfx.FileNotFound, "loader.Archive.Load()", err)
	} else if err != nil {
		return nil, gfx.E(gfx.Other, "loader.Archive.Load()", err)
	}
	return contents, nil
}

// Close unmaps the archive when it was opened by OpenArchive.
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer()
}

// Memory serves files held in memory, keyed by path.
type Memory map[string][]byte

// Load implements interface
func (m Memory) Load(path string) ([]byte, error) {
	contents, ok := m[path]
	if !ok {
		return nil, gfx.Errorf(gfx.FileNotFound, "loader.Memory.Load()", "%s: no such file", path)
	}
	return contents, nil
}
