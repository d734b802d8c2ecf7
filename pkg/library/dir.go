package library

import (
	"context"
	"image"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Dir writes each saved image as a new file in a directory.
type Dir struct {
	root string
	enc  Encoding
	log  logrus.FieldLogger
	last string
}

// NewDir returns a saver writing into root. The directory is created on the
// first save.
func NewDir(root string, enc Encoding, log logrus.FieldLogger) *Dir {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Dir{root: root, enc: enc, log: log}
}

// Root returns the library directory.
func (d *Dir) Root() string { return d.root }

// LastPath returns the file written by the most recent successful save.
func (d *Dir) LastPath() string { return d.last }

// Save encodes img and writes it to a new file under the root.
func (d *Dir) Save(ctx context.Context, img image.Image) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	buf, err := encodeToBuffer(d.enc, img)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(d.root, 0o755); err != nil {
		return mapFSError(err, d.root)
	}
	path := filepath.Join(d.root, newName(d.enc.Ext))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return mapFSError(err, path)
	}
	d.last = path
	d.log.WithFields(logrus.Fields{"path": path, "bytes": buf.Len()}).Info("saved to library")
	return nil
}

func mapFSError(err error, path string) error {
	if os.IsPermission(err) {
		return errors.Wrap(ErrPermission, path)
	}
	return errors.Wrapf(err, "write %s", path)
}
