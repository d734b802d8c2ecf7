// Package library persists rendered photos to a local directory or an S3
// bucket.
package library

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/Fepozopo/instafilter/pkg/config"
)

var (
	// ErrPermission means the destination refused the write.
	ErrPermission = errors.New("library permission denied")
	// ErrEncode means the image could not be encoded in the requested format.
	ErrEncode = errors.New("library encode failed")
	// ErrNoImage means Save was called with a nil image.
	ErrNoImage = errors.New("library no image")
)

// Saver stores an image and remembers where the last one went.
type Saver interface {
	Save(ctx context.Context, img image.Image) error
	LastPath() string
}

// Encoding selects the file format written by a saver.
type Encoding struct {
	Ext         string
	JPEGQuality int
}

func (e Encoding) format() (imaging.Format, error) {
	f, err := imaging.FormatFromExtension(e.Ext)
	if err != nil {
		return 0, errors.Wrapf(ErrEncode, "format %q", e.Ext)
	}
	return f, nil
}

func (e Encoding) encode(w io.Writer, img image.Image) error {
	f, err := e.format()
	if err != nil {
		return err
	}
	q := e.JPEGQuality
	if q <= 0 {
		q = config.DefaultJPEGQuality
	}
	if err := imaging.Encode(w, img, f, imaging.JPEGQuality(q)); err != nil {
		return errors.Wrap(ErrEncode, err.Error())
	}
	return nil
}

func (e Encoding) contentType() string {
	f, err := e.format()
	if err != nil {
		return "application/octet-stream"
	}
	switch f {
	case imaging.PNG:
		return "image/png"
	case imaging.GIF:
		return "image/gif"
	}
	return "image/jpeg"
}

// newName returns a fresh file name with the encoding's extension.
func newName(ext string) string {
	return fmt.Sprintf("instafilter-%s.%s", uuid.New().String(), ext)
}

func encodeToBuffer(enc Encoding, img image.Image) (*bytes.Buffer, error) {
	if img == nil {
		return nil, ErrNoImage
	}
	var buf bytes.Buffer
	if err := enc.encode(&buf, img); err != nil {
		return nil, err
	}
	return &buf, nil
}

// New returns an S3 saver when a bucket is configured and a directory saver
// otherwise.
func New(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (Saver, error) {
	enc := Encoding{Ext: cfg.Format, JPEGQuality: cfg.JPEGQuality}
	if _, err := enc.format(); err != nil {
		return nil, err
	}
	if cfg.S3Bucket != "" {
		client, err := NewS3Client(ctx)
		if err != nil {
			return nil, err
		}
		return NewS3(client, cfg.S3Bucket, cfg.S3Prefix, enc, log), nil
	}
	return NewDir(cfg.LibraryDir, enc, log), nil
}
