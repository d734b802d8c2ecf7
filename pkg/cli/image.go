package cli

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// OpenImage decodes the file at path, applying its EXIF orientation. The
// returned format is the lowercase file extension without the dot.
func OpenImage(path string) (image.Image, string, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", path, err)
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if format == "jpeg" {
		format = "jpg"
	}
	return img, format, nil
}

// ImageInfo returns a short description of img.
func ImageInfo(img image.Image) string {
	if img == nil {
		return "no image"
	}
	b := img.Bounds()
	format := "unknown"
	switch img.(type) {
	case *image.YCbCr:
		format = "JPEG"
	case *image.Paletted:
		format = "GIF"
	case *image.NRGBA, *image.NRGBA64, *image.RGBA, *image.RGBA64,
		*image.Gray, *image.Gray16:
		// decoded lossless images are most often PNG
		format = "PNG"
	}
	return fmt.Sprintf("Format: %s, Width: %d, Height: %d", format, b.Dx(), b.Dy())
}
