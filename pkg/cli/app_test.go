package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	urfave "github.com/urfave/cli/v2"

	"github.com/Fepozopo/instafilter/pkg/config"
)

// testApp returns the app writing to a buffer and never calling os.Exit.
func testApp(t *testing.T) (*urfave.App, *bytes.Buffer, *error) {
	t.Helper()
	for _, k := range []string{config.EnvLibraryDir, config.EnvFormat, config.EnvJPEGQuality, config.EnvS3Bucket, config.EnvS3Prefix, config.EnvLogLevel} {
		t.Setenv(k, "")
	}
	var out bytes.Buffer
	var exitErr error
	app := NewApp()
	app.Writer = &out
	app.ErrWriter = &out
	app.ExitErrHandler = func(_ *urfave.Context, err error) { exitErr = err }
	return app, &out, &exitErr
}

func TestApplyCommandSavesToLibrary(t *testing.T) {
	photo := writePhoto(t)
	lib := t.TempDir()
	app, out, _ := testApp(t)
	args := []string{"instafilter", "--env-file", filepath.Join(t.TempDir(), "none.env"), "--library", lib, "--format", "png",
		"apply", "--filter", "pixel", "--scale", "3", photo}
	if err := app.Run(args); err != nil {
		t.Fatalf("Run: %v", err)
	}
	saved := strings.TrimSpace(out.String())
	if filepath.Dir(saved) != lib || filepath.Ext(saved) != ".png" {
		t.Fatalf("unexpected output path %q", saved)
	}
	img, err := imaging.Open(saved)
	if err != nil {
		t.Fatalf("open result: %v", err)
	}
	if img.Bounds().Dx() != 12 || img.Bounds().Dy() != 8 {
		t.Fatalf("result bounds = %v", img.Bounds())
	}
	entries, _ := os.ReadDir(lib)
	if len(entries) != 1 {
		t.Fatalf("library has %d files", len(entries))
	}
}

func TestApplyCommandErrors(t *testing.T) {
	photo := writePhoto(t)
	cases := map[string][]string{
		"missing path":   {"apply"},
		"unknown filter": {"apply", "--filter", "polaroid", photo},
		"bad format":     {"--format", "webp", "apply", photo},
		"bad quality":    {"--quality", "0", "apply", photo},
		"missing photo":  {"apply", filepath.Join(t.TempDir(), "nope.png")},
	}
	for name, extra := range cases {
		t.Run(name, func(t *testing.T) {
			app, _, exitErr := testApp(t)
			args := append([]string{"instafilter", "--env-file", filepath.Join(t.TempDir(), "none.env"), "--library", t.TempDir()}, extra...)
			err := app.Run(args)
			if err == nil && *exitErr == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestFiltersCommand(t *testing.T) {
	app, out, _ := testApp(t)
	if err := app.Run([]string{"instafilter", "filters"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "sepiatone\n") || !strings.Contains(out.String(), "unsharpmask\n") {
		t.Fatalf("unexpected listing:\n%s", out.String())
	}
}

func TestVersionCommand(t *testing.T) {
	app, out, _ := testApp(t)
	if err := app.Run([]string{"instafilter", "version"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.TrimSpace(out.String()) != "instafilter "+Version {
		t.Fatalf("output = %q", out.String())
	}
}
