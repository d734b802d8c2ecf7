// Package config loads editor settings from a .env file and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Environment variable names.
const (
	EnvLibraryDir     = "INSTAFILTER_LIBRARY_DIR"
	EnvFormat         = "INSTAFILTER_FORMAT"
	EnvJPEGQuality    = "INSTAFILTER_JPEG_QUALITY"
	EnvS3Bucket       = "INSTAFILTER_S3_BUCKET"
	EnvS3Prefix       = "INSTAFILTER_S3_PREFIX"
	EnvLogLevel       = "INSTAFILTER_LOG_LEVEL"
	EnvPreviewDebug   = "PREVIEW_DEBUG"
	EnvPreviewBackend = "PREVIEW_BACKEND"
)

const (
	DefaultFormat      = "jpg"
	DefaultJPEGQuality = 92
	DefaultLogLevel    = logrus.WarnLevel
)

// Config holds every setting the editor reads at start-up.
type Config struct {
	LibraryDir     string
	Format         string
	JPEGQuality    int
	S3Bucket       string
	S3Prefix       string
	LogLevel       logrus.Level
	PreviewDebug   bool
	PreviewBackend string
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		LibraryDir:  defaultLibraryDir(),
		Format:      DefaultFormat,
		JPEGQuality: DefaultJPEGQuality,
		LogLevel:    DefaultLogLevel,
	}
}

func defaultLibraryDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".", "instafilter")
	}
	return filepath.Join(home, "Pictures", "instafilter")
}

// Load reads the given .env files (a missing file is not an error; with no
// arguments ".env" in the working directory is tried) and then the
// environment. Variables already set in the environment win over the file.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from a lookup function such as os.LookupEnv.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	if v := get(EnvLibraryDir); v != "" {
		cfg.LibraryDir = expandHome(v)
	}
	if v := get(EnvFormat); v != "" {
		f, err := ParseFormat(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvFormat, err)
		}
		cfg.Format = f
	}
	if v := get(EnvJPEGQuality); v != "" {
		q, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: invalid number %q", EnvJPEGQuality, v)
		}
		if q < 1 || q > 100 {
			return Config{}, fmt.Errorf("%s: %d out of range 1..100", EnvJPEGQuality, q)
		}
		cfg.JPEGQuality = q
	}
	cfg.S3Bucket = get(EnvS3Bucket)
	cfg.S3Prefix = strings.Trim(get(EnvS3Prefix), "/")
	if v := get(EnvLogLevel); v != "" {
		lvl, err := logrus.ParseLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
		cfg.LogLevel = lvl
	}
	cfg.PreviewDebug = get(EnvPreviewDebug) != ""
	cfg.PreviewBackend = strings.ToLower(get(EnvPreviewBackend))
	return cfg, nil
}

// ParseFormat normalizes an output format name. jpeg is accepted as jpg.
func ParseFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")); f {
	case "jpg", "jpeg":
		return "jpg", nil
	case "png", "gif":
		return f, nil
	}
	return "", fmt.Errorf("unsupported format %q (want jpg, png or gif)", s)
}

// NewLogger returns a stderr logger at the configured level.
func (c Config) NewLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(c.LogLevel)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return l
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
