package cli

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	urfave "github.com/urfave/cli/v2"

	"github.com/Fepozopo/instafilter/pkg/config"
	"github.com/Fepozopo/instafilter/pkg/filter"
	"github.com/Fepozopo/instafilter/pkg/library"
	"github.com/Fepozopo/instafilter/pkg/session"
	"github.com/Fepozopo/instafilter/pkg/stdimg"
)

var globalFlags = []urfave.Flag{
	&urfave.StringFlag{Name: "env-file", Value: ".env", Usage: "dotenv file to load before reading the environment"},
	&urfave.StringFlag{Name: "library", Aliases: []string{"l"}, Usage: "photo library directory"},
	&urfave.StringFlag{Name: "format", Usage: "output format: jpg, png or gif"},
	&urfave.IntFlag{Name: "quality", Usage: "JPEG quality 1..100"},
	&urfave.StringFlag{Name: "bucket", Usage: "save to this S3 bucket instead of the library directory"},
	&urfave.StringFlag{Name: "prefix", Usage: "S3 key prefix"},
	&urfave.StringFlag{Name: "log-level", Usage: "panic, fatal, error, warn, info, debug or trace"},
	&urfave.StringFlag{Name: "preview", Usage: "preview backend: kitty, inline, sixel, chafa or none"},
	&urfave.BoolFlag{Name: "no-fzf", Usage: "never shell out to fzf"},
	&urfave.StringFlag{Name: "dir", Value: ".", Usage: "directory the photo picker searches"},
}

// NewApp returns the instafilter command tree.
func NewApp() *urfave.App {
	return &urfave.App{
		Name:      "instafilter",
		Usage:     "apply photo filters from the terminal",
		Version:   Version,
		ArgsUsage: "[image]",
		Flags:     globalFlags,
		Action:    editAction,
		Commands: []*urfave.Command{
			{
				Name:      "edit",
				Usage:     "open the interactive editor",
				ArgsUsage: "[image]",
				Action:    editAction,
			},
			{
				Name:   "filters",
				Usage:  "list the filters and the parameters they read",
				Action: filtersAction,
			},
			{
				Name:      "apply",
				Usage:     "filter one photo and save it to the library",
				ArgsUsage: "<image>",
				Flags: []urfave.Flag{
					&urfave.StringFlag{Name: "filter", Aliases: []string{"f"}, Value: filter.SepiaTone.Ident(), Usage: "filter name or unique prefix"},
					&urfave.Float64Flag{Name: "intensity", Aliases: []string{"i"}, Value: filter.Intensity.Default()},
					&urfave.Float64Flag{Name: "radius", Aliases: []string{"r"}, Value: filter.Radius.Default()},
					&urfave.Float64Flag{Name: "scale", Aliases: []string{"x"}, Value: filter.Scale.Default()},
				},
				Action: applyAction,
			},
			{
				Name:  "version",
				Usage: "print the version",
				Action: func(c *urfave.Context) error {
					fmt.Fprintf(c.App.Writer, "instafilter %s\n", Version)
					return nil
				},
			},
		},
	}
}

// loadConfig reads .env and the environment, then applies flag overrides.
func loadConfig(c *urfave.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("env-file"))
	if err != nil {
		return cfg, err
	}
	if c.IsSet("library") {
		cfg.LibraryDir = c.String("library")
	}
	if c.IsSet("format") {
		if cfg.Format, err = config.ParseFormat(c.String("format")); err != nil {
			return cfg, err
		}
	}
	if c.IsSet("quality") {
		q := c.Int("quality")
		if q < 1 || q > 100 {
			return cfg, fmt.Errorf("--quality %d out of range 1..100", q)
		}
		cfg.JPEGQuality = q
	}
	if c.IsSet("bucket") {
		cfg.S3Bucket = c.String("bucket")
	}
	if c.IsSet("prefix") {
		cfg.S3Prefix = c.String("prefix")
	}
	if c.IsSet("log-level") {
		if cfg.LogLevel, err = logrus.ParseLevel(c.String("log-level")); err != nil {
			return cfg, err
		}
	}
	if c.IsSet("preview") {
		cfg.PreviewBackend = c.String("preview")
	}
	return cfg, nil
}

// stack holds what every command builds from the configuration.
type stack struct {
	cfg config.Config
	log *logrus.Logger
	lib library.Saver
}

func newStack(c *urfave.Context) (*stack, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, urfave.Exit(fmt.Sprintf("configuration: %v", err), 2)
	}
	log := cfg.NewLogger()
	lib, err := library.New(c.Context, cfg, log)
	if err != nil {
		return nil, urfave.Exit(fmt.Sprintf("photo library: %v", err), 2)
	}
	log.WithFields(logrus.Fields{"library": cfg.LibraryDir, "bucket": cfg.S3Bucket, "format": cfg.Format}).Debug("configured")
	return &stack{cfg: cfg, log: log, lib: lib}, nil
}

func editAction(c *urfave.Context) error {
	st, err := newStack(c)
	if err != nil {
		return err
	}
	sess := session.New(stdimg.Engine{}, st.lib, session.WithLogger(st.log))
	p := NewPrompter(os.Stdin, c.App.Writer)
	e := NewEditor(sess, st.lib, p, c.App.Writer,
		WithPreviewer(NewPreviewer(st.cfg)),
		WithFzf(!c.Bool("no-fzf")),
		WithStartDir(c.String("dir")),
		WithUpdater(NewUpdater(p, c.App.Writer)),
		WithEditorLogger(st.log),
	)
	if path := c.Args().First(); path != "" {
		if !e.Open(path) {
			return urfave.Exit("", 1)
		}
	}
	return e.Run(c.Context)
}

func filtersAction(c *urfave.Context) error {
	writeFilterTable(c.App.Writer, filter.Specs)
	return nil
}

func applyAction(c *urfave.Context) error {
	path := c.Args().First()
	if path == "" {
		return urfave.Exit("apply: missing image path", 2)
	}
	kind, err := filter.ParseKind(c.String("filter"))
	if err != nil {
		return urfave.Exit(fmt.Sprintf("apply: %v", err), 2)
	}
	st, err := newStack(c)
	if err != nil {
		return err
	}
	img, _, err := OpenImage(path)
	if err != nil {
		return urfave.Exit(err.Error(), 1)
	}

	params := filter.DefaultParameters().
		With(filter.Intensity, c.Float64("intensity")).
		With(filter.Radius, c.Float64("radius")).
		With(filter.Scale, c.Float64("scale"))
	sess := session.New(stdimg.Engine{}, st.lib,
		session.WithLogger(st.log),
		session.WithFilter(kind),
		session.WithParameters(params),
	)
	sess.LoadImage(img)
	res := sess.Save(c.Context)
	switch res.Status {
	case session.SaveSkipped:
		return urfave.Exit(fmt.Sprintf("apply: %s produced no image", kind), 1)
	case session.SaveFailed:
		return urfave.Exit(fmt.Sprintf("apply: save failed: %v", res.Err), 1)
	}
	fmt.Fprintln(c.App.Writer, st.lib.LastPath())
	return nil
}
