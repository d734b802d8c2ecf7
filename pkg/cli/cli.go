package cli

import (
	"context"
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Fepozopo/instafilter/pkg/filter"
	"github.com/Fepozopo/instafilter/pkg/library"
	"github.com/Fepozopo/instafilter/pkg/session"
)

const noImageHint = "No photo loaded. Press 'o' to open one, or pass an image path as the first argument."

// ImagePreviewer shows an image to the user.
type ImagePreviewer interface {
	Show(img image.Image, format string) error
}

// Editor is the interactive loop around a session.
type Editor struct {
	sess     *session.Session
	lib      library.Saver
	prompt   *Prompter
	out      io.Writer
	preview  ImagePreviewer
	updater  *Updater
	useFzf   bool
	startDir string
	log      logrus.FieldLogger

	// format hint of the loaded photo, used for previews
	format string
}

// EditorOption configures an Editor.
type EditorOption func(*Editor)

// WithPreviewer sets the previewer; nil disables previews.
func WithPreviewer(p ImagePreviewer) EditorOption {
	return func(e *Editor) { e.preview = p }
}

// WithFzf enables fzf for file and filter selection when it is installed.
func WithFzf(enabled bool) EditorOption {
	return func(e *Editor) { e.useFzf = enabled }
}

// WithStartDir sets the directory the file picker searches.
func WithStartDir(dir string) EditorOption {
	return func(e *Editor) { e.startDir = dir }
}

// WithUpdater sets the updater used by the 'u' key.
func WithUpdater(u *Updater) EditorOption {
	return func(e *Editor) { e.updater = u }
}

// WithEditorLogger sets the logger.
func WithEditorLogger(l logrus.FieldLogger) EditorOption {
	return func(e *Editor) { e.log = l }
}

// NewEditor returns an editor driving sess, saving through lib.
func NewEditor(sess *session.Session, lib library.Saver, p *Prompter, out io.Writer, opts ...EditorOption) *Editor {
	e := &Editor{
		sess:     sess,
		lib:      lib,
		prompt:   p,
		out:      out,
		startDir: ".",
		log:      logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Editor) usage() {
	fmt.Fprintln(e.out, "Commands available:")
	fmt.Fprintln(e.out, "  o [path]   - open a photo")
	fmt.Fprintln(e.out, "  f [name]   - change filter")
	fmt.Fprintln(e.out, "  i [value]  - set intensity")
	fmt.Fprintln(e.out, "  r [value]  - set radius")
	fmt.Fprintln(e.out, "  x [value]  - set scale")
	fmt.Fprintln(e.out, "  p          - preview the current render")
	fmt.Fprintln(e.out, "  s          - save to the photo library")
	fmt.Fprintln(e.out, "  u          - check for updates")
	fmt.Fprintln(e.out, "  h          - show this help message")
	fmt.Fprintln(e.out, "  q          - quit")
}

// Open loads the photo at path into the session. A decode failure is
// reported and leaves the session unchanged.
func (e *Editor) Open(path string) bool {
	img, format, err := OpenImage(path)
	if err != nil {
		fmt.Fprintf(e.out, "could not read photo: %v\n", err)
		e.sess.LoadImage(nil)
		return false
	}
	e.format = format
	e.sess.LoadImage(img)
	fmt.Fprintf(e.out, "Opened %s\n", path)
	fmt.Fprintln(e.out, ImageInfo(img))
	e.showRendered()
	return true
}

// Run reads commands until q or end of input.
func (e *Editor) Run(ctx context.Context) error {
	fmt.Fprintln(e.out, "Instafilter")
	e.printStatus()
	e.usage()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := e.prompt.Line("> ")
		if err == io.EOF {
			fmt.Fprintln(e.out)
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		if line == "" {
			continue
		}
		key, arg := line[0], strings.TrimSpace(line[1:])

		switch key {
		case 'o':
			e.openCommand(arg)
		case 'f':
			e.filterCommand(arg)
		case 'i':
			e.parameterCommand(filter.Intensity, arg)
		case 'r':
			e.parameterCommand(filter.Radius, arg)
		case 'x':
			e.parameterCommand(filter.Scale, arg)
		case 'p':
			if e.sess.Rendered() == nil {
				fmt.Fprintln(e.out, noImageHint)
				continue
			}
			e.printStatus()
			e.showRendered()
		case 's':
			e.saveCommand(ctx)
		case 'u':
			e.updateCommand()
		case 'h', '?':
			e.usage()
		case 'q':
			fmt.Fprintln(e.out, "Exiting...")
			return nil
		default:
			fmt.Fprintf(e.out, "unknown command %q, press h for help\n", string(key))
		}
	}
}

func (e *Editor) openCommand(arg string) {
	path := arg
	if path == "" {
		path = e.pickPath()
	}
	if path == "" {
		fmt.Fprintln(e.out, "open cancelled")
		e.sess.LoadImage(nil)
		return
	}
	e.Open(path)
}

// pickPath asks for a photo with fzf when available, falling back to a
// typed path. An empty result means the pick was cancelled.
func (e *Editor) pickPath() string {
	if e.useFzf && fzfAvailable() {
		if sel, err := SelectFileWithFzf(e.startDir); err == nil && sel != "" {
			return sel
		} else if err != nil {
			e.log.WithError(err).Debug("fzf file selection unavailable")
		}
	}
	path, err := e.prompt.LineOrFzf("Enter path to photo ('/' for fzf, empty to cancel): ", e.startDir)
	if err != nil {
		return ""
	}
	return path
}

func (e *Editor) filterCommand(arg string) {
	k, err := e.chooseFilter(arg)
	if err == errCancelled {
		fmt.Fprintln(e.out, "selection cancelled")
		return
	}
	if err != nil {
		fmt.Fprintln(e.out, err)
		return
	}
	e.sess.SelectFilter(k)
	if spec, ok := filter.Lookup(k); ok {
		fmt.Fprintln(e.out, "\n"+spec.Tooltip()+"\n")
	}
	e.afterChange()
}

func (e *Editor) chooseFilter(arg string) (filter.Kind, error) {
	if arg != "" {
		return filter.ParseKind(arg)
	}
	if e.useFzf && fzfAvailable() {
		if k, err := SelectFilterWithFzf(filter.Specs); err == nil {
			return k, nil
		}
		fmt.Fprintln(e.out, "Filter selection (fallback):")
	}
	printFilterList(e.out, filter.Specs, e.sess.Filter())
	answer, err := e.prompt.Line("Enter number or filter name (leave empty to cancel): ")
	if err != nil {
		return 0, errCancelled
	}
	return resolveFilterSelection(filter.Specs, answer)
}

func (e *Editor) parameterCommand(r filter.Role, arg string) {
	raw := arg
	if raw == "" {
		var err error
		raw, err = e.prompt.Line(rolePrompt(r, e.sess.Parameters().Get(r)))
		if err != nil || raw == "" {
			fmt.Fprintln(e.out, "unchanged")
			return
		}
	}
	v, err := parseRoleValue(r, raw)
	if err != nil {
		fmt.Fprintln(e.out, err)
		return
	}
	stored := e.sess.SetParameter(r, v)
	fmt.Fprintf(e.out, "%s = %s\n", r, formatValue(stored))
	if !e.sess.Filter().Accepts(r) {
		fmt.Fprintf(e.out, "(%s does not use %s; the value is kept for other filters)\n", e.sess.Filter(), r)
		return
	}
	e.afterChange()
}

// afterChange shows the new render, or the hint when there is no photo.
func (e *Editor) afterChange() {
	if !e.sess.HasImage() {
		fmt.Fprintln(e.out, noImageHint)
		return
	}
	e.showRendered()
}

func (e *Editor) saveCommand(ctx context.Context) {
	res := e.sess.Save(ctx)
	switch res.Status {
	case session.SaveSkipped:
		fmt.Fprintln(e.out, "Nothing to save yet. "+noImageHint)
	case session.SaveOK:
		fmt.Fprintf(e.out, "Saved to %s\n", e.lib.LastPath())
	}
	if e.sess.LastSaveFailed() {
		fmt.Fprintf(e.out, "!! Could not save the photo: %v\n", res.Err)
		e.sess.ClearSaveFailure()
	}
}

func (e *Editor) updateCommand() {
	if e.updater == nil {
		fmt.Fprintln(e.out, "update checks are not available")
		return
	}
	updated, err := e.updater.Check()
	if err != nil {
		fmt.Fprintf(e.out, "update check error: %v\n", err)
		return
	}
	if updated {
		if err := Restart(); err != nil {
			fmt.Fprintf(e.out, "%v\nPlease restart the application manually.\n", err)
		}
	}
}

func (e *Editor) printStatus() {
	k := e.sess.Filter()
	params := e.sess.Parameters().For(k)
	fmt.Fprintf(e.out, "Filter: %s %s\n", k, params)
}

func (e *Editor) showRendered() {
	img := e.sess.Rendered()
	if img == nil || e.preview == nil {
		return
	}
	if err := e.preview.Show(img, e.format); err != nil {
		e.log.WithError(err).Debug("preview unavailable")
	}
}
