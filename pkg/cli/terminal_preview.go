package cli

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/image/draw"

	"github.com/Fepozopo/instafilter/pkg/config"
)

// Terminal preview for the rendered photo.
//
// Backends, in detection order:
//   - iTerm2-style OSC 1337 inline images (iTerm2, WezTerm, Warp, Tabby, VSCode, ...)
//   - the kitty graphics protocol (kitty, ghostty, Konsole)
//   - Sixel through img2sixel (foot, Windows Terminal, st with the sixel patch)
//   - chafa block rendering for anything else
//
// PREVIEW_BACKEND forces a backend first (kitty, inline, sixel, chafa) and
// "none" disables previews. Images are downscaled to the preview area before
// encoding so large photos are not shipped to the terminal at full size.

// Character cell pixel assumptions and preview clamps.
const (
	charW   = 8
	charH   = 16
	minCols = 6
	minRows = 3
	maxCols = 80
	maxRows = 40
)

// Previewer shows images in the terminal.
type Previewer struct {
	Out     io.Writer
	Backend string
	Debug   bool
}

// NewPreviewer returns a previewer writing to stdout, configured from cfg.
func NewPreviewer(cfg config.Config) *Previewer {
	return &Previewer{Out: os.Stdout, Backend: cfg.PreviewBackend, Debug: cfg.PreviewDebug}
}

func (p *Previewer) debugf(format string, args ...interface{}) {
	if p.Debug {
		fmt.Fprintf(os.Stderr, "instafilter-preview: "+format+"\n", args...)
	}
}

func isKitty() bool {
	// kitty, or a kitty-compatible implementation such as ghostty
	if os.Getenv("KITTY_WINDOW_ID") != "" {
		return true
	}
	term := strings.ToLower(os.Getenv("TERM"))
	if strings.Contains(term, "kitty") || strings.Contains(term, "ghost") {
		return true
	}
	// Konsole implements parts of the protocol
	return os.Getenv("KONSOLE_VERSION") != ""
}

// isInlineImageCapable detects terminals implementing the iTerm2 inline
// images OSC, using TERM_PROGRAM and common TERM substrings.
func isInlineImageCapable() bool {
	switch os.Getenv("TERM_PROGRAM") {
	case "iTerm.app", "WezTerm", "Warp", "Hyper", "vscode", "VSCode", "Tabby", "Bobcat":
		return true
	}
	term := strings.ToLower(os.Getenv("TERM"))
	for _, s := range []string{"wez", "warp", "tabby", "vscode"} {
		if strings.Contains(term, s) {
			return true
		}
	}
	return os.Getenv("ITERM_SESSION_ID") != ""
}

// isSixelCapable is a heuristic; SIXEL_PREVIEW=1 forces it.
func isSixelCapable() bool {
	if os.Getenv("SIXEL_PREVIEW") == "1" {
		return true
	}
	term := strings.ToLower(os.Getenv("TERM"))
	if strings.Contains(term, "foot") || strings.Contains(term, "st") || strings.Contains(term, "linux") {
		return true
	}
	// newer Windows Terminal builds
	return os.Getenv("WT_SESSION") != ""
}

func hasChafa() bool {
	if os.Getenv("NO_CHAFA") == "1" {
		return false
	}
	_, err := exec.LookPath("chafa")
	return err == nil
}

// postImageNewlines returns how many lines to emit after an image so the
// prompt lands just below it.
func postImageNewlines(requestedRows int) int {
	switch {
	case requestedRows <= 0, requestedRows <= 2:
		return 1
	case requestedRows <= 6:
		return 2
	case requestedRows <= 20:
		return 3
	}
	return 4
}

// Supported reports whether any preview backend is likely to work.
func (p *Previewer) Supported() bool {
	if strings.EqualFold(p.Backend, "none") {
		return false
	}
	return p.Backend != "" || isKitty() || isInlineImageCapable() || isSixelCapable() || hasChafa()
}

// PreviewSize conveys a target placement for terminal preview backends.
type PreviewSize struct {
	Cols        int // terminal character columns
	Rows        int // terminal character rows
	PixelWidth  int // Cols * cell width
	PixelHeight int // Rows * cell height
}

// fitScale returns the factor (<= 1) that fits w x h into the preview area
// while keeping the aspect ratio.
func fitScale(w, h int) float64 {
	sw := float64(maxCols*charW) / float64(w)
	sh := float64(maxRows*charH) / float64(h)
	return math.Min(1.0, math.Min(sw, sh))
}

// computePreviewSize maps an image's pixel dimensions to terminal cells.
func computePreviewSize(img image.Image) PreviewSize {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	s := fitScale(w, h)
	cols := clampCells(int(math.Round(float64(w)*s/charW)), minCols, maxCols)
	rows := clampCells(int(math.Round(float64(h)*s/charH)), minRows, maxRows)
	return PreviewSize{Cols: cols, Rows: rows, PixelWidth: cols * charW, PixelHeight: rows * charH}
}

func clampCells(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// downscale shrinks img to fit the preview area. Images that already fit
// are returned unchanged.
func downscale(img image.Image) image.Image {
	b := img.Bounds()
	s := fitScale(b.Dx(), b.Dy())
	if s >= 1 {
		return img
	}
	w := int(math.Max(1, math.Round(float64(b.Dx())*s)))
	h := int(math.Max(1, math.Round(float64(b.Dy())*s)))
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Show encodes img and sends it to the terminal. format is a hint such as
// "png" or "jpg"; kitty always receives PNG.
func (p *Previewer) Show(img image.Image, format string) error {
	if img == nil || img.Bounds().Empty() {
		return fmt.Errorf("nil image")
	}
	backend := strings.ToLower(p.Backend)
	if backend == "none" {
		return nil
	}
	f := strings.ToLower(format)
	if backend == "kitty" || (backend == "" && isKitty()) {
		p.debugf("forcing png encoding for kitty")
		f = "png"
	}
	small := downscale(img)
	var buf bytes.Buffer
	if f == "jpeg" || f == "jpg" {
		if err := jpeg.Encode(&buf, small, &jpeg.Options{Quality: 92}); err != nil {
			return fmt.Errorf("jpeg encode failed: %w", err)
		}
		f = "jpeg"
	} else {
		if err := png.Encode(&buf, small); err != nil {
			return fmt.Errorf("png encode failed: %w", err)
		}
		f = "png"
	}
	return p.previewBytes(buf.Bytes(), f, computePreviewSize(img))
}

// previewBytes sends bytes via the forced backend, then in detection order.
func (p *Previewer) previewBytes(blob []byte, format string, size PreviewSize) error {
	if len(blob) == 0 {
		return fmt.Errorf("empty image blob")
	}

	if v := strings.ToLower(p.Backend); v != "" {
		var err error
		switch v {
		case "kitty":
			err = p.sendKittyImage(blob, format, size)
		case "inline", "iterm", "wezterm":
			err = p.sendInlineImage(blob, format, size)
		case "sixel":
			err = p.sendSixelImage(blob, format, size)
		case "chafa":
			err = p.sendChafaImage(blob, format, size)
		default:
			err = fmt.Errorf("unknown backend %q", v)
		}
		if err == nil {
			return nil
		}
		p.debugf("PREVIEW_BACKEND=%s failed: %v", v, err)
	}

	type backend struct {
		name string
		ok   func() bool
		send func([]byte, string, PreviewSize) error
	}
	order := []backend{
		{"inline", isInlineImageCapable, p.sendInlineImage},
		{"kitty", isKitty, p.sendKittyImage},
		{"sixel", isSixelCapable, p.sendSixelImage},
		{"chafa", hasChafa, p.sendChafaImage},
	}
	var firstErr error
	for _, b := range order {
		if !b.ok() {
			continue
		}
		p.debugf("attempting %s", b.name)
		err := b.send(blob, format, size)
		if err == nil {
			return nil
		}
		p.debugf("%s failed: %v", b.name, err)
		if firstErr == nil {
			firstErr = fmt.Errorf("%s preview failed: %w", b.name, err)
		}
	}
	if firstErr != nil {
		return firstErr
	}
	return fmt.Errorf("no preview protocol matched")
}

func (p *Previewer) newlines(n int) {
	for i := 0; i < n; i++ {
		fmt.Fprintln(p.Out)
	}
}

// sendKittyImage transmits the image with the kitty graphics protocol. The
// base64 payload is split into chunks of at most 4096 bytes; the first chunk
// carries the placement (c, r) and q=2 suppresses terminal responses.
func (p *Previewer) sendKittyImage(data []byte, format string, size PreviewSize) error {
	if len(data) == 0 {
		return fmt.Errorf("no data")
	}
	p.debugf("kitty: %d bytes, cols=%d rows=%d", len(data), size.Cols, size.Rows)

	enc := base64.StdEncoding.EncodeToString(data)
	const chunkSize = 4096

	total := len(enc)
	for pos := 0; pos < total; pos += chunkSize {
		end := pos + chunkSize
		if end > total {
			end = total
		}
		more := "0"
		if end != total {
			more = "1"
		}
		var seq string
		if pos == 0 {
			seq = fmt.Sprintf("\x1b_Ga=T,f=100,t=d,q=2,c=%d,r=%d,m=%s;", size.Cols, size.Rows, more)
		} else {
			seq = "\x1b_Gm=" + more + ";"
		}
		if _, err := io.WriteString(p.Out, seq+enc[pos:end]+"\x1b\\"); err != nil {
			return err
		}
	}
	p.newlines(postImageNewlines(size.Rows))
	return nil
}

func inlineName(format string) string {
	if strings.HasPrefix(strings.ToLower(format), "j") {
		return "preview.jpg"
	}
	return "preview.png"
}

// sendInlineImage emits the iTerm2-style inline image OSC 1337 sequence.
func (p *Previewer) sendInlineImage(data []byte, format string, size PreviewSize) error {
	if len(data) == 0 {
		return fmt.Errorf("no data")
	}
	meta := fmt.Sprintf("size=%d;", len(data))
	if size.PixelWidth > 0 && size.PixelHeight > 0 {
		meta += fmt.Sprintf("width=%dpx;height=%dpx;", size.PixelWidth, size.PixelHeight)
	}
	seq := "\x1b]1337;File=name=" + inlineName(format) + ";inline=1;" + meta + ":" +
		base64.StdEncoding.EncodeToString(data) + "\a"
	n, err := io.WriteString(p.Out, seq)
	p.debugf("inline: wrote %d bytes (err=%v)", n, err)
	p.newlines(postImageNewlines(0))
	return err
}

// sendSixelImage pipes the image through img2sixel, falling back to chafa.
func (p *Previewer) sendSixelImage(data []byte, format string, size PreviewSize) error {
	if len(data) == 0 {
		return fmt.Errorf("no data")
	}
	cmd := exec.Command("img2sixel", "-")
	cmd.Stdin = bytes.NewReader(data)
	cmd.Stdout = p.Out
	cmd.Stderr = os.Stderr
	err := cmd.Run()
	if err == nil {
		p.newlines(postImageNewlines(0))
		return nil
	}
	p.debugf("img2sixel failed: %v", err)
	if cerr := p.sendChafaImage(data, format, size); cerr == nil {
		return nil
	}
	return fmt.Errorf("img2sixel: %w", err)
}

// sendChafaImage renders the image with chafa block symbols. CHAFA_FILL and
// CHAFA_SYMBOLS override the defaults.
func (p *Previewer) sendChafaImage(data []byte, format string, size PreviewSize) error {
	if len(data) == 0 {
		return fmt.Errorf("no data")
	}
	if os.Getenv("NO_CHAFA") == "1" {
		return fmt.Errorf("chafa usage disabled via NO_CHAFA=1")
	}
	if _, err := exec.LookPath("chafa"); err != nil {
		return fmt.Errorf("chafa not found in PATH: %w", err)
	}
	fill, symbols := "block", "block"
	if v := os.Getenv("CHAFA_FILL"); v != "" {
		fill = v
	}
	if v := os.Getenv("CHAFA_SYMBOLS"); v != "" {
		symbols = v
	}
	p.debugf("chafa: %d bytes (format=%s)", len(data), format)
	cmd := exec.Command("chafa", "--fill="+fill, "--symbols="+symbols, "-s", fmt.Sprintf("%dx%d", size.Cols, size.Rows), "-")
	cmd.Stdin = bytes.NewReader(data)
	cmd.Stdout = p.Out
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("chafa failed: %w", err)
	}
	p.newlines(postImageNewlines(size.Rows))
	return nil
}
