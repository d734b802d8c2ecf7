package cli

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/Fepozopo/instafilter/pkg/filter"
)

// imageGlobs lists the file patterns offered by the file picker; all of them
// are decodable by imaging.
var imageGlobs = []string{"*.jpg", "*.jpeg", "*.png", "*.gif", "*.tif", "*.tiff", "*.bmp"}

// fzfAvailable reports whether fzf is on PATH.
func fzfAvailable() bool {
	_, err := exec.LookPath("fzf")
	return err == nil
}

// filterItems formats one "ident: Name - description" line per spec for fzf.
func filterItems(specs []filter.Spec) string {
	var b strings.Builder
	for _, s := range specs {
		fmt.Fprintf(&b, "%s: %s - %s\n", s.Kind.Ident(), s.Name(), s.Description)
	}
	return b.String()
}

// parseFilterItem maps a selected fzf line back to its kind.
func parseFilterItem(line string) (filter.Kind, error) {
	ident, _, _ := strings.Cut(strings.TrimSpace(line), ":")
	if strings.TrimSpace(ident) == "" {
		return 0, fmt.Errorf("no filter selected")
	}
	return filter.ParseKind(ident)
}

// SelectFilterWithFzf displays the filters in fzf and returns the selected kind.
func SelectFilterWithFzf(specs []filter.Spec) (filter.Kind, error) {
	cmd := exec.Command("fzf", "--prompt=Filter> ", "--height=40%", "--border")
	cmd.Stdin = strings.NewReader(filterItems(specs))
	cmd.Stderr = os.Stderr

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("error running fzf: %w", err)
	}
	return parseFilterItem(out.String())
}

// fzfPreviewCommand returns a --preview command for the detected terminal. It
// tries the best renderer first and falls back with || since fzf runs the
// preview as a single command line. Kitty images are cleared before each draw.
func fzfPreviewCommand() string {
	const chafa = "chafa --fill=block --symbols=block -s 80x40 {} 2>/dev/null"
	switch {
	case isKitty():
		return "printf \"\\x1b_Ga=d\\x1b\\\\\"; kitty +kitten icat --silent {} 2>/dev/null || " + chafa
	case isInlineImageCapable():
		return "imgcat {} 2>/dev/null || " + chafa
	case isSixelCapable():
		return "img2sixel {} 2>/dev/null || " + chafa
	}
	return chafa
}

// findImagesCommand builds the shell pipeline listing image files under dir.
func findImagesCommand(dir string) string {
	names := make([]string, len(imageGlobs))
	for i, g := range imageGlobs {
		names[i] = "-iname '" + g + "'"
	}
	return fmt.Sprintf("find %s -type f \\( %s \\)", strconv.Quote(dir), strings.Join(names, " -o "))
}

// SelectFileWithFzf launches fzf over the image files found under startDir
// and returns the selected path. It needs find, bash and fzf on PATH.
func SelectFileWithFzf(startDir string) (string, error) {
	cmdStr := fmt.Sprintf(
		"%s | fzf --height 100%% --border --prompt='Photos> ' --ansi --preview=%q --preview-window='right:60%%'",
		findImagesCommand(startDir),
		fzfPreviewCommand(),
	)
	cmd := exec.Command("bash", "-lc", cmdStr)
	cmd.Stdin = os.Stdin
	cmd.Stderr = os.Stderr

	var out bytes.Buffer
	cmd.Stdout = &out

	err := cmd.Run()
	// the previewer may leave kitty graphics behind
	clearKittyImages()
	if err != nil {
		return "", fmt.Errorf("error running fzf for files: %w", err)
	}

	selection := strings.TrimSpace(out.String())
	if selection == "" {
		return "", fmt.Errorf("no file selected")
	}
	return selection, nil
}

// clearKittyImages emits the kitty graphics "delete" control sequence.
// Terminals that don't understand it will ignore it.
func clearKittyImages() {
	if isKitty() {
		fmt.Fprint(os.Stdout, "\x1b_Ga=d\x1b\\")
	}
}
