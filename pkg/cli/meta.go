package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Fepozopo/instafilter/pkg/filter"
)

// errCancelled is returned by interactive choosers when the user backs out.
var errCancelled = errors.New("cancelled")

// parseRoleValue parses a slider value for r. A bare number is taken as is;
// a percent like "30%" is a position along the role's range.
func parseRoleValue(r filter.Role, s string) (float64, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "%") {
		raw := strings.TrimSpace(strings.TrimSuffix(s, "%"))
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid percent value: %q", s)
		}
		min, max := r.Range()
		return min + f/100*(max-min), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %q", r, s)
	}
	return f, nil
}

// rolePrompt builds the prompt shown before reading a value for r.
func rolePrompt(r filter.Role, current float64) string {
	min, max := r.Range()
	return fmt.Sprintf("%s [%s..%s] (current %s, %% allowed): ", r, formatValue(min), formatValue(max), formatValue(current))
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// printFilterList writes the numbered fallback list of filters.
func printFilterList(w io.Writer, specs []filter.Spec, current filter.Kind) {
	fmt.Fprintln(w, "Filters:")
	for i, s := range specs {
		mark := " "
		if s.Kind == current {
			mark = "*"
		}
		fmt.Fprintf(w, " %s%2d) %s - %s\n", mark, i+1, s.Name(), s.Description)
	}
}

// resolveFilterSelection maps a typed answer (list number, name or unique
// prefix) to a kind. An empty answer cancels.
func resolveFilterSelection(specs []filter.Spec, answer string) (filter.Kind, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return 0, errCancelled
	}
	if idx, err := strconv.Atoi(answer); err == nil {
		if idx < 1 || idx > len(specs) {
			return 0, fmt.Errorf("invalid selection %d", idx)
		}
		return specs[idx-1].Kind, nil
	}
	return filter.ParseKind(answer)
}

// writeFilterTable prints every filter with the roles it reads.
func writeFilterTable(w io.Writer, specs []filter.Spec) {
	for _, s := range specs {
		fmt.Fprintf(w, "%s\n  %s\n", s.Kind.Ident(), strings.ReplaceAll(s.Tooltip(), "\n", "\n  "))
	}
}
