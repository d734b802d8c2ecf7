package filter

import (
	"fmt"
	"strings"
)

// Spec describes a filter for help text and selection menus.
type Spec struct {
	Kind        Kind
	Description string
}

// Name returns the display name of the filter.
func (s Spec) Name() string { return s.Kind.String() }

// Roles returns the parameters the filter reads.
func (s Spec) Roles() []Role { return s.Kind.Roles() }

// Specs is the menu of filters, in the order they are offered to the user.
var Specs = []Spec{
	{Crystallize, "Cluster pixels into polygonal cells coloured from the photo."},
	{Edges, "Highlight edges by gradient magnitude."},
	{GaussianBlur, "Soften the whole photo with a gaussian blur."},
	{Pixellate, "Replace the photo with square blocks of averaged colour."},
	{SepiaTone, "Warm brown monochrome tint."},
	{UnsharpMask, "Sharpen by boosting detail against a blurred copy."},
	{Vignette, "Darken toward the corners."},
	{Pointillize, "Render the photo as coloured dots."},
	{Bloom, "Add a soft glow around bright areas."},
	{Noir, "High-contrast black and white."},
}

// Lookup returns the Spec for k.
func Lookup(k Kind) (Spec, bool) {
	for _, s := range Specs {
		if s.Kind == k {
			return s, true
		}
	}
	return Spec{}, false
}

// Tooltip returns a multi-line description of the filter and its parameters.
func (s Spec) Tooltip() string {
	var sb strings.Builder
	sb.WriteString(s.Name())
	if s.Description != "" {
		sb.WriteString(": " + s.Description)
	}
	roles := s.Roles()
	if len(roles) == 0 {
		sb.WriteString(" (no parameters)")
		return sb.String()
	}
	for _, r := range roles {
		lo, hi := r.Range()
		fmt.Fprintf(&sb, "\n- %s [%g..%g]", r, lo, hi)
	}
	return sb.String()
}
