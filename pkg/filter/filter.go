// Package filter declares the closed set of filter kinds, the parameter roles
// each kind accepts, and the parameter values a session owns.
package filter

import (
	"fmt"
	"math"
	"strings"
)

// Kind is one of the built-in image filters.
type Kind int

const (
	Crystallize Kind = iota
	Edges
	GaussianBlur
	Pixellate
	SepiaTone
	UnsharpMask
	Vignette
	Pointillize
	Bloom
	Noir

	numKinds
)

var kindNames = [numKinds]string{
	Crystallize:  "Crystallize",
	Edges:        "Edges",
	GaussianBlur: "Gaussian Blur",
	Pixellate:    "Pixellate",
	SepiaTone:    "Sepia Tone",
	UnsharpMask:  "Unsharp Mask",
	Vignette:     "Vignette",
	Pointillize:  "Pointillize",
	Bloom:        "Bloom",
	Noir:         "Noir",
}

// Kinds returns every filter kind in menu order.
func Kinds() []Kind {
	out := make([]Kind, 0, numKinds)
	for k := Kind(0); k < numKinds; k++ {
		out = append(out, k)
	}
	return out
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool { return k >= 0 && k < numKinds }

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Ident returns the compact lowercase identifier used on the command line,
// e.g. "gaussianblur".
func (k Kind) Ident() string { return normalizeName(k.String()) }

func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	r := strings.NewReplacer(" ", "", "_", "", "-", "")
	return r.Replace(s)
}

// ParseKind resolves a display name, identifier, or unambiguous prefix of
// either into a Kind. Matching ignores case, spaces, dashes and underscores.
func ParseKind(s string) (Kind, error) {
	key := normalizeName(s)
	if key == "" {
		return 0, fmt.Errorf("empty filter name")
	}
	var matches []Kind
	for _, k := range Kinds() {
		id := k.Ident()
		if id == key {
			return k, nil
		}
		if strings.HasPrefix(id, key) {
			matches = append(matches, k)
		}
	}
	switch len(matches) {
	case 0:
		return 0, fmt.Errorf("unknown filter: %q", s)
	case 1:
		return matches[0], nil
	default:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.String()
		}
		return 0, fmt.Errorf("ambiguous filter %q: %s", s, strings.Join(names, ", "))
	}
}

// Role is a named parameter slot a filter may declare as meaningful.
type Role int

const (
	Intensity Role = iota
	Radius
	Scale

	numRoles
)

// Roles returns every role in slot order.
func Roles() []Role { return []Role{Intensity, Radius, Scale} }

var roleNames = [numRoles]string{
	Intensity: "intensity",
	Radius:    "radius",
	Scale:     "scale",
}

func (r Role) String() string {
	if r < 0 || r >= numRoles {
		return fmt.Sprintf("Role(%d)", int(r))
	}
	return roleNames[r]
}

// ParseRole resolves a role name (case-insensitive). Single-letter
// abbreviations "i", "r" and "s" are accepted.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "intensity", "i":
		return Intensity, nil
	case "radius", "r":
		return Radius, nil
	case "scale", "s":
		return Scale, nil
	}
	return 0, fmt.Errorf("unknown parameter: %q", s)
}

type roleRange struct {
	min, max, def float64
}

var roleRanges = [numRoles]roleRange{
	Intensity: {0, 1, 0.5},
	Radius:    {0, 200, 100},
	Scale:     {0, 10, 5},
}

// Range returns the inclusive value range of the role.
func (r Role) Range() (min, max float64) {
	rr := roleRanges[r]
	return rr.min, rr.max
}

// Default returns the value a fresh session starts with for the role.
func (r Role) Default() float64 { return roleRanges[r].def }

// Clamp limits v to the role's range. NaN clamps to the minimum.
func (r Role) Clamp(v float64) float64 {
	rr := roleRanges[r]
	if math.IsNaN(v) || v < rr.min {
		return rr.min
	}
	if v > rr.max {
		return rr.max
	}
	return v
}

type roleSet uint8

func setOf(roles ...Role) roleSet {
	var s roleSet
	for _, r := range roles {
		s |= 1 << uint(r)
	}
	return s
}

func (s roleSet) has(r Role) bool { return s&(1<<uint(r)) != 0 }

// declaration is the per-kind table of accepted roles. Every kind must
// appear here; TestEveryKindHasDeclaration walks Kinds() to enforce that.
func declaration(k Kind) (roleSet, bool) {
	switch k {
	case Crystallize:
		return setOf(Radius), true
	case Edges:
		return setOf(Intensity), true
	case GaussianBlur:
		return setOf(Radius), true
	case Pixellate:
		return setOf(Scale), true
	case SepiaTone:
		return setOf(Intensity), true
	case UnsharpMask:
		return setOf(Intensity, Radius), true
	case Vignette:
		return setOf(Intensity), true
	case Pointillize:
		return setOf(Radius), true
	case Bloom:
		return setOf(Intensity, Radius), true
	case Noir:
		return setOf(), true
	}
	return 0, false
}

// Accepts reports whether the kind reads the given role.
func (k Kind) Accepts(r Role) bool {
	s, _ := declaration(k)
	return s.has(r)
}

// Roles returns the roles the kind accepts, in slot order.
func (k Kind) Roles() []Role {
	s, _ := declaration(k)
	var out []Role
	for _, r := range Roles() {
		if s.has(r) {
			out = append(out, r)
		}
	}
	return out
}

// ParameterSet holds one value per role. Values are kept for every role
// regardless of which filter is active.
type ParameterSet struct {
	Intensity float64
	Radius    float64
	Scale     float64
}

// DefaultParameters returns the starting values of a new session.
func DefaultParameters() ParameterSet {
	return ParameterSet{
		Intensity: Intensity.Default(),
		Radius:    Radius.Default(),
		Scale:     Scale.Default(),
	}
}

// Get returns the stored value for r.
func (p ParameterSet) Get(r Role) float64 {
	switch r {
	case Intensity:
		return p.Intensity
	case Radius:
		return p.Radius
	case Scale:
		return p.Scale
	}
	return 0
}

// With returns a copy of p with r set to v clamped to the role's range.
func (p ParameterSet) With(r Role, v float64) ParameterSet {
	v = r.Clamp(v)
	switch r {
	case Intensity:
		p.Intensity = v
	case Radius:
		p.Radius = v
	case Scale:
		p.Scale = v
	}
	return p
}

// For builds the role mapping passed to the filter capability: only the roles
// k accepts, with their clamped values.
func (p ParameterSet) For(k Kind) Params {
	out := make(Params, 2)
	for _, r := range k.Roles() {
		out[r] = r.Clamp(p.Get(r))
	}
	return out
}

// Params maps each applicable role to its value.
type Params map[Role]float64

// Or returns the value for r, or the role's default when absent.
func (p Params) Or(r Role) float64 {
	if v, ok := p[r]; ok {
		return v
	}
	return r.Default()
}

func (p Params) String() string {
	var sb strings.Builder
	sb.WriteString("{")
	first := true
	for _, r := range Roles() {
		v, ok := p[r]
		if !ok {
			continue
		}
		if !first {
			sb.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&sb, "%s: %g", r, v)
	}
	sb.WriteString("}")
	return sb.String()
}
