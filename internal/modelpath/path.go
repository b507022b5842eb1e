package modelpath

import (
	"fmt"
	"strings"
)

// Path is the structured representation of a model node address. It is
// modeled as a list of identifier segments. The zero value is the root path.
type Path struct {
	segments []string
}

// Root is the address of the model registry itself. It has no segments and
// is never produced by Parse.
var Root = Path{}

// InvalidPathError describes why a candidate string is not a valid model path.
type InvalidPathError struct {
	Raw    string
	Reason string
}

// Error implements the error interface for InvalidPathError.
func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("model path %q is invalid: %s", e.Raw, e.Reason)
}

// Parse validates a raw dotted path string and returns its structured form.
func Parse(raw string) (Path, error) {
	if raw == "" {
		return Path{}, &InvalidPathError{Raw: raw, Reason: "cannot be an empty string"}
	}

	segments := strings.Split(raw, ".")
	for _, segment := range segments {
		if segment == "" {
			return Path{}, &InvalidPathError{Raw: raw, Reason: "path contains an empty segment"}
		}
		if !isIdentFirst(segment[0]) {
			return Path{}, &InvalidPathError{
				Raw:    raw,
				Reason: fmt.Sprintf("first character of segment %q must be a letter or an underscore, got '%c'", segment, segment[0]),
			}
		}
		for i := 1; i < len(segment); i++ {
			if !isIdentRest(segment[i]) {
				return Path{}, &InvalidPathError{
					Raw:    raw,
					Reason: fmt.Sprintf("segment %q contains illegal character '%c'", segment, segment[i]),
				}
			}
		}
	}

	return Path{segments: segments}, nil
}

// MustParse parses a path that is known by the caller to be valid. It panics
// on invalid input and is intended for compile-time constant paths.
func MustParse(raw string) Path {
	p, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return p
}

func isIdentFirst(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentRest(c byte) bool {
	return isIdentFirst(c) || (c >= '0' && c <= '9')
}

// String serializes the path into its canonical dotted representation. The
// root path serializes to "<root>" for diagnostics.
func (p Path) String() string {
	if len(p.segments) == 0 {
		return "<root>"
	}
	return strings.Join(p.segments, ".")
}

// IsRoot reports whether the path addresses the registry root.
func (p Path) IsRoot() bool {
	return len(p.segments) == 0
}

// Depth returns the number of segments in the path.
func (p Path) Depth() int {
	return len(p.segments)
}

// Name returns the last segment of the path, or "" for the root.
func (p Path) Name() string {
	if len(p.segments) == 0 {
		return ""
	}
	return p.segments[len(p.segments)-1]
}

// Parent returns the path with the last segment removed. The parent of the
// root is the root.
func (p Path) Parent() Path {
	if len(p.segments) == 0 {
		return Root
	}
	return Path{segments: p.segments[:len(p.segments)-1]}
}

// Child returns the path extended by one segment. The segment must be
// a valid identifier; Child panics otherwise since callers construct it
// programmatically, not from user input.
func (p Path) Child(segment string) Path {
	child, err := Parse(segment)
	if err != nil || len(child.segments) != 1 {
		panic(fmt.Sprintf("modelpath: invalid child segment %q", segment))
	}
	segments := make([]string, 0, len(p.segments)+1)
	segments = append(segments, p.segments...)
	return Path{segments: append(segments, segment)}
}

// Join returns the path extended by every segment of the suffix.
func (p Path) Join(suffix Path) Path {
	if suffix.IsRoot() {
		return p
	}
	segments := make([]string, 0, len(p.segments)+len(suffix.segments))
	segments = append(segments, p.segments...)
	return Path{segments: append(segments, suffix.segments...)}
}

// Equal checks for equality between two paths.
func (p Path) Equal(other Path) bool {
	if len(p.segments) != len(other.segments) {
		return false
	}
	for i, s := range p.segments {
		if other.segments[i] != s {
			return false
		}
	}
	return true
}

// HasAncestor reports whether ancestor is a strict prefix of p. The parent
// relation of the node graph is purely structural: a node's ancestors are
// exactly the strict prefixes of its path.
func (p Path) HasAncestor(ancestor Path) bool {
	if len(ancestor.segments) >= len(p.segments) {
		return false
	}
	for i, s := range ancestor.segments {
		if p.segments[i] != s {
			return false
		}
	}
	return true
}

// IsDirectChild reports whether p is exactly one segment below parent.
func (p Path) IsDirectChild(parent Path) bool {
	return len(p.segments) == len(parent.segments)+1 && p.HasAncestor(parent)
}
