package hierarchy

import "regexp"

const (
	// DefaultMaxNameLength is the maximum category name length in characters.
	DefaultMaxNameLength = 50
	// DefaultMaxDepth allows root, child and grandchild levels.
	DefaultMaxDepth = 3
)

// DefaultNamePattern accepts Unicode letters and digits, space, underscore and hyphen.
var DefaultNamePattern = regexp.MustCompile(`^[\p{L}\p{N} _-]+$`)

// Rules bounds category names and tree depth.
type Rules struct {
	MaxNameLength int
	MaxDepth      int
	NamePattern   *regexp.Regexp
}

// DefaultRules returns the production limits.
func DefaultRules() Rules {
	return Rules{
		MaxNameLength: DefaultMaxNameLength,
		MaxDepth:      DefaultMaxDepth,
		NamePattern:   DefaultNamePattern,
	}
}

// Normalize returns the rules with every unset limit replaced by its default.
func (r Rules) Normalize() Rules {
	if r.MaxNameLength <= 0 {
		r.MaxNameLength = DefaultMaxNameLength
	}
	if r.MaxDepth <= 0 {
		r.MaxDepth = DefaultMaxDepth
	}
	if r.NamePattern == nil {
		r.NamePattern = DefaultNamePattern
	}
	return r
}

// ExceedsDepth reports whether path is deeper than the configured maximum.
func (r Rules) ExceedsDepth(path string) bool {
	return Depth(path) > r.Normalize().MaxDepth
}
