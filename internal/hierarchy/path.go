// Package hierarchy holds the pure building blocks of the category tree:
// materialized path arithmetic, name validation and the limits that bound them.
//
// A path is the "/"-joined chain of ancestor names down to and including a
// category, e.g. "Food/Market". Root categories have a path equal to their name.
package hierarchy

import (
	"strings"
	"unicode/utf8"
)

// Separator joins path segments.
const Separator = "/"

// Depth counts the non-empty segments of path. Doubled separators are
// tolerated and do not add levels; a blank path has depth 0.
func Depth(path string) int {
	n := 0
	for _, seg := range strings.Split(path, Separator) {
		if strings.TrimSpace(seg) != "" {
			n++
		}
	}
	return n
}

// ChildPath returns the path of a category named name under parentPath.
// An empty parentPath denotes a root category.
func ChildPath(parentPath, name string) string {
	if parentPath == "" {
		return name
	}
	return parentPath + Separator + name
}

// LastSegment returns the substring after the final separator, or the whole
// path when it has none.
func LastSegment(path string) string {
	if i := strings.LastIndex(path, Separator); i >= 0 {
		return path[i+1:]
	}
	return path
}

// PrefixOf returns everything up to and including the final separator,
// or "" for a root path.
func PrefixOf(path string) string {
	if i := strings.LastIndex(path, Separator); i >= 0 {
		return path[:i+1]
	}
	return ""
}

// IsDescendantOrSelf reports whether path equals ancestor or lies beneath it.
func IsDescendantOrSelf(ancestor, path string) bool {
	return path == ancestor || strings.HasPrefix(path, ancestor+Separator)
}

// Rebase replaces the oldPrefix of path with newPrefix. Paths that do not
// start with oldPrefix are returned unchanged.
func Rebase(path, oldPrefix, newPrefix string) string {
	if !strings.HasPrefix(path, oldPrefix) {
		return path
	}
	return newPrefix + path[len(oldPrefix):]
}

// RuneLen is the character length used by storage-side substring arithmetic.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// ComparePaths orders paths segment by segment so that every node sorts
// directly after its parent and before its parent's next sibling.
func ComparePaths(a, b string) int {
	as := strings.Split(a, Separator)
	bs := strings.Split(b, Separator)
	for i := 0; i < len(as) && i < len(bs); i++ {
		if c := strings.Compare(as[i], bs[i]); c != 0 {
			return c
		}
	}
	return len(as) - len(bs)
}
