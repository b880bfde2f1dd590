// Package pathcodec encodes categorical level values into delimited node paths
// and decomposes paths into their ancestor prefixes.
//
// A path is the root token followed by every level value, joined with the
// separator: root->A->X. Prefix decomposition relies on the separator never
// occurring inside a level value, so Encode rejects such values.
package pathcodec

import (
	"sort"
	"strings"

	"github.com/Shopify/visualization-tools/internal/errors"
)

const (
	// DefaultSeparator joins path segments
	DefaultSeparator = "->"

	// DefaultRoot is the first segment of every path
	DefaultRoot = "root"
)

// Codec encodes and decodes paths for one separator / root token pair.
// The zero value behaves like Default().
type Codec struct {
	Separator string
	Root      string
}

// Default returns the codec using "->" and "root"
func Default() Codec {
	return Codec{Separator: DefaultSeparator, Root: DefaultRoot}
}

// WithDefaults fills an empty Separator or Root with its default
func (c Codec) WithDefaults() Codec {
	return Codec{Separator: c.sep(), Root: c.RootPath()}
}

// Override returns c with the non-empty fields of o set on top.
func (c Codec) Override(o Codec) Codec {
	if o.Separator != "" {
		c.Separator = o.Separator
	}
	if o.Root != "" {
		c.Root = o.Root
	}
	return c
}

func (c Codec) sep() string {
	if c.Separator == "" {
		return DefaultSeparator
	}
	return c.Separator
}

// RootPath returns the path of the root node
func (c Codec) RootPath() string {
	if c.Root == "" {
		return DefaultRoot
	}
	return c.Root
}

// Validate checks that the root token does not contain the separator.
func (c Codec) Validate() error {
	if strings.Contains(c.RootPath(), c.sep()) {
		return errors.Newf(errors.TypeConfig, "root token %q contains separator %q", c.RootPath(), c.sep())
	}
	return nil
}

// Encode joins level values into a path, prefixed with the root token.
func (c Codec) Encode(levels []string) (string, error) {
	sep := c.sep()
	for _, v := range levels {
		if strings.Contains(v, sep) {
			return "", errors.Encoding(v, sep)
		}
	}
	path := strings.Join(append([]string{c.RootPath()}, levels...), sep)

	// A self-overlapping separator can re-form across a boundary
	// ("a-" + "--" + "b" splits as "a", "-b"), so the split must give back
	// what went in.
	segments := strings.Split(path, sep)
	if len(segments) != len(levels)+1 {
		return "", errors.Newf(errors.TypeEncoding, "level values %q produce an ambiguous path %q", levels, path)
	}
	for i, v := range levels {
		if segments[i+1] != v {
			return "", errors.Encoding(v, sep)
		}
	}
	return path, nil
}

// Decode returns the level values of path, without the root token.
func (c Codec) Decode(path string) []string {
	segments := strings.Split(path, c.sep())
	return segments[1:]
}

// Segments returns every segment of path, root token included.
func (c Codec) Segments(path string) []string {
	return strings.Split(path, c.sep())
}

// Depth returns the number of separators in path; the root has depth 0.
func (c Codec) Depth(path string) int {
	return strings.Count(path, c.sep())
}

// Name returns the last segment of path.
func (c Codec) Name(path string) string {
	if i := strings.LastIndex(path, c.sep()); i >= 0 {
		return path[i+len(c.sep()):]
	}
	return path
}

// Parent returns path minus its last segment. ok is false for a single-segment path.
func (c Codec) Parent(path string) (parent string, ok bool) {
	i := strings.LastIndex(path, c.sep())
	if i < 0 {
		return "", false
	}
	return path[:i], true
}

// Prefixes returns the cumulative prefixes of path from the root down to path itself.
func (c Codec) Prefixes(path string) []string {
	n := c.Depth(path) + 1
	prefixes := make([]string, n)
	for i := n - 1; i >= 0; i-- {
		prefixes[i] = path
		path, _ = c.Parent(path)
	}
	return prefixes
}

// IsPrefix reports whether prefix names path or one of its ancestors. The test
// is segment-aware: root->A is not a prefix of root->AB.
func (c Codec) IsPrefix(prefix, path string) bool {
	if prefix == path {
		return true
	}
	return strings.HasPrefix(path, prefix+c.sep())
}

// DistinctAncestors returns the union of Prefixes over paths, deduplicated and
// stable-sorted by depth. Ties keep first-seen order, so every path's parent
// appears before it.
func (c Codec) DistinctAncestors(paths []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range paths {
		for _, prefix := range c.Prefixes(p) {
			if _, ok := seen[prefix]; ok {
				continue
			}
			seen[prefix] = struct{}{}
			out = append(out, prefix)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return c.Depth(out[i]) < c.Depth(out[j])
	})
	return out
}
