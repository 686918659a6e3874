package api

import "strings"

// JoinPath joins two URL path segments with exactly one slash between them.
// An empty segment is passed through unchanged.
func JoinPath(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	a = strings.TrimSuffix(a, "/")
	b = strings.TrimPrefix(b, "/")
	return a + "/" + b
}

// JoinPaths folds JoinPath over segments, left to right.
func JoinPaths(segments ...string) string {
	out := ""
	for _, s := range segments {
		out = JoinPath(out, s)
	}
	return out
}
