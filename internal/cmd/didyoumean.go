package cmd

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// levenshtein computes the Levenshtein edit distance between two strings.
func levenshtein(a, b string) int {
	la, lb := len(a), len(b)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	row := make([]int, lb+1)
	for j := range row {
		row[j] = j
	}

	for i := 1; i <= la; i++ {
		prev := i - 1
		row[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			val := min(row[j]+1, row[j-1]+1, prev+cost)
			prev = row[j]
			row[j] = val
		}
	}
	return row[lb]
}

// suggest finds the closest name to the unknown input: an edit distance of
// at most 3 wins, otherwise the best subsequence match (so "prof" finds
// "profiles"). Returns empty string if nothing is close.
func suggest(unknown string, names []string) string {
	if match := closestByDistance(unknown, names); match != "" {
		return match
	}
	if strings.TrimSpace(unknown) == "" {
		return ""
	}
	matches := fuzzy.Find(strings.ToLower(unknown), lowered(names))
	if len(matches) == 0 {
		return ""
	}
	return names[matches[0].Index]
}

func closestByDistance(unknown string, names []string) string {
	unknown = strings.ToLower(unknown)
	bestDist := 4 // only suggest if distance <= 3
	bestMatch := ""
	for _, name := range names {
		d := levenshtein(unknown, strings.ToLower(name))
		if d < bestDist {
			bestDist = d
			bestMatch = name
		}
	}
	return bestMatch
}

func lowered(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = strings.ToLower(n)
	}
	return out
}

// suggestFlag finds the closest flag name to the unknown input.
// Strips leading dashes from both the input and the known flags for comparison,
// but returns the match with its original prefix.
func suggestFlag(unknown string, flags []string) string {
	stripped := strings.ToLower(strings.TrimLeft(unknown, "-"))
	if stripped == "" {
		return ""
	}
	bestDist := 4
	bestMatch := ""
	for _, f := range flags {
		d := levenshtein(stripped, strings.ToLower(strings.TrimLeft(f, "-")))
		if d < bestDist {
			bestDist = d
			bestMatch = f
		}
	}
	return bestMatch
}
