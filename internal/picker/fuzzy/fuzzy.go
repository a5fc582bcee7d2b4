// Package fuzzy implements subsequence matching with boundary-aware
// scoring for the modal pickers.
package fuzzy

import (
	"sort"
	"strings"
)

// Item is a searchable entry.
type Item struct {
	// Text is the string matched against.
	Text string

	// Data is arbitrary data carried with the item.
	Data any
}

// Result is a scored match.
type Result struct {
	// Item is the matched item.
	Item Item

	// Score is the match score; higher is better.
	Score int

	// Matches holds the rune indices of matched characters.
	Matches []int
}

// Match finds items whose text contains query as a subsequence,
// sorted by score descending then text for deterministic ordering.
// An empty query returns the first limit items unscored. limit <= 0
// means no limit.
func Match(query string, items []Item, limit int) []Result {
	query = strings.TrimSpace(strings.ToLower(query))

	if query == "" {
		n := len(items)
		if limit > 0 && limit < n {
			n = limit
		}
		results := make([]Result, n)
		for i := 0; i < n; i++ {
			results[i] = Result{Item: items[i]}
		}
		return results
	}

	queryRunes := []rune(query)
	results := make([]Result, 0, len(items))
	for _, item := range items {
		score, matches := matchItem(queryRunes, item.Text)
		if score > 0 {
			results = append(results, Result{Item: item, Score: score, Matches: matches})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Item.Text < results[j].Item.Text
	})

	if limit > 0 && limit < len(results) {
		results = results[:limit]
	}
	return results
}

// matchItem scores one item with a greedy left-to-right scan.
func matchItem(queryRunes []rune, text string) (int, []int) {
	if text == "" || len(queryRunes) == 0 {
		return 0, nil
	}

	original := []rune(text)
	lowered := []rune(strings.ToLower(text))

	matches := make([]int, 0, len(queryRunes))
	qi := 0
	for i := 0; i < len(lowered) && qi < len(queryRunes); i++ {
		if lowered[i] == queryRunes[qi] {
			matches = append(matches, i)
			qi++
		}
	}
	if qi != len(queryRunes) {
		return 0, nil
	}

	return score(original, matches), matches
}

// score rewards consecutive runs, word-boundary hits, and early
// positions; long texts pay a small penalty.
func score(original []rune, matches []int) int {
	s := 100

	for i := 1; i < len(matches); i++ {
		if matches[i] == matches[i-1]+1 {
			s += 20
		}
	}

	for _, idx := range matches {
		if idx == 0 || isBoundary(original[idx-1]) {
			s += 15
		}
	}

	if matches[0] < 4 {
		s += 10 - 2*matches[0]
	}

	s -= len(original) / 10
	if s < 1 {
		s = 1
	}
	return s
}

func isBoundary(r rune) bool {
	switch r {
	case ' ', '-', '_', '/', '.', ':':
		return true
	}
	return false
}
