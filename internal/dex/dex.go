// Package dex provides read-only lookups of static move and species data.
// All lookups are keyed by normalized names and degrade gracefully: a
// missing key means "no extra information", never an error.
package dex

import "strings"

// Category is a move's damage category.
type Category string

const (
	Physical Category = "physical"
	Special  Category = "special"
	Status   Category = "status"
)

// MoveData is the declarative metadata for one move.
type MoveData struct {
	Category   Category
	Priority   int
	Heal       bool
	Boosts     bool
	SelfBoosts bool
	Pivot      bool
	Protect    bool
}

// MoveSet is one candidate moveset for a species, with the probability that
// an opponent of that species runs it.
type MoveSet struct {
	Moves  []string
	Chance float64
}

// Normalize lowercases a name and strips everything but letters and digits,
// matching the simulator's id normalization.
func Normalize(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Move returns metadata for a normalized move id. The second return value is
// false when the move is unknown.
func Move(id string) (MoveData, bool) {
	m, ok := moves[Normalize(id)]
	return m, ok
}

// SetsFor returns the known candidate movesets for a species, or nil when
// the species has no dataset entry.
func SetsFor(species string) []MoveSet {
	return speciesSets[Normalize(species)]
}
