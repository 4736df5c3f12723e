package search

import (
	"strings"

	"github.com/HVS13/foul-play-bot/internal/dex"
)

// Tags derives the semantic tags of a decision from declarative move
// metadata. Switch decisions carry only "switch"; moves collect pivot,
// protect, priority, heal, setup, and status-or-attack. Unknown moves keep
// whatever tags could be derived without metadata.
func Tags(decision string) []string {
	decision = strings.TrimSuffix(decision, "-tera")
	decision = strings.TrimSuffix(decision, "-mega")
	if strings.HasPrefix(decision, "switch ") {
		return []string{"switch"}
	}

	id := dex.Normalize(decision)
	md, known := dex.Move(id)

	var tags []string
	if known && md.Pivot {
		tags = append(tags, "pivot")
	}
	if known && md.Protect {
		tags = append(tags, "protect")
	}
	if !known {
		return tags
	}

	if md.Priority > 0 {
		tags = append(tags, "priority")
	}
	if md.Heal {
		tags = append(tags, "heal")
	}
	if md.Boosts || md.SelfBoosts {
		tags = append(tags, "setup")
	}
	if md.Category == dex.Status {
		tags = append(tags, "status")
	} else {
		tags = append(tags, "attack")
	}
	return tags
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if t == want {
			return true
		}
	}
	return false
}
