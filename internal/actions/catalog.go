// Package actions holds the catalog of known action type tags and the
// exclusion rules applied before actions are counted.
package actions

import (
	"sort"
	"strings"
)

// Meta tags that carry no player intent and are always excluded from counts.
const (
	TypeGame        = "GAME"
	TypeDETransform = "DE_TRANSFORM"
)

var descriptions = map[string]string{
	"ERROR":                 "Error or unknown action.",
	"ORDER":                 "Generic order issued to a unit (e.g., patrol, guard, gather, attack-move).",
	"STOP":                  "Orders a unit to halt its current action.",
	"WORK":                  "Villager or unit performs a work action (e.g., gather, build, repair).",
	"MOVE":                  "Orders a unit to move to a location.",
	"CREATE":                "Creates a new unit.",
	"ADD_ATTRIBUTE":         "Adds an attribute to a unit or object.",
	"GIVE_ATTRIBUTE":        "Transfers an attribute (e.g., resource) to a unit or object.",
	"AI_ORDER":              "Order issued by the AI.",
	"RESIGN":                "Player resigns from the game.",
	"SPECTATE":              "Spectator action.",
	"ADD_WAYPOINT":          "Adds a waypoint for a unit or group.",
	"STANCE":                "Changes the stance of a unit (aggressive, defensive, stand ground, etc).",
	"GUARD":                 "Orders a unit to guard another unit or building.",
	"FOLLOW":                "Orders a unit to follow another unit.",
	"PATROL":                "Orders a unit to patrol between two points.",
	"FORMATION":             "Changes the formation of selected military units.",
	"SAVE":                  "Save game action.",
	"GROUP_MULTI_WAYPOINTS": "Group movement with multiple waypoints.",
	"CHAPTER":               "Campaign chapter action.",
	"DE_ATTACK_MOVE":        "Definitive Edition: Attack move command, orders units to move and attack anything along the way.",
	"HD_UNKNOWN_34":         "Unknown action type (HD Edition).",
	"DE_RETREAT":            "Definitive Edition: Retreat command.",
	"DE_UNKNOWN_37":         "Unknown action type (DE Edition).",
	"DE_AUTOSCOUT":          "Definitive Edition: Auto-scout command, orders a scout to automatically explore the map.",
	"DE_UNKNOWN_39":         "Unknown action type (DE Edition).",
	"DE_UNKNOWN_40":         "Unknown action type (DE Edition).",
	"DE_TRANSFORM":          "Definitive Edition: Transform command (e.g., auto-scout enable).",
	"RATHA_ABILITY":         "Definitive Edition: Ratha unit ability.",
	"DE_107_A":              "Unknown action type (DE Edition).",
	"DE_MULTI_GATHERPOINT":  "Definitive Edition: Multiple gather points set.",
	"AI_COMMAND":            "AI command action.",
	"DE_UNKNOWN_80":         "Unknown action type (DE Edition).",
	"MAKE":                  "Orders a building to produce a unit.",
	"RESEARCH":              "Initiates research of a technology.",
	"BUILD":                 "Orders a villager to construct a building.",
	"GAME":                  "Game command (e.g., diplomacy, speed, etc).",
	"WALL":                  "Orders a villager to build a wall segment.",
	"DELETE":                "Deletes a unit or building.",
	"ATTACK_GROUND":         "Orders a unit to attack a ground location.",
	"TRIBUTE":               "Sends resources to another player.",
	"DE_UNKNOWN_109":        "Unknown action type (DE Edition).",
	"REPAIR":                "Orders a villager to repair a building or unit.",
	"UNGARRISON":            "Orders units to leave a building.",
	"MULTIQUEUE":            "Queues multiple units or technologies at once.",
	"GATE":                  "Orders a villager to build a gate.",
	"FLARE":                 "Sends a flare to allies.",
	"SPECIAL":               "Special order (e.g., unique unit ability).",
	"QUEUE":                 "Queues a unit or technology for production.",
	"GATHER_POINT":          "Sets the rally point for a building.",
	"SELL":                  "Sells resources at the market.",
	"BUY":                   "Buys resources at the market.",
	"DROP_RELIC":            "Drops a relic from a monk.",
	"TOWN_BELL":             "Rings the town bell (garrison villagers).",
	"BACK_TO_WORK":          "Sends villagers back to work after town bell.",
	"DE_QUEUE":              "Definitive Edition: Cancels a unit or technology from a production queue.",
	"DE_UNKNOWN_130":        "Unknown action type (DE Edition).",
	"DE_UNKNOWN_131":        "Unknown action type (DE Edition).",
	"DE_UNKNOWN_135":        "Unknown action type (DE Edition).",
	"DE_UNKNOWN_136":        "Unknown action type (DE Edition).",
	"DE_UNKNOWN_138":        "Unknown action type (DE Edition).",
	"DE_107_B":              "Unknown action type (DE Edition).",
	"DE_TRIBUTE":            "Definitive Edition: Sends resources to another player (DE format).",
	"POSTGAME":              "Postgame action (after the game ends).",
}

// Describe returns the human readable description of tag.
// Unknown tags report ok == false.
func Describe(tag string) (description string, ok bool) {
	description, ok = descriptions[tag]
	return description, ok
}

// DescribeOrTag returns the description of tag, or the tag itself when it is
// not in the catalog.
func DescribeOrTag(tag string) string {
	if d, ok := descriptions[tag]; ok {
		return d
	}
	return tag
}

// IsKnown reports whether tag is in the catalog.
func IsKnown(tag string) bool {
	_, ok := descriptions[tag]
	return ok
}

// KnownTypes returns every catalogued tag in sorted order.
func KnownTypes() []string {
	tags := make([]string, 0, len(descriptions))
	for tag := range descriptions {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// DefaultExclusions returns the tags that are always removed before counting.
func DefaultExclusions() []string {
	return []string{TypeGame, TypeDETransform}
}

// ExclusionSet is an immutable set of excluded action tags.
type ExclusionSet struct {
	tags map[string]struct{}
}

// NewExclusionSet returns the default exclusions plus extra.
// Blank entries are ignored and tags are matched exactly.
func NewExclusionSet(extra ...string) ExclusionSet {
	tags := make(map[string]struct{}, len(extra)+2)
	for _, tag := range DefaultExclusions() {
		tags[tag] = struct{}{}
	}
	for _, tag := range extra {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		tags[tag] = struct{}{}
	}
	return ExclusionSet{tags: tags}
}

// Excludes reports whether tag is filtered out.
func (s ExclusionSet) Excludes(tag string) bool {
	if s.tags == nil {
		// Zero value still honours the defaults.
		return tag == TypeGame || tag == TypeDETransform
	}
	_, ok := s.tags[tag]
	return ok
}

// Tags returns the excluded tags in sorted order.
func (s ExclusionSet) Tags() []string {
	if s.tags == nil {
		return DefaultExclusions()
	}
	tags := make([]string, 0, len(s.tags))
	for tag := range s.tags {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// ParseList splits a comma separated tag list such as "MOVE, flare" into
// upper-cased tags.
func ParseList(s string) []string {
	var tags []string
	for _, part := range strings.Split(s, ",") {
		part = strings.ToUpper(strings.TrimSpace(part))
		if part != "" {
			tags = append(tags, part)
		}
	}
	return tags
}
