package domain

import "strings"

// SubjectGroup resolves a user-facing subject label to the raw subject
// strings stored on questions. The mapping is many-to-one: an act and its
// implementing decree are studied as one group. A group with a MatchToken
// matches every raw subject containing the token (the "all combined" group).
type SubjectGroup struct {
	Key        string   `json:"key"`
	Label      string   `json:"label"`
	Subjects   []string `json:"subjects,omitempty"`
	MatchToken string   `json:"matchToken,omitempty"`
}

// Matches reports whether a raw subject string belongs to this group. The
// group's own key and label match too, because sessions drawn for a group
// record the group name as their subject.
func (g SubjectGroup) Matches(raw string) bool {
	if raw == g.Key || raw == g.Label {
		return true
	}
	if g.MatchToken != "" {
		return strings.Contains(raw, g.MatchToken)
	}
	for _, s := range g.Subjects {
		if raw == s {
			return true
		}
	}
	return false
}

// SubjectGroups is the externally supplied alias table.
type SubjectGroups []SubjectGroup

// Find looks a group up by key or label.
func (gs SubjectGroups) Find(key string) (SubjectGroup, bool) {
	for _, g := range gs {
		if g.Key == key || g.Label == key {
			return g, true
		}
	}
	return SubjectGroup{}, false
}

// Matches reports whether raw belongs to the group named by key. Unknown
// keys fall back to literal subject equality, so raw subject strings remain
// usable as query keys.
func (gs SubjectGroups) Matches(key, raw string) bool {
	if g, ok := gs.Find(key); ok {
		return g.Matches(raw)
	}
	return raw == key
}

// DefaultSubjectGroups is the built-in railway-law table used when the
// config file does not supply one.
func DefaultSubjectGroups() SubjectGroups {
	return SubjectGroups{
		{
			Key:   "railway-development",
			Label: "Railway Industry Development Act (act+decree)",
			Subjects: []string{
				"Railway Industry Development Act",
				"Railway Industry Development Act Decree",
			},
		},
		{
			Key:   "railway-safety",
			Label: "Railway Safety Act (act+decree)",
			Subjects: []string{
				"Railway Safety Act",
				"Railway Safety Act Decree",
			},
		},
		{
			Key:   "railway-corporation",
			Label: "Railway Corporation Act (act+decree)",
			Subjects: []string{
				"Railway Corporation Act",
				"Railway Corporation Act Decree",
			},
		},
		{
			Key:        "railway-all",
			Label:      "All railway law",
			MatchToken: "Railway",
		},
	}
}
