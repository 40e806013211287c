package entity

// Persisted names of the fields tracked by Changes.
const (
	FieldUsername          = "username"
	FieldEmail             = "email"
	FieldPasswordHash      = "password_hash"
	FieldIsVerified        = "is_verified"
	FieldFirstName         = "first_name"
	FieldLastName          = "last_name"
	FieldAvatar            = "avatar"
	FieldCountry           = "country"
	FieldPreferredLanguage = "preferred_language"
	FieldIsArchived        = "is_archived"
	FieldIsBlocked         = "is_blocked"
	FieldEasySolved        = "easy_solved"
	FieldMediumSolved      = "medium_solved"
	FieldHardSolved        = "hard_solved"
	FieldTotalSubmission   = "total_submission"
	FieldStreak            = "streak"
)

// Changes is an ordered dirty-field map. Keys keep the order of their first
// write; a later write to the same key replaces the value.
// A cleared optional field is stored as a nil value.
type Changes struct {
	keys   []string
	values map[string]any
}

func (c *Changes) set(key string, value any) {
	if c.values == nil {
		c.values = make(map[string]any)
	}
	if _, ok := c.values[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.values[key] = value
}

func (c *Changes) Len() int { return len(c.keys) }

func (c *Changes) IsEmpty() bool { return len(c.keys) == 0 }

func (c *Changes) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

func (c *Changes) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Map returns a copy of the accumulated changes.
func (c *Changes) Map() map[string]any {
	out := make(map[string]any, len(c.keys))
	for _, k := range c.keys {
		out[k] = c.values[k]
	}
	return out
}
