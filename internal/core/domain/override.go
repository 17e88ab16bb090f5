package domain

import (
	"regexp"
	"strconv"
	"time"
)

// fieldKeyPattern is the override key grammar: NAME, NAME[i] or NAME[i][j].
var fieldKeyPattern = regexp.MustCompile(`^([A-Z_]+)(?:\[(\d+)\])?(?:\[(\d+)\])?$`)

// FieldKey addresses a top-level field, a key inside one activity record, or
// a key inside one responsible record of an activity.
type FieldKey struct {
	Name             string
	ActivityIndex    *int
	ResponsibleIndex *int
}

// ParseFieldKey parses a key string. Keys that do not match the grammar
// return a *FieldKeyError.
func ParseFieldKey(s string) (FieldKey, error) {
	m := fieldKeyPattern.FindStringSubmatch(s)
	if m == nil {
		return FieldKey{}, &FieldKeyError{Key: s}
	}
	key := FieldKey{Name: m[1]}
	if m[2] != "" {
		i, err := strconv.Atoi(m[2])
		if err != nil {
			return FieldKey{}, &FieldKeyError{Key: s}
		}
		key.ActivityIndex = &i
	}
	if m[3] != "" {
		j, err := strconv.Atoi(m[3])
		if err != nil {
			return FieldKey{}, &FieldKeyError{Key: s}
		}
		key.ResponsibleIndex = &j
	}
	return key, nil
}

// String renders the key back to its string form.
func (k FieldKey) String() string {
	s := k.Name
	if k.ActivityIndex != nil {
		s += "[" + strconv.Itoa(*k.ActivityIndex) + "]"
	}
	if k.ResponsibleIndex != nil {
		s += "[" + strconv.Itoa(*k.ResponsibleIndex) + "]"
	}
	return s
}

// IsTopLevel reports whether the key addresses a top-level field.
func (k FieldKey) IsTopLevel() bool {
	return k.ActivityIndex == nil
}

// Override is a manual replacement value for one field or nested element.
type Override struct {
	FieldKey         string      `json:"fieldKey"`
	SectionName      SectionName `json:"sectionName"`
	ActivityIndex    *int        `json:"activityIndex,omitempty"`
	ResponsibleIndex *int        `json:"responsibleIndex,omitempty"`
	OriginalValue    any         `json:"originalValue"`
	NewValue         any         `json:"newValue"`
	Reason           string      `json:"reason,omitempty"`
	EditedAt         time.Time   `json:"editedAt"`
}

// Overrides maps field keys to overrides.
type Overrides map[string]Override
