package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONColumn is a generic driver.Valuer/sql.Scanner for slice/map-typed
// fields that are persisted as a single JSON column, following the exact
// shape shared by the typed column wrappers in this package, collapsed
// into one generic helper.
type JSONColumn[T any] struct {
	Val T
}

// Scan implements sql.Scanner.
func (c *JSONColumn[T]) Scan(value interface{}) error {
	if value == nil {
		var zero T
		c.Val = zero
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, &c.Val)
	case string:
		return json.Unmarshal([]byte(v), &c.Val)
	default:
		return fmt.Errorf("models: unsupported JSON column source type %T", value)
	}
}

// Value implements driver.Valuer.
func (c JSONColumn[T]) Value() (driver.Value, error) {
	b, err := json.Marshal(c.Val)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// ProviderMappingSet is the persisted set of ProviderMapping for one
// entity. Membership is keyed by (ProviderInstance, ItemID).
type ProviderMappingSet []ProviderMapping

// Value implements driver.Valuer.
func (s ProviderMappingSet) Value() (driver.Value, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (s *ProviderMappingSet) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("models: unsupported ProviderMappingSet source type %T", value)
	}
}

// Add inserts or replaces a mapping, keyed by (ProviderInstance, ItemID);
// a second insert with the same key replaces the first.
func (s *ProviderMappingSet) Add(m ProviderMapping) {
	for i, existing := range *s {
		if existing.ProviderInstance == m.ProviderInstance && existing.ItemID == m.ItemID {
			(*s)[i] = m
			return
		}
	}
	*s = append(*s, m)
}

// Remove deletes all mappings belonging to the given provider instance.
func (s *ProviderMappingSet) Remove(providerInstance string) {
	out := (*s)[:0]
	for _, m := range *s {
		if m.ProviderInstance != providerInstance {
			out = append(out, m)
		}
	}
	*s = out
}

// Available reports whether any mapping in the set is currently available.
func (s ProviderMappingSet) Available() bool {
	for _, m := range s {
		if m.Available {
			return true
		}
	}
	return false
}

// StringSet is a JSON-persisted set of strings (e.g. ISRCs), merged by
// union.
type StringSet map[string]struct{}

// NewStringSet builds a StringSet from the given values.
func NewStringSet(values ...string) StringSet {
	s := make(StringSet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Has reports whether v is a member of the set.
func (s StringSet) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Union returns a new StringSet containing the members of both sets.
func (s StringSet) Union(other StringSet) StringSet {
	out := make(StringSet, len(s)+len(other))
	for k := range s {
		out[k] = struct{}{}
	}
	for k := range other {
		out[k] = struct{}{}
	}
	return out
}

// Slice returns the set's members as a slice, in no particular order.
func (s StringSet) Slice() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	return out
}

// MarshalJSON encodes the set as a JSON array.
func (s StringSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

// UnmarshalJSON decodes a JSON array into the set.
func (s *StringSet) UnmarshalJSON(data []byte) error {
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	*s = NewStringSet(values...)
	return nil
}

// Value implements driver.Valuer.
func (s StringSet) Value() (driver.Value, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (s *StringSet) Scan(value interface{}) error {
	if value == nil {
		*s = StringSet{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("models: unsupported StringSet source type %T", value)
	}
}
