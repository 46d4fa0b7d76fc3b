package domain

import (
	"encoding/json"
	"slices"

	"github.com/samber/lo"
)

// Set is an unordered collection of account ids.
// It is encoded as a sorted JSON array.
type Set map[string]struct{}

func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Add reports whether id was missing before the call.
func (s Set) Add(id string) bool {
	if _, ok := s[id]; ok {
		return false
	}
	s[id] = struct{}{}
	return true
}

func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s Set) Remove(id string) {
	delete(s, id)
}

func (s Set) Len() int { return len(s) }

// Values returns the ids in ascending order.
func (s Set) Values() []string {
	values := lo.Keys(s)
	slices.Sort(values)
	return values
}

// Intersect keeps only the ids also present in other.
func (s Set) Intersect(other Set) Set {
	return NewSet(lo.Filter(s.Values(), func(id string, _ int) bool {
		return other.Has(id)
	})...)
}

func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for id := range s {
		if !other.Has(id) {
			return false
		}
	}
	return true
}

func (s Set) Clone() Set {
	return NewSet(s.Values()...)
}

func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Values())
}

func (s *Set) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewSet(ids...)
	return nil
}
