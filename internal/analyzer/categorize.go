package analyzer

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ppiankov/awsatlas/internal/inventory"
)

// ErrMissingName is returned when a record reaches the categorizer without a name.
var ErrMissingName = errors.New("record has no name")

// Store holds records grouped by environment and kind.
type Store struct {
	envs     map[string]map[inventory.Kind][]inventory.Record
	statuses []inventory.Result
}

// Categorize groups every collected record by its environment. Empty and
// unavailable kinds contribute no sections; their status is kept for renderers.
func Categorize(inv *inventory.Inventory) (*Store, error) {
	store := &Store{envs: make(map[string]map[inventory.Kind][]inventory.Record)}
	if inv == nil {
		return store, nil
	}
	store.statuses = inv.Statuses()

	for _, kind := range inventory.Kinds {
		res := inv.Result(kind)
		if res.Status != inventory.StatusOK {
			continue
		}
		for _, r := range res.Records {
			if r.Name == "" {
				return nil, fmt.Errorf("categorize %s %q: %w", kind, r.ID, ErrMissingName)
			}
			env := r.Environment
			if env == "" {
				env = inventory.NoCategory
			}
			byKind, ok := store.envs[env]
			if !ok {
				byKind = make(map[inventory.Kind][]inventory.Record)
				store.envs[env] = byKind
			}
			byKind[kind] = append(byKind[kind], r)
		}
	}
	return store, nil
}

// Environments returns the discovered environments in lexicographic order.
func (s *Store) Environments() []string {
	envs := make([]string, 0, len(s.envs))
	for env := range s.envs {
		envs = append(envs, env)
	}
	sort.Strings(envs)
	return envs
}

// Kinds returns the kinds present in env in declaration order.
func (s *Store) Kinds(env string) []inventory.Kind {
	byKind := s.envs[env]
	var kinds []inventory.Kind
	for _, k := range inventory.Kinds {
		if len(byKind[k]) > 0 {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// Records returns the records of kind in env.
func (s *Store) Records(env string, kind inventory.Kind) []inventory.Record {
	return s.envs[env][kind]
}

// Status returns the collection status of kind.
func (s *Store) Status(kind inventory.Kind) inventory.Result {
	for _, r := range s.statuses {
		if r.Kind == kind {
			return r
		}
	}
	return inventory.Empty(kind)
}

// Statuses returns every kind's status in declaration order.
func (s *Store) Statuses() []inventory.Result {
	return s.statuses
}

// Unavailable returns the kinds that were denied or failed.
func (s *Store) Unavailable() []inventory.Result {
	var out []inventory.Result
	for _, r := range s.statuses {
		if r.Unavailable() {
			out = append(out, r)
		}
	}
	return out
}

// Count returns the number of records in env, or across all envs when env is "".
func (s *Store) Count(env string) int {
	n := 0
	for e, byKind := range s.envs {
		if env != "" && e != env {
			continue
		}
		for _, recs := range byKind {
			n += len(recs)
		}
	}
	return n
}

// Empty reports whether no records were categorized.
func (s *Store) Empty() bool {
	return len(s.envs) == 0
}
