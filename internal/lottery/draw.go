// Package lottery implements the deterministic draw that picks winners from
// a waitlist pool.
package lottery

import (
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Draw picks up to cap winners from pool, keyed by seed.
//
// # Determinism
//
// Draw is deterministic with respect to seed and the *contents* of pool.
// Each candidate id is keyed with xxhash(id + seed), a stable 64-bit hash
// identical across runs and platforms, and candidates are ordered ascending
// by (key, id) — the id tie-break makes the order total even under hash
// collisions. The same seed and the same pool, presented in any input order,
// always yield byte-identical winners and losers. This is a reproducible
// pseudo-shuffle for auditability, not a security primitive.
//
// # Output
//
// Winners are the first cap candidates in key order; a cap of zero or less
// selects the whole pool. Losers are the remaining candidates, in key order
// as well. Duplicate pool entries collapse, so winners and losers partition
// the distinct candidate set exactly.
func Draw(seed string, pool []string, cap int) (winners, losers []string) {
	type keyed struct {
		id  string
		key uint64
	}

	seen := make(map[string]struct{}, len(pool))
	ordered := make([]keyed, 0, len(pool))
	for _, id := range pool {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ordered = append(ordered, keyed{id: id, key: xxhash.Sum64String(id + seed)})
	}

	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].key != ordered[j].key {
			return ordered[i].key < ordered[j].key
		}
		return ordered[i].id < ordered[j].id
	})

	cut := len(ordered)
	if cap > 0 && cap < cut {
		cut = cap
	}

	winners = make([]string, 0, cut)
	losers = make([]string, 0, len(ordered)-cut)
	for i, candidate := range ordered {
		if i < cut {
			winners = append(winners, candidate.id)
		} else {
			losers = append(losers, candidate.id)
		}
	}
	return winners, losers
}
