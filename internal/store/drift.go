package store

import (
	"sort"

	"github.com/roach88/vkir/internal/ir"
)

// DriftKind says how a chain's ID changed between two builds.
type DriftKind string

const (
	DriftRenumbered DriftKind = "renumbered"
	DriftAdded      DriftKind = "added"
	DriftRemoved    DriftKind = "removed"
)

// Drift is one chain whose ID is not the same in both builds.
// OldID is 0 for added chains and NewID is 0 for removed ones.
type Drift struct {
	Key   string    `json:"chain"`
	Kind  DriftKind `json:"kind"`
	OldID int       `json:"old_id"`
	NewID int       `json:"new_id"`
}

// ChainEntries returns the chain key to ID map of doc.
func ChainEntries(doc *ir.Document) map[string]int {
	ids := make(map[string]int, len(doc.ChainTraits))
	for _, trait := range doc.ChainTraits {
		ids[ChainKey(trait.Types)] = trait.ID
	}
	return ids
}

// CompareChains lists every chain whose ID differs between prev and next,
// sorted by key. An empty result means no drift.
func CompareChains(prev, next map[string]int) []Drift {
	var drifts []Drift
	for key, oldID := range prev {
		newID, ok := next[key]
		switch {
		case !ok:
			drifts = append(drifts, Drift{Key: key, Kind: DriftRemoved, OldID: oldID})
		case newID != oldID:
			drifts = append(drifts, Drift{Key: key, Kind: DriftRenumbered, OldID: oldID, NewID: newID})
		}
	}
	for key, newID := range next {
		if _, ok := prev[key]; !ok {
			drifts = append(drifts, Drift{Key: key, Kind: DriftAdded, NewID: newID})
		}
	}

	sort.Slice(drifts, func(i, j int) bool {
		return drifts[i].Key < drifts[j].Key
	})
	return drifts
}
