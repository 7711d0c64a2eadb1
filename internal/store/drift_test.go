package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareChains(t *testing.T) {
	tests := []struct {
		name string
		prev map[string]int
		next map[string]int
		want []Drift
	}{
		{
			name: "identical",
			prev: map[string]int{"VkA": 1, "VkA -> VkB": 2},
			next: map[string]int{"VkA": 1, "VkA -> VkB": 2},
			want: nil,
		},
		{
			name: "renumbered",
			prev: map[string]int{"VkA": 1, "VkB": 2},
			next: map[string]int{"VkA": 2, "VkB": 1},
			want: []Drift{
				{Key: "VkA", Kind: DriftRenumbered, OldID: 1, NewID: 2},
				{Key: "VkB", Kind: DriftRenumbered, OldID: 2, NewID: 1},
			},
		},
		{
			name: "added and removed",
			prev: map[string]int{"VkA": 1, "VkGone": 2},
			next: map[string]int{"VkA": 1, "VkNew": 3},
			want: []Drift{
				{Key: "VkGone", Kind: DriftRemoved, OldID: 2},
				{Key: "VkNew", Kind: DriftAdded, NewID: 3},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CompareChains(tt.prev, tt.next))
		})
	}
}

func TestDriftBetweenRecordedBuilds(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	record(t, s, "run-1", chainDoc([]string{"VkA"}, []string{"VkA", "VkB"}))
	// A new extender inserted ahead of VkB shifts its ID.
	record(t, s, "run-2", chainDoc([]string{"VkA"}, []string{"VkA", "VkZ"}, []string{"VkA", "VkB"}))

	prev, err := s.ChainIDs(ctx, "run-1")
	require.NoError(t, err)
	next, err := s.ChainIDs(ctx, "run-2")
	require.NoError(t, err)

	assert.Equal(t, []Drift{
		{Key: "VkA -> VkB", Kind: DriftRenumbered, OldID: 2, NewID: 3},
		{Key: "VkA -> VkZ", Kind: DriftAdded, NewID: 2},
	}, CompareChains(prev, next))
}
