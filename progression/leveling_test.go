package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRaiseLevel_Saturates(t *testing.T) {
	cases := []struct {
		current, increase, max, want int
	}{
		{0, 1, 5, 1},
		{3, 2, 5, 5},
		{4, 10, 5, 5},
		{5, 1, 5, 5},
		{2, 0, 5, 2},
		{2, -3, 5, 2},
	}
	for _, tc := range cases {
		got := RaiseLevel(tc.current, tc.increase, tc.max)
		assert.Equal(t, tc.want, got, "RaiseLevel(%d, %d, %d)", tc.current, tc.increase, tc.max)
		assert.GreaterOrEqual(t, got, tc.current)
	}
}

func TestGrantArtifact_Idempotent(t *testing.T) {
	owned, added := GrantArtifact(nil, badge)
	assert.True(t, added)
	assert.Len(t, owned, 1)

	again, added := GrantArtifact(owned, badge)
	assert.False(t, added)
	assert.Len(t, again, 1)
}

func TestGrantArtifact_KeepsInsertionOrderAndCopies(t *testing.T) {
	first := Artifact{ID: 3, Title: "Compass"}
	owned := []Artifact{first}

	out, added := GrantArtifact(owned, badge)
	assert.True(t, added)
	assert.Equal(t, []uint{3, 7}, []uint{out[0].ID, out[1].ID})

	out[0].Title = "changed"
	assert.Equal(t, "Compass", owned[0].Title, "input slice must not be shared")
}
