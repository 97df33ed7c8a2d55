package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryOfCoversEveryStage(t *testing.T) {
	for _, cat := range []Category{CategoryLead, CategoryDeal, CategoryAccount} {
		for _, s := range StagesFor(cat) {
			got, ok := CategoryOf(s)
			require.True(t, ok, "stage %s has no category", s)
			assert.Equal(t, cat, got, "stage %s", s)
		}
	}
	_, ok := CategoryOf("banana")
	assert.False(t, ok)
}

func TestNextFollowsProgression(t *testing.T) {
	want := map[Stage]Stage{
		StageNew:           StageContacted,
		StageContacted:     StageQualified,
		StageDealQualified: StageProposal,
		StageProposal:      StageNegotiation,
		StageNegotiation:   StageContract,
		StageContract:      StageClosedWon,
	}
	for from, to := range want {
		got, ok := Next(from)
		require.True(t, ok, "Next(%s)", from)
		assert.Equal(t, to, got)
	}

	terminal := []Stage{
		StageQualified, StageUnqualified, StageNurture, StageDead,
		StageClosedWon, StageClosedLost,
		StageAccountActive, StageAccountAtRisk, StageAccountChurned,
	}
	for _, s := range terminal {
		_, ok := Next(s)
		assert.False(t, ok, "Next(%s) should be terminal", s)
	}
}

func TestStagesForOutreachIsLeadNewView(t *testing.T) {
	assert.Equal(t, []Stage{StageNew}, StagesFor(CategoryOutreach))
}

func TestStagesForReturnsCopy(t *testing.T) {
	a := StagesFor(CategoryDeal)
	a[0] = "mutated"
	assert.Equal(t, StageDealQualified, StagesFor(CategoryDeal)[0])
}

func TestDragAllowed(t *testing.T) {
	// within category
	assert.True(t, DragAllowed(StageNew, StageNurture))
	assert.True(t, DragAllowed(StageProposal, StageClosedLost))
	assert.True(t, DragAllowed(StageAccountActive, StageAccountChurned))

	// the one sanctioned conversion drag
	assert.True(t, DragAllowed(StageQualified, StageDealQualified))

	// everything else cross-category is rejected
	assert.False(t, DragAllowed(StageNew, StageDealQualified))
	assert.False(t, DragAllowed(StageQualified, StageClosedWon))
	assert.False(t, DragAllowed(StageContract, StageAccountActive))
	assert.False(t, DragAllowed(StageClosedWon, StageAccountActive))
	assert.False(t, DragAllowed(StageAccountActive, StageClosedWon))

	// unknown stages never pass
	assert.False(t, DragAllowed("nope", StageNew))
	assert.False(t, DragAllowed(StageNew, "nope"))
}
