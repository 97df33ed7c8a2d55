package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kolboard/internal/pipeline"
)

func newTestOrdering() (*OrderingService, *PipelineService, *memStore, *memHistory) {
	store := newMemStore()
	history := &memHistory{}
	engine := NewPipelineService(store, history, &recordingNotifier{})
	return NewOrderingService(store, engine), engine, store, history
}

func TestReorderWithinStageAssignsDensePositions(t *testing.T) {
	svc, _, store, _ := newTestOrdering()
	ids := store.seed(pipeline.StageContacted, "a", "b", "c")

	// reverse the column
	reversed := []int{ids[2], ids[1], ids[0]}
	require.NoError(t, svc.ReorderWithinStage(pipeline.StageContacted, reversed))

	assert.Equal(t, reversed, store.orderedIDs(pipeline.StageContacted))
	assert.Equal(t, []int{0, 1, 2}, store.positions(pipeline.StageContacted))
}

func TestReorderRejectsPartialOrForeignOrdering(t *testing.T) {
	svc, _, store, _ := newTestOrdering()
	ids := store.seed(pipeline.StageContacted, "a", "b", "c")
	otherIDs := store.seed(pipeline.StageQualified, "x")

	// a subset must not be written: it would leave duplicate positions
	err := svc.ReorderWithinStage(pipeline.StageContacted, []int{ids[2]})
	assert.ErrorIs(t, err, ErrNotInStage)
	assert.Equal(t, []int{0, 1, 2}, store.positions(pipeline.StageContacted))

	// same length but naming a record from another stage
	err = svc.ReorderWithinStage(pipeline.StageContacted, []int{ids[0], ids[1], otherIDs[0]})
	assert.ErrorIs(t, err, ErrNotInStage)

	// a repeated id must not stand in for a missing member
	err = svc.ReorderWithinStage(pipeline.StageContacted, []int{ids[0], ids[1], ids[1]})
	assert.ErrorIs(t, err, ErrNotInStage)
	assert.Equal(t, []int{0, 1, 2}, store.positions(pipeline.StageContacted))
}

func TestReorderRejectsUnknownStage(t *testing.T) {
	svc, _, _, _ := newTestOrdering()
	assert.ErrorIs(t, svc.ReorderWithinStage("limbo", []int{1}), ErrUnknownStage)
}

func TestReorderPartialFailureRenormalizesFromRefetch(t *testing.T) {
	svc, _, store, _ := newTestOrdering()
	ids := store.seed(pipeline.StageContacted, "a", "b", "c")

	// first batch write dies after one row; the renormalize that follows
	// must restore a dense ordering from whatever actually landed
	store.failBatchAfter = 1
	err := svc.ReorderWithinStage(pipeline.StageContacted, []int{ids[2], ids[0], ids[1]})
	require.Error(t, err)

	assert.Equal(t, []int{0, 1, 2}, store.positions(pipeline.StageContacted),
		"positions must be dense again after the failure")
}

func TestMoveWithinStageProducesNoHistory(t *testing.T) {
	svc, _, store, history := newTestOrdering()
	ids := store.seed(pipeline.StageContacted, "a", "b", "c")

	res, err := svc.MoveToStageAtPosition(ids[0], pipeline.StageContacted, pipeline.StageContacted, 2)
	require.NoError(t, err)
	assert.False(t, res.Applied, "same-stage move is a pure reorder")
	assert.Empty(t, history.entries)

	assert.Equal(t, []int{ids[1], ids[2], ids[0]}, store.orderedIDs(pipeline.StageContacted))
}

func TestMoveAcrossStagesInsertsAtIndex(t *testing.T) {
	svc, _, store, history := newTestOrdering()
	leadIDs := store.seed(pipeline.StageQualified, "a")
	dealIDs := store.seed(pipeline.StageDealQualified, "x", "y")

	res, err := svc.MoveToStageAtPosition(leadIDs[0], pipeline.StageQualified, pipeline.StageDealQualified, 1)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, 1, res.Opportunity.Position)
	assert.Len(t, history.entries, 1)

	assert.Equal(t, []int{dealIDs[0], leadIDs[0], dealIDs[1]}, store.orderedIDs(pipeline.StageDealQualified))
	assert.Equal(t, []int{0, 1, 2}, store.positions(pipeline.StageDealQualified))
}

func TestMoveClampsOutOfRangeIndex(t *testing.T) {
	svc, _, store, _ := newTestOrdering()
	ids := store.seed(pipeline.StageContacted, "a", "b")

	res, err := svc.MoveToStageAtPosition(ids[0], pipeline.StageContacted, pipeline.StageContacted, 99)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Opportunity.Position)
	assert.Equal(t, []int{ids[1], ids[0]}, store.orderedIDs(pipeline.StageContacted))
}

func TestMoveRejectedByDragMatrixChangesNothing(t *testing.T) {
	svc, _, store, history := newTestOrdering()
	ids := store.seed(pipeline.StageContacted, "a")
	store.seed(pipeline.StageProposal, "x")

	res, err := svc.MoveToStageAtPosition(ids[0], pipeline.StageContacted, pipeline.StageProposal, 0)
	require.NoError(t, err, "rejection is soft")
	assert.True(t, res.Rejected)
	assert.False(t, res.Applied)
	assert.Empty(t, history.entries)

	got, _ := store.GetByID(ids[0])
	assert.Equal(t, pipeline.StageContacted, got.Stage)
}

func TestMoveWithinWrongStageReportsNotInStage(t *testing.T) {
	svc, _, store, _ := newTestOrdering()
	ids := store.seed(pipeline.StageQualified, "a")
	store.seed(pipeline.StageContacted, "x")

	// record exists but not in the column the client claims
	_, err := svc.MoveToStageAtPosition(ids[0], pipeline.StageContacted, pipeline.StageContacted, 0)
	assert.ErrorIs(t, err, ErrNotInStage)
}

func TestMoveMissingRecordIsNotFound(t *testing.T) {
	svc, _, _, _ := newTestOrdering()
	_, err := svc.MoveToStageAtPosition(42, pipeline.StageContacted, pipeline.StageQualified, 0)
	assert.ErrorIs(t, err, ErrOpportunityNotFound)
}

func TestRenormalizeHealsGaps(t *testing.T) {
	svc, _, store, _ := newTestOrdering()
	ids := store.seed(pipeline.StageContacted, "a", "b", "c")

	// punch holes in the ordering directly
	require.NoError(t, store.UpdateStage(ids[1], pipeline.StageContacted, 7))

	svc.Renormalize(pipeline.StageContacted)
	assert.Equal(t, []int{0, 1, 2}, store.positions(pipeline.StageContacted))
}
