package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kolboard/internal/models"
	"kolboard/internal/pipeline"
)

func newTestPipeline() (*PipelineService, *memStore, *memHistory, *recordingNotifier) {
	store := newMemStore()
	history := &memHistory{}
	notifier := &recordingNotifier{}
	return NewPipelineService(store, history, notifier), store, history, notifier
}

func TestCreateDefaultsToNewAndWritesFirstHistoryEntry(t *testing.T) {
	svc, _, _, _ := newTestPipeline()

	o := &models.Opportunity{Name: "Ada"}
	require.NoError(t, svc.Create(o))

	assert.Equal(t, pipeline.StageNew, o.Stage)
	assert.Equal(t, 0, o.Position)

	entries, err := svc.StageHistoryFor(o.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].FromStage)
	assert.Equal(t, pipeline.StageNew, entries[0].ToStage)
}

func TestCreateAppendsAtEndOfStage(t *testing.T) {
	svc, store, _, _ := newTestPipeline()
	store.seed(pipeline.StageNew, "a", "b")

	o := &models.Opportunity{Name: "c"}
	require.NoError(t, svc.Create(o))
	assert.Equal(t, 2, o.Position)
}

func TestCreateValidation(t *testing.T) {
	svc, _, _, _ := newTestPipeline()

	assert.ErrorIs(t, svc.Create(&models.Opportunity{Name: "  "}), ErrNameRequired)
	assert.ErrorIs(t, svc.Create(&models.Opportunity{Name: "x", Stage: "limbo"}), ErrUnknownStage)
}

func TestCreateRollsBackWhenHistoryFails(t *testing.T) {
	svc, store, history, _ := newTestPipeline()
	history.failNext = true

	o := &models.Opportunity{Name: "Ada"}
	err := svc.Create(o)
	require.Error(t, err)

	got, _ := store.GetByID(o.ID)
	assert.Nil(t, got, "record should have been removed")
	assert.Empty(t, history.entries)
}

func TestSameStageTransitionIsNoOp(t *testing.T) {
	svc, store, history, _ := newTestPipeline()
	ids := store.seed(pipeline.StageContacted, "a")

	res, err := svc.RequestTransition(ids[0], pipeline.StageContacted, ViaExplicit, "")
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.False(t, res.Rejected)
	assert.Empty(t, history.entries, "no-op must not log history")
}

func TestDragAcrossCategoriesIsRejectedSoftly(t *testing.T) {
	svc, store, history, _ := newTestPipeline()
	ids := store.seed(pipeline.StageContacted, "a")

	res, err := svc.RequestTransition(ids[0], pipeline.StageClosedWon, ViaDrag, "")
	require.NoError(t, err, "rejection is not an error")
	assert.True(t, res.Rejected)
	assert.False(t, res.Applied)

	got, _ := store.GetByID(ids[0])
	assert.Equal(t, pipeline.StageContacted, got.Stage, "nothing may change on rejection")
	assert.Empty(t, history.entries)
}

func TestDragQualifiedToDealQualifiedIsAllowed(t *testing.T) {
	svc, store, _, _ := newTestPipeline()
	ids := store.seed(pipeline.StageQualified, "a")

	res, err := svc.RequestTransition(ids[0], pipeline.StageDealQualified, ViaDrag, "")
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, pipeline.StageDealQualified, res.Opportunity.Stage)
}

func TestExplicitTransitionMayCrossCategories(t *testing.T) {
	svc, store, history, _ := newTestPipeline()
	ids := store.seed(pipeline.StageNurture, "a")

	res, err := svc.RequestTransition(ids[0], pipeline.StageAccountActive, ViaExplicit, "went direct")
	require.NoError(t, err)
	assert.True(t, res.Applied)

	require.Len(t, history.entries, 1)
	entry := history.entries[0]
	require.NotNil(t, entry.FromStage)
	assert.Equal(t, pipeline.StageNurture, *entry.FromStage)
	assert.Equal(t, pipeline.StageAccountActive, entry.ToStage)
	assert.Equal(t, "went direct", entry.Notes)
}

func TestTransitionAppendsAtEndAndRenumbersSource(t *testing.T) {
	svc, store, _, _ := newTestPipeline()
	leadIDs := store.seed(pipeline.StageContacted, "a", "b", "c")
	store.seed(pipeline.StageQualified, "x", "y")

	res, err := svc.RequestTransition(leadIDs[1], pipeline.StageQualified, ViaExplicit, "")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Opportunity.Position, "appended at end of target")

	assert.Equal(t, []int{0, 1}, store.positions(pipeline.StageContacted), "source stage renumbered densely")
	assert.Equal(t, []int{0, 1, 2}, store.positions(pipeline.StageQualified))
}

func TestTransitionRollsBackOnHistoryFailure(t *testing.T) {
	svc, store, history, _ := newTestPipeline()
	ids := store.seed(pipeline.StageContacted, "a", "b")
	history.failNext = true

	_, err := svc.RequestTransition(ids[0], pipeline.StageQualified, ViaExplicit, "")
	require.Error(t, err)

	got, _ := store.GetByID(ids[0])
	assert.Equal(t, pipeline.StageContacted, got.Stage, "stage rolled back")
	assert.Empty(t, history.entries)
	assert.Equal(t, []int{0, 1}, store.positions(pipeline.StageContacted))
	assert.Empty(t, store.positions(pipeline.StageQualified))
}

func TestConversionPrompts(t *testing.T) {
	t.Run("entering qualified prompts deal conversion", func(t *testing.T) {
		svc, store, _, _ := newTestPipeline()
		ids := store.seed(pipeline.StageContacted, "a")

		res, err := svc.RequestTransition(ids[0], pipeline.StageQualified, ViaExplicit, "")
		require.NoError(t, err)
		assert.Equal(t, PromptConvertToDeal, res.Prompt)
	})

	t.Run("winning from a deal stage prompts account conversion", func(t *testing.T) {
		svc, store, _, notifier := newTestPipeline()
		ids := store.seed(pipeline.StageContract, "a")

		res, err := svc.RequestTransition(ids[0], pipeline.StageClosedWon, ViaExplicit, "")
		require.NoError(t, err)
		assert.Equal(t, PromptConvertToAccount, res.Prompt)
		assert.Equal(t, 1, notifier.dealsWon)
	})

	t.Run("prompts are never chained", func(t *testing.T) {
		svc, store, _, notifier := newTestPipeline()
		ids := store.seed(pipeline.StageClosedWon, "a")

		// accepting the account prompt is its own transition with no
		// further prompt
		res, err := svc.RequestTransition(ids[0], pipeline.StageAccountActive, ViaExplicit, "")
		require.NoError(t, err)
		assert.Equal(t, PromptNone, res.Prompt)
		assert.Equal(t, 1, notifier.accountsConverted)
	})
}

func TestBulkAssignPartialFailure(t *testing.T) {
	svc, store, _, _ := newTestPipeline()
	ids := store.seed(pipeline.StageNew, "a", "b", "c")
	missing := 999

	owner := 7
	res := svc.BulkAssign(append(ids, missing), &models.OpportunityPatch{OwnerID: &owner})

	assert.ElementsMatch(t, ids, res.Updated)
	require.Contains(t, res.Failed, missing)

	for _, id := range ids {
		got, _ := store.GetByID(id)
		assert.Equal(t, owner, got.OwnerID)
	}
}

func TestBulkAssignStageRoutesThroughTransitions(t *testing.T) {
	svc, store, history, _ := newTestPipeline()
	ids := store.seed(pipeline.StageNew, "a", "b")

	stage := pipeline.StageContacted
	res := svc.BulkAssign(ids, &models.OpportunityPatch{Stage: &stage})

	assert.Len(t, res.Updated, 2)
	assert.Len(t, history.entries, 2, "one history entry per record")
	assert.Equal(t, []int{0, 1}, store.positions(pipeline.StageContacted))
}

func TestBoardOutreachShowsOnlyColdSourceNewRecords(t *testing.T) {
	svc, _, _, _ := newTestPipeline()
	require.NoError(t, svc.Create(&models.Opportunity{Name: "cold", Source: pipeline.SourceColdOutreach}))
	require.NoError(t, svc.Create(&models.Opportunity{Name: "warm", Source: "referral"}))

	board, err := svc.Board(pipeline.CategoryOutreach)
	require.NoError(t, err)

	cards := board[pipeline.StageNew]
	require.Len(t, cards, 1)
	assert.Equal(t, "cold", cards[0].Name)
	assert.Equal(t, 0, cards[0].Position)
}

func TestUpdatePatchWithStageGoesThroughController(t *testing.T) {
	svc, store, history, _ := newTestPipeline()
	ids := store.seed(pipeline.StageNew, "a")

	stage := pipeline.StageContacted
	notes := "called twice"
	require.NoError(t, svc.UpdatePatch(ids[0], &models.OpportunityPatch{Stage: &stage, Notes: &notes}))

	got, _ := store.GetByID(ids[0])
	assert.Equal(t, pipeline.StageContacted, got.Stage)
	assert.Equal(t, notes, got.Notes)
	assert.Len(t, history.entries, 1)
}
