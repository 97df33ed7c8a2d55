package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"kolboard/internal/models"
	"kolboard/internal/pipeline"
)

var (
	ErrOpportunityNotFound = errors.New("opportunity not found")
	ErrNameRequired        = errors.New("name is required")
	ErrUnknownStage        = errors.New("unknown stage")
)

// TransitionVia distinguishes drag gestures (subject to the category
// compatibility matrix) from explicit menu/dialog transitions (which may
// deliberately cross categories).
type TransitionVia string

const (
	ViaDrag     TransitionVia = "drag"
	ViaExplicit TransitionVia = "explicit"
)

// Prompt is a decision point surfaced after a transition. The client
// accepts by issuing the follow-up transition itself; prompts are never
// chained server-side.
type Prompt string

const (
	PromptNone             Prompt = ""
	PromptConvertToDeal    Prompt = "convert_to_deal"
	PromptConvertToAccount Prompt = "convert_to_account"
)

// TransitionResult reports what a transition request did. Rejected marks
// the deliberate soft-fail of an incompatible drag: nothing changed and no
// error is surfaced.
type TransitionResult struct {
	Opportunity *models.Opportunity `json:"opportunity"`
	Applied     bool                `json:"applied"`
	Rejected    bool                `json:"rejected,omitempty"`
	Prompt      Prompt              `json:"prompt,omitempty"`
}

// BulkResult reports a bulk assign; writes are independent, so both lists
// can be non-empty at once.
type BulkResult struct {
	Updated []int          `json:"updated"`
	Failed  map[int]string `json:"failed,omitempty"`
}

// PipelineService is the transition controller: every stage write in the
// system goes through it so history stays exactly one entry per change.
type PipelineService struct {
	Store    OpportunityStore
	History  HistoryStore
	Notifier Notifier
	now      func() time.Time
}

func NewPipelineService(store OpportunityStore, history HistoryStore, notifier Notifier) *PipelineService {
	return &PipelineService{Store: store, History: history, Notifier: notifier, now: time.Now}
}

// Create inserts a record at the end of its initial stage and writes the
// first history entry with a null from_stage.
func (s *PipelineService) Create(o *models.Opportunity) error {
	if strings.TrimSpace(o.Name) == "" {
		return ErrNameRequired
	}
	if o.Stage == "" {
		o.Stage = pipeline.StageNew
	}
	if !pipeline.Known(o.Stage) {
		return fmt.Errorf("%w: %s", ErrUnknownStage, o.Stage)
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = s.now()
	}
	n, err := s.Store.CountByStage(o.Stage)
	if err != nil {
		return err
	}
	o.Position = n
	if err := s.Store.Create(o); err != nil {
		return err
	}
	entry := &models.StageHistory{
		OpportunityID: o.ID,
		FromStage:     nil,
		ToStage:       o.Stage,
		ChangedAt:     s.now(),
	}
	if err := s.History.Insert(entry); err != nil {
		// best-effort rollback, mirrors the failed-conversion path
		_ = s.Store.Delete(o.ID)
		return fmt.Errorf("record stage history: %w", err)
	}
	return nil
}

// RequestTransition performs a validated stage change for one record.
//
// Same-stage requests are no-ops. Drag requests against an incompatible
// category are rejected silently (state unchanged). A successful change
// appends the record at the end of the target stage, renumbers the source
// stage, and writes exactly one history entry; if the history write fails
// the stage is rolled back and the error is retryable.
func (s *PipelineService) RequestTransition(id int, target pipeline.Stage, via TransitionVia, note string) (*TransitionResult, error) {
	if !pipeline.Known(target) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStage, target)
	}
	o, err := s.Store.GetByID(id)
	if err != nil || o == nil {
		return nil, ErrOpportunityNotFound
	}
	if o.Stage == target {
		return &TransitionResult{Opportunity: o, Applied: false}, nil
	}
	if via == ViaDrag && !pipeline.DragAllowed(o.Stage, target) {
		return &TransitionResult{Opportunity: o, Applied: false, Rejected: true}, nil
	}

	prevStage, prevPos := o.Stage, o.Position
	prevCat, _ := pipeline.CategoryOf(prevStage)

	n, err := s.Store.CountByStage(target)
	if err != nil {
		return nil, err
	}
	if err := s.Store.UpdateStage(o.ID, target, n); err != nil {
		return nil, err
	}
	s.renumberStage(prevStage)

	entry := &models.StageHistory{
		OpportunityID: o.ID,
		FromStage:     &prevStage,
		ToStage:       target,
		ChangedAt:     s.now(),
		Notes:         note,
	}
	if err := s.History.Insert(entry); err != nil {
		// roll the stage back so history never lags behind state
		if rbErr := s.Store.UpdateStage(o.ID, prevStage, prevPos); rbErr != nil {
			log.Printf("[pipeline] rollback failed for opportunity=%d: %v", o.ID, rbErr)
		}
		s.renumberStage(prevStage)
		s.renumberStage(target)
		return nil, fmt.Errorf("record stage history: %w", err)
	}

	o.Stage = target
	o.Position = n

	res := &TransitionResult{Opportunity: o, Applied: true}
	switch {
	case target == pipeline.StageQualified:
		res.Prompt = PromptConvertToDeal
	case target == pipeline.StageClosedWon && prevCat == pipeline.CategoryDeal:
		res.Prompt = PromptConvertToAccount
	}

	if s.Notifier != nil {
		switch {
		case target == pipeline.StageClosedWon:
			s.Notifier.DealWon(o)
		case target == pipeline.StageAccountActive && prevCat == pipeline.CategoryDeal:
			s.Notifier.AccountConverted(o)
		}
	}
	return res, nil
}

// BulkAssign applies one patch to every listed record independently.
// Partial success stands; per-record failures are reported, not retried.
// A patch that changes stage routes through RequestTransition so each
// record still gets its history entry.
func (s *PipelineService) BulkAssign(ids []int, patch *models.OpportunityPatch) *BulkResult {
	res := &BulkResult{Failed: map[int]string{}}

	rest := *patch
	rest.Stage = nil
	hasRest := rest != (models.OpportunityPatch{})

	for _, id := range ids {
		if patch.Stage != nil {
			if _, err := s.RequestTransition(id, *patch.Stage, ViaExplicit, "bulk assign"); err != nil {
				res.Failed[id] = err.Error()
				continue
			}
		}
		if hasRest {
			if err := s.Store.UpdatePatch(id, &rest); err != nil {
				res.Failed[id] = err.Error()
				continue
			}
		}
		res.Updated = append(res.Updated, id)
	}
	if len(res.Failed) == 0 {
		res.Failed = nil
	}
	return res
}

func (s *PipelineService) GetByID(id int) (*models.Opportunity, error) {
	o, err := s.Store.GetByID(id)
	if err != nil || o == nil {
		return nil, ErrOpportunityNotFound
	}
	return o, nil
}

func (s *PipelineService) UpdatePatch(id int, patch *models.OpportunityPatch) error {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return ErrNameRequired
	}
	if patch.Stage != nil {
		// stage changes must go through RequestTransition
		_, err := s.RequestTransition(id, *patch.Stage, ViaExplicit, "")
		if err != nil {
			return err
		}
		rest := *patch
		rest.Stage = nil
		if rest == (models.OpportunityPatch{}) {
			return nil
		}
		return s.Store.UpdatePatch(id, &rest)
	}
	return s.Store.UpdatePatch(id, patch)
}

func (s *PipelineService) List(f models.OpportunityFilter, limit, offset int) ([]*models.Opportunity, error) {
	return s.Store.Filter(f, limit, offset)
}

// Board returns a category's stages with their ordered records, lazily
// assigning dense positions on read when none were ever written.
func (s *PipelineService) Board(cat pipeline.Category) (map[pipeline.Stage][]*models.Opportunity, error) {
	out := make(map[pipeline.Stage][]*models.Opportunity)
	for _, stage := range pipeline.StagesFor(cat) {
		records, err := s.Store.ListByStage(stage)
		if err != nil {
			return nil, err
		}
		if cat == pipeline.CategoryOutreach {
			filtered := records[:0]
			for _, o := range records {
				if o.Source == pipeline.SourceColdOutreach {
					filtered = append(filtered, o)
				}
			}
			records = filtered
		}
		for i, o := range records {
			o.Position = i
		}
		out[stage] = records
	}
	return out, nil
}

func (s *PipelineService) StageHistoryFor(id int) ([]*models.StageHistory, error) {
	return s.History.ListByOpportunity(id)
}

func (s *PipelineService) Delete(id int) error {
	return s.Store.Delete(id)
}

// renumberStage compacts a stage's positions to 0..n-1. Best effort: a
// failure here is logged, the reconciler's refetch path heals it later.
func (s *PipelineService) renumberStage(stage pipeline.Stage) {
	records, err := s.Store.ListByStage(stage)
	if err != nil {
		log.Printf("[pipeline] renumber %s: list failed: %v", stage, err)
		return
	}
	var updates []models.PositionUpdate
	for i, o := range records {
		if o.Position != i {
			updates = append(updates, models.PositionUpdate{ID: o.ID, Position: i})
		}
	}
	if len(updates) == 0 {
		return
	}
	if err := s.Store.BatchUpdatePositions(updates); err != nil {
		log.Printf("[pipeline] renumber %s: %v", stage, err)
	}
}
