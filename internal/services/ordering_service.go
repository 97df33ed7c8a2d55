package services

import (
	"errors"
	"fmt"
	"log"

	"kolboard/internal/models"
	"kolboard/internal/pipeline"
)

var ErrNotInStage = errors.New("opportunity is not in the given stage")

// TransitionEngine is the slice of the pipeline service the reconciler
// needs for cross-stage moves.
type TransitionEngine interface {
	RequestTransition(id int, target pipeline.Stage, via TransitionVia, note string) (*TransitionResult, error)
}

// OrderingService is the position reconciler. After any of its operations
// the positions within every touched stage are exactly {0..n-1}; partial
// write failures are healed by renumbering from a refetch.
type OrderingService struct {
	Store  OpportunityStore
	Engine TransitionEngine
}

func NewOrderingService(store OpportunityStore, engine TransitionEngine) *OrderingService {
	return &OrderingService{Store: store, Engine: engine}
}

// ReorderWithinStage assigns position = index for the caller-supplied
// complete ordering of a stage. The submitted order is authoritative; it
// is never merged with the stored one, so it must name every member of
// the stage exactly once or the dense contract would break.
func (s *OrderingService) ReorderWithinStage(stage pipeline.Stage, orderedIDs []int) error {
	if !pipeline.Known(stage) {
		return fmt.Errorf("%w: %s", ErrUnknownStage, stage)
	}
	records, err := s.Store.ListByStage(stage)
	if err != nil {
		return err
	}
	if len(orderedIDs) != len(records) {
		return fmt.Errorf("%w: got %d ids, stage %s has %d", ErrNotInStage, len(orderedIDs), stage, len(records))
	}
	members := make(map[int]bool, len(records))
	for _, o := range records {
		members[o.ID] = true
	}
	for _, id := range orderedIDs {
		if !members[id] {
			return fmt.Errorf("%w: id %d", ErrNotInStage, id)
		}
		delete(members, id) // each member exactly once
	}
	updates := make([]models.PositionUpdate, 0, len(orderedIDs))
	for i, id := range orderedIDs {
		updates = append(updates, models.PositionUpdate{ID: id, Position: i})
	}
	if err := s.Store.BatchUpdatePositions(updates); err != nil {
		// some rows may have been written; restore a dense ordering
		// from authoritative state before reporting the failure
		s.Renormalize(stage)
		return err
	}
	return nil
}

// MoveToStageAtPosition composes a drag transition with placement at
// targetIndex. Same-stage moves degenerate to a pure reorder and produce
// no history entry; cross-stage moves are subject to the drag
// compatibility matrix and come back Rejected (not errored) when the
// matrix disallows them.
func (s *OrderingService) MoveToStageAtPosition(id int, from, to pipeline.Stage, targetIndex int) (*TransitionResult, error) {
	if !pipeline.Known(from) || !pipeline.Known(to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrUnknownStage, from, to)
	}

	if from == to {
		o, err := s.placeAt(to, id, targetIndex)
		if err != nil {
			return nil, err
		}
		return &TransitionResult{Opportunity: o, Applied: false}, nil
	}

	res, err := s.Engine.RequestTransition(id, to, ViaDrag, "")
	if err != nil {
		return nil, err
	}
	if !res.Applied {
		return res, nil
	}
	o, err := s.placeAt(to, id, targetIndex)
	if err != nil {
		// transition stood; ordering heals itself
		log.Printf("[ordering] place after move failed for opportunity=%d: %v", id, err)
		s.Renormalize(to)
		return res, nil
	}
	res.Opportunity.Position = o.Position
	return res, nil
}

// placeAt renumbers a stage with id inserted at index (clamped to the
// stage's bounds) and everything else kept in current order.
func (s *OrderingService) placeAt(stage pipeline.Stage, id, index int) (*models.Opportunity, error) {
	records, err := s.Store.ListByStage(stage)
	if err != nil {
		return nil, err
	}
	var moved *models.Opportunity
	rest := make([]*models.Opportunity, 0, len(records))
	for _, o := range records {
		if o.ID == id {
			moved = o
			continue
		}
		rest = append(rest, o)
	}
	if moved == nil {
		return nil, ErrNotInStage
	}
	if index < 0 {
		index = 0
	}
	if index > len(rest) {
		index = len(rest)
	}

	ordered := make([]int, 0, len(records))
	for _, o := range rest[:index] {
		ordered = append(ordered, o.ID)
	}
	ordered = append(ordered, moved.ID)
	for _, o := range rest[index:] {
		ordered = append(ordered, o.ID)
	}
	if err := s.ReorderWithinStage(stage, ordered); err != nil {
		return nil, err
	}
	moved.Position = index
	return moved, nil
}

// Renormalize refetches a stage and rewrites any position that is not its
// index, restoring the dense 0..n-1 contract.
func (s *OrderingService) Renormalize(stage pipeline.Stage) {
	records, err := s.Store.ListByStage(stage)
	if err != nil {
		log.Printf("[ordering] renormalize %s: refetch failed: %v", stage, err)
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
		log.Printf("[ordering] renormalize %s: %v", stage, err)
	}
}
