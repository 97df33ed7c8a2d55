package services

import (
	"kolboard/internal/models"
	"kolboard/internal/pipeline"
)

// Store seams consumed by the pipeline/ordering services. The concrete
// repositories satisfy them; tests substitute in-memory fakes.

type OpportunityStore interface {
	Create(o *models.Opportunity) error
	GetByID(id int) (*models.Opportunity, error)
	Update(o *models.Opportunity) error
	UpdatePatch(id int, patch *models.OpportunityPatch) error
	UpdateStage(id int, stage pipeline.Stage, position int) error
	BatchUpdatePositions(updates []models.PositionUpdate) error
	ListByStage(stage pipeline.Stage) ([]*models.Opportunity, error)
	CountByStage(stage pipeline.Stage) (int, error)
	Filter(f models.OpportunityFilter, limit, offset int) ([]*models.Opportunity, error)
	StageTotals() ([]models.StageTotal, error)
	Delete(id int) error
}

type HistoryStore interface {
	Insert(entry *models.StageHistory) error
	ListByOpportunity(opportunityID int) ([]*models.StageHistory, error)
}

// Notifier receives post-transition events. Implementations must never
// block or fail the transition.
type Notifier interface {
	DealWon(o *models.Opportunity)
	AccountConverted(o *models.Opportunity)
}
