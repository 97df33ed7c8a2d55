package repositories

import (
	"database/sql"
	"log"

	"kolboard/internal/models"
	"kolboard/internal/pipeline"
)

type StageHistoryRepository struct {
	db *sql.DB
}

func NewStageHistoryRepository(db *sql.DB) *StageHistoryRepository {
	if db == nil {
		log.Fatalf("received nil database connection")
	}
	return &StageHistoryRepository{db: db}
}

func (r *StageHistoryRepository) Insert(entry *models.StageHistory) error {
	const query = `
		INSERT INTO stage_history (opportunity_id, from_stage, to_stage, changed_at, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	return r.db.QueryRow(query,
		entry.OpportunityID, entry.FromStage, entry.ToStage, entry.ChangedAt, entry.Notes,
	).Scan(&entry.ID)
}

func (r *StageHistoryRepository) ListByOpportunity(opportunityID int) ([]*models.StageHistory, error) {
	const query = `
		SELECT id, opportunity_id, from_stage, to_stage, changed_at, notes
		FROM stage_history
		WHERE opportunity_id=$1
		ORDER BY changed_at, id
	`
	rows, err := r.db.Query(query, opportunityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.StageHistory
	for rows.Next() {
		h := &models.StageHistory{}
		var from sql.NullString
		if err := rows.Scan(&h.ID, &h.OpportunityID, &from, &h.ToStage, &h.ChangedAt, &h.Notes); err != nil {
			return nil, err
		}
		if from.Valid {
			st := pipeline.Stage(from.String)
			h.FromStage = &st
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
