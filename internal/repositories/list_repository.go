package repositories

import (
	"database/sql"
	"fmt"
	"log"

	"kolboard/internal/models"
)

type ListRepository struct {
	db *sql.DB
}

func NewListRepository(db *sql.DB) *ListRepository {
	if db == nil {
		log.Fatalf("received nil database connection")
	}
	return &ListRepository{db: db}
}

func (r *ListRepository) Create(l *models.KolList) error {
	const query = `
		INSERT INTO kol_lists (name, owner_id, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	return r.db.QueryRow(query, l.Name, l.OwnerID, l.CreatedAt).Scan(&l.ID)
}

func (r *ListRepository) GetByID(id int) (*models.KolList, error) {
	const query = `SELECT id, name, owner_id, created_at FROM kol_lists WHERE id=$1`
	l := &models.KolList{}
	if err := r.db.QueryRow(query, id).Scan(&l.ID, &l.Name, &l.OwnerID, &l.CreatedAt); err != nil {
		return nil, err
	}
	return l, nil
}

func (r *ListRepository) Rename(id int, name string) error {
	_, err := r.db.Exec(`UPDATE kol_lists SET name=$1 WHERE id=$2`, name, id)
	return err
}

func (r *ListRepository) Delete(id int) error {
	_, err := r.db.Exec(`DELETE FROM kol_lists WHERE id=$1`, id)
	return err
}

func (r *ListRepository) ListByOwner(ownerID, limit, offset int) ([]*models.KolList, error) {
	const query = `
		SELECT id, name, owner_id, created_at
		FROM kol_lists
		WHERE owner_id=$1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(query, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.KolList
	for rows.Next() {
		l := &models.KolList{}
		if err := rows.Scan(&l.ID, &l.Name, &l.OwnerID, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// AddEntry appends at the end of the list.
func (r *ListRepository) AddEntry(listID, opportunityID int) error {
	const query = `
		INSERT INTO list_entries (list_id, opportunity_id, position)
		VALUES ($1, $2, (SELECT COALESCE(MAX(position)+1, 0) FROM list_entries WHERE list_id=$1))
		ON CONFLICT DO NOTHING
	`
	_, err := r.db.Exec(query, listID, opportunityID)
	return err
}

func (r *ListRepository) RemoveEntry(listID, opportunityID int) error {
	_, err := r.db.Exec(
		`DELETE FROM list_entries WHERE list_id=$1 AND opportunity_id=$2`,
		listID, opportunityID,
	)
	return err
}

func (r *ListRepository) Entries(listID int) ([]*models.ListEntry, error) {
	const query = `
		SELECT list_id, opportunity_id, position
		FROM list_entries
		WHERE list_id=$1
		ORDER BY position, opportunity_id
	`
	rows, err := r.db.Query(query, listID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.ListEntry
	for rows.Next() {
		e := &models.ListEntry{}
		if err := rows.Scan(&e.ListID, &e.OpportunityID, &e.Position); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpdateEntryPositions writes each row independently, same contract as
// opportunity position batches.
func (r *ListRepository) UpdateEntryPositions(listID int, updates []models.ListEntry) error {
	for _, u := range updates {
		_, err := r.db.Exec(
			`UPDATE list_entries SET position=$1 WHERE list_id=$2 AND opportunity_id=$3`,
			u.Position, listID, u.OpportunityID,
		)
		if err != nil {
			return fmt.Errorf("update list entry position opportunity=%d: %w", u.OpportunityID, err)
		}
	}
	return nil
}

func (r *ListRepository) Members(listID int) ([]*models.Opportunity, error) {
	const query = `SELECT
		o.id, o.name, o.stage, o.position, o.owner_id, o.source, o.account_type,
		o.affiliate_id, o.client_id, o.scope, o.deal_value, o.referrer, o.notes,
		o.last_contacted_at, o.created_at
		FROM list_entries e
		JOIN opportunities o ON o.id = e.opportunity_id
		WHERE e.list_id=$1
		ORDER BY e.position, e.opportunity_id`
	rows, err := r.db.Query(query, listID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Opportunity
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
