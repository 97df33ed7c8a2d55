package repositories

import (
	"database/sql"
	"encoding/json"
	"log"

	"kolboard/internal/models"
)

type FormRepository struct {
	db *sql.DB
}

func NewFormRepository(db *sql.DB) *FormRepository {
	if db == nil {
		log.Fatalf("received nil database connection")
	}
	return &FormRepository{db: db}
}

func (r *FormRepository) Create(f *models.Form) error {
	fields, err := json.Marshal(f.Fields)
	if err != nil {
		return err
	}
	const query = `
		INSERT INTO forms (title, slug, entry_stage, name_field, fields, is_public, owner_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	return r.db.QueryRow(query,
		f.Title, f.Slug, f.EntryStage, f.NameField, fields, f.IsPublic, f.OwnerID, f.CreatedAt,
	).Scan(&f.ID)
}

func (r *FormRepository) scanForm(row interface{ Scan(...any) error }) (*models.Form, error) {
	f := &models.Form{}
	var fields []byte
	if err := row.Scan(
		&f.ID, &f.Title, &f.Slug, &f.EntryStage, &f.NameField, &fields, &f.IsPublic, &f.OwnerID, &f.CreatedAt,
	); err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		if err := json.Unmarshal(fields, &f.Fields); err != nil {
			return nil, err
		}
	}
	return f, nil
}

const formColumns = `id, title, slug, entry_stage, name_field, fields, is_public, owner_id, created_at`

func (r *FormRepository) GetByID(id int) (*models.Form, error) {
	return r.scanForm(r.db.QueryRow(`SELECT `+formColumns+` FROM forms WHERE id=$1`, id))
}

func (r *FormRepository) GetBySlug(slug string) (*models.Form, error) {
	return r.scanForm(r.db.QueryRow(`SELECT `+formColumns+` FROM forms WHERE slug=$1`, slug))
}

func (r *FormRepository) Update(f *models.Form) error {
	fields, err := json.Marshal(f.Fields)
	if err != nil {
		return err
	}
	const query = `
		UPDATE forms
		SET title=$1, entry_stage=$2, name_field=$3, fields=$4, is_public=$5
		WHERE id=$6
	`
	_, err = r.db.Exec(query, f.Title, f.EntryStage, f.NameField, fields, f.IsPublic, f.ID)
	return err
}

func (r *FormRepository) Delete(id int) error {
	_, err := r.db.Exec(`DELETE FROM forms WHERE id=$1`, id)
	return err
}

func (r *FormRepository) ListPaginated(limit, offset int) ([]*models.Form, error) {
	rows, err := r.db.Query(
		`SELECT `+formColumns+` FROM forms ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Form
	for rows.Next() {
		f, err := r.scanForm(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *FormRepository) InsertResponse(resp *models.FormResponse) error {
	answers, err := json.Marshal(resp.Answers)
	if err != nil {
		return err
	}
	const query = `
		INSERT INTO form_responses (form_id, opportunity_id, answers, submitted_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	return r.db.QueryRow(query, resp.FormID, resp.OpportunityID, answers, resp.SubmittedAt).Scan(&resp.ID)
}

func (r *FormRepository) ListResponses(formID int) ([]*models.FormResponse, error) {
	const query = `
		SELECT id, form_id, opportunity_id, answers, submitted_at
		FROM form_responses
		WHERE form_id=$1
		ORDER BY submitted_at, id
	`
	rows, err := r.db.Query(query, formID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.FormResponse
	for rows.Next() {
		resp := &models.FormResponse{}
		var answers []byte
		if err := rows.Scan(&resp.ID, &resp.FormID, &resp.OpportunityID, &answers, &resp.SubmittedAt); err != nil {
			return nil, err
		}
		if len(answers) > 0 {
			if err := json.Unmarshal(answers, &resp.Answers); err != nil {
				return nil, err
			}
		}
		out = append(out, resp)
	}
	return out, rows.Err()
}
