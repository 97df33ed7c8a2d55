package repositories

import (
	"database/sql"
	"log"

	"kolboard/internal/models"
)

type ContactRepository struct {
	db *sql.DB
}

func NewContactRepository(db *sql.DB) *ContactRepository {
	if db == nil {
		log.Fatalf("received nil database connection")
	}
	return &ContactRepository{db: db}
}

func (r *ContactRepository) Create(c *models.Contact) error {
	const query = `
		INSERT INTO contacts (name, email, phone, handle, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	return r.db.QueryRow(query, c.Name, c.Email, c.Phone, c.Handle, c.CreatedAt).Scan(&c.ID)
}

func (r *ContactRepository) GetByID(id int) (*models.Contact, error) {
	const query = `SELECT id, name, email, phone, handle, created_at FROM contacts WHERE id=$1`
	c := &models.Contact{}
	if err := r.db.QueryRow(query, id).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Handle, &c.CreatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *ContactRepository) Update(c *models.Contact) error {
	const query = `UPDATE contacts SET name=$1, email=$2, phone=$3, handle=$4 WHERE id=$5`
	_, err := r.db.Exec(query, c.Name, c.Email, c.Phone, c.Handle, c.ID)
	return err
}

func (r *ContactRepository) Delete(id int) error {
	_, err := r.db.Exec(`DELETE FROM contacts WHERE id=$1`, id)
	return err
}

func (r *ContactRepository) ListPaginated(limit, offset int) ([]*models.Contact, error) {
	const query = `
		SELECT id, name, email, phone, handle, created_at
		FROM contacts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Contact
	for rows.Next() {
		c := &models.Contact{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Handle, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Link upserts a contact link. When isPrimary is set, the previous primary
// for the opportunity is demoted in the same transaction so the single
// primary invariant cannot be broken between the two writes.
func (r *ContactRepository) Link(link *models.ContactLink) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if link.IsPrimary {
		if _, err := tx.Exec(
			`UPDATE contact_links SET is_primary=FALSE WHERE opportunity_id=$1 AND is_primary`,
			link.OpportunityID,
		); err != nil {
			return err
		}
	}
	const query = `
		INSERT INTO contact_links (opportunity_id, contact_id, role, is_primary)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (opportunity_id, contact_id)
		DO UPDATE SET role=EXCLUDED.role, is_primary=EXCLUDED.is_primary
	`
	if _, err := tx.Exec(query, link.OpportunityID, link.ContactID, link.Role, link.IsPrimary); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *ContactRepository) Unlink(opportunityID, contactID int) error {
	_, err := r.db.Exec(
		`DELETE FROM contact_links WHERE opportunity_id=$1 AND contact_id=$2`,
		opportunityID, contactID,
	)
	return err
}

func (r *ContactRepository) ListByOpportunity(opportunityID int) ([]*models.LinkedContact, error) {
	const query = `
		SELECT c.id, c.name, c.email, c.phone, c.handle, c.created_at, l.role, l.is_primary
		FROM contact_links l
		JOIN contacts c ON c.id = l.contact_id
		WHERE l.opportunity_id=$1
		ORDER BY l.is_primary DESC, c.name
	`
	rows, err := r.db.Query(query, opportunityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.LinkedContact
	for rows.Next() {
		lc := &models.LinkedContact{}
		if err := rows.Scan(&lc.ID, &lc.Name, &lc.Email, &lc.Phone, &lc.Handle, &lc.CreatedAt, &lc.Role, &lc.IsPrimary); err != nil {
			return nil, err
		}
		out = append(out, lc)
	}
	return out, rows.Err()
}

// PrimaryFor returns the primary linked contact, or nil when none is set.
func (r *ContactRepository) PrimaryFor(opportunityID int) (*models.LinkedContact, error) {
	const query = `
		SELECT c.id, c.name, c.email, c.phone, c.handle, c.created_at, l.role, l.is_primary
		FROM contact_links l
		JOIN contacts c ON c.id = l.contact_id
		WHERE l.opportunity_id=$1 AND l.is_primary
	`
	lc := &models.LinkedContact{}
	err := r.db.QueryRow(query, opportunityID).Scan(
		&lc.ID, &lc.Name, &lc.Email, &lc.Phone, &lc.Handle, &lc.CreatedAt, &lc.Role, &lc.IsPrimary,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return lc, nil
}
