package repositories

import (
	"database/sql"
	"log"

	"kolboard/internal/models"
)

type CampaignRepository struct {
	db *sql.DB
}

func NewCampaignRepository(db *sql.DB) *CampaignRepository {
	if db == nil {
		log.Fatalf("received nil database connection")
	}
	return &CampaignRepository{db: db}
}

func (r *CampaignRepository) Create(c *models.Campaign) error {
	const query = `
		INSERT INTO campaigns (name, status, owner_id, starts_at, ends_at, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	return r.db.QueryRow(query, c.Name, c.Status, c.OwnerID, c.StartsAt, c.EndsAt, c.Notes, c.CreatedAt).Scan(&c.ID)
}

func (r *CampaignRepository) GetByID(id int) (*models.Campaign, error) {
	const query = `
		SELECT id, name, status, owner_id, starts_at, ends_at, notes, created_at
		FROM campaigns WHERE id=$1
	`
	c := &models.Campaign{}
	var startsAt, endsAt sql.NullTime
	err := r.db.QueryRow(query, id).Scan(&c.ID, &c.Name, &c.Status, &c.OwnerID, &startsAt, &endsAt, &c.Notes, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	if startsAt.Valid {
		t := startsAt.Time
		c.StartsAt = &t
	}
	if endsAt.Valid {
		t := endsAt.Time
		c.EndsAt = &t
	}
	return c, nil
}

func (r *CampaignRepository) Update(c *models.Campaign) error {
	const query = `
		UPDATE campaigns SET name=$1, status=$2, starts_at=$3, ends_at=$4, notes=$5 WHERE id=$6
	`
	_, err := r.db.Exec(query, c.Name, c.Status, c.StartsAt, c.EndsAt, c.Notes, c.ID)
	return err
}

func (r *CampaignRepository) Delete(id int) error {
	_, err := r.db.Exec(`DELETE FROM campaigns WHERE id=$1`, id)
	return err
}

func (r *CampaignRepository) ListPaginated(limit, offset int) ([]*models.Campaign, error) {
	const query = `
		SELECT id, name, status, owner_id, starts_at, ends_at, notes, created_at
		FROM campaigns
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Campaign
	for rows.Next() {
		c := &models.Campaign{}
		var startsAt, endsAt sql.NullTime
		if err := rows.Scan(&c.ID, &c.Name, &c.Status, &c.OwnerID, &startsAt, &endsAt, &c.Notes, &c.CreatedAt); err != nil {
			return nil, err
		}
		if startsAt.Valid {
			t := startsAt.Time
			c.StartsAt = &t
		}
		if endsAt.Valid {
			t := endsAt.Time
			c.EndsAt = &t
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CampaignRepository) AddMember(campaignID, opportunityID int) error {
	const query = `
		INSERT INTO campaign_members (campaign_id, opportunity_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	_, err := r.db.Exec(query, campaignID, opportunityID)
	return err
}

func (r *CampaignRepository) RemoveMember(campaignID, opportunityID int) error {
	_, err := r.db.Exec(
		`DELETE FROM campaign_members WHERE campaign_id=$1 AND opportunity_id=$2`,
		campaignID, opportunityID,
	)
	return err
}

func (r *CampaignRepository) ListMembers(campaignID int) ([]*models.Opportunity, error) {
	const query = `SELECT
		o.id, o.name, o.stage, o.position, o.owner_id, o.source, o.account_type,
		o.affiliate_id, o.client_id, o.scope, o.deal_value, o.referrer, o.notes,
		o.last_contacted_at, o.created_at
		FROM campaign_members m
		JOIN opportunities o ON o.id = m.opportunity_id
		WHERE m.campaign_id=$1
		ORDER BY o.stage, o.position`
	rows, err := r.db.Query(query, campaignID)
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
