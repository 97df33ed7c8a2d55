package repositories

import (
	"database/sql"
	"fmt"
	"log"

	"kolboard/internal/models"
	"kolboard/internal/pipeline"
)

type OpportunityRepository struct {
	db *sql.DB
}

func NewOpportunityRepository(db *sql.DB) *OpportunityRepository {
	if db == nil {
		log.Fatalf("received nil database connection")
	}
	return &OpportunityRepository{db: db}
}

const opportunityColumns = `
	id, name, stage, position, owner_id, source, account_type,
	affiliate_id, client_id, scope, deal_value, referrer, notes,
	last_contacted_at, created_at
`

func scanOpportunity(row interface{ Scan(...any) error }) (*models.Opportunity, error) {
	o := &models.Opportunity{}
	var (
		affiliateID sql.NullString
		clientID    sql.NullInt64
		lastContact sql.NullTime
	)
	if err := row.Scan(
		&o.ID, &o.Name, &o.Stage, &o.Position, &o.OwnerID, &o.Source, &o.AccountType,
		&affiliateID, &clientID, &o.Scope, &o.DealValue, &o.Referrer, &o.Notes,
		&lastContact, &o.CreatedAt,
	); err != nil {
		return nil, err
	}
	if affiliateID.Valid {
		s := affiliateID.String
		o.AffiliateID = &s
	}
	if clientID.Valid {
		n := int(clientID.Int64)
		o.ClientID = &n
	}
	if lastContact.Valid {
		t := lastContact.Time
		o.LastContactedAt = &t
	}
	return o, nil
}

func (r *OpportunityRepository) Create(o *models.Opportunity) error {
	const query = `
		INSERT INTO opportunities (
			name, stage, position, owner_id, source, account_type,
			affiliate_id, client_id, scope, deal_value, referrer, notes,
			last_contacted_at, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING id
	`
	return r.db.QueryRow(query,
		o.Name, o.Stage, o.Position, o.OwnerID, o.Source, o.AccountType,
		o.AffiliateID, o.ClientID, o.Scope, o.DealValue, o.Referrer, o.Notes,
		o.LastContactedAt, o.CreatedAt,
	).Scan(&o.ID)
}

func (r *OpportunityRepository) GetByID(id int) (*models.Opportunity, error) {
	query := `SELECT ` + opportunityColumns + ` FROM opportunities WHERE id=$1`
	return scanOpportunity(r.db.QueryRow(query, id))
}

func (r *OpportunityRepository) Update(o *models.Opportunity) error {
	const query = `
		UPDATE opportunities
		SET name=$1, stage=$2, position=$3, owner_id=$4, source=$5, account_type=$6,
		    affiliate_id=$7, client_id=$8, scope=$9, deal_value=$10, referrer=$11,
		    notes=$12, last_contacted_at=$13
		WHERE id=$14
	`
	_, err := r.db.Exec(query,
		o.Name, o.Stage, o.Position, o.OwnerID, o.Source, o.AccountType,
		o.AffiliateID, o.ClientID, o.Scope, o.DealValue, o.Referrer, o.Notes,
		o.LastContactedAt, o.ID,
	)
	return err
}

// UpdatePatch applies only the fields present on the patch. The query is
// built dynamically with positional args, same scheme as list filtering.
func (r *OpportunityRepository) UpdatePatch(id int, patch *models.OpportunityPatch) error {
	set := ""
	args := []interface{}{}
	i := 1
	add := func(col string, v interface{}) {
		if set != "" {
			set += ", "
		}
		set += fmt.Sprintf("%s=$%d", col, i)
		args = append(args, v)
		i++
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Stage != nil {
		add("stage", *patch.Stage)
	}
	if patch.OwnerID != nil {
		add("owner_id", *patch.OwnerID)
	}
	if patch.Source != nil {
		add("source", *patch.Source)
	}
	if patch.AccountType != nil {
		add("account_type", *patch.AccountType)
	}
	if patch.AffiliateID != nil {
		add("affiliate_id", *patch.AffiliateID)
	}
	if patch.ClientID != nil {
		add("client_id", *patch.ClientID)
	}
	if patch.Scope != nil {
		add("scope", *patch.Scope)
	}
	if patch.DealValue != nil {
		add("deal_value", *patch.DealValue)
	}
	if patch.Referrer != nil {
		add("referrer", *patch.Referrer)
	}
	if patch.Notes != nil {
		add("notes", *patch.Notes)
	}
	if patch.LastContactedAt != nil {
		add("last_contacted_at", *patch.LastContactedAt)
	}
	if set == "" {
		return nil
	}
	query := fmt.Sprintf("UPDATE opportunities SET %s WHERE id=$%d", set, i)
	args = append(args, id)
	_, err := r.db.Exec(query, args...)
	return err
}

func (r *OpportunityRepository) UpdateStage(id int, stage pipeline.Stage, position int) error {
	const query = `UPDATE opportunities SET stage=$1, position=$2 WHERE id=$3`
	_, err := r.db.Exec(query, stage, position, id)
	return err
}

func (r *OpportunityRepository) UpdatePosition(id, position int) error {
	const query = `UPDATE opportunities SET position=$1 WHERE id=$2`
	_, err := r.db.Exec(query, position, id)
	return err
}

// BatchUpdatePositions writes each row independently; the store offers no
// multi-row transaction for this, so a failure mid-batch leaves earlier
// writes applied. Callers renormalize from a refetch on error.
func (r *OpportunityRepository) BatchUpdatePositions(updates []models.PositionUpdate) error {
	for _, u := range updates {
		var err error
		if u.Stage != nil {
			_, err = r.db.Exec(`UPDATE opportunities SET position=$1, stage=$2 WHERE id=$3`, u.Position, *u.Stage, u.ID)
		} else {
			err = r.UpdatePosition(u.ID, u.Position)
		}
		if err != nil {
			return fmt.Errorf("update position id=%d: %w", u.ID, err)
		}
	}
	return nil
}

// ListByStage returns the stage's records in board order. Records created
// before any manual reorder share position 0 defaults; created_at breaks
// the tie in creation order.
func (r *OpportunityRepository) ListByStage(stage pipeline.Stage) ([]*models.Opportunity, error) {
	query := `SELECT ` + opportunityColumns + `
		FROM opportunities
		WHERE stage=$1
		ORDER BY position, created_at, id`
	rows, err := r.db.Query(query, stage)
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

func (r *OpportunityRepository) CountByStage(stage pipeline.Stage) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM opportunities WHERE stage=$1`, stage).Scan(&count)
	return count, err
}

func (r *OpportunityRepository) Filter(f models.OpportunityFilter, limit, offset int) ([]*models.Opportunity, error) {
	query := `SELECT ` + opportunityColumns + ` FROM opportunities WHERE 1=1`
	args := []interface{}{}
	i := 1

	if f.Stage != nil {
		query += fmt.Sprintf(" AND stage = $%d", i)
		args = append(args, *f.Stage)
		i++
	}
	if f.Category != nil {
		stages := pipeline.StagesFor(*f.Category)
		placeholders := ""
		for _, s := range stages {
			if placeholders != "" {
				placeholders += ","
			}
			placeholders += fmt.Sprintf("$%d", i)
			args = append(args, s)
			i++
		}
		query += fmt.Sprintf(" AND stage IN (%s)", placeholders)
		if *f.Category == pipeline.CategoryOutreach {
			query += fmt.Sprintf(" AND source = $%d", i)
			args = append(args, pipeline.SourceColdOutreach)
			i++
		}
	}
	if f.OwnerID != nil {
		query += fmt.Sprintf(" AND owner_id = $%d", i)
		args = append(args, *f.OwnerID)
		i++
	}
	if f.Source != nil {
		query += fmt.Sprintf(" AND source = $%d", i)
		args = append(args, *f.Source)
		i++
	}
	if f.Search != nil {
		query += fmt.Sprintf(" AND name ILIKE $%d", i)
		args = append(args, "%"+*f.Search+"%")
		i++
	}

	query += fmt.Sprintf(" ORDER BY stage, position, created_at LIMIT $%d OFFSET $%d", i, i+1)
	args = append(args, limit, offset)

	rows, err := r.db.Query(query, args...)
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

// StageTotals feeds the pipeline summary report.
func (r *OpportunityRepository) StageTotals() ([]models.StageTotal, error) {
	rows, err := r.db.Query(`SELECT stage, COUNT(*), COALESCE(SUM(deal_value),0) FROM opportunities GROUP BY stage`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.StageTotal
	for rows.Next() {
		var t models.StageTotal
		if err := rows.Scan(&t.Stage, &t.Count, &t.Value); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *OpportunityRepository) Delete(id int) error {
	_, err := r.db.Exec(`DELETE FROM opportunities WHERE id=$1`, id)
	return err
}
