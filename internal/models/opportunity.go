package models

import (
	"time"

	"kolboard/internal/pipeline"
)

// Opportunity is the central pipeline record: a KOL relationship at some
// stage of lead -> deal -> account. Category is always derived from Stage
// via the pipeline registry and never stored.
type Opportunity struct {
	ID              int            `json:"id"`
	Name            string         `json:"name"`
	Stage           pipeline.Stage `json:"stage"`
	Position        int            `json:"position"`
	OwnerID         int            `json:"owner_id"`
	Source          string         `json:"source"`
	AccountType     string         `json:"account_type"`
	AffiliateID     *string        `json:"affiliate_id,omitempty"`
	ClientID        *int           `json:"client_id,omitempty"`
	Scope           string         `json:"scope"`
	DealValue       float64        `json:"deal_value"`
	Referrer        string         `json:"referrer"`
	Notes           string         `json:"notes"`
	LastContactedAt *time.Time     `json:"last_contacted_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

// Category derives the board category from the current stage.
func (o *Opportunity) Category() pipeline.Category {
	cat, _ := pipeline.CategoryOf(o.Stage)
	return cat
}

// OpportunityPatch carries a partial update; nil fields are left untouched.
// Used by inline edits and bulk assign.
type OpportunityPatch struct {
	Name            *string         `json:"name,omitempty"`
	Stage           *pipeline.Stage `json:"stage,omitempty"`
	OwnerID         *int            `json:"owner_id,omitempty"`
	Source          *string         `json:"source,omitempty"`
	AccountType     *string         `json:"account_type,omitempty"`
	AffiliateID     *string         `json:"affiliate_id,omitempty"`
	ClientID        *int            `json:"client_id,omitempty"`
	Scope           *string         `json:"scope,omitempty"`
	DealValue       *float64        `json:"deal_value,omitempty"`
	Referrer        *string         `json:"referrer,omitempty"`
	Notes           *string         `json:"notes,omitempty"`
	LastContactedAt *time.Time      `json:"last_contacted_at,omitempty"`
}

// OpportunityFilter mirrors the list query parameters.
type OpportunityFilter struct {
	Stage    *pipeline.Stage
	Category *pipeline.Category
	OwnerID  *int
	Source   *string
	Search   *string
}

// StageHistory is an append-only log entry. FromStage is nil for the entry
// written when a record is created directly into its first stage.
type StageHistory struct {
	ID            int             `json:"id"`
	OpportunityID int             `json:"opportunity_id"`
	FromStage     *pipeline.Stage `json:"from_stage"`
	ToStage       pipeline.Stage  `json:"to_stage"`
	ChangedAt     time.Time       `json:"changed_at"`
	Notes         string          `json:"notes,omitempty"`
}

// StageTotal is one row of the pipeline summary.
type StageTotal struct {
	Stage pipeline.Stage `json:"stage"`
	Count int            `json:"count"`
	Value float64        `json:"value"`
}

// PositionUpdate is one row of a batch position write.
type PositionUpdate struct {
	ID       int             `json:"id"`
	Position int             `json:"position"`
	Stage    *pipeline.Stage `json:"stage,omitempty"`
}
