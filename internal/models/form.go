package models

import (
	"time"

	"kolboard/internal/pipeline"
)

// FormField describes one field of a form schema. Stored as JSONB.
type FormField struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Type     string   `json:"type"` // text, email, number, select, textarea
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
}

// Form is a public intake form. Submissions create an Opportunity at
// EntryStage; the slug is the unauthenticated public handle.
type Form struct {
	ID         int            `json:"id"`
	Title      string         `json:"title"`
	Slug       string         `json:"slug"`
	EntryStage pipeline.Stage `json:"entry_stage"`
	NameField  string         `json:"name_field"` // key of the field used as the opportunity name
	Fields     []FormField    `json:"fields"`
	IsPublic   bool           `json:"is_public"`
	OwnerID    int            `json:"owner_id"`
	CreatedAt  time.Time      `json:"created_at"`
}

// FormResponse is one public submission. Answers are keyed by field key.
type FormResponse struct {
	ID            int               `json:"id"`
	FormID        int               `json:"form_id"`
	OpportunityID int               `json:"opportunity_id"`
	Answers       map[string]string `json:"answers"`
	SubmittedAt   time.Time         `json:"submitted_at"`
}
