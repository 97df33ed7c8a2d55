package models

import "time"

type CampaignStatus string

const (
	CampaignDraft    CampaignStatus = "draft"
	CampaignActive   CampaignStatus = "active"
	CampaignPaused   CampaignStatus = "paused"
	CampaignFinished CampaignStatus = "finished"
)

// Campaign is a marketing push that opportunities can be attached to.
type Campaign struct {
	ID        int            `json:"id"`
	Name      string         `json:"name"`
	Status    CampaignStatus `json:"status"`
	OwnerID   int            `json:"owner_id"`
	StartsAt  *time.Time     `json:"starts_at,omitempty"`
	EndsAt    *time.Time     `json:"ends_at,omitempty"`
	Notes     string         `json:"notes"`
	CreatedAt time.Time      `json:"created_at"`
}
