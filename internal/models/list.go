package models

import "time"

// KolList is a named, manually ordered collection of opportunities
// (e.g. "Q3 beauty creators shortlist").
type KolList struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	OwnerID   int       `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ListEntry places an opportunity on a list. Positions within a list are
// dense 0..n-1, same contract as stage ordering.
type ListEntry struct {
	ListID        int `json:"list_id"`
	OpportunityID int `json:"opportunity_id"`
	Position      int `json:"position"`
}
