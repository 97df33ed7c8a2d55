package models

import "time"

// Contact is a person reachable at a KOL / partner organisation.
type Contact struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Handle    string    `json:"handle"` // social handle, free text
	CreatedAt time.Time `json:"created_at"`
}

// ContactLink joins a contact to an opportunity. At most one link per
// opportunity may have IsPrimary set; the service demotes the previous
// primary when a new one is chosen.
type ContactLink struct {
	OpportunityID int    `json:"opportunity_id"`
	ContactID     int    `json:"contact_id"`
	Role          string `json:"role"`
	IsPrimary     bool   `json:"is_primary"`
}

// LinkedContact is a contact joined with its link attributes, as listed
// under an opportunity.
type LinkedContact struct {
	Contact
	Role      string `json:"role"`
	IsPrimary bool   `json:"is_primary"`
}
