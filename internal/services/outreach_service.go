package services

import (
	"errors"
	"strings"
	"time"

	"kolboard/internal/models"
)

var ErrNoPrimaryContact = errors.New("opportunity has no primary contact with an email")

// OutreachService sends outreach email to an opportunity's primary
// contact and stamps last_contacted_at on success.
type OutreachService struct {
	Store    OpportunityStore
	Contacts ContactStore
	Email    EmailService
}

func NewOutreachService(store OpportunityStore, contacts ContactStore, email EmailService) *OutreachService {
	return &OutreachService{Store: store, Contacts: contacts, Email: email}
}

func (s *OutreachService) SendToPrimary(opportunityID int, subject, body string) error {
	if strings.TrimSpace(subject) == "" {
		return errors.New("subject is required")
	}
	o, err := s.Store.GetByID(opportunityID)
	if err != nil || o == nil {
		return ErrOpportunityNotFound
	}
	primary, err := s.Contacts.PrimaryFor(opportunityID)
	if err != nil {
		return err
	}
	if primary == nil || strings.TrimSpace(primary.Email) == "" {
		return ErrNoPrimaryContact
	}
	if err := s.Email.SendOutreachEmail(primary.Email, subject, body); err != nil {
		return err
	}
	now := time.Now()
	return s.Store.UpdatePatch(opportunityID, &models.OpportunityPatch{LastContactedAt: &now})
}
