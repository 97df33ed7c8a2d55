package services

import (
	"errors"
	"strings"
	"time"

	"kolboard/internal/models"
)

var ErrContactNotFound = errors.New("contact not found")

// ContactStore is the link+contact persistence seam.
type ContactStore interface {
	Create(c *models.Contact) error
	GetByID(id int) (*models.Contact, error)
	Update(c *models.Contact) error
	Delete(id int) error
	ListPaginated(limit, offset int) ([]*models.Contact, error)
	Link(link *models.ContactLink) error
	Unlink(opportunityID, contactID int) error
	ListByOpportunity(opportunityID int) ([]*models.LinkedContact, error)
	PrimaryFor(opportunityID int) (*models.LinkedContact, error)
}

type ContactService struct {
	Repo ContactStore
}

func NewContactService(repo ContactStore) *ContactService {
	return &ContactService{Repo: repo}
}

func (s *ContactService) Create(c *models.Contact) error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrNameRequired
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	return s.Repo.Create(c)
}

func (s *ContactService) GetByID(id int) (*models.Contact, error) {
	c, err := s.Repo.GetByID(id)
	if err != nil || c == nil {
		return nil, ErrContactNotFound
	}
	return c, nil
}

func (s *ContactService) Update(c *models.Contact) error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrNameRequired
	}
	return s.Repo.Update(c)
}

func (s *ContactService) Delete(id int) error {
	return s.Repo.Delete(id)
}

func (s *ContactService) ListPaginated(limit, offset int) ([]*models.Contact, error) {
	return s.Repo.ListPaginated(limit, offset)
}

// Link attaches a contact to an opportunity. Setting is_primary demotes
// the previous primary link; the store does both writes in one transaction
// so the "at most one primary" invariant holds at the data layer too.
func (s *ContactService) Link(opportunityID, contactID int, role string, isPrimary bool) error {
	if _, err := s.GetByID(contactID); err != nil {
		return err
	}
	return s.Repo.Link(&models.ContactLink{
		OpportunityID: opportunityID,
		ContactID:     contactID,
		Role:          role,
		IsPrimary:     isPrimary,
	})
}

func (s *ContactService) Unlink(opportunityID, contactID int) error {
	return s.Repo.Unlink(opportunityID, contactID)
}

func (s *ContactService) ListForOpportunity(opportunityID int) ([]*models.LinkedContact, error) {
	return s.Repo.ListByOpportunity(opportunityID)
}

func (s *ContactService) PrimaryFor(opportunityID int) (*models.LinkedContact, error) {
	return s.Repo.PrimaryFor(opportunityID)
}
