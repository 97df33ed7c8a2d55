package services

import (
	"errors"
	"log"
	"strings"
	"time"

	"kolboard/internal/models"
)

var ErrListNotFound = errors.New("list not found")

// ListStore is the KOL-list persistence seam.
type ListStore interface {
	Create(l *models.KolList) error
	GetByID(id int) (*models.KolList, error)
	Rename(id int, name string) error
	Delete(id int) error
	ListByOwner(ownerID, limit, offset int) ([]*models.KolList, error)
	AddEntry(listID, opportunityID int) error
	RemoveEntry(listID, opportunityID int) error
	Entries(listID int) ([]*models.ListEntry, error)
	UpdateEntryPositions(listID int, updates []models.ListEntry) error
	Members(listID int) ([]*models.Opportunity, error)
}

// ListService manages named KOL lists; entry positions follow the same
// dense 0..n-1 contract as stage ordering.
type ListService struct {
	Repo ListStore
}

func NewListService(repo ListStore) *ListService {
	return &ListService{Repo: repo}
}

func (s *ListService) Create(l *models.KolList) error {
	if strings.TrimSpace(l.Name) == "" {
		return ErrNameRequired
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	return s.Repo.Create(l)
}

func (s *ListService) GetByID(id int) (*models.KolList, error) {
	l, err := s.Repo.GetByID(id)
	if err != nil || l == nil {
		return nil, ErrListNotFound
	}
	return l, nil
}

func (s *ListService) Rename(id int, name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrNameRequired
	}
	return s.Repo.Rename(id, name)
}

func (s *ListService) Delete(id int) error {
	return s.Repo.Delete(id)
}

func (s *ListService) ListByOwner(ownerID, limit, offset int) ([]*models.KolList, error) {
	return s.Repo.ListByOwner(ownerID, limit, offset)
}

func (s *ListService) AddEntry(listID, opportunityID int) error {
	if _, err := s.GetByID(listID); err != nil {
		return err
	}
	return s.Repo.AddEntry(listID, opportunityID)
}

func (s *ListService) RemoveEntry(listID, opportunityID int) error {
	if err := s.Repo.RemoveEntry(listID, opportunityID); err != nil {
		return err
	}
	s.renormalize(listID)
	return nil
}

func (s *ListService) Members(listID int) ([]*models.Opportunity, error) {
	return s.Repo.Members(listID)
}

// ReorderEntries takes the caller's complete ordering of the list and
// assigns position = index; on partial failure the list is renumbered
// from a refetch.
func (s *ListService) ReorderEntries(listID int, orderedIDs []int) error {
	updates := make([]models.ListEntry, 0, len(orderedIDs))
	for i, id := range orderedIDs {
		updates = append(updates, models.ListEntry{ListID: listID, OpportunityID: id, Position: i})
	}
	if err := s.Repo.UpdateEntryPositions(listID, updates); err != nil {
		s.renormalize(listID)
		return err
	}
	return nil
}

func (s *ListService) renormalize(listID int) {
	entries, err := s.Repo.Entries(listID)
	if err != nil {
		log.Printf("[lists] renormalize list=%d: refetch failed: %v", listID, err)
		return
	}
	var updates []models.ListEntry
	for i, e := range entries {
		if e.Position != i {
			updates = append(updates, models.ListEntry{ListID: listID, OpportunityID: e.OpportunityID, Position: i})
		}
	}
	if len(updates) == 0 {
		return
	}
	if err := s.Repo.UpdateEntryPositions(listID, updates); err != nil {
		log.Printf("[lists] renormalize list=%d: %v", listID, err)
	}
}
