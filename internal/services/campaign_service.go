package services

import (
	"errors"
	"strings"
	"time"

	"kolboard/internal/models"
	"kolboard/internal/repositories"
)

var ErrCampaignNotFound = errors.New("campaign not found")

type CampaignService struct {
	Repo *repositories.CampaignRepository
}

func NewCampaignService(repo *repositories.CampaignRepository) *CampaignService {
	return &CampaignService{Repo: repo}
}

func (s *CampaignService) Create(c *models.Campaign) error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrNameRequired
	}
	if c.Status == "" {
		c.Status = models.CampaignDraft
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	return s.Repo.Create(c)
}

func (s *CampaignService) GetByID(id int) (*models.Campaign, error) {
	c, err := s.Repo.GetByID(id)
	if err != nil || c == nil {
		return nil, ErrCampaignNotFound
	}
	return c, nil
}

func (s *CampaignService) Update(c *models.Campaign) error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrNameRequired
	}
	return s.Repo.Update(c)
}

func (s *CampaignService) Delete(id int) error {
	return s.Repo.Delete(id)
}

func (s *CampaignService) ListPaginated(limit, offset int) ([]*models.Campaign, error) {
	return s.Repo.ListPaginated(limit, offset)
}

func (s *CampaignService) AddMember(campaignID, opportunityID int) error {
	if _, err := s.GetByID(campaignID); err != nil {
		return err
	}
	return s.Repo.AddMember(campaignID, opportunityID)
}

func (s *CampaignService) RemoveMember(campaignID, opportunityID int) error {
	return s.Repo.RemoveMember(campaignID, opportunityID)
}

func (s *CampaignService) Members(campaignID int) ([]*models.Opportunity, error) {
	return s.Repo.ListMembers(campaignID)
}
