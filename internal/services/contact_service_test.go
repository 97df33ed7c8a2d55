package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kolboard/internal/models"
)

// memContacts mirrors the transactional demote-then-upsert the real
// repository does for primary links.
type memContacts struct {
	nextID   int
	contacts map[int]*models.Contact
	links    []*models.ContactLink
}

func newMemContacts() *memContacts {
	return &memContacts{contacts: map[int]*models.Contact{}}
}

func (m *memContacts) Create(c *models.Contact) error {
	m.nextID++
	c.ID = m.nextID
	cp := *c
	m.contacts[c.ID] = &cp
	return nil
}

func (m *memContacts) GetByID(id int) (*models.Contact, error) {
	c, ok := m.contacts[id]
	if !ok {
		return nil, errors.New("no rows")
	}
	cp := *c
	return &cp, nil
}

func (m *memContacts) Update(c *models.Contact) error {
	if _, ok := m.contacts[c.ID]; !ok {
		return errors.New("no rows")
	}
	cp := *c
	m.contacts[c.ID] = &cp
	return nil
}

func (m *memContacts) Delete(id int) error {
	delete(m.contacts, id)
	return nil
}

func (m *memContacts) ListPaginated(limit, offset int) ([]*models.Contact, error) {
	var out []*models.Contact
	for _, c := range m.contacts {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memContacts) Link(link *models.ContactLink) error {
	if link.IsPrimary {
		for _, l := range m.links {
			if l.OpportunityID == link.OpportunityID {
				l.IsPrimary = false
			}
		}
	}
	for _, l := range m.links {
		if l.OpportunityID == link.OpportunityID && l.ContactID == link.ContactID {
			l.Role = link.Role
			l.IsPrimary = link.IsPrimary
			return nil
		}
	}
	cp := *link
	m.links = append(m.links, &cp)
	return nil
}

func (m *memContacts) Unlink(opportunityID, contactID int) error {
	kept := m.links[:0]
	for _, l := range m.links {
		if !(l.OpportunityID == opportunityID && l.ContactID == contactID) {
			kept = append(kept, l)
		}
	}
	m.links = kept
	return nil
}

func (m *memContacts) ListByOpportunity(opportunityID int) ([]*models.LinkedContact, error) {
	var out []*models.LinkedContact
	for _, l := range m.links {
		if l.OpportunityID != opportunityID {
			continue
		}
		c := m.contacts[l.ContactID]
		out = append(out, &models.LinkedContact{Contact: *c, Role: l.Role, IsPrimary: l.IsPrimary})
	}
	return out, nil
}

func (m *memContacts) PrimaryFor(opportunityID int) (*models.LinkedContact, error) {
	for _, l := range m.links {
		if l.OpportunityID == opportunityID && l.IsPrimary {
			c := m.contacts[l.ContactID]
			return &models.LinkedContact{Contact: *c, Role: l.Role, IsPrimary: true}, nil
		}
	}
	return nil, nil
}

func TestLinkPromotingNewPrimaryDemotesOldOne(t *testing.T) {
	repo := newMemContacts()
	svc := NewContactService(repo)

	first := &models.Contact{Name: "First"}
	second := &models.Contact{Name: "Second"}
	require.NoError(t, svc.Create(first))
	require.NoError(t, svc.Create(second))

	require.NoError(t, svc.Link(1, first.ID, "manager", true))
	require.NoError(t, svc.Link(1, second.ID, "agent", true))

	primary, err := svc.PrimaryFor(1)
	require.NoError(t, err)
	require.NotNil(t, primary)
	assert.Equal(t, "Second", primary.Name)

	linked, err := svc.ListForOpportunity(1)
	require.NoError(t, err)
	primaries := 0
	for _, l := range linked {
		if l.IsPrimary {
			primaries++
		}
	}
	assert.Equal(t, 1, primaries, "at most one primary per opportunity")
}

func TestLinkUnknownContact(t *testing.T) {
	svc := NewContactService(newMemContacts())
	assert.ErrorIs(t, svc.Link(1, 42, "manager", true), ErrContactNotFound)
}

func TestPrimaryForWithoutPrimaryIsNil(t *testing.T) {
	repo := newMemContacts()
	svc := NewContactService(repo)

	c := &models.Contact{Name: "Plain"}
	require.NoError(t, svc.Create(c))
	require.NoError(t, svc.Link(1, c.ID, "agent", false))

	primary, err := svc.PrimaryFor(1)
	require.NoError(t, err)
	assert.Nil(t, primary)
}

func TestContactNameRequired(t *testing.T) {
	svc := NewContactService(newMemContacts())
	assert.ErrorIs(t, svc.Create(&models.Contact{Name: " "}), ErrNameRequired)
}
