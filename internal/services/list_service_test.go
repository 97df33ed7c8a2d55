package services

import (
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kolboard/internal/models"
)

type memLists struct {
	nextID  int
	lists   map[int]*models.KolList
	entries []*models.ListEntry

	failPositionsAfter int // -1 = never fail
}

func newMemLists() *memLists {
	return &memLists{lists: map[int]*models.KolList{}, failPositionsAfter: -1}
}

func (m *memLists) Create(l *models.KolList) error {
	m.nextID++
	l.ID = m.nextID
	cp := *l
	m.lists[l.ID] = &cp
	return nil
}

func (m *memLists) GetByID(id int) (*models.KolList, error) {
	l, ok := m.lists[id]
	if !ok {
		return nil, errors.New("no rows")
	}
	cp := *l
	return &cp, nil
}

func (m *memLists) Rename(id int, name string) error {
	l, ok := m.lists[id]
	if !ok {
		return errors.New("no rows")
	}
	l.Name = name
	return nil
}

func (m *memLists) Delete(id int) error {
	delete(m.lists, id)
	return nil
}

func (m *memLists) ListByOwner(ownerID, limit, offset int) ([]*models.KolList, error) {
	var out []*models.KolList
	for _, l := range m.lists {
		if l.OwnerID == ownerID {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memLists) AddEntry(listID, opportunityID int) error {
	next := 0
	for _, e := range m.entries {
		if e.ListID == listID {
			next++
		}
	}
	m.entries = append(m.entries, &models.ListEntry{ListID: listID, OpportunityID: opportunityID, Position: next})
	return nil
}

func (m *memLists) RemoveEntry(listID, opportunityID int) error {
	kept := m.entries[:0]
	for _, e := range m.entries {
		if !(e.ListID == listID && e.OpportunityID == opportunityID) {
			kept = append(kept, e)
		}
	}
	m.entries = kept
	return nil
}

func (m *memLists) Entries(listID int) ([]*models.ListEntry, error) {
	var out []*models.ListEntry
	for _, e := range m.entries {
		if e.ListID == listID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].OpportunityID < out[j].OpportunityID
	})
	return out, nil
}

func (m *memLists) UpdateEntryPositions(listID int, updates []models.ListEntry) error {
	for i, u := range updates {
		if m.failPositionsAfter >= 0 && i >= m.failPositionsAfter {
			m.failPositionsAfter = -1
			return errors.New("injected failure")
		}
		for _, e := range m.entries {
			if e.ListID == listID && e.OpportunityID == u.OpportunityID {
				e.Position = u.Position
			}
		}
	}
	return nil
}

func (m *memLists) Members(listID int) ([]*models.Opportunity, error) {
	return nil, nil
}

func (m *memLists) positions(listID int) []int {
	entries, _ := m.Entries(listID)
	out := make([]int, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Position)
	}
	return out
}

func TestAddEntryAppendsAtEnd(t *testing.T) {
	repo := newMemLists()
	svc := NewListService(repo)

	l := &models.KolList{Name: "Q3 shortlist", OwnerID: 1}
	require.NoError(t, svc.Create(l))
	require.NoError(t, svc.AddEntry(l.ID, 10))
	require.NoError(t, svc.AddEntry(l.ID, 11))

	assert.Equal(t, []int{0, 1}, repo.positions(l.ID))
}

func TestAddEntryToMissingList(t *testing.T) {
	svc := NewListService(newMemLists())
	assert.ErrorIs(t, svc.AddEntry(42, 10), ErrListNotFound)
}

func TestReorderEntriesAssignsIndexPositions(t *testing.T) {
	repo := newMemLists()
	svc := NewListService(repo)

	l := &models.KolList{Name: "shortlist", OwnerID: 1}
	require.NoError(t, svc.Create(l))
	for _, id := range []int{10, 11, 12} {
		require.NoError(t, svc.AddEntry(l.ID, id))
	}

	require.NoError(t, svc.ReorderEntries(l.ID, []int{12, 10, 11}))

	entries, _ := repo.Entries(l.ID)
	gotOrder := []int{entries[0].OpportunityID, entries[1].OpportunityID, entries[2].OpportunityID}
	assert.Equal(t, []int{12, 10, 11}, gotOrder)
	assert.Equal(t, []int{0, 1, 2}, repo.positions(l.ID))
}

func TestReorderEntriesPartialFailureRenormalizes(t *testing.T) {
	repo := newMemLists()
	svc := NewListService(repo)

	l := &models.KolList{Name: "shortlist", OwnerID: 1}
	require.NoError(t, svc.Create(l))
	for _, id := range []int{10, 11, 12} {
		require.NoError(t, svc.AddEntry(l.ID, id))
	}

	repo.failPositionsAfter = 1
	require.Error(t, svc.ReorderEntries(l.ID, []int{12, 11, 10}))
	assert.Equal(t, []int{0, 1, 2}, repo.positions(l.ID))
}

func TestRemoveEntryRenumbersRemainder(t *testing.T) {
	repo := newMemLists()
	svc := NewListService(repo)

	l := &models.KolList{Name: "shortlist", OwnerID: 1}
	require.NoError(t, svc.Create(l))
	for _, id := range []int{10, 11, 12} {
		require.NoError(t, svc.AddEntry(l.ID, id))
	}

	require.NoError(t, svc.RemoveEntry(l.ID, 11))
	assert.Equal(t, []int{0, 1}, repo.positions(l.ID))
}
