package services

import (
	"errors"
	"sort"
	"sync"

	"kolboard/internal/models"
	"kolboard/internal/pipeline"
)

// memStore is an in-memory OpportunityStore. Failure injection mirrors
// the partial-write behavior of the real repository: BatchUpdatePositions
// applies rows one by one and can be told to fail after the first k.
type memStore struct {
	mu      sync.Mutex
	nextID  int
	records map[int]*models.Opportunity

	failBatchAfter int // -1 = never fail
	failPatchIDs   map[int]bool
}

func newMemStore() *memStore {
	return &memStore{
		records:        map[int]*models.Opportunity{},
		failBatchAfter: -1,
		failPatchIDs:   map[int]bool{},
	}
}

func (m *memStore) seed(stage pipeline.Stage, names ...string) []int {
	ids := make([]int, 0, len(names))
	for i, name := range names {
		o := &models.Opportunity{Name: name, Stage: stage, Position: i}
		_ = m.Create(o)
		ids = append(ids, o.ID)
	}
	return ids
}

func (m *memStore) Create(o *models.Opportunity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	o.ID = m.nextID
	cp := *o
	m.records[o.ID] = &cp
	return nil
}

func (m *memStore) GetByID(id int) (*models.Opportunity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (m *memStore) Update(o *models.Opportunity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[o.ID]; !ok {
		return errors.New("no such record")
	}
	cp := *o
	m.records[o.ID] = &cp
	return nil
}

func (m *memStore) UpdatePatch(id int, patch *models.OpportunityPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPatchIDs[id] {
		return errors.New("injected patch failure")
	}
	o, ok := m.records[id]
	if !ok {
		return errors.New("no such record")
	}
	if patch.Name != nil {
		o.Name = *patch.Name
	}
	if patch.OwnerID != nil {
		o.OwnerID = *patch.OwnerID
	}
	if patch.Source != nil {
		o.Source = *patch.Source
	}
	if patch.DealValue != nil {
		o.DealValue = *patch.DealValue
	}
	if patch.Notes != nil {
		o.Notes = *patch.Notes
	}
	if patch.LastContactedAt != nil {
		o.LastContactedAt = patch.LastContactedAt
	}
	return nil
}

func (m *memStore) UpdateStage(id int, stage pipeline.Stage, position int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.records[id]
	if !ok {
		return errors.New("no such record")
	}
	o.Stage = stage
	o.Position = position
	return nil
}

func (m *memStore) BatchUpdatePositions(updates []models.PositionUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, u := range updates {
		if m.failBatchAfter >= 0 && i >= m.failBatchAfter {
			m.failBatchAfter = -1 // fail once
			return errors.New("injected batch failure")
		}
		o, ok := m.records[u.ID]
		if !ok {
			return errors.New("no such record")
		}
		o.Position = u.Position
		if u.Stage != nil {
			o.Stage = *u.Stage
		}
	}
	return nil
}

func (m *memStore) ListByStage(stage pipeline.Stage) ([]*models.Opportunity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Opportunity
	for _, o := range m.records {
		if o.Stage == stage {
			cp := *o
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memStore) CountByStage(stage pipeline.Stage) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, o := range m.records {
		if o.Stage == stage {
			n++
		}
	}
	return n, nil
}

func (m *memStore) Filter(f models.OpportunityFilter, limit, offset int) ([]*models.Opportunity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Opportunity
	for _, o := range m.records {
		if f.Stage != nil && o.Stage != *f.Stage {
			continue
		}
		if f.Source != nil && o.Source != *f.Source {
			continue
		}
		cp := *o
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) StageTotals() ([]models.StageTotal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byStage := map[pipeline.Stage]*models.StageTotal{}
	for _, o := range m.records {
		t, ok := byStage[o.Stage]
		if !ok {
			t = &models.StageTotal{Stage: o.Stage}
			byStage[o.Stage] = t
		}
		t.Count++
		t.Value += o.DealValue
	}
	var out []models.StageTotal
	for _, t := range byStage {
		out = append(out, *t)
	}
	return out, nil
}

func (m *memStore) Delete(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

// positions returns the stage's positions in list order, for asserting
// the dense 0..n-1 contract.
func (m *memStore) positions(stage pipeline.Stage) []int {
	records, _ := m.ListByStage(stage)
	out := make([]int, 0, len(records))
	for _, o := range records {
		out = append(out, o.Position)
	}
	return out
}

func (m *memStore) orderedIDs(stage pipeline.Stage) []int {
	records, _ := m.ListByStage(stage)
	out := make([]int, 0, len(records))
	for _, o := range records {
		out = append(out, o.ID)
	}
	return out
}

type memHistory struct {
	mu       sync.Mutex
	entries  []*models.StageHistory
	failNext bool
}

func (m *memHistory) Insert(entry *models.StageHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext {
		m.failNext = false
		return errors.New("injected history failure")
	}
	cp := *entry
	cp.ID = len(m.entries) + 1
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *memHistory) ListByOpportunity(opportunityID int) ([]*models.StageHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.StageHistory
	for _, e := range m.entries {
		if e.OpportunityID == opportunityID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

type recordingNotifier struct {
	dealsWon          int
	accountsConverted int
}

func (n *recordingNotifier) DealWon(*models.Opportunity)          { n.dealsWon++ }
func (n *recordingNotifier) AccountConverted(*models.Opportunity) { n.accountsConverted++ }
