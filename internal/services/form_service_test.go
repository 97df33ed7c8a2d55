package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kolboard/internal/models"
	"kolboard/internal/pdf"
	"kolboard/internal/pipeline"
)

type memForms struct {
	nextID    int
	forms     map[int]*models.Form
	responses []*models.FormResponse
}

func newMemForms() *memForms {
	return &memForms{forms: map[int]*models.Form{}}
}

func (m *memForms) Create(f *models.Form) error {
	m.nextID++
	f.ID = m.nextID
	cp := *f
	m.forms[f.ID] = &cp
	return nil
}

func (m *memForms) GetByID(id int) (*models.Form, error) {
	f, ok := m.forms[id]
	if !ok {
		return nil, errors.New("no rows")
	}
	cp := *f
	return &cp, nil
}

func (m *memForms) GetBySlug(slug string) (*models.Form, error) {
	for _, f := range m.forms {
		if f.Slug == slug {
			cp := *f
			return &cp, nil
		}
	}
	return nil, errors.New("no rows")
}

func (m *memForms) Update(f *models.Form) error {
	if _, ok := m.forms[f.ID]; !ok {
		return errors.New("no rows")
	}
	cp := *f
	m.forms[f.ID] = &cp
	return nil
}

func (m *memForms) Delete(id int) error {
	delete(m.forms, id)
	return nil
}

func (m *memForms) ListPaginated(limit, offset int) ([]*models.Form, error) {
	var out []*models.Form
	for _, f := range m.forms {
		cp := *f
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memForms) InsertResponse(resp *models.FormResponse) error {
	cp := *resp
	cp.ID = len(m.responses) + 1
	resp.ID = cp.ID
	m.responses = append(m.responses, &cp)
	return nil
}

func (m *memForms) ListResponses(formID int) ([]*models.FormResponse, error) {
	var out []*models.FormResponse
	for _, r := range m.responses {
		if r.FormID == formID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func newTestFormService() (*FormService, *memForms, *memStore) {
	repo := newMemForms()
	store := newMemStore()
	engine := NewPipelineService(store, &memHistory{}, &recordingNotifier{})
	return NewFormService(repo, engine, pdf.NewReportGenerator()), repo, store
}

func intakeForm() *models.Form {
	return &models.Form{
		Title:      "Creator intake",
		EntryStage: pipeline.StageNew,
		NameField:  "name",
		IsPublic:   true,
		OwnerID:    3,
		Fields: []models.FormField{
			{Key: "name", Label: "Your name", Type: "text", Required: true},
			{Key: "email", Label: "Email", Type: "email", Required: true},
			{Key: "channel", Label: "Main channel", Type: "text"},
		},
	}
}

func TestFormCreateAssignsSlugAndValidates(t *testing.T) {
	svc, _, _ := newTestFormService()

	f := intakeForm()
	require.NoError(t, svc.Create(f))
	assert.NotEmpty(t, f.Slug)

	dup := intakeForm()
	dup.Fields = append(dup.Fields, models.FormField{Key: "email", Label: "Again"})
	assert.ErrorIs(t, svc.Create(dup), ErrDuplicateFieldKeys)

	badStage := intakeForm()
	badStage.EntryStage = "limbo"
	assert.ErrorIs(t, svc.Create(badStage), ErrUnknownStage)
}

func TestSubmitCreatesOpportunityAtEntryStage(t *testing.T) {
	svc, repo, store := newTestFormService()
	f := intakeForm()
	require.NoError(t, svc.Create(f))

	resp, err := svc.Submit(f.Slug, map[string]string{
		"name":    "Grace Hopper",
		"email":   "grace@example.com",
		"channel": "youtube",
	})
	require.NoError(t, err)
	require.NotZero(t, resp.OpportunityID)

	o, err := store.GetByID(resp.OpportunityID)
	require.NoError(t, err)
	require.NotNil(t, o)
	assert.Equal(t, "Grace Hopper", o.Name)
	assert.Equal(t, pipeline.StageNew, o.Stage)
	assert.Equal(t, SourceForm, o.Source)
	assert.Equal(t, f.OwnerID, o.OwnerID)

	require.Len(t, repo.responses, 1)
}

func TestSubmitValidation(t *testing.T) {
	svc, _, _ := newTestFormService()
	f := intakeForm()
	require.NoError(t, svc.Create(f))

	_, err := svc.Submit(f.Slug, map[string]string{"name": "No Email"})
	assert.ErrorIs(t, err, ErrMissingAnswer)

	_, err = svc.Submit("no-such-slug", map[string]string{})
	assert.ErrorIs(t, err, ErrFormNotFound)
}

func TestSubmitToPrivateFormIsRejected(t *testing.T) {
	svc, _, _ := newTestFormService()
	f := intakeForm()
	f.IsPublic = false
	require.NoError(t, svc.Create(f))

	_, err := svc.Submit(f.Slug, map[string]string{"name": "x", "email": "y"})
	assert.ErrorIs(t, err, ErrFormNotPublic)

	_, err = svc.GetBySlugPublic(f.Slug)
	assert.ErrorIs(t, err, ErrFormNotPublic)
}

func TestExportCSVHasSchemaOrderedColumns(t *testing.T) {
	svc, repo, _ := newTestFormService()
	f := intakeForm()
	require.NoError(t, svc.Create(f))

	repo.responses = append(repo.responses, &models.FormResponse{
		FormID:      f.ID,
		Answers:     map[string]string{"name": "Grace", "email": "g@example.com", "channel": "tw"},
		SubmittedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	})

	data, err := svc.ExportCSV(f.ID)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "submitted_at,name,email,channel", lines[0])
	assert.Contains(t, lines[1], "Grace")
	assert.Contains(t, lines[1], "g@example.com")
}
