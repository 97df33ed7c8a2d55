package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"kolboard/internal/models"
	"kolboard/internal/pdf"
	"kolboard/internal/pipeline"
)

var (
	ErrFormNotFound       = errors.New("form not found")
	ErrFormNotPublic      = errors.New("form is not public")
	ErrMissingAnswer      = errors.New("missing required answer")
	ErrDuplicateFieldKeys = errors.New("duplicate field keys")
)

// SourceForm marks opportunities created by a public form submission.
const SourceForm = "form"

type FormStore interface {
	Create(f *models.Form) error
	GetByID(id int) (*models.Form, error)
	GetBySlug(slug string) (*models.Form, error)
	Update(f *models.Form) error
	Delete(id int) error
	ListPaginated(limit, offset int) ([]*models.Form, error)
	InsertResponse(resp *models.FormResponse) error
	ListResponses(formID int) ([]*models.FormResponse, error)
}

// OpportunityCreator is the slice of the pipeline service a submission
// needs: creation goes through the controller so the first history entry
// gets written.
type OpportunityCreator interface {
	Create(o *models.Opportunity) error
}

type FormService struct {
	Repo     FormStore
	Pipeline OpportunityCreator
	PDF      pdf.Generator
}

func NewFormService(repo FormStore, pipelineSvc OpportunityCreator, gen pdf.Generator) *FormService {
	return &FormService{Repo: repo, Pipeline: pipelineSvc, PDF: gen}
}

func (s *FormService) Create(f *models.Form) error {
	if strings.TrimSpace(f.Title) == "" {
		return ErrNameRequired
	}
	if err := validateFields(f.Fields); err != nil {
		return err
	}
	if f.EntryStage == "" {
		f.EntryStage = pipeline.StageNew
	}
	if !pipeline.Known(f.EntryStage) {
		return fmt.Errorf("%w: %s", ErrUnknownStage, f.EntryStage)
	}
	if f.Slug == "" {
		f.Slug = uuid.NewString()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}
	return s.Repo.Create(f)
}

func (s *FormService) GetByID(id int) (*models.Form, error) {
	f, err := s.Repo.GetByID(id)
	if err != nil || f == nil {
		return nil, ErrFormNotFound
	}
	return f, nil
}

// GetBySlugPublic resolves a form for the unauthenticated page; private
// forms are indistinguishable from missing ones.
func (s *FormService) GetBySlugPublic(slug string) (*models.Form, error) {
	f, err := s.Repo.GetBySlug(slug)
	if err != nil || f == nil {
		return nil, ErrFormNotFound
	}
	if !f.IsPublic {
		return nil, ErrFormNotPublic
	}
	return f, nil
}

func (s *FormService) Update(f *models.Form) error {
	if strings.TrimSpace(f.Title) == "" {
		return ErrNameRequired
	}
	if err := validateFields(f.Fields); err != nil {
		return err
	}
	if !pipeline.Known(f.EntryStage) {
		return fmt.Errorf("%w: %s", ErrUnknownStage, f.EntryStage)
	}
	return s.Repo.Update(f)
}

func (s *FormService) Delete(id int) error {
	return s.Repo.Delete(id)
}

func (s *FormService) ListPaginated(limit, offset int) ([]*models.Form, error) {
	return s.Repo.ListPaginated(limit, offset)
}

// Submit handles an unauthenticated public submission: it validates the
// answers against the form schema, creates an Opportunity at the form's
// entry stage (first history entry from=null via the controller), then
// records the response.
func (s *FormService) Submit(slug string, answers map[string]string) (*models.FormResponse, error) {
	form, err := s.Repo.GetBySlug(slug)
	if err != nil || form == nil {
		return nil, ErrFormNotFound
	}
	if !form.IsPublic {
		return nil, ErrFormNotPublic
	}
	for _, field := range form.Fields {
		if field.Required && strings.TrimSpace(answers[field.Key]) == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingAnswer, field.Key)
		}
	}

	name := strings.TrimSpace(answers[form.NameField])
	if name == "" {
		name = fmt.Sprintf("%s submission", form.Title)
	}
	o := &models.Opportunity{
		Name:    name,
		Stage:   form.EntryStage,
		OwnerID: form.OwnerID,
		Source:  SourceForm,
	}
	if err := s.Pipeline.Create(o); err != nil {
		return nil, err
	}

	resp := &models.FormResponse{
		FormID:        form.ID,
		OpportunityID: o.ID,
		Answers:       answers,
		SubmittedAt:   time.Now(),
	}
	if err := s.Repo.InsertResponse(resp); err != nil {
		return nil, fmt.Errorf("record response: %w", err)
	}
	return resp, nil
}

func (s *FormService) Responses(formID int) ([]*models.FormResponse, error) {
	if _, err := s.GetByID(formID); err != nil {
		return nil, err
	}
	return s.Repo.ListResponses(formID)
}

// ExportCSV renders all responses as CSV: submitted_at plus one column per
// schema field, in schema order.
func (s *FormService) ExportCSV(formID int) ([]byte, error) {
	form, err := s.GetByID(formID)
	if err != nil {
		return nil, err
	}
	responses, err := s.Repo.ListResponses(formID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"submitted_at"}
	for _, field := range form.Fields {
		header = append(header, field.Key)
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, resp := range responses {
		row := []string{resp.SubmittedAt.Format(time.RFC3339)}
		for _, field := range form.Fields {
			row = append(row, resp.Answers[field.Key])
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *FormService) ExportPDF(formID int) ([]byte, error) {
	form, err := s.GetByID(formID)
	if err != nil {
		return nil, err
	}
	responses, err := s.Repo.ListResponses(formID)
	if err != nil {
		return nil, err
	}
	return s.PDF.FormResponses(form, responses)
}

func validateFields(fields []models.FormField) error {
	seen := map[string]bool{}
	for _, f := range fields {
		key := strings.TrimSpace(f.Key)
		if key == "" {
			return errors.New("field key is required")
		}
		if seen[key] {
			return fmt.Errorf("%w: %s", ErrDuplicateFieldKeys, key)
		}
		seen[key] = true
	}
	return nil
}
