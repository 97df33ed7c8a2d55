package services

import (
	"time"

	"kolboard/internal/models"
	"kolboard/internal/pdf"
	"kolboard/internal/pipeline"
)

// CategorySummary is the per-category slice of the pipeline summary, with
// stages listed in registry order (zero rows included so boards render
// empty columns).
type CategorySummary struct {
	Category pipeline.Category   `json:"category"`
	Stages   []models.StageTotal `json:"stages"`
	Count    int                 `json:"count"`
	Value    float64             `json:"value"`
}

type PipelineSummary struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Categories  []CategorySummary `json:"categories"`
	TotalCount  int               `json:"total_count"`
	TotalValue  float64           `json:"total_value"`
}

type ReportService struct {
	Store OpportunityStore
	PDF   pdf.Generator
}

func NewReportService(store OpportunityStore, gen pdf.Generator) *ReportService {
	return &ReportService{Store: store, PDF: gen}
}

func (s *ReportService) Summary() (*PipelineSummary, error) {
	totals, err := s.Store.StageTotals()
	if err != nil {
		return nil, err
	}
	byStage := make(map[pipeline.Stage]models.StageTotal, len(totals))
	for _, t := range totals {
		byStage[t.Stage] = t
	}

	out := &PipelineSummary{GeneratedAt: time.Now()}
	for _, cat := range []pipeline.Category{pipeline.CategoryLead, pipeline.CategoryDeal, pipeline.CategoryAccount} {
		cs := CategorySummary{Category: cat}
		for _, stage := range pipeline.StagesFor(cat) {
			t := byStage[stage]
			t.Stage = stage
			cs.Stages = append(cs.Stages, t)
			cs.Count += t.Count
			cs.Value += t.Value
		}
		out.Categories = append(out.Categories, cs)
		out.TotalCount += cs.Count
		out.TotalValue += cs.Value
	}
	return out, nil
}

func (s *ReportService) SummaryPDF() ([]byte, error) {
	summary, err := s.Summary()
	if err != nil {
		return nil, err
	}
	data := pdf.ReportData{
		GeneratedAt: summary.GeneratedAt,
		Categories:  make(map[pipeline.Category][]pdf.ReportRow),
		TotalCount:  summary.TotalCount,
		TotalValue:  summary.TotalValue,
	}
	for _, cs := range summary.Categories {
		rows := make([]pdf.ReportRow, 0, len(cs.Stages))
		for _, t := range cs.Stages {
			rows = append(rows, pdf.ReportRow{Stage: t.Stage, Count: t.Count, Value: t.Value})
		}
		data.Categories[cs.Category] = rows
	}
	return s.PDF.PipelineReport(data)
}

func (s *ReportService) FilterOpportunities(f models.OpportunityFilter, limit, offset int) ([]*models.Opportunity, error) {
	return s.Store.Filter(f, limit, offset)
}
