package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"kolboard/internal/models"
	"kolboard/internal/pipeline"
)

// Generator is the export surface handlers depend on (easy to mock).
type Generator interface {
	PipelineReport(data ReportData) ([]byte, error)
	FormResponses(form *models.Form, responses []*models.FormResponse) ([]byte, error)
}

type ReportRow struct {
	Stage pipeline.Stage
	Count int
	Value float64
}

type ReportData struct {
	GeneratedAt time.Time
	Categories  map[pipeline.Category][]ReportRow
	TotalCount  int
	TotalValue  float64
}

// ReportGenerator renders exports in-memory; nothing touches the filesystem.
type ReportGenerator struct {
	fontName string
}

func NewReportGenerator() *ReportGenerator {
	return &ReportGenerator{fontName: "Helvetica"}
}

func (g *ReportGenerator) PipelineReport(data ReportData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Pipeline report", false)
	pdf.SetAuthor("kolboard", false)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 18)
	pdf.CellFormat(0, 10, "Pipeline report", "", 1, "C", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 7, data.GeneratedAt.Format("02.01.2006 15:04"), "", 1, "C", false, 0, "")
	g.hr(pdf)
	pdf.Ln(3)

	for _, cat := range []pipeline.Category{pipeline.CategoryLead, pipeline.CategoryDeal, pipeline.CategoryAccount} {
		rows := data.Categories[cat]
		if len(rows) == 0 {
			continue
		}
		g.sectionTitle(pdf, string(cat))
		for _, row := range rows {
			g.kvLine(pdf, string(row.Stage), fmt.Sprintf("%d records, %.2f total value", row.Count, row.Value))
		}
		pdf.Ln(2)
		g.hr(pdf)
	}

	g.sectionTitle(pdf, "Totals")
	g.kvLine(pdf, "Records", fmt.Sprintf("%d", data.TotalCount))
	g.kvLine(pdf, "Deal value", fmt.Sprintf("%.2f", data.TotalValue))

	g.pageFooter(pdf)
	return g.output(pdf)
}

func (g *ReportGenerator) FormResponses(form *models.Form, responses []*models.FormResponse) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Responses: %s", form.Title), false)
	pdf.SetAuthor("kolboard", false)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 16)
	pdf.CellFormat(0, 10, form.Title, "", 1, "C", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("%d responses", len(responses)), "", 1, "C", false, 0, "")
	g.hr(pdf)
	pdf.Ln(2)

	for i, resp := range responses {
		g.sectionTitle(pdf, fmt.Sprintf("Response #%d - %s", i+1, resp.SubmittedAt.Format("02.01.2006 15:04")))
		for _, field := range form.Fields {
			g.kvLine(pdf, field.Label, resp.Answers[field.Key])
		}
		pdf.Ln(2)
		g.hr(pdf)
	}

	g.pageFooter(pdf)
	return g.output(pdf)
}

func (g *ReportGenerator) output(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *ReportGenerator) pageFooter(pdf *gofpdf.Fpdf) {
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(g.fontName, "", 10)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
}

func (g *ReportGenerator) sectionTitle(pdf *gofpdf.Fpdf, s string) {
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 7, s, "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
}

func (g *ReportGenerator) kvLine(pdf *gofpdf.Fpdf, key, val string) {
	pdf.SetFont(g.fontName, "B", 11)
	pdf.CellFormat(60, 6, key+":", "", 0, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, val, "", 1, "L", false, 0, "")
}

func (g *ReportGenerator) hr(pdf *gofpdf.Fpdf) {
	y := pdf.GetY() + 1.5
	pdf.SetLineWidth(0.2)
	pdf.Line(20, y, 190, y)
	pdf.SetY(y + 2)
}
