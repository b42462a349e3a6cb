package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/deal-analyzer/constants"
	"github.com/joseph-ayodele/deal-analyzer/internal/entity"
)

const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	metricsSheet  = "Metrics"
	analysisSheet = "Analysis"
	analysesSheet = "Analyses"
)

// AnalysisXLSX writes one analysis as a workbook with a "Metrics" sheet
// (Label, Value) and an "Analysis" sheet (file details and narrative).
func AnalysisXLSX(a *entity.Analysis) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", metricsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(analysisSheet); err != nil {
		return nil, err
	}

	writeRow(f, metricsSheet, 1, "Metric", "Value")
	row := 2
	for _, m := range a.Metrics.Entries() {
		writeRow(f, metricsSheet, row, string(m.Label), m.Value)
		row++
	}
	_ = f.SetColWidth(metricsSheet, "A", "A", 30)
	_ = f.SetColWidth(metricsSheet, "B", "B", 20)

	details := [][2]string{
		{"Analysis ID", a.ID.String()},
		{"File", a.FileName},
		{"Status", string(a.Status)},
		{"Goal", a.Goal},
		{"Created", a.CreatedAt.UTC().Format("2006-01-02 15:04:05")},
		{"Elapsed", elapsed(a)},
		{"Model", deref(a.Model)},
		{"Text Method", deref(a.TextMethod)},
		{"Error", deref(a.ErrorMessage)},
		{"Narrative", a.NarrativeText()},
	}
	for i, d := range details {
		writeRow(f, analysisSheet, i+1, d[0], d[1])
	}
	_ = f.SetColWidth(analysisSheet, "A", "A", 16)
	_ = f.SetColWidth(analysisSheet, "B", "B", 100)

	f.SetActiveSheet(0)
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

// AnalysesXLSX writes one row per analysis with a column per metric label.
func AnalysesXLSX(list []*entity.Analysis) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", analysesSheet); err != nil {
		return nil, err
	}

	labels := constants.AllLabels()
	headers := []any{"Created", "File", "Status", "Goal"}
	for _, l := range labels {
		headers = append(headers, string(l))
	}
	headers = append(headers, "Narrative")
	writeRow(f, analysesSheet, 1, headers...)

	for i, a := range list {
		vals := []any{a.CreatedAt.UTC().Format("2006-01-02 15:04"), a.FileName, string(a.Status), a.Goal}
		for _, l := range labels {
			v, _ := a.Metrics.Get(l)
			vals = append(vals, v)
		}
		vals = append(vals, truncate(a.NarrativeText(), 500))
		writeRow(f, analysesSheet, i+2, vals...)
	}

	_ = f.SetColWidth(analysesSheet, "A", "A", 17)
	_ = f.SetColWidth(analysesSheet, "B", "B", 28)
	_ = f.SetColWidth(analysesSheet, "C", "D", 18)
	last, _ := excelize.ColumnNumberToName(len(headers) - 1)
	_ = f.SetColWidth(analysesSheet, "E", last, 16)
	narr, _ := excelize.ColumnNumberToName(len(headers))
	_ = f.SetColWidth(analysesSheet, narr, narr, 80)
	_ = f.SetPanes(analysesSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, vals ...any) {
	for i, v := range vals {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

// elapsed is blank while later stages may still run.
func elapsed(a *entity.Analysis) string {
	if !a.Status.Terminal() {
		return ""
	}
	return a.Elapsed().Round(time.Millisecond).String()
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
