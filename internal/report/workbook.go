package report

import (
	"hybridhunter/internal/errors"
	"hybridhunter/internal/types"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the listings
const SheetName = "Jobs"

// workbookHeader is the first row of the sheet
var workbookHeader = []any{
	"Title", "Company", "Location", "Source", "Match %",
	"Salary Est.", "Salary", "Reason", "URL", "Description",
}

var columnWidths = map[string]float64{
	"A": 40, "B": 24, "C": 22, "D": 16, "E": 9,
	"F": 18, "G": 16, "H": 60, "I": 50, "J": 80,
}

// BuildWorkbook returns an xlsx file with one row per listing
func BuildWorkbook(listings []types.ScoredListing) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, renderError(err)
	}
	if err := f.SetSheetRow(SheetName, "A1", &workbookHeader); err != nil {
		return nil, renderError(err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, renderError(err)
	}
	if err := f.SetCellStyle(SheetName, "A1", "J1", bold); err != nil {
		return nil, renderError(err)
	}
	for col, width := range columnWidths {
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return nil, renderError(err)
		}
	}

	for i, l := range listings {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, renderError(err)
		}
		row := []any{
			l.Title, l.Company, l.Location, l.Source, l.MatchScore,
			l.SalaryEstimate, l.SalaryRaw, l.Rationale, l.URL, l.Description,
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, renderError(err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, renderError(err)
	}
	return buf.Bytes(), nil
}

func renderError(err error) error {
	return errors.NewInternalError(errors.ErrCodeReportRender, "failed to build workbook", err)
}
