// Package export renders dashboard listings as downloadable spreadsheets.
package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

// MIMEXLSX is the content type of the workbooks produced here.
const MIMEXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// CriticalRow is one patient line of a critical-patients sheet.
type CriticalRow struct {
	Name           string
	Age            int
	Neighborhood   string
	HealthUnit     string
	Score          float64
	Classification string
	Comorbidities  string
	EvaluationDate time.Time
}

// Sheet describes the workbook title and the header of the score column,
// which differs per instrument.
type Sheet struct {
	Name        string
	ScoreHeader string
}

var criticalHeader = []string{"Nome", "Idade", "Bairro", "Unidade de Saúde", "", "Classificação", "Comorbidades", "Data da Avaliação"}

var criticalWidths = []float64{36, 8, 22, 30, 14, 16, 40, 18}

// CriticalPatientsXLSX writes rows into a single-sheet workbook with a
// styled, frozen header.
func CriticalPatientsXLSX(sheet Sheet, rows []CriticalRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	name := sheet.Name
	if name == "" {
		name = "Pacientes Críticos"
	}
	index, err := f.NewSheet(name)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if name != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return nil, fmt.Errorf("delete default sheet: %w", err)
		}
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#274754"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	header := append([]string(nil), criticalHeader...)
	header[4] = sheet.ScoreHeader
	if header[4] == "" {
		header[4] = "Pontuação"
	}
	for i, h := range header {
		if err := setCell(f, name, i+1, 1, h); err != nil {
			return nil, err
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(name, col, col, criticalWidths[i]); err != nil {
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(name, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("set header style: %w", err)
	}

	for i, r := range rows {
		line := i + 2
		values := []interface{}{
			r.Name, r.Age, r.Neighborhood, r.HealthUnit, r.Score,
			r.Classification, r.Comorbidities, r.EvaluationDate.Format("2006-01-02"),
		}
		for col, v := range values {
			if s, ok := v.(string); ok && s == "" {
				continue
			}
			if err := setCell(f, name, col+1, line, v); err != nil {
				return nil, fmt.Errorf("row %d: %w", line, err)
			}
		}
	}

	if err := f.SetPanes(name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setCell(f *excelize.File, sheet string, col, row int, v interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheet, cell, v)
}
