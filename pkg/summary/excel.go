package summary

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Material Summary"

var fixedColumns = []string{"Description", "Total", "Used", "Remaining", "Status"}

// WriteExcel renders s as an xlsx workbook: the fixed columns followed by
// one column per day, each cell listing "amount (requester)" lines.
func WriteExcel(w io.Writer, s Summary, title string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	cellStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
		Border: []excelize.Border{
			{Type: "left", Color: "CCCCCC", Style: 1},
			{Type: "right", Color: "CCCCCC", Style: 1},
			{Type: "top", Color: "CCCCCC", Style: 1},
			{Type: "bottom", Color: "CCCCCC", Style: 1},
		},
	})
	outStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E53935"}, Pattern: 1},
	})

	if err := f.SetCellValue(sheetName, "A1", title); err != nil {
		return err
	}
	f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	const headerRow = 3
	headers := append([]string{}, fixedColumns...)
	for _, d := range s.Days {
		headers = append(headers, d.Label)
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		f.SetCellValue(sheetName, cell, h)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}
	f.SetColWidth(sheetName, "A", "A", 28)

	for ri, r := range s.Rows {
		rowNum := headerRow + 1 + ri
		values := []interface{}{r.Description, r.Total, r.Used, r.Remaining, string(r.Status)}
		for _, d := range s.Days {
			values = append(values, cellText(r.Cell(d.Key)))
		}
		for ci, v := range values {
			cell, _ := excelize.CoordinatesToCellName(ci+1, rowNum)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return err
			}
			f.SetCellStyle(sheetName, cell, cell, cellStyle)
		}
		if r.Remaining <= 0 {
			cell, _ := excelize.CoordinatesToCellName(4, rowNum)
			f.SetCellStyle(sheetName, cell, cell, outStyle)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func cellText(ws []Withdrawal) string {
	lines := make([]string, 0, len(ws))
	for _, w := range ws {
		lines = append(lines, strconv.FormatFloat(w.Amount, 'f', -1, 64)+" ("+w.Requester+")")
	}
	return strings.Join(lines, "\n")
}
