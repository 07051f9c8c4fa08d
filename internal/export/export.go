// Package export renders the kit as an Excel workbook.
package export

import (
	"fmt"
	"io"
	"time"

	"depremkit/internal/expiry"
	"depremkit/internal/models"

	"github.com/xuri/excelize/v2"
)

const SheetName = "Deprem Çantası"

var headers = []string{"Ürün", "Kategori", "Miktar", "Birim", "Son Kullanma", "Durum", "Kalan Gün", "Notlar", "Hazır"}

var statusLabels = map[expiry.Status]string{
	expiry.StatusGood:     "İyi",
	expiry.StatusExpiring: "Yaklaşıyor",
	expiry.StatusExpired:  "Süresi Dolmuş",
}

var statusFills = map[expiry.Status]string{
	expiry.StatusGood:     "#C8E6C9",
	expiry.StatusExpiring: "#FFE0B2",
	expiry.StatusExpired:  "#FFCDD2",
}

// WriteKit writes one row per item, classified at now with threshold days.
func WriteKit(w io.Writer, items []models.Item, now time.Time, threshold int) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("error creating style: %w", err)
	}

	statusStyles := make(map[expiry.Status]int, len(statusFills))
	for status, color := range statusFills {
		style, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err != nil {
			return fmt.Errorf("error creating style: %w", err)
		}
		statusStyles[status] = style
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetName, cell, h)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
	_ = f.SetCellStyle(SheetName, "A1", lastHeader, headerStyle)

	for i, item := range items {
		row := i + 2
		category, _ := models.LookupCategory(item.Category)
		checked := "Hayır"
		if item.IsChecked {
			checked = "Evet"
		}

		values := []interface{}{
			item.Name,
			category.Name,
			item.Quantity,
			models.TranslateUnit(item.Unit),
			item.ExpirationDate,
			"",
			"",
			item.Notes,
			checked,
		}
		if v, err := expiry.ClassifyItem(item, now, threshold); err == nil {
			values[5] = statusLabels[v.Status]
			values[6] = v.DaysDelta
		}

		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("error writing row %d: %w", row, err)
		}

		if v, err := expiry.ClassifyItem(item, now, threshold); err == nil {
			statusCell, _ := excelize.CoordinatesToCellName(6, row)
			_ = f.SetCellStyle(SheetName, statusCell, statusCell, statusStyles[v.Status])
		}
	}

	_ = f.SetColWidth(SheetName, "A", "A", 28)
	_ = f.SetColWidth(SheetName, "B", "B", 22)
	_ = f.SetColWidth(SheetName, "E", "F", 16)
	_ = f.SetColWidth(SheetName, "H", "H", 30)
	_ = f.SetPanes(SheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}
