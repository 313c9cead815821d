package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/ducminhle1904/crypto-scalp-bot/pkg/types"
)

// WriteTradeReport writes the trade journal to an Excel workbook with a
// Trades sheet and a short summary block.
func WriteTradeReport(path string, trades []types.TradeResult) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const sheet = "Trades"
	fx.SetSheetName(fx.GetSheetName(0), sheet)

	headerStyle, err := fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF", Family: "Calibri"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"2F4F4F"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return err
	}

	headers := []string{"Opened", "Closed", "Symbol", "Side", "Entry", "Exit", "Quantity", "PnL", "Reason", "Strength", "Held"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		fx.SetCellValue(sheet, cell, h)
	}
	endHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
	fx.SetCellStyle(sheet, "A1", endHeader, headerStyle)

	const timeLayout = "2006-01-02 15:04:05"
	var totalPnL float64
	wins := 0
	for i, tr := range trades {
		row := i + 2
		values := []interface{}{
			tr.OpenedAt.Format(timeLayout),
			tr.ClosedAt.Format(timeLayout),
			tr.Symbol,
			tr.Side.String(),
			tr.EntryPrice,
			tr.ExitPrice,
			tr.Quantity,
			tr.PnL,
			string(tr.Reason),
			tr.SignalStrength,
			tr.Duration().String(),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			fx.SetCellValue(sheet, cell, v)
		}
		totalPnL += tr.PnL
		if tr.PnL > 0 {
			wins++
		}
	}

	// Summary block below the table.
	summaryRow := len(trades) + 3
	fx.SetCellValue(sheet, fmt.Sprintf("A%d", summaryRow), "Total trades")
	fx.SetCellValue(sheet, fmt.Sprintf("B%d", summaryRow), len(trades))
	fx.SetCellValue(sheet, fmt.Sprintf("A%d", summaryRow+1), "Winning trades")
	fx.SetCellValue(sheet, fmt.Sprintf("B%d", summaryRow+1), wins)
	fx.SetCellValue(sheet, fmt.Sprintf("A%d", summaryRow+2), "Total PnL")
	fx.SetCellValue(sheet, fmt.Sprintf("B%d", summaryRow+2), totalPnL)
	if len(trades) > 0 {
		fx.SetCellValue(sheet, fmt.Sprintf("A%d", summaryRow+3), "Win rate")
		fx.SetCellValue(sheet, fmt.Sprintf("B%d", summaryRow+3), float64(wins)/float64(len(trades)))
	}

	fx.SetColWidth(sheet, "A", "B", 20)
	fx.SetColWidth(sheet, "C", "K", 12)

	return fx.SaveAs(path)
}
