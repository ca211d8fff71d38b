package finance

import (
	"context"
	"fmt"
	"io"

	"github.com/opsportal/ops-portal/internal/core/common/validation"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	sheetTransactions = "Movimientos"
	sheetSummary      = "Resumen"
)

var transactionHeader = []interface{}{
	"Referencia", "Fecha", "Tipo", "Categoría", "Cliente", "Proyecto", "Monto",
	"Bono", "Descuento", "Reembolso", "Monto final", "Responsable", "Desde", "Hacia", "Estado",
}

// ExportMonth writes an XLSX workbook with the month's transactions and KPIs.
func (s *Service) ExportMonth(ctx context.Context, monthKey string, w io.Writer) error {
	if err := validation.ValidateMonthKey(monthKey); err != nil {
		return err
	}
	txs, err := s.ListTransactions(ctx, Filter{MonthKey: monthKey})
	if err != nil {
		return err
	}
	k, err := s.KPIs(ctx, monthKey)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("failed to close workbook", "error", err)
		}
	}()

	if err := writeTransactions(f, txs); err != nil {
		return fmt.Errorf("write transactions sheet: %w", err)
	}
	if err := writeSummary(f, *k, len(txs)); err != nil {
		return fmt.Errorf("write summary sheet: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	s.logger.Info("month exported", "month", monthKey, "transactions", len(txs))
	return nil
}

func writeTransactions(f *excelize.File, txs []Transaction) error {
	if err := f.SetSheetName("Sheet1", sheetTransactions); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheetTransactions, "A1", &transactionHeader); err != nil {
		return err
	}
	for i, t := range txs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			t.ReferenceID, t.Date, string(t.Type), t.Category, deref(t.Client), deref(t.Project),
			money(t.Amount), money(t.Bonus), money(t.Discount), money(t.Refund), money(t.FinalAmount),
			t.Responsible, accountName(t.AccountFrom), accountName(t.AccountTo), string(t.Status),
		}
		if err := f.SetSheetRow(sheetTransactions, cell, &row); err != nil {
			return err
		}
	}

	totalCell, err := excelize.CoordinatesToCellName(11, len(txs)+2)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheetTransactions, totalCell, money(sum(txs)))
}

func writeSummary(f *excelize.File, k KPIs, count int) error {
	if _, err := f.NewSheet(sheetSummary); err != nil {
		return err
	}
	runway := "-"
	if k.Runway != nil {
		runway = k.Runway.String()
	}
	rows := [][]interface{}{
		{"Mes", k.MonthKey},
		{"Movimientos", count},
		{"Ingresos pagados", money(k.IncomePaid)},
		{"Ingresos pendientes", money(k.IncomePending)},
		{"Gastos pagados", money(k.ExpensesPaid)},
		{"Gastos pendientes", money(k.ExpensesPending)},
		{"Resultado neto", money(k.NetIncome)},
		{"Margen %", money(k.Margin)},
		{"Caja total", money(k.TotalCash)},
		{"Runway (semanas)", runway},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetSummary, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func sum(txs []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		total = total.Add(t.FinalAmount)
	}
	return total
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func accountName(id *AccountID) string {
	if id == nil {
		return ""
	}
	return string(*id)
}
