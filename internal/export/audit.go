// Package export renders reports as spreadsheets.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"agencyledger/internal/money"
	"agencyledger/internal/services"
)

// AuditSheet is the name of the sheet holding one row per audited month.
const AuditSheet = "Audit"

// ContentTypeXLSX is the MIME type of the workbooks produced here.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var auditHeaders = []string{
	"Month",
	"Cash income",
	"Cash expense",
	"Cash on hand",
	"Period income",
	"Period expense",
	"Period net",
	"Fixed monthly total",
	"Fixed materialized",
	"Pending fixed",
	"Open invoices",
	"Non-fixed expense",
	"Projected net profit",
	"Anomalies",
}

// AuditFileName is the attachment name for an audit of year.
func AuditFileName(year int) string {
	return fmt.Sprintf("audit_%d.xlsx", year)
}

// AuditWorkbook lays report out as a workbook. Amounts are written in major
// units so spreadsheet formulas work on them directly.
func AuditWorkbook(report *services.AuditReport) (*excelize.File, error) {
	f := excelize.NewFile()
	index, err := f.NewSheet(AuditSheet)
	if err != nil {
		return nil, fmt.Errorf("creating audit sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("removing default sheet: %w", err)
	}

	for i, header := range auditHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(AuditSheet, cell, header); err != nil {
			return nil, err
		}
	}

	for i, m := range report.Results {
		row := []any{
			fmt.Sprintf("%d-%02d", report.Year, m.Month),
			amount(m.CashIncome),
			amount(m.CashExpense),
			amount(m.CashOnHand),
			amount(m.PeriodIncome),
			amount(m.PeriodExpense),
			amount(m.PeriodNet),
			amount(m.FixedMonthlyTotal),
			amount(m.FixedMaterialized),
			amount(m.PendingFixed),
			amount(m.OpenInvoicesTotal),
			amount(m.NonFixedExpenseThisPeriod),
			amount(m.ProjectedNetProfit),
			strings.Join(m.Anomalies, "; "),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(AuditSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("writing month %d: %w", m.Month, err)
		}
	}

	return f, nil
}

// WriteAudit streams the audit workbook to w.
func WriteAudit(w io.Writer, report *services.AuditReport) error {
	f, err := AuditWorkbook(report)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   fmt.Sprintf("Financial audit %d", report.Year),
		Created: time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing audit workbook: %w", err)
	}
	return nil
}

func amount(cents int64) float64 {
	return money.ToDecimal(cents).InexactFloat64()
}
