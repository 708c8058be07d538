package handlers

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"agencyledger/internal/clock"
	apperrors "agencyledger/internal/errors"
	"agencyledger/internal/export"
	"agencyledger/internal/services"
)

// ReportHandler serves dashboards, margins and audits.
type ReportHandler struct {
	reportingService services.ReportingServicer
	auditService     services.AuditServicer
	clock            clock.Clock
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportingService services.ReportingServicer, auditService services.AuditServicer, clk clock.Clock) *ReportHandler {
	return &ReportHandler{
		reportingService: reportingService,
		auditService:     auditService,
		clock:            clk,
	}
}

func parseWindowQuery(c *gin.Context) (from, to *time.Time, err error) {
	if from, err = parseOptionalTime(c, "date_from"); err != nil {
		return nil, nil, err
	}
	if to, err = parseOptionalTime(c, "date_to"); err != nil {
		return nil, nil, err
	}
	return from, endOfDay(to, c.Query("date_to")), nil
}

// GetDashboard handles the organization dashboard
// @Summary     Dashboard
// @Description Financial summary, invoice summary, overdue list, top clients and projections for the window. Defaults to the current month.
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       date_from query string false "Window start (RFC3339 or YYYY-MM-DD)"
// @Param       date_to   query string false "Window end, inclusive (RFC3339 or YYYY-MM-DD)"
// @Success     200 {object} services.Dashboard "Dashboard"
// @Failure     400 {object} ErrorResponse "Invalid report window"
// @Router      /reports/dashboard [get]
func (h *ReportHandler) GetDashboard(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	from, to, err := parseWindowQuery(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	dashboard, err := h.reportingService.GetDashboard(requestContext(c), orgID, from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// GetClientMargins handles per-client profitability
// @Summary     Client margins
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       date_from query string false "Window start (RFC3339 or YYYY-MM-DD)"
// @Param       date_to   query string false "Window end, inclusive (RFC3339 or YYYY-MM-DD)"
// @Success     200 {array}  services.ClientMargin "Margins, best first"
// @Failure     400 {object} ErrorResponse "Invalid report window"
// @Router      /reports/client-margins [get]
func (h *ReportHandler) GetClientMargins(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	from, to, err := parseWindowQuery(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	margins, err := h.reportingService.GetClientMargins(requestContext(c), orgID, from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"margins": margins})
}

func (h *ReportHandler) runAudit(c *gin.Context) (*services.AuditReport, error) {
	orgID, err := getOrgID(c)
	if err != nil {
		return nil, err
	}

	year := h.clock.Now().Year()
	if v := c.Query("year"); v != "" {
		if year, err = strconv.Atoi(v); err != nil {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid year")
		}
	}
	months, err := parseMonths(c.Query("months"))
	if err != nil {
		return nil, err
	}

	return h.auditService.AuditFinancial(requestContext(c), orgID, year, months)
}

// GetAudit handles the monthly reconciliation pass
// @Summary     Financial audit
// @Description Recompute each requested month independently and flag anomalies. Read-only.
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       year   query int    false "Year (defaults to the current year)"
// @Param       months query string false "Comma-separated months, e.g. 1,2,3 (defaults to all)"
// @Success     200 {object} services.AuditReport "Audit results"
// @Failure     400 {object} ErrorResponse "Invalid year or months"
// @Router      /reports/audit [get]
func (h *ReportHandler) GetAudit(c *gin.Context) {
	report, err := h.runAudit(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// ExportAudit handles downloading the audit as a spreadsheet
// @Summary     Export financial audit
// @Tags        reports
// @Produce     application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security    BearerAuth
// @Param       year   query int    false "Year (defaults to the current year)"
// @Param       months query string false "Comma-separated months (defaults to all)"
// @Success     200 {file}   file "XLSX workbook"
// @Failure     400 {object} ErrorResponse "Invalid year or months"
// @Router      /reports/audit/export [get]
func (h *ReportHandler) ExportAudit(c *gin.Context) {
	report, err := h.runAudit(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteAudit(&buf, report); err != nil {
		respondWithError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+export.AuditFileName(report.Year))
	c.Data(http.StatusOK, export.ContentTypeXLSX, buf.Bytes())
}
