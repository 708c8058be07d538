package jobs

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"agencyledger/internal/services"
)

// JobClient defines the API operations the runner drives.
type JobClient interface {
	MaterializeRecurringExpenses(ctx context.Context, orgID string) (*services.MaterializeBatchReport, error)
	MaterializeCostSubscriptions(ctx context.Context, orgID string) (*services.MaterializeBatchReport, error)
	GenerateMonthlyInvoices(ctx context.Context, orgID, period string) (*services.GenerationReport, error)
	ReclassifyOverdue(ctx context.Context, orgID string) (*services.ReclassifyResult, error)
}

// Failure is one job that failed for one organization, either because the
// call failed or because the batch reported unit errors.
type Failure struct {
	OrgID  string
	Job    string
	Reason string
}

// RunResult contains the outcome of a runner pass.
type RunResult struct {
	Orgs               int
	TransactionsBooked int
	InvoicesGenerated  int
	InvoicesOverdue    int64
	Failures           []Failure
	Duration           time.Duration
}

// Runner calls every job for every configured organization.
type Runner struct {
	client JobClient
	log    *zap.SugaredLogger
}

// NewRunner creates a new Runner.
func NewRunner(client JobClient, log *zap.SugaredLogger) *Runner {
	return &Runner{client: client, log: log}
}

// Run executes the jobs for each organization in order. A failing job never
// stops the remaining jobs or organizations.
func (r *Runner) Run(ctx context.Context, orgIDs []string, period string) *RunResult {
	start := time.Now()
	result := &RunResult{Orgs: len(orgIDs)}

	for _, orgID := range orgIDs {
		if ctx.Err() != nil {
			result.Failures = append(result.Failures, Failure{OrgID: orgID, Job: "all", Reason: ctx.Err().Error()})
			continue
		}
		r.runOrg(ctx, orgID, period, result)
	}

	result.Duration = time.Since(start)
	return result
}

func (r *Runner) runOrg(ctx context.Context, orgID, period string, result *RunResult) {
	fail := func(job, reason string) {
		r.log.Warnw("job failed", "org_id", orgID, "job", job, "reason", reason)
		result.Failures = append(result.Failures, Failure{OrgID: orgID, Job: job, Reason: reason})
	}

	materialize := []struct {
		job string
		fn  func(context.Context, string) (*services.MaterializeBatchReport, error)
	}{
		{"materialize-recurring-expenses", r.client.MaterializeRecurringExpenses},
		{"materialize-cost-subscriptions", r.client.MaterializeCostSubscriptions},
	}
	for _, m := range materialize {
		report, err := m.fn(ctx, orgID)
		if err != nil {
			fail(m.job, err.Error())
			continue
		}
		result.TransactionsBooked += len(report.Success)
		if len(report.Errors) > 0 {
			fail(m.job, fmt.Sprintf("%d obligation(s) failed", len(report.Errors)))
		}
		r.log.Infow("job completed", "org_id", orgID, "job", m.job,
			"created", len(report.Success), "skipped", len(report.Skipped), "errors", len(report.Errors))
	}

	generated, err := r.client.GenerateMonthlyInvoices(ctx, orgID, period)
	if err != nil {
		fail("generate-monthly-invoices", err.Error())
	} else {
		result.InvoicesGenerated += generated.SuccessCount
		if generated.ErrorCount > 0 {
			fail("generate-monthly-invoices", fmt.Sprintf("%d client(s) failed", generated.ErrorCount))
		}
		r.log.Infow("job completed", "org_id", orgID, "job", "generate-monthly-invoices", "period", generated.Period,
			"generated", generated.SuccessCount, "blocked", generated.BlockedCount, "errors", generated.ErrorCount)
	}

	reclassified, err := r.client.ReclassifyOverdue(ctx, orgID)
	if err != nil {
		fail("reclassify-overdue", err.Error())
		return
	}
	result.InvoicesOverdue += reclassified.InvoicesMarkedOverdue
	r.log.Infow("job completed", "org_id", orgID, "job", "reclassify-overdue",
		"invoices_overdue", reclassified.InvoicesMarkedOverdue, "installments_late", reclassified.InstallmentsMarkedLate)
}
