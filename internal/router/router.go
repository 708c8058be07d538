// Package router assembles the gin engine serving the agencyledger API.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"agencyledger/internal/clock"
	_ "agencyledger/internal/docs" // Import swagger docs
	"agencyledger/internal/handlers"
	"agencyledger/internal/middleware"
	"agencyledger/internal/services"
)

// Services is the set of domain services the API exposes.
type Services struct {
	Installments services.InstallmentServicer
	Invoices     services.InvoiceServicer
	Materializer services.MaterializerServicer
	Transactions services.TransactionServicer
	Reporting    services.ReportingServicer
	Audit        services.AuditServicer
	Activity     services.ActivityServicer
}

// Options configures authentication of the two route groups.
type Options struct {
	JWTSecret  string
	JobsAPIKey string
	Clock      clock.Clock
}

// New builds the engine. Bearer-authenticated routes live under /api/v1 and
// scheduler routes under /api/v1/jobs.
func New(svc Services, opts Options) *gin.Engine {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}

	installmentHandler := handlers.NewInstallmentHandler(svc.Installments)
	invoiceHandler := handlers.NewInvoiceHandler(svc.Invoices)
	materializationHandler := handlers.NewMaterializationHandler(svc.Materializer)
	transactionHandler := handlers.NewTransactionHandler(svc.Transactions)
	reportHandler := handlers.NewReportHandler(svc.Reporting, svc.Audit, opts.Clock)
	activityHandler := handlers.NewActivityHandler(svc.Activity)
	jobsHandler := handlers.NewJobsHandler(svc.Materializer, svc.Invoices, opts.Clock)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Scheduler routes, org travels in the body
	jobs := v1.Group("/jobs")
	jobs.Use(middleware.JobsAuthMiddleware(opts.JobsAPIKey))
	jobs.POST("/materialize-recurring-expenses", jobsHandler.MaterializeRecurringExpenses)
	jobs.POST("/materialize-cost-subscriptions", jobsHandler.MaterializeCostSubscriptions)
	jobs.POST("/generate-monthly-invoices", jobsHandler.GenerateMonthlyInvoices)
	jobs.POST("/reclassify-overdue", jobsHandler.ReclassifyOverdue)

	// Protected routes
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(opts.JWTSecret))

	contracts := protected.Group("/contracts")
	contracts.POST("/:id/installments", installmentHandler.ScheduleInstallments)
	contracts.GET("/:id/installments", installmentHandler.ListInstallments)
	contracts.DELETE("/:id/installments", installmentHandler.DeleteInstallmentSchedule)

	invoices := protected.Group("/invoices")
	invoices.POST("", invoiceHandler.CreateInvoice)
	invoices.GET("", invoiceHandler.ListInvoices)
	invoices.GET("/:id", invoiceHandler.GetInvoice)
	invoices.POST("/:id/issue", invoiceHandler.IssueInvoice)
	invoices.POST("/:id/approve-payment", invoiceHandler.ApprovePayment)
	invoices.POST("/:id/cancel", invoiceHandler.CancelInvoice)
	invoices.DELETE("/:id", invoiceHandler.DeleteInvoice)

	protected.POST("/recurring-expenses/:id/materialize", materializationHandler.MaterializeRecurringExpense)
	protected.POST("/cost-subscriptions/:id/materialize", materializationHandler.MaterializeCostSubscription)

	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.ListTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	reports := protected.Group("/reports")
	reports.GET("/dashboard", reportHandler.GetDashboard)
	reports.GET("/client-margins", reportHandler.GetClientMargins)
	reports.GET("/audit", reportHandler.GetAudit)
	reports.GET("/audit/export", reportHandler.ExportAudit)

	protected.GET("/activity", activityHandler.ListActivity)

	return router
}
