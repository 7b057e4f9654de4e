package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/user7217/oxygentracker/internal/clock"
	"github.com/user7217/oxygentracker/internal/config"
	"github.com/user7217/oxygentracker/internal/customer"
	customerdomain "github.com/user7217/oxygentracker/internal/customer/domain"
	"github.com/user7217/oxygentracker/internal/cylinder"
	cylinderdomain "github.com/user7217/oxygentracker/internal/cylinder/domain"
	"github.com/user7217/oxygentracker/internal/importer"
	"github.com/user7217/oxygentracker/internal/organization"
	organizationdomain "github.com/user7217/oxygentracker/internal/organization/domain"
	"github.com/user7217/oxygentracker/internal/providers"
	"github.com/user7217/oxygentracker/internal/providers/pdf"
	"github.com/user7217/oxygentracker/internal/rentalhistory"
	historydomain "github.com/user7217/oxygentracker/internal/rentalhistory/domain"
	"github.com/user7217/oxygentracker/internal/scheduler"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	customer.Module,
	cylinder.Module,
	rentalhistory.Module,
	organization.Module,
	importer.Module,
	providers.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	log             *zap.Logger
	clock           clock.Clock
	customerSvc     customerdomain.Service
	cylinderSvc     cylinderdomain.Service
	historySvc      historydomain.Service
	organizationSvc organizationdomain.Service
	pipeline        *importer.Pipeline
	policy          *config.ImportPolicyHolder
	pdfProvider     pdf.Provider
	sched           *scheduler.Scheduler
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	Log             *zap.Logger
	Clock           clock.Clock
	CustomerSvc     customerdomain.Service
	CylinderSvc     cylinderdomain.Service
	HistorySvc      historydomain.Service
	OrganizationSvc organizationdomain.Service
	Pipeline        *importer.Pipeline
	Policy          *config.ImportPolicyHolder
	PDFProvider     pdf.Provider
	Sched           *scheduler.Scheduler `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		log:             p.Log.Named("http"),
		clock:           p.Clock,
		customerSvc:     p.CustomerSvc,
		cylinderSvc:     p.CylinderSvc,
		historySvc:      p.HistorySvc,
		organizationSvc: p.OrganizationSvc,
		pipeline:        p.Pipeline,
		policy:          p.Policy,
		pdfProvider:     p.PDFProvider,
		sched:           p.Sched,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	// Organization management sits outside the org-scoped group.
	orgs := s.engine.Group("/api/organizations")
	orgs.GET("", s.ListOrganizations)
	orgs.POST("", s.CreateOrganization)
	orgs.GET("/:id", s.GetOrganizationByID)

	api := s.engine.Group("/api", s.OrgContext())

	// -------- Customers --------
	api.GET("/customers", s.ListCustomers)
	api.POST("/customers", s.CreateCustomer)
	api.GET("/customers/:id", s.GetCustomerByID)
	api.PATCH("/customers/:id", s.UpdateCustomer)
	api.DELETE("/customers/:id", s.DeleteCustomer)
	api.GET("/customers/:id/receipt", s.CustomerRentalReceipt)

	// -------- Cylinders --------
	api.GET("/cylinders", s.ListCylinders)
	api.POST("/cylinders", s.CreateCylinder)
	api.GET("/cylinders/:id", s.GetCylinderByID)
	api.PATCH("/cylinders/:id", s.UpdateCylinder)
	api.DELETE("/cylinders/:id", s.DeleteCylinder)
	api.POST("/cylinders/:id/rent", s.RentCylinder)
	api.POST("/cylinders/:id/return", s.ReturnCylinder)

	// -------- Rental history --------
	api.GET("/rental-history", s.ListRentalHistory)
	api.POST("/rental-history/prune", s.PruneRentalHistory)

	// -------- Imports --------
	api.POST("/imports/inspect", s.InspectImportSource)
	api.POST("/imports/run", s.RunImport)

	// -------- Exports --------
	api.GET("/exports/customers.csv", s.ExportCustomersCSV)
	api.GET("/exports/cylinders.csv", s.ExportCylindersCSV)
	api.GET("/exports/rental-history.csv", s.ExportRentalHistoryCSV)
	api.GET("/exports/cylinders.xlsx", s.ExportCylindersXLSX)
	api.GET("/exports/customers.xlsx", s.ExportCustomersXLSX)
	api.GET("/exports/rental-history.xlsx", s.ExportRentalHistoryXLSX)

	// -------- Admin --------
	api.POST("/admin/overdue-report", s.TriggerOverdueReport)
}
