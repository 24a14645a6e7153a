package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	agentdomain "github.com/smallbiznis/revbox/internal/agent/domain"
	carrierdomain "github.com/smallbiznis/revbox/internal/carrier/domain"
	"github.com/smallbiznis/revbox/internal/config"
	conflictdomain "github.com/smallbiznis/revbox/internal/conflict/domain"
	customfielddomain "github.com/smallbiznis/revbox/internal/customfield/domain"
	dashboarddomain "github.com/smallbiznis/revbox/internal/dashboard/domain"
	exportdomain "github.com/smallbiznis/revbox/internal/export/domain"
	obslogger "github.com/smallbiznis/revbox/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/revbox/internal/observability/metrics"
	obstracing "github.com/smallbiznis/revbox/internal/observability/tracing"
	payoutdomain "github.com/smallbiznis/revbox/internal/payout/domain"
	"github.com/smallbiznis/revbox/internal/ratelimit"
	recorddomain "github.com/smallbiznis/revbox/internal/record/domain"
	uploaddomain "github.com/smallbiznis/revbox/internal/upload/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Provide(NewServer),
	fx.Invoke(func(*Server) {}),
	fx.Invoke(run),
)

func NewEngine(httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		ErrorClassifier: classifyErrorForLog,
		QuietRoutes:     []string{"/health", "/metrics"},
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(cfg config.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	gin.SetMode(ginMode(cfg))
	return NewEngine(httpMetrics)
}

func ginMode(cfg config.Config) string {
	if cfg.IsProduction() {
		return gin.ReleaseMode
	}
	return gin.DebugMode
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
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
	engine         *gin.Engine
	cfg            config.Config
	log            *zap.Logger
	carrierSvc     carrierdomain.Service
	agentSvc       agentdomain.Service
	customFieldSvc customfielddomain.Service
	uploadSvc      uploaddomain.Service
	recordSvc      recorddomain.Service
	conflictSvc    conflictdomain.Service
	payoutSvc      payoutdomain.Service
	exportSvc      exportdomain.Service
	dashboardSvc   dashboarddomain.Service
	limiter        *ratelimit.Limiter
}

type ServerParams struct {
	fx.In

	Gin            *gin.Engine
	Cfg            config.Config
	Log            *zap.Logger
	CarrierSvc     carrierdomain.Service
	AgentSvc       agentdomain.Service
	CustomFieldSvc customfielddomain.Service
	UploadSvc      uploaddomain.Service
	RecordSvc      recorddomain.Service
	ConflictSvc    conflictdomain.Service
	PayoutSvc      payoutdomain.Service
	ExportSvc      exportdomain.Service
	DashboardSvc   dashboarddomain.Service
	Limiter        *ratelimit.Limiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:         p.Gin,
		cfg:            p.Cfg,
		log:            p.Log.Named("http"),
		carrierSvc:     p.CarrierSvc,
		agentSvc:       p.AgentSvc,
		customFieldSvc: p.CustomFieldSvc,
		uploadSvc:      p.UploadSvc,
		recordSvc:      p.RecordSvc,
		conflictSvc:    p.ConflictSvc,
		payoutSvc:      p.PayoutSvc,
		exportSvc:      p.ExportSvc,
		dashboardSvc:   p.DashboardSvc,
		limiter:        p.Limiter,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", UserContext())

	// -------- Carriers --------
	api.POST("/carriers", s.CreateCarrier)
	api.GET("/carriers", s.ListCarriers)
	api.GET("/carriers/:id", s.GetCarrierByID)
	api.PUT("/carriers/:id", s.UpdateCarrier)
	api.DELETE("/carriers/:id", s.DeleteCarrier)
	api.PUT("/carriers/:id/field-mappings", s.UpdateCarrierFieldMappings)
	api.POST("/carriers/:id/suggest-mappings", s.RateLimit(scopeSuggest), s.SuggestCarrierMappings)

	// -------- Custom Fields --------
	api.GET("/custom-fields", s.ListCustomFields)
	api.POST("/custom-fields", s.CreateCustomField)
	api.DELETE("/custom-fields/:name", s.DeleteCustomField)

	// -------- Agents --------
	api.POST("/agents", s.CreateAgent)
	api.GET("/agents", s.ListAgents)
	api.GET("/agents/:id", s.GetAgentByID)
	api.PUT("/agents/:id", s.UpdateAgent)
	api.DELETE("/agents/:id", s.DeleteAgent)

	// -------- Uploads --------
	api.POST("/uploads", s.RateLimit(scopeUpload), s.CreateUpload)
	api.POST("/uploads/preview", s.PreviewUpload)
	api.GET("/uploads", s.ListUploads)
	api.GET("/uploads/:id", s.GetUploadByID)
	api.DELETE("/uploads/:id", s.DeleteUpload)
	api.GET("/uploads/:id/records", s.ListUploadRecords)

	// -------- Records --------
	api.GET("/records", s.ListRecords)
	api.GET("/records/:id", s.GetRecordByID)
	api.PUT("/records/:id/validate", s.ValidateRecord)
	api.PUT("/records/:id/reject", s.RejectRecord)

	// -------- Conflicts --------
	api.GET("/conflicts", s.ListConflicts)
	api.GET("/conflicts/:id/details", s.GetConflictDetails)
	api.PUT("/conflicts/:id/resolve", s.ResolveConflict)

	// -------- Export --------
	api.GET("/export/approved", s.ExportApproved)

	// -------- Payouts --------
	api.POST("/payouts/generate", s.GeneratePayouts)
	api.GET("/payouts", s.ListPayouts)
	api.GET("/payouts/:id", s.GetPayoutByID)
	api.PUT("/payouts/:id/complete", s.CompletePayout)

	api.GET("/dashboard", s.GetDashboard)
}
