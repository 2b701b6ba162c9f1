package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goatnetwork/covered-call/internal/config"
	"github.com/goatnetwork/covered-call/internal/metrics"
	"github.com/goatnetwork/covered-call/internal/state"
	log "github.com/sirupsen/logrus"
)

type HTTPServer struct {
	state   *state.State
	metrics *metrics.Metrics
	logger  *log.Entry

	enableAdmin bool
	adminSecret []byte
}

func NewHTTPServer(state *state.State, m *metrics.Metrics) *HTTPServer {
	return &HTTPServer{
		state:   state,
		metrics: m,
		logger:  log.WithFields(log.Fields{"module": "http"}),

		enableAdmin: config.AppConfig.EnableAdmin,
		adminSecret: config.AppConfig.AdminJwtSecret,
	}
}

func (hs *HTTPServer) Router() *gin.Engine {
	r := gin.Default()
	r.Use(requestID())

	api := r.Group("/api/v1")
	api.GET("/health", hs.handleHealth)
	api.GET("/covered-calls/derive", hs.handleDeriveCoveredCall)
	api.POST("/covered-calls", hs.handleInitializeCoveredCall)
	api.GET("/covered-calls", hs.handleListCoveredCalls)
	api.GET("/covered-calls/:address", hs.handleGetCoveredCall)
	api.GET("/token-accounts", hs.handleListTokenAccounts)
	api.GET("/token-accounts/:address", hs.handleGetTokenAccount)

	if hs.enableAdmin {
		admin := api.Group("/admin", adminAuth(hs.adminSecret))
		admin.POST("/mints", hs.handleCreateMint)
		admin.POST("/token-accounts", hs.handleOpenTokenAccount)
		admin.POST("/mint-to", hs.handleMintTo)
	}

	if hs.metrics != nil {
		r.GET("/metrics", gin.WrapH(hs.metrics.Handler()))
	}
	return r
}

func (hs *HTTPServer) Start(ctx context.Context) {
	addr := ":" + config.AppConfig.HTTPPort
	server := &http.Server{
		Addr:              addr,
		Handler:           hs.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.AppConfig.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			hs.logger.Errorf("HTTP server shutdown error: %v", err)
		}
	}()

	hs.logger.Infof("HTTP server is running on port %s", config.AppConfig.HTTPPort)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		hs.logger.Fatalf("Failed to start HTTP server: %v", err)
	}
	hs.logger.Info("HTTP server stopped")
}

func (hs *HTTPServer) handleHealth(c *gin.Context) {
	if err := hs.state.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "program_id": hs.state.Program().ID()})
}
