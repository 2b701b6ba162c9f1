package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/goatnetwork/covered-call/internal/config"
	"github.com/goatnetwork/covered-call/internal/db"
	"github.com/goatnetwork/covered-call/internal/http"
	"github.com/goatnetwork/covered-call/internal/ledger"
	"github.com/goatnetwork/covered-call/internal/metrics"
	"github.com/goatnetwork/covered-call/internal/program"
	"github.com/goatnetwork/covered-call/internal/rpc"
	"github.com/goatnetwork/covered-call/internal/state"
	log "github.com/sirupsen/logrus"
)

type Application struct {
	DatabaseManager *db.DatabaseManager
	State           *state.State
	HTTPServer      *http.HTTPServer
	HealthServer    *rpc.HealthServer
	AuditLogger     *state.AuditLogger
}

func NewApplication() *Application {
	config.InitConfig()

	dbm := db.NewDatabaseManager()
	m := metrics.NewMetrics()
	st := state.InitializeState(dbm, program.NewProgram(config.AppConfig.ProgramID), ledger.NewSystemClock(), m)
	httpServer := http.NewHTTPServer(st, m)
	healthServer := rpc.NewHealthServer(st)
	auditLogger := state.NewAuditLogger(st.EventBus)

	return &Application{
		DatabaseManager: dbm,
		State:           st,
		HTTPServer:      httpServer,
		HealthServer:    healthServer,
		AuditLogger:     auditLogger,
	}
}

func (app *Application) Run() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.AuditLogger.Start(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.HTTPServer.Start(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.HealthServer.Start(ctx)
	}()

	<-stop
	log.Info("Receiving exit signal...")

	cancel()

	wg.Wait()
	if err := app.DatabaseManager.Close(); err != nil {
		log.Errorf("Failed to close ledger database: %v", err)
	}
	log.Info("Server stopped")
}

func main() {
	app := NewApplication()
	app.Run()
}
