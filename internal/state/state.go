package state

import (
	"github.com/goatnetwork/covered-call/internal/db"
	"github.com/goatnetwork/covered-call/internal/ledger"
	"github.com/goatnetwork/covered-call/internal/metrics"
	"github.com/goatnetwork/covered-call/internal/program"
	log "github.com/sirupsen/logrus"
)

type State struct {
	EventBus *EventBus

	dbm     *db.DatabaseManager
	program *program.Program
	clock   ledger.Clock
	metrics *metrics.Metrics
	logger  *log.Entry

	// serializes initializations per escrow address, different escrows never wait
	escrowLocks *addressLocks
}

var (
	_ CoveredCallStore = (*State)(nil)
	_ LedgerAdmin      = (*State)(nil)
)

// InitializeState wires the state to the ledger database and logs what it already holds
func InitializeState(dbm *db.DatabaseManager, prog *program.Program, clock ledger.Clock, m *metrics.Metrics) *State {
	var (
		coveredCalls  int64
		tokenAccounts int64
		mints         int64
	)
	ledgerDb := dbm.GetLedgerDB()
	if err := ledgerDb.Model(&db.CoveredCall{}).Count(&coveredCalls).Error; err != nil {
		log.Warnf("Failed to count covered calls: %v", err)
	}
	if err := ledgerDb.Model(&db.TokenAccount{}).Count(&tokenAccounts).Error; err != nil {
		log.Warnf("Failed to count token accounts: %v", err)
	}
	if err := ledgerDb.Model(&db.Mint{}).Count(&mints).Error; err != nil {
		log.Warnf("Failed to count mints: %v", err)
	}

	log.Infof("State init on startup, program: %s, covered calls: %d, token accounts: %d, mints: %d",
		prog.ID(), coveredCalls, tokenAccounts, mints)

	return &State{
		EventBus: NewEventBus(),

		dbm:     dbm,
		program: prog,
		clock:   clock,
		metrics: m,
		logger:  log.WithFields(log.Fields{"module": "state"}),

		escrowLocks: newAddressLocks(),
	}
}

func (s *State) Program() *program.Program {
	return s.program
}

// Ping reports whether the ledger database is reachable.
func (s *State) Ping() error {
	return s.dbm.Ping()
}

// reader returns a ledger bound to the database outside any transaction.
func (s *State) reader() *ledger.Ledger {
	return ledger.New(s.dbm.GetLedgerDB(), s.clock)
}
