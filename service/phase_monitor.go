package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.vocdoni.io/dvote/log"

	"github.com/voteledger/ballotbox/ledger"
	"github.com/voteledger/ballotbox/types"
)

// PhaseMonitor watches the election clock and logs the Open to Closed
// transition once. The transition itself needs no trigger (the ledger
// derives the phase from the clock on every call); the monitor only gives
// operators a journal line the moment casting stops being possible.
type PhaseMonitor struct {
	ledger   *ledger.Ledger
	interval time.Duration
	mu       sync.Mutex
	cancel   context.CancelFunc
}

// NewPhaseMonitor creates a new PhaseMonitor service.
func NewPhaseMonitor(l *ledger.Ledger, interval time.Duration) *PhaseMonitor {
	return &PhaseMonitor{
		ledger:   l,
		interval: interval,
	}
}

// Start begins watching the phase. It returns an error if the service is
// already running.
func (pm *PhaseMonitor) Start(ctx context.Context) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if pm.cancel != nil {
		return fmt.Errorf("service already running")
	}
	ctx, cancel := context.WithCancel(ctx)
	pm.cancel = cancel

	go pm.watch(ctx)
	return nil
}

// Stop halts the monitoring service.
func (pm *PhaseMonitor) Stop() {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if pm.cancel != nil {
		pm.cancel()
		pm.cancel = nil
	}
}

func (pm *PhaseMonitor) watch(ctx context.Context) {
	if pm.ledger.Phase() == types.PhaseClosed {
		log.Infow("election already closed", "deadline", pm.ledger.Deadline())
		return
	}
	ticker := time.NewTicker(pm.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if pm.ledger.Phase() == types.PhaseClosed {
				log.Infow("election closed, casting disabled",
					"deadline", pm.ledger.Deadline())
				return
			}
		}
	}
}
