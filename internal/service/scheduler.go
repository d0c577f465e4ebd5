package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/anthropics/feishu-guardian/internal/biz/repo"
	"github.com/anthropics/feishu-guardian/internal/biz/usecase"
)

// Scheduler runs the periodic maintenance loops: a once-per-clock-minute
// ledger snapshot and an unmute sweep on the same cadence. Both run
// independently of the event chain and never block it.
type Scheduler struct {
	ledger     *usecase.BanLedger
	ledgerRepo repo.LedgerRepo
	muteRepo   repo.MuteRepo
	actions    repo.MessageRepo

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a new maintenance scheduler
func NewScheduler(ledger *usecase.BanLedger, ledgerRepo repo.LedgerRepo, muteRepo repo.MuteRepo, actions repo.MessageRepo) *Scheduler {
	return &Scheduler{
		ledger:     ledger,
		ledgerRepo: ledgerRepo,
		muteRepo:   muteRepo,
		actions:    actions,
	}
}

// Start starts the scheduler loops
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(2)
	go s.snapshotLoop()
	go s.unmuteLoop()

	fmt.Println("[Scheduler] Started")
}

// Stop stops the scheduler and takes a final snapshot
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.Flush()
	fmt.Println("[Scheduler] Stopped")
}

// Flush persists the ledger immediately.
func (s *Scheduler) Flush() {
	if err := s.ledgerRepo.Save(context.Background(), s.ledger.Snapshot()); err != nil {
		fmt.Printf("[Scheduler] Final snapshot failed: %v\n", err)
	}
}

// snapshotLoop persists the ledger once per clock minute. A failed write
// is logged and retried on the next tick; it is never fatal.
func (s *Scheduler) snapshotLoop() {
	defer s.wg.Done()

	// Align the first snapshot to the next minute boundary.
	first := time.NewTimer(time.Until(time.Now().Truncate(time.Minute).Add(time.Minute)))
	defer first.Stop()
	select {
	case <-s.ctx.Done():
		return
	case <-first.C:
	}
	s.snapshot()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.snapshot()
		}
	}
}

func (s *Scheduler) snapshot() {
	records := s.ledger.Snapshot()
	if err := s.ledgerRepo.Save(s.ctx, records); err != nil {
		fmt.Printf("[Scheduler] Snapshot failed (%d records): %v\n", len(records), err)
		return
	}
}

// unmuteLoop lifts expired mutes. The initial sweep runs immediately so a
// restart lifts mutes that expired while the process was down.
func (s *Scheduler) unmuteLoop() {
	defer s.wg.Done()

	s.sweepMutes()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.sweepMutes()
		}
	}
}

func (s *Scheduler) sweepMutes() {
	expired, err := s.muteRepo.Expired(s.ctx, time.Now())
	if err != nil {
		fmt.Printf("[Scheduler] Failed to list expired mutes: %v\n", err)
		return
	}
	for _, m := range expired {
		if err := s.actions.UnmuteUser(s.ctx, m.ChatID, m.UserID); err != nil {
			fmt.Printf("[Scheduler] Failed to unmute %s: %v\n", m.UserID, err)
			continue
		}
		if err := s.muteRepo.Remove(s.ctx, m.ChatID, m.UserID); err != nil {
			fmt.Printf("[Scheduler] Failed to clear mute for %s: %v\n", m.UserID, err)
		}
		fmt.Printf("[Scheduler] Unmuted %s in %s\n", m.UserID, m.ChatID)
	}
}
