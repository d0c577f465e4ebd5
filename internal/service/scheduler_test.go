package service

import (
	"context"
	"testing"

	"github.com/anthropics/feishu-guardian/internal/biz/domain"
	"github.com/anthropics/feishu-guardian/internal/biz/usecase"
)

type mockLedgerRepo struct {
	saved [][]domain.BanRecord
}

func (m *mockLedgerRepo) Load(ctx context.Context) ([]domain.BanRecord, error) {
	return nil, nil
}

func (m *mockLedgerRepo) Save(ctx context.Context, records []domain.BanRecord) error {
	m.saved = append(m.saved, records)
	return nil
}

func TestSweepMutesLiftsExpired(t *testing.T) {
	actions := &mockMessageRepo{}
	mutes := &mockMuteRepo{expired: []domain.Mute{
		{ChatID: "oc_guarded", UserID: "ou_a", Until: fixedNow()},
		{ChatID: "oc_guarded", UserID: "ou_b", Until: fixedNow()},
	}}
	s := NewScheduler(usecase.NewBanLedger(), &mockLedgerRepo{}, mutes, actions)
	s.ctx = context.Background()

	s.sweepMutes()

	if len(actions.unmuted) != 2 {
		t.Fatalf("expected 2 unmutes, got %v", actions.unmuted)
	}
	if len(mutes.removed) != 2 {
		t.Errorf("expected 2 cleared records, got %v", mutes.removed)
	}
}

func TestSweepMutesKeepsFailedUnmute(t *testing.T) {
	actions := &mockMessageRepo{unmuteErrFor: "ou_a"}
	mutes := &mockMuteRepo{expired: []domain.Mute{
		{ChatID: "oc_guarded", UserID: "ou_a", Until: fixedNow()},
		{ChatID: "oc_guarded", UserID: "ou_b", Until: fixedNow()},
	}}
	s := NewScheduler(usecase.NewBanLedger(), &mockLedgerRepo{}, mutes, actions)
	s.ctx = context.Background()

	s.sweepMutes()

	// ou_a stays recorded and is retried on the next sweep.
	if len(mutes.removed) != 1 || mutes.removed[0] != "ou_b" {
		t.Errorf("only the lifted mute may be cleared, got %v", mutes.removed)
	}
}

func TestFlushPersistsLedger(t *testing.T) {
	ledger := usecase.NewBanLedger()
	ledger.RecordOffense("ou_a", fixedNow())
	ledgerRepo := &mockLedgerRepo{}
	s := NewScheduler(ledger, ledgerRepo, &mockMuteRepo{}, &mockMessageRepo{})

	s.Flush()

	if len(ledgerRepo.saved) != 1 || len(ledgerRepo.saved[0]) != 1 {
		t.Fatalf("expected one snapshot with one record, got %+v", ledgerRepo.saved)
	}
	if ledgerRepo.saved[0][0].UserID != "ou_a" {
		t.Errorf("wrong record persisted: %+v", ledgerRepo.saved[0])
	}
}
