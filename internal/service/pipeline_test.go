package service

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/anthropics/feishu-guardian/internal/biz/domain"
	"github.com/anthropics/feishu-guardian/internal/biz/usecase"
)

type stubHandler struct {
	name    string
	claim   bool
	err     error
	handled int
}

func (h *stubHandler) Name() string { return h.name }

func (h *stubHandler) Handle(ctx context.Context, ev *domain.ChatEvent) (bool, error) {
	h.handled++
	return h.claim, h.err
}

func TestDispatchStopsAtFirstClaim(t *testing.T) {
	first := &stubHandler{name: "first"}
	second := &stubHandler{name: "second", claim: true}
	third := &stubHandler{name: "third"}
	p := NewPipeline(first, second, third)

	p.Dispatch(context.Background(), groupMsg("ou_u1", "hi"))

	if first.handled != 1 || second.handled != 1 {
		t.Errorf("first two handlers must run: %d, %d", first.handled, second.handled)
	}
	if third.handled != 0 {
		t.Errorf("handler after the claim must not run, ran %d times", third.handled)
	}
}

func TestDispatchContinuesPastErrors(t *testing.T) {
	failing := &stubHandler{name: "failing", err: errors.New("send failed")}
	last := &stubHandler{name: "last"}
	p := NewPipeline(failing, last)

	p.Dispatch(context.Background(), groupMsg("ou_u1", "hi"))

	if last.handled != 1 {
		t.Error("an unclaimed error must not stop the chain")
	}
}

// TestChainPriority wires the full production chain and checks that an
// ignored keyword shadows a FAQ keyword in the same text.
func TestChainPriority(t *testing.T) {
	rules := testRules(t)
	actions := &mockMessageRepo{}
	matcher := usecase.NewMatcher()
	faq := usecase.NewFaqResponder(rules.FaqRules(), matcher, rand.New(rand.NewSource(1)))

	p := NewPipeline(
		&RestrictionHandler{GroupID: "oc_guarded", Rules: rules},
		&IgnoredWordsHandler{Rules: rules, Matcher: matcher},
		&FaqHandler{Faq: faq, Actions: actions, Now: fixedNow},
	)

	p.Dispatch(context.Background(), groupMsg("ou_u1", "[recalled] when release?"))
	if len(actions.texts) != 0 {
		t.Errorf("ignored word must shadow the FAQ reply, got %+v", actions.texts)
	}

	p.Dispatch(context.Background(), groupMsg("ou_u1", "when release?"))
	if len(actions.texts) != 1 {
		t.Errorf("clean FAQ hit must get a reply, got %d sends", len(actions.texts))
	}
}
