package usecase

import (
	"math/rand"
	"time"

	"github.com/anthropics/feishu-guardian/internal/biz/domain"
)

// faqState pairs a configured rule with its last trigger time.
type faqState struct {
	rule          domain.FaqRule
	lastTriggered time.Time
}

// FaqResponder answers frequently asked questions with canned replies,
// rate-limited per rule. Rules are evaluated in configured order and at
// most one rule fires per event.
type FaqResponder struct {
	matcher *Matcher
	rng     *rand.Rand
	rules   []*faqState
}

// NewFaqResponder creates a responder over the given rules
func NewFaqResponder(rules []domain.FaqRule, matcher *Matcher, rng *rand.Rand) *FaqResponder {
	r := &FaqResponder{matcher: matcher, rng: rng}
	for _, rule := range rules {
		r.rules = append(r.rules, &faqState{rule: rule})
	}
	return r
}

// Evaluate runs the rules in order against text. The first rule whose
// keywords match claims the event: claimed is true even when the whitelist
// suppresses the reply or the cooldown silences it, in which case reply is
// empty. Later rules never see a claimed event.
func (r *FaqResponder) Evaluate(text string, now time.Time) (reply string, claimed bool) {
	for _, st := range r.rules {
		if !r.matcher.Match(text, st.rule.Keywords) {
			continue
		}
		if r.matcher.Match(text, st.rule.Whitelist) {
			return "", true
		}
		if now.Sub(st.lastTriggered) < st.rule.Cooldown {
			return "", true
		}
		st.lastTriggered = now

		replies := st.rule.Replies
		if len(replies) == 0 {
			return "", true
		}
		return replies[r.rng.Intn(len(replies))], true
	}
	return "", false
}
