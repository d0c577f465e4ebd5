package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/anthropics/feishu-guardian/internal/biz/domain"
	"github.com/anthropics/feishu-guardian/internal/biz/repo"
	"github.com/anthropics/feishu-guardian/internal/biz/usecase"
	"github.com/anthropics/feishu-guardian/internal/conf"
)

// banTopDefault is how many users /bantop lists without an argument.
const banTopDefault = 4

// repeatBanBase is the base mute duration in minutes for repeat spam.
const repeatBanBase = 1

// RestrictionHandler drops group events outside the guarded group and
// group messages from ignored users. Private messages pass through.
type RestrictionHandler struct {
	GroupID string
	Rules   *conf.Rules
}

func (h *RestrictionHandler) Name() string { return "restriction" }

func (h *RestrictionHandler) Handle(ctx context.Context, ev *domain.ChatEvent) (bool, error) {
	switch ev.Kind {
	case domain.EventMemberJoined:
		return ev.GroupID != h.GroupID, nil
	case domain.EventGroupMessage:
		if ev.GroupID != h.GroupID {
			return true, nil
		}
		if h.Rules.IsIgnoredUser(ev.SenderID) {
			return true, nil
		}
	}
	return false, nil
}

// BanWordsHandler mutes non-admin senders of banned keywords, doubling the
// rule's base duration per prior offense within the decay window.
type BanWordsHandler struct {
	Rules   *conf.Rules
	Matcher *usecase.Matcher
	Ledger  *usecase.BanLedger
	Actions repo.MessageRepo
	Mutes   repo.MuteRepo
	Now     func() time.Time
}

func (h *BanWordsHandler) Name() string { return "banwords" }

func (h *BanWordsHandler) Handle(ctx context.Context, ev *domain.ChatEvent) (bool, error) {
	if ev.Kind != domain.EventGroupMessage || h.Rules.IsAdmin(ev.SenderID) {
		return false, nil
	}
	now := h.Now()
	for _, rule := range h.Rules.BannedWords {
		if !h.Matcher.Match(ev.Text, rule.Keywords) {
			continue
		}
		rec := h.Ledger.Get(ev.SenderID, now)
		minutes := usecase.NextDuration(rule.Duration, rec.Count)
		h.Ledger.RecordOffense(ev.SenderID, now)
		err := applyMute(ctx, h.Actions, h.Mutes, ev.GroupID, ev.SenderID, minutes, now)
		return true, err
	}
	return false, nil
}

// IgnoredWordsHandler silently claims group messages matching the ignored
// keyword list, keeping them away from FAQ and repeat handling.
type IgnoredWordsHandler struct {
	Rules   *conf.Rules
	Matcher *usecase.Matcher
}

func (h *IgnoredWordsHandler) Name() string { return "ignoredwords" }

func (h *IgnoredWordsHandler) Handle(ctx context.Context, ev *domain.ChatEvent) (bool, error) {
	if ev.Kind != domain.EventGroupMessage {
		return false, nil
	}
	return h.Matcher.Match(ev.Text, h.Rules.IgnoredWords), nil
}

// BanTopHandler answers the /bantop admin command with the current offense
// ranking. Works from group and private chats.
type BanTopHandler struct {
	Rules   *conf.Rules
	Ledger  *usecase.BanLedger
	Actions repo.MessageRepo
	Now     func() time.Time
}

func (h *BanTopHandler) Name() string { return "bantop" }

func (h *BanTopHandler) Handle(ctx context.Context, ev *domain.ChatEvent) (bool, error) {
	if !ev.IsMessage() || !h.Rules.IsAdmin(ev.SenderID) {
		return false, nil
	}
	fields := strings.Fields(ev.Text)
	if len(fields) == 0 || fields[0] != "/bantop" {
		return false, nil
	}

	n := banTopDefault
	if len(fields) > 1 {
		if parsed, err := strconv.Atoi(fields[1]); err == nil && parsed > 0 {
			n = parsed
		}
	}

	top := h.Ledger.TopN(n, h.Now())
	lines := make([]string, 0, len(top)+1)
	lines = append(lines, "**** Ban count ranking ****")
	for _, rec := range top {
		lines = append(lines, fmt.Sprintf("%s %d", domain.FormatMention(rec.UserID), rec.Count))
	}
	err := h.Actions.SendText(ctx, ev.ChatID, strings.Join(lines, "\n"))
	return true, err
}

// FaqHandler answers frequently asked questions in the group.
type FaqHandler struct {
	Faq     *usecase.FaqResponder
	Actions repo.MessageRepo
	Now     func() time.Time
}

func (h *FaqHandler) Name() string { return "faq" }

func (h *FaqHandler) Handle(ctx context.Context, ev *domain.ChatEvent) (bool, error) {
	if ev.Kind != domain.EventGroupMessage {
		return false, nil
	}
	reply, claimed := h.Faq.Evaluate(ev.Text, h.Now())
	if !claimed {
		return false, nil
	}
	if reply == "" {
		// Whitelisted or cooling down: claimed, but silent.
		return true, nil
	}
	return true, h.Actions.SendText(ctx, ev.ChatID, reply)
}

// RollHandler resolves the /roll command, open to all group members.
type RollHandler struct {
	Roll    *usecase.RollEvaluator
	Actions repo.MessageRepo
}

func (h *RollHandler) Name() string { return "roll" }

func (h *RollHandler) Handle(ctx context.Context, ev *domain.ChatEvent) (bool, error) {
	if ev.Kind != domain.EventGroupMessage {
		return false, nil
	}
	fields := strings.Fields(ev.Text)
	if len(fields) == 0 || fields[0] != "/roll" {
		return false, nil
	}

	// Mention placeholders are stripped before numeric parsing.
	args := strings.Fields(domain.StripMentions(ev.Text))[1:]
	result := h.Roll.Evaluate(args)
	err := h.Actions.SendTextWithMention(ctx, ev.ChatID, "[roll] "+result, ev.SenderID, ev.SenderName)
	return true, err
}

// RepeatHandler feeds group messages to the repeat detector and acts on
// its outcome: echo the repeated text, or mute a persistent spammer.
type RepeatHandler struct {
	Detector *usecase.RepeatDetector
	Rules    *conf.Rules
	Ledger   *usecase.BanLedger
	Actions  repo.MessageRepo
	Mutes    repo.MuteRepo
	Now      func() time.Time
}

func (h *RepeatHandler) Name() string { return "repeat" }

func (h *RepeatHandler) Handle(ctx context.Context, ev *domain.ChatEvent) (bool, error) {
	if ev.Kind != domain.EventGroupMessage {
		return false, nil
	}
	switch h.Detector.Observe(ev.Text, ev.SenderID, h.Rules.IsAdmin(ev.SenderID)) {
	case usecase.RepeatBanSuggested:
		now := h.Now()
		rec := h.Ledger.Get(ev.SenderID, now)
		minutes := usecase.NextDuration(repeatBanBase, rec.Count)
		h.Ledger.RecordOffense(ev.SenderID, now)
		// The mute does not claim the event; the chain keeps its course.
		return false, applyMute(ctx, h.Actions, h.Mutes, ev.GroupID, ev.SenderID, minutes, now)
	case usecase.RepeatEcho:
		// Echo the raw text, mention placeholders and all.
		return true, h.Actions.SendText(ctx, ev.ChatID, ev.Text)
	}
	return false, nil
}

// WelcomeHandler greets members joining the guarded group.
type WelcomeHandler struct {
	Rules   *conf.Rules
	Actions repo.MessageRepo
}

func (h *WelcomeHandler) Name() string { return "welcome" }

func (h *WelcomeHandler) Handle(ctx context.Context, ev *domain.ChatEvent) (bool, error) {
	if ev.Kind != domain.EventMemberJoined {
		return false, nil
	}
	err := h.Actions.SendTextWithMention(ctx, ev.ChatID, h.Rules.Welcome, ev.SenderID, ev.SenderName)
	return true, err
}

// applyMute issues the transport mute and records its expiry for the
// unmute sweep. The pipeline's decision stands even when the send fails.
func applyMute(ctx context.Context, actions repo.MessageRepo, mutes repo.MuteRepo, chatID, userID string, minutes int, now time.Time) error {
	d := time.Duration(minutes) * time.Minute
	if err := actions.MuteUser(ctx, chatID, userID, d); err != nil {
		return fmt.Errorf("mute %s: %w", userID, err)
	}
	if err := mutes.Add(ctx, domain.Mute{ChatID: chatID, UserID: userID, Until: now.Add(d)}); err != nil {
		return fmt.Errorf("record mute for %s: %w", userID, err)
	}
	return nil
}
