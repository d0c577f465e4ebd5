package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/anthropics/feishu-guardian/internal/biz/domain"
)

// DefaultBanDuration is the base mute duration in minutes when a
// banned-word rule does not configure one.
const DefaultBanDuration = 10

// DefaultFaqInterval is the FAQ cooldown in seconds when a rule does not
// configure one.
const DefaultFaqInterval = 60

// DefaultWelcome greets members joining the group.
const DefaultWelcome = "Welcome to the group! Please introduce yourself."

// Rules is the static moderation rule set loaded once at startup.
type Rules struct {
	Admins       []string         `yaml:"admins"`
	BannedWords  []BannedWordRule `yaml:"banned_words"`
	IgnoredWords []string         `yaml:"ignored_words"`
	IgnoredUsers []string         `yaml:"ignored_users"`
	Welcome      string           `yaml:"welcome"`
	Faq          []FaqRuleConfig  `yaml:"faq"`

	admins       map[string]struct{}
	ignoredUsers map[string]struct{}
}

// BannedWordRule mutes the sender when any keyword matches.
type BannedWordRule struct {
	Keywords []string `yaml:"keywords"`
	Duration int      `yaml:"duration"` // base mute duration in minutes
}

// FaqRuleConfig is the on-disk shape of one FAQ rule. Reply takes a single
// string; Replies takes a list picked from at random. Exactly one of the
// two must be set.
type FaqRuleConfig struct {
	Keywords  []string `yaml:"keywords"`
	Whitelist []string `yaml:"whitelist"`
	Reply     string   `yaml:"reply"`
	Replies   []string `yaml:"replies"`
	Interval  int      `yaml:"interval"` // cooldown in seconds
}

// LoadRules loads and validates the rule document from YAML.
// An invalid document is fatal at startup; the process must not run with
// a broken rule set.
func LoadRules(configPath string) (*Rules, error) {
	paths := []string{configPath}
	if configPath == "" {
		paths = []string{
			"configs/rules.yaml",
			"./configs/rules.yaml",
			"/etc/feishu-guardian/rules.yaml",
		}
		if execPath, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Join(filepath.Dir(execPath), "configs", "rules.yaml"))
		}
	}

	var data []byte
	var err error
	var used string
	for _, p := range paths {
		if p == "" {
			continue
		}
		data, err = os.ReadFile(p)
		if err == nil {
			used = p
			break
		}
	}
	if used == "" {
		return nil, fmt.Errorf("no rules file found (tried %v): %w", paths, err)
	}

	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", used, err)
	}
	if err := rules.validate(); err != nil {
		return nil, fmt.Errorf("invalid rules in %s: %w", used, err)
	}
	rules.applyDefaults()
	return &rules, nil
}

// ParseRules parses and validates an in-memory rule document.
func ParseRules(data []byte) (*Rules, error) {
	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	if err := rules.validate(); err != nil {
		return nil, err
	}
	rules.applyDefaults()
	return &rules, nil
}

func (r *Rules) validate() error {
	for i, b := range r.BannedWords {
		if len(b.Keywords) == 0 {
			return &ConfigError{Field: fmt.Sprintf("banned_words[%d].keywords", i), Message: "required"}
		}
		if b.Duration < 0 {
			return &ConfigError{Field: fmt.Sprintf("banned_words[%d].duration", i), Message: "must not be negative"}
		}
	}
	for i, f := range r.Faq {
		if len(f.Keywords) == 0 {
			return &ConfigError{Field: fmt.Sprintf("faq[%d].keywords", i), Message: "required"}
		}
		if f.Reply == "" && len(f.Replies) == 0 {
			return &ConfigError{Field: fmt.Sprintf("faq[%d].reply", i), Message: "reply or replies required"}
		}
		if f.Reply != "" && len(f.Replies) > 0 {
			return &ConfigError{Field: fmt.Sprintf("faq[%d].reply", i), Message: "reply and replies are mutually exclusive"}
		}
		if f.Interval < 0 {
			return &ConfigError{Field: fmt.Sprintf("faq[%d].interval", i), Message: "must not be negative"}
		}
	}
	return nil
}

func (r *Rules) applyDefaults() {
	for i := range r.BannedWords {
		if r.BannedWords[i].Duration == 0 {
			r.BannedWords[i].Duration = DefaultBanDuration
		}
	}
	if r.Welcome == "" {
		r.Welcome = DefaultWelcome
	}
	r.admins = make(map[string]struct{}, len(r.Admins))
	for _, a := range r.Admins {
		r.admins[a] = struct{}{}
	}
	r.ignoredUsers = make(map[string]struct{}, len(r.IgnoredUsers))
	for _, u := range r.IgnoredUsers {
		r.ignoredUsers[u] = struct{}{}
	}
}

// IsAdmin reports whether user is an administrator.
func (r *Rules) IsAdmin(user string) bool {
	_, ok := r.admins[user]
	return ok
}

// IsIgnoredUser reports whether user is excluded from moderation.
func (r *Rules) IsIgnoredUser(user string) bool {
	_, ok := r.ignoredUsers[user]
	return ok
}

// FaqRules converts the on-disk FAQ configuration into domain rules,
// applying the default cooldown.
func (r *Rules) FaqRules() []domain.FaqRule {
	out := make([]domain.FaqRule, 0, len(r.Faq))
	for _, f := range r.Faq {
		replies := f.Replies
		if f.Reply != "" {
			replies = []string{f.Reply}
		}
		cooldown := time.Duration(f.Interval) * time.Second
		if f.Interval == 0 {
			cooldown = domain.DefaultFaqCooldown
		}
		out = append(out, domain.FaqRule{
			Keywords:  f.Keywords,
			Whitelist: f.Whitelist,
			Replies:   replies,
			Cooldown:  cooldown,
		})
	}
	return out
}
