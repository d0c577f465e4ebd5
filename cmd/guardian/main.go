package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/anthropics/feishu-guardian/internal/biz/usecase"
	"github.com/anthropics/feishu-guardian/internal/conf"
	"github.com/anthropics/feishu-guardian/internal/data"
	"github.com/anthropics/feishu-guardian/internal/infra/feishu"
	"github.com/anthropics/feishu-guardian/internal/server"
	"github.com/anthropics/feishu-guardian/internal/service"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := conf.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	rules, err := conf.LoadRules(cfg.Guard.RulesPath)
	if err != nil {
		log.Fatalf("Invalid rules: %v", err)
	}
	fmt.Printf("[Guardian] Rules loaded: %d admins, %d banned-word rules, %d FAQ rules\n",
		len(rules.Admins), len(rules.BannedWords), len(rules.Faq))

	// Initialize clients and repositories
	feishuClient := feishu.NewClient(cfg.Feishu.AppID, cfg.Feishu.AppSecret)
	repos, err := data.NewRepositories(feishuClient, cfg.Storage.DBPath)
	if err != nil {
		log.Fatalf("Failed to create repositories: %v", err)
	}
	fmt.Printf("[Guardian] Database: %s\n", cfg.Storage.DBPath)

	// Restore the ban ledger from the last snapshot; a missing snapshot
	// just means an empty ledger.
	ledger := usecase.NewBanLedger()
	if records, err := repos.Ledger.Load(context.Background()); err != nil {
		fmt.Printf("[Guardian] Ledger load failed, starting empty: %v\n", err)
	} else {
		ledger.Restore(records)
		fmt.Printf("[Guardian] Ledger restored: %d records\n", len(records))
	}

	// Initialize usecases
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	matcher := usecase.NewMatcher()
	gate := usecase.NewRandomGate(rng)
	detector := usecase.NewRepeatDetector(rng, gate)
	faq := usecase.NewFaqResponder(rules.FaqRules(), matcher, rng)
	roller := usecase.NewRollEvaluator(rng)

	// Build the handler chain in priority order: first claim wins.
	pipeline := service.NewPipeline(
		&service.RestrictionHandler{GroupID: cfg.Guard.GroupID, Rules: rules},
		&service.BanWordsHandler{Rules: rules, Matcher: matcher, Ledger: ledger, Actions: repos.Message, Mutes: repos.Mutes, Now: time.Now},
		&service.IgnoredWordsHandler{Rules: rules, Matcher: matcher},
		&service.BanTopHandler{Rules: rules, Ledger: ledger, Actions: repos.Message, Now: time.Now},
		&service.FaqHandler{Faq: faq, Actions: repos.Message, Now: time.Now},
		&service.RollHandler{Roll: roller, Actions: repos.Message},
		&service.RepeatHandler{Detector: detector, Rules: rules, Ledger: ledger, Actions: repos.Message, Mutes: repos.Mutes, Now: time.Now},
		&service.WelcomeHandler{Rules: rules, Actions: repos.Message},
	)

	scheduler := service.NewScheduler(ledger, repos.Ledger, repos.Mutes, repos.Message)
	srv := server.NewGuardServer(feishuClient, pipeline, scheduler)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down...")
		srv.Stop()
		repos.Close()
		os.Exit(0)
	}()

	fmt.Printf("Starting Feishu Guardian for group %s...\n", cfg.Guard.GroupID)
	if err := srv.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
