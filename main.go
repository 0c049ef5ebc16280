package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/blackhouse/concursobot/bank"
	"github.com/blackhouse/concursobot/bot"
	"github.com/blackhouse/concursobot/config"
	"github.com/blackhouse/concursobot/database"
	"github.com/blackhouse/concursobot/history"
	"github.com/blackhouse/concursobot/provider"
	"github.com/blackhouse/concursobot/quiz"
	"github.com/blackhouse/concursobot/schedule"
)

func main() {
	// Configure logging
	log.SetOutput(os.Stdout)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("Starting Black House Bot...")

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("Failed to load timezone %q: %v", cfg.Timezone, err)
	}

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Load the fallback question bank
	fallback, err := bank.Load()
	if err != nil {
		log.Fatalf("Failed to load question bank: %v", err)
	}
	log.Printf("Loaded %d fallback questions", fallback.Len())

	// Wire the batch assembly engine
	cache := history.New(cfg.HistoryLimit, db)
	client := provider.NewClient(cfg.APIBaseURL, cfg.FetchTimeout)
	fetcher := provider.NewFetcher(client, cfg.MaxAttempts, cfg.BackoffBase)
	service := quiz.NewService(fetcher, cache, fallback)

	// Initialize the bot
	b, err := bot.New(cfg, db, service, schedule.DefaultTopics)
	if err != nil {
		log.Fatalf("Failed to initialize bot: %v", err)
	}

	// Start the daily rotation
	scheduler := schedule.New(schedule.DefaultRotation, schedule.DefaultSlots, loc, b)
	go scheduler.Run(context.Background())

	log.Println("Bot initialized successfully")
	b.Start()
}
