package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"support-bot/audit"
	"support-bot/bot"
	"support-bot/config"
	"support-bot/handlers"
	"support-bot/lang"
	"support-bot/storage"
)

func main() {
	configPath := flag.String("config", "config/supportbot.yml", "path to the bot configuration file")
	messagesPath := flag.String("messages", "config/messages.yml", "path to the message templates file")
	cleanup := flag.Bool("cleanup", false, "remove all registered slash commands and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	lang.Load(*messagesPath)

	storage.Cfg = cfg
	if err := storage.Init(cfg); err != nil {
		log.Fatalf("Failed to initialise storage: %v", err)
	}

	// Stats are optional; a bad database config degrades to a warning.
	if err := storage.InitDB(&cfg.Storage.Database); err != nil {
		log.Printf("[DB] Init failed: %v — review stats will be unavailable", err)
	}

	b, err := bot.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	handlers.Register(b.Session)
	handlers.RegisterMessageLog(b.Session)

	if err := b.Start(); err != nil {
		log.Fatalf("Failed to connect to Discord: %v", err)
	}
	defer b.Stop()

	handlers.Auditor = audit.New(b.Session, cfg)
	defer handlers.Auditor.Shutdown()

	if storage.DB != nil {
		defer storage.DB.Close()
	}

	if *cleanup {
		b.CleanupCommands(nil)
		return
	}
	b.RegisterCommands(handlers.Commands(cfg))

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("Shutting down")
}
