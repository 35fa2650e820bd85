package main

import (
	"context"
	"log/slog"
	"offblog/internal/bot"
	"offblog/internal/config"
	"offblog/internal/database"
	"offblog/internal/domain"
	"offblog/internal/importer"
	"offblog/internal/reconcile"
	"offblog/internal/remote"
	"offblog/internal/scheduler"
	"offblog/internal/summarizer"
	"offblog/internal/writer"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

func main() {
	cfg := config.LoadConfig()

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(log)

	start := time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(ctx, cfg.DBPath, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize db",
			"error", err,
			"dbPath", cfg.DBPath)

		return
	}
	defer func() {
		if err = db.Close(); err != nil {
			log.ErrorContext(ctx, "Failed to close db",
				"error", err,
				"dbPath", cfg.DBPath)
		}
	}()
	log.InfoContext(ctx, "DB is initialized",
		"dbPath", cfg.DBPath)

	client := remote.NewClient(cfg.RemoteURL, cfg.RemoteTimeout, log)
	source := remote.NewCachedSource(client, cfg.ListingCacheTTL)
	log.InfoContext(ctx, "Remote source is initialized",
		"remoteURL", cfg.RemoteURL,
		"timeout", cfg.RemoteTimeout,
		"listingCacheTTL", cfg.ListingCacheTTL)

	authors := domain.NewAuthors(cfg.Authors, cfg.AuthorAvatars)
	checkDefaultAuthor(ctx, client, cfg.DefaultAuthorID, log)

	postWriter := writer.New(source, db, source, authors, log)
	syncer := writer.NewSyncer(source, db, source, log)

	services := bot.Services{
		Loader:     reconcile.NewLoader(source, db, log),
		Creator:    postWriter,
		Deleter:    writer.NewDeleter(source, db, source, log),
		Syncer:     syncer,
		Importer:   importer.New(postWriter, log),
		Summarizer: summarizer.NewTLDR(initOpenAISummarizer(ctx, cfg.OpenAIAPIKey, log), log),
		Authors:    authors,
	}

	botInst, err := bot.New(cfg.Token, services, bot.Options{
		AllowedUsers:    cfg.AllowedUsers,
		DefaultAuthorID: cfg.DefaultAuthorID,
		NavigateDelay:   cfg.NavigateDelay,
	}, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize bot",
			"error", err,
			"allowedUsersCount", len(cfg.AllowedUsers))

		return
	}
	log.InfoContext(ctx, "Bot is initialized",
		"allowedUsersCount", len(cfg.AllowedUsers))

	sched := scheduler.New(ctx, cfg.SyncSpec, syncer, log)

	if err = sched.Start(); err != nil {
		log.ErrorContext(ctx, "Failed to start scheduler",
			"error", err,
			"spec", cfg.SyncSpec,
			"timezone", time.FixedZone(scheduler.Timezone, scheduler.TimezoneOffsetSeconds).String())

		return
	}
	defer sched.Stop()
	log.InfoContext(ctx, "Scheduler is started",
		"spec", cfg.SyncSpec,
		"timezone", time.FixedZone(scheduler.Timezone, scheduler.TimezoneOffsetSeconds).String())

	go func() {
		botInst.Start(ctx)
	}()
	log.InfoContext(ctx, "Bot is started",
		"updateTimeoutSeconds", bot.BotUpdateTimeout)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	sig := <-c
	log.InfoContext(ctx, "Shutdown signal is received",
		"signal", sig.String())
	cancel()

	log.InfoContext(ctx, "Exiting...",
		"signal", sig.String(),
		"uptimeSeconds", time.Since(start).Seconds())

	botInst.Stop()
	log.InfoContext(ctx, "Bot is stopped",
		"uptimeSeconds", time.Since(start).Seconds())
}

// checkDefaultAuthor asks the blog server whether the default author exists.
// The result is only logged: the server may be down at startup.
func checkDefaultAuthor(ctx context.Context, client *remote.Client, authorID string, log *slog.Logger) {
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	author, err := client.FetchAuthor(checkCtx, authorID)
	switch {
	case err != nil:
		log.WarnContext(ctx, "Failed to check default author",
			"error", err,
			"authorID", authorID,
			"kind", remote.Classify(err).String())
	case author == nil:
		log.WarnContext(ctx, "Default author is unknown to the blog server",
			"authorID", authorID)
	default:
		log.InfoContext(ctx, "Default author is found",
			"authorID", author.ID,
			"authorName", author.Name)
	}
}

func initOpenAISummarizer(ctx context.Context, apiKey string, log *slog.Logger) summarizer.Summarizer {
	if strings.TrimSpace(apiKey) == "" {
		log.WarnContext(ctx, "OPENAI_API_KEY is missing so fallback will be used",
			"envVar", "OPENAI_API_KEY")

		return nil
	}

	s, err := summarizer.NewOpenAISummarizer(apiKey)
	if err != nil {
		log.ErrorContext(ctx, "Failed to create OpenAI summarizer so fallback will be used",
			"error", err,
			"envVar", "OPENAI_API_KEY")

		return nil
	}

	log.InfoContext(ctx, "OpenAI summarizer is initialized",
		"provider", "openai")

	return s
}
