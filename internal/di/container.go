package di

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	accountRepo "github.com/reshetovitsme/x-telegram-relay/internal/modules/account/repository"
	accountService "github.com/reshetovitsme/x-telegram-relay/internal/modules/account/service"
	feedService "github.com/reshetovitsme/x-telegram-relay/internal/modules/feed/service"
	forwardService "github.com/reshetovitsme/x-telegram-relay/internal/modules/forward/service"
	ledgerService "github.com/reshetovitsme/x-telegram-relay/internal/modules/ledger/service"
	mediaService "github.com/reshetovitsme/x-telegram-relay/internal/modules/media/service"
	operatorRepo "github.com/reshetovitsme/x-telegram-relay/internal/modules/operator/repository"
	operatorService "github.com/reshetovitsme/x-telegram-relay/internal/modules/operator/service"
	postRepo "github.com/reshetovitsme/x-telegram-relay/internal/modules/post/repository"
	submissionService "github.com/reshetovitsme/x-telegram-relay/internal/modules/submission/service"
	watchService "github.com/reshetovitsme/x-telegram-relay/internal/modules/watch/service"
	"github.com/reshetovitsme/x-telegram-relay/internal/shared/config"
	httpServer "github.com/reshetovitsme/x-telegram-relay/internal/transport/http"
	telegramTransport "github.com/reshetovitsme/x-telegram-relay/internal/transport/telegram"
	"github.com/reshetovitsme/x-telegram-relay/internal/twitter"
	"github.com/samber/do/v2"
	"github.com/samber/oops"
)

// Setup initializes the dependency injection container
func Setup() (do.Injector, error) {
	injector := do.New()

	// Register Config
	do.Provide(injector, func(i do.Injector) (*config.Config, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, oops.With("context", "failed to load config").Wrap(err)
		}
		return cfg, nil
	})

	// Register X API client
	do.Provide(injector, func(i do.Injector) (*twitter.Client, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return twitter.New(cfg.TwitterAPIURL, cfg.TwitterBearerToken, cfg.RequestTimeoutDuration()), nil
	})

	// Register Post Repository
	do.Provide(injector, func(i do.Injector) (*postRepo.CachedRepository, error) {
		cfg := do.MustInvoke[*config.Config](i)
		client := do.MustInvoke[*twitter.Client](i)
		return postRepo.NewCachedRepository(client, cfg.PostCacheSize, cfg.PostCacheTTLDuration()), nil
	})

	// Register Account Repository
	do.Provide(injector, func(i do.Injector) (accountRepo.Repository, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo, err := accountRepo.NewFileStorage(cfg.AccountCachePath)
		if err != nil {
			return nil, oops.With("path", cfg.AccountCachePath, "context", "failed to initialize account repository").Wrap(err)
		}
		return repo, nil
	})

	// Register Account Service
	do.Provide(injector, func(i do.Injector) (*accountService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo := do.MustInvoke[accountRepo.Repository](i)
		client := do.MustInvoke[*twitter.Client](i)
		return accountService.New(repo, client, cfg.ResolveMaxAttempts, cfg.ResolveBaseDelayDuration()), nil
	})

	// Register Operator Repository
	do.Provide(injector, func(i do.Injector) (operatorRepo.Repository, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo, err := operatorRepo.NewFileStorage(cfg.StoragePath)
		if err != nil {
			return nil, oops.With("storage_path", cfg.StoragePath, "context", "failed to initialize operator repository").Wrap(err)
		}
		return repo, nil
	})

	// Register Operator Service
	do.Provide(injector, func(i do.Injector) (*operatorService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo := do.MustInvoke[operatorRepo.Repository](i)
		return operatorService.New(repo, cfg.AllowedUsers), nil
	})

	// Register Bot. Updates reach the handler lazily so the handler can
	// depend on services that send through this bot.
	do.Provide(injector, func(i do.Injector) (*bot.Bot, error) {
		cfg := do.MustInvoke[*config.Config](i)

		opts := []bot.Option{
			bot.WithServerURL(cfg.TelegramAPIURL),
			bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {
				do.MustInvoke[*telegramTransport.Handler](i).HandleUpdate(ctx, b, update)
			}),
		}

		b, err := bot.New(cfg.TelegramBotToken, opts...)
		if err != nil {
			return nil, oops.With("context", "failed to create telegram bot").Wrap(err)
		}
		return b, nil
	})

	// Register Media Service
	do.Provide(injector, func(i do.Injector) (*mediaService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return mediaService.New(cfg.RequestTimeoutDuration(), cfg.MediaMaxBytes), nil
	})

	// Register Forward Service
	do.Provide(injector, func(i do.Injector) (*forwardService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		b := do.MustInvoke[*bot.Bot](i)
		media := do.MustInvoke[*mediaService.Service](i)
		sender := telegramTransport.NewChannelSender(b, cfg.TelegramChannelID)
		return forwardService.New(sender, media), nil
	})

	// Register Ledger
	do.Provide(injector, func(i do.Injector) (*ledgerService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return ledgerService.New(cfg.DedupHistorySize), nil
	})

	// Register Submission Service
	do.Provide(injector, func(i do.Injector) (*submissionService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		posts := do.MustInvoke[*postRepo.CachedRepository](i)
		forward := do.MustInvoke[*forwardService.Service](i)
		ledger := do.MustInvoke[*ledgerService.Service](i)
		b := do.MustInvoke[*bot.Bot](i)

		svc := submissionService.New(cfg.QueueCapacity, posts, forward, ledger, iterationTimeout(cfg))
		svc.SetReplier(telegramTransport.NewReplier(b))
		return svc, nil
	})

	// Register Watch Service. The account id is resolved once here; the
	// poller cannot run without it.
	do.Provide(injector, func(i do.Injector) (*watchService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		accounts := do.MustInvoke[*accountService.Service](i)

		accountID, err := accounts.Resolve(context.Background(), cfg.TwitterUsername)
		if err != nil {
			return nil, oops.With("handle", cfg.TwitterUsername, "context", "failed to resolve monitored account").Wrap(err)
		}
		slog.Info("Monitoring account", "handle", cfg.TwitterUsername, "account_id", accountID)

		posts := do.MustInvoke[*postRepo.CachedRepository](i)
		forward := do.MustInvoke[*forwardService.Service](i)
		ledger := do.MustInvoke[*ledgerService.Service](i)
		b := do.MustInvoke[*bot.Bot](i)

		svc := watchService.New(posts, forward, ledger, watchService.Options{
			AccountID:        accountID,
			Limit:            cfg.RecentPostsLimit,
			Interval:         cfg.PollIntervalDuration(),
			IterationTimeout: iterationTimeout(cfg),
		})
		svc.SetNotifier(telegramTransport.NewReplier(b))
		return svc, nil
	})

	// Register Feed Service
	do.Provide(injector, func(i do.Injector) (*feedService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		ledger := do.MustInvoke[*ledgerService.Service](i)
		posts := do.MustInvoke[*postRepo.CachedRepository](i)
		return feedService.New(cfg.TwitterUsername, ledger, posts), nil
	})

	// Register Telegram Handler and its commands
	do.Provide(injector, func(i do.Injector) (*telegramTransport.Handler, error) {
		cfg := do.MustInvoke[*config.Config](i)
		operators := do.MustInvoke[*operatorService.Service](i)
		submissions := do.MustInvoke[*submissionService.Service](i)
		watch, err := do.Invoke[*watchService.Service](i)
		if err != nil {
			return nil, err
		}
		ledger := do.MustInvoke[*ledgerService.Service](i)

		handler := telegramTransport.New(cfg, operators, submissions, watch, ledger)
		handler.RegisterCommands(do.MustInvoke[*bot.Bot](i))
		return handler, nil
	})

	// Register HTTP Server
	do.Provide(injector, func(i do.Injector) (*httpServer.Server, error) {
		cfg := do.MustInvoke[*config.Config](i)
		feeds := do.MustInvoke[*feedService.Service](i)
		watch := do.MustInvoke[*watchService.Service](i)
		submissions := do.MustInvoke[*submissionService.Service](i)
		ledger := do.MustInvoke[*ledgerService.Service](i)

		server := httpServer.New(cfg, feeds, watch, submissions, ledger)
		server.SetLogger(slog.Default())
		return server, nil
	})

	return injector, nil
}

// iterationTimeout bounds one watch iteration or one submission: a source
// call plus up to a full media group of downloads and the send.
func iterationTimeout(cfg *config.Config) time.Duration {
	return 5 * cfg.RequestTimeoutDuration()
}

// Shutdown gracefully shuts down all services
func Shutdown(injector do.Injector) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server if it exists
	if server, err := do.Invoke[*httpServer.Server](injector); err == nil && server != nil {
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Failed to shutdown HTTP server", "error", err)
		}
	}

	// Stop watch mode, waiting for an in-flight poll
	if watch, err := do.Invoke[*watchService.Service](injector); err == nil && watch != nil {
		watch.Stop()
	}

	// Stop the submission consumer after the submission in progress
	if submissions, err := do.Invoke[*submissionService.Service](injector); err == nil && submissions != nil {
		submissions.Stop()
	}

	return nil
}
