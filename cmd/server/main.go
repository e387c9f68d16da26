package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/sivira/snsdm/internal/config"
	"github.com/sivira/snsdm/internal/handler"
	"github.com/sivira/snsdm/internal/pkg/logger"
	"github.com/sivira/snsdm/internal/repository"
	"github.com/sivira/snsdm/internal/server"
	"github.com/sivira/snsdm/internal/service"
	"github.com/sivira/snsdm/migrations"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(logger.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		FilePath:   cfg.Log.FilePath,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	sqlDB, err := repository.NewPostgres(cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer sqlDB.Close()

	if cfg.Database.AutoMigrate {
		if err := migrations.Up(sqlDB); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		version, dirty, err := migrations.Version(sqlDB)
		if err != nil {
			return fmt.Errorf("migration version: %w", err)
		}
		logger.L().Info("database schema ready",
			zap.Uint("version", version), zap.Bool("dirty", dirty))
	}

	rdb, err := repository.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer rdb.Close()

	accountRepo := repository.NewSNSAccountRepository(sqlDB)
	hashtagRepo := repository.NewHashtagRuleRepository(sqlDB)
	postRepo := repository.NewPostRuleRepository(sqlDB)
	dmLogRepo := repository.NewDMLogRepository(sqlDB)
	handshakes := repository.NewHandshakeStore(rdb)
	xClient := repository.NewXOAuthClient(repository.XOAuthConfig{
		ConsumerKey:    cfg.Providers.X.ConsumerKey,
		ConsumerSecret: cfg.Providers.X.ConsumerSecret,
		ProxyURL:       cfg.Providers.X.ProxyURL,
	})

	authSvc := service.NewAuthService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL)
	accountSvc := service.NewAccountService(accountRepo)
	connectSvc := service.NewConnectService(handshakes, xClient, accountSvc, service.ConnectConfig{
		XCallbackURL: cfg.XCallbackURL(),
		FrontendURL:  cfg.App.FrontendURL,
		Apps:         providerApps(cfg),
	})
	ruleSvc := service.NewRuleService(hashtagRepo, postRepo, accountRepo)
	dmSvc := service.NewDMService(hashtagRepo, postRepo, dmLogRepo)

	srv := server.New(cfg, authSvc, rdb, server.Handlers{
		Connect: handler.NewConnectHandler(connectSvc),
		Account: handler.NewAccountHandler(accountSvc),
		Rule:    handler.NewRuleHandler(ruleSvc),
		DM:      handler.NewDMHandler(dmSvc),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.L().Error("server exited", zap.Error(err))
		return err
	}
	return nil
}

func providerApps(cfg *config.Config) map[string]service.ProviderApp {
	apps := map[string]service.ProviderApp{}
	for provider, app := range map[string]config.AppProviderConfig{
		service.ProviderInstagram: cfg.Providers.Instagram,
		service.ProviderThreads:   cfg.Providers.Threads,
		service.ProviderTikTok:    cfg.Providers.TikTok,
	} {
		if app.AuthorizeURL == "" {
			continue
		}
		apps[provider] = service.ProviderApp{
			ClientID:     app.ClientID,
			AuthorizeURL: app.AuthorizeURL,
			RedirectURI:  app.RedirectURI,
		}
	}
	return apps
}
