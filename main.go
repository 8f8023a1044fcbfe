package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"social-hub/domain/model"
	"social-hub/domain/repository"
	"social-hub/infrastructure/cache"
	"social-hub/infrastructure/clients/instagram"
	"social-hub/infrastructure/clients/linkedin"
	"social-hub/infrastructure/clients/pinterest"
	"social-hub/infrastructure/clients/reddit"
	"social-hub/infrastructure/clients/tiktok"
	"social-hub/infrastructure/clients/twitter"
	youtubeclient "social-hub/infrastructure/clients/youtube"
	"social-hub/infrastructure/configuration"
	"social-hub/infrastructure/events"
	"social-hub/infrastructure/logger"
	"social-hub/infrastructure/persistence"
	"social-hub/infrastructure/queue"
	httpHandler "social-hub/interfaces/http"
	"social-hub/server"
	"social-hub/usecase"
)

var httpServer *http.Server

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	// Load env from files (non-destructive; OS env still has precedence)
	configuration.LoadEnvFromFile("config.env", ".env")

	app := configuration.C.App

	psqlDb, err := persistence.NewPostgreSQLDB()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Cannot connect to PostgreSQL")
		os.Exit(1)
	}
	if err := persistence.EnsurePublishSchema(psqlDb); err != nil {
		logger.GetLogger().WithField("error", err).Error("Failed ensuring publish schema")
		os.Exit(1)
	}

	mongoDb, err := persistence.NewMongoDb(
		configuration.C.Database.Mongo.Host,
		configuration.C.Database.Mongo.Port,
		configuration.C.Database.Mongo.User,
		configuration.C.Database.Mongo.Password,
		configuration.C.Database.Mongo.Name,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB not available - continuing without audit trail")
		mongoDb = nil
	} else if err := mongoDb.Ping(ctx, nil); err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB ping failed - continuing without audit trail")
		mongoDb = nil
	}

	pubSubClient, err := events.NewPubSub(ctx, configuration.C.Pubsub.ProjectID)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Pub/Sub not available - continuing without it")
		pubSubClient = nil
	}
	azServiceBusClient, err := events.NewServiceBus(ctx, configuration.C.ServiceBus.Namespace)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Azure Service Bus not available - continuing without it")
		azServiceBusClient = nil
	}

	// OAuth state lives in Redis when available so pending authorizations
	// survive restarts; otherwise a process-local store serves a single node.
	var stateStore repository.IStateStore
	redisClient, err := cache.NewCache()
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Redis not available - using in-memory OAuth state store")
		stateStore = cache.NewMemoryStateStore()
	} else {
		stateStore = cache.NewRedisStateStore(redisClient)
	}

	platformClients := buildPlatformClients()
	if len(platformClients) == 0 {
		logger.GetLogger().Warn("No platform OAuth credentials configured; publishing is disabled")
	}

	tokenRepository := persistence.NewOAuthTokenRepository(psqlDb)
	postRepository := persistence.NewPostRepository(psqlDb)
	jobRepository := persistence.NewJobRepository(psqlDb)
	userRepository := persistence.NewUserRepository(psqlDb)
	auditRepository := persistence.NewAuditRepository(mongoDb, configuration.C.Database.Mongo.Name)
	statusPublisher := events.NewStatusPublisher(pubSubClient, azServiceBusClient,
		configuration.C.Events.Topic, configuration.C.Events.Queue)

	tokenStore := usecase.NewTokenStore(tokenRepository, platformClients)
	oauthFlow := usecase.NewOAuthFlow(platformClients, stateStore, tokenStore)
	registry := usecase.NewRegistry(platformClients, jobRepository, postRepository)
	postUsecase := usecase.NewPostUsecase(registry, tokenStore, postRepository, jobRepository, statusPublisher, auditRepository)
	publisher := usecase.NewPublisher(platformClients, tokenStore)

	workerCfg := queue.FromConfiguration(configuration.C.Queue)
	for platform := range platformClients {
		worker := queue.NewWorker(platform, jobRepository, publisher, postUsecase, workerCfg)
		g.Go(func() error {
			err := worker.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	userUsecase := usecase.NewUserUsecase(userRepository)
	userHandler := httpHandler.NewUserHandler(userUsecase)
	postHandler := httpHandler.NewPostHandler(postUsecase)
	oauthHandler := httpHandler.NewOAuthHandler(oauthFlow)
	router := server.InitiateRouter(userHandler, postHandler, oauthHandler, userRepository)

	port := app.Port
	logger.GetLogger().WithFields(map[string]interface{}{
		"port":      port,
		"tls":       app.TLSEnabled,
		"platforms": len(platformClients),
	}).Info("Starting application")
	g.Go(func() error {
		httpServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		}
		if app.TLSEnabled {
			cert := app.TLSCertFile
			key := app.TLSKeyFile
			if cert == "" || key == "" {
				logger.GetLogger().Error("TLS enabled but cert or key path empty; falling back to HTTP")
				if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			}
			if err := httpServer.ListenAndServeTLS(cert, key); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if httpServer != nil {
		_ = httpServer.Shutdown(shutdownCtx)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}

// buildPlatformClients wires one client per platform with credentials. A
// platform with missing credentials is disabled with a warning, never fatal.
func buildPlatformClients() map[model.Platform]repository.IPlatformClient {
	oauth := configuration.C.OAuth
	candidates := []struct {
		platform model.Platform
		cfg      configuration.OAuthClient
		build    func(configuration.OAuthClient) repository.IPlatformClient
	}{
		{model.PlatformLinkedIn, oauth.LinkedIn, func(c configuration.OAuthClient) repository.IPlatformClient { return linkedin.NewClient(c, nil) }},
		{model.PlatformTwitter, oauth.Twitter, func(c configuration.OAuthClient) repository.IPlatformClient { return twitter.NewClient(c, nil) }},
		{model.PlatformTikTok, oauth.TikTok, func(c configuration.OAuthClient) repository.IPlatformClient { return tiktok.NewClient(c, nil) }},
		{model.PlatformPinterest, oauth.Pinterest, func(c configuration.OAuthClient) repository.IPlatformClient { return pinterest.NewClient(c, nil) }},
		{model.PlatformReddit, oauth.Reddit, func(c configuration.OAuthClient) repository.IPlatformClient { return reddit.NewClient(c, nil) }},
		{model.PlatformInstagram, oauth.Instagram, func(c configuration.OAuthClient) repository.IPlatformClient { return instagram.NewClient(c, nil) }},
		{model.PlatformYouTube, oauth.YouTube, func(c configuration.OAuthClient) repository.IPlatformClient { return youtubeclient.NewClient(c, nil) }},
	}

	clients := make(map[model.Platform]repository.IPlatformClient)
	for _, candidate := range candidates {
		if !candidate.cfg.Configured() {
			logger.GetLogger().WithField("platform", candidate.platform).Warn("OAuth credentials not configured - platform disabled")
			continue
		}
		clients[candidate.platform] = candidate.build(candidate.cfg)
	}
	return clients
}
