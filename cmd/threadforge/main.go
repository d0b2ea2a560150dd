package main

import (
	"github.com/microtoolco/threadforge/internal/auth"
	"github.com/microtoolco/threadforge/internal/clients/threadapi"
	"github.com/microtoolco/threadforge/internal/clients/zapier"
	"github.com/microtoolco/threadforge/internal/config"
	"github.com/microtoolco/threadforge/internal/database"
	"github.com/microtoolco/threadforge/internal/extractor"
	"github.com/microtoolco/threadforge/internal/generator"
	"github.com/microtoolco/threadforge/internal/handlers"
	"github.com/microtoolco/threadforge/internal/logging"
	"github.com/microtoolco/threadforge/internal/monitoring"
	"github.com/microtoolco/threadforge/internal/orchestrator"
	"github.com/microtoolco/threadforge/internal/plan"
	"github.com/microtoolco/threadforge/internal/server"
	"github.com/microtoolco/threadforge/internal/store"
)

const serviceName = "threadforge"

var (
	version   = "dev"
	gitCommit = "unknown"
)

func main() {
	logger := logging.NewLoggerWithService(serviceName)
	config.LoadEnv(logger)

	port := config.GetEnv("PORT", "8080")
	jwtSecret := []byte(config.RequireEnv("JWT_SECRET"))
	webhookSecret := config.GetEnv("STRIPE_WEBHOOK_SECRET", "")

	dbConfig := database.DefaultConfig()
	dbConfig.URL = config.RequireEnv("DATABASE_URL")
	db := database.MustConnect(dbConfig, logger)
	defer func() { _ = db.Close() }()

	generatorConfig := generator.LoadConfig()
	completer := generator.NewClient(generatorConfig)

	threadClient := threadapi.NewClient(threadapi.Config{
		APIKey: config.GetEnv("RAPIDAPI_KEY", ""),
		Host:   config.GetEnv("RAPIDAPI_HOST", ""),
	})
	exportClient := zapier.NewClient(zapier.Config{
		BeehiivURL:  config.GetEnv("ZAPIER_BEEHIIV_WEBHOOK_URL", ""),
		SubstackURL: config.GetEnv("ZAPIER_SUBSTACK_WEBHOOK_URL", ""),
	})

	st := store.New(db)
	threads := extractor.New(threadClient, logger)
	gate := plan.New(st, nil)
	converter := orchestrator.New(completer, logger)

	var splitter handlers.PostExtractor
	if config.GetEnvBool("LLM_EXTRACTION_ENABLED", false) {
		splitter = generator.NewPostSplitter(completer)
	}

	healthChecker := monitoring.NewHealthChecker(serviceName, version)
	metricsCollector := monitoring.NewMetricsCollector(serviceName, version, gitCommit)
	appMetrics := handlers.NewAppMetrics(metricsCollector)

	healthChecker.AddCheck("database", monitoring.DatabaseHealthCheck(db))
	healthChecker.AddCheck("config", monitoring.ConfigurationHealthCheck(map[string]string{
		"GROQ_API_KEY": generatorConfig.APIKey,
	}))

	app := server.SetupRouter(logger, serviceName, healthChecker, metricsCollector)

	convertHandler := handlers.NewConvertHandler(st, threads, splitter, gate, converter, logger, appMetrics)
	exportHandler := handlers.NewExportHandler(st, exportClient, logger, appMetrics)
	statsHandler := handlers.NewStatsHandler(st, logger, nil)
	checkoutHandler := handlers.NewCheckoutHandler(handlers.LoadCheckoutConfig(), logger)
	webhookHandler := handlers.NewWebhookHandler(st, webhookSecret, logger, appMetrics, nil)

	api := app.Group("/api")
	{
		// Conversion is open to signed-out visitors; identity is optional.
		api.POST("/convert", auth.OptionalJWTAuthMiddleware(jwtSecret), convertHandler.Handle)
		api.GET("/checkout", auth.OptionalJWTAuthMiddleware(jwtSecret), checkoutHandler.Handle)
		api.POST("/webhook", webhookHandler.Handle)

		authed := api.Group("")
		authed.Use(auth.JWTAuthMiddleware(jwtSecret))
		{
			authed.POST("/export", exportHandler.Handle)
			authed.GET("/stats", statsHandler.Handle)
		}
	}

	serverConfig := server.DefaultConfig(serviceName, port)
	if err := server.Start(serverConfig, app, logger); err != nil {
		logger.Fatal(err.Error())
	}
}
