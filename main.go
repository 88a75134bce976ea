package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ymerta/agentic-assistant-local/agent/composer"
	"github.com/ymerta/agentic-assistant-local/agent/dispatch"
	"github.com/ymerta/agentic-assistant-local/agent/planner"
	promptx "github.com/ymerta/agentic-assistant-local/agent/prompt"
	statex "github.com/ymerta/agentic-assistant-local/agent/state"
	toolx "github.com/ymerta/agentic-assistant-local/agent/tool"

	"github.com/ymerta/agentic-assistant-local/agent/orchestrator"
	configx "github.com/ymerta/agentic-assistant-local/pkg/config"
	"github.com/ymerta/agentic-assistant-local/pkg/googleapi"
	_ "github.com/ymerta/agentic-assistant-local/pkg/logger/autoload"
	ollamax "github.com/ymerta/agentic-assistant-local/pkg/ollama"
	"github.com/ymerta/agentic-assistant-local/server"
)

const version = "0.1.0"

type AppConfig struct {
	Port           int    `envconfig:"PORT" default:"8000"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" split_words:"true" default:"*"`
	DemoMode       bool   `envconfig:"DEMO_MODE" split_words:"true" default:"false"`
	DatabaseDSN    string `envconfig:"DATABASE_DSN" split_words:"true"`
	Timezone       string `envconfig:"TIMEZONE" default:"Europe/Istanbul"`
}

func main() {
	appCfg := configx.MustNew[AppConfig]("")

	loc, err := time.LoadLocation(appCfg.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", appCfg.Timezone).Msg("invalid timezone")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	googleCfg := configx.MustNew[googleapi.Config]("GOOGLE")
	var auth *googleapi.Authenticator

	var mail toolx.MailGateway
	var cal toolx.CalendarGateway
	switch {
	case appCfg.DemoMode:
		log.Info().Msg("demo mode: serving fixture mail and calendar data")
		mail = toolx.NewDemoMail()
		cal = toolx.NewDemoCalendar(loc)
	case googleCfg.Configured():
		auth = googleapi.NewAuthenticator(*googleCfg)
		mail = googleapi.NewMail(auth)
		cal = googleapi.NewCalendar(auth, loc)
	default:
		log.Warn().Msg("google credentials missing, falling back to demo fixtures")
		mail = toolx.NewDemoMail()
		cal = toolx.NewDemoCalendar(loc)
	}

	registry, err := toolx.BuildRegistry(mail, cal, loc)
	if err != nil {
		log.Fatal().Err(err).Msg("building tool registry failed")
	}

	ollamaCfg := configx.MustNew[ollamax.Config]("OLLAMA")
	chatModel, err := ollamaCfg.New(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("creating chat model failed")
	}

	prompts := promptx.LoadPromptSet()

	plannerSvc, err := planner.New(ctx, chatModel, registry, loc, prompts.Planner)
	if err != nil {
		log.Fatal().Err(err).Msg("creating planner failed")
	}

	composerSvc, err := composer.New(ctx, chatModel, prompts.Composer)
	if err != nil {
		log.Fatal().Err(err).Msg("creating composer failed")
	}

	dispatchCfg := configx.MustNew[dispatch.Config]("DISPATCH")
	dispatcher, err := dispatch.New(registry, *dispatchCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("creating dispatcher failed")
	}

	store := buildStore(ctx, appCfg.DatabaseDSN)

	orch, err := orchestrator.New(store, plannerSvc, dispatcher, composerSvc)
	if err != nil {
		log.Fatal().Err(err).Msg("creating orchestrator failed")
	}

	handlers := &server.Handlers{
		Orchestrator: orch,
		Store:        store,
		Chat:         ollamax.NewClient(*ollamaCfg),
		ChatModel:    ollamaCfg.Model,
		Google:       auth,
		Version:      version,
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", appCfg.Port),
		Handler:           server.NewRouter(handlers, strings.Split(appCfg.AllowedOrigins, ",")),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Int("port", appCfg.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func buildStore(ctx context.Context, dsn string) statex.Store {
	if strings.TrimSpace(dsn) == "" {
		log.Info().Msg("no database configured, conversations held in memory")
		return statex.NewMemoryStore()
	}

	store, err := statex.NewPostgresStore(statex.PostgresConfig{DSN: dsn})
	if err != nil {
		log.Fatal().Err(err).Msg("connecting to postgres failed")
	}
	if err := store.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("migrating schema failed")
	}
	return store
}
