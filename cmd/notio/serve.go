package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfaphoenix/notio/internal/api"
	"github.com/alfaphoenix/notio/internal/auth"
	"github.com/alfaphoenix/notio/internal/bot"
	"github.com/alfaphoenix/notio/internal/events"
	"github.com/alfaphoenix/notio/internal/notes"
)

// newServeCmd builds the command that runs the API and the bot.
func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the Telegram bot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer e.close()

			ctx, cancel := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return serve(ctx, e)
		},
	}
}

// serve runs the HTTP server, and the bot when a token is set, until ctx is
// done.
func serve(ctx context.Context, e *env) error {
	cfg, log := e.cfg, e.log

	if err := e.store.Migrate(ctx); err != nil {
		return err
	}

	publisher := events.New(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn().Err(err).Msg("close event publisher")
		}
	}()

	var denylist auth.Denylist = auth.NewMemoryDenylist()
	if cfg.RedisAddr != "" {
		redisDenylist, err := auth.NewRedisDenylist(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer redisDenylist.Close()
		denylist = redisDenylist
	}

	tokens, err := auth.NewTokens([]byte(cfg.JWTSecret), cfg.JWTTTL, denylist)
	if err != nil {
		return err
	}
	users := auth.NewDirectory(e.store)
	sessions := auth.NewSessions(e.store, auth.SessionConfig{
		HashKey:  []byte(cfg.SessionHashKey),
		BlockKey: []byte(cfg.SessionBlockKey),
		TTL:      cfg.SessionTTL,
		Secure:   cfg.SessionCookieSecure,
	})
	if cfg.SessionHashKey == "" {
		log.Warn().Msg("SESSION_HASH_KEY is not set, sessions will not survive a restart")
	}
	svc := notes.NewService(e.store, users, notes.WithPublisher(publisher), notes.WithLogger(log))

	server := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: api.NewAPI(api.Deps{
			Notes:    svc,
			Users:    users,
			Sessions: sessions,
			Tokens:   tokens,
			Health:   e.store,
			Logger:   log,
		}).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http server started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if cfg.BotToken != "" {
		telegram := bot.NewTelegramBot(cfg.BotToken, svc, users, e.store, log.With().Str("component", "bot").Logger())
		go func() {
			if err := telegram.Start(ctx); err != nil {
				errCh <- err
			}
		}()
	} else {
		log.Info().Msg("BOT_TOKEN is not set, telegram bot disabled")
	}

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown requested")
	case err = <-errCh:
		log.Error().Err(err).Msg("server stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Warn().Err(shutdownErr).Msg("http shutdown")
	}
	return err
}
