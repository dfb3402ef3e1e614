package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	mrand "math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/robalobadob/undercover/internal/bot"
	"github.com/robalobadob/undercover/internal/events"
	"github.com/robalobadob/undercover/internal/game"
	"github.com/robalobadob/undercover/internal/hostauth"
	"github.com/robalobadob/undercover/internal/httpserver"
	"github.com/robalobadob/undercover/internal/store"
	"github.com/robalobadob/undercover/internal/strategy"
	"github.com/robalobadob/undercover/internal/words"
)

const releaseVersion = "0.1.0"

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cobra.CheckErr(newRootCmd(&serveConfig{}, &playConfig{}).ExecuteContext(ctx))
}

func runServe(ctx context.Context, cfg *serveConfig) error {
	if err := words.Init(); err != nil {
		return fmt.Errorf("load word pairs: %w", err)
	}
	log.Info().Int("pairs", words.Stats()).Msg("word pairs loaded")

	opts := game.Options{SlotTimeout: cfg.slotTimeout, MaxTeams: cfg.maxTeams}
	if cfg.seed != 0 {
		opts.Rand = mrand.New(mrand.NewSource(cfg.seed))
	}
	session := store.NewSession(game.New(opts))

	arc, closeArchive, err := openArchive(cfg.db)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeArchive(); err != nil {
			log.Warn().Err(err).Msg("close archive")
		}
	}()

	secret := []byte(cfg.jwtSecret)
	if len(secret) == 0 {
		secret = randomSecret()
	}
	guard, err := hostauth.New(hostauth.Config{AdminToken: cfg.adminToken, JWTSecret: secret, TTL: cfg.jwtTTL})
	if err != nil {
		return fmt.Errorf("host auth: %w", err)
	}

	handler := httpserver.New(session, events.NewHub(nil), arc, guard, httpserver.Config{
		ClientOrigin: cfg.clientOrigin,
		PublicURL:    cfg.publicURL,
		WordSalt:     cfg.wordSalt,
	})
	srv := &http.Server{
		Addr:              cfg.addr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().
			Str("addr", srv.Addr).
			Dur("slot", cfg.slotTimeout).
			Int("max_teams", cfg.maxTeams).
			Msg("starting undercover server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Info().Msg("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func runPlay(ctx context.Context, cfg *playConfig) error {
	seed := cfg.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	sum, err := bot.Run(ctx, bot.Config{
		Server:   cfg.server,
		Team:     cfg.team,
		Poll:     cfg.poll,
		Strategy: strategy.NewNaive(seed),
	})
	if err != nil {
		return err
	}
	log.Info().
		Str("team", sum.Team).
		Str("winner", sum.Result.Winner.String()).
		Int("round", sum.Result.Round).
		Strs("eliminated", sum.Result.Eliminated).
		Msg("finished")
	return nil
}

// randomSecret returns a per-process signing key.
func randomSecret() []byte {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		log.Fatal().Err(err).Msg("generate jwt secret")
	}
	out := make([]byte, hex.EncodedLen(len(b)))
	hex.Encode(out, b)
	return out
}
