// internal/bot/bot.go
//
// A team program that plays one game against the server.
// Loop:
//   - register (retried with backoff while the server is unreachable)
//   - poll /api/status every Poll
//   - fetch the team's word once roles are handed out
//   - describe when the open slot belongs to this team
//   - vote once per round while voting is open
//   - stop when the game ends or ctx is cancelled
//
// All decisions come from a strategy.Strategy.

package bot

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/undercover/internal/client"
	"github.com/robalobadob/undercover/internal/game"
	"github.com/robalobadob/undercover/internal/strategy"
)

// Config configures one bot.
type Config struct {
	Server   string
	Team     string
	Poll     time.Duration
	Strategy strategy.Strategy // defaults to strategy.NewNaive(time.Now().UnixNano())
	Client   *client.Client    // defaults to client.New(Server)

	// RegisterTimeout bounds the registration retries (default 30s).
	RegisterTimeout time.Duration
}

// Summary is what the bot saw when the game ended.
type Summary struct {
	Team   string
	Word   string
	Result game.Outcome
}

type player struct {
	cfg       Config
	c         *client.Client
	word      string
	described int // last round described
	voted     int // last round voted
}

// Run plays until the game ends. It returns the final outcome, or ctx.Err()
// when cancelled first.
func Run(ctx context.Context, cfg Config) (Summary, error) {
	cfg.Team = strings.TrimSpace(cfg.Team)
	if cfg.Team == "" {
		return Summary{}, errors.New("bot: team name required")
	}
	if cfg.Poll <= 0 {
		cfg.Poll = 250 * time.Millisecond
	}
	if cfg.RegisterTimeout <= 0 {
		cfg.RegisterTimeout = 30 * time.Second
	}
	if cfg.Strategy == nil {
		cfg.Strategy = strategy.NewNaive(time.Now().UnixNano())
	}
	p := &player{cfg: cfg, c: cfg.Client}
	if p.c == nil {
		p.c = client.New(cfg.Server)
	}
	logger := log.With().Str("team", cfg.Team).Logger()

	if err := p.register(ctx); err != nil {
		return Summary{}, err
	}
	logger.Info().Msg("registered")

	ticker := time.NewTicker(cfg.Poll)
	defer ticker.Stop()
	for {
		st, err := p.c.Status(ctx)
		switch {
		case err != nil && ctx.Err() != nil:
			return Summary{}, ctx.Err()
		case err != nil:
			logger.Warn().Err(err).Msg("status")
		default:
			done, err := p.step(ctx, st)
			if err != nil {
				logger.Warn().Err(err).Str("status", st.Status.String()).Msg("step")
			}
			if done {
				res, err := p.c.Result(ctx)
				if err != nil {
					return Summary{}, fmt.Errorf("fetch result: %w", err)
				}
				logger.Info().Str("winner", res.Winner.String()).Msg("game over")
				return Summary{Team: cfg.Team, Word: p.word, Result: res}, nil
			}
		}

		select {
		case <-ctx.Done():
			return Summary{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *player) register(ctx context.Context) error {
	_, err := backoff.Retry(ctx, func() (client.RegisterResult, error) {
		res, err := p.c.Register(ctx, p.cfg.Team)
		var ae *client.APIError
		switch {
		case err == nil:
			return res, nil
		case client.IsCode(err, game.CodeNameTaken):
			// registered by an earlier run
			return client.RegisterResult{Team: p.cfg.Team}, nil
		case errors.As(err, &ae):
			return res, backoff.Permanent(err)
		default:
			return res, err
		}
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(p.cfg.RegisterTimeout),
	)
	if err != nil {
		return fmt.Errorf("register %s: %w", p.cfg.Team, err)
	}
	return nil
}

// step reacts to one status snapshot. done is true once the game has ended.
func (p *player) step(ctx context.Context, st game.PublicState) (done bool, err error) {
	switch st.Status {
	case game.StatusGameEnd:
		return true, nil
	case game.StatusWordAssigned, game.StatusDescribing, game.StatusVoting, game.StatusRoundEnd:
		if p.word == "" {
			w, err := p.c.Word(ctx, p.cfg.Team)
			if err != nil {
				return false, fmt.Errorf("word: %w", err)
			}
			p.word = w
			log.Info().Str("team", p.cfg.Team).Msg("word received")
		}
	default:
		return false, nil
	}

	if !slices.Contains(st.Active, p.cfg.Team) {
		return false, nil
	}

	switch st.Status {
	case game.StatusDescribing:
		if st.CurrentSpeaker != p.cfg.Team || p.described == st.Round {
			return false, nil
		}
		p.described = st.Round
		text := p.cfg.Strategy.Describe(p.word, st.Round)
		if err := p.c.Describe(ctx, p.cfg.Team, text); err != nil {
			return false, fmt.Errorf("describe: %w", err)
		}
		log.Info().Str("team", p.cfg.Team).Int("round", st.Round).Msg("described")

	case game.StatusVoting:
		if p.voted == st.Round {
			return false, nil
		}
		_, descs, err := p.c.Descriptions(ctx)
		if err != nil {
			return false, fmt.Errorf("descriptions: %w", err)
		}
		target := p.cfg.Strategy.Vote(p.cfg.Team, st.Active, descs)
		if target == "" {
			p.voted = st.Round
			return false, nil
		}
		if err := p.c.Vote(ctx, p.cfg.Team, target); err != nil && !client.IsCode(err, game.CodeAlreadyVoted) {
			return false, fmt.Errorf("vote: %w", err)
		}
		p.voted = st.Round
		log.Info().Str("team", p.cfg.Team).Int("round", st.Round).Str("target", target).Msg("voted")
	}
	return false, nil
}
