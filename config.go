package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/robalobadob/undercover/internal/game"
)

const envPrefix = "UNDERCOVER"

type serveConfig struct {
	bind         string
	port         int
	adminToken   string
	jwtSecret    string
	jwtTTL       time.Duration
	slotTimeout  time.Duration
	maxTeams     int
	seed         int64
	db           string
	clientOrigin string
	publicURL    string
	wordSalt     string
}

func (c *serveConfig) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.slotTimeout <= 0 {
		return fmt.Errorf("invalid slot timeout (must be positive): %s", c.slotTimeout)
	}
	if c.maxTeams < 1 || c.maxTeams > game.DefaultMaxTeams {
		return fmt.Errorf("invalid max teams (must be between 1-%d inclusive): %d", game.DefaultMaxTeams, c.maxTeams)
	}
	if strings.TrimSpace(c.adminToken) == "" {
		return errors.New("admin token must not be empty")
	}
	if c.jwtTTL <= 0 {
		return fmt.Errorf("invalid jwt ttl (must be positive): %s", c.jwtTTL)
	}
	return nil
}

func (c *serveConfig) addr() string { return fmt.Sprintf("%s:%d", c.bind, c.port) }

type playConfig struct {
	server string
	team   string
	poll   time.Duration
	seed   int64
}

func (c *playConfig) validate() error {
	if strings.TrimSpace(c.team) == "" {
		return errors.New("--team is required")
	}
	if c.poll <= 0 {
		return fmt.Errorf("invalid poll interval (must be positive): %s", c.poll)
	}
	if !strings.HasPrefix(c.server, "http://") && !strings.HasPrefix(c.server, "https://") {
		return fmt.Errorf("invalid server url: %q", c.server)
	}
	return nil
}

// bindFlags lets UNDERCOVER_<FLAG> environment variables fill flags that were
// not given on the command line.
func bindFlags(fs *pflag.FlagSet) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

func newRootCmd(serve *serveConfig, play *playConfig) *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "undercover",
		Short:         "Host and play the find-the-undercover team game.",
		SilenceErrors: true,
		SilenceUsage:  true,
		Version:       releaseVersion,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := zerolog.ParseLevel(logLevel)
			if err != nil {
				return fmt.Errorf("invalid log level %q", logLevel)
			}
			zerolog.SetGlobalLevel(lvl)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "trace|debug|info|warn|error (env: UNDERCOVER_LOG_LEVEL)")
	bindFlags(root.PersistentFlags())

	root.AddCommand(newServeCmd(serve), newPlayCmd(play))

	root.CompletionOptions.HiddenDefaultCmd = true
	root.SetHelpCommand(&cobra.Command{Hidden: true})
	root.SetVersionTemplate("undercover v{{.Version}}\n")
	return root
}

func newServeCmd(cfg *serveConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the game server.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: UNDERCOVER_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 5000, "port to listen on (env: UNDERCOVER_PORT)")
	fs.StringVar(&cfg.adminToken, "admin-token", "host-secret", "host secret for /api/game/* (env: UNDERCOVER_ADMIN_TOKEN or ADMIN_TOKEN)")
	fs.StringVar(&cfg.jwtSecret, "jwt-secret", "", "host token signing key, random per process when empty (env: UNDERCOVER_JWT_SECRET)")
	fs.DurationVar(&cfg.jwtTTL, "jwt-ttl", 12*time.Hour, "host token lifetime (env: UNDERCOVER_JWT_TTL)")
	fs.DurationVar(&cfg.slotTimeout, "slot-timeout", game.DefaultSlotTimeout, "per-team description window (env: UNDERCOVER_SLOT_TIMEOUT)")
	fs.IntVar(&cfg.maxTeams, "max-teams", game.DefaultMaxTeams, "maximum registered teams (env: UNDERCOVER_MAX_TEAMS)")
	fs.Int64Var(&cfg.seed, "seed", 0, "random seed, 0 for a random one (env: UNDERCOVER_SEED)")
	fs.StringVar(&cfg.db, "db", "", "SQLite archive path, empty disables the archive (env: UNDERCOVER_DB)")
	fs.StringVar(&cfg.clientOrigin, "client-origin", "*", "CORS origin (env: UNDERCOVER_CLIENT_ORIGIN)")
	fs.StringVar(&cfg.publicURL, "public-url", "", "join URL shown in the QR code (env: UNDERCOVER_PUBLIC_URL)")
	fs.StringVar(&cfg.wordSalt, "word-salt", "local_dev_salt", "salt for the word pair of the day (env: UNDERCOVER_WORD_SALT)")
	bindFlags(fs)

	// ADMIN_TOKEN is the older name of the host secret.
	if _, ok := os.LookupEnv(envPrefix + "_ADMIN_TOKEN"); !ok && !fs.Changed("admin-token") {
		if t := os.Getenv("ADMIN_TOKEN"); t != "" {
			cfg.adminToken = t
		}
	}
	return cmd
}

func newPlayCmd(cfg *playConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Join a server as a team bot and play one game.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return runPlay(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&cfg.server, "server", "s", "http://127.0.0.1:5000", "game server base URL (env: UNDERCOVER_SERVER)")
	fs.StringVarP(&cfg.team, "team", "t", "", "team name (env: UNDERCOVER_TEAM)")
	fs.DurationVar(&cfg.poll, "poll", 250*time.Millisecond, "status poll interval (env: UNDERCOVER_POLL)")
	fs.Int64Var(&cfg.seed, "seed", 0, "strategy seed, 0 for a random one (env: UNDERCOVER_SEED)")
	bindFlags(fs)
	return cmd
}
