// Package cli holds the merchant-recon commands: serve, compare and geocode.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"merchant-recon/internal/config"
)

// app is the state shared by all commands once the root pre-run has loaded
// configuration.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	logger  zerolog.Logger
}

// Execute runs the root command until it finishes or SIGINT/SIGTERM arrives.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCommand().ExecuteContext(ctx)
}

func NewRootCommand() *cobra.Command {
	a := &app{v: config.New(), logger: zerolog.Nop()}

	root := &cobra.Command{
		Use:   "merchant-recon",
		Short: "Reconcile two merchant location catalogs",
		Long: `merchant-recon finds records in two merchant catalogs that describe the
same physical location, using coordinates first and fuzzy name, address
and locality agreement second.

Configuration comes from recon.yaml (., ./config, /etc/merchant-recon/),
RECON_* environment variables, .env and command-line flags, in increasing
order of precedence.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.v, a.cfgFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = config.SetupLogger(cfg.Log)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default: recon.yaml in ., ./config, /etc/merchant-recon/)")
	pf.String("log-level", "info", "log level: trace, debug, info, warn, error")
	pf.String("log-file", "logs/merchant-recon.log", "rotated JSON log file, empty to disable")
	pf.String("geocode-url", "", "Nominatim base URL")
	pf.Duration("geocode-timeout", 0, "per-lookup reverse geocoding timeout")
	pf.String("redis-addr", "", "Redis address for the persistent geocode cache")
	a.bind(pf, map[string]string{
		"log.level":          "log-level",
		"log.file":           "log-file",
		"geocode.base_url":   "geocode-url",
		"geocode.timeout":    "geocode-timeout",
		"geocode.redis_addr": "redis-addr",
	})

	root.AddCommand(
		newServeCommand(a),
		newCompareCommand(a),
		newGeocodeCommand(a),
	)
	return root
}

// bind maps config keys onto flags; a flag only wins when set explicitly.
func (a *app) bind(fs *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if err := a.v.BindPFlag(key, fs.Lookup(name)); err != nil {
			panic(err)
		}
	}
}
