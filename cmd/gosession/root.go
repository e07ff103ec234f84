package main

import (
	"fmt"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/internal/config"
	"github.com/MrEthical07/goSession/internal/logger"
	"github.com/MrEthical07/goSession/sid"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	configFile string
	secret     string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "gosession",
		Short: "Work with express-session compatible session identifiers and stores",
		Long: `gosession signs and verifies "s:<id>.<signature>" identifiers with the
same HMAC-SHA256 scheme as express-session, and reads session records from
the configured store (redis, memcached, sqlite, postgres).

Configuration comes from --config (JSON, YAML or TOML) and GOSESSION_*
environment variables, e.g. GOSESSION_SECRET or GOSESSION_STORE_BACKEND.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&g.configFile, "config", "", "config file")
	root.PersistentFlags().StringVar(&g.secret, "secret", "", "signing secret (overrides config)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "log level (debug, info, warn, error, disabled)")

	root.AddCommand(
		generateCmd(g),
		signCmd(g),
		verifyCmd(g),
		inspectCmd(g),
		secretCmd(),
		sweepCmd(g),
	)
	return root
}

// load resolves the configuration with command-line overrides applied.
func (g *globalFlags) load() (goSession.Config, error) {
	f, err := config.Load(g.configFile)
	if err != nil {
		return goSession.Config{}, err
	}
	if g.secret != "" {
		f.Secret = g.secret
	}
	if g.logLevel != "" {
		f.Logging.Level = g.logLevel
	}
	return f.SessionConfig()
}

func (g *globalFlags) codec() (*sid.Codec, goSession.Config, error) {
	cfg, err := g.load()
	if err != nil {
		return nil, cfg, err
	}
	if len(cfg.Secret) == 0 {
		return nil, cfg, fmt.Errorf("%w: pass --secret or set GOSESSION_SECRET", goSession.ErrSecretMissing)
	}
	source, err := sid.SourceByName(cfg.Identifier.Generator, cfg.Identifier.TokenLength)
	if err != nil {
		return nil, cfg, err
	}
	c, err := sid.NewCodec(cfg.Secret,
		sid.WithEncoding(cfg.Identifier.SignatureEncoding),
		sid.WithParseMode(cfg.Identifier.Parsing),
		sid.WithTokenSource(source),
		sid.WithPreviousSecrets(cfg.PreviousSecrets...),
	)
	return c, cfg, err
}

// handler builds a Handler whose logs go to the command's stderr.
func (g *globalFlags) handler(cmd *cobra.Command) (*goSession.Handler, error) {
	cfg, err := g.load()
	if err != nil {
		return nil, err
	}
	cfg.Logging.Console = true
	cfg.Logging.File = ""
	l, err := logger.NewWithWriter(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	return goSession.New().WithConfig(cfg).WithLogger(l.Logger).BuildContext(cmd.Context())
}
