// Package cli implements riskctl, an operator tool for scoring text, checking
// SLA deadlines and migrating the database without running the API.
package cli

import (
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/resolveiq/internal/config"
	"github.com/spec-kit/resolveiq/internal/embedding"
)

// Options carries the collaborators commands would otherwise build from the
// environment.
type Options struct {
	Out      io.Writer
	Embedder embedding.Embedder
	Now      func() time.Time
	Version  string
}

type app struct {
	opts    Options
	verbose bool
}

// NewRootCommand assembles the riskctl command tree.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	a := &app{opts: opts}

	root := &cobra.Command{
		Use:           "riskctl",
		Short:         "Score ticket text and inspect SLA deadlines",
		Version:       opts.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(opts.Out)
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log to stderr")

	root.AddCommand(
		a.quickScoreCommand(),
		a.analyzeTextCommand(),
		a.slaCommand(),
		a.migrateCommand(),
	)
	return root
}

func (a *app) logger(cfg config.LoggerConfig) *zap.Logger {
	if !a.verbose {
		return zap.NewNop()
	}
	// The development config writes to stderr, keeping stdout for results.
	zcfg := zap.NewDevelopmentConfig()
	_ = zcfg.Level.UnmarshalText([]byte(cfg.Level))
	logger, err := zcfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func (a *app) printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = a.opts.Out.Write(append(out, '\n'))
	return err
}
