// Package cli implements the dsnval command line.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/user/dsnval-service/internal/bootstrap"
	"github.com/user/dsnval-service/pkg/config"
	"github.com/user/dsnval-service/pkg/logger"
)

// BuildInfo is injected from main via ldflags.
type BuildInfo struct {
	Version   string
	BuildTime string
	GitCommit string
}

var red = color.New(color.FgRed, color.Bold)

// NewRootCmd builds the command tree over v. Flags override the matching
// viper keys only when set explicitly. Extra bootstrap options are passed to
// every command that wires the service.
func NewRootCmd(v *viper.Viper, info BuildInfo, opts ...bootstrap.Option) *cobra.Command {
	root := &cobra.Command{
		Use:   "dsnval",
		Short: "Report DSN-val control tool releases",
		Long: `Report the DSN-val control tool releases published on net-entreprises.fr.

The release page is fetched, each "Version ... du <jour> <mois> <année>"
caption is paired with its installer link, and the French date is
normalised to ISO-8601.`,
		Example: `  # Latest release as JSON
  dsnval fetch

  # Every release on the page, indented
  dsnval fetch --selection all --pretty

  # Serve the JSON endpoint on port 9000
  dsnval serve --port 9000`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "", "log format (json or console)")
	root.PersistentFlags().String("source", "", "release page URL")
	root.PersistentFlags().String("selection", "", "release selection: latest, first, newest or all")
	root.PersistentFlags().String("month-mode", "", "unknown month handling: strict or lenient")
	root.PersistentFlags().Bool("lenient", false, "shorthand for --month-mode lenient")
	root.PersistentFlags().Bool("insecure", false, "skip TLS certificate verification (unsafe)")
	root.PersistentFlags().Int("timeout", 0, "fetch timeout in seconds")
	root.PersistentFlags().String("fetcher", "", "page fetcher: http or browser")

	bind(v, root, "LOG_LEVEL", "log-level")
	bind(v, root, "LOG_FORMAT", "log-format")
	bind(v, root, "SOURCE_URL", "source")
	bind(v, root, "SELECTION", "selection")
	bind(v, root, "MONTH_MODE", "month-mode")
	bind(v, root, "TLS_INSECURE_SKIP_VERIFY", "insecure")
	bind(v, root, "FETCH_TIMEOUT_SECONDS", "timeout")
	bind(v, root, "FETCHER", "fetcher")

	root.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		if lenient, _ := cmd.Flags().GetBool("lenient"); lenient {
			v.Set("MONTH_MODE", "lenient")
		}
	}

	root.AddCommand(
		newFetchCmd(v, opts),
		newServeCmd(v, opts),
		newVersionCmd(info),
	)
	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute(info BuildInfo) int {
	root := NewRootCmd(config.NewViper(), info)
	if err := root.Execute(); err != nil {
		printError(root.ErrOrStderr(), err)
		return 1
	}
	return 0
}

func printError(w io.Writer, err error) {
	red.Fprintf(w, "Error: %v\n", err)
}

func bind(v *viper.Viper, cmd *cobra.Command, key, flag string) {
	if err := v.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", flag, err))
	}
}

// wire loads configuration and builds the app. The returned cleanup must be
// called once the command is done.
func wire(ctx context.Context, v *viper.Viper, opts []bootstrap.Option) (*bootstrap.App, func(), error) {
	cfg, err := config.FromViper(v)
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}

	app, err := bootstrap.New(ctx, cfg, log, opts...)
	if err != nil {
		_ = log.Sync()
		return nil, nil, err
	}

	return app, func() {
		app.Close()
		_ = log.Sync()
	}, nil
}
