package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/user/dsnval-service/internal/bootstrap"
	"github.com/user/dsnval-service/internal/entity"
	"go.uber.org/zap"
)

func newFetchCmd(v *viper.Viper, opts []bootstrap.Option) *cobra.Command {
	var (
		pretty  bool
		noCache bool
		format  string
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Print the selected release(s) and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != "json" && format != "text" {
				return fmt.Errorf("unknown format %q (want json or text)", format)
			}

			// One-shot runs stay quiet unless asked otherwise.
			v.SetDefault("LOG_LEVEL", "warn")
			v.SetDefault("LOG_FORMAT", "console")
			if noCache {
				v.Set("CACHE_ENABLED", false)
			}

			app, cleanup, err := wire(cmd.Context(), v, opts)
			if err != nil {
				return err
			}
			defer cleanup()

			set, err := app.Releases.Releases(cmd.Context())
			if err != nil {
				return err
			}
			app.Logger.Named("cli").Debug("releases fetched", zap.Int("releases", len(set.Releases)))

			if format == "text" {
				return writeText(cmd.OutOrStdout(), set)
			}
			return writeJSON(cmd.OutOrStdout(), set, pretty)
		},
	}

	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent JSON output")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the release cache")
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or text")
	return cmd
}

func writeJSON(w io.Writer, set *entity.ReleaseSet, pretty bool) error {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(set, "", "  ")
	} else {
		data, err = json.Marshal(set)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func writeText(w io.Writer, set *entity.ReleaseSet) error {
	var b strings.Builder
	for i, r := range set.Releases {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "version: %s\ndate: %s\nurl: %s\n", r.BuildID, r.ReleaseDate, r.DownloadURL)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
