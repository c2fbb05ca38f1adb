package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/user/dsnval-service/internal/bootstrap"
	"github.com/user/dsnval-service/internal/delivery/http/server"
)

func newServeCmd(v *viper.Viper, opts []bootstrap.Option) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the releases as JSON over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, cleanup, err := wire(cmd.Context(), v, opts)
			if err != nil {
				return err
			}
			defer cleanup()

			srv := server.New(app.Config.ServerPort(), app.Handler(), app.Logger)
			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().String("port", "", "listening port (default from PORT, else 8000)")
	if err := v.BindPFlag("PORT", cmd.Flags().Lookup("port")); err != nil {
		panic(err)
	}
	return cmd
}
