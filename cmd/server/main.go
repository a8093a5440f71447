package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sqlite-browser [root-dir]",
	Short: "Browse SQLite databases behind an OAuth2 login",
	Long: `sqlite-browser serves every *.db and *.sqlite file under root-dir (or $FOLDER)
to browser sessions that have signed in with the configured identity provider.

Provider settings come from the environment:
  OAUTH_CLIENT_ID, OAUTH_CLIENT_SECRET, OAUTH_AUTHORIZE_URL,
  OAUTH_TOKEN_URL, OAUTH_PROFILE_URL, OAUTH_POST_LOGIN_URL`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		var folder string
		if len(args) == 1 {
			folder = args[0]
		}
		return run(cmd.Context(), folder)
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		log.Error().Err(err).Msg("Error running server")
		os.Exit(1)
	}
	log.Info().Msg("Server stopped")
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
