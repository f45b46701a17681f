package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ayusman/skipspot/internal/playback"
	"github.com/ayusman/skipspot/internal/store"
)

var authForce bool

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize skipspot with your Spotify account",
	Long: `Check the saved Spotify token against the API and run the browser
authorization flow when there is none or it was rejected. The token is kept
in the local database.

Client credentials come from credentials.json (playback.credentials in the
config) or SPOTIFY_CLIENT_ID, SPOTIFY_CLIENT_SECRET and SPOTIFY_REDIRECT_URI.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		st, err := store.New(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()

		auth, err := newAuthenticator(ctx, cfg, st)
		if err != nil {
			return err
		}
		if authForce {
			if err := auth.Authorize(ctx); err != nil {
				return err
			}
		}

		client := playback.NewSpotifyClient(auth.HTTPClient(ctx), playback.DefaultAPIBase)
		user, err := auth.Verify(ctx, client)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Authenticated as %s (%s)\n", styles.Key.Render(user.DisplayName), user.ID)
		if user.Product != "premium" {
			fmt.Fprintln(out, styles.Warn.Render("Playback control requires a Spotify Premium account."))
		}
		return nil
	},
}

func init() {
	authCmd.Flags().BoolVar(&authForce, "force", false, "authorize again even if a token is saved")
	rootCmd.AddCommand(authCmd)
}
