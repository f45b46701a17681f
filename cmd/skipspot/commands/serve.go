package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ayusman/skipspot/internal/app"
	"github.com/ayusman/skipspot/internal/config"
	"github.com/ayusman/skipspot/internal/log"
	"github.com/ayusman/skipspot/internal/server"
	"github.com/ayusman/skipspot/internal/tray"
)

var (
	serveAddr   string
	serveStatic string
	serveMode   string
	trayServe   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the local status page and mode switch",
	Long: `Serve /api/health, /api/status, /api/mode, /api/references and the
/api/events websocket. Modes are switched with POST /api/mode.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		rt, err := newRuntime(ctx, cfg)
		if err != nil {
			return err
		}
		defer rt.Close()

		a := rt.newApp()
		defer a.Stop()

		if serveMode != "" {
			mode, err := app.ParseMode(serveMode)
			if err != nil {
				return err
			}
			if err := a.SwitchMode(ctx, mode); err != nil {
				return err
			}
		}

		srv, err := newServer(ctx, cfg, rt, a)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", listenAddr(cfg))
		return srv.Run(ctx, listenAddr(cfg))
	},
}

var trayCmd = &cobra.Command{
	Use:   "tray",
	Short: "Switch modes from the system tray",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		rt, err := newRuntime(ctx, cfg)
		if err != nil {
			return err
		}
		defer rt.Close()

		a := rt.newApp()
		defer a.Stop()

		tr := tray.New()
		tr.OnMode(func(mode app.Mode) {
			if err := a.SwitchMode(ctx, mode); err != nil {
				log.Warn("mode switch failed", "mode", mode, "error", err)
			}
		})
		tr.OnQuit(cancel)
		go tr.Follow(ctx, rt.hub)

		if trayServe {
			srv, err := newServer(ctx, cfg, rt, a)
			if err != nil {
				return err
			}
			go func() {
				if err := srv.Run(ctx, listenAddr(cfg)); err != nil {
					log.Error("status server stopped", "error", err)
				}
			}()
		}

		go func() {
			<-ctx.Done()
			tr.Quit()
		}()
		tr.Run()
		return nil
	},
}

func newServer(ctx context.Context, cfg *config.Config, rt *runtime, a *app.App) (*server.Server, error) {
	trainer, err := newTrainer(cfg)
	if err != nil {
		return nil, err
	}
	return server.New(server.Config{
		StaticDir: serveStatic,
		App:       a,
		Store:     rt.store,
		Trainer:   trainer,
		Context:   ctx,
	}), nil
}

func listenAddr(cfg *config.Config) string {
	if serveAddr != "" {
		return serveAddr
	}
	return cfg.Server.Addr
}

func init() {
	for _, c := range []*cobra.Command{serveCmd, trayCmd} {
		c.Flags().StringVar(&serveAddr, "addr", "", "listen address (default server.addr)")
		c.Flags().StringVar(&serveStatic, "static", "", "directory of static files to serve at /")
	}
	serveCmd.Flags().StringVar(&serveMode, "mode", "", "mode to start in: idle, gesture or voice")
	trayCmd.Flags().BoolVar(&trayServe, "serve", false, "also serve the status page")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(trayCmd)
}
