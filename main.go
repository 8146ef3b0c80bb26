package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/infinitepl/infinite/config"
	"github.com/infinitepl/infinite/internal/api"
	"github.com/infinitepl/infinite/internal/app"
	"github.com/infinitepl/infinite/internal/webserver"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "infinite",
	Short: "Infinite foam products shop backend",
	RunE:  runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the api server",
	RunE:  runServe,
}

var initdbCmd = &cobra.Command{
	Use:   "initdb",
	Short: "Drop and recreate all tables, then seed defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := setup()
		if err != nil {
			return err
		}
		defer application.Release()
		application.InitDb()
		zap.S().Info("database initialized")
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Auto-migrate the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := setup()
		if err != nil {
			return err
		}
		defer application.Release()
		return application.MigrateDB(true)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config yaml file")
	rootCmd.AddCommand(serveCmd, initdbCmd, migrateCmd)
}

func setup() (*app.Application, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, err
	}
	application := app.NewApplication(cfg)
	application.Init(cfg)
	return application, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	application, err := setup()
	if err != nil {
		return err
	}
	defer application.Release()

	api.Init()
	server := webserver.NewWebServer(application)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-ctx.Done()
		zap.S().Info("shutting down web server")
		sctx, cancel := webserver.ShutdownTimeout()
		defer cancel()
		return server.Shutdown(sctx)
	})
	return g.Wait()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
