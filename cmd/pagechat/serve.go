package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ChamsBouzaiene/pagechat/internal/config"
	"github.com/ChamsBouzaiene/pagechat/internal/server"
)

var (
	servePage pageFlags
	serveAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve the chat chain over HTTP. A browser extension can POST page HTML to
/v1/extract or protocol messages to /v1/messages; /v1/chat runs the full chain
against --url. Changes to config.json are picked up without a restart for
model, max_tokens, temperature, context_budget and settle_ms. Provider,
base_url, page source and db_path changes need a restart.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		env, err := prepareRuntimeEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		loader := env.loader(servePage)
		controller := env.controller(ctx, loader)
		if _, err := controller.Open(ctx); err != nil {
			return err
		}

		watcher, err := config.NewWatcher(env.ConfigManager, env.applyConfig)
		if err != nil {
			log.Printf("⚠️  Config hot reload disabled: %v", err)
		} else if err := watcher.Start(); err != nil {
			log.Printf("⚠️  Config hot reload disabled: %v", err)
		} else {
			defer watcher.Stop()
		}

		srv := server.New(server.Config{
			Messages:    env.router(loader),
			Controller:  controller,
			Sessions:    env.Sessions,
			Credentials: env.Credentials,
			Logger:      env.Logger,
		})

		httpServer := &http.Server{
			Addr:              serveAddr,
			Handler:           srv.Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Printf("🚀 Listening on %s", serveAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		log.Println("🛑 Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	},
}

func init() {
	servePage.register(serveCmd.Flags())
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8787", "Address to listen on")
	rootCmd.AddCommand(serveCmd)
}
