package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeongseonghan/linecode/internal/server"
)

var (
	serveAddr   string
	serveStatic string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web interface and JSON API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "server address (default from config)")
	serveCmd.Flags().StringVar(&serveStatic, "static-dir", "", "static web directory (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}
	staticDir := serveStatic
	if staticDir == "" {
		staticDir = cfg.Server.StaticDir
	}

	// Create handlers and server
	handlers := server.NewHandlers(cfg)
	srv := server.NewServer(addr, handlers, staticDir)

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-sigCh:
		fmt.Println("\nShutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Shutdown error: %v", err)
			return err
		}
		return nil
	}
}
