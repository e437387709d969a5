package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/aretw0/espalier/internal/adapters/file"
	httpAdapter "github.com/aretw0/espalier/internal/adapters/http"
	"github.com/aretw0/espalier/internal/adapters/memory"
	redisAdapter "github.com/aretw0/espalier/internal/adapters/redis"
	"github.com/aretw0/espalier/internal/library"
	"github.com/aretw0/espalier/pkg/ports"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the read-only inspection server",
	Long:  `Serves the plan library, live session snapshots and Prometheus metrics over HTTP.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runServe(cmd); err != nil {
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().String("store", "memory", "Session store backend (memory, file, redis)")
	serveCmd.Flags().String("state-dir", "", "Session directory for the file store")
	serveCmd.Flags().String("redis-addr", "localhost:6379", "Redis address for the redis store")
	serveCmd.Flags().String("redis-password", "", "Redis password")
	serveCmd.Flags().Int("redis-db", 0, "Redis database number")
}

func buildStore(cmd *cobra.Command) (ports.StateStore, error) {
	kind, _ := cmd.Flags().GetString("store")
	switch kind {
	case "memory":
		return memory.NewStore(), nil
	case "file":
		dir, _ := cmd.Flags().GetString("state-dir")
		return file.NewStore(dir), nil
	case "redis":
		addr, _ := cmd.Flags().GetString("redis-addr")
		password, _ := cmd.Flags().GetString("redis-password")
		db, _ := cmd.Flags().GetInt("redis-db")
		return redisAdapter.New(addr, password, db), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", kind)
	}
}

func runServe(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("library")
	port, _ := cmd.Flags().GetString("port")

	lib, err := library.Load(path)
	if err != nil {
		return err
	}
	store, err := buildStore(cmd)
	if err != nil {
		return err
	}

	logger := newLogger(cmd)
	handler := httpAdapter.NewServer(lib, store,
		httpAdapter.WithLogger(logger),
		httpAdapter.WithGatherer(prometheus.DefaultGatherer),
	)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: handler,
	}

	serverErrors := make(chan error, 1)
	go func() {
		fmt.Printf("Starting Espalier inspection server on %s\n", srv.Addr)
		fmt.Printf("Serving %d plans from: %s\n", lib.Len(), path)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return err

	case sig := <-shutdown:
		fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("killing server: %w", err)
			}
		}
		fmt.Println("Espalier server stopped gracefully")
	}
	return nil
}
