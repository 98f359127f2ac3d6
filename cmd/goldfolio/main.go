package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/toman-labs/goldfolio/internal/database"
	"github.com/toman-labs/goldfolio/internal/env"
	"github.com/toman-labs/goldfolio/internal/portfolio"
	"github.com/toman-labs/goldfolio/internal/price"
	"github.com/toman-labs/goldfolio/internal/route/api"
	"github.com/toman-labs/goldfolio/internal/store"
	"github.com/toman-labs/goldfolio/internal/timeseries"
)

func main() {
	env.LoadEnvironmentVariables()

	conn, err := database.Connect()

	if err != nil {
		log.Fatalf("database connection error: %s\n", err)
	}

	defer conn.Close()

	seriesConn, err := timeseries.Connect()

	if err != nil {
		log.Fatalf("clickhouse connection error: %s\n", err)
	}

	defer seriesConn.Close()

	snapshots := store.NewSnapshots(seriesConn)

	if err := snapshots.EnsureSchema(); err != nil {
		log.Fatalf("snapshot schema error: %s\n", err)
	}

	config := price.ConfigFromEnv()
	var source price.Source

	if config.LiveEnabled {
		source = price.NewWebSource(config.SourceURL)
	}

	service := portfolio.NewService(
		store.NewInvestments(conn),
		snapshots,
		price.NewCache(config, source),
	)

	router := mux.NewRouter().StrictSlash(true)
	api.Register(router, service)

	server := http.Server{
		Addr:    env.String("SERVER_ADDR", ":8000"),
		Handler: router,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %s \n", err)
		}
	}()

	log.Println("Server started")
	<-done

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer func() {
		cancel()
	}()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shut down failed: %+v", err)
	}

	log.Println("Server shut down successfully")
}
