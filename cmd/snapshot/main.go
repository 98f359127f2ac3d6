// Record a valuation snapshot for every user with recorded transactions.
//
// Run this from cron to build up the portfolio time series.
package main

import (
	"fmt"
	"os"

	"github.com/toman-labs/goldfolio/internal/database"
	"github.com/toman-labs/goldfolio/internal/env"
	"github.com/toman-labs/goldfolio/internal/model"
	"github.com/toman-labs/goldfolio/internal/portfolio"
	"github.com/toman-labs/goldfolio/internal/price"
	"github.com/toman-labs/goldfolio/internal/store"
	"github.com/toman-labs/goldfolio/internal/timeseries"
)

func run() error {
	env.LoadEnvironmentVariables()

	conn, err := database.Connect()

	if err != nil {
		return err
	}

	defer conn.Close()

	seriesConn, err := timeseries.Connect()

	if err != nil {
		return err
	}

	defer seriesConn.Close()

	investments := store.NewInvestments(conn)
	snapshots := store.NewSnapshots(seriesConn)

	if err := snapshots.EnsureSchema(); err != nil {
		return err
	}

	config := price.ConfigFromEnv()
	var source price.Source

	if config.LiveEnabled {
		source = price.NewWebSource(config.SourceURL)
	}

	service := portfolio.NewService(investments, snapshots, price.NewCache(config, source))

	userIDs, err := investments.ListUserIDs()

	if err != nil {
		return err
	}

	batch := make([]model.Snapshot, 0, len(userIDs))

	for _, userID := range userIDs {
		snapshot, err := service.BuildSnapshot(userID)

		if err != nil {
			return err
		}

		batch = append(batch, *snapshot)
	}

	return snapshots.AppendSnapshots(batch)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Snapshot error: %s\n", err)
		os.Exit(1)
	}
}
