// A terminal chat client for the portfolio commands.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/toman-labs/goldfolio/internal/bot"
	"github.com/toman-labs/goldfolio/internal/database"
	"github.com/toman-labs/goldfolio/internal/env"
	"github.com/toman-labs/goldfolio/internal/portfolio"
	"github.com/toman-labs/goldfolio/internal/price"
	"github.com/toman-labs/goldfolio/internal/store"
	"github.com/toman-labs/goldfolio/internal/timeseries"
)

func savePNG(data []byte) (string, error) {
	file, err := os.CreateTemp("", "portfolio-*.png")

	if err != nil {
		return "", err
	}

	defer file.Close()

	if _, err := file.Write(data); err != nil {
		return "", err
	}

	return file.Name(), nil
}

func main() {
	userID := flag.Int64("user", 0, "the user ID to act as")
	flag.Parse()

	if *userID <= 0 {
		fmt.Fprintf(os.Stderr, "A positive -user ID is required\n")
		os.Exit(1)
	}

	env.LoadEnvironmentVariables()

	conn, err := database.Connect()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %s\n", err)
		os.Exit(1)
	}

	defer conn.Close()

	seriesConn, err := timeseries.Connect()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %s\n", err)
		os.Exit(1)
	}

	defer seriesConn.Close()

	config := price.ConfigFromEnv()
	var source price.Source

	if config.LiveEnabled {
		source = price.NewWebSource(config.SourceURL)
	}

	handler := bot.Handler{
		Service: portfolio.NewService(
			store.NewInvestments(conn),
			store.NewSnapshots(seriesConn),
			price.NewCache(config, source),
		),
	}

	scanner := bufio.NewScanner(os.Stdin)

	for scanner.Scan() {
		reply := handler.Handle(*userID, scanner.Text())
		fmt.Println(reply.Text)

		if reply.ChartPNG != nil {
			if filename, err := savePNG(reply.ChartPNG); err == nil {
				fmt.Printf("Chart saved: %s\n", filename)
			}
		}
	}
}
