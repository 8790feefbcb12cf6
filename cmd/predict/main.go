// Command predict runs a single prediction against fixture-backed sources
// and prints the result as JSON. Useful for trying out weights, baselines
// and match contexts without standing up the server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"

	app "github.com/okian/trundler/internal/app"
	"github.com/okian/trundler/internal/config"
	"github.com/okian/trundler/internal/domain/model"
	"github.com/okian/trundler/pkg/logger"
)

func main() {
	var (
		playerID   = flag.String("player", "", "Player ID to predict for")
		role       = flag.String("role", "batsman", "Player role: batsman, bowler, all_rounder, wicket_keeper")
		homeGame   = flag.Bool("home", false, "Player's team is the home team")
		weatherBat = flag.Float64("weather-batting", 1.0, "Weather batting factor")
		weatherBwl = flag.Float64("weather-bowling", 1.0, "Weather bowling factor")
		venueRuns  = flag.Float64("venue-runs", 1.0, "Venue runs factor")
		venueWkts  = flag.Float64("venue-wickets", 1.0, "Venue wickets factor")
		team       = flag.Float64("team-strength", 0.5, "Team strength in [0,1]")
		opposition = flag.Float64("opposition-strength", 0.5, "Opposition strength in [0,1]")
	)
	flag.Parse()

	if *playerID == "" {
		os.Stderr.WriteString("usage: predict -player <id> [-role <role>] [flags]\n")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	// Keep stdout clean for the JSON result.
	_ = logger.SetLevelString("error")

	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	svc, err := app.FromConfig(cfg, app.WithWarmer(nil))
	if err != nil {
		os.Stderr.WriteString("failed to build engine: " + err.Error() + "\n")
		os.Exit(1)
	}

	mctx := model.NewMatchContext()
	mctx.IsHomeGame = *homeGame
	mctx.WeatherBattingFactor = *weatherBat
	mctx.WeatherBowlingFactor = *weatherBwl
	mctx.VenueRunsFactor = *venueRuns
	mctx.VenueWicketsFactor = *venueWkts
	mctx.TeamStrength = *team
	mctx.OppositionStrength = *opposition

	result, err := svc.Predict(ctx, *playerID, *role, mctx)
	if err != nil {
		os.Stderr.WriteString("prediction failed: " + err.Error() + "\n")
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		os.Stderr.WriteString("encoding result failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
