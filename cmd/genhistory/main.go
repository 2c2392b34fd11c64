// Command genhistory seeds a bunplan history database with synthetic daily
// records: a demo outlet's two years (or any span) of bun consumption with
// weekly, seasonal, and weather-driven patterns.
//
// Usage:
//
//	genhistory -db=data/bunplan.db -days=730 -start=2024-01-01 -seed=7
package main

import (
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"github.com/zkovac/bunplan/pkg/history"
)

func main() {
	dbPath := flag.String("db", "data/bunplan.db", "path to the SQLite history database")
	days := flag.Int("days", 730, "number of consecutive days to generate")
	startStr := flag.String("start", "", "first day (YYYY-MM-DD, default: days ago from today)")
	seed := flag.Uint64("seed", 7, "generator seed")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	start := time.Now().AddDate(0, 0, -*days)
	if *startStr != "" {
		parsed, err := time.Parse("2006-01-02", *startStr)
		if err != nil {
			log.Error("invalid start date", "start", *startStr, "error", err)
			os.Exit(1)
		}
		start = parsed
	}
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)

	db, err := sql.Open("sqlite", *dbPath)
	if err != nil {
		log.Error("failed to open database", "path", *dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	store := history.New(db)
	if err := store.Migrate(); err != nil {
		log.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	records := history.Generate(start, *days, *seed)
	if err := store.UpsertBatch(records); err != nil {
		log.Error("failed to write records", "error", err)
		os.Exit(1)
	}

	log.Info("seeded history database",
		"path", *dbPath,
		"days", *days,
		"from", records[0].Date.Format("2006-01-02"),
		"to", records[len(records)-1].Date.Format("2006-01-02"),
	)
}
