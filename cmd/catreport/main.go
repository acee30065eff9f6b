// Command catreport reads runs saved by catsim's SQL store and prints their
// population history, the life of a single cat, or renders the history as
// audio.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/talgya/catsim/internal/persistence"
	"github.com/talgya/catsim/internal/sonify"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		slog.Error("catreport failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("catreport", flag.ContinueOnError)
	driver := fs.String("driver", envOrDefault("CATSIM_DB_DRIVER", "sqlite"), "sqlite or postgres")
	dsn := fs.String("dsn", envOrDefault("CATSIM_DSN", "data/catsim.db"), "sqlite path or postgres connection string")
	runID := fs.String("run", "", "run id (default: the newest run)")
	list := fs.Bool("list", false, "list recorded runs")
	catID := fs.Int64("cat", 0, "print the history of one cat")
	wavPath := fs.String("sonify", "", "write the population history as a WAV file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	db, err := persistence.OpenSQL(*driver, *dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.Runs()
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		return fmt.Errorf("no runs in %s", *dsn)
	}
	if *list {
		printRuns(out, runs)
		return nil
	}

	selected := runs[0]
	if *runID != "" {
		found := false
		for _, r := range runs {
			if r.ID == *runID {
				selected, found = r, true
				break
			}
		}
		if !found {
			return fmt.Errorf("run %s not found", *runID)
		}
	}

	if *catID > 0 {
		rows, err := db.CatHistory(selected.ID, *catID)
		if err != nil {
			return fmt.Errorf("cat history: %w", err)
		}
		printCat(out, *catID, rows)
		return nil
	}

	ticks, err := db.Ticks(selected.ID)
	if err != nil {
		return fmt.Errorf("tick history: %w", err)
	}
	if *wavPath != "" {
		return writeWAV(out, *wavPath, ticks)
	}
	printHistory(out, selected, ticks)
	printOutcome(out, db, selected.ID)
	return nil
}

func printRuns(out io.Writer, runs []persistence.Run) {
	for _, r := range runs {
		fmt.Fprintf(out, "%s  started %s  seed %d  %dx%d  %s cats  %s steps\n",
			r.ID, r.StartedAt, r.Seed, r.Width, r.Height,
			humanize.Comma(int64(r.Population)), humanize.Comma(int64(r.Steps)))
	}
}

// printHistory prints one line per saved tick with a bar of the population.
func printHistory(out io.Writer, run persistence.Run, ticks []persistence.TickRow) {
	fmt.Fprintf(out, "Run %s (seed %d, %dx%d)\n", run.ID, run.Seed, run.Width, run.Height)
	peak := run.Population
	var births, deaths, attacks int
	var food float64
	for _, t := range ticks {
		peak = max(peak, t.Population)
		births += t.Births
		deaths += t.Deaths
		attacks += t.Attacks
		food += t.FoodEaten
	}

	const barWidth = 40
	for _, t := range ticks {
		bar := 0
		if peak > 0 {
			bar = t.Population * barWidth / peak
		}
		fmt.Fprintf(out, "%6d  %02d:00  %5.1f°C  %5d %-*s  +%d -%d\n",
			t.Step, t.Hour, t.Temperature, t.Population, barWidth, strings.Repeat("#", bar), t.Births, t.Deaths)
	}
	fmt.Fprintf(out, "%s ticks, %s births, %s deaths, %s attacks, %s food eaten\n",
		humanize.Comma(int64(len(ticks))), humanize.Comma(int64(births)), humanize.Comma(int64(deaths)),
		humanize.Comma(int64(attacks)), humanize.FormatFloat("#,###.#", food))
}

// printOutcome prints how the run ended, when catsim recorded it.
func printOutcome(out io.Writer, db *persistence.SQLStore, runID string) {
	outcome, err := db.GetMeta(runID, "outcome")
	if err != nil {
		return
	}
	step, _ := db.GetMeta(runID, "final_step")
	population, _ := db.GetMeta(runID, "final_population")
	fmt.Fprintf(out, "Run %s at step %s with %s cats alive.\n", outcome, step, population)
	if from, err := db.GetMeta(runID, "resumed_from"); err == nil {
		fmt.Fprintf(out, "Resumed from run %s.\n", from)
	}
}

func printCat(out io.Writer, id int64, rows []persistence.CatRow) {
	if len(rows) == 0 {
		fmt.Fprintf(out, "cat %d never seen on the grid\n", id)
		return
	}
	first := rows[0]
	fmt.Fprintf(out, "cat %d: %s, personality %s\n", id, first.Gender, first.Personality)
	for _, r := range rows {
		pregnant := ""
		if r.Pregnant {
			pregnant = "  pregnant"
		}
		fmt.Fprintf(out, "%6d  (%d,%d)  %-8s  health %6.2f  age %.3f%s\n",
			r.Step, r.X, r.Y, r.State, r.Health, r.Age, pregnant)
	}
}

func writeWAV(out io.Writer, path string, ticks []persistence.TickRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	history := make([]sonify.Tick, len(ticks))
	for i, t := range ticks {
		history[i] = sonify.Tick{Population: t.Population, Deaths: t.Deaths}
	}
	if err := sonify.Encode(f, history, sonify.DefaultOptions()); err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "wrote %s (%s, %d ticks)\n", path, humanize.Bytes(uint64(info.Size())), len(ticks))
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
