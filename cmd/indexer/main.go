// Package main is the entry point for the one-shot graph indexer. It builds
// a snapshot from a records file or from Overpass, prints a summary and the
// rankings for one mode, and can write the snapshot to disk.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/onnwee/poigraph/internal/archive"
	"github.com/onnwee/poigraph/internal/auth"
	"github.com/onnwee/poigraph/internal/config"
	"github.com/onnwee/poigraph/internal/graph"
	"github.com/onnwee/poigraph/internal/middleware"
	"github.com/onnwee/poigraph/internal/overpass"
	"github.com/onnwee/poigraph/internal/poi"
	"github.com/onnwee/poigraph/internal/ranking"
)

// options are the parsed command line flags.
type options struct {
	recordsPath string
	outPath     string
	mode        string
	tokenFor    string
	tokenTTL    time.Duration
}

func main() {
	help := flag.Bool("help", false, "display help message")
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to YAML config file (env overrides it)")
	var opts options
	flag.StringVar(&opts.recordsPath, "records", "", "read raw records from this JSON file instead of Overpass")
	flag.StringVar(&opts.outPath, "out", "", "write the snapshot as JSON to this file (gzipped if it ends in .gz)")
	flag.StringVar(&opts.mode, "mode", string(ranking.ModeBalanced), "ranking mode: "+modeList())
	flag.StringVar(&opts.tokenFor, "token", "", "print an admin token for this subject and exit")
	flag.DurationVar(&opts.tokenTTL, "token-ttl", auth.DefaultTokenExpiry, "lifetime of the token printed by -token")
	flag.Parse()

	if *help {
		fmt.Println("POI Graph Indexer")
		fmt.Println()
		fmt.Println("Usage: indexer [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			slog.Error("invalid configuration", "error", err)
		}
		os.Exit(1)
	}

	// stdout carries the report or the token.
	logger := middleware.NewLoggerTo(os.Stderr, cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts, os.Stdout, logger); err != nil {
		logger.Error("indexer failed", "error", err)
		os.Exit(1)
	}
}

func modeList() string {
	names := make([]string, 0, len(ranking.Modes()))
	for _, m := range ranking.Modes() {
		names = append(names, string(m))
	}
	return strings.Join(names, ", ")
}

func run(ctx context.Context, cfg *config.Config, opts options, stdout io.Writer, logger *slog.Logger) error {
	if opts.tokenFor != "" {
		if cfg.JWTSecret == "" {
			return errors.New("JWT_SECRET is required to mint a token")
		}
		token, err := auth.NewJWTService(cfg.JWTSecret, "").GenerateAdminToken(opts.tokenFor, opts.tokenTTL)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, token)
		return err
	}

	mode, err := ranking.ParseMode(opts.mode)
	if err != nil {
		return err
	}
	if err := cfg.Graph.Validate(); err != nil {
		return fmt.Errorf("invalid graph config: %w", err)
	}

	var records []poi.RawRecord
	if opts.recordsPath != "" {
		records, err = readRecords(opts.recordsPath)
	} else {
		records, err = overpass.NewClient(cfg.OverpassConfig(), logger).Fetch(ctx)
	}
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return errors.New("no records to index")
	}

	start := time.Now()
	snap := graph.Derive(records, cfg.Graph)
	if err := snap.Validate(); err != nil {
		return fmt.Errorf("derived snapshot is invalid: %w", err)
	}
	logger.Info("snapshot derived",
		"snapshot_id", snap.ID,
		"records", len(records),
		"entities", len(snap.Entities),
		"edges", len(snap.Edges),
		"duration_ms", time.Since(start).Milliseconds())

	weights, _ := ranking.LoadCalibration(cfg.RankingCalibrationPath)
	results, err := ranking.Rank(snap.Entities, snap.Edges, mode, weights)
	if err != nil {
		return err
	}

	if err := writeReport(stdout, snap, mode, results); err != nil {
		return err
	}

	if opts.outPath != "" {
		if err := writeSnapshot(opts.outPath, snap); err != nil {
			return err
		}
		logger.Info("snapshot written", "path", opts.outPath)
	}
	return nil
}

// readRecords accepts either a bare JSON array of records or an object with
// a "records" array, the body POST /internal/snapshots takes.
func readRecords(path string) ([]poi.RawRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read records file: %w", err)
	}
	return decodeRecords(data)
}

func decodeRecords(data []byte) ([]poi.RawRecord, error) {
	data = bytes.TrimSpace(data)
	var records []poi.RawRecord
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("failed to parse records: %w", err)
		}
		return records, nil
	}

	var wrapped struct {
		Records []poi.RawRecord `json:"records"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to parse records: %w", err)
	}
	return wrapped.Records, nil
}

func writeReport(w io.Writer, snap *graph.Snapshot, mode ranking.Mode, results []ranking.Result) error {
	stats := snap.Stats()
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "snapshot\t%s\n", snap.ID)
	fmt.Fprintf(tw, "entities\t%d\n", stats.Entities)
	for _, c := range poi.Classes() {
		fmt.Fprintf(tw, "  %s\t%d\n", c, stats.ByClass[c])
	}
	fmt.Fprintf(tw, "edges\t%d\n", stats.Edges)
	for _, l := range graph.Labels() {
		fmt.Fprintf(tw, "  %s\t%d\n", l, stats.ByLabel[l])
	}
	fmt.Fprintf(tw, "\nrank\tid\tname\tscore\ttransit\tculture\t(%s)\n", mode)
	for i, r := range results {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%g\t%d\t%d\n", i+1, r.Entity.ID, r.Entity.Name, r.Score, r.Counts.Transit, r.Counts.Culture)
	}
	if len(results) == 0 {
		fmt.Fprintln(tw, "-\tno hotel scored above zero")
	}
	return tw.Flush()
}

func writeSnapshot(path string, snap *graph.Snapshot) error {
	var (
		data []byte
		err  error
	)
	if strings.HasSuffix(path, ".gz") {
		data, err = archive.Encode(snap)
	} else {
		data, err = json.MarshalIndent(snap, "", "  ")
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}
