// sikekat generates NIST-style known answer test files for SIKEp434 and
// checks existing ones against this implementation.
package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

const (
	flagLogLevel = "loglevel"
	flagHash     = "hash"
	flagWorkers  = "workers"
	flagCount    = "count"
	flagOut      = "out"
	flagIn       = "in"
)

func main() {
	app := newApp(os.Stdout, colorable.NewColorableStderr())
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(app.ErrWriter, "%s\n", err)
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	app := &cli.App{}
	app.Name = "sikekat"
	app.Usage = "SIKEp434 known answer tests"
	app.Writer = stdout
	app.ErrWriter = stderr
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    flagLogLevel,
			Value:   "info",
			Usage:   "Application logging level {debug, info, warn, error}",
			EnvVars: []string{"SIKEKAT_LOGLEVEL"},
		},
	}
	app.Commands = []*cli.Command{
		{
			Name:      "generate",
			Usage:     "Write a response file with fresh KAT records",
			UsageText: "sikekat generate [--count N] [--out FILE]",
			Action:    generateCommand,
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  flagCount,
					Value: 100,
					Usage: "Number of records",
				},
				&cli.StringFlag{
					Name:  flagOut,
					Value: "-",
					Usage: "Output file, - for stdout",
				},
				hashFlag(),
				workersFlag(),
			},
		},
		{
			Name:      "verify",
			Usage:     "Check every record of a response file",
			UsageText: "sikekat verify --in FILE",
			Action:    verifyCommand,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     flagIn,
					Usage:    "Response file to check",
					Required: true,
				},
				hashFlag(),
				workersFlag(),
			},
		},
	}
	return app
}

func hashFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  flagHash,
		Value: string(hashSHAKE256),
		Usage: "KEM hash function {shake256, sha256}",
	}
}

func workersFlag() cli.Flag {
	return &cli.IntFlag{
		Name:  flagWorkers,
		Value: runtime.NumCPU(),
		Usage: "Records processed in parallel",
	}
}

func createLogger(c *cli.Context) *zerolog.Logger {
	level, levelErr := zerolog.ParseLevel(c.String(flagLogLevel))
	if levelErr != nil {
		level = zerolog.InfoLevel
	}
	writer := zerolog.ConsoleWriter{
		Out:        c.App.ErrWriter,
		TimeFormat: time.RFC3339,
	}
	// Records are logged from several goroutines.
	log := zerolog.New(zerolog.SyncWriter(writer)).With().Timestamp().Logger().Level(level)
	return &log
}

func generateCommand(c *cli.Context) error {
	log := createLogger(c)
	h, err := parseHashVariant(c.String(flagHash))
	if err != nil {
		return err
	}
	n := c.Int(flagCount)
	if n < 0 {
		return errors.Errorf("--%s must not be negative", flagCount)
	}

	ss, err := seeds(n)
	if err != nil {
		return err
	}
	records := make([]record, n)
	for i := range records {
		records[i] = record{count: i, seed: ss[i]}
	}

	start := time.Now()
	err = forEachRecord(c, records, func(r *record) error {
		if err := compute(r, h); err != nil {
			return err
		}
		log.Debug().Int("count", r.count).Msg("Generated record")
		return nil
	})
	if err != nil {
		return err
	}

	if path := c.String(flagOut); path != "-" {
		err = writeFile(path, h, records)
	} else {
		err = writeRecords(c.App.Writer, h, records)
	}
	if err != nil {
		return err
	}
	log.Info().Int("records", n).Str("hash", string(h)).Dur("elapsed", time.Since(start)).Msg("Generation finished")
	return nil
}

// writeFile writes the records to path, replacing any existing file.
func writeFile(path string, h hashVariant, records []record) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrapf(err, "cannot open output file %q", path)
	}
	if err := writeRecords(f, h, records); err != nil {
		f.Close()
		return err
	}
	return errors.Wrapf(f.Close(), "closing output file %q", path)
}

func verifyCommand(c *cli.Context) error {
	log := createLogger(c)
	h, err := parseHashVariant(c.String(flagHash))
	if err != nil {
		return err
	}

	path := c.String(flagIn)
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "cannot open response file %q", path)
	}
	defer f.Close()

	records, err := readRecords(f)
	if err != nil {
		return errors.Wrapf(err, "parsing %q", path)
	}
	if len(records) == 0 {
		return errors.Errorf("%q holds no records", path)
	}

	start := time.Now()
	err = forEachRecord(c, records, func(r *record) error {
		if err := verify(r, h); err != nil {
			log.Error().Err(err).Int("count", r.count).Msg("Record mismatch")
			return err
		}
		log.Debug().Int("count", r.count).Msg("Record verified")
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "verifying %q", path)
	}
	log.Info().Int("records", len(records)).Str("file", path).Dur("elapsed", time.Since(start)).Msg("All records match")
	return nil
}

// forEachRecord runs fn on every record with at most --workers calls in
// flight. The first error cancels the records not yet started.
func forEachRecord(c *cli.Context, records []record, fn func(*record) error) error {
	workers := c.Int(flagWorkers)
	if workers < 1 {
		workers = 1
	}
	g, ctx := errgroup.WithContext(c.Context)
	g.SetLimit(workers)
	for i := range records {
		r := &records[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(r)
		})
	}
	return g.Wait()
}
