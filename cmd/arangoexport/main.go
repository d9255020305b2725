// Command arangoexport streams the result of an AQL query as
// newline-delimited JSON to stdout, a local file or an S3 object.
//
//	arangoexport -database shop -query 'FOR o IN orders RETURN o' -out s3://backups/orders.ndjson
//
// Credentials come from ARANGO_PASSWORD or ARANGO_TOKEN so they stay out of
// the process list.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arangorest/arangorest-go"
)

func main() {
	endpoint := flag.String("endpoint", "http://localhost:8529", "server endpoint")
	user := flag.String("user", "root", "user for basic auth")
	database := flag.String("database", "_system", "database to query")
	query := flag.String("query", "", "AQL query to export")
	bind := flag.String("bind", "", "bind parameters as a JSON object")
	batch := flag.Int("batch", 1000, "rows per cursor batch")
	out := flag.String("out", "-", "destination: -, a file path or s3://bucket/key")
	timeout := flag.Duration("timeout", 30*time.Second, "per-request timeout")
	region := flag.String("s3-region", "", "S3 region")
	s3Endpoint := flag.String("s3-endpoint", "", "S3-compatible endpoint")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(logger, exportConfig{
		endpoint: *endpoint,
		user:     *user,
		database: *database,
		query:    *query,
		bind:     *bind,
		batch:    *batch,
		out:      *out,
		timeout:  *timeout,
		s3: s3Config{
			region:    *region,
			endpoint:  *s3Endpoint,
			accessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
			secretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		},
	}); err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}
}

type exportConfig struct {
	endpoint string
	user     string
	database string
	query    string
	bind     string
	batch    int
	out      string
	timeout  time.Duration
	s3       s3Config
}

func run(logger *slog.Logger, cfg exportConfig) error {
	if cfg.query == "" {
		return &arangorest.ConfigError{Field: "query", Message: "required"}
	}
	bindVars, err := parseBindVars(cfg.bind)
	if err != nil {
		return err
	}

	opts := []arangorest.Option{
		arangorest.WithEndpoint(cfg.endpoint),
		arangorest.WithDatabase(cfg.database),
		arangorest.WithTimeout(cfg.timeout),
		arangorest.WithLogger(logger),
	}
	if token := os.Getenv("ARANGO_TOKEN"); token != "" {
		opts = append(opts, arangorest.WithBearerToken(token))
	} else {
		opts = append(opts, arangorest.WithBasicAuth(cfg.user, os.Getenv("ARANGO_PASSWORD")))
	}
	client, err := arangorest.New(opts...)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dst, err := openSink(ctx, cfg.out, cfg.s3)
	if err != nil {
		return err
	}

	start := time.Now()
	n, err := exportRows(ctx, client, cfg.query, bindVars, cfg.batch, dst)
	if err != nil {
		if abortErr := dst.Abort(); abortErr != nil {
			logger.Warn("discard partial export", "out", cfg.out, "error", abortErr)
		}
		return err
	}
	if err := dst.Close(); err != nil {
		return err
	}
	logger.Info("export complete", "rows", n, "out", cfg.out, "duration", time.Since(start))
	return nil
}
