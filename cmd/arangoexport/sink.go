package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/arangorest/arangorest-go/transport"
)

// s3Config holds S3 connection settings. Empty fields fall back to the
// default AWS configuration chain.
type s3Config struct {
	region    string
	endpoint  string // S3-compatible endpoint, e.g. MinIO
	accessKey string
	secretKey string
}

// objectPutter is the part of *s3.Client used for uploads.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// sink is an export destination. Close publishes what was written; Abort
// discards it and leaves an existing destination untouched.
type sink interface {
	io.WriteCloser
	Abort() error
}

// openSink returns a sink for dest: "-" for stdout, an s3://bucket/key
// URL, or a local file path.
func openSink(ctx context.Context, dest string, cfg s3Config) (sink, error) {
	switch {
	case dest == "" || dest == "-":
		return stdoutSink{os.Stdout}, nil
	case strings.HasPrefix(dest, "s3://"):
		bucket, key, err := parseS3URL(dest)
		if err != nil {
			return nil, err
		}
		client, err := newS3Client(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &s3Writer{ctx: ctx, client: client, bucket: bucket, key: key}, nil
	default:
		return newFileSink(dest)
	}
}

// stdoutSink streams directly; rows already written cannot be withdrawn.
type stdoutSink struct{ io.Writer }

func (stdoutSink) Close() error { return nil }
func (stdoutSink) Abort() error { return nil }

// fileSink writes to a temporary file next to path and renames it over
// path on Close.
type fileSink struct {
	path string
	tmp  *os.File
	bw   *bufio.Writer
}

func newFileSink(path string) (*fileSink, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return &fileSink{path: path, tmp: tmp, bw: bufio.NewWriter(tmp)}, nil
}

func (f *fileSink) Write(p []byte) (int, error) {
	return f.bw.Write(p)
}

func (f *fileSink) Close() error {
	if err := f.bw.Flush(); err != nil {
		f.Abort()
		return fmt.Errorf("write %s: %w", f.path, err)
	}
	if err := f.tmp.Close(); err != nil {
		os.Remove(f.tmp.Name())
		return fmt.Errorf("write %s: %w", f.path, err)
	}
	if err := os.Rename(f.tmp.Name(), f.path); err != nil {
		os.Remove(f.tmp.Name())
		return fmt.Errorf("publish %s: %w", f.path, err)
	}
	return nil
}

func (f *fileSink) Abort() error {
	f.tmp.Close()
	if err := os.Remove(f.tmp.Name()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// parseS3URL splits s3://bucket/key.
func parseS3URL(url string) (bucket, key string, err error) {
	path := strings.TrimPrefix(url, "s3://")
	parts := strings.SplitN(path, "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid S3 URL: %s", url)
	}
	return parts[0], parts[1], nil
}

func newS3Client(ctx context.Context, cfg s3Config) (*s3.Client, error) {
	var opts []func(*config.LoadOptions) error
	if cfg.region != "" {
		opts = append(opts, config.WithRegion(cfg.region))
	}
	if cfg.accessKey != "" && cfg.secretKey != "" {
		creds := credentials.NewStaticCredentialsProvider(cfg.accessKey, cfg.secretKey, "")
		opts = append(opts, config.WithCredentialsProvider(creds))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if cfg.endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.endpoint)
			o.UsePathStyle = true
		})
	}
	return s3.NewFromConfig(awsCfg, clientOpts...), nil
}

// s3Writer buffers the export and uploads it as one object on Close.
type s3Writer struct {
	ctx    context.Context
	client objectPutter
	bucket string
	key    string
	buf    bytes.Buffer
	closed bool
}

func (w *s3Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, fmt.Errorf("write to closed S3 object %s/%s", w.bucket, w.key)
	}
	return w.buf.Write(p)
}

// Abort drops the buffered export without uploading.
func (w *s3Writer) Abort() error {
	w.closed = true
	w.buf.Reset()
	return nil
}

func (w *s3Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	_, err := w.client.PutObject(w.ctx, &s3.PutObjectInput{
		Bucket:      aws.String(w.bucket),
		Key:         aws.String(w.key),
		Body:        bytes.NewReader(w.buf.Bytes()),
		ContentType: aws.String(transport.ContentTypeNDJSON),
	})
	if err != nil {
		return fmt.Errorf("upload s3://%s/%s: %w", w.bucket, w.key, err)
	}
	return nil
}
