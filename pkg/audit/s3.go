package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Client is the subset of the S3 API the sink needs.
// *s3.Client satisfies it.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink batches events and uploads them as JSON-lines objects.
//
// Example usage:
//
//	cfg, _ := config.LoadDefaultConfig(context.Background())
//	sink := audit.NewS3Sink(s3.NewFromConfig(cfg), "my-bucket", "auth-audit/")
//	defer sink.Close()
type S3Sink struct {
	upload   s3Uploader
	interval time.Duration
	maxBatch int

	mu     sync.Mutex
	buf    []Event
	seq    int
	closed bool
	done   chan struct{}
	wg     sync.WaitGroup
}

type s3Uploader func(ctx context.Context, key string, body []byte) error

// S3SinkOption configures S3Sink behavior.
type S3SinkOption func(*s3SinkConfig)

type s3SinkConfig struct {
	interval time.Duration
	maxBatch int
}

// WithFlushInterval sets how often buffered events are uploaded.
// Default: 1 minute.
func WithFlushInterval(d time.Duration) S3SinkOption {
	return func(c *s3SinkConfig) {
		c.interval = d
	}
}

// WithMaxBatch sets the event count that forces an immediate upload.
// Default: 500.
func WithMaxBatch(n int) S3SinkOption {
	return func(c *s3SinkConfig) {
		c.maxBatch = n
	}
}

// NewS3Sink creates a sink uploading to the given bucket under the key
// prefix (e.g. "auth-audit/").
func NewS3Sink(client S3Client, bucket, prefix string, opts ...S3SinkOption) *S3Sink {
	upload := func(ctx context.Context, key string, body []byte) error {
		_, err := client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(bucket),
			Key:         aws.String(prefix + key),
			Body:        bytes.NewReader(body),
			ContentType: aws.String("application/x-ndjson"),
		})
		if err != nil {
			return fmt.Errorf("audit upload failed: %w", err)
		}
		return nil
	}
	return newS3Sink(upload, opts...)
}

func newS3Sink(upload s3Uploader, opts ...S3SinkOption) *S3Sink {
	cfg := &s3SinkConfig{
		interval: 1 * time.Minute,
		maxBatch: 500,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	sink := &S3Sink{
		upload:   upload,
		interval: cfg.interval,
		maxBatch: cfg.maxBatch,
		done:     make(chan struct{}),
	}

	sink.wg.Add(1)
	go sink.flushLoop()
	return sink
}

// Record buffers the event, forcing a flush when the batch limit is hit.
func (s *S3Sink) Record(ctx context.Context, ev Event) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("audit: sink is closed")
	}
	s.buf = append(s.buf, ev)
	full := len(s.buf) >= s.maxBatch
	s.mu.Unlock()

	if full {
		return s.flush(ctx)
	}
	return nil
}

// Close flushes remaining events and stops the background loop.
func (s *S3Sink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.done)
	s.wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.flush(ctx)
}

func (s *S3Sink) flushLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			s.flush(ctx)
			cancel()
		case <-s.done:
			return
		}
	}
}

// flush uploads the current buffer as one JSON-lines object.
func (s *S3Sink) flush(ctx context.Context) error {
	s.mu.Lock()
	if len(s.buf) == 0 {
		s.mu.Unlock()
		return nil
	}
	batch := s.buf
	s.buf = nil
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	for _, ev := range batch {
		if err := enc.Encode(ev); err != nil {
			return err
		}
	}

	key := fmt.Sprintf("%s-%06d.jsonl", time.Now().UTC().Format("20060102T150405Z"), seq)
	return s.upload(ctx, key, body.Bytes())
}
