package loki

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config for the push client. URL points at the push endpoint, e.g.
// https://loki.example.net/loki/api/v1/push.
type Config struct {
	URL string `validate:"required,url"`

	// Labels attached to every pushed line.
	Labels map[string]string

	// Username/Password enable basic auth when both are set.
	Username string
	Password string

	// BatchSize is how many lines are buffered before a push.
	BatchSize int `validate:"gte=1"`

	// FlushInterval bounds how long a line may sit in the buffer.
	FlushInterval time.Duration `validate:"gte=1"`
}

func (cfg *Config) setDefaults() {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 500
	}
	if cfg.FlushInterval == 0 {
		cfg.FlushInterval = 5 * time.Second
	}
	if cfg.Labels == nil {
		cfg.Labels = map[string]string{}
	}
}

type Entry struct {
	Level   string `json:"level"`
	Message string `json:"msg"`
	Caller  string `json:"caller"`
}

// ErrorReporter receives push failures; the pusher itself must never log
// through the hooked logger or it would loop.
type ErrorReporter interface {
	Error(msg string, args ...any)
}

type Pusher struct {
	cfg      *Config
	client   *http.Client
	entries  chan Entry
	done     chan struct{}
	reporter ErrorReporter
}

type pushRequest struct {
	Streams []pushStream `json:"streams"`
}

type pushStream struct {
	Stream map[string]string `json:"stream"`
	Values [][]string        `json:"values"`
}

func New(ctx context.Context, cfg Config, reporter ErrorReporter) (*Pusher, error) {

	cfg.setDefaults()
	if err := validator.New().Struct(cfg); err != nil {
		return nil, err
	}

	p := &Pusher{
		cfg:      &cfg,
		client:   &http.Client{Timeout: 10 * time.Second},
		entries:  make(chan Entry, cfg.BatchSize),
		done:     make(chan struct{}),
		reporter: reporter,
	}

	go p.run(ctx)
	return p, nil
}

// Push enqueues a line; it never blocks the caller. Lines are dropped when
// the buffer is full.
func (p *Pusher) Push(entry Entry) error {
	select {
	case p.entries <- entry:
		return nil
	default:
		return fmt.Errorf("loki push buffer is full, entry dropped")
	}
}

func (p *Pusher) Stop() {
	close(p.done)
}

func (p *Pusher) run(ctx context.Context) {

	ticker := time.NewTicker(p.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([][]string, 0, p.cfg.BatchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := p.send(ctx, batch); err != nil {
			p.reporter.Error("failed to push logs to loki", "error", err.Error())
		}
		batch = batch[:0]
	}

	for {
		select {
		case entry := <-p.entries:
			batch = append(batch, encodeValue(entry))
			if len(batch) >= p.cfg.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-p.done:
			flush()
			return
		case <-ctx.Done():
			flush()
			return
		}
	}
}

func encodeValue(entry Entry) []string {
	line, err := json.Marshal(entry)
	if err != nil {
		line = []byte(entry.Message)
	}
	return []string{strconv.FormatInt(time.Now().UnixNano(), 10), string(line)}
}

func (p *Pusher) send(ctx context.Context, values [][]string) error {

	payload, err := json.Marshal(pushRequest{
		Streams: []pushStream{{Stream: p.cfg.Labels, Values: values}},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.cfg.Username != "" && p.cfg.Password != "" {
		req.SetBasicAuth(p.cfg.Username, p.cfg.Password)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("loki responded with status %v", resp.StatusCode)
	}
	return nil
}
