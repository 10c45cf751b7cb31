package llm

import (
	"context"
	"log"
	"time"
)

// LoggingProvider logs every request with its latency and token usage.
type LoggingProvider struct {
	inner  Provider
	logger *log.Logger
}

func WithLogging(p Provider, logger *log.Logger) Provider {
	return &LoggingProvider{inner: p, logger: logger}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)
	latency := time.Since(start)

	if err != nil {
		l.logger.Printf("llm: model=%s latency=%s error=%v", l.inner.ModelID(), latency, err)
		return nil, err
	}
	l.logger.Printf("llm: model=%s latency=%s in=%d out=%d stop=%s",
		resp.Model, latency, resp.Usage.InputTokens, resp.Usage.OutputTokens, resp.StopReason)
	return resp, nil
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

// TimeoutProvider bounds every request by a fixed duration.
type TimeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

func WithTimeout(p Provider, d time.Duration) Provider {
	if d <= 0 {
		return p
	}
	return &TimeoutProvider{inner: p, timeout: d}
}

func (t *TimeoutProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Generate(ctx, req)
}

func (t *TimeoutProvider) ModelID() string {
	return t.inner.ModelID()
}
