package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"github.com/studora/forum-sync-api/pkg/config"
)

// ErrEmptyText means there was nothing left to embed after sanitization.
var ErrEmptyText = errors.New("text empty after sanitization")

const defaultMaxRetries = 3

// Provider calls an OpenAI-compatible embeddings endpoint. Sync callers
// treat any returned error as "no embedding available" and continue; only
// the search path treats failure as fatal.
type Provider struct {
	baseURL    string
	model      string
	maxChars   int
	maxRetries int
	client     *http.Client
	logger     *zap.Logger
}

// NewProvider constructs an embeddings provider.
func NewProvider(cfg config.EmbeddingConfig, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	maxChars := cfg.MaxChars
	if maxChars <= 0 {
		maxChars = 8192
	}
	return &Provider{
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		maxChars:   maxChars,
		maxRetries: defaultMaxRetries,
		client:     &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// Embed sanitizes and truncates text, then requests a vector for it.
func (p *Provider) Embed(ctx context.Context, text, apiKey string) (pgvector.Vector, error) {
	clean := Truncate(Sanitize(text), p.maxChars)
	if clean == "" {
		return pgvector.Vector{}, ErrEmptyText
	}

	body, err := json.Marshal(struct {
		Input string `json:"input"`
		Model string `json:"model"`
	}{Input: clean, Model: p.model})
	if err != nil {
		return pgvector.Vector{}, fmt.Errorf("marshal embedding request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return pgvector.Vector{}, ctx.Err()
			case <-time.After(retryDelay(attempt - 1)):
			}
		}

		vec, retryable, err := p.doRequest(ctx, body, apiKey)
		if err == nil {
			return vec, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return pgvector.Vector{}, lastErr
}

func (p *Provider) doRequest(ctx context.Context, body []byte, apiKey string) (pgvector.Vector, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return pgvector.Vector{}, false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return pgvector.Vector{}, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, convErr := strconv.Atoi(ra); convErr == nil {
				select {
				case <-ctx.Done():
					return pgvector.Vector{}, false, ctx.Err()
				case <-time.After(time.Duration(secs) * time.Second):
				}
			}
		}
		return pgvector.Vector{}, true, fmt.Errorf("embeddings request failed: %s", resp.Status)
	}
	if resp.StatusCode >= 300 {
		return pgvector.Vector{}, false, fmt.Errorf("embeddings request failed: %s", resp.Status)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return pgvector.Vector{}, true, err
	}

	var out struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return pgvector.Vector{}, false, fmt.Errorf("decode embeddings response: %w", err)
	}
	if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
		return pgvector.Vector{}, false, errors.New("no embedding returned")
	}

	return pgvector.NewVector(out.Data[0].Embedding), false, nil
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := 200 * time.Millisecond
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
