package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Ollama defaults.
const (
	DefaultOllamaURL   = "http://localhost:11434/api/embed"
	DefaultOllamaModel = "nomic-embed-text"
)

type ollamaEmbedReq struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResp struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Ollama embeds texts through an Ollama /api/embed endpoint. A call embeds the
// whole batch in one request.
type Ollama struct {
	url    string
	model  string
	client *http.Client
}

// OllamaOption configures an Ollama embedder.
type OllamaOption func(*Ollama)

// WithURL sets the /api/embed endpoint.
func WithURL(url string) OllamaOption {
	return func(o *Ollama) {
		if url != "" {
			o.url = url
		}
	}
}

// WithModel sets the embedding model.
func WithModel(model string) OllamaOption {
	return func(o *Ollama) {
		if model != "" {
			o.model = model
		}
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) OllamaOption {
	return func(o *Ollama) {
		o.client = c
	}
}

// NewOllama creates an Ollama embedder.
func NewOllama(opts ...OllamaOption) *Ollama {
	o := &Ollama{
		url:   DefaultOllamaURL,
		model: DefaultOllamaModel,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Model implements Embedder.
func (o *Ollama) Model() string {
	return "ollama:" + o.model
}

// Embed implements Embedder.
func (o *Ollama) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	reqBody, err := json.Marshal(ollamaEmbedReq{Model: o.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create embed request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed HTTP call: %w", err)
	}

	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embed response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embed service returned %d: %s", resp.StatusCode, string(body))
	}

	var out ollamaEmbedResp

	err = json.Unmarshal(body, &out)
	if err != nil {
		return nil, fmt.Errorf("parse embed response: %w", err)
	}

	if len(out.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embed service returned %d vectors for %d inputs", len(out.Embeddings), len(texts))
	}

	for _, v := range out.Embeddings {
		if len(v) == 0 {
			return nil, ErrEmptyVector
		}
	}

	return out.Embeddings, nil
}
