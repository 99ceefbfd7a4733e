package server

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/sous/pkg/client"
	"github.com/papercomputeco/sous/pkg/llm"
)

// Upstream answers by forwarding the question to another recipe API.
type Upstream struct {
	client *client.Client
	logger *zap.Logger
}

// NewUpstream creates an Upstream for the API at baseURL.
func NewUpstream(baseURL string, logger *zap.Logger) *Upstream {
	return &Upstream{
		client: client.New(client.Config{
			BaseURL: baseURL,
			HTTPClient: &http.Client{
				// Generation upstream can be slow
				Timeout: 5 * time.Minute,
			},
		}, logger),
		logger: logger,
	}
}

// Answer implements Answerer.
func (u *Upstream) Answer(ctx context.Context, question string, topK int) (string, []string, error) {
	resp, err := u.client.Send(ctx, llm.ChatRequest{Message: question, TopK: &topK})
	if err != nil {
		return "", nil, err
	}

	u.logger.Debug("received response from upstream",
		zap.String("upstream_query_id", resp.QueryID),
		zap.Int("source_count", len(resp.Sources)),
	)

	return resp.Answer, resp.Sources, nil
}
