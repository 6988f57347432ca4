package openrouter

import (
	"context"
	"net/http"

	"github.com/kbukum/routerkit/transport"
)

// listEnvelope is the gateway's {"data": [...]} collection wrapper.
type listEnvelope[T any] struct {
	Data []T `json:"data"`
}

// dataEnvelope is the gateway's {"data": {...}} object wrapper.
type dataEnvelope[T any] struct {
	Data T `json:"data"`
}

// Model is one catalog entry.
type Model struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description,omitempty"`
	ContextLength int     `json:"context_length"`
	Created       int64   `json:"created"`
	Pricing       Pricing `json:"pricing"`
}

// Pricing carries per-unit prices as decimal strings, exactly as the
// gateway reports them.
type Pricing struct {
	Prompt     string `json:"prompt"`
	Completion string `json:"completion"`
	Request    string `json:"request,omitempty"`
	Image      string `json:"image,omitempty"`
}

// ListModels fetches the full model catalog.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	resp, err := transport.Do[listEnvelope[Model]](ctx, c.transport, transport.Request{
		Method: http.MethodGet,
		Path:   "/models",
	})
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// GetModel looks up one model by ID. The gateway has no single-model
// endpoint, so this downloads the catalog and searches it; callers doing
// repeated lookups should fetch ListModels once and index it themselves.
// An absent ID is not an error: the second return is false.
func (c *Client) GetModel(ctx context.Context, id string) (*Model, bool, error) {
	models, err := c.ListModels(ctx)
	if err != nil {
		return nil, false, err
	}
	for i := range models {
		if models[i].ID == id {
			return &models[i], true, nil
		}
	}
	return nil, false, nil
}
