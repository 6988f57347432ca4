package openrouter

import (
	"context"
	"net/http"

	"github.com/kbukum/routerkit/transport"
)

// Credits is the account balance snapshot: credits purchased and credits
// consumed, both in account currency units.
type Credits struct {
	TotalCredits float64 `json:"total_credits"`
	TotalUsage   float64 `json:"total_usage"`
}

// GetCredits fetches the account credit balance.
func (c *Client) GetCredits(ctx context.Context) (*Credits, error) {
	resp, err := transport.Do[dataEnvelope[Credits]](ctx, c.transport, transport.Request{
		Method: http.MethodGet,
		Path:   "/credits",
	})
	if err != nil {
		return nil, err
	}
	return &resp.Data, nil
}
