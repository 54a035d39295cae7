package valkey

import (
	"context"
	"fmt"

	"github.com/fleetwatch/fleetwatch/internal/config"
	"github.com/valkey-io/valkey-go"
)

type Client struct {
	client valkey.Client
}

func New(cfg *config.Config) (*Client, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{cfg.GetValkeyAddress()},
		Password:    cfg.ValkeyPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create valkey client: %w", err)
	}

	// Test connection
	ctx := context.Background()
	pong := client.Do(ctx, client.B().Ping().Build())
	if err := pong.Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping valkey: %w", err)
	}

	return &Client{client: client}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error()
}

// XAdd appends an entry to a stream and returns the generated entry ID.
func (c *Client) XAdd(ctx context.Context, stream string, fields map[string]string) (string, error) {
	cmd := c.client.B().Xadd().Key(stream).Id("*").FieldValue()
	for k, v := range fields {
		cmd = cmd.FieldValue(k, v)
	}

	result := c.client.Do(ctx, cmd.Build())
	if err := result.Error(); err != nil {
		return "", err
	}
	return result.ToString()
}

func (c *Client) Close() {
	c.client.Close()
}
