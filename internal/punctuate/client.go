// Package punctuate calls an external gRPC punctuation-restoration model.
package punctuate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// DefaultMethod is the unary RPC taking and returning a google.protobuf.StringValue.
const DefaultMethod = "/hark.punctuate.v1.Punctuator/Restore"

// ErrDisabled is returned when no endpoint is configured.
var ErrDisabled = errors.New("punctuation restorer endpoint is empty")

// Config controls the restorer connection.
type Config struct {
	Endpoint    string
	Method      string
	Service     string
	DialTimeout time.Duration
}

// Client dials lazily on first use and reuses the connection.
type Client struct {
	cfg Config

	mu   sync.Mutex
	conn *grpc.ClientConn
}

// New returns an undialed client.
func New(cfg Config) *Client {
	cfg.Endpoint = strings.TrimSpace(cfg.Endpoint)
	if strings.TrimSpace(cfg.Method) == "" {
		cfg.Method = DefaultMethod
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 3 * time.Second
	}
	return &Client{cfg: cfg}
}

// Restore sends text and returns the punctuated version.
func (c *Client) Restore(ctx context.Context, text string) (string, error) {
	conn, err := c.connection(ctx)
	if err != nil {
		return "", err
	}

	out := &wrapperspb.StringValue{}
	if err := conn.Invoke(ctx, c.cfg.Method, wrapperspb.String(text), out); err != nil {
		return "", fmt.Errorf("restore punctuation: %w", err)
	}
	return out.GetValue(), nil
}

// Check runs the standard gRPC health check for the configured service.
func (c *Client) Check(ctx context.Context) error {
	conn, err := c.connection(ctx)
	if err != nil {
		return err
	}
	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: c.cfg.Service})
	if err != nil {
		return fmt.Errorf("punctuation restorer health check: %w", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("punctuation restorer status %s", resp.GetStatus().String())
	}
	return nil
}

// Close releases the connection, if any. The client can dial again afterwards.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Client) connection(ctx context.Context) (*grpc.ClientConn, error) {
	if c.cfg.Endpoint == "" {
		return nil, ErrDisabled
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return c.conn, nil
	}

	conn, err := grpc.NewClient(
		c.cfg.Endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("dial punctuation grpc %q: %w", c.cfg.Endpoint, err)
	}

	readyCtx, cancel := context.WithTimeout(ctx, c.cfg.DialTimeout)
	defer cancel()
	conn.Connect()
	if err := awaitReady(readyCtx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("wait for punctuation grpc readiness: %w", err)
	}

	c.conn = conn
	return conn, nil
}

// awaitReady returns once conn is Ready. TransientFailure fails at once, so
// a stopped restorer costs one connect attempt rather than the dial timeout.
func awaitReady(ctx context.Context, conn *grpc.ClientConn) error {
	for {
		state := conn.GetState()
		switch state {
		case connectivity.Ready:
			return nil
		case connectivity.TransientFailure:
			return errors.New("endpoint unreachable")
		case connectivity.Shutdown:
			return errors.New("connection shut down")
		}
		if !conn.WaitForStateChange(ctx, state) {
			return fmt.Errorf("still %s: %w", strings.ToLower(state.String()), ctx.Err())
		}
	}
}
