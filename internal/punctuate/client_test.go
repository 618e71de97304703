package punctuate

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type punctuator interface {
	restore(context.Context, string) (string, error)
}

type punctuatorFunc func(context.Context, string) (string, error)

func (f punctuatorFunc) restore(ctx context.Context, text string) (string, error) { return f(ctx, text) }

var punctuatorDesc = grpc.ServiceDesc{
	ServiceName: "hark.punctuate.v1.Punctuator",
	HandlerType: (*punctuator)(nil),
	Methods: []grpc.MethodDesc{{
		MethodName: "Restore",
		Handler: func(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
			in := &wrapperspb.StringValue{}
			if err := dec(in); err != nil {
				return nil, err
			}
			out, err := srv.(punctuator).restore(ctx, in.GetValue())
			if err != nil {
				return nil, err
			}
			return wrapperspb.String(out), nil
		},
	}},
}

func startServer(t *testing.T, impl punctuatorFunc) (string, *health.Server) {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := grpc.NewServer()
	srv.RegisterService(&punctuatorDesc, impl)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)
	return lis.Addr().String(), hs
}

func TestRestoreRoundTrip(t *testing.T) {
	addr, _ := startServer(t, func(_ context.Context, text string) (string, error) {
		return strings.ToUpper(text[:1]) + text[1:] + ".", nil
	})

	client := New(Config{Endpoint: addr})
	t.Cleanup(func() { _ = client.Close() })

	out, err := client.Restore(context.Background(), "hello there")
	require.NoError(t, err)
	require.Equal(t, "Hello there.", out)

	out, err = client.Restore(context.Background(), "again")
	require.NoError(t, err)
	require.Equal(t, "Again.", out)
}

func TestRestorePropagatesServerError(t *testing.T) {
	addr, _ := startServer(t, func(context.Context, string) (string, error) {
		return "", status.Error(codes.Unavailable, "model loading")
	})

	client := New(Config{Endpoint: addr})
	t.Cleanup(func() { _ = client.Close() })

	_, err := client.Restore(context.Background(), "hello")
	require.Error(t, err)
	require.Equal(t, codes.Unavailable, status.Code(err))
	require.Contains(t, err.Error(), "restore punctuation")
}

func TestRestoreWithoutEndpoint(t *testing.T) {
	_, err := New(Config{}).Restore(context.Background(), "hello")
	require.ErrorIs(t, err, ErrDisabled)
}

func TestRestoreUnreachableEndpointFailsFast(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().String()
	require.NoError(t, lis.Close())

	client := New(Config{Endpoint: addr, DialTimeout: 5 * time.Second})
	start := time.Now()
	_, err = client.Restore(context.Background(), "hello")
	require.Error(t, err)
	require.Contains(t, err.Error(), "wait for punctuation grpc readiness")
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestCheckHealth(t *testing.T) {
	addr, hs := startServer(t, func(_ context.Context, text string) (string, error) { return text, nil })

	client := New(Config{Endpoint: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Check(context.Background()))

	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	err := client.Check(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "NOT_SERVING")
}

func TestCloseAllowsRedial(t *testing.T) {
	addr, _ := startServer(t, func(_ context.Context, text string) (string, error) { return text, nil })

	client := New(Config{Endpoint: addr})
	_, err := client.Restore(context.Background(), "one")
	require.NoError(t, err)
	require.NoError(t, client.Close())
	require.NoError(t, client.Close())

	out, err := client.Restore(context.Background(), "two")
	require.NoError(t, err)
	require.Equal(t, "two", out)
	require.NoError(t, client.Close())
}
