package grpc

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/hydrotrack/internal/auth"
	"github.com/dmitrijs2005/hydrotrack/internal/common"
	"github.com/dmitrijs2005/hydrotrack/internal/logging"
	pb "github.com/dmitrijs2005/hydrotrack/internal/proto"
)

// helper to build server
func newTestServer(secret string, rs RecordService) *GRPCServer {
	return &GRPCServer{
		logger:    logging.Discard(),
		jwtSecret: []byte(secret),
		records:   rs,
	}
}

func withToken(token string) context.Context {
	md := metadata.New(map[string]string{common.AccessTokenHeaderName: token})
	return metadata.NewIncomingContext(context.Background(), md)
}

func TestInterceptor_Ping_AllowsWithoutToken(t *testing.T) {
	s := newTestServer("secret", nil)

	info := &grpc.UnaryServerInfo{FullMethod: pb.HydroSync_Ping_FullMethodName}
	handlerCalled := false

	h := func(ctx context.Context, req interface{}) (interface{}, error) {
		handlerCalled = true
		return "ok", nil
	}

	resp, err := s.accessTokenInterceptor(context.Background(), nil, info, h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !handlerCalled {
		t.Fatal("handler was not called")
	}
	if resp != "ok" {
		t.Fatalf("unexpected handler resp: %v", resp)
	}
}

func TestInterceptor_Rejections(t *testing.T) {
	s := newTestServer("secret", nil)

	expired, err := auth.GenerateToken("u1", []byte("secret"), -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	otherKey, err := auth.GenerateToken("u1", []byte("other"), time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		ctx     context.Context
		wantMsg string
	}{
		{"missing token", context.Background(), "missing token"},
		{"garbage token", withToken("not-a-valid-jwt"), "invalid token"},
		{"wrong key", withToken(otherKey), "invalid token"},
		{"expired token", withToken(expired), common.ErrTokenExpired.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := &grpc.UnaryServerInfo{FullMethod: pb.HydroSync_SetField_FullMethodName}
			h := func(ctx context.Context, req interface{}) (interface{}, error) {
				t.Fatal("handler should not be called")
				return nil, nil
			}

			_, err := s.accessTokenInterceptor(tt.ctx, nil, info, h)
			if status.Code(err) != codes.Unauthenticated {
				t.Fatalf("expected Unauthenticated, got %v", status.Code(err))
			}
			if msg := status.Convert(err).Message(); msg != tt.wantMsg {
				t.Fatalf("expected %q, got %q", tt.wantMsg, msg)
			}
		})
	}
}

func TestInterceptor_ValidToken_PutsUserID(t *testing.T) {
	s := newTestServer("secret", nil)

	tok, err := auth.GenerateToken("user-123", []byte("secret"), time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	info := &grpc.UnaryServerInfo{FullMethod: pb.HydroSync_GetUserRecord_FullMethodName}
	var got string
	h := func(ctx context.Context, req interface{}) (interface{}, error) {
		got = userIDFrom(ctx)
		return "ok", nil
	}

	if _, err := s.accessTokenInterceptor(withToken(tok), nil, info, h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "user-123" {
		t.Fatalf("expected userID in context, got %q", got)
	}
}
