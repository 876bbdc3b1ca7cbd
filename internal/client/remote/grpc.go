package remote

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/hydrotrack/internal/common"
	pb "github.com/dmitrijs2005/hydrotrack/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// TokenSource returns an access token for userID. fresh asks for a new
// token instead of a cached one, after the server reported expiry.
type TokenSource func(ctx context.Context, userID string, fresh bool) (string, error)

type userKey struct{}

func withUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

func userFrom(ctx context.Context) string {
	id, _ := ctx.Value(userKey{}).(string)
	return id
}

// GRPCStore talks to the HydroSync service.
type GRPCStore struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      pb.HydroSyncClient
	tokenSource TokenSource

	mu     sync.Mutex
	tokens map[string]string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCStore) token(ctx context.Context, userID string, fresh bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok, ok := s.tokens[userID]; ok && !fresh {
		return tok, nil
	}
	tok, err := s.tokenSource(ctx, userID, fresh)
	if err != nil {
		return "", fmt.Errorf("failed to obtain access token: %w", err)
	}
	s.tokens[userID] = tok
	return tok, nil
}

func (s *GRPCStore) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	userID := userFrom(ctx)
	if userID == "" || s.tokenSource == nil {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	tok, err := s.token(ctx, userID, false)
	if err != nil {
		return err
	}

	err = invoker(withAccessToken(ctx, tok), method, req, reply, cc, opts...)
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Unauthenticated || st.Message() != common.ErrTokenExpired.Error() {
		return err
	}

	tok, err = s.token(ctx, userID, true)
	if err != nil {
		return err
	}
	return invoker(withAccessToken(ctx, tok), method, req, reply, cc, opts...)
}

// NewGRPCStore dials endpointURL lazily; the first call opens the
// connection. opts are appended to the default dial options.
func NewGRPCStore(endpointURL string, tokens TokenSource, opts ...grpc.DialOption) (*GRPCStore, error) {
	s := &GRPCStore{endpointURL: endpointURL, tokenSource: tokens, tokens: make(map[string]string)}

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
	}, opts...)
	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create grpc client: %w", err)
	}
	s.conn = conn
	s.client = pb.NewHydroSyncClient(conn)
	return s, nil
}

func (s *GRPCStore) Close() error {
	return s.conn.Close()
}

func (s *GRPCStore) GetUserRecord(ctx context.Context, userID string) (*UserRecord, error) {
	resp, err := s.client.GetUserRecord(withUser(ctx, userID), &pb.GetUserRecordRequest{UserId: userID})
	if err != nil {
		return nil, s.mapError(err)
	}
	if !resp.Found || resp.Record == nil {
		return nil, nil
	}

	rec := &UserRecord{UserID: resp.Record.UserId, Fields: make(map[string]FieldValue, len(resp.Record.Fields))}
	for _, f := range resp.Record.Fields {
		rec.Fields[f.Name] = FieldValue{Value: f.Value, Version: f.Version}
	}
	return rec, nil
}

func (s *GRPCStore) SetField(ctx context.Context, userID, field, value string, version int64) error {
	if err := validate(userID, field); err != nil {
		return err
	}
	req := &pb.SetFieldRequest{UserId: userID, Field: field, Value: value, Version: version}
	if _, err := s.client.SetField(withUser(ctx, userID), req); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCStore) DeleteUserRecord(ctx context.Context, userID string) error {
	_, err := s.client.DeleteUserRecord(withUser(ctx, userID), &pb.DeleteUserRecordRequest{UserId: userID})
	if err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCStore) Ping(ctx context.Context) error {
	resp, err := s.client.Ping(ctx, &pb.PingRequest{})
	if err != nil {
		return s.mapError(err)
	}

	if resp.Status != "OK" {
		return common.ErrorUnavailable
	}

	return nil
}

func (s *GRPCStore) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", common.ErrorUnauthorized, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return fmt.Errorf("%w: %s", common.ErrorUnavailable, st.Message())
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", common.ErrorInvalidInput, st.Message())
	case codes.NotFound:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
