package grpc

import (
	"context"
	"errors"
	"sort"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/hydrotrack/internal/common"
	pb "github.com/dmitrijs2005/hydrotrack/internal/proto"
)

// authorize allows a call only on the caller's own record.
func authorize(ctx context.Context, userID string) error {
	if userID == "" {
		return status.Error(codes.InvalidArgument, "user id is required")
	}
	if userIDFrom(ctx) != userID {
		return status.Error(codes.PermissionDenied, "access to another user's record")
	}
	return nil
}

func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	if errors.Is(err, common.ErrorInvalidInput) {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	s.logger.Error(ctx, err.Error())
	return status.Error(codes.Internal, "internal error")
}

func (s *GRPCServer) GetUserRecord(ctx context.Context, req *pb.GetUserRecordRequest) (*pb.GetUserRecordResponse, error) {

	if err := authorize(ctx, req.UserId); err != nil {
		return nil, err
	}

	rec, err := s.records.Get(ctx, req.UserId)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	if rec == nil {
		return &pb.GetUserRecordResponse{Found: false}, nil
	}

	out := &pb.UserRecord{UserId: rec.UserID}
	for name, f := range rec.Fields {
		out.Fields = append(out.Fields, &pb.FieldValue{Name: name, Value: f.Value, Version: f.Version})
	}
	sort.Slice(out.Fields, func(i, j int) bool { return out.Fields[i].Name < out.Fields[j].Name })

	return &pb.GetUserRecordResponse{Found: true, Record: out}, nil
}

func (s *GRPCServer) SetField(ctx context.Context, req *pb.SetFieldRequest) (*pb.SetFieldResponse, error) {

	if err := authorize(ctx, req.UserId); err != nil {
		return nil, err
	}

	res, err := s.records.SetField(ctx, req.UserId, req.Field, req.Value, req.Version)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Debug(ctx, "field written", "field", req.Field, "applied", res.Applied, "version", res.StoredVersion)
	return &pb.SetFieldResponse{Applied: res.Applied, StoredVersion: res.StoredVersion}, nil
}

func (s *GRPCServer) DeleteUserRecord(ctx context.Context, req *pb.DeleteUserRecordRequest) (*pb.DeleteUserRecordResponse, error) {

	if err := authorize(ctx, req.UserId); err != nil {
		return nil, err
	}

	existed, err := s.records.Delete(ctx, req.UserId)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "record deleted", "existed", existed)
	return &pb.DeleteUserRecordResponse{Existed: existed}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *pb.PingRequest) (*pb.PingResponse, error) {

	return &pb.PingResponse{Status: "OK"}, nil

}
