package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "hydrotrack.v1.HydroSync"

const (
	HydroSync_GetUserRecord_FullMethodName    = "/" + ServiceName + "/GetUserRecord"
	HydroSync_SetField_FullMethodName         = "/" + ServiceName + "/SetField"
	HydroSync_DeleteUserRecord_FullMethodName = "/" + ServiceName + "/DeleteUserRecord"
	HydroSync_Ping_FullMethodName             = "/" + ServiceName + "/Ping"
)

// HydroSyncClient is the client API for the HydroSync service.
type HydroSyncClient interface {
	GetUserRecord(ctx context.Context, in *GetUserRecordRequest, opts ...grpc.CallOption) (*GetUserRecordResponse, error)
	SetField(ctx context.Context, in *SetFieldRequest, opts ...grpc.CallOption) (*SetFieldResponse, error)
	DeleteUserRecord(ctx context.Context, in *DeleteUserRecordRequest, opts ...grpc.CallOption) (*DeleteUserRecordResponse, error)
	Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error)
}

type hydroSyncClient struct {
	cc grpc.ClientConnInterface
}

func NewHydroSyncClient(cc grpc.ClientConnInterface) HydroSyncClient {
	return &hydroSyncClient{cc}
}

func (c *hydroSyncClient) invoke(ctx context.Context, method string, in, out Message, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

func (c *hydroSyncClient) GetUserRecord(ctx context.Context, in *GetUserRecordRequest, opts ...grpc.CallOption) (*GetUserRecordResponse, error) {
	out := new(GetUserRecordResponse)
	if err := c.invoke(ctx, HydroSync_GetUserRecord_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *hydroSyncClient) SetField(ctx context.Context, in *SetFieldRequest, opts ...grpc.CallOption) (*SetFieldResponse, error) {
	out := new(SetFieldResponse)
	if err := c.invoke(ctx, HydroSync_SetField_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *hydroSyncClient) DeleteUserRecord(ctx context.Context, in *DeleteUserRecordRequest, opts ...grpc.CallOption) (*DeleteUserRecordResponse, error) {
	out := new(DeleteUserRecordResponse)
	if err := c.invoke(ctx, HydroSync_DeleteUserRecord_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *hydroSyncClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	out := new(PingResponse)
	if err := c.invoke(ctx, HydroSync_Ping_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// HydroSyncServer is the server API for the HydroSync service. Embed
// UnimplementedHydroSyncServer for forward compatibility.
type HydroSyncServer interface {
	GetUserRecord(context.Context, *GetUserRecordRequest) (*GetUserRecordResponse, error)
	SetField(context.Context, *SetFieldRequest) (*SetFieldResponse, error)
	DeleteUserRecord(context.Context, *DeleteUserRecordRequest) (*DeleteUserRecordResponse, error)
	Ping(context.Context, *PingRequest) (*PingResponse, error)
	mustEmbedUnimplementedHydroSyncServer()
}

type UnimplementedHydroSyncServer struct{}

func (UnimplementedHydroSyncServer) GetUserRecord(context.Context, *GetUserRecordRequest) (*GetUserRecordResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetUserRecord not implemented")
}
func (UnimplementedHydroSyncServer) SetField(context.Context, *SetFieldRequest) (*SetFieldResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SetField not implemented")
}
func (UnimplementedHydroSyncServer) DeleteUserRecord(context.Context, *DeleteUserRecordRequest) (*DeleteUserRecordResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteUserRecord not implemented")
}
func (UnimplementedHydroSyncServer) Ping(context.Context, *PingRequest) (*PingResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Ping not implemented")
}
func (UnimplementedHydroSyncServer) mustEmbedUnimplementedHydroSyncServer() {}

func RegisterHydroSyncServer(s grpc.ServiceRegistrar, srv HydroSyncServer) {
	s.RegisterService(&HydroSync_ServiceDesc, srv)
}

// unary adapts one typed server method to a grpc.MethodDesc handler.
func unary[Req any, PReq interface {
	*Req
	Message
}, Resp Message](fullMethod string, call func(HydroSyncServer, context.Context, PReq) (Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(HydroSyncServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(HydroSyncServer), ctx, req.(PReq))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var HydroSync_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*HydroSyncServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetUserRecord",
			Handler:    unary(HydroSync_GetUserRecord_FullMethodName, HydroSyncServer.GetUserRecord),
		},
		{
			MethodName: "SetField",
			Handler:    unary(HydroSync_SetField_FullMethodName, HydroSyncServer.SetField),
		},
		{
			MethodName: "DeleteUserRecord",
			Handler:    unary(HydroSync_DeleteUserRecord_FullMethodName, HydroSyncServer.DeleteUserRecord),
		},
		{
			MethodName: "Ping",
			Handler:    unary(HydroSync_Ping_FullMethodName, HydroSyncServer.Ping),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "hydrosync.proto",
}
