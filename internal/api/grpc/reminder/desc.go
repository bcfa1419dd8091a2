package reminder

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "reminder.v1.AlarmService"

// AlarmServiceServer is the server API of reminder.v1.AlarmService.
type AlarmServiceServer interface {
	Schedule(ctx context.Context, req *ScheduleRequest) (*ScheduleResponse, error)
	Cancel(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error)
	CancelAll(ctx context.Context, req *emptypb.Empty) (*emptypb.Empty, error)
	List(ctx context.Context, req *emptypb.Empty) (*ListResponse, error)
	CanScheduleExact(ctx context.Context, req *emptypb.Empty) (*wrapperspb.BoolValue, error)
	RequestPermission(ctx context.Context, req *emptypb.Empty) (*emptypb.Empty, error)
	StopCurrentAlarm(ctx context.Context, req *emptypb.Empty) (*emptypb.Empty, error)
	Status(ctx context.Context, req *emptypb.Empty) (*StatusResponse, error)
	TestAlarm(ctx context.Context, req *emptypb.Empty) (*ScheduleResponse, error)
	PreviewTone(ctx context.Context, req *PreviewToneRequest) (*emptypb.Empty, error)
	Fire(ctx context.Context, req *FireRequest) (*emptypb.Empty, error)
	BootCompleted(ctx context.Context, req *emptypb.Empty) (*BootCompletedResponse, error)
}

// RegisterAlarmServiceServer registers srv on the gRPC server.
func RegisterAlarmServiceServer(s grpc.ServiceRegistrar, srv AlarmServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}

//nolint:gochecknoglobals // gRPC service descriptors are package-level by convention.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AlarmServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		method("Schedule", AlarmServiceServer.Schedule),
		method("Cancel", AlarmServiceServer.Cancel),
		method("CancelAll", AlarmServiceServer.CancelAll),
		method("List", AlarmServiceServer.List),
		method("CanScheduleExact", AlarmServiceServer.CanScheduleExact),
		method("RequestPermission", AlarmServiceServer.RequestPermission),
		method("StopCurrentAlarm", AlarmServiceServer.StopCurrentAlarm),
		method("Status", AlarmServiceServer.Status),
		method("TestAlarm", AlarmServiceServer.TestAlarm),
		method("PreviewTone", AlarmServiceServer.PreviewTone),
		method("Fire", AlarmServiceServer.Fire),
		method("BootCompleted", AlarmServiceServer.BootCompleted),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "reminder/v1/alarm.proto",
}

// method builds the descriptor of one unary method from its interface method expression.
func method[Req, Resp any](
	name string,
	call func(AlarmServiceServer, context.Context, *Req) (*Resp, error),
) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name

	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}

			server, _ := srv.(AlarmServiceServer)

			if interceptor == nil {
				return call(server, ctx, in)
			}

			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod,
			}

			handler := func(ctx context.Context, req any) (any, error) {
				typed, _ := req.(*Req)

				return call(server, ctx, typed)
			}

			return interceptor(ctx, in, info, handler)
		},
	}
}

// AlarmServiceClient is the client API of reminder.v1.AlarmService.
type AlarmServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewAlarmServiceClient returns a client stub on cc.
func NewAlarmServiceClient(cc grpc.ClientConnInterface) *AlarmServiceClient {
	return &AlarmServiceClient{
		cc: cc,
	}
}

// invoke performs one unary call.
func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, name string, in any, opts ...grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	if err := cc.Invoke(ctx, "/"+ServiceName+"/"+name, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// Schedule calls AlarmService.Schedule.
func (c *AlarmServiceClient) Schedule(ctx context.Context, in *ScheduleRequest, opts ...grpc.CallOption) (*ScheduleResponse, error) {
	return invoke[ScheduleResponse](ctx, c.cc, "Schedule", in, opts...)
}

// Cancel calls AlarmService.Cancel.
func (c *AlarmServiceClient) Cancel(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, "Cancel", in, opts...)
}

// CancelAll calls AlarmService.CancelAll.
func (c *AlarmServiceClient) CancelAll(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, "CancelAll", in, opts...)
}

// List calls AlarmService.List.
func (c *AlarmServiceClient) List(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*ListResponse, error) {
	return invoke[ListResponse](ctx, c.cc, "List", in, opts...)
}

// CanScheduleExact calls AlarmService.CanScheduleExact.
func (c *AlarmServiceClient) CanScheduleExact(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error) {
	return invoke[wrapperspb.BoolValue](ctx, c.cc, "CanScheduleExact", in, opts...)
}

// RequestPermission calls AlarmService.RequestPermission.
func (c *AlarmServiceClient) RequestPermission(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, "RequestPermission", in, opts...)
}

// StopCurrentAlarm calls AlarmService.StopCurrentAlarm.
func (c *AlarmServiceClient) StopCurrentAlarm(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, "StopCurrentAlarm", in, opts...)
}

// Status calls AlarmService.Status.
func (c *AlarmServiceClient) Status(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*StatusResponse, error) {
	return invoke[StatusResponse](ctx, c.cc, "Status", in, opts...)
}

// TestAlarm calls AlarmService.TestAlarm.
func (c *AlarmServiceClient) TestAlarm(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*ScheduleResponse, error) {
	return invoke[ScheduleResponse](ctx, c.cc, "TestAlarm", in, opts...)
}

// PreviewTone calls AlarmService.PreviewTone.
func (c *AlarmServiceClient) PreviewTone(ctx context.Context, in *PreviewToneRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, "PreviewTone", in, opts...)
}

// Fire calls AlarmService.Fire.
func (c *AlarmServiceClient) Fire(ctx context.Context, in *FireRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, "Fire", in, opts...)
}

// BootCompleted calls AlarmService.BootCompleted.
func (c *AlarmServiceClient) BootCompleted(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*BootCompletedResponse, error) {
	return invoke[BootCompletedResponse](ctx, c.cc, "BootCompleted", in, opts...)
}
