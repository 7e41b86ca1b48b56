package reservation_service_api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "busbooking.ReservationService"

// ReservationServiceServer exchanges google.protobuf.Struct messages so the
// service needs no generated code.
type ReservationServiceServer interface {
	SearchRoutes(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Book(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Cancel(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	ListBookings(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Statistics(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(srv ReservationServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

func handler(name string, call unaryMethod) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ReservationServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(ReservationServiceServer), ctx, req.(*structpb.Struct))
			})
		},
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ReservationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		handler("SearchRoutes", ReservationServiceServer.SearchRoutes),
		handler("Book", ReservationServiceServer.Book),
		handler("Cancel", ReservationServiceServer.Cancel),
		handler("ListBookings", ReservationServiceServer.ListBookings),
		handler("Statistics", ReservationServiceServer.Statistics),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "busbooking/reservation.proto",
}

func RegisterReservationServiceServer(s grpc.ServiceRegistrar, srv ReservationServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client calls the service over an established connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
