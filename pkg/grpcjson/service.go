package grpcjson

import (
	"context"

	"google.golang.org/grpc"
)

// Method builds the descriptor of a unary method whose request and response are plain
// structs. fn is usually a method expression on the server interface, e.g.
// StockServer.ListStock.
func Method[S any, Req any, Resp any](service, name string, fn func(S, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + service + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return fn(srv.(S), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return fn(srv.(S), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Invoke calls a unary method with the JSON codec.
func Invoke(ctx context.Context, cc grpc.ClientConnInterface, service, name string, in, out interface{}, opts ...grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(Name)}, opts...)
	return cc.Invoke(ctx, "/"+service+"/"+name, in, out, opts...)
}
