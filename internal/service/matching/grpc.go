package matching

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	svcErr "github.com/oggyb/campusmatch/internal/errors"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "campusmatch.matching.v1.MatchService"

const (
	getMatchesMethod    = "/" + ServiceName + "/GetMatches"
	countLikedYouMethod = "/" + ServiceName + "/CountLikedYou"
)

// MatchServiceServer is the server API for MatchService. Requests and
// responses use the well-known protobuf types so no generated code is needed.
type MatchServiceServer interface {
	GetMatches(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	CountLikedYou(context.Context, *wrapperspb.StringValue) (*wrapperspb.UInt64Value, error)
}

// MatchServiceDesc describes MatchService for grpc.Server.RegisterService.
var MatchServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MatchServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetMatches", Handler: getMatchesHandler},
		{MethodName: "CountLikedYou", Handler: countLikedYouHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "campusmatch/matching/v1/match.proto",
}

func getMatchesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MatchServiceServer).GetMatches(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getMatchesMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MatchServiceServer).GetMatches(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func countLikedYouHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MatchServiceServer).CountLikedYou(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: countLikedYouMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MatchServiceServer).CountLikedYou(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// MatchServiceClient calls MatchService over a client connection.
type MatchServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewMatchServiceClient(cc grpc.ClientConnInterface) *MatchServiceClient {
	return &MatchServiceClient{cc: cc}
}

func (c *MatchServiceClient) GetMatches(ctx context.Context, email string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getMatchesMethod, wrapperspb.String(email), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MatchServiceClient) CountLikedYou(ctx context.Context, email string, opts ...grpc.CallOption) (uint64, error) {
	out := new(wrapperspb.UInt64Value)
	if err := c.cc.Invoke(ctx, countLikedYouMethod, wrapperspb.String(email), out, opts...); err != nil {
		return 0, err
	}
	return out.GetValue(), nil
}

// grpcServer adapts Service to MatchServiceServer.
type grpcServer struct {
	svc *Service
}

func (g *grpcServer) GetMatches(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	matches := g.svc.GetMatches(ctx, req.GetValue())
	return toStruct(matches)
}

func (g *grpcServer) CountLikedYou(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.UInt64Value, error) {
	n, err := g.svc.CountLikedYou(ctx, req.GetValue())
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return wrapperspb.UInt64(n), nil
}

// toStruct goes through JSON so nested slices become []any, which is the
// only list shape structpb accepts.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, svcErr.Map(err)
	}
	return structpb.NewStruct(m)
}
