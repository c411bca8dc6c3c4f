package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Billy-Davies-2/psl-draft/internal/logger"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "psl.draft.v1.DraftService"

// Method names of the DraftService.
const (
	MethodGetState       = "GetState"
	MethodListPlayers    = "ListPlayers"
	MethodRegisterPlayer = "RegisterPlayer"
	MethodSetRating      = "SetRating"
	MethodListTeams      = "ListTeams"
	MethodUpdateBudget   = "UpdateBudget"
	MethodUpdateBudgets  = "UpdateBudgets"
	MethodPreDraftBuy    = "PreDraftBuy"
	MethodStartDraft     = "StartDraft"
	MethodCurrentTurn    = "CurrentTurn"
	MethodPick           = "Pick"
	MethodSkip           = "Skip"
	MethodUndo           = "Undo"
	MethodReset          = "Reset"
	MethodStreamEvents   = "StreamEvents"
)

// DraftService is the handler type checked by grpc.Server.RegisterService.
// Every message is a google.protobuf.Struct carrying the JSON shape used by
// the HTTP API.
type DraftService interface {
	StreamEvents(req *structpb.Struct, stream grpc.ServerStream) error
}

type unaryMethod func(s *Server, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call unaryMethod) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(*Server)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(s, ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func streamEventsHandler(srv interface{}, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(DraftService).StreamEvents(in, stream)
}

// ServiceDesc describes the DraftService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DraftService)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodGetState, (*Server).GetState),
		unary(MethodListPlayers, (*Server).ListPlayers),
		unary(MethodRegisterPlayer, (*Server).RegisterPlayer),
		unary(MethodSetRating, (*Server).SetRating),
		unary(MethodListTeams, (*Server).ListTeams),
		unary(MethodUpdateBudget, (*Server).UpdateBudget),
		unary(MethodUpdateBudgets, (*Server).UpdateBudgets),
		unary(MethodPreDraftBuy, (*Server).PreDraftBuy),
		unary(MethodStartDraft, (*Server).StartDraft),
		unary(MethodCurrentTurn, (*Server).CurrentTurn),
		unary(MethodPick, (*Server).Pick),
		unary(MethodSkip, (*Server).Skip),
		unary(MethodUndo, (*Server).Undo),
		unary(MethodReset, (*Server).Reset),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    MethodStreamEvents,
			Handler:       streamEventsHandler,
			ServerStreams: true,
		},
	},
	Metadata: "psl/draft/v1/draft_service",
}

// Register attaches s to gs.
func Register(gs *grpc.Server, s *Server) {
	gs.RegisterService(&ServiceDesc, s)
}

// LoggingInterceptor logs each unary call with its status code and latency.
func LoggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	code := status.Code(err)
	if err != nil {
		logger.Warn("gRPC call failed", "method", info.FullMethod, "code", code.String(), "duration", time.Since(start), "error", err)
	} else {
		logger.Debug("gRPC call", "method", info.FullMethod, "duration", time.Since(start))
	}
	return resp, err
}
