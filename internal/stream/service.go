package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "visualizer.v1.VisualizerService"

// VisualizerServer is the server API for the visualizer service. Requests
// and responses are google.protobuf.Struct so any viewer with the well-known
// types can talk to it without generated stubs.
type VisualizerServer interface {
	// ListTopics returns {"topics": [...]}.
	ListTopics(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// Subscribe takes {"topics": [...]} and streams
	// {"topic", "seq", "stamp_ns", "payload"} messages. An empty or missing
	// topic list subscribes to everything.
	Subscribe(*structpb.Struct, grpc.ServerStreamingServer[structpb.Struct]) error
}

// ServiceDesc describes the visualizer service for grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*VisualizerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListTopics", Handler: listTopicsHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Subscribe", Handler: subscribeHandler, ServerStreams: true},
	},
	Metadata: "visualizer/v1/visualizer.proto",
}

const (
	listTopicsMethod = "/" + ServiceName + "/ListTopics"
	subscribeMethod  = "/" + ServiceName + "/Subscribe"
)

func listTopicsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(VisualizerServer).ListTopics(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: listTopicsMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(VisualizerServer).ListTopics(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func subscribeHandler(srv interface{}, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(VisualizerServer).Subscribe(in, &grpc.GenericServerStream[structpb.Struct, structpb.Struct]{ServerStream: stream})
}

// RegisterService registers the visualizer service with the gRPC server.
func RegisterService(grpcServer grpc.ServiceRegistrar, server VisualizerServer) {
	grpcServer.RegisterService(&ServiceDesc, server)
}

// Ensure Server implements the gRPC interface.
var _ VisualizerServer = (*Server)(nil)

// Server implements VisualizerServer on top of a Hub.
type Server struct {
	hub *Hub
}

// NewServer creates a new gRPC server for hub.
func NewServer(hub *Hub) *Server {
	return &Server{hub: hub}
}

// ListTopics implements VisualizerServer.
func (s *Server) ListTopics(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return topicsStruct(s.hub.Topics())
}

// Subscribe implements VisualizerServer.
func (s *Server) Subscribe(req *structpb.Struct, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	topics, err := requestedTopics(req)
	if err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}

	id := uuid.NewString()
	c, err := s.hub.addClient(id, topics)
	if err != nil {
		return status.Error(codes.ResourceExhausted, err.Error())
	}
	defer s.hub.removeClient(id)
	logf("Subscribe %s: %d topics", id, len(topics))

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.hub.stopCh:
			return status.Error(codes.Unavailable, "hub stopped")
		case msg := <-c.frameCh:
			if err := stream.Send(msg); err != nil {
				logf("Send error for %s: %v", id, err)
				return err
			}
		}
	}
}

// requestedTopics reads the "topics" list. It returns nil for an empty or
// missing list.
func requestedTopics(req *structpb.Struct) (map[string]bool, error) {
	v, ok := req.GetFields()["topics"]
	if !ok {
		return nil, nil
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return nil, nil
	}
	list := v.GetListValue()
	if list == nil {
		return nil, fmt.Errorf("topics must be a list of strings")
	}
	if len(list.GetValues()) == 0 {
		return nil, nil
	}
	topics := make(map[string]bool, len(list.GetValues()))
	for i, item := range list.GetValues() {
		name, ok := item.GetKind().(*structpb.Value_StringValue)
		if !ok || name.StringValue == "" {
			return nil, fmt.Errorf("topics[%d] is not a topic name", i)
		}
		topics[name.StringValue] = true
	}
	return topics, nil
}

func topicsStruct(topics []string) (*structpb.Struct, error) {
	items := make([]interface{}, len(topics))
	for i, t := range topics {
		items[i] = t
	}
	return structpb.NewStruct(map[string]interface{}{"topics": items})
}

// encodeFrame builds the wire message for a frame. Stamps travel as decimal
// strings because a float64 cannot hold nanoseconds since the epoch.
func encodeFrame(f *frame) (*structpb.Struct, error) {
	payload, err := encodePayload(f.payload)
	if err != nil {
		return nil, err
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"topic":    structpb.NewStringValue(f.topic),
		"seq":      structpb.NewNumberValue(float64(f.seq)),
		"stamp_ns": structpb.NewStringValue(strconv.FormatInt(f.stampNs, 10)),
		"payload":  structpb.NewStructValue(payload),
	}}, nil
}

// encodePayload converts any JSON-serializable object into a Struct.
func encodePayload(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	s := new(structpb.Struct)
	if err := protojson.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("payload is not a JSON object: %w", err)
	}
	return s, nil
}
