package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls the visualizer service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an established connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// ListTopics returns the topics the server knows about.
func (c *Client) ListTopics(ctx context.Context) ([]string, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, listTopicsMethod, &structpb.Struct{}, out); err != nil {
		return nil, err
	}
	list := out.GetFields()["topics"].GetListValue()
	topics := make([]string, 0, len(list.GetValues()))
	for _, v := range list.GetValues() {
		topics = append(topics, v.GetStringValue())
	}
	return topics, nil
}

// Subscribe opens a stream for the given topics; none means all.
func (c *Client) Subscribe(ctx context.Context, topics ...string) (*Subscription, error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], subscribeMethod)
	if err != nil {
		return nil, err
	}
	req, err := topicsStruct(topics)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[structpb.Struct, structpb.Struct]{ClientStream: stream}
	if err := x.SendMsg(req); err != nil {
		return nil, err
	}
	if err := x.CloseSend(); err != nil {
		return nil, err
	}
	return &Subscription{stream: x}, nil
}

// Subscription is an open Subscribe stream.
type Subscription struct {
	stream grpc.ServerStreamingClient[structpb.Struct]
}

// Message is one decoded stream message.
type Message struct {
	Topic   string
	Seq     uint64
	StampNs int64
	Payload *structpb.Struct
}

// Decode unmarshals the payload into v.
func (m Message) Decode(v any) error {
	b, err := protojson.Marshal(m.Payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// Recv blocks for the next message.
func (s *Subscription) Recv() (Message, error) {
	raw, err := s.stream.Recv()
	if err != nil {
		return Message{}, err
	}
	f := raw.GetFields()
	stamp, err := strconv.ParseInt(f["stamp_ns"].GetStringValue(), 10, 64)
	if err != nil {
		return Message{}, fmt.Errorf("bad stamp_ns: %w", err)
	}
	return Message{
		Topic:   f["topic"].GetStringValue(),
		Seq:     uint64(f["seq"].GetNumberValue()),
		StampNs: stamp,
		Payload: f["payload"].GetStructValue(),
	}, nil
}
