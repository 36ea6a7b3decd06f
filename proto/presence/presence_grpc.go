// Package presence declares the gRPC surface of the room.
//
// Messages are wire.Envelope values carried with a JSON codec, so the
// service descriptor is written by hand instead of generated from a .proto file.
package presence

import (
	"context"
	"encoding/json"
	"presence-lab/infrastructure/wire"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

const (
	ServiceName           = "presence.v1.PresenceService"
	ConnectMethodName     = "Connect"
	ConnectFullMethodName = "/" + ServiceName + "/" + ConnectMethodName
	CodecName             = "json"
)

func init() {
	encoding.RegisterCodec(Codec{})
}

// Codec marshals messages as JSON.
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (Codec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (Codec) Name() string                       { return CodecName }

// PresenceServiceServer is the server API for PresenceService.
type PresenceServiceServer interface {
	Connect(PresenceService_ConnectServer) error
}

type PresenceService_ConnectServer interface {
	Send(*wire.Envelope) error
	Recv() (*wire.Envelope, error)
	grpc.ServerStream
}

type presenceServiceConnectServer struct {
	grpc.ServerStream
}

func (x *presenceServiceConnectServer) Send(m *wire.Envelope) error {
	return x.ServerStream.SendMsg(m)
}

func (x *presenceServiceConnectServer) Recv() (*wire.Envelope, error) {
	m := new(wire.Envelope)
	if err := x.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func connectHandler(srv any, stream grpc.ServerStream) error {
	return srv.(PresenceServiceServer).Connect(&presenceServiceConnectServer{ServerStream: stream})
}

var PresenceService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PresenceServiceServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    ConnectMethodName,
			Handler:       connectHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "presence/v1/presence",
}

func RegisterPresenceServiceServer(s grpc.ServiceRegistrar, srv PresenceServiceServer) {
	s.RegisterService(&PresenceService_ServiceDesc, srv)
}

// PresenceServiceClient is the client API for PresenceService.
type PresenceServiceClient interface {
	Connect(ctx context.Context, opts ...grpc.CallOption) (PresenceService_ConnectClient, error)
}

type PresenceService_ConnectClient interface {
	Send(*wire.Envelope) error
	Recv() (*wire.Envelope, error)
	grpc.ClientStream
}

type presenceServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewPresenceServiceClient(cc grpc.ClientConnInterface) PresenceServiceClient {
	return &presenceServiceClient{cc: cc}
}

func (c *presenceServiceClient) Connect(ctx context.Context, opts ...grpc.CallOption) (PresenceService_ConnectClient, error) {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	stream, err := c.cc.NewStream(ctx, &PresenceService_ServiceDesc.Streams[0], ConnectFullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	return &presenceServiceConnectClient{ClientStream: stream}, nil
}

type presenceServiceConnectClient struct {
	grpc.ClientStream
}

func (x *presenceServiceConnectClient) Send(m *wire.Envelope) error {
	return x.ClientStream.SendMsg(m)
}

func (x *presenceServiceConnectClient) Recv() (*wire.Envelope, error) {
	m := new(wire.Envelope)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}
