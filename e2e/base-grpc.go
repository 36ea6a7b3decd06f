package e2e

import (
	"context"
	"fmt"
	"presence-lab/infrastructure/grpc/client"
	"presence-lab/infrastructure/wire"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

type BaseGrpcSuite struct {
	suite.Suite
	Config Config
	conn   *grpc.ClientConn
}

// SetupSuite loads the environment configuration and dials the server
func (s *BaseGrpcSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.ServerAddr == "" {
		s.T().Skip("E2E_SERVER_ADDR not set")
	}
	s.conn = s.GrpcConn(s.T(), "presence server", s.Config.ServerAddr)
}

func (s *BaseGrpcSuite) TearDownSuite() {
	if s.conn != nil {
		_ = s.conn.Close()
	}
}

// GrpcConn initializes a gRPC connection that logs every stream it opens
func (s *BaseGrpcSuite) GrpcConn(t *testing.T, name string, addr string) *grpc.ClientConn {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)

	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStreamInterceptor(func(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn,
			method string, streamer grpc.Streamer, opts ...grpc.CallOption) (grpc.ClientStream, error) {
			start := time.Now()
			stream, err := streamer(ctx, desc, cc, method, opts...)
			t.Logf("GRPC %s [%s] opened in %v", method, status.Code(err), time.Since(start))
			return stream, err
		}),
	)
	s.Require().NoError(err, "Failed to connect to gRPC server at "+addr)
	return conn
}

// WithParticipant opens a session within a contextual test step and closes it afterwards
func (s *BaseGrpcSuite) WithParticipant(name string, fn func(ctx context.Context, c *client.PresenceClient)) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c, err := client.Connect(ctx, s.conn)
	s.Require().NoError(err, "Failed to open session for "+name)
	defer func() { _ = c.Close() }()
	fn(ctx, c)
}

// Expect reads events until one named name arrives and returns its payload
func Expect[T any](s *BaseGrpcSuite, c *client.PresenceClient, name string) T {
	for {
		env, err := c.Recv()
		s.Require().NoError(err)
		if env.Event != name {
			s.T().Logf("skipping %s while waiting for %s", env.Event, name)
			continue
		}
		v, err := wire.Decode[T](env)
		s.Require().NoError(err)
		return v
	}
}
