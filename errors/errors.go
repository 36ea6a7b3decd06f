package errors

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrWorkerPanic    = fmt.Errorf("worker panic")
	ErrMalformedEvent = fmt.Errorf("malformed event")
	ErrUnknownEvent   = fmt.Errorf("unknown event")
	ErrNotJoined      = fmt.Errorf("connection has not joined")
	ErrUnknownConn    = fmt.Errorf("unknown connection")
	ErrSinkFull       = fmt.Errorf("connection buffer full")
	ErrSinkClosed     = fmt.Errorf("connection sink closed")
	ErrRoomStopped    = fmt.Errorf("room is not running")
)

// MapToGRPCError converts a domain error into a gRPC status error.
func MapToGRPCError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrMalformedEvent), errors.Is(err, ErrUnknownEvent):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrNotJoined):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, ErrUnknownConn):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrRoomStopped):
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
