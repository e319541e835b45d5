package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/eventplanner/internal/logging"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type recordingLogger struct {
	logging.Nop
	msgs []string
	args [][]any
}

func (r *recordingLogger) Debug(_ context.Context, msg string, args ...any) {
	r.msgs = append(r.msgs, msg)
	r.args = append(r.args, args)
}

func TestLoggingInterceptor(t *testing.T) {
	log := &recordingLogger{}
	s := &GRPCServer{logger: log, interval: time.Second}

	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	resp, err := s.loggingInterceptor(context.Background(), "req", info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return "ok", nil
	})
	assert.NoError(t, err)
	assert.Equal(t, "ok", resp)

	_, err = s.loggingInterceptor(context.Background(), "req", info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, status.Error(codes.NotFound, "unknown service")
	})
	assert.Equal(t, codes.NotFound, status.Code(err))

	if assert.Len(t, log.msgs, 2) {
		assert.Contains(t, log.args[0], "OK")
		assert.Contains(t, log.args[1], "NotFound")
		assert.Contains(t, log.args[1], "/grpc.health.v1.Health/Check")
	}
}
