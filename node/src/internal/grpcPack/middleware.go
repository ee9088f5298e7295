package grpcPack

import (
	"context"

	tsErr "github.com/sajjad-MoBe/TupleSpace/node/src/internal/errors"
	"github.com/sajjad-MoBe/TupleSpace/node/src/internal/shared"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// UnaryRecoveryInterceptor converts handler panics into Internal errors
func UnaryRecoveryInterceptor(logger *shared.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				recovered := tsErr.RecoverError(r)
				logger.WithError(recovered).Error("grpc handler %s panicked", info.FullMethod)
				err = status.Error(codes.Internal, recovered.Error())
			}
		}()

		return handler(ctx, req)
	}
}

// StreamRecoveryInterceptor converts stream handler panics into Internal errors
func StreamRecoveryInterceptor(logger *shared.Logger) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
		defer func() {
			if r := recover(); r != nil {
				recovered := tsErr.RecoverError(r)
				logger.WithError(recovered).Error("grpc stream %s panicked", info.FullMethod)
				err = status.Error(codes.Internal, recovered.Error())
			}
		}()

		return handler(srv, ss)
	}
}
