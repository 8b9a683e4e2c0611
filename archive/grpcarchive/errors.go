package grpcarchive

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"plotthread.org/client/archive"
	"plotthread.org/client/model"
)

// mapErr converts archive errors into gRPC status errors on the server side.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, archive.ErrNotFound):
		return status.Error(codes.NotFound, archive.ErrNotFound.Error())
	case errors.Is(err, archive.ErrInvalidCID):
		return status.Error(codes.InvalidArgument, archive.ErrInvalidCID.Error())
	case errors.Is(err, archive.ErrCIDMismatch):
		return status.Error(codes.DataLoss, archive.ErrCIDMismatch.Error())
	case errors.Is(err, archive.ErrImmutable):
		return status.Error(codes.AlreadyExists, archive.ErrImmutable.Error())
	case model.IsKind(err, model.KindCrypto), model.IsKind(err, model.KindDecode):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// mapRPC converts gRPC status errors back into archive errors on the client side.
func mapRPC(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.NotFound:
		return archive.ErrNotFound
	case codes.DataLoss:
		return archive.ErrCIDMismatch
	case codes.AlreadyExists:
		return archive.ErrImmutable
	case codes.InvalidArgument:
		if st.Message() == archive.ErrInvalidCID.Error() {
			return archive.ErrInvalidCID
		}
		return err
	default:
		return err
	}
}
