package grpcarchive

import (
	"context"
	"encoding/json"

	"github.com/ipfs/go-cid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"plotthread.org/client/archive"
	"plotthread.org/client/model"
)

// Server exposes an archive.Archive over the archive gRPC service.
type Server struct {
	UnimplementedArchiveServer
	Archive archive.Archive
}

func (s *Server) Put(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	if s == nil || s.Archive == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing archive")
	}
	var r model.Representation
	if err := json.Unmarshal(in.GetValue(), &r); err != nil {
		return nil, status.Error(codes.InvalidArgument, "malformed representation")
	}
	id, err := s.Archive.Put(ctx, r)
	if err != nil {
		return nil, mapErr(err)
	}
	return wrapperspb.String(id.String()), nil
}

func (s *Server) Get(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	if s == nil || s.Archive == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing archive")
	}
	id, err := parseCID(in.GetValue())
	if err != nil {
		return nil, mapErr(err)
	}
	r, err := s.Archive.Get(ctx, id)
	if err != nil {
		return nil, mapErr(err)
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, status.Error(codes.Internal, "encode representation")
	}
	return wrapperspb.Bytes(b), nil
}

func (s *Server) Has(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	if s == nil || s.Archive == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing archive")
	}
	id, err := parseCID(in.GetValue())
	if err != nil {
		return nil, mapErr(err)
	}
	ok, err := s.Archive.Has(ctx, id)
	if err != nil {
		return nil, mapErr(err)
	}
	return wrapperspb.Bool(ok), nil
}

func parseCID(s string) (cid.Cid, error) {
	id, err := cid.Decode(s)
	if err != nil {
		return cid.Undef, archive.ErrInvalidCID
	}
	if err := archive.CheckCID(id); err != nil {
		return cid.Undef, err
	}
	return id, nil
}
