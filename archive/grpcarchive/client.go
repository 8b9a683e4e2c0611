package grpcarchive

import (
	"context"
	"time"

	"github.com/ipfs/go-cid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"plotthread.org/client/archive"
	"plotthread.org/client/model"
)

// Client implements archive.Archive over the archive gRPC service.
//
// Every response is re-checked locally: a CID returned by Put must match the
// representation sent, and bytes returned by Get must hash to the requested CID.
type Client struct {
	cc     *grpc.ClientConn
	client ArchiveClient

	// Timeout applies per RPC when non-zero.
	Timeout time.Duration
}

type DialOptions struct {
	// MaxMsgBytes sets both send/recv max sizes when non-zero.
	MaxMsgBytes int

	// Timeout applies per RPC when non-zero.
	Timeout time.Duration
}

// Dial creates a client for target. The connection is established lazily on the
// first RPC.
func Dial(target string, opts DialOptions) (*Client, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if opts.MaxMsgBytes > 0 {
		dialOpts = append(dialOpts,
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(opts.MaxMsgBytes),
				grpc.MaxCallSendMsgSize(opts.MaxMsgBytes),
			),
		)
	}
	cc, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, err
	}
	return NewClient(cc, opts.Timeout), nil
}

// NewClient wraps an existing connection. Close closes cc.
func NewClient(cc *grpc.ClientConn, timeout time.Duration) *Client {
	return &Client{cc: cc, client: NewArchiveClient(cc), Timeout: timeout}
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

func (c *Client) Put(ctx context.Context, r model.Representation) (cid.Cid, error) {
	expected, b, err := archive.Encode(r)
	if err != nil {
		return cid.Undef, err
	}

	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.client.Put(ctx, wrapperspb.Bytes(b))
	if err != nil {
		return cid.Undef, mapRPC(err)
	}
	id, err := cid.Decode(reply.GetValue())
	if err != nil || !id.Defined() {
		return cid.Undef, archive.ErrInvalidCID
	}
	if !id.Equals(expected) {
		return cid.Undef, archive.ErrCIDMismatch
	}
	return id, nil
}

func (c *Client) Get(ctx context.Context, id cid.Cid) (model.Representation, error) {
	if err := archive.CheckCID(id); err != nil {
		return model.Representation{}, err
	}
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.client.Get(ctx, wrapperspb.String(id.String()))
	if err != nil {
		return model.Representation{}, mapRPC(err)
	}
	return archive.Decode(id, reply.GetValue())
}

func (c *Client) Has(ctx context.Context, id cid.Cid) (bool, error) {
	if err := archive.CheckCID(id); err != nil {
		return false, err
	}
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.client.Has(ctx, wrapperspb.String(id.String()))
	if err != nil {
		return false, mapRPC(err)
	}
	return reply.GetValue(), nil
}

func (c *Client) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, c.Timeout)
}

