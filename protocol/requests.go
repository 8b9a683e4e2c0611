package protocol

import (
	"context"

	"plotthread.org/client/model"
)

// Request helpers. Each returns whether the request was written; a false return
// means the channel was not Open or the arguments were empty, and nothing was sent.

func (c *Channel) RequestPeerAddresses(ctx context.Context) bool {
	return c.Send(ctx, Message{Type: TypeGetPeerAddresses})
}

func (c *Channel) RequestTipHeader(ctx context.Context) bool {
	return c.Send(ctx, Message{Type: TypeGetTipHeader})
}

func (c *Channel) RequestPlot(ctx context.Context, plotID string) bool {
	if plotID == "" {
		return false
	}
	return c.Send(ctx, Message{Type: TypeGetPlot, Body: PlotRequest{PlotID: plotID}})
}

func (c *Channel) RequestPlotByHeight(ctx context.Context, height uint64) bool {
	return c.Send(ctx, Message{Type: TypeGetPlotByHeight, Body: PlotByHeightRequest{Height: height}})
}

func (c *Channel) RequestProfile(ctx context.Context, pk string) bool {
	if pk == "" {
		return false
	}
	return c.Send(ctx, Message{Type: TypeGetProfile, Body: PublicKeyRequest{PublicKey: pk}})
}

func (c *Channel) RequestGraph(ctx context.Context, pk string) bool {
	if pk == "" {
		return false
	}
	return c.Send(ctx, Message{Type: TypeGetGraph, Body: PublicKeyRequest{PublicKey: pk}})
}

func (c *Channel) RequestRepresentation(ctx context.Context, id string) bool {
	if id == "" {
		return false
	}
	return c.Send(ctx, Message{Type: TypeGetRepresentation, Body: RepresentationRequest{RepresentationID: id}})
}

// PushRepresentation submits a signed representation. The outcome arrives later as
// a push_representation_result frame.
func (c *Channel) PushRepresentation(ctx context.Context, r model.Representation) bool {
	return c.Send(ctx, Message{Type: TypePushRepresentation, Body: PushRepresentationRequest{Representation: r}})
}

func (c *Channel) RequestPublicKeyRepresentations(ctx context.Context, req PublicKeyRepresentationsRequest) bool {
	if req.PublicKey == "" {
		return false
	}
	return c.Send(ctx, Message{Type: TypeGetPublicKeyRepresentations, Body: req})
}

// FilterAdd scopes the node's pending queue to pks. An empty list sends nothing.
func (c *Channel) FilterAdd(ctx context.Context, pks ...string) bool {
	if len(pks) == 0 {
		return false
	}
	return c.Send(ctx, Message{Type: TypeFilterAdd, Body: FilterAddRequest{PublicKeys: pks}})
}

// RequestFilterRepresentationQueue asks for the pending queue. Send FilterAdd first
// or the node answers for no keys.
func (c *Channel) RequestFilterRepresentationQueue(ctx context.Context) bool {
	return c.Send(ctx, Message{Type: TypeGetFilterRepresentationQueue})
}
