package client

import (
	"context"

	"plotthread.org/client/cache"
	"plotthread.org/client/graph"
	"plotthread.org/client/model"
	"plotthread.org/client/protocol"
)

func (c *Client) registerHandlers() {
	protocol.On(c.ch, protocol.TypeInvPlot, c.onInvPlot)
	protocol.On(c.ch, protocol.TypeTipHeader, c.onTipHeader)
	protocol.On(c.ch, protocol.TypeProfile, func(ctx context.Context, p model.Profile) error {
		return c.cache.SetProfile(ctx, p)
	})
	protocol.On(c.ch, protocol.TypeGraph, c.onGraph)
	protocol.On(c.ch, protocol.TypePlot, func(ctx context.Context, b protocol.PlotBody) error {
		if b.Plot == nil {
			return protocol.ErrEmptyBody
		}
		return c.cache.SetPlot(ctx, cache.Plot{PlotID: b.PlotID, Plot: *b.Plot})
	})
	protocol.On(c.ch, protocol.TypeRepresentation, func(ctx context.Context, b protocol.RepresentationBody) error {
		if b.Representation == nil {
			return protocol.ErrEmptyBody
		}
		return c.cache.SetRepresentation(ctx, b.RepresentationID, *b.Representation)
	})
	protocol.On(c.ch, protocol.TypePushRepresentationResult, func(_ context.Context, b protocol.PushResultBody) error {
		c.pushResults.Publish(PushResult{RepresentationID: b.RepresentationID, Error: b.Error})
		return nil
	})
	protocol.On(c.ch, protocol.TypePublicKeyRepresentations, func(ctx context.Context, b protocol.PublicKeyRepresentationsBody) error {
		return c.cache.SetRepresentationsByPK(ctx, b.PublicKey, b.Representations())
	})
	protocol.On(c.ch, protocol.TypeFilterRepresentationQueue, func(ctx context.Context, b protocol.FilterRepresentationQueueBody) error {
		return c.cache.SetPending(ctx, b.Representations)
	})
	protocol.On(c.ch, protocol.TypePeerAddresses, func(ctx context.Context, b protocol.PeerAddressesBody) error {
		return c.cache.SetPeers(ctx, b.Addresses)
	})
}

// onInvPlot announces the new plots, then refreshes the tip and every watched key.
func (c *Client) onInvPlot(ctx context.Context, b protocol.InvPlotBody) error {
	ids := b.PlotIDs
	if ids == nil {
		ids = []string{}
	}
	c.plotArrivals.Publish(ids)
	c.ch.RequestTipHeader(ctx)
	c.refreshWatched(ctx)
	return nil
}

func (c *Client) onTipHeader(ctx context.Context, tip model.PlotIDHeaderPair) error {
	prev, had := c.cache.TipHeight()
	if err := c.cache.SetTipHeader(ctx, tip); err != nil {
		return err
	}
	if !had || prev != tip.Header.Height {
		c.refreshWatched(ctx)
	}
	return nil
}

// onGraph decodes the DOT text unfiltered, centred on the body's key.
func (c *Client) onGraph(ctx context.Context, b protocol.GraphBody) error {
	g := graph.Decode(b.Graph, b.PublicKey, 0)
	g.PublicKey = b.PublicKey
	g.PlotID = b.PlotID
	g.Height = b.Height
	return c.cache.SetGraph(ctx, g)
}
