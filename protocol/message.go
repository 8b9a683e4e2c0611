package protocol

import (
	"encoding/json"

	"plotthread.org/client/model"
)

// Outbound message types.
const (
	TypeGetPeerAddresses             = "get_peer_addresses"
	TypeGetPlot                      = "get_plot"
	TypeGetPlotByHeight              = "get_plot_by_height"
	TypeGetTipHeader                 = "get_tip_header"
	TypeGetProfile                   = "get_profile"
	TypeGetGraph                     = "get_graph"
	TypePushRepresentation           = "push_representation"
	TypeGetRepresentation            = "get_representation"
	TypeGetPublicKeyRepresentations  = "get_public_key_representations"
	TypeFilterAdd                    = "filter_add"
	TypeGetFilterRepresentationQueue = "get_filter_representation_queue"
)

// Inbound message types.
const (
	TypeInvPlot                   = "inv_plot"
	TypeTipHeader                 = "tip_header"
	TypeProfile                   = "profile"
	TypeGraph                     = "graph"
	TypePlot                      = "plot"
	TypeRepresentation            = "representation"
	TypePushRepresentationResult  = "push_representation_result"
	TypePublicKeyRepresentations  = "public_key_representations"
	TypeFilterRepresentationQueue = "filter_representation_queue"
	TypePeerAddresses             = "peer_addresses"
)

// Message is an outbound frame. A nil Body is omitted from the wire.
type Message struct {
	Type string `json:"type"`
	Body any    `json:"body,omitempty"`
}

// Frame is an inbound frame with its body left undecoded.
type Frame struct {
	Type string          `json:"type"`
	Body json.RawMessage `json:"body,omitempty"`
}

type PlotRequest struct {
	PlotID string `json:"plot_id"`
}

type PlotByHeightRequest struct {
	Height uint64 `json:"height"`
}

type PublicKeyRequest struct {
	PublicKey string `json:"public_key"`
}

type PushRepresentationRequest struct {
	Representation model.Representation `json:"representation"`
}

type RepresentationRequest struct {
	RepresentationID string `json:"representation_id"`
}

// PublicKeyRepresentationsRequest pages backwards from StartHeight. An EndHeight
// of 0 means no lower bound.
type PublicKeyRepresentationsRequest struct {
	PublicKey   string `json:"public_key"`
	StartHeight uint64 `json:"start_height"`
	EndHeight   uint64 `json:"end_height"`
	Limit       int    `json:"limit"`
}

type FilterAddRequest struct {
	PublicKeys []string `json:"public_keys"`
}

type InvPlotBody struct {
	PlotIDs []string `json:"plot_ids"`
}

// GraphBody carries the graph in DOT form; see graph.Decode.
type GraphBody struct {
	PublicKey string  `json:"public_key"`
	Graph     string  `json:"graph"`
	PlotID    string  `json:"plot_id,omitempty"`
	Height    *uint64 `json:"height,omitempty"`
}

// ErrEmptyBody is returned by handlers for a frame whose payload field is null
// or absent; the channel counts such frames as ignored.
var ErrEmptyBody = model.NewError(model.KindDecode, "MSG-002", "message payload is null")

// PlotBody carries a plot; Plot is nil when the node sent null.
type PlotBody struct {
	PlotID string      `json:"plot_id"`
	Plot   *model.Plot `json:"plot"`
}

type RepresentationBody struct {
	RepresentationID string                `json:"representation_id"`
	Representation   *model.Representation `json:"representation"`
}

type PushResultBody struct {
	RepresentationID string `json:"representation_id"`
	Error            string `json:"error,omitempty"`
}

type FilterPlot struct {
	PlotID          string                 `json:"plot_id,omitempty"`
	Representations []model.Representation `json:"representations"`
}

type PublicKeyRepresentationsBody struct {
	PublicKey   string       `json:"public_key"`
	FilterPlots []FilterPlot `json:"filter_plots"`
}

// Representations flattens the representations of every listed plot in order.
func (b PublicKeyRepresentationsBody) Representations() []model.Representation {
	out := []model.Representation{}
	for _, p := range b.FilterPlots {
		out = append(out, p.Representations...)
	}
	return out
}

type FilterRepresentationQueueBody struct {
	Representations []model.Representation `json:"representations"`
}

type PeerAddressesBody struct {
	Addresses []string `json:"addresses"`
}
