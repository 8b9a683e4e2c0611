package model

// Representation is a signed statement by one identity for another.
//
// By and Signature are nil until the representation is signed. Once signed, the
// tuple (Time, Nonce, By, For, Memo, Series) MUST NOT change: any mutation
// invalidates both the identifier and the signature.
type Representation struct {
	Time      uint64  `json:"time"`
	Nonce     *uint32 `json:"nonce,omitempty"`
	By        *string `json:"by,omitempty"`
	For       string  `json:"for"`
	Memo      string  `json:"memo"`
	Series    *uint64 `json:"series,omitempty"`
	Signature *string `json:"signature,omitempty"`
}

// Signed reports whether both By and Signature are present.
func (r Representation) Signed() bool {
	return r.By != nil && r.Signature != nil
}

// PlotHeader is the header of a plot (block) of representations.
type PlotHeader struct {
	Previous            string `json:"previous"`
	HashListRoot        string `json:"hash_list_root"`
	Time                uint64 `json:"time"`
	Target              string `json:"target"`
	ThreadWork          string `json:"thread_work"`
	Nonce               uint64 `json:"nonce"`
	Height              uint64 `json:"height"`
	RepresentationCount uint64 `json:"representation_count"`
}

// PlotIDHeaderPair is a plot header together with its identifier. The tip
// header is delivered in this shape.
type PlotIDHeaderPair struct {
	PlotID string     `json:"plot_id"`
	Header PlotHeader `json:"header"`
}

type Plot struct {
	Header          PlotHeader       `json:"header"`
	Representations []Representation `json:"representations"`
}

type Profile struct {
	PublicKey string  `json:"public_key"`
	Ranking   float64 `json:"ranking"`
	Imbalance int64   `json:"imbalance"`
	PlusCode  string  `json:"plus_code,omitempty"`
	PlotID    string  `json:"plot_id,omitempty"`
	Height    *uint64 `json:"height,omitempty"`
	Error     string  `json:"error,omitempty"`
}

type GraphNode struct {
	ID        int     `json:"id"`
	Pubkey    string  `json:"pubkey"`
	Label     string  `json:"label"`
	Ranking   float64 `json:"ranking"`
	PlusCode  string  `json:"plusCode,omitempty"`
	Catchment string  `json:"catchment,omitempty"`
}

type GraphLink struct {
	Source int     `json:"source"`
	Target int     `json:"target"`
	Value  float64 `json:"value"`
}

// Graph is a decoded ranking graph centred on PublicKey.
//
// Every link's Source and Target reference a node in Nodes.
type Graph struct {
	PublicKey string      `json:"public_key"`
	Nodes     []GraphNode `json:"nodes"`
	Links     []GraphLink `json:"links"`
	PlotID    string      `json:"plot_id,omitempty"`
	Height    *uint64     `json:"height,omitempty"`
}
