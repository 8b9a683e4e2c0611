// Package cache holds the client's view of ledger state: keyed stores that
// protocol responses are merged into, and a broadcast that tells readers which
// key just changed so a query that missed can be retried.
//
// Every store is last-write-wins with full replacement. Responses are not
// correlated with requests, so a late reply to an older request overwrites a
// newer one.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"plotthread.org/client/events"
	"plotthread.org/client/ident"
	"plotthread.org/client/model"
	"plotthread.org/client/storage"
)

// Kind names the store an Update refers to.
type Kind string

const (
	KindRepresentation      Kind = "representation"
	KindRepresentationsByPK Kind = "representations_by_pk"
	KindProfile             Kind = "profile"
	KindGraph               Kind = "graph"
	KindTipHeader           Kind = "tip_header"
	KindCurrentPlot         Kind = "current_plot"
	KindGenesisPlot         Kind = "genesis_plot"
	KindPending             Kind = "pending"
	KindPeers               Kind = "peers"
)

// Update is published after every successful set. Key is the normalized key for
// keyed stores and empty for singletons.
type Update struct {
	Kind Kind
	Key  string
}

// Plot is a plot together with its identifier.
type Plot struct {
	PlotID string     `json:"plot_id"`
	Plot   model.Plot `json:"plot"`
}

const (
	bucketRepresentations = "cache.representations"
	bucketByPK            = "cache.representations_by_pk"
	bucketProfiles        = "cache.profiles"
	bucketGraphs          = "cache.graphs"
	bucketChain           = "cache.chain"
)

type Options struct {
	// KV, when set, receives a JSON copy of every set and is read back by Load.
	KV     storage.KV
	Logger *slog.Logger
}

type Cache struct {
	kv      storage.KV
	log     *slog.Logger
	updates *events.Topic[Update]

	mu       sync.RWMutex
	reps     map[string]model.Representation
	byPK     map[string][]model.Representation
	profiles map[string]model.Profile
	graphs   map[string]model.Graph
	tip      *model.PlotIDHeaderPair
	current  *Plot
	genesis  *Plot
	pending  []model.Representation
	peers    []string
}

func New(opts Options) *Cache {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Cache{
		kv:       opts.KV,
		log:      opts.Logger.With("component", "cache"),
		updates:  events.NewTopic[Update](),
		reps:     map[string]model.Representation{},
		byPK:     map[string][]model.Representation{},
		profiles: map[string]model.Profile{},
		graphs:   map[string]model.Graph{},
	}
}

// Updates is the completion broadcast.
func (c *Cache) Updates() *events.Topic[Update] { return c.updates }

// RepresentationKey is the map key for a representation id.
func RepresentationKey(id string) string { return strings.ToLower(strings.TrimSpace(id)) }

// PublicKeyKey is the map key for a public key.
func PublicKeyKey(pk string) string { return ident.Pad(pk) }

func (c *Cache) Representation(id string) (model.Representation, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.reps[RepresentationKey(id)]
	return r, ok
}

func (c *Cache) SetRepresentation(ctx context.Context, id string, r model.Representation) error {
	key := RepresentationKey(id)
	c.mu.Lock()
	c.reps[key] = r
	c.mu.Unlock()
	return c.commit(ctx, KindRepresentation, bucketRepresentations, key, r)
}

// RepresentationsByPK returns the last page stored for pk. A miss yields an empty
// slice, never nil.
func (c *Cache) RepresentationsByPK(pk string) []model.Representation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]model.Representation{}, c.byPK[PublicKeyKey(pk)]...)
}

// SetRepresentationsByPK stores a page verbatim, replacing whatever page was there.
func (c *Cache) SetRepresentationsByPK(ctx context.Context, pk string, reps []model.Representation) error {
	key := PublicKeyKey(pk)
	page := append([]model.Representation{}, reps...)
	c.mu.Lock()
	c.byPK[key] = page
	c.mu.Unlock()
	return c.commit(ctx, KindRepresentationsByPK, bucketByPK, key, page)
}

func (c *Cache) Profile(pk string) (model.Profile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.profiles[PublicKeyKey(pk)]
	return p, ok
}

// SetProfile stores p under p.PublicKey.
func (c *Cache) SetProfile(ctx context.Context, p model.Profile) error {
	key := PublicKeyKey(p.PublicKey)
	c.mu.Lock()
	c.profiles[key] = p
	c.mu.Unlock()
	return c.commit(ctx, KindProfile, bucketProfiles, key, p)
}

func (c *Cache) Graph(pk string) (model.Graph, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	g, ok := c.graphs[PublicKeyKey(pk)]
	return g, ok
}

// SetGraph stores g under g.PublicKey.
func (c *Cache) SetGraph(ctx context.Context, g model.Graph) error {
	key := PublicKeyKey(g.PublicKey)
	c.mu.Lock()
	c.graphs[key] = g
	c.mu.Unlock()
	return c.commit(ctx, KindGraph, bucketGraphs, key, g)
}

func (c *Cache) TipHeader() (model.PlotIDHeaderPair, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.tip == nil {
		return model.PlotIDHeaderPair{}, false
	}
	return *c.tip, true
}

// TipHeight returns the tip height, or false when no tip has been seen.
func (c *Cache) TipHeight() (uint64, bool) {
	tip, ok := c.TipHeader()
	return tip.Header.Height, ok
}

func (c *Cache) SetTipHeader(ctx context.Context, tip model.PlotIDHeaderPair) error {
	c.mu.Lock()
	c.tip = &tip
	c.mu.Unlock()
	return c.commit(ctx, KindTipHeader, bucketChain, string(KindTipHeader), tip)
}

func (c *Cache) CurrentPlot() (Plot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return Plot{}, false
	}
	return *c.current, true
}

func (c *Cache) GenesisPlot() (Plot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.genesis == nil {
		return Plot{}, false
	}
	return *c.genesis, true
}

// SetPlot stores p as the current plot and, at height 0, also as the genesis plot.
func (c *Cache) SetPlot(ctx context.Context, p Plot) error {
	isGenesis := p.Plot.Header.Height == 0
	c.mu.Lock()
	c.current = &p
	if isGenesis {
		g := p
		c.genesis = &g
	}
	c.mu.Unlock()

	if isGenesis {
		if err := c.commit(ctx, KindGenesisPlot, bucketChain, string(KindGenesisPlot), p); err != nil {
			return err
		}
	}
	return c.commit(ctx, KindCurrentPlot, bucketChain, string(KindCurrentPlot), p)
}

// Pending returns the pending-representation queue. Never nil.
func (c *Cache) Pending() []model.Representation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]model.Representation{}, c.pending...)
}

// SetPending replaces the pending queue wholesale.
func (c *Cache) SetPending(ctx context.Context, reps []model.Representation) error {
	q := append([]model.Representation{}, reps...)
	c.mu.Lock()
	c.pending = q
	c.mu.Unlock()
	return c.commit(ctx, KindPending, bucketChain, string(KindPending), q)
}

func (c *Cache) Peers() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string{}, c.peers...)
}

func (c *Cache) SetPeers(ctx context.Context, addrs []string) error {
	p := append([]string{}, addrs...)
	c.mu.Lock()
	c.peers = p
	c.mu.Unlock()
	return c.commit(ctx, KindPeers, bucketChain, string(KindPeers), p)
}

// commit writes v through to the KV, if any, then announces the update. The
// in-memory value is already visible, so a failed write is reported but the
// update is still announced.
func (c *Cache) commit(ctx context.Context, kind Kind, bucket, key string, v any) error {
	var err error
	if c.kv != nil {
		err = c.persist(ctx, bucket, key, v)
		if err != nil {
			c.log.Warn("cache write-through failed", "kind", string(kind), "key", key, "error", err)
		}
	}
	if bucket == bucketChain {
		key = ""
	}
	c.updates.Publish(Update{Kind: kind, Key: key})
	return err
}

func (c *Cache) persist(ctx context.Context, bucket, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", bucket, err)
	}
	if err := c.kv.Put(ctx, bucket, key, raw); err != nil {
		return fmt.Errorf("cache persist %s/%s: %w", bucket, key, err)
	}
	return nil
}
