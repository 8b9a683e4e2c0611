// Package client is the application root: it owns the node channel, the cache
// and the key holder, routes every inbound message into the cache, and exposes
// the accessors and actions a front end builds on.
//
// Accessors never block on the network. A miss returns the zero value and fires
// the request that will fill it; callers watch Cache().Updates() and read again.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"go.opentelemetry.io/otel/metric"

	"plotthread.org/client/archive"
	"plotthread.org/client/cache"
	"plotthread.org/client/config"
	"plotthread.org/client/events"
	"plotthread.org/client/keys"
	"plotthread.org/client/model"
	"plotthread.org/client/protocol"
	"plotthread.org/client/storage"
	"plotthread.org/client/storage/memkv"
)

// pkRepresentationsLimit is the page size of a representations-by-key query.
const pkRepresentationsLimit = 10

const (
	settingsBucket = "client"
	nodeKey        = "node"
)

// Deps are the collaborators a Client is built from. Every field is optional.
type Deps struct {
	// KV persists the cache, the key holder and the selected node. An in-memory
	// KV is used when nil.
	KV storage.KV
	// Archive, when set, receives a copy of every representation pushed.
	Archive archive.Archive

	Logger     *slog.Logger
	Meter      metric.Meter
	HTTPClient *http.Client
}

type Client struct {
	cfg     *config.Config
	log     *slog.Logger
	kv      storage.KV
	archive archive.Archive

	ch     *protocol.Channel
	cache  *cache.Cache
	holder *keys.Holder

	pushResults  *events.Topic[PushResult]
	plotArrivals *events.Topic[[]string]

	mu      sync.Mutex
	watched map[string]int
	stop    context.CancelFunc
	done    chan struct{}
}

// New wires a Client. Nothing connects until Run.
func New(cfg *config.Config, deps Deps) (*Client, error) {
	if cfg == nil {
		cfg = &config.Config{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.KV == nil {
		deps.KV = memkv.New()
	}

	opts := cfg.ChannelOptions()
	opts.Logger = deps.Logger
	opts.Meter = deps.Meter
	opts.HTTPClient = deps.HTTPClient
	ch, err := protocol.New(opts)
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg:          cfg,
		log:          deps.Logger.With("component", "client"),
		kv:           deps.KV,
		archive:      deps.Archive,
		ch:           ch,
		cache:        cache.New(cache.Options{KV: deps.KV, Logger: deps.Logger}),
		holder:       keys.NewHolder(deps.KV),
		pushResults:  events.NewTopic[PushResult](),
		plotArrivals: events.NewTopic[[]string](),
		watched:      map[string]int{},
	}
	c.registerHandlers()
	return c, nil
}

func (c *Client) Channel() *protocol.Channel { return c.ch }
func (c *Client) Cache() *cache.Cache        { return c.cache }

// PushResults signals the outcome of pushes. Each server result is delivered
// once; results are not matched to the push that caused them.
func (c *Client) PushResults() *events.Topic[PushResult] { return c.pushResults }

// PlotArrivals carries the plot ids of every inv_plot announcement.
func (c *Client) PlotArrivals() *events.Topic[[]string] { return c.plotArrivals }

// Load restores persisted state: cache contents, held keys and the selected node.
func (c *Client) Load(ctx context.Context) error {
	if err := c.cache.Load(ctx); err != nil {
		return fmt.Errorf("load cache: %w", err)
	}
	if err := c.holder.Load(ctx); err != nil {
		return fmt.Errorf("load keys: %w", err)
	}
	node, err := c.kv.Get(ctx, settingsBucket, nodeKey)
	switch {
	case err == nil:
		c.ch.SetURL(string(node))
	case !storage.IsNotFound(err):
		return fmt.Errorf("load node: %w", err)
	}
	return nil
}

// SetNode selects and persists the node. The change applies on the next connect.
func (c *Client) SetNode(ctx context.Context, node string) error {
	if node == "" {
		return model.NewError(model.KindValidation, "NODE-001", "node address is required")
	}
	if err := c.kv.Put(ctx, settingsBucket, nodeKey, []byte(node)); err != nil {
		return err
	}
	c.ch.SetURL(node)
	return nil
}

// Run keeps the channel connected until ctx ends or Close is called. Each time
// the channel opens, the post-initialization requests are sent once.
func (c *Client) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	if c.stop != nil {
		c.mu.Unlock()
		cancel()
		return errors.New("client: already running")
	}
	done := make(chan struct{})
	c.stop, c.done = cancel, done
	c.mu.Unlock()

	defer func() {
		cancel()
		c.mu.Lock()
		c.stop, c.done = nil, nil
		c.mu.Unlock()
		close(done)
	}()

	states := c.ch.States().SubscribeContext(ctx, 8)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for s := range states {
			if s == protocol.Open {
				c.afterOpen(ctx)
			}
		}
	}()

	err := c.ch.Run(ctx)
	cancel()
	wg.Wait()
	return err
}

// Close stops a running Run and waits for it to return, cancelling any pending
// post-initialization work.
func (c *Client) Close() {
	c.mu.Lock()
	stop, done := c.stop, c.done
	c.mu.Unlock()
	if stop == nil {
		return
	}
	stop()
	<-done
}

func (c *Client) afterOpen(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	c.ch.RequestPeerAddresses(ctx)
	c.ch.RequestTipHeader(ctx)
}

// TipHeader returns the cached tip, requesting it on a miss.
func (c *Client) TipHeader(ctx context.Context) (model.PlotIDHeaderPair, bool) {
	tip, ok := c.cache.TipHeader()
	if !ok {
		c.ch.RequestTipHeader(ctx)
	}
	return tip, ok
}

func (c *Client) Profile(ctx context.Context, pk string) (model.Profile, bool) {
	p, ok := c.cache.Profile(pk)
	if !ok {
		c.ch.RequestProfile(ctx, cache.PublicKeyKey(pk))
	}
	return p, ok
}

func (c *Client) Graph(ctx context.Context, pk string) (model.Graph, bool) {
	g, ok := c.cache.Graph(pk)
	if !ok {
		c.ch.RequestGraph(ctx, cache.PublicKeyKey(pk))
	}
	return g, ok
}

func (c *Client) Representation(ctx context.Context, id string) (model.Representation, bool) {
	r, ok := c.cache.Representation(id)
	if !ok {
		c.ch.RequestRepresentation(ctx, cache.RepresentationKey(id))
	}
	return r, ok
}

// RepresentationsByPK returns the cached page for pk (never nil) and requests a
// fresh page when it is empty.
func (c *Client) RepresentationsByPK(ctx context.Context, pk string) []model.Representation {
	reps := c.cache.RepresentationsByPK(pk)
	if len(reps) == 0 {
		c.RequestPkRepresentations(ctx, pk)
	}
	return reps
}

func (c *Client) Pending() []model.Representation { return c.cache.Pending() }
func (c *Client) Peers() []string                 { return c.cache.Peers() }

// CurrentPlot returns the last plot received, requesting the tip plot on a miss.
func (c *Client) CurrentPlot(ctx context.Context) (cache.Plot, bool) {
	p, ok := c.cache.CurrentPlot()
	if !ok {
		if tip, known := c.cache.TipHeader(); known {
			c.ch.RequestPlot(ctx, tip.PlotID)
		}
	}
	return p, ok
}

func (c *Client) GenesisPlot(ctx context.Context) (cache.Plot, bool) {
	p, ok := c.cache.GenesisPlot()
	if !ok {
		c.ch.RequestPlotByHeight(ctx, 0)
	}
	return p, ok
}

// RequestPkRepresentations asks for the newest page of pk's representations. It
// needs a known tip and sends nothing otherwise.
func (c *Client) RequestPkRepresentations(ctx context.Context, pk string) bool {
	if pk == "" {
		return false
	}
	height, ok := c.cache.TipHeight()
	if !ok {
		return false
	}
	return c.ch.RequestPublicKeyRepresentations(ctx, protocol.PublicKeyRepresentationsRequest{
		PublicKey:   cache.PublicKeyKey(pk),
		StartHeight: height + 1,
		EndHeight:   0,
		Limit:       pkRepresentationsLimit,
	})
}

// RequestPending scopes the node's pending queue to pk and asks for it.
func (c *Client) RequestPending(ctx context.Context, pk string) bool {
	if pk == "" {
		return false
	}
	if !c.ch.FilterAdd(ctx, cache.PublicKeyKey(pk)) {
		return false
	}
	return c.ch.RequestFilterRepresentationQueue(ctx)
}

// Watch keeps pk's representations fresh: they are requested now and again on
// every new plot or tip until the returned func is called.
func (c *Client) Watch(ctx context.Context, pk string) func() {
	key := cache.PublicKeyKey(pk)
	c.mu.Lock()
	c.watched[key]++
	c.mu.Unlock()
	c.RequestPkRepresentations(ctx, key)

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if c.watched[key]--; c.watched[key] <= 0 {
				delete(c.watched, key)
			}
		})
	}
}

func (c *Client) refreshWatched(ctx context.Context) {
	c.mu.Lock()
	pks := make([]string, 0, len(c.watched))
	for pk := range c.watched {
		pks = append(pks, pk)
	}
	c.mu.Unlock()
	for _, pk := range pks {
		c.RequestPkRepresentations(ctx, pk)
	}
}
