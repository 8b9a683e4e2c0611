package cache

import (
	"context"
	"encoding/json"
	"log/slog"

	"plotthread.org/client/model"
	"plotthread.org/client/storage"
)

// Load restores every store from the KV. Entries that do not decode are skipped
// and logged. Without a KV, Load does nothing. No updates are published.
func (c *Cache) Load(ctx context.Context) error {
	if c.kv == nil {
		return nil
	}
	reps := map[string]model.Representation{}
	byPK := map[string][]model.Representation{}
	profiles := map[string]model.Profile{}
	graphs := map[string]model.Graph{}
	for _, err := range []error{
		loadBucket(ctx, c.kv, c.log, bucketRepresentations, reps),
		loadBucket(ctx, c.kv, c.log, bucketByPK, byPK),
		loadBucket(ctx, c.kv, c.log, bucketProfiles, profiles),
		loadBucket(ctx, c.kv, c.log, bucketGraphs, graphs),
	} {
		if err != nil {
			return err
		}
	}

	var (
		tip              *model.PlotIDHeaderPair
		current, genesis *Plot
		pending          []model.Representation
		peers            []string
	)
	for _, s := range []struct {
		kind Kind
		dst  any
	}{
		{KindTipHeader, &tip},
		{KindCurrentPlot, &current},
		{KindGenesisPlot, &genesis},
		{KindPending, &pending},
		{KindPeers, &peers},
	} {
		if _, err := loadValue(ctx, c.kv, c.log, bucketChain, string(s.kind), s.dst); err != nil {
			return err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.reps, c.byPK, c.profiles, c.graphs = reps, byPK, profiles, graphs
	c.tip, c.current, c.genesis = tip, current, genesis
	c.pending, c.peers = pending, peers
	return nil
}

func loadBucket[T any](ctx context.Context, kv storage.KV, log *slog.Logger, bucket string, dst map[string]T) error {
	keys, err := kv.Keys(ctx, bucket)
	if err != nil {
		return err
	}
	for _, k := range keys {
		var v T
		ok, err := loadValue(ctx, kv, log, bucket, k, &v)
		if err != nil {
			return err
		}
		if ok {
			dst[k] = v
		}
	}
	return nil
}

// loadValue decodes one entry into dst and reports whether it did. A missing or
// corrupt entry is not an error.
func loadValue(ctx context.Context, kv storage.KV, log *slog.Logger, bucket, key string, dst any) (bool, error) {
	raw, err := kv.Get(ctx, bucket, key)
	if storage.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		log.Warn("dropping undecodable cache entry", "bucket", bucket, "key", key, "error", err)
		return false, nil
	}
	return true, nil
}
