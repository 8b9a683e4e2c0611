package cache

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plotthread.org/client/model"
	"plotthread.org/client/storage/memkv"
)

var (
	pkA = strings.Repeat("A", 43) + "="
	pkB = strings.Repeat("B", 43) + "="
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func rep(memo string) model.Representation {
	return model.Representation{Time: 1, For: pkB, Memo: memo}
}

func TestRepresentationsByPKMissIsEmpty(t *testing.T) {
	c := New(Options{Logger: quiet()})
	got := c.RepresentationsByPK(pkA)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestPagesReplaceRatherThanAccumulate(t *testing.T) {
	c := New(Options{Logger: quiet()})
	ctx := context.Background()

	require.NoError(t, c.SetRepresentationsByPK(ctx, pkA, []model.Representation{rep("one"), rep("two")}))
	require.NoError(t, c.SetRepresentationsByPK(ctx, pkA, []model.Representation{rep("three")}))

	got := c.RepresentationsByPK(pkA)
	require.Len(t, got, 1)
	assert.Equal(t, "three", got[0].Memo)
}

func TestLastWriteWins(t *testing.T) {
	c := New(Options{Logger: quiet()})
	ctx := context.Background()

	code := "849VCWC8+R9"
	require.NoError(t, c.SetProfile(ctx, model.Profile{PublicKey: pkA, Ranking: 0.5, Imbalance: 3, PlusCode: code}))
	require.NoError(t, c.SetProfile(ctx, model.Profile{PublicKey: pkA, Ranking: 0.25}))

	p, ok := c.Profile(pkA)
	require.True(t, ok)
	// Full replacement: fields absent from the newer push are gone.
	assert.Equal(t, model.Profile{PublicKey: pkA, Ranking: 0.25}, p)

	_, ok = c.Profile(pkB)
	assert.False(t, ok)
}

func TestKeysAreNormalized(t *testing.T) {
	c := New(Options{Logger: quiet()})
	ctx := context.Background()

	require.NoError(t, c.SetRepresentation(ctx, "ABCDEF", rep("x")))
	_, ok := c.Representation("abcdef")
	assert.True(t, ok)

	require.NoError(t, c.SetGraph(ctx, model.Graph{PublicKey: "abc", Nodes: []model.GraphNode{}, Links: []model.GraphLink{}}))
	_, ok = c.Graph("abc" + strings.Repeat("0", 40) + "=")
	assert.True(t, ok)
}

func TestPlotStoresGenesisAtHeightZero(t *testing.T) {
	c := New(Options{Logger: quiet()})
	ctx := context.Background()

	_, ok := c.GenesisPlot()
	require.False(t, ok)

	require.NoError(t, c.SetPlot(ctx, Plot{PlotID: "00", Plot: model.Plot{Header: model.PlotHeader{Height: 0}}}))
	require.NoError(t, c.SetPlot(ctx, Plot{PlotID: "07", Plot: model.Plot{Header: model.PlotHeader{Height: 7}}}))

	g, ok := c.GenesisPlot()
	require.True(t, ok)
	assert.Equal(t, "00", g.PlotID)
	cur, ok := c.CurrentPlot()
	require.True(t, ok)
	assert.Equal(t, "07", cur.PlotID)
}

func TestUpdatesAnnounceEverySet(t *testing.T) {
	c := New(Options{Logger: quiet()})
	ctx := context.Background()
	updates, cancel := c.Updates().Subscribe(16)
	defer cancel()

	require.NoError(t, c.SetTipHeader(ctx, model.PlotIDHeaderPair{PlotID: "aa", Header: model.PlotHeader{Height: 9}}))
	require.NoError(t, c.SetProfile(ctx, model.Profile{PublicKey: pkA}))
	require.NoError(t, c.SetPlot(ctx, Plot{PlotID: "00"}))
	require.NoError(t, c.SetPending(ctx, nil))

	var got []Update
	for len(updates) > 0 {
		got = append(got, <-updates)
	}
	assert.Equal(t, []Update{
		{Kind: KindTipHeader},
		{Kind: KindProfile, Key: pkA},
		{Kind: KindGenesisPlot},
		{Kind: KindCurrentPlot},
		{Kind: KindPending},
	}, got)

	h, ok := c.TipHeight()
	require.True(t, ok)
	assert.Equal(t, uint64(9), h)
	assert.NotNil(t, c.Pending())
}

func TestWriteThroughAndLoad(t *testing.T) {
	ctx := context.Background()
	kv := memkv.New()

	c := New(Options{KV: kv, Logger: quiet()})
	require.NoError(t, c.SetRepresentation(ctx, "ab12", rep("stored")))
	require.NoError(t, c.SetRepresentationsByPK(ctx, pkA, []model.Representation{rep("page")}))
	require.NoError(t, c.SetProfile(ctx, model.Profile{PublicKey: pkA, Ranking: 0.75}))
	require.NoError(t, c.SetGraph(ctx, model.Graph{PublicKey: pkB, Nodes: []model.GraphNode{{ID: 1, Pubkey: pkB}}, Links: []model.GraphLink{}}))
	require.NoError(t, c.SetTipHeader(ctx, model.PlotIDHeaderPair{PlotID: "cc", Header: model.PlotHeader{Height: 3}}))
	require.NoError(t, c.SetPlot(ctx, Plot{PlotID: "00"}))
	require.NoError(t, c.SetPending(ctx, []model.Representation{rep("pending")}))
	require.NoError(t, c.SetPeers(ctx, []string{"10.0.0.1:8832"}))

	// A corrupt entry is dropped, not fatal.
	require.NoError(t, kv.Put(ctx, bucketProfiles, pkB, []byte("{")))

	restored := New(Options{KV: kv, Logger: quiet()})
	require.NoError(t, restored.Load(ctx))

	r, ok := restored.Representation("AB12")
	require.True(t, ok)
	assert.Equal(t, "stored", r.Memo)
	assert.Equal(t, "page", restored.RepresentationsByPK(pkA)[0].Memo)
	p, ok := restored.Profile(pkA)
	require.True(t, ok)
	assert.Equal(t, 0.75, p.Ranking)
	_, ok = restored.Profile(pkB)
	assert.False(t, ok)
	g, ok := restored.Graph(pkB)
	require.True(t, ok)
	assert.Len(t, g.Nodes, 1)
	h, ok := restored.TipHeight()
	require.True(t, ok)
	assert.Equal(t, uint64(3), h)
	_, ok = restored.GenesisPlot()
	assert.True(t, ok)
	assert.Len(t, restored.Pending(), 1)
	assert.Equal(t, []string{"10.0.0.1:8832"}, restored.Peers())
}

func TestLoadWithoutKV(t *testing.T) {
	c := New(Options{Logger: quiet()})
	require.NoError(t, c.Load(context.Background()))
	_, ok := c.TipHeader()
	assert.False(t, ok)
}
