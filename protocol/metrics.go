package protocol

import (
	"context"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Stats is a snapshot of a Channel's counters.
type Stats struct {
	Sent       uint64
	Skipped    uint64
	Received   uint64
	Ignored    uint64
	Reconnects uint64
}

// channelMetrics mirrors every count into the OpenTelemetry instruments and into
// local atomics that back Stats.
type channelMetrics struct {
	sent, skipped, received, ignored, reconnects metric.Int64Counter

	nSent, nSkipped, nReceived, nIgnored, nReconnects atomic.Uint64
}

func newChannelMetrics(meter metric.Meter) (*channelMetrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("plotthread.org/client/protocol")
	}
	m := &channelMetrics{}
	for _, c := range []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.sent, "plotthread.channel.sent", "Requests written to the node"},
		{&m.skipped, "plotthread.channel.skipped", "Requests dropped because the channel was not open"},
		{&m.received, "plotthread.channel.received", "Frames read from the node"},
		{&m.ignored, "plotthread.channel.ignored", "Frames dropped as malformed or unhandled"},
		{&m.reconnects, "plotthread.channel.reconnects", "Reconnection attempts"},
	} {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit("1"))
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}
	return m, nil
}

func typeAttr(t string) metric.AddOption {
	return metric.WithAttributes(attribute.String("type", t))
}

func (m *channelMetrics) recordSent(ctx context.Context, t string) {
	m.nSent.Add(1)
	m.sent.Add(ctx, 1, typeAttr(t))
}

func (m *channelMetrics) recordSkipped(ctx context.Context, t string) {
	m.nSkipped.Add(1)
	m.skipped.Add(ctx, 1, typeAttr(t))
}

func (m *channelMetrics) recordReceived(ctx context.Context, t string) {
	m.nReceived.Add(1)
	m.received.Add(ctx, 1, typeAttr(t))
}

func (m *channelMetrics) recordIgnored(ctx context.Context, t string) {
	m.nIgnored.Add(1)
	m.ignored.Add(ctx, 1, typeAttr(t))
}

func (m *channelMetrics) recordReconnect(ctx context.Context) {
	m.nReconnects.Add(1)
	m.reconnects.Add(ctx, 1)
}

func (m *channelMetrics) snapshot() Stats {
	return Stats{
		Sent:       m.nSent.Load(),
		Skipped:    m.nSkipped.Load(),
		Received:   m.nReceived.Load(),
		Ignored:    m.nIgnored.Load(),
		Reconnects: m.nReconnects.Load(),
	}
}
