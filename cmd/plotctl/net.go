package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"plotthread.org/client/cache"
	"plotthread.org/client/canonical"
	"plotthread.org/client/ident"
	"plotthread.org/client/protocol"
)

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// connect starts s.client in the background and waits for the channel to open.
// The returned func stops it.
func connect(ctx context.Context, s *session, timeout time.Duration) (func(), error) {
	if s.client.Channel().URL() == "" {
		return nil, errors.New("no node configured (use --node or set node in --config)")
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.client.Run(runCtx)
	}()
	stop := func() {
		cancel()
		<-done
	}

	waitCtx, waitCancel := context.WithTimeout(ctx, timeout)
	defer waitCancel()
	if err := s.client.Channel().WaitFor(waitCtx, protocol.Open); err != nil {
		stop()
		return nil, fmt.Errorf("connect %s: %w", s.client.Channel().URL(), err)
	}
	return stop, nil
}

// awaitUpdate blocks until an update matching match arrives on updates or ctx ends.
func awaitUpdate(ctx context.Context, updates <-chan cache.Update, match func(cache.Update) bool) error {
	for {
		select {
		case u, ok := <-updates:
			if !ok {
				return ctx.Err()
			}
			if match(u) {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func cmdWatch(args []string, out io.Writer, errOut io.Writer) int {
	sf := newStateFlags("watch", errOut)
	var pks stringList
	sf.fs.Var(&pks, "pk", "Public key to watch (repeatable; default: held keys)")
	duration := sf.fs.Duration("duration", 0, "Stop after this long (0 = until interrupted)")
	connectTimeout := sf.fs.Duration("connect-timeout", 15*time.Second, "Time allowed to connect")
	if err := sf.fs.Parse(args); err != nil {
		return 2
	}
	s, err := sf.open(errOut)
	if err != nil {
		fmt.Fprintf(errOut, "open state: %v\n", err)
		return 1
	}
	defer s.closer()

	ctx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	updates := s.client.Cache().Updates().SubscribeContext(ctx, 256)
	arrivals := s.client.PlotArrivals().SubscribeContext(ctx, 16)

	stop, err := connect(ctx, s, *connectTimeout)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	defer stop()

	if len(pks) == 0 {
		pks = s.client.PublicKeys()
	}
	for _, pk := range pks {
		unwatch := s.client.Watch(ctx, pk)
		defer unwatch()
		s.client.RequestPending(ctx, pk)
	}

	for {
		select {
		case <-ctx.Done():
			return 0
		case ids, ok := <-arrivals:
			if !ok {
				return 0
			}
			for _, id := range ids {
				_, _ = fmt.Fprintf(out, "plot %s\n", ident.ShortenPlotID(id))
			}
		case u, ok := <-updates:
			if !ok {
				return 0
			}
			switch u.Kind {
			case cache.KindTipHeader:
				if h, known := s.client.Cache().TipHeight(); known {
					_, _ = fmt.Fprintf(out, "tip %d\n", h)
				}
			case cache.KindRepresentationsByPK:
				_, _ = fmt.Fprintf(out, "representations %s %d\n", ident.Shorten(u.Key), len(s.client.Cache().RepresentationsByPK(u.Key)))
			case cache.KindPending:
				_, _ = fmt.Fprintf(out, "pending %d\n", len(s.client.Pending()))
			case cache.KindPeers:
				_, _ = fmt.Fprintf(out, "peers %s\n", strings.Join(s.client.Peers(), " "))
			}
		}
	}
}

func cmdPush(args []string, in io.Reader, out io.Writer, errOut io.Writer) int {
	sf := newStateFlags("push", errOut)
	to := sf.fs.String("to", "", "Recipient public key")
	memo := sf.fs.String("memo", "", "Memo (at most 200 characters)")
	keyIndex := sf.fs.Int("key-index", -1, "Signing key index (default: selected key)")
	timeout := sf.fs.Duration("timeout", 30*time.Second, "Time allowed for the whole push")
	if err := sf.fs.Parse(args); err != nil {
		return 2
	}
	if *to == "" || *memo == "" {
		fmt.Fprintln(errOut, "missing --to or --memo")
		return 2
	}
	passphrase, err := readPassphrase(in)
	if err != nil {
		fmt.Fprintf(errOut, "read passphrase: %v\n", err)
		return 2
	}
	s, err := sf.open(errOut)
	if err != nil {
		fmt.Fprintf(errOut, "open state: %v\n", err)
		return 1
	}
	defer s.closer()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	results, unsubscribe := s.client.PushResults().Subscribe(4)
	defer unsubscribe()
	updates := s.client.Cache().Updates().SubscribeContext(ctx, 64)

	stop, err := connect(ctx, s, *timeout)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	defer stop()

	// A tip restored from state may be stale; sign against the node's current one.
	if err := awaitUpdate(ctx, updates, func(u cache.Update) bool { return u.Kind == cache.KindTipHeader }); err != nil {
		fmt.Fprintf(errOut, "no tip header: %v\n", err)
		return 1
	}

	r, sent, err := s.client.Push(ctx, ident.Normalize(*to), *memo, passphrase, *keyIndex)
	if err != nil {
		fmt.Fprintf(errOut, "push: %v\n", err)
		return 1
	}
	if !sent {
		fmt.Fprintln(errOut, "push: channel closed before the representation was sent")
		return 1
	}
	_, _ = fmt.Fprintf(errOut, "pushed %s\n", ident.ShortenHex(canonical.IdentifierOf(r)))

	select {
	case res := <-results:
		_, _ = fmt.Fprintln(out, res.Notification())
		if res.Error != "" {
			return 1
		}
		return 0
	case <-ctx.Done():
		fmt.Fprintln(errOut, "push: no result from node")
		return 1
	}
}

func cmdProfile(args []string, out io.Writer, errOut io.Writer) int {
	sf := newStateFlags("profile", errOut)
	timeout := sf.fs.Duration("timeout", 15*time.Second, "Time allowed")
	if err := sf.fs.Parse(args); err != nil {
		return 2
	}
	if sf.fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: plotctl profile [state flags] <pk>")
		return 2
	}
	pk := ident.Normalize(sf.fs.Arg(0))
	s, err := sf.open(errOut)
	if err != nil {
		fmt.Fprintf(errOut, "open state: %v\n", err)
		return 1
	}
	defer s.closer()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	key := cache.PublicKeyKey(pk)
	updates := s.client.Cache().Updates().SubscribeContext(ctx, 64)

	stop, err := connect(ctx, s, *timeout)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	defer stop()

	if !s.client.Channel().RequestProfile(ctx, key) {
		fmt.Fprintln(errOut, "profile: request not sent")
		return 1
	}
	// Error replies may omit public_key, which lands them under the zero key.
	answered := key
	err = awaitUpdate(ctx, updates, func(u cache.Update) bool {
		if u.Kind != cache.KindProfile {
			return false
		}
		if u.Key == key {
			return true
		}
		if p, ok := s.client.Cache().Profile(u.Key); ok && u.Key == ident.Zero && p.Error != "" {
			answered = u.Key
			return true
		}
		return false
	})
	if err != nil {
		fmt.Fprintf(errOut, "profile: %v\n", err)
		return 1
	}
	p, _ := s.client.Cache().Profile(answered)
	if p.Error != "" {
		fmt.Fprintf(errOut, "profile: %s\n", p.Error)
		return 1
	}
	return writeJSON(out, errOut, p)
}
