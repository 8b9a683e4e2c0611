package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"google.golang.org/grpc"

	"plotthread.org/client/archive"
	"plotthread.org/client/archive/grpcarchive"

	_ "plotthread.org/client/archive/localfs"
)

func main() {
	fs := flag.NewFlagSet("plotarchived", flag.ExitOnError)
	listen := fs.String("listen", "127.0.0.1:7777", "listen address")
	backend := fs.String("backend", "localfs", "archive backend name")
	dir := fs.String("dir", "", "archive directory (localfs backend)")
	var opts kvFlags
	fs.Var(&opts, "opt", "backend setting key=value (repeatable)")
	listBackends := fs.Bool("list-backends", false, "List supported backends and exit")

	_ = fs.Parse(os.Args[1:])
	if *listBackends {
		for _, b := range archive.List() {
			if b.Description == "" {
				_, _ = fmt.Fprintf(os.Stdout, "%s\n", b.Name)
				continue
			}
			_, _ = fmt.Fprintf(os.Stdout, "%s\t%s\n", b.Name, b.Description)
		}
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg := map[string]string(opts)
	if cfg == nil {
		cfg = map[string]string{}
	}
	if *dir != "" {
		cfg["dir"] = *dir
	}
	arc, closeFn, err := archive.Open(*backend, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if closeFn != nil {
		defer closeFn()
	}

	lis, err := net.Listen("tcp", *listen)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer lis.Close()

	s := grpc.NewServer()
	grpcarchive.RegisterArchiveServer(s, &grpcarchive.Server{Archive: arc})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		s.GracefulStop()
	}()

	log.Info("plotarchived listening", "addr", lis.Addr().String(), "backend", *backend, "opts", keysOf(cfg))
	if err := s.Serve(lis); err != nil {
		log.Error("serve failed", "error", err)
		os.Exit(1)
	}
}

// kvFlags collects repeated key=value flags.
type kvFlags map[string]string

func (k *kvFlags) String() string {
	return strings.Join(keysOf(*k), ",")
}

func (k *kvFlags) Set(v string) error {
	key, val, ok := strings.Cut(v, "=")
	if !ok || key == "" {
		return fmt.Errorf("expected key=value, got %q", v)
	}
	if *k == nil {
		*k = kvFlags{}
	}
	(*k)[key] = val
	return nil
}

func keysOf(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
