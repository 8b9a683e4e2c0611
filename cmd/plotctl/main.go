package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"plotthread.org/client/client"
	"plotthread.org/client/config"
	"plotthread.org/client/storage"
	"plotthread.org/client/storage/kvregistry"

	_ "plotthread.org/client/archive/grpcarchive"
	_ "plotthread.org/client/archive/localfs"
	_ "plotthread.org/client/storage/boltkv"
	_ "plotthread.org/client/storage/memkv"
	_ "plotthread.org/client/storage/rediskv"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, in io.Reader, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "key":
		return cmdKey(args[1:], in, out, errOut)
	case "sign":
		return cmdSign(args[1:], in, out, errOut)
	case "rep":
		return cmdRep(args[1:], out, errOut)
	case "normalize":
		return cmdNormalize(args[1:], out, errOut)
	case "shorten":
		return cmdShorten(args[1:], out, errOut)
	case "graph":
		return cmdGraph(args[1:], out, errOut)
	case "watch":
		return cmdWatch(args[1:], out, errOut)
	case "push":
		return cmdPush(args[1:], in, out, errOut)
	case "profile":
		return cmdProfile(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "plotctl: plotthread ledger client")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  plotctl key import [state flags]            (passphrase on stdin)")
	fmt.Fprintln(w, "  plotctl key list|delete [state flags]")
	fmt.Fprintln(w, "  plotctl key select [state flags] <public key>")
	fmt.Fprintln(w, "  plotctl key strength                        (passphrase on stdin)")
	fmt.Fprintln(w, "  plotctl sign --to <pk> --memo <text> --tip-height <n> [--key-index <i>] [--series-length <n>]")
	fmt.Fprintln(w, "  plotctl rep id|verify|canonical <file>")
	fmt.Fprintln(w, "  plotctl rep cid <representation id>")
	fmt.Fprintln(w, "  plotctl normalize <value>")
	fmt.Fprintln(w, "  plotctl shorten [--hex | --plot] <value>")
	fmt.Fprintln(w, "  plotctl graph decode [--focus <pk>] [--threshold <0-100>] <file>")
	fmt.Fprintln(w, "  plotctl watch [state flags] [--pk <pk> ...] [--duration <d>]")
	fmt.Fprintln(w, "  plotctl push [state flags] --to <pk> --memo <text> [--key-index <i>]   (passphrase on stdin)")
	fmt.Fprintln(w, "  plotctl profile [state flags] <pk>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "State flags:")
	fmt.Fprintln(w, "  --config <file>   YAML config (node, storage, archive, log)")
	fmt.Fprintln(w, "  --node <addr>     node address, overrides config and the saved node")
	fmt.Fprintf(w, "  --store <name>    state backend: %s (default bolt)\n", strings.Join(kvregistry.Names(kvregistry.UsageCLI), ", "))
	fmt.Fprintln(w, "  --bolt-path       defaults to ~/.plotthread/state.db")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - passphrases are read from the first line of stdin and never stored")
	fmt.Fprintln(w, "  - sign writes the signed representation as JSON to stdout")
}

// stateFlags are shared by every command that touches persisted state or the network.
type stateFlags struct {
	fs         *flag.FlagSet
	configPath string
	node       string
	store      string
}

func newStateFlags(name string, errOut io.Writer) *stateFlags {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(errOut)
	s := &stateFlags{fs: fs}
	fs.StringVar(&s.configPath, "config", "", "YAML config file")
	fs.StringVar(&s.node, "node", "", "node address")
	fs.StringVar(&s.store, "store", "bolt", "state backend")
	kvregistry.RegisterFlags(fs, kvregistry.UsageCLI)
	return s
}

// session is an opened client with the resources it owns.
type session struct {
	cfg    *config.Config
	client *client.Client
	closer func()
}

// open loads config, opens the state store and archive, and builds a loaded client.
func (s *stateFlags) open(errOut io.Writer) (*session, error) {
	cfg := &config.Config{}
	if s.configPath != "" {
		var err error
		if cfg, err = config.Load(s.configPath); err != nil {
			return nil, err
		}
	}
	log, err := cfg.NewLogger(errOut)
	if err != nil {
		return nil, err
	}

	var kv storage.KV
	if cfg.Storage != nil {
		kv, err = cfg.OpenStorage(kvregistry.UsageCLI)
	} else {
		kv, err = s.openFlagStore()
	}
	if err != nil {
		return nil, err
	}

	arc, closeArchive, err := cfg.OpenArchive("")
	if err != nil {
		_ = kv.Close()
		return nil, err
	}
	closer := func() {
		_ = closeArchive()
		_ = kv.Close()
	}

	c, err := client.New(cfg, client.Deps{KV: kv, Archive: arc, Logger: log})
	if err != nil {
		closer()
		return nil, err
	}
	if err := c.Load(context.Background()); err != nil {
		closer()
		return nil, err
	}
	if s.node != "" {
		c.Channel().SetURL(s.node)
	}
	return &session{cfg: cfg, client: c, closer: closer}, nil
}

func (s *stateFlags) openFlagStore() (storage.KV, error) {
	if s.store == "bolt" {
		if f := s.fs.Lookup("bolt-path"); f != nil && f.Value.String() == "" {
			path, err := defaultStatePath()
			if err != nil {
				return nil, err
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
				return nil, err
			}
			if err := s.fs.Set("bolt-path", path); err != nil {
				return nil, err
			}
		}
	}
	return kvregistry.Open(s.store, kvregistry.UsageCLI)
}

func defaultStatePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".plotthread", "state.db"), nil
}

// readPassphrase reads the first line of in.
func readPassphrase(in io.Reader) (string, error) {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("no passphrase on stdin")
	}
	return line, nil
}
