package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"plotthread.org/client/canonical"
	"plotthread.org/client/cidutil"
	"plotthread.org/client/graph"
	"plotthread.org/client/ident"
	"plotthread.org/client/keys"
	"plotthread.org/client/model"
)

func cmdSign(args []string, in io.Reader, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var to, memo string
	var tipHeight, seriesLength uint64
	var keyIndex int
	fs.StringVar(&to, "to", "", "Recipient public key")
	fs.StringVar(&memo, "memo", "", "Memo (at most 200 characters)")
	fs.Uint64Var(&tipHeight, "tip-height", 0, "Current tip height")
	fs.IntVar(&keyIndex, "key-index", 0, "Index of the signing key")
	fs.Uint64Var(&seriesLength, "series-length", keys.DefaultSeriesLength, "Plots per series")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if to == "" || memo == "" || tipHeight == 0 {
		fmt.Fprintln(errOut, "missing --to, --memo or --tip-height")
		return 2
	}
	passphrase, err := readPassphrase(in)
	if err != nil {
		fmt.Fprintf(errOut, "read passphrase: %v\n", err)
		return 2
	}

	r, err := keys.Sign(ident.Normalize(to), memo, tipHeight, keyIndex, passphrase, keys.WithSeriesLength(seriesLength))
	if err != nil {
		fmt.Fprintf(errOut, "sign: %v\n", err)
		return 1
	}
	return writeJSON(out, errOut, r)
}

func cmdRep(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) != 2 {
		fmt.Fprintln(errOut, "usage: plotctl rep id|verify|canonical <file>")
		fmt.Fprintln(errOut, "       plotctl rep cid <representation id>")
		return 2
	}
	if args[0] == "cid" {
		c, err := cidutil.RepresentationCID(args[1])
		if err != nil {
			fmt.Fprintf(errOut, "invalid representation id: %v\n", err)
			return 1
		}
		_, _ = fmt.Fprintln(out, c)
		return 0
	}

	r, err := readRepresentation(args[1])
	if err != nil {
		fmt.Fprintf(errOut, "read representation: %v\n", err)
		return 1
	}
	switch args[0] {
	case "id":
		_, _ = fmt.Fprintln(out, canonical.IdentifierOf(r))
	case "canonical":
		_, _ = out.Write(canonical.Encode(r))
	case "verify":
		if err := canonical.Verify(r); err != nil {
			fmt.Fprintf(errOut, "invalid: %v\n", err)
			return 1
		}
		_, _ = fmt.Fprintf(out, "ok %s\n", canonical.IdentifierOf(r))
		if ref := canonical.Reference(r.Memo); ref != "" {
			_, _ = fmt.Fprintf(out, "references %s\n", ref)
		}
	default:
		fmt.Fprintf(errOut, "unknown rep subcommand: %s\n", args[0])
		return 2
	}
	return 0
}

func readRepresentation(path string) (model.Representation, error) {
	var r model.Representation
	b, err := os.ReadFile(path)
	if err != nil {
		return r, err
	}
	if err := json.Unmarshal(b, &r); err != nil {
		return r, err
	}
	return r, nil
}

func cmdNormalize(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(errOut, "usage: plotctl normalize <value>")
		return 2
	}
	_, _ = fmt.Fprintln(out, ident.Normalize(args[0]))
	return 0
}

func cmdShorten(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("shorten", flag.ContinueOnError)
	fs.SetOutput(errOut)
	hexID := fs.Bool("hex", false, "Value is a hex representation id")
	plotID := fs.Bool("plot", false, "Value is a hex plot id")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 || (*hexID && *plotID) {
		fmt.Fprintln(errOut, "usage: plotctl shorten [--hex | --plot] <value>")
		return 2
	}
	v := fs.Arg(0)
	switch {
	case *hexID:
		v = ident.ShortenHex(v)
	case *plotID:
		v = ident.ShortenPlotID(v)
	default:
		v = ident.Shorten(v)
	}
	_, _ = fmt.Fprintln(out, v)
	return 0
}

func cmdGraph(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 || args[0] != "decode" {
		fmt.Fprintln(errOut, "usage: plotctl graph decode [--focus <pk>] [--threshold <0-100>] <file>")
		return 2
	}
	fs := flag.NewFlagSet("graph decode", flag.ContinueOnError)
	fs.SetOutput(errOut)
	focus := fs.String("focus", "", "Public key that is always kept")
	threshold := fs.Float64("threshold", 0, "Minimum ranking, in percent")
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: plotctl graph decode [--focus <pk>] [--threshold <0-100>] <file>")
		return 2
	}
	b, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read graph: %v\n", err)
		return 1
	}
	return writeJSON(out, errOut, graph.Decode(string(b), *focus, *threshold))
}

func writeJSON(out io.Writer, errOut io.Writer, v any) int {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(errOut, "encode: %v\n", err)
		return 1
	}
	return 0
}
