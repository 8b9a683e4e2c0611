package main

import (
	"context"
	"fmt"
	"io"

	"plotthread.org/client/keys"
)

func cmdKey(args []string, in io.Reader, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printKeyUsage(errOut)
		return 2
	}
	switch args[0] {
	case "import":
		return cmdKeyImport(args[1:], in, out, errOut)
	case "list":
		return cmdKeyList(args[1:], out, errOut)
	case "delete":
		return cmdKeyDelete(args[1:], out, errOut)
	case "select":
		return cmdKeySelect(args[1:], out, errOut)
	case "strength":
		return cmdKeyStrength(args[1:], in, out, errOut)
	case "help", "-h", "--help":
		printKeyUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown key subcommand: %s\n\n", args[0])
		printKeyUsage(errOut)
		return 2
	}
}

func printKeyUsage(w io.Writer) {
	fmt.Fprintln(w, "plotctl key: public key holder")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  plotctl key import [state flags]    (passphrase on stdin)")
	fmt.Fprintln(w, "  plotctl key list [state flags]")
	fmt.Fprintln(w, "  plotctl key delete [state flags]")
	fmt.Fprintln(w, "  plotctl key select [state flags] <public key>")
	fmt.Fprintln(w, "  plotctl key strength                (passphrase on stdin)")
}

func cmdKeyImport(args []string, in io.Reader, out io.Writer, errOut io.Writer) int {
	sf := newStateFlags("key import", errOut)
	if err := sf.fs.Parse(args); err != nil {
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

	pks, err := s.client.ImportKeys(context.Background(), passphrase)
	if err != nil {
		fmt.Fprintf(errOut, "import keys: %v\n", err)
		return 1
	}
	for _, pk := range pks {
		_, _ = fmt.Fprintln(out, pk)
	}
	return 0
}

func cmdKeyList(args []string, out io.Writer, errOut io.Writer) int {
	sf := newStateFlags("key list", errOut)
	if err := sf.fs.Parse(args); err != nil {
		return 2
	}
	s, err := sf.open(errOut)
	if err != nil {
		fmt.Fprintf(errOut, "open state: %v\n", err)
		return 1
	}
	defer s.closer()

	selected, _ := s.client.SelectedKey()
	for i, pk := range s.client.PublicKeys() {
		marker := " "
		if pk == selected {
			marker = "*"
		}
		_, _ = fmt.Fprintf(out, "%s %d %s\n", marker, i, pk)
	}
	return 0
}

func cmdKeyDelete(args []string, out io.Writer, errOut io.Writer) int {
	sf := newStateFlags("key delete", errOut)
	if err := sf.fs.Parse(args); err != nil {
		return 2
	}
	s, err := sf.open(errOut)
	if err != nil {
		fmt.Fprintf(errOut, "open state: %v\n", err)
		return 1
	}
	defer s.closer()

	if err := s.client.DeleteKeys(context.Background()); err != nil {
		fmt.Fprintf(errOut, "delete keys: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, "deleted")
	return 0
}

func cmdKeySelect(args []string, out io.Writer, errOut io.Writer) int {
	sf := newStateFlags("key select", errOut)
	if err := sf.fs.Parse(args); err != nil {
		return 2
	}
	if sf.fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: plotctl key select [state flags] <public key>")
		return 2
	}
	s, err := sf.open(errOut)
	if err != nil {
		fmt.Fprintf(errOut, "open state: %v\n", err)
		return 1
	}
	defer s.closer()

	if err := s.client.SelectKey(context.Background(), sf.fs.Arg(0)); err != nil {
		fmt.Fprintf(errOut, "select key: %v\n", err)
		return 1
	}
	_, idx := s.client.SelectedKey()
	_, _ = fmt.Fprintf(out, "selected key %d\n", idx)
	return 0
}

func cmdKeyStrength(args []string, in io.Reader, out io.Writer, errOut io.Writer) int {
	if len(args) != 0 {
		fmt.Fprintln(errOut, "usage: plotctl key strength   (passphrase on stdin)")
		return 2
	}
	passphrase, err := readPassphrase(in)
	if err != nil {
		fmt.Fprintf(errOut, "read passphrase: %v\n", err)
		return 2
	}
	st := keys.MeasureStrength(passphrase)
	_, _ = fmt.Fprintf(out, "score %d/4, entropy %.1f bits, crack time %s\n", st.Score, st.Entropy, st.CrackTime)
	if st.Score < keys.DefaultMinScore {
		return 1
	}
	return 0
}
