package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/jsbind/finalizer"
	"github.com/wippyai/jsbind/host/memhost"
	"github.com/wippyai/jsbind/value"
)

func main() {
	var (
		jsonFile    = flag.String("json", "", "Path to JSON document (- for stdin)")
		path        = flag.String("path", "", "Dotted path to start at (a.b.0)")
		filter      = flag.String("filter", "", "ECMAScript regexp matched against property names")
		version     = flag.Uint("version", 8, "Feature level the engine reports")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		verbose     = flag.Bool("v", false, "Log engine and finalizer activity")
	)
	flag.Parse()

	if *jsonFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: inspect -json <file.json> [-path a.b.0] [-filter regexp]")
		fmt.Fprintln(os.Stderr, "       inspect -json <file.json> -i  (interactive mode)")
		os.Exit(1)
	}

	log := zap.NewNop()
	if *verbose {
		var err error
		if log, err = zap.NewDevelopment(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer log.Sync()
	}
	value.SetLogger(log.Named("value"))
	finalizer.SetLogger(log.Named("finalizer"))
	memhost.SetLogger(log.Named("memhost"))

	opts := memhost.Options{Version: uint32(*version)}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "stdout is not a terminal, printing instead")
		} else {
			if err := runInteractive(*jsonFile, *path, *filter, opts); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}

	if err := run(os.Stdout, *jsonFile, *path, *filter, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func readInput(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}

func open(name, filter string, opts memhost.Options) (*browser, error) {
	data, err := readInput(name)
	if err != nil {
		return nil, err
	}
	b, err := load(data, opts)
	if err != nil {
		return nil, err
	}
	if err := b.setFilter(filter); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

func run(w io.Writer, name, path, filter string, opts memhost.Options) error {
	b, err := open(name, filter, opts)
	if err != nil {
		return err
	}
	defer b.Close()

	v, err := b.resolve(splitPath(path))
	if err != nil {
		return err
	}
	es, err := b.entries(v)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, formatEntries(es))
	return err
}
