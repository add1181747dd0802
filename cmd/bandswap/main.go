// Package main is the entry point for bandswap.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/bandswap/internal/app"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "run", "trace", "browse":
	case "version", "-v", "-version", "--version":
		fmt.Fprintf(stdout, "bandswap %s\n", version)
		fmt.Fprintf(stdout, "Commit: %s\n", commit)
		fmt.Fprintf(stdout, "Built: %s\n", date)
		return 0
	case "help", "-h", "-help", "--help":
		usage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Error: unknown command %q\n\n", cmd)
		usage(stderr)
		return 2
	}

	opts, err := parseFlags(cmd, rest, stderr)
	if err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	application, err := app.New(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "run":
		err = application.Run(ctx)
	case "trace":
		_, err = application.Trace(ctx, stdout)
	case "browse":
		err = application.Browse(ctx)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func parseFlags(cmd string, args []string, stderr io.Writer) (app.Options, error) {
	var opts app.Options

	fs := flag.NewFlagSet("bandswap "+cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file")
	fs.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	fs.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&opts.HookPath, "hook", "", "Lua change hook")

	switch cmd {
	case "run":
		fs.StringVar(&opts.PagePath, "page", "", "Page description (YAML)")
		opts.Interactive = true
	case "trace":
		fs.StringVar(&opts.PagePath, "page", "", "Page description (YAML)")
		fs.Float64Var(&opts.TraceStep, "step", 0, "Scroll increment in rows")
	case "browse":
		fs.StringVar(&opts.URL, "url", "", "Page to open")
		fs.BoolVar(&opts.Headed, "headed", false, "Show the browser window")
		fs.BoolVar(&opts.Stealth, "stealth", false, "Apply anti-automation patches")
	}

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		err := fmt.Errorf("unexpected arguments: %v", fs.Args())
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return opts, err
	}
	return opts, nil
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "bandswap - scroll-coupled band content swapping\n\n")
	fmt.Fprintf(w, "Usage: bandswap <command> [options]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	fmt.Fprintf(w, "  run      Scroll a page in the terminal\n")
	fmt.Fprintf(w, "  trace    Print active-variant changes as JSON lines\n")
	fmt.Fprintf(w, "  browse   Drive a band on a real page in Chrome\n")
	fmt.Fprintf(w, "  version  Show version information\n")
	fmt.Fprintf(w, "\nExamples:\n")
	fmt.Fprintf(w, "  bandswap run -page page.yaml\n")
	fmt.Fprintf(w, "  bandswap trace -page page.yaml -step 0.5\n")
	fmt.Fprintf(w, "  bandswap browse -url http://localhost:8080 -headed\n")
}
