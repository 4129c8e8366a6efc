package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/scott-cotton/cli"

	"github.com/Ratio1/chipstage_sdk_go/internal/devseed"
	"github.com/Ratio1/chipstage_sdk_go/pkg/chips"
	"github.com/Ratio1/chipstage_sdk_go/pkg/chips/mock"
)

func MainCommand() *cli.Command {
	cfg := &SandboxConfig{Addr: ":8787"}
	sOpts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	opts := append(sOpts,
		&cli.Opt{
			Name:        "latency",
			Description: "artificial latency per request",
			Type:        cli.NamedFuncOpt(cli.FuncOpt(cfg.latencyOpt), "(duration)"),
		},
		&cli.Opt{
			Name:        "fail",
			Description: "failure injection",
			Type:        cli.NamedFuncOpt(cli.FuncOpt(cfg.failOpt), "(rate=<float>,code=<status>)"),
		})

	return cli.NewCommandAt(&cfg.Main, "chipstage-sandbox").
		WithSynopsis("chipstage-sandbox [-addr <addr>] [-seed <file>] [-latency <d>] [-fail rate=..,code=..]").
		WithDescription("chipstage-sandbox serves the chipstage HTTP API from an in-memory mock store.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return sandboxMain(cfg, cc, args)
		})
}

func sandboxMain(cfg *SandboxConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Main.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 0 {
		return fmt.Errorf("%w: unexpected arguments %q", cli.ErrUsage, args)
	}

	store, err := newStore(cfg.Seed)
	if err != nil {
		return err
	}

	log := newLogger(cc.Out, cfg.Verbose)
	handler := mock.NewHandler(store, cfg.handlerOpts(log)...)

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Addr, err)
	}
	printExports(cc.Out, ln.Addr().String())
	log.Info("chipstage-sandbox listening", "addr", ln.Addr().String(), "seed", cfg.Seed)

	server := &http.Server{Handler: handler}
	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func (cfg *SandboxConfig) handlerOpts(log *slog.Logger) []mock.HandlerOption {
	opts := []mock.HandlerOption{
		mock.WithHandlerLogger(log),
		mock.WithLatency(cfg.Latency),
		mock.WithChunkSize(cfg.Chunk),
	}
	if cfg.Fail.rate > 0 {
		opts = append(opts, mock.WithFailures(cfg.Fail.rate, cfg.Fail.code))
	}
	if cfg.Truncate > 0 {
		opts = append(opts, mock.WithTruncation(cfg.Truncate))
	}
	return opts
}

func newStore(seedPath string) (*mock.Store, error) {
	store := mock.New()
	if seedPath == "" {
		return store, nil
	}
	seeds, err := devseed.LoadChipSeed(seedPath)
	if err != nil {
		return nil, fmt.Errorf("load seed: %w", err)
	}
	if err := store.Seed(seeds); err != nil {
		return nil, fmt.Errorf("apply seed: %w", err)
	}
	return store, nil
}

func printExports(w io.Writer, addr string) {
	host := addr
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	} else if h, port, err := net.SplitHostPort(addr); err == nil && (h == "" || h == "::" || h == "0.0.0.0") {
		host = net.JoinHostPort("localhost", port)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "export %s=http\n", chips.EnvRuntimeMode)
	fmt.Fprintf(w, "export %s=http://%s\n", chips.EnvAPIURL, host)
	fmt.Fprintln(w)
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			if a.Key == slog.LevelKey && a.Value.String() == "INFO" {
				return slog.Attr{}
			}
			return a
		},
	}))
}
