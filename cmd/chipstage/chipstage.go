package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/scott-cotton/cli"

	"github.com/Ratio1/chipstage_sdk_go/internal/devseed"
	"github.com/Ratio1/chipstage_sdk_go/pkg/chips"
)

func chipstageMain(cfg *MainConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Main.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return cli.ErrNoCommandProvided
	}
	sub := cfg.Main.FindSub(cc, args[0])
	if sub == nil {
		return fmt.Errorf("%w: %q not found", cli.ErrNoSuchCommand, args[0])
	}
	err = sub.Run(cc, args[1:])
	if err == nil {
		return nil
	}
	if errors.Is(err, cli.ErrUsage) {
		sub.Usage(cc, err)
		os.Exit(sub.Exit(cc, err))
	}
	newPainter(os.Stderr, cfg.Color).errorf(os.Stderr, err)
	return cli.ExitCodeErr(1)
}

// session is what every subcommand needs once options are parsed.
type session struct {
	ctx    context.Context
	client *chips.Client
	out    *renderer
	log    *slog.Logger
}

func (cfg *MainConfig) open(out io.Writer) (*session, func(), error) {
	r, err := cfg.newRenderer(out)
	if err != nil {
		return nil, nil, err
	}
	log := newLogger(os.Stderr, cfg.Verbose)
	client, mode, err := cfg.newClient(log)
	if err != nil {
		return nil, nil, err
	}
	log.Debug("client ready", "mode", mode)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	return &session{ctx: ctx, client: client, out: r, log: log}, stop, nil
}

func query(cfg *QueryConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Query.Parse(cc, args)
	if err != nil {
		return fmt.Errorf("%w: %w", cli.ErrUsage, err)
	}
	if len(args) < 2 {
		return fmt.Errorf("%w: query requires a chip and a statement", cli.ErrUsage)
	}
	s, stop, err := cfg.open(cc.Out)
	if err != nil {
		return err
	}
	defer stop()
	return s.query(args[0], strings.Join(args[1:], " "), cfg.All)
}

func (s *session) query(chip, sql string, all bool) error {
	res, err := s.client.Query(s.ctx, chip, sql)
	if err != nil {
		return err
	}
	s.log.Debug("query done", "request_id", res.RequestID, "entries", len(res.Cursors))
	return s.out.result(res, all)
}

func listChips(cfg *ChipsConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Chips.Parse(cc, args)
	if err != nil {
		return fmt.Errorf("%w: %w", cli.ErrUsage, err)
	}
	if len(args) != 0 {
		return fmt.Errorf("%w: chips takes no arguments", cli.ErrUsage)
	}
	s, stop, err := cfg.open(cc.Out)
	if err != nil {
		return err
	}
	defer stop()
	return s.listChips()
}

func (s *session) listChips() error {
	list, err := s.client.Chips(s.ctx)
	if err != nil {
		return err
	}
	return s.out.chips(list)
}

func stage(cfg *StageConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Stage.Parse(cc, args)
	if err != nil {
		return fmt.Errorf("%w: %w", cli.ErrUsage, err)
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: stage requires at least one seed file", cli.ErrUsage)
	}
	s, stop, err := cfg.open(cc.Out)
	if err != nil {
		return err
	}
	defer stop()
	return s.stage(args)
}

func (s *session) stage(paths []string) error {
	var staged []chips.ChipInfo
	for _, path := range paths {
		seeds, err := devseed.LoadChipSeed(path)
		if err != nil {
			return err
		}
		for _, seed := range seeds {
			info, err := s.client.Stage(s.ctx, chips.StageRequest{
				Name:   seed.Name,
				Source: seed.Source,
				Schema: seed.Schema,
				Rows:   seed.Rows,
			})
			if err != nil {
				return fmt.Errorf("stage %s from %s: %w", seed.Name, path, err)
			}
			s.log.Debug("staged chip", "name", info.Name, "rows", info.Rows)
			staged = append(staged, *info)
		}
	}
	return s.out.chips(staged)
}

func drop(cfg *DropConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Drop.Parse(cc, args)
	if err != nil {
		return fmt.Errorf("%w: %w", cli.ErrUsage, err)
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: drop requires at least one chip name", cli.ErrUsage)
	}
	s, stop, err := cfg.open(cc.Out)
	if err != nil {
		return err
	}
	defer stop()
	return s.drop(args)
}

func (s *session) drop(names []string) error {
	for _, name := range names {
		if err := s.client.Drop(s.ctx, name); err != nil {
			return err
		}
		fmt.Fprintf(s.out.w, "dropped %s\n", name)
	}
	return nil
}
