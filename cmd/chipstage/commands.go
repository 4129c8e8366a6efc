package main

import (
	"github.com/scott-cotton/cli"
)

func MainCommand() *cli.Command {
	cfg := &MainConfig{Format: "table"}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Main, "chipstage").
		WithSynopsis("chipstage [opts] command [opts]").
		WithDescription("chipstage queries and manages staged chips.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return chipstageMain(cfg, cc, args)
		}).
		WithSubs(
			QueryCommand(cfg),
			ChipsCommand(cfg),
			StageCommand(cfg),
			DropCommand(cfg))
}

func QueryCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &QueryConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Query, "query").
		WithAliases("q").
		WithSynopsis("query [-all] <chip> <sql>").
		WithDescription("run a SQL query against a chip").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return query(cfg, cc, args)
		})
}

func ChipsCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &ChipsConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Chips, "chips").
		WithAliases("ls").
		WithSynopsis("chips").
		WithDescription("list staged chips").
		WithRun(func(cc *cli.Context, args []string) error {
			return listChips(cfg, cc, args)
		})
}

func StageCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &StageConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Stage, "stage").
		WithSynopsis("stage <seed-file>...").
		WithDescription("stage every chip found in the given seed files").
		WithRun(func(cc *cli.Context, args []string) error {
			return stage(cfg, cc, args)
		})
}

func DropCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &DropConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Drop, "drop").
		WithAliases("rm").
		WithSynopsis("drop <chip>...").
		WithDescription("drop staged chips").
		WithRun(func(cc *cli.Context, args []string) error {
			return drop(cfg, cc, args)
		})
}
