// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// confignode runs the config account of a TON-style network as a standalone service.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/tonconfig/confignode/api"
	"github.com/tonconfig/confignode/log"
	"github.com/tonconfig/confignode/metrics"
	"github.com/tonconfig/confignode/node"
)

var (
	version   string
	gitCommit string
	gitTag    string
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version: fullVersion(),
		Name:    "confignode",
		Usage:   "Config account of a TON-style network",
		Flags: []cli.Flag{
			dataDirFlag,
			genesisFlag,
			memFlag,
			cacheFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiTimeoutFlag,
			enableAPILogsFlag,
			pprofFlag,
			tickIntervalFlag,
			queueSizeFlag,
			verbosityFlag,
			jsonLogsFlag,
			enableMetricsFlag,
			metricsAddrFlag,
		},
		Action: defaultAction,
		Commands: []cli.Command{
			{
				Name:  "dump",
				Usage: "print the parameter table, account and live proposals",
				Flags: []cli.Flag{
					dataDirFlag,
					genesisFlag,
					verbosityFlag,
				},
				Action: dumpAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	defer func() { log.Info("exited") }()

	if err := initLogger(ctx); err != nil {
		return err
	}
	gene, err := selectGenesis(ctx)
	if err != nil {
		return err
	}

	db, instanceDir, err := openDB(ctx, gene)
	if err != nil {
		return err
	}
	defer func() { log.Info("closing database..."); db.Close() }()

	st, err := initState(db, gene)
	if err != nil {
		return err
	}

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	n := node.New(st, node.Options{
		TickInterval: ctx.Duration(tickIntervalFlag.Name),
		QueueSize:    ctx.Int(queueSizeFlag.Name),
	})

	handler := api.New(n, api.Options{
		AllowedOrigins:  ctx.String(apiCorsFlag.Name),
		PprofOn:         ctx.Bool(pprofFlag.Name),
		EnableReqLogger: ctx.Bool(enableAPILogsFlag.Name),
		EnableMetrics:   ctx.Bool(enableMetricsFlag.Name),
	})
	if timeout := ctx.Uint64(apiTimeoutFlag.Name); timeout > 0 {
		handler = http.TimeoutHandler(handler, time.Duration(timeout)*time.Millisecond, "request timeout").ServeHTTP
	}

	group, groupCtx := errgroup.WithContext(handleExitSignal())

	apiURL, err := serveHTTP(groupCtx, group, ctx.String(apiAddrFlag.Name), handler)
	if err != nil {
		return errors.WithMessage(err, "API server")
	}
	metricsURL := ""
	if ctx.Bool(enableMetricsFlag.Name) {
		if metricsURL, err = serveHTTP(groupCtx, group, ctx.String(metricsAddrFlag.Name), metricsHandler()); err != nil {
			return errors.WithMessage(err, "metrics server")
		}
	}

	printStartupMessage(gene, instanceDir, apiURL, metricsURL)

	group.Go(func() error {
		return errors.WithMessage(n.Run(groupCtx), "node")
	})
	return group.Wait()
}

func dumpAction(ctx *cli.Context) error {
	if err := initLogger(ctx); err != nil {
		return err
	}
	gene, err := selectGenesis(ctx)
	if err != nil {
		return err
	}
	db, _, err := openDB(ctx, gene)
	if err != nil {
		return err
	}
	defer db.Close()

	st, err := initState(db, gene)
	if err != nil {
		return err
	}
	return dump(context.Background(), os.Stdout, st)
}
