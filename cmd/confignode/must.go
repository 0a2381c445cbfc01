// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/tonconfig/confignode/genesis"
	"github.com/tonconfig/confignode/kv"
	"github.com/tonconfig/confignode/log"
	"github.com/tonconfig/confignode/lvldb"
	"github.com/tonconfig/confignode/metrics"
	"github.com/tonconfig/confignode/state"
	"github.com/tonconfig/confignode/ton"
)

// nodeBucket lies outside the key prefixes used by state.
const nodeBucket = kv.Bucket("g.")

var genesisIDKey = []byte("id")

func initLogger(ctx *cli.Context) error {
	lvl := ctx.Int(verbosityFlag.Name)
	if lvl < 0 || lvl > 5 {
		return errors.Errorf("%s: out of range [0, 5]", verbosityFlag.Name)
	}
	var level slog.LevelVar
	level.Set(log.FromLegacyLevel(lvl))

	format := log.FormatTerminal
	tty := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	switch {
	case ctx.Bool(jsonLogsFlag.Name):
		format = log.FormatJSON
	case !tty:
		format = log.FormatLogfmt
	}
	handler := log.NewHandler(os.Stderr, format, &level, tty && os.Getenv("TERM") != "dumb")
	log.SetDefault(log.NewLogger(handler))
	return nil
}

func selectGenesis(ctx *cli.Context) (*genesis.Genesis, error) {
	path := ctx.String(genesisFlag.Name)
	if path == "" {
		return genesis.NewDevnet(), nil
	}
	gene, err := genesis.LoadCustomNet(path)
	if err != nil {
		return nil, errors.WithMessage(err, "load genesis")
	}
	return gene, nil
}

func defaultDataDir() string {
	if home := homeDir(); home != "" {
		return filepath.Join(home, ".confignode")
	}
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

// openDB opens the instance database of gene, or an in-memory one with --mem.
func openDB(ctx *cli.Context, gene *genesis.Genesis) (*lvldb.LevelDB, string, error) {
	if ctx.Bool(memFlag.Name) {
		db, err := lvldb.NewMem()
		return db, "memory", err
	}

	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		return nil, "", errors.Errorf("unable to infer default data dir, use -%s to specify", dataDirFlag.Name)
	}
	instanceDir := filepath.Join(dataDir, fmt.Sprintf("instance-%x", gene.ID().Bytes()[24:]))
	if err := os.MkdirAll(instanceDir, 0o700); err != nil {
		return nil, "", errors.Wrapf(err, "create instance dir [%v]", instanceDir)
	}

	db, err := lvldb.New(filepath.Join(instanceDir, "state.db"), ctx.Int(cacheFlag.Name))
	if err != nil {
		return nil, "", errors.WithMessagef(err, "open state database [%v]", instanceDir)
	}
	return db, instanceDir, nil
}

// initState writes the genesis state into an empty store, or checks that the
// store was initialized from the same genesis.
func initState(store kv.Store, gene *genesis.Genesis) (*state.State, error) {
	st := state.New(store, nil)
	meta := nodeBucket.NewStore(store)

	stored, err := meta.Get(genesisIDKey)
	if err != nil && !meta.IsNotFound(err) {
		return nil, errors.Wrap(err, "read genesis id")
	}
	if err == nil {
		if id := ton.BytesToBytes32(stored); id != gene.ID() {
			return nil, errors.Errorf("genesis mismatch: store has %v, want %v", id, gene.ID())
		}
		return st, nil
	}

	if err := gene.Build(st); err != nil {
		return nil, errors.WithMessage(err, "build genesis")
	}
	if _, err := st.Commit(); err != nil {
		return nil, errors.WithMessage(err, "commit genesis")
	}
	id := gene.ID()
	if err := meta.Put(genesisIDKey, id.Bytes()); err != nil {
		return nil, errors.Wrap(err, "write genesis id")
	}
	log.Info("genesis initialized", "id", id, "name", gene.Name())
	return st, nil
}

func metricsHandler() http.Handler {
	router := mux.NewRouter()
	router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
	return handlers.CompressHandler(router)
}

// serveHTTP serves handler on addr within group until ctx is done.
func serveHTTP(ctx context.Context, group *errgroup.Group, addr string, handler http.Handler) (string, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", errors.Wrapf(err, "listen [%v]", addr)
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
	group.Go(func() error {
		if err := srv.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return "http://" + listener.Addr().String() + "/", nil
}

func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		log.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}

func printStartupMessage(gene *genesis.Genesis, instanceDir, apiURL, metricsURL string) {
	if metricsURL == "" {
		metricsURL = "disabled"
	}
	fmt.Printf(`Starting confignode %v
    Network      [ %v %v ]
    Instance dir [ %v ]
    API portal   [ %v ]
    Metrics      [ %v ]
`,
		fullVersion(),
		gene.ID(), gene.Name(),
		instanceDir,
		apiURL,
		metricsURL)
}
