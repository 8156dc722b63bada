// Wiring of the charts core for one CLI invocation.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/giftcharts/internal/cache"
	"github.com/mesh-intelligence/giftcharts/internal/charts"
	"github.com/mesh-intelligence/giftcharts/internal/drafts"
	"github.com/mesh-intelligence/giftcharts/internal/marketplace"
	"github.com/mesh-intelligence/giftcharts/internal/paths"
	"github.com/mesh-intelligence/giftcharts/pkg/sqlite"
	"github.com/mesh-intelligence/giftcharts/pkg/types"
)

// app holds the attached backend and the services built on it. The caller
// must defer Close.
type app struct {
	backend   types.Backend
	directory types.Directory
	redis     *cache.RedisClient
	drafts    *drafts.Manager
	service   *charts.Service
	browser   *marketplace.Browser
	dataDir   string
}

// openApp attaches the configured backend, loads every table and selects
// the table named by --table or the table saved by "table select".
func openApp(cmd *cobra.Command) (*app, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	dataDir, err := paths.ResolveDataDir(flagDataDir, config.GetString(cfgKeyDataDir))
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	cfg := coreConfig(config, dataDir)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}

	backend := sqlite.NewBackend(logger)
	if err := backend.Attach(cfg); err != nil {
		return nil, fmt.Errorf("attach backend: %w", err)
	}
	a := &app{backend: backend, directory: backend, dataDir: dataDir}

	if addr := config.GetString(cfgKeyRedisAddr); addr != "" {
		rc, err := cache.NewRedisClient(addr, config.GetString(cfgKeyRedisPassword), config.GetInt(cfgKeyRedisDB))
		if err != nil {
			logger.Warn("owner cache disabled", zap.String("addr", addr), zap.Error(err))
		} else {
			a.redis = rc
			a.directory = cache.NewDirectory(rc, backend, config.GetDuration(cfgKeyOwnerTTL), logger)
		}
	}

	out := cmd.OutOrStdout()
	a.browser = marketplace.NewBrowser(backend, a.directory, cfg.GetHitsPerPage(), logger)
	a.drafts = drafts.New(backend, a.directory,
		drafts.WithLogger(logger),
		drafts.WithBlocker(logBlocker{logger: logger}),
		drafts.WithDebounce(cfg.GetSearchDebounce()),
		drafts.WithSearchLimit(cfg.GetSearchLimit()),
	)
	a.service = charts.NewService(charts.NewStore(), backend, a.drafts, a.directory,
		charts.WithServiceLogger(logger),
		charts.WithPresenter(&stderrPresenter{w: cmd.ErrOrStderr()}),
		charts.WithNavigator(&marketNavigator{ctx: ctx, browser: a.browser, w: out}),
		charts.WithActor(currentActor()),
	)

	if err := a.service.Load(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.selectTable(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// selectTable applies --table, falling back to the saved selection. A saved
// table that no longer exists is ignored.
func (a *app) selectTable() error {
	if flagTable != "" {
		return a.service.SelectTable(flagTable)
	}
	saved := config.GetString(cfgKeyTable)
	if saved == "" {
		return nil
	}
	if err := a.service.SelectTable(saved); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			logger.Debug("saved table is gone", zap.String("table", saved))
			return nil
		}
		return err
	}
	return nil
}

// Close stops draft searches and detaches the backend.
func (a *app) Close() error {
	a.drafts.Close()
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			logger.Warn("closing redis", zap.Error(err))
		}
	}
	return a.backend.Detach()
}

// currentActor returns the user from --user or config.yaml. An empty user
// is an anonymous visitor.
func currentActor() types.Actor {
	if flagUser != "" {
		return types.Actor{UserID: flagUser}
	}
	return types.Actor{UserID: config.GetString(cfgKeyUser)}
}

// stderrPresenter prints modals as notices.
type stderrPresenter struct {
	w io.Writer
}

func (p *stderrPresenter) PresentModal(kind string, payload types.ModalPayload) {
	switch kind {
	case types.ModalLoginRequired:
		fmt.Fprintf(p.w, "%s (set user in config.yaml or pass --user)\n", payload.Message)
	case types.ModalDuplicateRequired:
		fmt.Fprintf(p.w, "%s Run: charts table duplicate %s\n", payload.Message, payload.Table.ID)
	case types.ModalEditTableName:
		fmt.Fprintf(p.w, "Renaming table %q\n", payload.Table.Name)
	case types.ModalDeleteTable:
		fmt.Fprintf(p.w, "Deleting table %q\n", payload.Table.Name)
	default:
		fmt.Fprintln(p.w, kind)
	}
}

// marketNavigator answers a global search with a marketplace page.
type marketNavigator struct {
	ctx     context.Context
	browser *marketplace.Browser
	w       io.Writer
}

func (n *marketNavigator) TriggerGlobalSearch(term string) {
	page, err := n.browser.Browse(n.ctx, marketplace.Query{Text: term})
	if err != nil {
		logger.Warn("global search failed", zap.String("term", term), zap.Error(err))
		return
	}
	if err := printPage(n.w, term, page); err != nil {
		logger.Warn("printing search results", zap.Error(err))
	}
}

// logBlocker records the application-wide blocking flag in the log.
type logBlocker struct {
	logger *zap.Logger
}

func (b logBlocker) Block(on bool) {
	b.logger.Debug("blocking flag", zap.Bool("on", on))
}
