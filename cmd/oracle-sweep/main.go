package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"oracle/internal/modkit"
	"oracle/internal/modkit/module"
	"oracle/internal/modkit/repokit"
	"oracle/internal/platform/config"
	"oracle/internal/platform/logger"
	"oracle/internal/platform/store"

	auditmod "oracle/internal/services/audit/module"
	mattersmod "oracle/internal/services/matters/module"
	sweepmod "oracle/internal/services/sweep/module"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	fOnce := flag.Bool("once", false, "run one sweep now and exit instead of following the schedule")
	flag.Parse()

	root := config.New()
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_")

	l := logger.Named("oracle-sweep")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	chURL := chCfg.MayString("DBURL", "")
	st, err := store.Open(ctx, store.Config{
		AppName: "oracle-sweep",
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 2000),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
		CH: store.CHConfig{
			Enabled: chURL != "",
			URL:     chURL,
			Role:    "oracle",
			Tag:     "sweep",
		},
	}, store.WithLogger(*logger.Get()))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()
	repokit.MustGuard(ctx, st)

	deps := modkit.Deps{Cfg: root, PG: st.PG, CH: st.CH, Log: *l}

	audit := auditmod.New(deps, auditmod.FromConfig(root))
	matters := mattersmod.New(deps, mattersmod.FromConfig(root))
	mp := module.MustPortsOf[mattersmod.Ports](matters)

	sweep := sweepmod.New(deps, sweepmod.Needs{
		Snapshots: mp.Snapshots,
		Lister:    mp.Lister,
		Audit:     module.MustPortsOf[auditmod.Ports](audit).Recorder,
	}, sweepmod.FromConfig(root))

	defer func() {
		actx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := audit.Close(actx); err != nil {
			l.Error().Err(err).Msg("audit drain incomplete")
		}
	}()

	if *fOnce {
		res, err := module.MustPortsOf[sweepmod.Ports](sweep).Runner.RunOnce(ctx)
		if err != nil {
			l.Error().Err(err).Msg("sweep failed")
			return
		}
		l.Info().Int("written", res.Written).Int("failed", res.Failed).Msg("sweep complete")
		return
	}

	if err := sweep.Start(ctx); err != nil {
		l.Panic().Err(err).Msg("sweep schedule invalid")
	}
	<-ctx.Done()
	sweep.Stop()
}
