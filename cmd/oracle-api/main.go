// Command oracle-api serves the oracle HTTP API and its meta probes
package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"oracle/internal/adapters/archive/s3"
	"oracle/internal/adapters/llm/gemini"
	"oracle/internal/core/narrative"
	"oracle/internal/modkit/repokit"
	"oracle/internal/platform/config"
	"oracle/internal/platform/logger"
	phttp "oracle/internal/platform/net/http"
	"oracle/internal/platform/store"
	"oracle/internal/platform/store/migrate"

	"oracle/internal/services/api"
	odomain "oracle/internal/services/api/oracle/domain"

	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; the process environment wins
	_ = godotenv.Load()

	root := config.New()
	apiCfg := root.Prefix("CORE_API_")
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_")

	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgURL := pgCfg.MustString("DBURL")
	if pgCfg.MayBool("MIGRATE", true) {
		if err := migrate.Up(pgURL); err != nil {
			l.Panic().Err(err).Msg("migrate up failed")
		}
	}

	chURL := chCfg.MayString("DBURL", "")
	st, err := store.Open(ctx, store.Config{
		AppName: "oracle-api",
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgURL,
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 8)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
		CH: store.CHConfig{
			Enabled: chURL != "",
			URL:     chURL,
			Role:    "oracle",
			Tag:     "api",
		},
	}, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()
	repokit.MustGuard(ctx, st)
	if st.CH != nil {
		if err := migrate.Clickhouse(ctx, st.CH); err != nil {
			l.Panic().Err(err).Msg("clickhouse ddl failed")
		}
	}

	completer, closeCompleter := mustCompleter(ctx, root, l)
	defer closeCompleter()
	archive := mustArchive(ctx, root, l)

	srv := phttp.NewServer(apiCfg)
	mounted := api.Mount(srv.Router(), api.Options{
		Config:        root,
		Store:         st,
		Logger:        l,
		EnableSwagger: apiCfg.MayBool("SWAGGER", true),
		Profiler: phttp.ProfilerOptions{
			Enabled: apiCfg.MayBool("PROFILER", false),
			Remote:  apiCfg.MayBool("PROFILER_REMOTE", false),
		},
		Completer: completer,
		Archive:   archive,
	})

	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}

	// drain audit entries before the store closes
	actx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := mounted.Close(actx); err != nil {
		l.Error().Err(err).Msg("audit drain incomplete")
	}
}

// mustCompleter returns gemini when CORE_NARRATIVE_GEMINI_API_KEY is set, else nil (templates).
// The returned func releases the client and is always safe to call
func mustCompleter(ctx context.Context, root config.Conf, l *logger.Logger) (narrative.Completer, func()) {
	nc := root.Prefix("CORE_NARRATIVE_GEMINI_")
	key := nc.MayString("API_KEY", "")
	if key == "" {
		l.Info().Msg("narrative: template provider")
		return nil, func() {}
	}
	c, err := gemini.New(ctx, gemini.Config{
		APIKey:      key,
		Model:       nc.MayString("MODEL", "gemini-1.5-flash"),
		Temperature: float32(nc.MayFloat64("TEMPERATURE", 0.2)),
		MaxTokens:   int32(nc.MayInt("MAX_TOKENS", 2048)),
	})
	if err != nil {
		l.Panic().Err(err).Msg("gemini client failed")
	}
	l.Info().Str("provider", c.Name()).Msg("narrative: model provider")
	return c, func() {
		if err := c.Close(); err != nil {
			l.Warn().Err(err).Msg("gemini client close failed")
		}
	}
}

// mustArchive returns the s3 archive when CORE_BRIEFING_BUCKET is set, else nil
func mustArchive(ctx context.Context, root config.Conf, l *logger.Logger) odomain.ArchivePort {
	bc := root.Prefix("CORE_BRIEFING_")
	bucket := bc.MayString("BUCKET", "")
	if bucket == "" {
		l.Info().Msg("briefing archive disabled")
		return nil
	}
	a, err := s3.New(ctx, s3.Config{
		Region:    bc.MayString("REGION", "us-east-1"),
		Bucket:    bucket,
		Prefix:    bc.MayString("PREFIX", "briefings/"),
		Endpoint:  bc.MayString("ENDPOINT", ""),
		AccessKey: bc.MayString("ACCESS_KEY", ""),
		SecretKey: bc.MayString("SECRET_KEY", ""),
	})
	if err != nil {
		l.Panic().Err(err).Msg("briefing archive failed")
	}
	return a
}
