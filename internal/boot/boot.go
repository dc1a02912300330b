// Package boot builds the long lived components the commands share from env config
package boot

import (
	"context"
	"fmt"
	"time"

	"phishguard/internal/core/blacklist"
	"phishguard/internal/core/classifier"
	"phishguard/internal/core/model"
	"phishguard/internal/platform/config"
	"phishguard/internal/platform/logger"
	"phishguard/internal/platform/store"
	urlsrepo "phishguard/internal/services/api/urls/repo"
)

// StoreConfig reads SERVICE_PGSQL_* into a store config for appName
func StoreConfig(root config.Conf, appName string) store.Config {
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	return store.Config{
		AppName: appName,
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
	}
}

// OpenStore opens postgres and applies the schema when SERVICE_PGSQL_MIGRATE is set
func OpenStore(ctx context.Context, root config.Conf, appName string) (*store.Store, error) {
	st, err := store.Open(ctx, StoreConfig(root, appName), store.WithLogger(*logger.Named("store")))
	if err != nil {
		return nil, err
	}
	if root.Prefix("SERVICE_PGSQL_").MayBool("MIGRATE", false) {
		if err := urlsrepo.Migrate(ctx, st.PG); err != nil {
			_ = st.Close(ctx)
			return nil, err
		}
		logger.Named("store").Info().Msg("schema applied")
	}
	if n, err := urlsrepo.AppCount(ctx, st.PG); err != nil {
		logger.Named("store").Warn().Err(err).Msg("apps table not readable; run with SERVICE_PGSQL_MIGRATE=true")
	} else {
		logger.Named("store").Info().Int64("apps", n).Msg("store ready")
	}
	return st, nil
}

// Blacklist reads CORE_BLACKLIST_* and returns an empty store ready to Refresh
func Blacklist(root config.Conf) *blacklist.Store {
	bc := root.Prefix("CORE_BLACKLIST_")
	f := blacklist.NewFetcher(blacklist.FetchOptions{
		BaseURL:  bc.MayURL("BASE_URL", blacklist.DefaultBaseURL).String(),
		Timeout:  bc.MayDuration("TIMEOUT", 10*time.Second),
		MaxBytes: int64(bc.MayInt("MAX_BYTES", 64<<20)),
	})
	return blacklist.NewStore(f, blacklist.NewCache(bc.MayString("CACHE_DIR", "")))
}

// Classifier loads CORE_DETECT_MODEL_DIR; a missing or broken model is an error
func Classifier(root config.Conf) (*classifier.Classifier, error) {
	dir := root.Prefix("CORE_DETECT_").MustString("MODEL_DIR")
	m, err := model.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("load model from %s: %w", dir, err)
	}
	c, err := classifier.New(m)
	if err != nil {
		return nil, fmt.Errorf("model in %s: %w", dir, err)
	}
	logger.Named("model").Info().
		Str("dir", dir).
		Str("version", m.Manifest.Version).
		Int("hidden_dim", m.Manifest.HiddenDim).
		Int("layers", m.Manifest.Layers).
		Int("vocab", m.Vocab.Size()).
		Msg("classifier loaded")
	return c, nil
}
