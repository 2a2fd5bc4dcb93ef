package app

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"codeberg.org/mutker/scadactl/internal/advisor"
	"codeberg.org/mutker/scadactl/internal/catalog"
	"codeberg.org/mutker/scadactl/internal/collector"
	"codeberg.org/mutker/scadactl/internal/config"
	"codeberg.org/mutker/scadactl/internal/errors"
	"codeberg.org/mutker/scadactl/internal/logger"
	"codeberg.org/mutker/scadactl/internal/scada"
)

// App wires the long-lived components together. It is constructed once
// in main and passed explicitly to the surfaces that serve it.
type App struct {
	Config    *config.Config
	Client    *scada.Client
	Catalog   *catalog.Catalog
	Collector *collector.Collector
	Advisor   advisor.Advisor

	store catalog.Store
}

// New builds the component graph from configuration: catalog store,
// client, collector and advisor. The collector is not started.
func New(cfg *config.Config) (*App, error) {
	errFactory := errors.New()

	store, err := catalog.NewRepository(cfg.CatalogDB)
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrInitApp, err)
	}

	if err := store.Seed(catalog.DefaultPoints()); err != nil {
		_ = store.Close()
		return nil, errFactory.Wrap(errors.ErrInitApp, err)
	}

	cat, err := catalog.NewCatalog(store)
	if err != nil {
		_ = store.Close()
		return nil, errFactory.Wrap(errors.ErrInitApp, err)
	}

	client, err := scada.NewClient(scada.Config{
		BaseURL:  cfg.Scada.BaseURL,
		Username: cfg.Scada.Username,
		Password: cfg.Scada.Password,
		Timeout:  time.Duration(cfg.Scada.TimeoutSeconds) * time.Second,
	}, cat)
	if err != nil {
		_ = store.Close()
		return nil, errFactory.Wrap(errors.ErrInitApp, err)
	}

	coll, err := collector.New(collector.Config{
		SampleRateHz:  cfg.Collector.SampleRateHz,
		BufferSeconds: cfg.Collector.BufferSeconds,
	}, client, cat, collector.WithRegisterer(prometheus.DefaultRegisterer))
	if err != nil {
		_ = store.Close()
		return nil, errFactory.Wrap(errors.ErrInitApp, err)
	}

	adv, err := advisor.New(cfg.LLM, coll)
	if err != nil {
		_ = store.Close()
		return nil, errFactory.Wrap(errors.ErrInitApp, err)
	}

	return &App{
		Config:    cfg,
		Client:    client,
		Catalog:   cat,
		Collector: coll,
		Advisor:   adv,
		store:     store,
	}, nil
}

// Shutdown stops collection, disconnects from the endpoint and closes
// the catalog store.
func (a *App) Shutdown() {
	if a.Collector != nil {
		a.Collector.Stop()
	}
	if a.Client != nil {
		a.Client.Disconnect()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close catalog store")
		}
	}

	logger.Info().Msg("Application shut down")
}
