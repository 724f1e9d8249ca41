package server

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"callsight/internal/calllog"
	"callsight/internal/categorize"
	"callsight/internal/config"
	"callsight/internal/db"
	"callsight/internal/home"
	"callsight/internal/pipeline"
	"callsight/internal/recordings"
	"callsight/internal/store"
	"callsight/internal/transcribe"
)

// Wiring holds a fully-connected pipeline and every resource it owns.
// It is shared between the server and one-shot CLI runs.
type Wiring struct {
	CallDB   *gorm.DB
	StoreDB  *gorm.DB
	Remote   *recordings.SFTPStore
	Source   *calllog.Source
	Records  *store.Store
	Pipeline *pipeline.Pipeline
}

// Wire validates cfg, opens both databases, and builds the processing
// pipeline. Callers must Close the returned Wiring.
func Wire(cfg *config.Config, homeDir *home.Dir, logger *slog.Logger) (*Wiring, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration invalid: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	w := &Wiring{}

	callDB, err := db.Open(cfg.CallLog.Driver, config.ResolveEnvVars(cfg.CallLog.DSN))
	if err != nil {
		return nil, fmt.Errorf("open call log database: %w", err)
	}
	w.CallDB = callDB
	w.Source = calllog.NewSource(callDB)

	storeDB, err := db.Open(cfg.Store.Driver, config.ResolveEnvVars(cfg.Store.DSN))
	if err != nil {
		w.Close(logger)
		return nil, fmt.Errorf("open results database: %w", err)
	}
	w.StoreDB = storeDB
	w.Records, err = store.New(storeDB)
	if err != nil {
		w.Close(logger)
		return nil, fmt.Errorf("initialize record store: %w", err)
	}

	w.Remote = recordings.NewSFTPStore(recordings.SFTPConfig{
		Host:     cfg.SFTP.Host,
		Port:     cfg.SFTP.Port,
		User:     cfg.SFTP.User,
		Password: config.ResolveEnvVars(cfg.SFTP.Password),
		KeyFile:  cfg.SFTP.KeyFile,
	})

	resolver := recordings.NewResolver(cfg.Recordings.TenantPrefix, cfg.Recordings.LookbackDays)
	var fetcher pipeline.AudioFetcher = recordings.NewFetcher(recordings.FetcherConfig{
		Remote:      w.Remote,
		MinSize:     cfg.Recordings.MinSizeBytes,
		StatTimeout: cfg.SFTP.StatTimeout,
		Logger:      logger,
	})
	if cfg.Recordings.CacheAudio && homeDir != nil {
		fetcher = recordings.NewCachingFetcher(fetcher, homeDir.AudioCachePath(), logger)
	}

	transcriber := transcribe.New(transcribe.Config{
		Client: transcribe.NewClient(transcribe.ClientConfig{
			APIKey:  config.ResolveEnvVars(cfg.Transcriber.APIKey),
			BaseURL: cfg.Transcriber.BaseURL,
			Timeout: cfg.Transcriber.UploadTimeout,
		}),
		PollInterval:     cfg.Transcriber.PollInterval,
		MaxPollAttempts:  cfg.Transcriber.MaxPollAttempts,
		SpeakersExpected: cfg.Transcriber.SpeakersExpected,
		Logger:           logger,
	})

	categorizer := categorize.New(categorize.Config{
		APIKey:  config.ResolveEnvVars(cfg.Categorizer.APIKey),
		Model:   cfg.Categorizer.Model,
		BaseURL: cfg.Categorizer.BaseURL,
		Timeout: cfg.Categorizer.Timeout,
		Logger:  logger,
	})

	w.Pipeline = pipeline.New(pipeline.Config{
		BatchSize:     cfg.Pipeline.BatchSize,
		BatchDelay:    cfg.Pipeline.BatchDelay,
		MaxAttempts:   cfg.Pipeline.MaxAttempts,
		LookbackDays:  cfg.Pipeline.LookbackDays,
		PublicBaseURL: cfg.Recordings.PublicBaseURL,
		Logger:        logger,
	}, w.Source, w.Records, resolver, fetcher, transcriber, categorizer)

	return w, nil
}

// Close releases the SFTP connection and both database handles.
func (w *Wiring) Close(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	if w.Remote != nil {
		if err := w.Remote.Close(); err != nil {
			logger.Error("sftp close error", "error", err)
		}
	}
	closeDB := func(g *gorm.DB, name string) {
		if g == nil {
			return
		}
		if sqlDB, err := g.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				logger.Error("database close error", "db", name, "error", err)
			}
		}
	}
	closeDB(w.CallDB, "call_log")
	closeDB(w.StoreDB, "store")
}
