package config

import "time"

// DefaultConfig returns the default configuration.
// Credentials default to ${ENV_VAR} references so a generated config
// file never contains secrets.
func DefaultConfig() *Config {
	return &Config{
		Log: LogCfg{
			Level: "info",
		},
		CallLog: DatabaseCfg{
			Driver: "postgres",
			DSN:    "${CALLLOG_DSN}",
		},
		Store: DatabaseCfg{
			Driver: "postgres",
			DSN:    "${STORE_DSN}",
		},
		SFTP: SFTPCfg{
			Port:        22,
			Password:    "${SFTP_PASSWORD}",
			StatTimeout: 10 * time.Second,
		},
		Recordings: RecordingsCfg{
			LookbackDays: 7,
			MinSizeBytes: 8 * 1024,
			CacheAudio:   false,
		},
		Transcriber: TranscriberCfg{
			BaseURL:          "https://api.assemblyai.com/v2",
			APIKey:           "${TRANSCRIBER_API_KEY}",
			PollInterval:     3 * time.Second,
			MaxPollAttempts:  60,
			SpeakersExpected: 2,
			UploadTimeout:    2 * time.Minute,
		},
		Categorizer: CategorizerCfg{
			APIKey:  "${OPENAI_API_KEY}",
			Model:   "gpt-4o-mini",
			Timeout: 30 * time.Second,
		},
		Pipeline: PipelineCfg{
			BatchSize:    4,
			BatchDelay:   10 * time.Second,
			MaxAttempts:  3,
			LookbackDays: 14,
			RunLimit:     0,
		},
	}
}
