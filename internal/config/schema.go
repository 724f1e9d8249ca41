package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds callsight configuration.
// Stored at: ~/.callsight/config.yaml
type Config struct {
	Log         LogCfg         `mapstructure:"log" yaml:"log"`
	CallLog     DatabaseCfg    `mapstructure:"call_log" yaml:"call_log"`
	Store       DatabaseCfg    `mapstructure:"store" yaml:"store"`
	SFTP        SFTPCfg        `mapstructure:"sftp" yaml:"sftp"`
	Recordings  RecordingsCfg  `mapstructure:"recordings" yaml:"recordings"`
	Transcriber TranscriberCfg `mapstructure:"transcriber" yaml:"transcriber"`
	Categorizer CategorizerCfg `mapstructure:"categorizer" yaml:"categorizer"`
	Pipeline    PipelineCfg    `mapstructure:"pipeline" yaml:"pipeline"`
}

// LogCfg configures logging.
type LogCfg struct {
	Level string `mapstructure:"level" yaml:"level"` // debug, info, warn, error
}

// DatabaseCfg configures a relational database connection.
type DatabaseCfg struct {
	Driver string `mapstructure:"driver" yaml:"driver"` // "postgres" or "sqlite"
	DSN    string `mapstructure:"dsn" yaml:"dsn"`       // supports ${ENV_VAR} syntax
}

// SFTPCfg configures the remote recording file store.
type SFTPCfg struct {
	Host        string        `mapstructure:"host" yaml:"host"`
	Port        int           `mapstructure:"port" yaml:"port"`
	User        string        `mapstructure:"user" yaml:"user"`
	Password    string        `mapstructure:"password" yaml:"password"` // supports ${ENV_VAR} syntax
	KeyFile     string        `mapstructure:"key_file" yaml:"key_file"` // path to private key (alternative to password)
	StatTimeout time.Duration `mapstructure:"stat_timeout" yaml:"stat_timeout"`
}

// RecordingsCfg configures recording path resolution and fetching.
type RecordingsCfg struct {
	// TenantPrefix is the historical storage prefix some recording
	// locations carry and that must be stripped (e.g. "connect/acme/CallRecordings").
	TenantPrefix string `mapstructure:"tenant_prefix" yaml:"tenant_prefix"`
	// LookbackDays is how many days of date-partitioned directories to
	// probe when a recording location is a bare filename.
	LookbackDays int `mapstructure:"lookback_days" yaml:"lookback_days"`
	// MinSizeBytes is the smallest remote file size considered a real recording.
	MinSizeBytes int64 `mapstructure:"min_size_bytes" yaml:"min_size_bytes"`
	// PublicBaseURL, when set, lets the transcription engine fetch audio
	// directly instead of callsight re-uploading the bytes.
	PublicBaseURL string `mapstructure:"public_base_url" yaml:"public_base_url"`
	// CacheAudio enables caching fetched audio under ~/.callsight/audio.
	CacheAudio bool `mapstructure:"cache_audio" yaml:"cache_audio"`
}

// TranscriberCfg configures the transcription/sentiment engine client.
type TranscriberCfg struct {
	BaseURL          string        `mapstructure:"base_url" yaml:"base_url"`
	APIKey           string        `mapstructure:"api_key" yaml:"api_key"` // supports ${ENV_VAR} syntax
	PollInterval     time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	MaxPollAttempts  int           `mapstructure:"max_poll_attempts" yaml:"max_poll_attempts"`
	SpeakersExpected int           `mapstructure:"speakers_expected" yaml:"speakers_expected"`
	UploadTimeout    time.Duration `mapstructure:"upload_timeout" yaml:"upload_timeout"`
}

// CategorizerCfg configures the LLM categorization engine client.
type CategorizerCfg struct {
	APIKey  string        `mapstructure:"api_key" yaml:"api_key"` // supports ${ENV_VAR} syntax
	Model   string        `mapstructure:"model" yaml:"model"`
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"` // optional (tests, proxies)
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// PipelineCfg configures the batch orchestrator.
type PipelineCfg struct {
	BatchSize    int           `mapstructure:"batch_size" yaml:"batch_size"`
	BatchDelay   time.Duration `mapstructure:"batch_delay" yaml:"batch_delay"`
	MaxAttempts  int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	LookbackDays int           `mapstructure:"lookback_days" yaml:"lookback_days"`
	RunLimit     int           `mapstructure:"run_limit" yaml:"run_limit"`
	// AutoInterval, when non-zero, runs discovery and processing on a
	// timer while the server is up.
	AutoInterval time.Duration `mapstructure:"auto_interval" yaml:"auto_interval"`
}

// Validate checks that required settings for a pipeline-capable process
// are present. Configuration errors are fatal at startup, not retried.
func (c *Config) Validate() error {
	var errs []error
	if c.CallLog.DSN == "" {
		errs = append(errs, errors.New("call_log.dsn is required"))
	}
	if c.Store.DSN == "" {
		errs = append(errs, errors.New("store.dsn is required"))
	}
	if c.SFTP.Host == "" {
		errs = append(errs, errors.New("sftp.host is required"))
	}
	if c.SFTP.Password == "" && c.SFTP.KeyFile == "" {
		errs = append(errs, errors.New("one of sftp.password or sftp.key_file is required"))
	}
	if ResolveEnvVars(c.Transcriber.APIKey) == "" {
		errs = append(errs, errors.New("transcriber.api_key is required"))
	}
	if ResolveEnvVars(c.Categorizer.APIKey) == "" {
		errs = append(errs, errors.New("categorizer.api_key is required"))
	}
	if c.Pipeline.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("pipeline.batch_size must be positive, got %d", c.Pipeline.BatchSize))
	}
	return errors.Join(errs...)
}
