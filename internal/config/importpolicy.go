package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ImportPolicy carries the operational tunables of the import pipeline. The
// source system hardcoded several of these inconsistently across importer
// variants; here they are a single reloadable document.
type ImportPolicy struct {
	// RetentionWindowDays filters transaction rows whose dispatch date is
	// older than this many days. Zero disables the filter.
	RetentionWindowDays int `mapstructure:"retentionWindowDays"`

	// HistoryRetentionDays bounds the age of rental history records kept by
	// the prune job.
	HistoryRetentionDays int `mapstructure:"historyRetentionDays"`

	// ChunkSize is the number of rows fetched per chunk when reading a
	// source table in chunked mode.
	ChunkSize int `mapstructure:"chunkSize"`

	// BulkThreshold is the estimated row count at or below which a table may
	// be materialized in one read instead of chunked.
	BulkThreshold int `mapstructure:"bulkThreshold"`

	// BreakerSkipRatio aborts a linker run early when skipped/total exceeds
	// this ratio after BreakerMinRows rows. Zero disables the breaker.
	BreakerSkipRatio float64 `mapstructure:"breakerSkipRatio"`
	BreakerMinRows   int     `mapstructure:"breakerMinRows"`

	// MaxErrors caps the number of error strings retained per run.
	MaxErrors int `mapstructure:"maxErrors"`

	// ExclusiveColumns makes field-mapping inference claim each source
	// column for at most one target field.
	ExclusiveColumns bool `mapstructure:"exclusiveColumns"`

	// OverdueDays is the rental age beyond which a cylinder is reported as
	// overdue by the notification job.
	OverdueDays int `mapstructure:"overdueDays"`
}

func DefaultImportPolicy() ImportPolicy {
	return ImportPolicy{
		RetentionWindowDays:  365,
		HistoryRetentionDays: 180,
		ChunkSize:            1000,
		BulkThreshold:        5000,
		BreakerSkipRatio:     0.5,
		BreakerMinRows:       200,
		MaxErrors:            5000,
		ExclusiveColumns:     true,
		OverdueDays:          30,
	}
}

// ImportPolicyHolder exposes the current policy and hot-reloads it when the
// backing file changes.
type ImportPolicyHolder struct {
	current atomic.Value // holds ImportPolicy
}

func NewImportPolicyHolder(cfg Config) (*ImportPolicyHolder, error) {
	holder := &ImportPolicyHolder{}
	holder.current.Store(DefaultImportPolicy())

	v := viper.New()
	v.SetConfigName("import-policy")
	v.SetConfigType("yml")
	if cfg.ImportPolicyPath != "" {
		v.AddConfigPath(cfg.ImportPolicyPath)
	}
	v.AddConfigPath("/etc/oxygentracker")
	v.AddConfigPath(".")

	v.SetEnvPrefix("OXY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		return holder, nil
	}

	loaded := DefaultImportPolicy()
	if err := v.UnmarshalKey("import", &loaded); err != nil {
		return nil, err
	}
	if err := validateImportPolicy(loaded); err != nil {
		return nil, err
	}
	holder.current.Store(loaded)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated := DefaultImportPolicy()
		if err := v.UnmarshalKey("import", &updated); err != nil {
			log.Printf("[import-policy] reload failed: %v", err)
			return
		}
		if err := validateImportPolicy(updated); err != nil {
			log.Printf("[import-policy] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[import-policy] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *ImportPolicyHolder) Get() ImportPolicy {
	return h.current.Load().(ImportPolicy)
}

func validateImportPolicy(p ImportPolicy) error {
	if p.RetentionWindowDays < 0 || p.HistoryRetentionDays < 0 {
		return errors.New("retention windows must be non-negative")
	}
	if p.ChunkSize <= 0 {
		return errors.New("chunkSize must be positive")
	}
	if p.BreakerSkipRatio < 0 || p.BreakerSkipRatio > 1 {
		return errors.New("breakerSkipRatio must be within [0, 1]")
	}
	if p.MaxErrors <= 0 {
		return errors.New("maxErrors must be positive")
	}
	return nil
}
