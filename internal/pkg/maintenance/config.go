package maintenance

import (
	"time"

	"github.com/ManuelReschke/OnlyOne/internal/pkg/env"
)

const (
	DefaultReconcileInterval = 10 * time.Minute
	DefaultStaleAfter        = 15 * time.Minute
	DefaultRetentionDays     = 30
	DefaultPruneInterval     = time.Hour
	DefaultBatchSize         = 200
)

type Config struct {
	ReconcileEnabled  bool
	ReconcileInterval time.Duration
	StaleAfter        time.Duration
	RetentionDays     int
	PruneInterval     time.Duration
	BatchSize         int
}

// LoadConfig reads the RECONCILE_*, EVENT_RETENTION_DAYS and PRUNE_* settings.
func LoadConfig() Config {
	return Config{
		ReconcileEnabled:  env.GetBool("RECONCILE_ENABLED", false),
		ReconcileInterval: env.GetDuration("RECONCILE_INTERVAL", DefaultReconcileInterval),
		StaleAfter:        env.GetDuration("RECONCILE_STALE_AFTER", DefaultStaleAfter),
		RetentionDays:     env.GetInt("EVENT_RETENTION_DAYS", DefaultRetentionDays),
		PruneInterval:     env.GetDuration("PRUNE_INTERVAL", DefaultPruneInterval),
		BatchSize:         env.GetInt("MAINTENANCE_BATCH_SIZE", DefaultBatchSize),
	}
}

func (c Config) withDefaults() Config {
	if c.ReconcileInterval <= 0 {
		c.ReconcileInterval = DefaultReconcileInterval
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = DefaultStaleAfter
	}
	if c.PruneInterval <= 0 {
		c.PruneInterval = DefaultPruneInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	return c
}
