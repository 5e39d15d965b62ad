package configs

import "time"

// Engine holds the slot-engine tunables. The defaults are the published
// production constants; tests and staging override them through the
// environment (e.g. a capacity of 1 to exercise queueing).
type Engine struct {
	// MaxActiveSlots is the number of concurrently promoted themes.
	MaxActiveSlots int `env:"MAX_ACTIVE_SLOTS" envDefault:"15"`
	// DailyCost is the point charge per promoted day.
	DailyCost int64 `env:"DAILY_COST" envDefault:"100"`
	// SweepInterval is how often the expiration sweeper ticks.
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"60s"`
	// PromotionRetryLimit is how many sweeps a queue head with an
	// insufficient balance survives before it is auto-cancelled.
	PromotionRetryLimit int `env:"PROMOTION_RETRY_LIMIT" envDefault:"3"`
}
