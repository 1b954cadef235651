package resolver

import (
	"log/slog"
	"time"

	"github.com/packdex/packdex-server/internal/logger"
)

// Defaults applied by Options.withDefaults.
const (
	DefaultAcceptanceFloor = 65
	DefaultMaxQueryRunes   = 128
	DefaultTimeBudget      = 2 * time.Second
	DefaultWorkers         = 4
	DefaultPageSize        = 25
	DefaultMaxPageSize     = 100
)

// Options tunes matching and pagination.
type Options struct {
	// AcceptanceFloor is the minimum score, in (0, 100], a candidate needs to be returned.
	// Zero or less means DefaultAcceptanceFloor.
	AcceptanceFloor float64
	// MaxQueryRunes truncates longer queries before normalization.
	MaxQueryRunes int
	// ItemBudget caps the records scored per search. Zero means unlimited.
	ItemBudget int
	// TimeBudget bounds a search. Zero means DefaultTimeBudget; negative means no deadline.
	TimeBudget time.Duration
	// Workers is the number of packs scored in parallel.
	Workers int

	DefaultPageSize int
	MaxPageSize     int

	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.AcceptanceFloor <= 0 {
		o.AcceptanceFloor = DefaultAcceptanceFloor
	}
	if o.AcceptanceFloor > 100 {
		o.AcceptanceFloor = 100
	}
	if o.MaxQueryRunes <= 0 {
		o.MaxQueryRunes = DefaultMaxQueryRunes
	}
	if o.ItemBudget < 0 {
		o.ItemBudget = 0
	}
	if o.TimeBudget == 0 {
		o.TimeBudget = DefaultTimeBudget
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.MaxPageSize <= 0 {
		o.MaxPageSize = DefaultMaxPageSize
	}
	if o.DefaultPageSize <= 0 {
		o.DefaultPageSize = DefaultPageSize
	}
	if o.DefaultPageSize > o.MaxPageSize {
		o.DefaultPageSize = o.MaxPageSize
	}
	o.Logger = logger.OrDiscard(o.Logger)
	return o
}
