package forest

// Options holds the parser's configuration knobs for behavior that isn't
// fixed by the grammar itself.
type Options struct {
	// DeletionCost is charged per unrecognized token skipped during a
	// deletion-permitting re-parse.
	DeletionCost float64

	// AllowNegativeIntegers controls whether the <int> placeholder accepts
	// a leading '-'.
	AllowNegativeIntegers bool

	// MaxEntityWindow caps how many tokens an entity-category placeholder
	// may consume in one match (0 means use the index's own longest known
	// name).
	MaxEntityWindow int

	// EntityScoreThreshold is the minimum overlap score an entity match
	// must reach to be considered at all.
	EntityScoreThreshold float64

	// EntityCostScale scales (1 - score) into the cost penalty charged for
	// an entity match that isn't a perfect hit.
	EntityCostScale float64
}

// DefaultOptions returns the parser defaults used when the caller doesn't
// override them.
func DefaultOptions() Options {
	return Options{
		DeletionCost:          10,
		AllowNegativeIntegers: true,
		MaxEntityWindow:       4,
		EntityScoreThreshold:  0.34,
		EntityCostScale:       3,
	}
}
