package deps

import (
	"fmt"
	"strings"
)

const (
	DefaultWorkers  = 8  // Default concurrent fetches per level
	DefaultMaxDepth = 50 // Default maximum dependency depth
)

// Policy decides how identity conflicts are classified.
type Policy string

const (
	// FirstWins keeps the first resolution of a package and reports later
	// incompatible requests as warnings.
	FirstWins Policy = "first-wins"
	// Strict keeps the first resolution but reports conflicts as fatal.
	Strict Policy = "strict"
)

// ParsePolicy validates a policy name. The empty string selects [FirstWins].
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "", FirstWins:
		return FirstWins, nil
	case Strict:
		return Strict, nil
	default:
		return "", fmt.Errorf("unknown conflict policy %q (want %s or %s)", s, FirstWins, Strict)
	}
}

// Options configures graph construction.
type Options struct {
	Workers  int                  // Concurrent fetches per level (default: 8)
	MaxDepth int                  // Maximum depth to traverse (default: 50)
	Policy   Policy               // Conflict policy (default: first-wins)
	Logger   func(string, ...any) // Progress/error callback (optional)
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.Policy == "" {
		opts.Policy = FirstWins
	}
	if opts.Logger == nil {
		opts.Logger = func(string, ...any) {}
	}
	return opts
}
