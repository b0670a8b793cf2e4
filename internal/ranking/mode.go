package ranking

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMode is returned for a mode name outside the known set.
var ErrUnknownMode = errors.New("unknown ranking mode")

// Mode names a scoring strategy.
type Mode string

// Scoring modes.
const (
	ModeTransit   Mode = "transit"
	ModeCulture   Mode = "culture"
	ModeBalanced  Mode = "balanced"
	ModeHub       Mode = "hub"
	ModeCorridor  Mode = "corridor"
	ModeConnected Mode = "connected"
)

// Modes returns every scoring mode in display order.
func Modes() []Mode {
	return []Mode{ModeTransit, ModeCulture, ModeBalanced, ModeHub, ModeCorridor, ModeConnected}
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	for _, known := range Modes() {
		if m == known {
			return true
		}
	}
	return false
}

// ParseMode parses a case-insensitive mode name.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
	return m, nil
}
