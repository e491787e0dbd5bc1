package models

import (
	"fmt"
	"strings"
)

// EnhancementMode selects the fixed filter sequence applied to photos.
type EnhancementMode int

const (
	ModeNormal EnhancementMode = iota
	ModeHighQuality
	ModeHDRBeautify
	ModeAISuperResolution
)

var modeNames = [...]string{
	ModeNormal:            "Normal",
	ModeHighQuality:       "HighQuality",
	ModeHDRBeautify:       "HDRBeautify",
	ModeAISuperResolution: "AISuperResolution",
}

// Modes lists every mode in declaration order.
func Modes() []EnhancementMode {
	return []EnhancementMode{ModeNormal, ModeHighQuality, ModeHDRBeautify, ModeAISuperResolution}
}

func (m EnhancementMode) String() string {
	if !m.Valid() {
		return fmt.Sprintf("EnhancementMode(%d)", int(m))
	}
	return modeNames[m]
}

func (m EnhancementMode) Valid() bool {
	return m >= ModeNormal && m <= ModeAISuperResolution
}

// ParseMode resolves a user supplied mode name. Matching ignores case, spaces, '-' and '_',
// so "high-quality", "HIGH_QUALITY" and "High Quality" are all HighQuality.
func ParseMode(name string) (EnhancementMode, error) {
	key := normalizeModeName(name)
	for _, m := range Modes() {
		if normalizeModeName(modeNames[m]) == key {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, name)
}

// MarshalText lets modes appear by name in JSON reports.
func (m EnhancementMode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(m))
	}
	return []byte(m.String()), nil
}

func normalizeModeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(name)))
}
