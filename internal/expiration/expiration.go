// Package expiration normalizes the three expiration input modes
// (never, absolute date, relative duration) into the relative-seconds
// value the backend accepts.
package expiration

import "time"

// Mode selects which expiration intent is active. Exactly one mode is
// meaningful at a time.
type Mode string

const (
	// ModeNever means the link never expires.
	ModeNever Mode = "never"
	// ModeDate expires the link at an absolute point in time.
	ModeDate Mode = "date"
	// ModeDuration expires the link a fixed duration after creation.
	ModeDuration Mode = "duration"
)

// Preset is a named duration choice.
type Preset string

const (
	Preset1Hour   Preset = "1h"
	Preset24Hours Preset = "24h"
	Preset7Days   Preset = "7d"
	Preset30Days  Preset = "30d"
	// PresetCustom defers to the custom value/unit pair.
	PresetCustom Preset = "custom"
)

// Unit is a custom-duration unit.
type Unit string

const (
	UnitMinute Unit = "minute"
	UnitHour   Unit = "hour"
	UnitDay    Unit = "day"
	UnitWeek   Unit = "week"
	// UnitMonth is a fixed 30-day approximation, not a calendar month.
	// Kept that way for compatibility with existing links.
	UnitMonth Unit = "month"
)

var presetSeconds = map[Preset]int64{
	Preset1Hour:   3600,
	Preset24Hours: 86400,
	Preset7Days:   604800,
	Preset30Days:  2592000,
}

var unitSeconds = map[Unit]int64{
	UnitMinute: 60,
	UnitHour:   3600,
	UnitDay:    86400,
	UnitWeek:   604800,
	UnitMonth:  2592000,
}

// Intent describes the expiration choice collected from the user.
// Fields belonging to modes other than Mode are ignored.
type Intent struct {
	Mode Mode
	// Date is the absolute expiry, used when Mode is ModeDate.
	Date time.Time
	// Preset names a fixed duration, used when Mode is ModeDuration.
	Preset Preset
	// CustomValue and CustomUnit apply when Preset is PresetCustom.
	CustomValue int64
	CustomUnit  Unit
}

// Never returns an intent with no expiration.
func Never() Intent {
	return Intent{Mode: ModeNever}
}

// At returns an intent expiring at the given point in time.
func At(t time.Time) Intent {
	return Intent{Mode: ModeDate, Date: t}
}

// After returns an intent expiring after a named preset duration.
func After(p Preset) Intent {
	return Intent{Mode: ModeDuration, Preset: p}
}

// Custom returns an intent expiring after value units.
func Custom(value int64, unit Unit) Intent {
	return Intent{Mode: ModeDuration, Preset: PresetCustom, CustomValue: value, CustomUnit: unit}
}

// Compute resolves intent to whole seconds from now, or nil for no
// expiration. Date intents are measured against now at the moment of
// the call, so computing the same intent twice at different instants
// yields different values by design. Incomplete or unknown
// combinations resolve to nil.
func Compute(intent Intent, now time.Time) *int64 {
	switch intent.Mode {
	case ModeDate:
		if intent.Date.IsZero() {
			return nil
		}

		seconds := int64(intent.Date.Sub(now) / time.Second)

		return &seconds
	case ModeDuration:
		if intent.Preset == PresetCustom {
			if intent.CustomValue <= 0 {
				return nil
			}

			unit, ok := unitSeconds[intent.CustomUnit]
			if !ok {
				return nil
			}

			seconds := intent.CustomValue * unit

			return &seconds
		}

		if seconds, ok := presetSeconds[intent.Preset]; ok {
			return &seconds
		}

		return nil
	default:
		return nil
	}
}
