// pkg/core/modes.go
package core

import "strings"

// RotationMode is the user-selected hold mode of a vessel.
type RotationMode uint8

const (
	Idle RotationMode = iota
	RotationHold
	MomentumHold
)

func (m RotationMode) String() string {
	switch m {
	case RotationHold:
		return "rotation"
	case MomentumHold:
		return "momentum"
	default:
		return "idle"
	}
}

// ControlAuthority is who is holding a vessel's attitude this tick.
type ControlAuthority uint8

const (
	// AuthorityOff means nothing holds attitude.
	AuthorityOff ControlAuthority = iota
	// AuthorityDisabled means the vessel cannot be controlled.
	AuthorityDisabled
	// AuthorityExternalAbsolute means an autopilot steers to an absolute target.
	AuthorityExternalAbsolute
	// AuthorityRelativeHold means plain stability assist is holding a heading
	// that can be corrected for reference frame motion.
	AuthorityRelativeHold
)

func (a ControlAuthority) String() string {
	switch a {
	case AuthorityDisabled:
		return "disabled"
	case AuthorityExternalAbsolute:
		return "external_absolute"
	case AuthorityRelativeHold:
		return "relative_hold"
	default:
		return "off"
	}
}

// ReferenceMode decides the initial reference of freshly generated records.
type ReferenceMode uint8

const (
	// ReferenceNone starts records without a reference.
	ReferenceNone ReferenceMode = iota
	// ReferenceDynamic tracks the vessel's dominant body.
	ReferenceDynamic
)

func (m ReferenceMode) String() string {
	if m == ReferenceDynamic {
		return "dynamic"
	}
	return "none"
}

// ParseReferenceMode maps config and snapshot text to a ReferenceMode.
// Unknown values fall back to ReferenceNone.
func ParseReferenceMode(s string) ReferenceMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dynamic", "1":
		return ReferenceDynamic
	default:
		return ReferenceNone
	}
}
