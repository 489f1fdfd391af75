// pkg/core/target.go
package core

// TargetMode is the pointing target reported by an external autopilot.
// Values match the autopilot's own numbering so raw readings convert directly.
type TargetMode int

const (
	TargetOff TargetMode = iota
	TargetKillRotation
	TargetNode
	TargetSurface
	TargetPrograde
	TargetRetrograde
	TargetNormalPlus
	TargetNormalMinus
	TargetRadialPlus
	TargetRadialMinus
	TargetRelativePlus
	TargetRelativeMinus
	TargetTargetPlus
	TargetTargetMinus
	TargetParallelPlus
	TargetParallelMinus
	TargetAdvanced
	TargetAuto
	TargetSurfacePrograde
	TargetSurfaceRetrograde
	TargetHorizontalPlus
	TargetHorizontalMinus
	TargetVerticalPlus
)

var targetModeNames = [...]string{
	"OFF", "KILLROT", "NODE", "SURFACE", "PROGRADE", "RETROGRADE",
	"NORMAL_PLUS", "NORMAL_MINUS", "RADIAL_PLUS", "RADIAL_MINUS",
	"RELATIVE_PLUS", "RELATIVE_MINUS", "TARGET_PLUS", "TARGET_MINUS",
	"PARALLEL_PLUS", "PARALLEL_MINUS", "ADVANCED", "AUTO",
	"SURFACE_PROGRADE", "SURFACE_RETROGRADE", "HORIZONTAL_PLUS",
	"HORIZONTAL_MINUS", "VERTICAL_PLUS",
}

// Valid reports whether m is a known mode.
func (m TargetMode) Valid() bool {
	return m >= TargetOff && int(m) < len(targetModeNames)
}

func (m TargetMode) String() string {
	if !m.Valid() {
		return "UNKNOWN"
	}
	return targetModeNames[m]
}
