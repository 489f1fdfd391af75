package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/OCAP2/persistentrotation/pkg/core"
	"github.com/OCAP2/persistentrotation/pkg/host"
	"github.com/OCAP2/persistentrotation/pkg/host/hosttest"
	"github.com/OCAP2/persistentrotation/pkg/orientation"
)

func TestClassifyAuthority(t *testing.T) {
	tests := []struct {
		name         string
		controllable bool
		ap           *hosttest.Autopilot
		external     bool
		want         core.ControlAuthority
	}{
		{"uncontrollable", false, &hosttest.Autopilot{On: true}, true, core.AuthorityDisabled},
		{"external wins over stock hold", true, &hosttest.Autopilot{On: true, Target: host.AutopilotStabilityAssist}, true, core.AuthorityExternalAbsolute},
		{"external without stock hold", true, nil, true, core.AuthorityExternalAbsolute},
		{"stability assist", true, &hosttest.Autopilot{On: true, Target: host.AutopilotStabilityAssist}, false, core.AuthorityRelativeHold},
		{"stock prograde", true, &hosttest.Autopilot{On: true, Target: host.AutopilotPrograde}, false, core.AuthorityExternalAbsolute},
		{"stock hold off", true, &hosttest.Autopilot{On: false}, false, core.AuthorityOff},
		{"no autopilot", true, nil, false, core.AuthorityOff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := hosttest.NewVessel("v")
			v.CanControl = tt.controllable
			v.AP = tt.ap
			assert.Equal(t, tt.want, ClassifyAuthority(v, tt.external))
		})
	}
}

func TestRollCommand(t *testing.T) {
	tests := []struct {
		desired, current, want float64
	}{
		{10, 12, -1},
		{10, 9.5, 0.5},
		{10, 2, 1},
		{-5, 2, -1},
		{-5, 4.5, -0.5},
		{-5, 7, 1},
		{0, 0, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, RollCommand(tt.desired, tt.current), 1e-12,
			"desired=%v current=%v", tt.desired, tt.current)
	}
}

func TestCurrentRPM(t *testing.T) {
	assert.InDelta(t, 60.0, CurrentRPM(orientation.Vec{Z: 2 * math.Pi}), 1e-9)
	assert.InDelta(t, 0.0, CurrentRPM(orientation.Vec{}), 1e-12)
}
