package parser

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/OCAP2/persistentrotation/pkg/orientation"
)

var (
	// ErrInvalidVector is returned when a vector or quaternion text is malformed.
	ErrInvalidVector = errors.New("invalid vector text")
	// ErrInvalidRPM is returned when an RPM entry is not a finite number.
	ErrInvalidRPM = errors.New("invalid rpm value")
)

// FormatFloat writes f with the fewest digits that parse back to f.
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// FormatVec encodes v as "x,y,z".
func FormatVec(v orientation.Vec) string {
	return FormatFloat(v.X) + "," + FormatFloat(v.Y) + "," + FormatFloat(v.Z)
}

// FormatQuat encodes q as "x,y,z,w".
func FormatQuat(q orientation.Quat) string {
	return FormatFloat(q.X) + "," + FormatFloat(q.Y) + "," + FormatFloat(q.Z) + "," + FormatFloat(q.W)
}

// ParseVec decodes "x,y,z".
func ParseVec(s string) (orientation.Vec, error) {
	c, err := parseComponents(s, 3)
	if err != nil {
		return orientation.Vec{}, err
	}
	return orientation.Vec{X: c[0], Y: c[1], Z: c[2]}, nil
}

// ParseQuat decodes "x,y,z,w".
func ParseQuat(s string) (orientation.Quat, error) {
	c, err := parseComponents(s, 4)
	if err != nil {
		return orientation.Quat{}, err
	}
	return orientation.Quat{X: c[0], Y: c[1], Z: c[2], W: c[3]}, nil
}

func parseComponents(s string, n int) ([]float64, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != n {
		return nil, fmt.Errorf("%w: want %d components, got %d in %q", ErrInvalidVector, n, len(parts), s)
	}
	out := make([]float64, n)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: component %d of %q", ErrInvalidVector, i, s)
		}
		out[i] = f
	}
	return out, nil
}

// ParseRPM parses a user-entered spin rate. Signed values are allowed.
func ParseRPM(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRPM, s)
	}
	if math.IsNaN(f) || math.Abs(f) > maxRPM {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidRPM, s)
	}
	return f, nil
}

// maxRPM bounds user entries; also rejects infinities.
const maxRPM = 1e6

// FormatRPM renders a stored spin rate as editable text.
func FormatRPM(rpm float64) string {
	return FormatFloat(rpm)
}
