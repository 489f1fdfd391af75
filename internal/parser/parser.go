// Package parser turns host command arguments and persisted text into typed
// values.
package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/OCAP2/persistentrotation/internal/util"
	"github.com/OCAP2/persistentrotation/pkg/core"
)

// Parser parses command arguments. It logs rejected input at debug level.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a parser. A nil logger uses slog.Default.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// ParseVesselID reads the vessel id from the first argument.
func (p *Parser) ParseVesselID(data []string) (uuid.UUID, error) {
	if len(data) < 1 {
		return uuid.Nil, fmt.Errorf("expected vessel id, got %d args", len(data))
	}
	raw := util.CleanArg(data[0])
	id, err := uuid.Parse(raw)
	if err != nil {
		p.logger.Debug("Rejected vessel id", "value", raw, "error", err)
		return uuid.Nil, fmt.Errorf("invalid vessel id %q: %w", raw, err)
	}
	return id, nil
}

// ParseName reads a target name from the first argument.
func (p *Parser) ParseName(data []string) (string, error) {
	name := util.Arg(data, 0)
	if name == "" {
		return "", errors.New("expected a name")
	}
	return name, nil
}

// ParseReferenceToken classifies a persisted reference token without
// resolving it: NONE is no reference, a UUID names a vessel and anything else
// names a body.
func ParseReferenceToken(s string) core.Reference {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, core.NoneToken) {
		return core.NoReference()
	}
	if id, err := uuid.Parse(s); err == nil {
		return core.VesselReference(id)
	}
	return core.BodyReference(s)
}
