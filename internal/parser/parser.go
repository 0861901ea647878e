// Package parser turns the string arguments the host engine passes to the
// extension into core types. Numbers arrive as decimal strings, vectors as
// "x,y,z" and rotations as "x,y,z,w" quaternions.
package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/RacingGame/vehiclectl/internal/geo"
)

// ErrInvalidVector is returned for a vector or rotation argument that does
// not parse.
var ErrInvalidVector = fmt.Errorf("invalid vector: %w", geo.ErrInvalidCoordinates)

// ErrMissingArgs is returned when a command carries fewer arguments than it
// needs.
var ErrMissingArgs = errors.New("missing arguments")

// Parser provides pure []string -> core type conversion.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a parser that logs rejected input at debug level.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// cleanArgs strips the quoting the host adds around string arguments and
// collapses doubled quotes.
func cleanArgs(data []string) []string {
	out := make([]string, len(data))
	for i, v := range data {
		out[i] = strings.ReplaceAll(strings.Trim(strings.TrimSpace(v), `"`), `""`, `"`)
	}
	return out
}

func (p *Parser) need(command string, data []string, n int) ([]string, error) {
	if len(data) < n {
		p.logger.Debug("Rejected command arguments", "command", command, "want", n, "got", len(data))
		return nil, fmt.Errorf("%s: want %d args, got %d: %w", command, n, len(data), ErrMissingArgs)
	}
	return cleanArgs(data), nil
}

// parseUintFromFloat parses a string that may be an integer ("32") or float ("32.00") into uint64.
// The host scripting language has no integer type, so ids may be serialized as floats.
func parseUintFromFloat(s string) (uint64, error) {
	if v, err := strconv.ParseUint(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f < 0 || f != float64(uint64(f)) {
		return 0, fmt.Errorf("parseUintFromFloat: %q is not a valid uint64", s)
	}
	return uint64(f), nil
}

// parseID parses a vehicle object id.
func parseID(s string) (uint16, error) {
	v, err := parseUintFromFloat(s)
	if err != nil {
		return 0, fmt.Errorf("error converting id to uint: %w", err)
	}
	if v > math.MaxUint16 {
		return 0, fmt.Errorf("id %d out of range", v)
	}
	return uint16(v), nil
}

// parseFloat parses a finite decimal.
func parseFloat(name, s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("error converting %s to float: %w", name, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%s is not finite: %q", name, s)
	}
	return f, nil
}

func parseVec3(name, s string) (mgl64.Vec3, error) {
	v, err := geo.Vec3FromString(s)
	if err != nil {
		return mgl64.Vec3{}, fmt.Errorf("%s %q: %w", name, s, ErrInvalidVector)
	}
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return mgl64.Vec3{}, fmt.Errorf("%s %q: %w", name, s, ErrInvalidVector)
		}
	}
	return v, nil
}

func parseQuat(name, s string) (mgl64.Quat, error) {
	q, err := geo.QuatFromString(s)
	if err != nil {
		return mgl64.Quat{}, fmt.Errorf("%s %q: %w", name, s, ErrInvalidVector)
	}
	for _, c := range []float64{q.W, q.V[0], q.V[1], q.V[2]} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return mgl64.Quat{}, fmt.Errorf("%s %q: %w", name, s, ErrInvalidVector)
		}
	}
	return q, nil
}

// parseHit reads the host's obstacle distance. Empty or negative means the
// ray hit nothing.
func parseHit(s string) (distance float64, hit bool, err error) {
	if s == "" {
		return 0, false, nil
	}
	d, err := parseFloat("hit distance", s)
	if err != nil {
		return 0, false, err
	}
	if d < 0 {
		return 0, false, nil
	}
	return d, true, nil
}
