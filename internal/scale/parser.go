package scale

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Parser turns raw serial frames of a specific scale model into Readings.
// One frame in, one Reading (or error) out; the parser itself keeps no state.
type Parser struct {
	model  *Model
	status statusMap
}

// NewParser creates a Parser for the given model using the status map
// selected by statusMapVersion.
func NewParser(model *Model, statusMapVersion int) (*Parser, error) {
	status, ok := model.statusMaps[statusMapVersion]
	if !ok {
		return nil, fmt.Errorf("scale model %q has no status map version %d", model.Name, statusMapVersion)
	}
	return &Parser{
		model:  model,
		status: status,
	}, nil
}

// ParseFrame parses a single frame. The frame delimiter and any trailing
// line-ending characters must already be removed by the transport.
func (p *Parser) ParseFrame(line string, now time.Time) (Reading, error) {
	line = strings.TrimRight(line, "\r\n")
	if len(line) == 0 {
		return Reading{}, &ParseError{Line: line, Reason: "empty frame"}
	}
	return p.model.parse(p.model, p.status, line, now)
}

// parseANDFrame parses the A&D protocol: a two character status code, a
// comma, a nine character signed weight field and a three character unit
// code, e.g. "ST,+00012.34  GN".
func parseANDFrame(m *Model, status statusMap, line string, now time.Time) (Reading, error) {
	if len(line) < 2 {
		return Reading{}, &ParseError{Line: line, Reason: "frame too short"}
	}

	code := line[0:2]
	state, ok := status[code]
	if !ok {
		return Reading{}, &ParseError{Line: line, Reason: fmt.Sprintf("unknown status code %q", code)}
	}

	reading := Reading{
		Status:    state,
		Timestamp: now,
	}

	// Only stable/unstable frames carry a weight. Everything else (overload,
	// error, acknowledge, model/serial number) is a pure status frame.
	if state != StatusStable && state != StatusUnstable {
		return reading, nil
	}

	if len(line) < 15 {
		return Reading{}, &ParseError{Line: line, Reason: "weight frame too short"}
	}

	weight, err := decimal.NewFromString(strings.TrimSpace(line[3:12]))
	if err != nil {
		return Reading{}, &ParseError{Line: line, Reason: "invalid weight field"}
	}

	unitCode := strings.TrimSpace(line[12:15])
	unit, ok := m.UnitMap[unitCode]
	if !ok {
		return Reading{}, &ParseError{Line: line, Reason: fmt.Sprintf("unknown unit code %q", unitCode)}
	}

	reading.Weight = weight
	reading.Unit = unit
	reading.Resolution = m.ResolutionMap[unit]
	reading.Stable = state == StatusStable
	return reading, nil
}

// parseSignFrame builds a parser for the sign-prefixed protocols used by the
// Creedmoor and U.S. Solid scales: a signed weight field followed by a unit
// code at a fixed offset, e.g. "+00012.34 GN". These protocols have no
// status field; stability is inferred from consecutive readings.
func parseSignFrame(weightEnd, unitStart, unitEnd int) func(*Model, statusMap, string, time.Time) (Reading, error) {
	return func(m *Model, status statusMap, line string, now time.Time) (Reading, error) {
		if len(line) < unitEnd {
			return Reading{}, &ParseError{Line: line, Reason: "frame too short"}
		}

		sign := line[0:1]
		state, ok := status[sign]
		if !ok {
			return Reading{}, &ParseError{Line: line, Reason: fmt.Sprintf("unknown frame prefix %q", sign)}
		}

		weightField := strings.ReplaceAll(line[0:weightEnd], " ", "")
		weight, err := decimal.NewFromString(weightField)
		if err != nil {
			return Reading{}, &ParseError{Line: line, Reason: "invalid weight field"}
		}

		unitCode := strings.TrimSpace(line[unitStart:unitEnd])
		unit, ok := m.UnitMap[unitCode]
		if !ok {
			return Reading{}, &ParseError{Line: line, Reason: fmt.Sprintf("unknown unit code %q", unitCode)}
		}

		return Reading{
			Weight:     weight,
			Unit:       unit,
			Resolution: m.ResolutionMap[unit],
			Stable:     false,
			Status:     state,
			Timestamp:  now,
		}, nil
	}
}
