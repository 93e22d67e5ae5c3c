package world

import (
	"fmt"
	"strings"

	"isocity.dev/internal/protocol"
	"isocity.dev/internal/sim/world/kernel/model"
	"isocity.dev/internal/sim/world/logic/placement"
)

const subwayTileCost = 25

// CommandResult mirrors placement results at the API edge. Changed=false
// always carries a reason code.
type CommandResult struct {
	Changed bool          `json:"changed"`
	Code    string        `json:"code,omitempty"`
	Message string        `json:"message,omitempty"`
	Cost    float64       `json:"cost,omitempty"`
	Origin  model.Point   `json:"origin"`
	Blocked []model.Point `json:"blocked,omitempty"`
	// Tick the command was applied at; zero for direct Apply calls.
	Tick uint64 `json:"tick"`
}

// Msg converts r into the wire reply for command id.
func (r CommandResult) Msg(id string) protocol.CommandResultMsg {
	return protocol.CommandResultMsg{
		Type:            protocol.TypeCommandResult,
		ProtocolVersion: protocol.Version,
		ID:              id,
		Tick:            r.Tick,
		Changed:         r.Changed,
		Code:            r.Code,
		Message:         r.Message,
		Cost:            r.Cost,
	}
}

func reject(code, format string, args ...any) CommandResult {
	return CommandResult{Code: code, Message: fmt.Sprintf(format, args...)}
}

func fromPlacement(r placement.Result) CommandResult {
	out := CommandResult{Changed: r.Changed, Code: r.Code, Cost: r.Cost, Origin: r.Origin, Blocked: r.Blocked}
	if !r.Changed && len(r.Blocked) > 0 {
		out.Message = fmt.Sprintf("%d tiles blocked", len(r.Blocked))
	}
	return out
}

// Apply executes one command immediately. It must run on the loop goroutine
// (or with the loop stopped); Run and StepOnce call it at tick boundaries.
func (w *World) Apply(cmd protocol.CommandMsg) CommandResult {
	op := strings.ToUpper(strings.TrimSpace(cmd.Op))
	switch op {
	case protocol.OpPlace, protocol.OpBulldoze, protocol.OpZone, protocol.OpSubway, protocol.OpReportCrime:
		if !w.grid.InBounds(cmd.X, cmd.Y) {
			return reject(protocol.ErrOutOfBounds, "(%d,%d) outside %dx%d map", cmd.X, cmd.Y, w.cfg.Size, w.cfg.Size)
		}
	}

	switch op {
	case protocol.OpPlace:
		return w.applyPlace(cmd)
	case protocol.OpBulldoze:
		return fromPlacement(placement.Bulldoze(w.grid, cmd.X, cmd.Y))
	case protocol.OpZone:
		z, ok := model.ParseZone(strings.ToLower(cmd.Zone))
		if !ok {
			return reject(protocol.ErrBadRequest, "unknown zone %q", cmd.Zone)
		}
		return fromPlacement(placement.Zone(w.grid, cmd.X, cmd.Y, z))
	case protocol.OpSubway:
		if cmd.Enabled && w.econ.Money < subwayTileCost {
			return reject(protocol.ErrNoResource, "subway costs %d", subwayTileCost)
		}
		r := fromPlacement(placement.Subway(w.grid, cmd.X, cmd.Y, cmd.Enabled))
		if r.Changed && cmd.Enabled {
			r.Cost = subwayTileCost
			w.econ.Money -= subwayTileCost
		}
		return r
	case protocol.OpSetTax:
		if cmd.Value < 0 || cmd.Value > 100 {
			return reject(protocol.ErrBadRequest, "tax rate must be within [0,100]")
		}
		if w.econ.TaxRate == cmd.Value {
			return reject(protocol.ErrNoop, "tax already %.1f", cmd.Value)
		}
		w.econ.SetTax(cmd.Value)
		return CommandResult{Changed: true}
	case protocol.OpSetBudget:
		if cmd.Value < 0 || cmd.Value > 100 {
			return reject(protocol.ErrBadRequest, "funding must be within [0,100]")
		}
		if !w.econ.SetFunding(strings.ToLower(cmd.Category), cmd.Value) {
			return reject(protocol.ErrBadRequest, "unknown budget category %q", cmd.Category)
		}
		return CommandResult{Changed: true}
	case protocol.OpSetDisasters:
		if w.disasters == cmd.Enabled {
			return reject(protocol.ErrNoop, "disasters already %v", cmd.Enabled)
		}
		w.disasters = cmd.Enabled
		return CommandResult{Changed: true}
	case protocol.OpReportCrime:
		p := model.Point{X: cmd.X, Y: cmd.Y}
		if t := w.grid.At(cmd.X, cmd.Y); t.IsWater() {
			return reject(protocol.ErrInvalidTarget, "cannot report a crime on water")
		}
		if !w.dispatch.ReportCrime(p, cmd.Duration) {
			return reject(protocol.ErrNoop, "incident already open at (%d,%d)", cmd.X, cmd.Y)
		}
		return CommandResult{Changed: true, Origin: p}
	}
	return reject(protocol.ErrBadRequest, "unknown op %q", cmd.Op)
}

func (w *World) applyPlace(cmd protocol.CommandMsg) CommandResult {
	kind := strings.ToLower(strings.TrimSpace(cmd.Kind))
	if def, ok := w.buildings().Get(kind); ok && def.Cost > w.econ.Money {
		return reject(protocol.ErrNoResource, "%s costs %.0f, treasury has %.0f", kind, def.Cost, w.econ.Money)
	}
	r := fromPlacement(placement.Place(w.grid, w.buildings(), cmd.X, cmd.Y, kind))
	if r.Changed {
		w.econ.Money -= r.Cost
	}
	return r
}
