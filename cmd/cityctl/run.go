package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"isocity.dev/internal/protocol"
	"isocity.dev/internal/sim/world"
	"isocity.dev/internal/sim/world/kernel/model"
)

// scriptStep queues commands for one tick. A script file is a YAML list of
// steps; see configs/scripts/starter.yaml.
type scriptStep struct {
	Tick     uint64          `yaml:"tick"`
	Commands []scriptCommand `yaml:"commands"`
}

type scriptCommand struct {
	Op       string  `yaml:"op"`
	X        int     `yaml:"x"`
	Y        int     `yaml:"y"`
	Kind     string  `yaml:"kind"`
	Zone     string  `yaml:"zone"`
	Category string  `yaml:"category"`
	Value    float64 `yaml:"value"`
	Enabled  bool    `yaml:"enabled"`
	Duration int     `yaml:"duration"`
}

type script map[uint64][]protocol.CommandMsg

func parseScript(raw []byte) (script, error) {
	var steps []scriptStep
	if err := yaml.Unmarshal(raw, &steps); err != nil {
		return nil, fmt.Errorf("script: %w", err)
	}
	out := script{}
	n := 0
	for _, st := range steps {
		for _, c := range st.Commands {
			if c.Op == "" {
				return nil, fmt.Errorf("script: tick %d: command without op", st.Tick)
			}
			n++
			out[st.Tick] = append(out[st.Tick], protocol.CommandMsg{
				Type:            protocol.TypeCommand,
				ProtocolVersion: protocol.Version,
				ID:              "script_" + strconv.Itoa(n),
				Op:              c.Op,
				X:               c.X,
				Y:               c.Y,
				Kind:            c.Kind,
				Zone:            c.Zone,
				Category:        c.Category,
				Value:           c.Value,
				Enabled:         c.Enabled,
				Duration:        c.Duration,
			})
		}
	}
	return out, nil
}

func loadScript(path string) (script, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseScript(raw)
}

// runTicks steps w n times, feeding script commands at their ticks. It
// returns the last stepped tick and its digest.
func runTicks(w *world.World, sc script, n int, each func(tick uint64, digest string)) (last uint64, digest string) {
	for i := 0; i < n; i++ {
		next := w.CurrentTick()
		last, digest = w.StepOnce(sc[next])
		if each != nil {
			each(last, digest)
		}
	}
	return last, digest
}

func printStats(out io.Writer, tick uint64, digest string, w *world.World) {
	st := w.Stats()
	short := digest
	if len(short) > 12 {
		short = short[:12]
	}
	fmt.Fprintf(out, "tick=%d y%d/m%d pop=%d jobs=%d money=%.0f happy=%.1f demand=R%.0f/C%.0f/I%.0f burning=%d digest=%s\n",
		tick, st.Year, st.Month, st.Population, st.Jobs, st.Money, st.Happiness,
		st.Demand.Residential, st.Demand.Commercial, st.Demand.Industrial, st.Burning, short)
}

func tileGlyph(t world.TileView) byte {
	switch {
	case t.OnFire:
		return '!'
	case t.Kind == model.KindWater:
		return '~'
	case t.Kind == model.KindTree:
		return 'T'
	case t.Kind == model.KindRoad:
		return '#'
	case t.Kind == model.KindGrass:
		switch t.Zone {
		case model.ZoneResidential:
			return 'r'
		case model.ZoneCommercial:
			return 'c'
		case model.ZoneIndustrial:
			return 'i'
		}
		return '.'
	}
	switch t.Zone {
	case model.ZoneResidential:
		return 'R'
	case model.ZoneCommercial:
		return 'C'
	case model.ZoneIndustrial:
		return 'I'
	}
	return '*'
}

func renderMap(out io.Writer, size int, tiles []world.TileView) {
	row := make([]byte, size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			row[x] = tileGlyph(tiles[y*size+x])
		}
		fmt.Fprintln(out, string(row))
	}
}

func parseXY(args []string) (int, int, error) {
	x, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, fmt.Errorf("x: %w", err)
	}
	y, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, fmt.Errorf("y: %w", err)
	}
	return x, y, nil
}
