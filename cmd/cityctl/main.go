package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	persistlog "isocity.dev/internal/persistence/log"
	"isocity.dev/internal/persistence/snapshot"
	"isocity.dev/internal/sim/catalogs"
	"isocity.dev/internal/sim/tuning"
	"isocity.dev/internal/sim/world"
)

var logger = log.New(os.Stderr, "[cityctl] ", log.LstdFlags|log.Lmicroseconds)

// globalOpts are the flags shared by every subcommand.
type globalOpts struct {
	configDir  string
	tuningPath string
	seed       int64
	size       int
	worldID    string
}

func main() {
	var g globalOpts
	rootCmd := &cobra.Command{
		Use:          "cityctl",
		Short:        "Offline tools for the isocity simulation",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&g.configDir, "configs", "./configs", "config directory (buildings.json, tuning.yaml)")
	rootCmd.PersistentFlags().StringVar(&g.tuningPath, "tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
	rootCmd.PersistentFlags().Int64Var(&g.seed, "seed", 1337, "world seed")
	rootCmd.PersistentFlags().IntVar(&g.size, "size", 0, "map size override (0 keeps the tuning value)")
	rootCmd.PersistentFlags().StringVar(&g.worldID, "world", "", "world id (default: a fresh run id)")

	rootCmd.AddCommand(genCmd(&g))
	rootCmd.AddCommand(runCmd(&g))
	rootCmd.AddCommand(whyCmd(&g))
	rootCmd.AddCommand(inspectCmd())
	rootCmd.AddCommand(replayCmd(&g))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// load reads the catalog and tuning named by g. A missing tuning file falls
// back to defaults; a malformed one is an error.
func (g *globalOpts) load() (*catalogs.Catalogs, tuning.Tuning, error) {
	cats, err := catalogs.Load(g.configDir)
	if err != nil {
		return nil, tuning.Tuning{}, fmt.Errorf("load catalogs: %w", err)
	}
	tp := g.tuningPath
	if tp == "" {
		tp = filepath.Join(g.configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, tuning.Tuning{}, fmt.Errorf("load tuning: %w", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}
	return cats, tune, nil
}

func (g *globalOpts) newWorld() (*world.World, error) {
	cats, tune, err := g.load()
	if err != nil {
		return nil, err
	}
	id := g.worldID
	if id == "" {
		id = "run_" + uuid.NewString()[:8]
	}
	cfg := world.ConfigFromTuning(id, g.seed, tune)
	if g.size > 0 {
		cfg.Size = g.size
	}
	return world.New(cfg, cats)
}

func genCmd(g *globalOpts) *cobra.Command {
	var showMap bool
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate terrain for a seed and print the map and water bodies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, err := g.newWorld()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			cfg := w.Config()
			fmt.Fprintf(out, "world=%s seed=%d size=%d\n", cfg.ID, cfg.Seed, cfg.Size)
			for _, b := range w.WaterBodies() {
				fmt.Fprintf(out, "%-8s %-24s tiles=%-5d anchor=(%d,%d)\n", b.Kind, b.Name, len(b.Tiles), b.Anchor.X, b.Anchor.Y)
			}
			if showMap {
				renderMap(out, cfg.Size, w.Tiles())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showMap, "map", true, "print the ASCII map")
	return cmd
}

func runCmd(g *globalOpts) *cobra.Command {
	var (
		ticks      int
		scriptPath string
		every      int
		snapOut    string
		showMap    bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the simulation headless for N ticks and print stats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, err := g.newWorld()
			if err != nil {
				return err
			}
			var sc script
			if scriptPath != "" {
				if sc, err = loadScript(scriptPath); err != nil {
					return err
				}
			}
			out := cmd.OutOrStdout()
			last, digest := runTicks(w, sc, ticks, func(tick uint64, digest string) {
				if every > 0 && tick%uint64(every) == 0 {
					printStats(out, tick, digest, w)
				}
			})
			printStats(out, last, digest, w)
			for _, a := range w.Advice() {
				fmt.Fprintf(out, "advice %-8s %s\n", a.Severity, a.Text)
			}
			if showMap {
				renderMap(out, w.Config().Size, w.Tiles())
			}
			if snapOut != "" {
				if err := snapshot.WriteSnapshot(snapOut, w.ExportSnapshot(last)); err != nil {
					return fmt.Errorf("write snapshot: %w", err)
				}
				logger.Printf("wrote %s", snapOut)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&ticks, "ticks", "n", 1000, "ticks to simulate")
	cmd.Flags().StringVar(&scriptPath, "script", "", "YAML command script")
	cmd.Flags().IntVar(&every, "every", 0, "print stats every N ticks (0: only at the end)")
	cmd.Flags().StringVar(&snapOut, "snapshot_out", "", "write a snapshot of the final tick to this path")
	cmd.Flags().BoolVar(&showMap, "map", false, "print the ASCII map at the end")
	return cmd
}

func whyCmd(g *globalOpts) *cobra.Command {
	var (
		ticks      int
		scriptPath string
	)
	cmd := &cobra.Command{
		Use:   "why X Y",
		Short: "Explain why a tile is not developing after running N ticks",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, y, err := parseXY(args)
			if err != nil {
				return err
			}
			w, err := g.newWorld()
			if err != nil {
				return err
			}
			var sc script
			if scriptPath != "" {
				if sc, err = loadScript(scriptPath); err != nil {
					return err
				}
			}
			runTicks(w, sc, ticks, nil)
			rep, err := w.Diagnose(x, y)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "(%d,%d) kind=%s zone=%s origin=(%d,%d)\n", rep.X, rep.Y, rep.Kind, rep.Zone, rep.Origin.X, rep.Origin.Y)
			for _, r := range rep.Reasons {
				fmt.Fprintf(out, "  %-24s %s", r.Code, r.Message)
				if len(r.Blocking) > 0 {
					fmt.Fprintf(out, " blocking=%v", r.Blocking)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&ticks, "ticks", "n", 0, "ticks to simulate first")
	cmd.Flags().StringVar(&scriptPath, "script", "", "YAML command script")
	return cmd
}

func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect SNAPSHOT",
		Short: "Print a summary of a snapshot file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := snapshot.ReadSnapshot(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			pop, jobs, burning := 0, 0, 0
			for _, t := range snap.Tiles {
				pop += t.Population
				jobs += t.Jobs
				if t.OnFire {
					burning++
				}
			}
			fmt.Fprintf(out, "snapshot v%d world=%s tick=%d seed=%d size=%d\n",
				snap.Header.Version, snap.Header.WorldID, snap.Header.Tick, snap.Seed, snap.Size)
			fmt.Fprintf(out, "year=%d month=%d money=%.0f tax=%.1f population=%d jobs=%d\n",
				snap.Economy.Year, snap.Economy.Month, snap.Economy.Money, snap.Economy.TaxRate, pop, jobs)
			fmt.Fprintf(out, "water_bodies=%d incidents=%d vehicles=%d burning=%d history=%d disasters=%v\n",
				len(snap.WaterBodies), len(snap.Incidents), len(snap.Vehicles), burning, len(snap.History), snap.DisastersEnabled)
			return nil
		},
	}
}

func replayCmd(g *globalOpts) *cobra.Command {
	var (
		snapPath string
		fromTick uint64
		toTick   uint64
	)
	cmd := &cobra.Command{
		Use:   "replay EVENTS_DIR",
		Short: "Re-run logged commands and verify every tick digest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				w   *world.World
				err error
			)
			if snapPath != "" {
				w, err = worldFromSnapshot(g, snapPath)
			} else {
				w, err = g.newWorld()
			}
			if err != nil {
				return err
			}
			verifyFrom := fromTick
			if verifyFrom == 0 {
				verifyFrom = w.CurrentTick()
			}
			checked, err := persistlog.Replay(w, args[0], verifyFrom, toTick)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "replay ok: checked=%d ticks (next tick=%d)\n", checked, w.CurrentTick())
			return nil
		},
	}
	cmd.Flags().StringVar(&snapPath, "snapshot", "", "start from this snapshot instead of a fresh world")
	cmd.Flags().Uint64Var(&fromTick, "from_tick", 0, "start verifying from tick (inclusive)")
	cmd.Flags().Uint64Var(&toTick, "to_tick", 0, "stop after tick (inclusive)")
	return cmd
}

func worldFromSnapshot(g *globalOpts, path string) (*world.World, error) {
	cats, tune, err := g.load()
	if err != nil {
		return nil, err
	}
	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		return nil, err
	}
	cfg := world.ConfigFromTuning(snap.Header.WorldID, snap.Seed, tune)
	cfg.Size = snap.Size
	cfg.TickRateHz = snap.TickRate
	cfg.TicksPerMonth = snap.TicksPerMonth
	w, err := world.New(cfg, cats)
	if err != nil {
		return nil, err
	}
	if err := w.ImportSnapshot(snap); err != nil {
		return nil, fmt.Errorf("import snapshot: %w", err)
	}
	return w, nil
}
