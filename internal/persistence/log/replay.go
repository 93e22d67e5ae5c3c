package log

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"

	"isocity.dev/internal/protocol"
	"isocity.dev/internal/sim/world"
)

// EventFiles lists events-*.jsonl.zst in dir in chronological order.
func EventFiles(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "events-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

// ForEachTick decodes every entry of one event file. Returning errStop from
// fn ends the scan without an error.
func ForEachTick(path string, fn func(world.TickLogEntry) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	for sc.Scan() {
		var entry world.TickLogEntry
		if err := json.Unmarshal(sc.Bytes(), &entry); err != nil {
			return fmt.Errorf("%s: unmarshal: %w", filepath.Base(path), err)
		}
		if err := fn(entry); err != nil {
			if errors.Is(err, errStop) {
				return nil
			}
			return err
		}
	}
	return sc.Err()
}

var errStop = errors.New("stop")

// Replay re-applies the logged commands of eventsDir to w, one StepOnce per
// entry, and compares the resulting digests from verifyFrom on. Entries
// before w's current tick are skipped; toTick of 0 means no upper bound.
func Replay(w *world.World, eventsDir string, verifyFrom, toTick uint64) (checked uint64, err error) {
	files, err := EventFiles(eventsDir)
	if err != nil {
		return 0, err
	}
	if len(files) == 0 {
		return 0, fmt.Errorf("no events files found in %s", eventsDir)
	}
	startTick := w.CurrentTick()
	for _, path := range files {
		err := ForEachTick(path, func(entry world.TickLogEntry) error {
			if entry.Tick < startTick {
				return nil
			}
			if toTick != 0 && entry.Tick > toTick {
				return errStop
			}
			if entry.Tick != w.CurrentTick() {
				return fmt.Errorf("tick gap: want=%d got=%d (file=%s)", w.CurrentTick(), entry.Tick, filepath.Base(path))
			}
			cmds := make([]protocol.CommandMsg, 0, len(entry.Commands))
			for _, rc := range entry.Commands {
				cmds = append(cmds, rc.Cmd)
			}
			tick, got := w.StepOnce(cmds)
			if tick >= verifyFrom {
				checked++
				if got != entry.Digest {
					return fmt.Errorf("digest mismatch at tick %d: got=%s want=%s", tick, got, entry.Digest)
				}
			}
			return nil
		})
		if err != nil {
			return checked, err
		}
		if toTick != 0 && w.CurrentTick() > toTick {
			break
		}
	}
	return checked, nil
}
