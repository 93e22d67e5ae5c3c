package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"isocity.dev/internal/persistence/snapshot"
	"isocity.dev/internal/protocol"
	"isocity.dev/internal/sim/world"
	"isocity.dev/internal/sim/world/feature/diagnose"
)

// httpAPI serves the read-only HTTP surface next to /v1/ws. All world
// access goes through Inspect so it lands between ticks.
type httpAPI struct {
	w      *world.World
	log    *log.Logger
	idx    runtimeIndex
	snapCh chan<- snapshot.SnapshotV1
}

func (a *httpAPI) register(mux *http.ServeMux, enableAdmin bool) {
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", a.handleMetrics)
	mux.HandleFunc("/v1/state", a.handleState)
	mux.HandleFunc("/v1/why", a.handleWhy)
	if enableAdmin {
		mux.HandleFunc("/admin/v1/snapshot", a.handleAdminSnapshot)
	} else if a.log != nil {
		a.log.Printf("admin endpoints disabled (ISOCITY_ENABLE_ADMIN_HTTP=false)")
	}
}

func (a *httpAPI) handleState(rw http.ResponseWriter, r *http.Request) {
	withTiles := r.URL.Query().Get("tiles") == "1"
	withLayers := r.URL.Query().Get("layers") == "1"
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var view world.StateView
	err := a.w.Inspect(ctx, func(w *world.World) {
		view = w.View(withTiles)
		if withLayers {
			l := w.MapLayers()
			view.Layers = &l
		}
	})
	if err != nil {
		writeError(rw, http.StatusServiceUnavailable, protocol.ErrWorldBusy, err.Error())
		return
	}
	writeJSON(rw, http.StatusOK, view)
}

func (a *httpAPI) handleWhy(rw http.ResponseWriter, r *http.Request) {
	x, errX := strconv.Atoi(r.URL.Query().Get("x"))
	y, errY := strconv.Atoi(r.URL.Query().Get("y"))
	if errX != nil || errY != nil {
		writeError(rw, http.StatusBadRequest, protocol.ErrBadRequest, "x and y must be integers")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var (
		rep  diagnose.Report
		derr error
	)
	if err := a.w.Inspect(ctx, func(w *world.World) { rep, derr = w.Diagnose(x, y) }); err != nil {
		writeError(rw, http.StatusServiceUnavailable, protocol.ErrWorldBusy, err.Error())
		return
	}
	var oob *world.OutOfBoundsError
	if errors.As(derr, &oob) {
		writeError(rw, http.StatusBadRequest, oob.Code(), oob.Error())
		return
	}
	if derr != nil {
		writeError(rw, http.StatusInternalServerError, protocol.ErrInternal, derr.Error())
		return
	}
	writeJSON(rw, http.StatusOK, rep)
}

func (a *httpAPI) handleMetrics(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
	id := a.w.ID()
	st := a.w.LatestStats()

	// Minimal Prometheus exposition format.
	fmt.Fprintf(rw, "# HELP isocity_tick Last completed tick.\n")
	fmt.Fprintf(rw, "# TYPE isocity_tick gauge\n")
	fmt.Fprintf(rw, "isocity_tick{world=%q} %d\n", id, st.Tick)

	fmt.Fprintf(rw, "# HELP isocity_population Residents.\n")
	fmt.Fprintf(rw, "# TYPE isocity_population gauge\n")
	fmt.Fprintf(rw, "isocity_population{world=%q} %d\n", id, st.Stats.Population)

	fmt.Fprintf(rw, "# HELP isocity_jobs Jobs.\n")
	fmt.Fprintf(rw, "# TYPE isocity_jobs gauge\n")
	fmt.Fprintf(rw, "isocity_jobs{world=%q} %d\n", id, st.Stats.Jobs)

	fmt.Fprintf(rw, "# HELP isocity_money Treasury.\n")
	fmt.Fprintf(rw, "# TYPE isocity_money gauge\n")
	fmt.Fprintf(rw, "isocity_money{world=%q} %.2f\n", id, st.Stats.Money)

	fmt.Fprintf(rw, "# HELP isocity_happiness Happiness (0..100).\n")
	fmt.Fprintf(rw, "# TYPE isocity_happiness gauge\n")
	fmt.Fprintf(rw, "isocity_happiness{world=%q} %.3f\n", id, st.Stats.Happiness)

	fmt.Fprintf(rw, "# HELP isocity_demand Zone demand (-100..100).\n")
	fmt.Fprintf(rw, "# TYPE isocity_demand gauge\n")
	fmt.Fprintf(rw, "isocity_demand{world=%q,zone=%q} %.3f\n", id, "residential", st.Stats.Demand.Residential)
	fmt.Fprintf(rw, "isocity_demand{world=%q,zone=%q} %.3f\n", id, "commercial", st.Stats.Demand.Commercial)
	fmt.Fprintf(rw, "isocity_demand{world=%q,zone=%q} %.3f\n", id, "industrial", st.Stats.Demand.Industrial)

	fmt.Fprintf(rw, "# HELP isocity_burning Tiles on fire.\n")
	fmt.Fprintf(rw, "# TYPE isocity_burning gauge\n")
	fmt.Fprintf(rw, "isocity_burning{world=%q} %d\n", id, st.Stats.Burning)

	if a.idx != nil {
		qs := a.idx.Stats()
		fmt.Fprintf(rw, "# HELP isocity_index_queue_depth Index writer backlog.\n")
		fmt.Fprintf(rw, "# TYPE isocity_index_queue_depth gauge\n")
		fmt.Fprintf(rw, "isocity_index_queue_depth{world=%q} %d\n", id, qs.QueueDepth)
		fmt.Fprintf(rw, "# HELP isocity_index_dropped_total Index requests dropped because the queue was full.\n")
		fmt.Fprintf(rw, "# TYPE isocity_index_dropped_total counter\n")
		fmt.Fprintf(rw, "isocity_index_dropped_total{world=%q,kind=%q} %d\n", id, "tick", qs.DropTickTotal)
		fmt.Fprintf(rw, "isocity_index_dropped_total{world=%q,kind=%q} %d\n", id, "snapshot", qs.DropSnapshotTotal)
	}
}

// handleAdminSnapshot exports the last completed tick to the snapshot writer.
func (a *httpAPI) handleAdminSnapshot(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !isLoopbackRemote(r.RemoteAddr) {
		http.Error(rw, "forbidden", http.StatusForbidden)
		return
	}
	if a.snapCh == nil {
		writeError(rw, http.StatusServiceUnavailable, protocol.ErrWorldBusy, "snapshots disabled")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var (
		snap snapshot.SnapshotV1
		ok   bool
	)
	err := a.w.Inspect(ctx, func(w *world.World) {
		next := w.CurrentTick()
		if next == 0 {
			return
		}
		snap, ok = w.ExportSnapshot(next-1), true
	})
	if err == nil && !ok {
		err = errors.New("no tick completed yet")
	}
	if err == nil {
		select {
		case a.snapCh <- snap:
		case <-ctx.Done():
			err = ctx.Err()
		}
	}
	if err != nil {
		writeJSON(rw, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	writeJSON(rw, http.StatusOK, map[string]any{"ok": true, "tick": snap.Header.Tick})
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}

func writeError(rw http.ResponseWriter, status int, code, message string) {
	writeJSON(rw, status, protocol.ErrorMsg{
		Type:            protocol.TypeError,
		ProtocolVersion: protocol.Version,
		Code:            code,
		Message:         message,
	})
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
