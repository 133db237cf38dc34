package stream

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/tubone24/monte-carlo-3d-app/internal/collision"
	"github.com/tubone24/monte-carlo-3d-app/internal/config"
	"github.com/tubone24/monte-carlo-3d-app/internal/montecarlo"
	"github.com/tubone24/monte-carlo-3d-app/internal/sim"
)

// frameInterval paces both the engine loop and the broadcast rate.
const frameInterval = 33 * time.Millisecond

// Frame is one telemetry snapshot on the wire.
type Frame struct {
	TimeMs int64      `json:"time_ms"`
	Scene  SceneFrame `json:"scene"`
	Blocks BlockFrame `json:"blocks"`
}

// SceneFrame mirrors the falling-ball engine's counters.
type SceneFrame struct {
	TotalBalls  int     `json:"total_balls"`
	InsideBalls int     `json:"inside_balls"`
	PiEstimate  float64 `json:"pi_estimate"`
	ErrorPct    float64 `json:"error_pct"`
	Live        int     `json:"live"`
	Airborne    int     `json:"airborne"`
	Landed      int     `json:"landed"`
	Spawned     uint64  `json:"spawned"`
	Evicted     uint64  `json:"evicted"`
	Anomalies   uint64  `json:"anomalies"`
}

// BlockFrame mirrors the colliding-blocks engine, including block
// kinematics so a remote view can draw the scene.
type BlockFrame struct {
	State      string  `json:"state"`
	MassRatio  float64 `json:"mass_ratio"`
	Count      int     `json:"count"`
	Expected   int     `json:"expected"`
	PiEstimate float64 `json:"pi_estimate"`
	ErrorPct   float64 `json:"error_pct"`
	Energy     float64 `json:"energy"`
	DriftRel   float64 `json:"energy_drift_rel"`
	SimTimeS   float64 `json:"sim_time_s"`
	Anomalies  uint64  `json:"anomalies"`
	XP         float64 `json:"xp"`
	VP         float64 `json:"vp"`
	XQ         float64 `json:"xq"`
	VQ         float64 `json:"vq"`
}

func makeFrame(nowMs int64, sc montecarlo.Stats, bl collision.Stats) Frame {
	return Frame{
		TimeMs: nowMs,
		Scene: SceneFrame{
			TotalBalls:  sc.TotalBalls,
			InsideBalls: sc.InsideBalls,
			PiEstimate:  sc.PiEstimate,
			ErrorPct:    sc.ErrorPct,
			Live:        sc.Live,
			Airborne:    sc.Airborne,
			Landed:      sc.Landed,
			Spawned:     sc.Spawned,
			Evicted:     sc.Evicted,
			Anomalies:   sc.Anomalies,
		},
		Blocks: BlockFrame{
			State:      bl.State.String(),
			MassRatio:  bl.MassRatio,
			Count:      bl.Count,
			Expected:   bl.Expected,
			PiEstimate: bl.PiEstimate,
			ErrorPct:   bl.ErrorPct,
			Energy:     bl.Energy,
			DriftRel:   bl.EnergyDriftRel,
			SimTimeS:   bl.SimTimeS,
			Anomalies:  bl.Anomalies,
			XP:         bl.XP,
			VP:         bl.VP,
			XQ:         bl.XQ,
			VQ:         bl.VQ,
		},
	}
}

// engines runs both lab engines in lockstep as one sim.System.
type engines struct {
	scene  *montecarlo.Simulation
	blocks *collision.Simulator
}

func (e *engines) Step(dtMs float64) {
	e.scene.Step(dtMs)
	e.blocks.Step(dtMs)
}

func (e *engines) Reset() {
	e.scene.Reset()
	e.blocks.Reset()
}

// Server runs the lab headless in real time and publishes frames.
type Server struct {
	cfg *config.Config
	hub *Hub

	mu   sync.RWMutex
	last Frame
}

func NewServer(cfg *config.Config) *Server {
	return &Server{cfg: cfg, hub: NewHub()}
}

// Hub exposes the server's hub, for tests and embedding.
func (s *Server) Hub() *Hub { return s.hub }

// OnTick snapshots both engines after each step and broadcasts. It runs
// on the engine goroutine, the only one allowed to touch them.
func (s *Server) onTick(e *engines, nowMs int64) {
	f := makeFrame(nowMs, e.scene.Stats(), e.blocks.Stats())
	s.mu.Lock()
	s.last = f
	s.mu.Unlock()
	s.hub.Broadcast(f)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	f := s.last
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(f)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":   "ok",
		"watchers": s.hub.Count(),
		"dropped":  s.hub.Dropped(),
	})
}

// Run starts the engines and the HTTP listener, and blocks until ctx is
// canceled or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	clock := sim.NewRealClock()
	env := s.cfg.Atmosphere
	e := &engines{scene: montecarlo.New(s.cfg.Scene, &env, clock)}

	blocks, err := collision.New(s.cfg.Collision)
	if err != nil {
		return err
	}
	if err := blocks.Start(); err != nil {
		return err
	}
	e.blocks = blocks

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.hub.ServeWS)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/healthz", s.handleHealth)

	httpSrv := &http.Server{Addr: s.cfg.Addr, Handler: mux}

	loopCtx, cancelLoop := context.WithCancel(ctx)
	defer cancelLoop()

	runner := sim.NewRunner(e, clock)
	runner.AddObserver(observerFunc(func(nowMs int64, dtMs float64) {
		s.onTick(e, nowMs)
	}))
	go runner.Run(loopCtx, frameInterval, nil)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("stream: listening on %s", s.cfg.Addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		httpSrv.Shutdown(shutCtx)
		s.hub.CloseAll()
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// observerFunc adapts a closure to sim.Observer.
type observerFunc func(nowMs int64, dtMs float64)

func (f observerFunc) OnTick(nowMs int64, dtMs float64) { f(nowMs, dtMs) }
