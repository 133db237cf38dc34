package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/guptarohit/asciigraph"

	"github.com/tubone24/monte-carlo-3d-app/internal/audio"
	"github.com/tubone24/monte-carlo-3d-app/internal/collision"
	"github.com/tubone24/monte-carlo-3d-app/internal/config"
	"github.com/tubone24/monte-carlo-3d-app/internal/montecarlo"
	"github.com/tubone24/monte-carlo-3d-app/internal/physics"
	"github.com/tubone24/monte-carlo-3d-app/internal/sim"
)

const (
	width           = 58
	height          = 22
	historyCapacity = 600

	// tickMs is the simulated time per frame. Both engines advance in
	// lockstep with the UI clock, so pausing the UI pauses physics.
	tickMs = 16
)

// ratioSteps are the mass ratios the M key cycles through. Powers of 100
// make the collision count spell out π digits.
var ratioSteps = []float64{1, 100, 1e4, 1e6}

// landedOffset doubles settled balls into two adjacent dots.
var landedOffset = mgl64.Vec3{0.03, 0, 0}

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(45)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(2)
)

type TickMsg time.Time

// Screen selects which experiment fills the canvas.
type Screen int

const (
	ScreenBoard Screen = iota
	ScreenBlocks
)

// Model drives both engines from one cooperative 60fps tick and renders
// whichever screen is active. Both engines keep running while hidden.
type Model struct {
	cfg    *config.Config
	clock  *sim.ManualClock
	scene  *montecarlo.Simulation
	blocks *collision.Simulator
	sound  *audio.Engine

	screen Screen
	canvas *Canvas
	camera *Camera
	board  *Wireframe

	running  bool
	showHelp bool
	frame    int

	piHistory    []float64
	blockHistory []float64
	liveHistory  []float64

	prevScene  montecarlo.Stats
	prevBlocks collision.Stats

	ratioIdx     int
	termW, termH int
}

// NewModel wires both engines to a shared manual clock. The config must
// already be validated.
func NewModel(cfg *config.Config, snd *audio.Engine) (Model, error) {
	clock := sim.NewManualClock()
	env := cfg.Atmosphere
	scene := montecarlo.New(cfg.Scene, &env, clock)

	blocks, err := collision.New(cfg.Collision)
	if err != nil {
		return Model{}, err
	}
	if err := blocks.Start(); err != nil {
		return Model{}, err
	}

	ratioIdx := 1
	for i, r := range ratioSteps {
		if r == cfg.Collision.MassRatio {
			ratioIdx = i
		}
	}

	SetTheme(cfg.Theme)

	m := Model{
		cfg:          cfg,
		clock:        clock,
		scene:        scene,
		blocks:       blocks,
		sound:        snd,
		screen:       ScreenBoard,
		canvas:       NewCanvas(width, height),
		camera:       NewCamera(),
		board:        BoardWireframe(scene.CircleRadius(), 48),
		running:      true,
		ratioIdx:     ratioIdx,
		piHistory:    make([]float64, 0, historyCapacity),
		blockHistory: make([]float64, 0, historyCapacity),
		liveHistory:  make([]float64, 0, historyCapacity),
	}
	m.prevScene = scene.Stats()
	m.prevBlocks = blocks.Stats()
	return m, nil
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Update handles input events and steps the engines.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.sound.Close()
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "tab":
			if m.screen == ScreenBoard {
				m.screen = ScreenBlocks
			} else {
				m.screen = ScreenBoard
			}
		case "up", "k":
			m.scene.SetBatchSize(m.scene.BatchSize() + 5)
		case "down", "j":
			m.scene.SetBatchSize(m.scene.BatchSize() - 5)
		case "m":
			m.cycleRatio()
		case "t":
			NextTheme()
		case "s":
			m.sound.Toggle()
		case "?":
			m.showHelp = !m.showHelp
		case "x":
			m.camera.RotateX(0.1)
		case "X":
			m.camera.RotateX(-0.1)
		case "y":
			m.camera.RotateY(0.1)
		case "Y":
			m.camera.RotateY(-0.1)
		case "z":
			m.camera.RotateZ(0.1)
		case "Z":
			m.camera.RotateZ(-0.1)
		case "+", "=":
			m.camera.ZoomIn()
		case "-", "_":
			m.camera.ZoomOut()
		}
	case TickMsg:
		if m.running {
			m.step()
		}
		m.frame++
		m.draw()
		return m, tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
	case tea.WindowSizeMsg:
		m.termW, m.termH = msg.Width, msg.Height
	}
	return m, nil
}

// step advances both engines one frame and folds the results into the
// chart histories and the soundtrack.
func (m *Model) step() {
	m.clock.Advance(tickMs)
	m.scene.Step(tickMs)
	m.blocks.Step(tickMs)

	st := m.scene.Stats()
	bst := m.blocks.Stats()

	m.piHistory = append(m.piHistory, st.PiEstimate)
	if len(m.piHistory) > historyCapacity {
		m.piHistory = m.piHistory[1:]
	}
	if bst.State == collision.Running || len(m.blockHistory) == 0 {
		m.blockHistory = append(m.blockHistory, bst.PiEstimate)
		if len(m.blockHistory) > historyCapacity {
			m.blockHistory = m.blockHistory[1:]
		}
	}
	m.liveHistory = append(m.liveHistory, float64(st.Live))
	if len(m.liveHistory) > historyCapacity {
		m.liveHistory = m.liveHistory[1:]
	}

	m.playSounds(st, bst)
	m.prevScene, m.prevBlocks = st, bst
}

func (m *Model) playSounds(st montecarlo.Stats, bst collision.Stats) {
	for _, ev := range m.blocks.Events() {
		if ev.Kind == collision.BlockBlock {
			m.sound.Click(ev.Count)
		} else {
			m.sound.Thud(math.Abs(bst.VQ))
		}
	}
	if st.TotalBalls > m.prevScene.TotalBalls {
		m.sound.Chime(st.InsideBalls > m.prevScene.InsideBalls)
	}
	if st.Anomalies > m.prevScene.Anomalies || bst.Anomalies > m.prevBlocks.Anomalies {
		m.sound.Buzz()
	}
}

func (m *Model) cycleRatio() {
	m.ratioIdx = (m.ratioIdx + 1) % len(ratioSteps)
	if err := m.blocks.SetMassRatio(ratioSteps[m.ratioIdx]); err != nil {
		return
	}
	_ = m.blocks.Start()
	m.blockHistory = m.blockHistory[:0]
	m.prevBlocks = m.blocks.Stats()
}

// reset replays both experiments from their seeds.
func (m *Model) reset() {
	m.scene.Reset()
	m.blocks.Reset()
	_ = m.blocks.Start()
	m.piHistory = m.piHistory[:0]
	m.blockHistory = m.blockHistory[:0]
	m.liveHistory = m.liveHistory[:0]
	m.prevScene = m.scene.Stats()
	m.prevBlocks = m.blocks.Stats()
}

func (m *Model) draw() {
	m.canvas.Clear()
	switch m.screen {
	case ScreenBoard:
		m.drawBoard()
	case ScreenBlocks:
		m.drawBlocks()
	}
}

// drawBoard renders the landing board and every live ball through the
// orbit camera. Landed balls get a second dot so they read heavier.
func (m *Model) drawBoard() {
	frame := NewWireframe()
	frame.Edges = append(frame.Edges, m.board.Edges...)
	m.scene.ForEach(func(id uint64, b *physics.Ball, inside bool) {
		frame.AddPoint(b.Pos)
		if b.Landed {
			frame.AddPoint(b.Pos.Add(landedOffset))
		}
	})
	Render3D(m.canvas, frame, m.camera)
}

// drawBlocks renders the 1D track side-on: hatched wall at x=0, floor,
// and the two blocks with the heavy one drawn taller.
func (m *Model) drawBlocks() {
	cw, ch := width*2, height*4
	st := m.blocks.Stats()

	const worldSpan = 9.0
	pad := 6
	scale := float64(cw-2*pad) / worldSpan
	toX := func(x float64) int { return pad + int(x*scale) }

	groundY := ch - 8
	wallX := toX(collision.WallX)

	m.canvas.DrawLine(0, groundY, cw-1, groundY)
	m.canvas.DrawLine(wallX, 4, wallX, groundY)
	for y := 8; y < groundY; y += 6 {
		m.canvas.DrawLine(wallX-4, y+4, wallX, y)
	}

	qh := 10
	ph := 14 + 2*int(math.Log10(st.MassRatio))
	m.canvas.FillRect(toX(st.XQ-collision.QRadius), groundY-qh, toX(st.XQ+collision.QRadius), groundY-1)
	m.canvas.FillRect(toX(st.XP-collision.PRadius), groundY-ph, toX(st.XP+collision.PRadius), groundY-1)
}

// View renders the active screen next to its stats pane.
func (m Model) View() string {
	m.draw()
	canvasView := canvasStyle.Render(m.canvas.String())

	var stats string
	switch m.screen {
	case ScreenBoard:
		stats = m.boardStats()
	case ScreenBlocks:
		stats = m.blockStats()
	}
	statsView := statsStyle.Render(stats)
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)

	if m.showHelp {
		return helpOverlay + "\n\n" + mainView
	}
	return mainView
}

func (m Model) statusLine(extra string) string {
	if !m.running {
		return StatusStyle(false).Render("PAUSED")
	}
	if extra != "" {
		return extra
	}
	return StatusStyle(true).Render("RUNNING " + AnimatedSpinner(m.frame/6))
}

func (m Model) boardStats() string {
	st := m.scene.Stats()
	env := m.scene.Conditions()

	var s strings.Builder
	s.WriteString(TitleStyle().Render("MONTE CARLO BOARD") + "\n")
	s.WriteString(m.statusLine("") + "\n")

	if len(m.piHistory) > 1 {
		chart := asciigraph.Plot(m.piHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("π estimate"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	s.WriteString("\n")

	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("π̂", fmt.Sprintf("%.6f", st.PiEstimate))
	row("error", fmt.Sprintf("%+.4f%%", st.ErrorPct))
	row("landed", fmt.Sprintf("%d (%d inside)", st.TotalBalls, st.InsideBalls))
	row("live", fmt.Sprintf("%d (%d airborne)", st.Live, st.Airborne))
	row("spawned", fmt.Sprintf("%d", st.Spawned))
	row("evicted", fmt.Sprintf("%d", st.Evicted))
	if st.Anomalies > 0 {
		s.WriteString(labelStyle.Render("anomalies") + WarnStyle().Render(fmt.Sprintf("%d", st.Anomalies)) + "\n")
	}
	row("batch", fmt.Sprintf("%-4d %s", m.scene.BatchSize(), ProgressBar(float64(m.scene.BatchSize())/500.0, 10)))
	if len(m.liveHistory) > 1 {
		s.WriteString(labelStyle.Render("arena") + SparklineChart(m.liveHistory, 24) + "\n")
	}

	s.WriteString("\n" + MutedStyle().Render("CONDITIONS") + "\n")
	row("wind", fmt.Sprintf("%.1f %.1f %.1f m/s", env.WindX, env.WindY, env.WindZ))
	row("temp", fmt.Sprintf("%.1f °C", env.TemperatureC))
	row("pressure", fmt.Sprintf("%.1f hPa", env.PressureHPa))
	row("humidity", fmt.Sprintf("%.0f %%", env.HumidityPct))
	row("turbulence", fmt.Sprintf("%.2f", env.Turbulence))
	row("air ρ", fmt.Sprintf("%.4f kg/m³", env.AirDensity()))

	s.WriteString("\n")
	row("theme", CurrentTheme.Name)
	row("sound", onOff(m.sound.Enabled()))

	s.WriteString(Separator(28))
	s.WriteString(helpStyle.Render("SP:Pause R:Reset Tab:Blocks Q:Quit\n↑↓:Batch X/Y/Z:Orbit +/-:Zoom\nT:Theme S:Sound ?:Help"))
	return s.String()
}

func (m Model) blockStats() string {
	st := m.blocks.Stats()

	var s strings.Builder
	s.WriteString(TitleStyle().Render("COLLIDING BLOCKS") + "\n")

	var extra string
	switch st.State {
	case collision.Complete:
		extra = AccentStyle().Render("COMPLETE")
	case collision.Stopped:
		extra = StatusStyle(false).Render("STOPPED")
	case collision.Idle:
		extra = MutedStyle().Render("IDLE")
	}
	s.WriteString(m.statusLine(extra) + "\n\n")

	s.WriteString(AccentStyle().Render(fmt.Sprintf("%8d", st.Count)))
	s.WriteString(MutedStyle().Render(fmt.Sprintf("  / %d expected", st.Expected)) + "\n")
	progress := 0.0
	if st.Expected > 0 {
		progress = float64(st.Count) / float64(st.Expected)
	}
	s.WriteString("        " + ProgressBar(progress, 24) + "\n")

	if len(m.blockHistory) > 1 {
		chart := asciigraph.Plot(m.blockHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("π from clicks"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	s.WriteString("\n")

	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("mass ratio", formatRatio(st.MassRatio))
	row("π̂", fmt.Sprintf("%.6f", st.PiEstimate))
	row("error", fmt.Sprintf("%+.4f%%", st.ErrorPct))
	row("energy", fmt.Sprintf("%.6f J", st.Energy))
	if st.EnergyDriftRel > 1e-6 {
		s.WriteString(labelStyle.Render("drift") + WarnStyle().Render(fmt.Sprintf("%.2e", st.EnergyDriftRel)) + "\n")
	} else {
		row("drift", fmt.Sprintf("%.2e", st.EnergyDriftRel))
	}
	row("sim time", fmt.Sprintf("%.3f s", st.SimTimeS))
	row("positions", fmt.Sprintf("P %.2f  Q %.2f", st.XP, st.XQ))
	row("speeds", fmt.Sprintf("P %.2f  Q %.2f", st.VP, st.VQ))
	if st.Anomalies > 0 {
		s.WriteString(labelStyle.Render("anomalies") + WarnStyle().Render(fmt.Sprintf("%d", st.Anomalies)) + "\n")
	}

	s.WriteString("\n")
	row("theme", CurrentTheme.Name)
	row("sound", onOff(m.sound.Enabled()))

	s.WriteString(Separator(28))
	s.WriteString(helpStyle.Render("SP:Pause R:Reset Tab:Board Q:Quit\nM:Mass-Ratio T:Theme S:Sound ?:Help"))
	return s.String()
}

func formatRatio(r float64) string {
	if r >= 100 {
		exp := math.Log10(r)
		if exp == math.Trunc(exp) {
			return fmt.Sprintf("10^%d : 1", int(exp))
		}
	}
	return fmt.Sprintf("%g : 1", r)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

const helpOverlay = `
╔═══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS           ║
╠═══════════════════════════════════════╣
║  Space    - Pause/Resume both runs    ║
║  R        - Reset and replay seeds    ║
║  Tab      - Board / Blocks screen     ║
║  Up/Down  - Batch size ±5             ║
║  M        - Cycle mass ratio          ║
║  X/Y/Z    - Orbit camera (shift back) ║
║  + / -    - Zoom                      ║
║  T        - Cycle themes              ║
║  S        - Toggle sound              ║
║  ?        - Toggle this help          ║
║  Q        - Quit                      ║
╚═══════════════════════════════════════╝`

// RunLive starts the live TUI against a validated config.
func RunLive(cfg *config.Config) error {
	snd := audio.NewEngine(cfg.Sound)
	if err := snd.Init(); err != nil {
		return err
	}
	m, err := NewModel(cfg, snd)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
