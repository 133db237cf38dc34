package viz

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tubone24/monte-carlo-3d-app/internal/audio"
	"github.com/tubone24/monte-carlo-3d-app/internal/config"
)

var presetInfo = map[string]string{
	"default":   "calm defaults",
	"classroom": "gentle drip, small arena",
	"hurricane": "18 m/s crosswind storm",
	"highland":  "thin cold mountain air",
	"monsoon":   "hot, humid, gusty",
	"ratio-1e4": "blocks count 314 clicks",
	"ratio-1e6": "blocks count 3141 clicks",
}

const (
	stateMenu = iota
	stateConfig
	stateSim
)

type paramSpec struct {
	name string
	step float64
}

// paramSpecs are the tunables exposed before launch, with the nudge
// applied by h/l. ratio_exp is the base-10 exponent of the mass ratio.
var paramSpecs = []paramSpec{
	{"batch_size", 5},
	{"spawn_every_ms", 50},
	{"drop_height", 0.5},
	{"circle_radius", 0.25},
	{"wind_x", 0.5},
	{"wind_z", 0.5},
	{"turbulence", 0.05},
	{"ratio_exp", 1},
	{"seed", 1},
}

type app struct {
	state, cursor int
	presets       []string
	selected      string
	params        map[string]float64
	paramCursor   int
	editing       bool
	editBuf       string
	width, height int
	live          Model
	sound         *audio.Engine
	err           error
}

func newApp(base *config.Config) *app {
	SetTheme(base.Theme)
	presets := append([]string{"default"}, config.ListPresets()...)
	return &app{
		state:   stateMenu,
		presets: presets,
		sound:   audio.NewEngine(base.Sound),
		width:   80,
		height:  24,
	}
}

func (a app) Init() tea.Cmd { return nil }

func (a app) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKey(msg)
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		if a.state == stateSim {
			newLive, cmd := a.live.Update(msg)
			a.live = newLive.(Model)
			return a, cmd
		}
	default:
		if a.state == stateSim {
			newLive, cmd := a.live.Update(msg)
			a.live = newLive.(Model)
			return a, cmd
		}
	}
	return a, nil
}

func (a app) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.state {
	case stateMenu:
		return a.menuKey(msg)
	case stateConfig:
		return a.configKey(msg)
	case stateSim:
		newLive, cmd := a.live.Update(msg)
		a.live = newLive.(Model)
		return a, cmd
	}
	return a, nil
}

func (a app) menuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.presets)-1 {
			a.cursor++
		}
	case "enter", " ":
		a.selected = a.presets[a.cursor]
		a.state, a.paramCursor = stateConfig, 0
		a.loadParams()
	}
	return a, nil
}

func (a app) configKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.editing {
		switch msg.String() {
		case "enter":
			var val float64
			fmt.Sscanf(a.editBuf, "%f", &val)
			a.params[paramSpecs[a.paramCursor].name] = val
			a.editing, a.editBuf = false, ""
		case "esc":
			a.editing, a.editBuf = false, ""
		case "backspace":
			if len(a.editBuf) > 0 {
				a.editBuf = a.editBuf[:len(a.editBuf)-1]
			}
		default:
			if len(msg.String()) == 1 {
				c := msg.String()[0]
				if (c >= '0' && c <= '9') || c == '.' || c == '-' {
					a.editBuf += string(c)
				}
			}
		}
		return a, nil
	}
	switch msg.String() {
	case "q", "esc":
		a.state, a.err = stateMenu, nil
	case "up", "k":
		if a.paramCursor > 0 {
			a.paramCursor--
		}
	case "down", "j":
		if a.paramCursor < len(paramSpecs)-1 {
			a.paramCursor++
		}
	case "enter":
		a.editing = true
		a.editBuf = fmt.Sprintf("%.2f", a.params[paramSpecs[a.paramCursor].name])
	case "left", "h":
		spec := paramSpecs[a.paramCursor]
		a.params[spec.name] -= spec.step
	case "right", "l":
		spec := paramSpecs[a.paramCursor]
		a.params[spec.name] += spec.step
	case "s":
		return a.start()
	}
	return a, nil
}

func (a *app) chosenConfig() *config.Config {
	if cfg := config.GetPreset(a.selected); cfg != nil {
		return cfg
	}
	return config.DefaultConfig()
}

func (a *app) loadParams() {
	cfg := a.chosenConfig()
	a.params = map[string]float64{
		"batch_size":     float64(cfg.Scene.BatchSize),
		"spawn_every_ms": float64(cfg.Scene.SpawnEveryMs),
		"drop_height":    cfg.Scene.DropHeight,
		"circle_radius":  cfg.Scene.CircleRadius,
		"wind_x":         cfg.Atmosphere.WindX,
		"wind_z":         cfg.Atmosphere.WindZ,
		"turbulence":     cfg.Atmosphere.Turbulence,
		"ratio_exp":      math.Log10(cfg.Collision.MassRatio),
		"seed":           float64(cfg.Scene.Seed),
	}
}

func (a app) start() (tea.Model, tea.Cmd) {
	cfg := a.chosenConfig()
	cfg.Scene.BatchSize = int(a.params["batch_size"])
	cfg.Scene.SpawnEveryMs = int64(a.params["spawn_every_ms"])
	cfg.Scene.DropHeight = a.params["drop_height"]
	cfg.Scene.CircleRadius = a.params["circle_radius"]
	cfg.Scene.Seed = int64(a.params["seed"])
	cfg.Atmosphere.WindX = a.params["wind_x"]
	cfg.Atmosphere.WindZ = a.params["wind_z"]
	cfg.Atmosphere.Turbulence = a.params["turbulence"]
	cfg.Collision.MassRatio = math.Pow(10, math.Round(a.params["ratio_exp"]))

	if err := cfg.Validate(); err != nil {
		a.err = err
		return a, nil
	}
	if err := a.sound.Init(); err != nil {
		a.err = err
		return a, nil
	}
	live, err := NewModel(cfg, a.sound)
	if err != nil {
		a.err = err
		return a, nil
	}
	a.live = live
	a.state, a.err = stateSim, nil
	return a, a.live.Init()
}

func (a app) View() string {
	switch a.state {
	case stateMenu:
		return a.viewMenu()
	case stateConfig:
		return a.viewConfig()
	case stateSim:
		return a.live.View()
	}
	return ""
}

func (a app) viewMenu() string {
	var b strings.Builder
	b.WriteString("\n\n    " + GradientText("MONTE CARLO π LAB", CurrentTheme.Primary, CurrentTheme.Accent) + "\n")
	b.WriteString("    " + MutedStyle().Render("falling balls, colliding blocks") + "\n")
	b.WriteString("    " + MutedStyle().Render("─────────────────────────") + "\n\n")
	for i, name := range a.presets {
		desc := presetInfo[name]
		if i == a.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n",
				AccentStyle().Render("▸"),
				TitleStyle().Render(fmt.Sprintf("%-12s", name)),
				valueStyle.Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("      %s  %s\n",
				MutedStyle().Render(fmt.Sprintf("%-12s", name)),
				MutedStyle().Render(desc)))
		}
	}
	b.WriteString("\n    " + keyHint("j/k", "navigate") + keyHint("enter", "select") + keyHint("q", "quit") + "\n")
	return b.String()
}

func (a app) viewConfig() string {
	var b strings.Builder
	b.WriteString("\n\n    " + TitleStyle().Render(strings.ToUpper(a.selected)) + "\n")
	b.WriteString("    " + MutedStyle().Render(presetInfo[a.selected]) + "\n")
	b.WriteString("    " + MutedStyle().Render("─────────────────────────") + "\n\n")
	for i, spec := range paramSpecs {
		valStr := fmt.Sprintf("%10.2f", a.params[spec.name])
		if a.editing && i == a.paramCursor {
			valStr = fmt.Sprintf("%10s", a.editBuf+"_")
		}
		if i == a.paramCursor {
			b.WriteString(fmt.Sprintf("    %s %s %s\n",
				AccentStyle().Render("▸"),
				TitleStyle().Render(fmt.Sprintf("%-14s", spec.name)),
				valueStyle.Render(valStr)))
		} else {
			b.WriteString(fmt.Sprintf("      %s %s\n",
				MutedStyle().Render(fmt.Sprintf("%-14s", spec.name)),
				MutedStyle().Render(valStr)))
		}
	}
	if a.err != nil {
		b.WriteString("\n    " + ErrStyle().Render(a.err.Error()) + "\n")
	}
	b.WriteString("\n    " + keyHint("j/k", "select") + keyHint("h/l", "adjust") + keyHint("enter", "type") + keyHint("s", "start") + keyHint("esc", "back") + "\n")
	return b.String()
}

func keyHint(key, action string) string {
	return TitleStyle().Render(key) + MutedStyle().Render(" "+action+"  ")
}

// RunInteractive starts the preset menu. base supplies the theme and
// sound switch; the menu supplies everything else.
func RunInteractive(base *config.Config) error {
	_, err := tea.NewProgram(*newApp(base), tea.WithAltScreen()).Run()
	return err
}
