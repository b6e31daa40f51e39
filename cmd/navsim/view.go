package main

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/navcrowd/component"
	"github.com/lixenwraith/navcrowd/core"
)

var (
	styleFloor  = tcell.StyleDefault.Foreground(tcell.ColorDarkSlateGray)
	styleWall   = tcell.StyleDefault.Foreground(tcell.ColorGray).Background(tcell.ColorDimGray)
	stylePath   = tcell.StyleDefault.Foreground(tcell.ColorTeal)
	styleTarget = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleStatus = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorSilver)
)

// agentStyles colours agents by navigation state
var agentStyles = map[component.NavState]tcell.Style{
	component.NavIdle:      tcell.StyleDefault.Foreground(tcell.ColorWhite),
	component.NavRequested: tcell.StyleDefault.Foreground(tcell.ColorOrange),
	component.NavSearching: tcell.StyleDefault.Foreground(tcell.ColorOrange),
	component.NavFollowing: tcell.StyleDefault.Foreground(tcell.ColorLime).Bold(true),
	component.NavArrived:   tcell.StyleDefault.Foreground(tcell.ColorAqua),
	component.NavFailed:    tcell.StyleDefault.Foreground(tcell.ColorRed),
}

// View renders a Sim on a terminal screen; one grid cell is one screen cell
type View struct {
	screen   tcell.Screen
	sim      *Sim
	paused   bool
	showPath bool
}

// NewView initialises the terminal
func NewView(sim *Sim) (*View, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	screen.EnableMouse()
	screen.HideCursor()
	return &View{screen: screen, sim: sim, showPath: true}, nil
}

// Close restores the terminal
func (v *View) Close() {
	v.screen.Fini()
}

// Run drives the simulation at the configured tick rate until quit
func (v *View) Run() {
	dt := time.Second / time.Duration(v.sim.cfg.Sim.TickRate)
	ticker := time.NewTicker(dt)
	defer ticker.Stop()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	for {
		select {
		case ev := <-events:
			if !v.handle(ev) {
				return
			}
		case <-ticker.C:
			if !v.paused {
				v.sim.Step(dt)
			}
			v.draw()
		}
	}
}

// handle returns false when the user quits
func (v *View) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC:
			return false
		case ev.Key() == tcell.KeyRune && ev.Rune() == 'q':
			return false
		case ev.Key() == tcell.KeyRune && ev.Rune() == ' ':
			v.paused = !v.paused
		case ev.Key() == tcell.KeyRune && ev.Rune() == 'p':
			v.showPath = !v.showPath
		case ev.Key() == tcell.KeyRune && ev.Rune() == 'a':
			v.sim.Spawn()
		case ev.Key() == tcell.KeyRune && ev.Rune() == 'd':
			if n := len(v.sim.agents); n > 0 {
				v.sim.Despawn(v.sim.agents[n-1])
			}
		}
	case *tcell.EventMouse:
		if ev.Buttons()&tcell.Button1 != 0 {
			x, y := ev.Position()
			if err := v.sim.Toggle(core.Point{X: x, Y: y}); err != nil {
				v.sim.logger.Sugar().Warnf("toggle (%d,%d): %v", x, y, err)
			}
		}
	case *tcell.EventResize:
		v.screen.Sync()
	}
	return true
}

func (v *View) draw() {
	v.screen.Clear()
	g := v.sim.grid
	for y := 0; y < g.Height(); y++ {
		for x := 0; x < g.Width(); x++ {
			if g.Walkable(x, y) {
				v.screen.SetContent(x, y, '·', nil, styleFloor)
			} else {
				v.screen.SetContent(x, y, '#', nil, styleWall)
			}
		}
	}

	w := v.sim.world
	for _, e := range v.sim.agents {
		nav, ok := w.Navigations.Get(e)
		if !ok {
			continue
		}
		if v.showPath && nav.State == component.NavFollowing {
			for _, wp := range nav.Path[nav.Waypoint:] {
				p := core.PointOf(wp)
				v.screen.SetContent(p.X, p.Y, '∙', nil, stylePath)
			}
		}
		v.screen.SetContent(nav.Target.X, nav.Target.Y, 'x', nil, styleTarget)
	}
	for i, e := range v.sim.agents {
		m, ok := w.Motions.Get(e)
		if !ok {
			continue
		}
		nav, _ := w.Navigations.Get(e)
		p := core.PointOf(m.Position)
		v.screen.SetContent(p.X, p.Y, agentGlyph(i), nil, agentStyles[nav.State])
	}

	v.drawStatus(g.Height())
	v.screen.Show()
}

func (v *View) drawStatus(row int) {
	ps := v.sim.paths.Stats()
	as := v.sim.avoid.Stats()
	cs := v.sim.cache.Stats()
	line := fmt.Sprintf(" frame %d  agents %d  searching %d  iters %d  arrived %d  failed %d  respawned %d  cache %d/%d  orca %s  lp3 %d ",
		ps.Frame, len(v.sim.agents), ps.Waiting, ps.Iterations, v.sim.arrivals, v.sim.failures, v.sim.respawns,
		cs.Hits, cs.Hits+cs.Misses, as.Duration.Round(time.Microsecond), as.Fallbacks)
	if v.paused {
		line += "[paused] "
	}
	for i, r := range []rune(line) {
		v.screen.SetContent(i, row, r, nil, styleStatus)
	}
}

func agentGlyph(i int) rune {
	const glyphs = "0123456789abcdefghijklmnopqrstuvwxyz"
	return rune(glyphs[i%len(glyphs)])
}
