// Package render draws a running simulation in the terminal with tcell.
// The viewer only reads engine snapshots, so it never blocks a tick.
package render

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/talgya/catsim/internal/config"
	"github.com/talgya/catsim/internal/engine"
	"github.com/talgya/catsim/internal/world"
)

const (
	refreshRate = 100 * time.Millisecond
	gridTop     = 1 // row of the first grid line
	cellWidth   = 2 // screen columns per cell
)

// Layer selects what the cell background shows.
type Layer uint8

const (
	LayerCells Layer = iota
	LayerFood
	LayerTrace
	LayerElevation
	numLayers
)

func (l Layer) String() string {
	switch l {
	case LayerCells:
		return "cells"
	case LayerFood:
		return "food"
	case LayerTrace:
		return "trace"
	case LayerElevation:
		return "elevation"
	default:
		return "unknown"
	}
}

var (
	styleDefault = tcell.StyleDefault
	styleHeader  = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	stylePaused  = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleCat     = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	styleHelp    = tcell.StyleDefault.Foreground(tcell.ColorGray)

	cellColors = map[world.CellType]tcell.Color{
		world.CellFloor: tcell.ColorGray,
		world.CellFood:  tcell.ColorGreen,
		world.CellBed:   tcell.ColorBlue,
		world.CellBox:   tcell.ColorYellow,
	}
)

// Viewer shows the grid, a status line and an inspector for the cell under
// the cursor.
type Viewer struct {
	eng    *engine.Engine
	screen tcell.Screen

	layer            Layer
	cursorX, cursorY int
	inspect          bool
}

// NewTerminalScreen opens and initializes the real terminal.
func NewTerminalScreen() (tcell.Screen, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	return screen, nil
}

// NewViewer creates a viewer drawing eng's snapshots on an initialized screen.
func NewViewer(eng *engine.Engine, screen tcell.Screen) *Viewer {
	return &Viewer{eng: eng, screen: screen, inspect: true}
}

// Layer returns the current background layer.
func (v *Viewer) Layer() Layer {
	return v.layer
}

// Run redraws until the user quits or ctx is cancelled. It does not close
// the screen; the caller calls Fini, which also ends the event poller.
func (v *Viewer) Run(ctx context.Context) error {
	events := make(chan tcell.Event, 16)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	ticker := time.NewTicker(refreshRate)
	defer ticker.Stop()

	v.draw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if !v.handleEvent(ev) {
				return nil
			}
			v.draw()
		case <-ticker.C:
			v.draw()
		}
	}
}

// handleEvent applies one input event. It returns false to quit.
func (v *Viewer) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyUp:
			v.moveCursor(0, -1)
		case tcell.KeyDown:
			v.moveCursor(0, 1)
		case tcell.KeyLeft:
			v.moveCursor(-1, 0)
		case tcell.KeyRight:
			v.moveCursor(1, 0)
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return false
			case 'p', ' ':
				v.eng.TogglePause()
			case 't':
				v.layer = (v.layer + 1) % numLayers
			case 'i':
				v.inspect = !v.inspect
			case 'k':
				v.moveCursor(0, -1)
			case 'j':
				v.moveCursor(0, 1)
			case 'h':
				v.moveCursor(-1, 0)
			case 'l':
				v.moveCursor(1, 0)
			}
		}
	case *tcell.EventResize:
		v.screen.Sync()
	}
	return true
}

func (v *Viewer) moveCursor(dx, dy int) {
	snap := v.eng.Snapshot()
	v.cursorX = min(max(v.cursorX+dx, 0), snap.Width-1)
	v.cursorY = min(max(v.cursorY+dy, 0), snap.Height-1)
}

// Cursor returns the grid position under the cursor.
func (v *Viewer) Cursor() (int, int) {
	return v.cursorX, v.cursorY
}

func (v *Viewer) draw() {
	snap := v.eng.Snapshot()
	v.screen.Clear()

	status := fmt.Sprintf("catsim  %s  step %d/%d  pop %d  %s  layer:%s",
		snap.Time, snap.Step, snap.Steps, snap.Population, snap.Weather, v.layer)
	end := v.drawText(0, 0, styleHeader, status)
	switch {
	case snap.Finished:
		v.drawText(end+2, 0, stylePaused, "[finished]")
	case v.eng.Paused():
		v.drawText(end+2, 0, stylePaused, "[paused]")
	}

	lowElev, highElev := elevationRange(snap.Cells)
	for y, row := range snap.Cells {
		for x, cell := range row {
			glyph := rune(cell.Type.Char())
			fg := cellColors[cell.Type]
			style := styleDefault.Foreground(fg)
			if cell.Cats > 0 {
				glyph = catGlyph(cell.Cats)
				style = styleCat
			}
			style = style.Background(v.background(cell, lowElev, highElev))
			if v.inspect && x == v.cursorX && y == v.cursorY {
				style = style.Reverse(true)
			}
			v.screen.SetContent(x*cellWidth, gridTop+y, glyph, nil, style)
			v.screen.SetContent(x*cellWidth+1, gridTop+y, ' ', nil, style.Reverse(false))
		}
	}

	line := gridTop + snap.Height + 1
	v.drawText(0, line, styleHelp, "q quit  p pause  t layer  i inspect  arrows/hjkl move")
	if v.inspect {
		v.drawInspector(snap, line+1)
	}
	v.screen.Show()
}

// background colors a cell by the active layer.
func (v *Viewer) background(cell engine.CellView, lowElev, highElev int) tcell.Color {
	switch v.layer {
	case LayerFood:
		if cell.Type != world.CellFood {
			return tcell.ColorBlack
		}
		return tcell.NewRGBColor(0, shade(cell.Food/config.StartFoodAmount), 0)
	case LayerTrace:
		return tcell.NewRGBColor(shade(cell.XTrace/config.MaxTrace), 0, shade(cell.YTrace/config.MaxTrace))
	case LayerElevation:
		if highElev == lowElev {
			return tcell.NewRGBColor(64, 64, 64)
		}
		g := shade(float64(cell.Elevation-lowElev) / float64(highElev-lowElev))
		return tcell.NewRGBColor(g, g, g)
	default:
		return tcell.ColorReset
	}
}

func (v *Viewer) drawInspector(snap *engine.Snapshot, line int) {
	if v.cursorY >= len(snap.Cells) || v.cursorX >= len(snap.Cells[v.cursorY]) {
		return
	}
	cell := snap.Cells[v.cursorY][v.cursorX]
	v.drawText(0, line, styleDefault, fmt.Sprintf("(%d,%d) %s  food %.1f  elevation %d  trace %.2f/%.2f",
		v.cursorX, v.cursorY, cell.Type, cell.Food, cell.Elevation, cell.XTrace, cell.YTrace))
	for _, c := range snap.Cats {
		if c.X != v.cursorX || c.Y != v.cursorY {
			continue
		}
		line++
		desc := fmt.Sprintf("  cat %d  %s %s  %s  health %.1f  age %.2f", c.ID, c.Gender, c.Personality, c.State, c.Health, c.Age)
		if c.Pregnant {
			desc += "  pregnant"
		}
		v.drawText(0, line, styleDefault, desc)
	}
}

// drawText writes s at (x, y) and returns the column after it.
func (v *Viewer) drawText(x, y int, style tcell.Style, s string) int {
	for _, r := range s {
		v.screen.SetContent(x, y, r, nil, style)
		x++
	}
	return x
}

// catGlyph shows how many cats share a cell.
func catGlyph(n int) rune {
	if n > 9 {
		return '+'
	}
	return rune('0' + n)
}

// shade maps a fraction to a color channel value.
func shade(f float64) int32 {
	f = min(max(f, 0), 1)
	return int32(32 + f*223)
}

func elevationRange(cells [][]engine.CellView) (int, int) {
	if len(cells) == 0 || len(cells[0]) == 0 {
		return 0, 0
	}
	low, high := cells[0][0].Elevation, cells[0][0].Elevation
	for _, row := range cells {
		for _, c := range row {
			low = min(low, c.Elevation)
			high = max(high, c.Elevation)
		}
	}
	return low, high
}
