// Package viewer draws a running arena with ebiten and lets a human watch
// the agents play: pause, speed, camera and a live trace panel.
package viewer

import (
	"fmt"
	"image/color"
	"math"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/Garsondee/Artillery-Sense/internal/agent"
	"github.com/Garsondee/Artillery-Sense/internal/arena"
)

// BuildFunc creates a fresh arena for a seed. The viewer calls it on start
// and on every restart.
type BuildFunc func(seed int64) (*arena.Arena, error)

// Viewer is an ebiten.Game around one arena.
type Viewer struct {
	build BuildFunc
	seed  int64
	arena *arena.Arena

	panel *TracePanel
	seen  int
	face  text.Face

	width     int
	height    int
	gameWidth int

	camX, camY float64
	scale      float64 // pixels per world unit

	simSpeed  float64
	tickAccum float64
	showHUD   bool
	prevKeys  map[ebiten.Key]bool
	status    string
}

// New builds the first arena and sizes the window.
func New(build BuildFunc, seed int64) (*Viewer, error) {
	v := &Viewer{
		build:     build,
		seed:      seed,
		panel:     NewTracePanel(),
		face:      text.NewGoXFace(basicfont.Face7x13),
		width:     1280 + panelWidth,
		height:    720,
		gameWidth: 1280,
		simSpeed:  1,
		showHUD:   true,
		prevKeys:  map[ebiten.Key]bool{},
	}
	if err := v.restart(); err != nil {
		return nil, err
	}
	return v, nil
}

// Size is the window size the viewer lays out for.
func (v *Viewer) Size() (int, int) { return v.width, v.height }

func (v *Viewer) restart() error {
	a, err := v.build(v.seed)
	if err != nil {
		return err
	}
	if v.arena != nil {
		v.arena.Close()
	}
	v.arena = a
	v.seen = 0
	v.panel.Reset()
	v.fitCamera()
	return nil
}

// fitCamera centres the terrain above the water line.
func (v *Viewer) fitCamera() {
	minX, maxX := math.Inf(1), math.Inf(-1)
	maxY := arena.WaterLine
	for _, b := range v.arena.Boxes() {
		minX = math.Min(minX, b.Min.X)
		maxX = math.Max(maxX, b.Max.X)
		maxY = math.Max(maxY, b.Max.Y)
	}
	if math.IsInf(minX, 1) {
		minX, maxX = -30, 30
	}
	span := maxX - minX + 4
	v.scale = float64(v.gameWidth) / span
	v.camX = (minX + maxX) / 2
	v.camY = (arena.WaterLine - 2 + maxY + arena.RopeMaxLength) / 2
}

// Close abandons the running arena.
func (v *Viewer) Close() {
	if v.arena != nil {
		v.arena.Close()
	}
}

func (v *Viewer) Update() error {
	v.handleInput()
	if v.simSpeed > 0 && !v.arena.Over() {
		v.tickAccum += v.simSpeed
		for v.tickAccum >= 1.0 {
			v.tickAccum -= 1.0
			v.arena.Step()
		}
	}
	tl := v.arena.Trace()
	for _, e := range tl.Since(v.seen) {
		v.panel.Add(e)
	}
	v.seen = tl.Len()
	return nil
}

func (v *Viewer) pressed(cur map[ebiten.Key]bool, k ebiten.Key) bool {
	cur[k] = ebiten.IsKeyPressed(k)
	return cur[k] && !v.prevKeys[k]
}

// handleInput processes keypresses (edge-triggered) and camera controls.
func (v *Viewer) handleInput() {
	cur := map[ebiten.Key]bool{}

	if v.pressed(cur, ebiten.KeyP) {
		if v.simSpeed > 0 {
			v.simSpeed = 0
		} else {
			v.simSpeed = 1
		}
	}
	speeds := []float64{0, 0.25, 0.5, 1, 2, 4, 8}
	if v.pressed(cur, ebiten.KeyComma) {
		for i, s := range speeds {
			if s >= v.simSpeed && i > 0 {
				v.simSpeed = speeds[i-1]
				break
			}
		}
	}
	if v.pressed(cur, ebiten.KeyPeriod) {
		for _, s := range speeds {
			if s > v.simSpeed {
				v.simSpeed = s
				break
			}
		}
	}
	if v.pressed(cur, ebiten.KeyH) {
		v.showHUD = !v.showHUD
	}
	if v.pressed(cur, ebiten.KeyC) {
		if err := clipboard.WriteAll(v.panel.Text()); err != nil {
			v.status = "copy failed: " + err.Error()
		} else {
			v.status = fmt.Sprintf("copied %d trace lines", len(v.panel.Recent()))
		}
	}
	if v.pressed(cur, ebiten.KeyW) {
		if v.panel.ToggleCategory("world") {
			v.status = "world events hidden"
		} else {
			v.status = "world events shown"
		}
	}
	if v.pressed(cur, ebiten.KeyR) {
		v.seed++
		if err := v.restart(); err != nil {
			v.status = "restart failed: " + err.Error()
		} else {
			v.status = fmt.Sprintf("restarted with seed %d", v.seed)
		}
	}

	pan := 8 / v.scale
	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		v.camX -= pan
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		v.camX += pan
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		v.camY += pan
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		v.camY -= pan
	}
	if _, wy := ebiten.Wheel(); wy != 0 {
		v.scale = math.Max(4, math.Min(200, v.scale*math.Pow(1.12, wy)))
	}

	v.prevKeys = cur
}

// toScreen maps world coordinates (y up) to pixels (y down).
func (v *Viewer) toScreen(p agent.Vec2) (float32, float32) {
	x := (p.X-v.camX)*v.scale + float64(v.gameWidth)/2
	y := (v.camY-p.Y)*v.scale + float64(v.height)/2
	return float32(x), float32(y)
}

func (v *Viewer) fillWorldRect(screen *ebiten.Image, min, max agent.Vec2, c color.Color) {
	x0, y1 := v.toScreen(min)
	x1, y0 := v.toScreen(max)
	vector.FillRect(screen, x0, y0, x1-x0, y1-y0, c, false)
}

func (v *Viewer) line(screen *ebiten.Image, a, b agent.Vec2, width float32, c color.Color) {
	x0, y0 := v.toScreen(a)
	x1, y1 := v.toScreen(b)
	vector.StrokeLine(screen, x0, y0, x1, y1, width, c, true)
}

func (v *Viewer) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 24, G: 28, B: 36, A: 255})
	v.drawWorld(screen)
	v.panel.Draw(screen, v.face, v.gameWidth, v.height)
	if v.showHUD {
		v.drawHUD(screen)
	}
}

func (v *Viewer) drawWorld(screen *ebiten.Image) {
	a := v.arena

	// Water.
	_, wy := v.toScreen(agent.V(0, arena.WaterLine))
	vector.FillRect(screen, 0, wy, float32(v.gameWidth), float32(v.height)-wy, color.RGBA{R: 20, G: 50, B: 90, A: 255}, false)

	for _, b := range a.Boxes() {
		v.fillWorldRect(screen, b.Min, b.Max, color.RGBA{R: 96, G: 78, B: 56, A: 255})
		x0, _ := v.toScreen(b.Min)
		x1, top := v.toScreen(b.Max)
		vector.StrokeLine(screen, x0, top, x1, top, 2, color.RGBA{R: 90, G: 140, B: 60, A: 255}, false)
	}

	for _, f := range a.Fighters() {
		v.drawFighter(screen, f, f == a.Active())
	}

	for _, b := range a.Beams() {
		c := color.RGBA{R: 255, G: 230, B: 120, A: 200}
		if b.Hit {
			c = color.RGBA{R: 255, G: 120, B: 60, A: 230}
		}
		v.line(screen, b.From, b.To, 2, c)
	}
	for _, s := range a.Shells() {
		x, y := v.toScreen(s.Pos)
		vector.FillCircle(screen, x, y, 4, color.RGBA{R: 40, G: 200, B: 60, A: 255}, true)
	}
	for _, b := range a.Blasts() {
		x, y := v.toScreen(b.Pos)
		vector.StrokeCircle(screen, x, y, float32(arena.BlastRadius*v.scale), 2, color.RGBA{R: 255, G: 160, B: 40, A: 220}, true)
	}
}

func (v *Viewer) drawFighter(screen *ebiten.Image, f *arena.Fighter, active bool) {
	r := f.Bounds()
	body := teamColor(f.Team)
	if !f.Alive() {
		body = color.RGBA{R: 70, G: 70, B: 70, A: 255}
	}
	if anchor, ok := f.RopeAttached(); ok {
		v.line(screen, f.Position().Add(agent.V(0, f.Height()/2)), anchor, 1.5, color.RGBA{R: 220, G: 220, B: 200, A: 255})
	}
	v.fillWorldRect(screen, r.Min, r.Max, body)
	if active {
		x0, y1 := v.toScreen(r.Min)
		x1, y0 := v.toScreen(r.Max)
		vector.StrokeRect(screen, x0-2, y0-2, x1-x0+4, y1-y0+4, 1.5, color.RGBA{R: 250, G: 220, B: 60, A: 255}, false)
	}
	if f.Aiming() {
		o := f.AimOrigin()
		v.line(screen, o, o.Add(f.AimDir().Scale(2.5)), 1, color.RGBA{R: 250, G: 250, B: 250, A: 160})
	}
	if !f.Alive() {
		return
	}
	// Health bar and label above the body.
	x0, _ := v.toScreen(r.Min)
	x1, top := v.toScreen(r.Max)
	w := x1 - x0
	vector.FillRect(screen, x0, top-6, w, 3, color.RGBA{R: 60, G: 20, B: 20, A: 255}, false)
	vector.FillRect(screen, x0, top-6, w*float32(f.Health/100), 3, color.RGBA{R: 80, G: 220, B: 80, A: 255}, false)
	drawText(screen, v.face, f.Label, int(x0), int(top)-22, color.White)
}

func (v *Viewer) drawHUD(screen *ebiten.Image) {
	a := v.arena
	speed := fmt.Sprintf("%gx", v.simSpeed)
	if v.simSpeed == 0 {
		speed = "PAUSED"
	}
	active := "--"
	if f := a.Active(); f != nil {
		active = fmt.Sprintf("%s (%s)", f.Label, f.Difficulty)
	}
	lines := []string{
		fmt.Sprintf("seed %d  t=%.1fs  turn %d  active %s  left %.1fs", v.seed, a.Now(), a.TurnNumber(), active, a.SecondsLeft()),
		fmt.Sprintf("SIM: %s  P=pause  ,/. speed  R=restart  W=world events  H=HUD", speed),
	}
	bal := a.Session().Balance
	for _, team := range bal.Teams() {
		s := bal.Shots(team)
		lines = append(lines, fmt.Sprintf("team %d shots=%d claw=%.2f (target %.2f)", team, s.Total, s.ClawFraction(), bal.TargetClawFraction()))
	}
	if a.Over() {
		lines = append(lines, "RESULT: "+a.Result().String())
	}
	if v.status != "" {
		lines = append(lines, v.status)
	}

	const lineH = 15
	h := float32(len(lines)*lineH + 8)
	vector.FillRect(screen, 6, 6, float32(v.gameWidth-12), h, color.RGBA{R: 6, G: 10, B: 14, A: 200}, false)
	for i, l := range lines {
		drawText(screen, v.face, l, 12, 9+i*lineH, color.RGBA{R: 220, G: 230, B: 220, A: 255})
	}
}

func (v *Viewer) Layout(_, _ int) (int, int) {
	return v.width, v.height
}
