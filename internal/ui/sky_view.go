package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-skydome/internal/viewer"
)

const (
	// Field of view in degrees
	fovAz = 120.0 // horizontal FOV
	fovEl = 60.0  // vertical FOV

	// Animation
	animDuration  = 400 * time.Millisecond
	animFrameRate = 30 * time.Millisecond

	// Body glyphs
	glyphSun  = '☀'
	glyphMoon = '☾'

	colorSun  = "220" // gold
	colorMoon = "253"

	// Star glyphs by catalog shade
	glyphStarBright  = '✶' // shade > 0.75
	glyphStarMedium  = '✸' // 0.5-0.75
	glyphStarDim     = '·' // 0.25-0.5
	glyphStarVeryDim = '·'

	colorStarBright  = "255"
	colorStarMedium  = "250"
	colorStarDim     = "244"
	colorStarVeryDim = "240"

	// Backgrounds by ambient level
	colorNightSky = "236"
	colorDuskSky  = "60"
	colorDaySky   = "31"
)

// SkyViewModel renders one viewport's sky dome from its latest frame.
type SkyViewModel struct {
	vp    *viewer.Viewport
	frame *viewer.Frame

	width  int
	height int

	// Camera position (center of view)
	camAz float64
	camEl float64

	// Animation state
	animating   bool
	animStartAz float64
	animStartEl float64
	animTargAz  float64
	animTargEl  float64
	animStart   time.Time
}

// NewSkyViewModel creates a sky view for vp looking south.
func NewSkyViewModel(vp *viewer.Viewport) SkyViewModel {
	return SkyViewModel{
		vp:    vp,
		camAz: 180,
		camEl: 30,
	}
}

// Viewport returns the viewport this view renders.
func (m SkyViewModel) Viewport() *viewer.Viewport { return m.vp }

// Frame returns the last captured frame, if any.
func (m SkyViewModel) Frame() *viewer.Frame { return m.frame }

// SetSize updates the canvas size.
func (m SkyViewModel) SetSize(width, height int) SkyViewModel {
	m.width = width
	m.height = height
	return m
}

// UpdateFrame replaces the frame drawn by View.
func (m SkyViewModel) UpdateFrame(f *viewer.Frame) SkyViewModel {
	m.frame = f
	return m
}

// animTickMsg is sent during animation
type animTickMsg time.Time

func animTick() tea.Cmd {
	return tea.Tick(animFrameRate, func(t time.Time) tea.Msg {
		return animTickMsg(t)
	})
}

// Update handles camera keys and animation ticks.
func (m SkyViewModel) Update(msg tea.Msg) (SkyViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "left":
			m.camAz = normalizeAzimuth(m.camAz - 15)
		case "right":
			m.camAz = normalizeAzimuth(m.camAz + 15)
		case "up":
			m.camEl = math.Min(m.camEl+10, 90)
		case "down":
			m.camEl = math.Max(m.camEl-10, 0)
		case "c":
			if m.frame != nil && m.frame.Sun != nil {
				return m.lookAt(m.frame.Sun.Az, m.frame.Sun.El)
			}
		case "C":
			if m.frame != nil && m.frame.Moon != nil {
				return m.lookAt(m.frame.Moon.Az, m.frame.Moon.El)
			}
		}

	case animTickMsg:
		if m.animating {
			return m.updateAnimation()
		}
	}

	return m, nil
}

// lookAt pans the camera toward az/el. Targets below the horizon keep the
// camera on the horizon.
func (m SkyViewModel) lookAt(az, el float64) (SkyViewModel, tea.Cmd) {
	m.animating = true
	m.animStartAz = m.camAz
	m.animStartEl = m.camEl
	m.animTargAz = az
	m.animTargEl = math.Max(el, 0)
	m.animStart = time.Now()
	return m, animTick()
}

func (m SkyViewModel) updateAnimation() (SkyViewModel, tea.Cmd) {
	elapsed := time.Since(m.animStart)
	t := float64(elapsed) / float64(animDuration)

	if t >= 1.0 {
		m.animating = false
		m.camAz = normalizeAzimuth(m.animTargAz)
		m.camEl = m.animTargEl
		return m, nil
	}

	// Ease-out cubic
	t = 1 - math.Pow(1-t, 3)

	m.camAz = lerpAngle(m.animStartAz, m.animTargAz, t)
	m.camEl = lerp(m.animStartEl, m.animTargEl, t)

	return m, animTick()
}

// View renders the sky view.
func (m SkyViewModel) View() string {
	if m.width < 20 || m.height < 10 {
		return "Sky view requires larger terminal"
	}

	viewHeight := m.height - 4

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderSkyCanvas(m.width, viewHeight))
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	return b.String()
}

func (m SkyViewModel) renderHeader() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("135"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))

	lat, lon, _ := m.vp.Observer()
	title := titleStyle.Render(m.vp.Name())
	where := dimStyle.Render(fmt.Sprintf("%.1f°, %.1f°", lat, lon))
	compass := dimStyle.Render(fmt.Sprintf("Az:%.0f° El:%.0f°", m.camAz, m.camEl))

	return fmt.Sprintf("%s | %s | %s", title, where, compass)
}

func (m SkyViewModel) renderStatus() string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	sunStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(colorSun))
	moonStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(colorMoon))

	f := m.frame
	if f == nil {
		return dimStyle.Render("No frame yet")
	}

	parts := []string{
		sunStyle.Render("Sun") + " " + describeBody(f.Sun),
		moonStyle.Render("Moon") + " " + describeBody(f.Moon),
		dimStyle.Render(fmt.Sprintf("stars %d", len(f.Stars))),
		dimStyle.Render(fmt.Sprintf("ambient %.2f", f.Ambient)),
	}
	if !f.Atmosphere {
		parts = append(parts, dimStyle.Render("no atmosphere"))
	}
	return strings.Join(parts, dimStyle.Render(" | "))
}

func describeBody(o *viewer.Object) string {
	if o == nil {
		return "hidden"
	}
	return fmt.Sprintf("az %.1f° el %.1f°", o.Az, o.El)
}

func (m SkyViewModel) renderSkyCanvas(width, height int) string {
	bg := skyBackground(0)
	if m.frame != nil {
		bg = skyBackground(m.frame.Ambient)
	}

	canvas := make([][]rune, height)
	colors := make([][]lipgloss.Color, height)
	for y := 0; y < height; y++ {
		canvas[y] = make([]rune, width)
		colors[y] = make([]lipgloss.Color, width)
		for x := 0; x < width; x++ {
			canvas[y][x] = ' '
			colors[y][x] = "236"
		}
	}

	horizonY := height - 2

	if f := m.frame; f != nil {
		// Frame stars are ordered dimmest first so bright ones win a cell.
		for _, s := range f.Stars {
			glyph, color := starGlyph(s.Brightness)
			m.plot(canvas, colors, width, horizonY, s.Az, s.El, glyph, color)
		}
		if f.Moon != nil && f.Moon.El > 0 {
			m.plot(canvas, colors, width, horizonY, f.Moon.Az, f.Moon.El, glyphMoon, colorMoon)
		}
		if f.Sun != nil && f.Sun.El > 0 {
			m.plot(canvas, colors, width, horizonY, f.Sun.Az, f.Sun.El, glyphSun, colorSun)
		}
	}

	for x := 0; x < width; x++ {
		canvas[horizonY][x] = '─'
		colors[horizonY][x] = "60"
	}

	m.drawCardinal(canvas, colors, width, height, "N", 0)
	m.drawCardinal(canvas, colors, width, height, "E", 90)
	m.drawCardinal(canvas, colors, width, height, "S", 180)
	m.drawCardinal(canvas, colors, width, height, "W", 270)

	// Observer marker at bottom center
	if x, y := width/2, height-1; y >= 0 && x < width {
		canvas[y][x] = '▲'
		colors[y][x] = "46"
	}

	var b strings.Builder
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			style := lipgloss.NewStyle().Foreground(colors[y][x])
			if y < horizonY {
				style = style.Background(bg)
			}
			b.WriteString(style.Render(string(canvas[y][x])))
		}
		if y < height-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m SkyViewModel) plot(canvas [][]rune, colors [][]lipgloss.Color, width, horizonY int, az, el float64, glyph rune, color lipgloss.Color) {
	x, y, visible := m.projectToScreen(az, el, width, horizonY+2)
	if !visible || x < 0 || x >= width || y < 0 || y >= horizonY {
		return
	}
	canvas[y][x] = glyph
	colors[y][x] = color
}

// starGlyph picks a glyph and color from a star's catalog shade in [0,1].
func starGlyph(shade float64) (rune, lipgloss.Color) {
	switch {
	case shade > 0.75:
		return glyphStarBright, colorStarBright
	case shade > 0.5:
		return glyphStarMedium, colorStarMedium
	case shade > 0.25:
		return glyphStarDim, colorStarDim
	default:
		return glyphStarVeryDim, colorStarVeryDim
	}
}

// skyBackground maps the ambient level to a canvas color.
func skyBackground(ambient float64) lipgloss.Color {
	switch {
	case ambient >= 0.6:
		return colorDaySky
	case ambient >= 0.35:
		return colorDuskSky
	default:
		return colorNightSky
	}
}

func (m SkyViewModel) drawCardinal(canvas [][]rune, colors [][]lipgloss.Color, width, height int, label string, az float64) {
	x, _, visible := m.projectToScreen(az, 0, width, height)
	if !visible {
		return
	}
	y := height - 2 // horizon line

	if x >= 0 && x < width && y >= 0 && y < height {
		canvas[y][x] = rune(label[0])
		colors[y][x] = "252"
	}
}

// projectToScreen converts az/el to screen coordinates relative to camera
func (m SkyViewModel) projectToScreen(az, el float64, width, height int) (int, int, bool) {
	dAz := normalizeAngle(az - m.camAz)
	dEl := el - m.camEl

	if dAz < -fovAz/2 || dAz > fovAz/2 {
		return 0, 0, false
	}
	if dEl < -fovEl/2 || dEl > fovEl/2 {
		return 0, 0, false
	}

	// X: -fovAz/2..+fovAz/2 -> 0..width
	// Y: +fovEl/2..-fovEl/2 -> 0..horizon (higher el = higher on screen)
	horizonY := height - 2

	x := int((dAz + fovAz/2) / fovAz * float64(width))
	y := int((fovEl/2 - dEl) / fovEl * float64(horizonY))

	return x, y, true
}

// normalizeAngle wraps angle to -180..+180 range
func normalizeAngle(a float64) float64 {
	for a > 180 {
		a -= 360
	}
	for a < -180 {
		a += 360
	}
	return a
}

// normalizeAzimuth wraps angle to 0..360.
func normalizeAzimuth(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}

// lerpAngle interpolates between angles, taking shortest path
func lerpAngle(a, b, t float64) float64 {
	diff := normalizeAngle(b - a)
	return a + diff*t
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
