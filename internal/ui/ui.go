// Package ui provides the terminal sky preview using Bubble Tea.
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-skydome/internal/geo"
	"github.com/litescript/ls-skydome/internal/logging"
	"github.com/litescript/ls-skydome/internal/sky"
	"github.com/litescript/ls-skydome/internal/state"
	"github.com/litescript/ls-skydome/internal/version"
	"github.com/litescript/ls-skydome/internal/viewer"
)

const (
	// maxViews bounds how many viewports the preview will attach.
	maxViews = 8

	// newViewLonStep is the longitude offset of a viewport added with "a".
	newViewLonStep = 45.0

	ambientStep = 0.1
)

// Msg types for Bubble Tea
type (
	// TickMsg advances the simulation clock and recaptures every viewport.
	TickMsg time.Time

	// AnimTickMsg drives the footer spinner.
	AnimTickMsg time.Time
)

// Model is the root Bubble Tea model. Every sky call happens inside Update,
// so the sky is only touched from the Bubble Tea event loop.
type Model struct {
	sky       *sky.Sky
	clock     *state.Manager
	ellipsoid *geo.Ellipsoid
	log       *logging.Logger

	width     int
	height    int
	ready     bool
	statusMsg string
	animTick  int

	views  []SkyViewModel
	focus  int
	nextID sky.ViewID
}

// New creates the root model with one viewport at lat/lon.
func New(s *sky.Sky, clock *state.Manager, lat, lon float64, log *logging.Logger) Model {
	if log == nil {
		log = logging.Discard()
	}
	m := Model{
		sky:       s,
		clock:     clock,
		ellipsoid: s.Layout().Ellipsoid,
		log:       log.With("ui"),
		nextID:    1,
	}
	m.addView(lat, lon)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(m.clock.TickInterval()),
		animTickCmd(),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "tab":
			m.focus = (m.focus + 1) % len(m.views)
		case "shift+tab":
			m.focus = (m.focus + len(m.views) - 1) % len(m.views)

		case "a":
			lat, lon, _ := m.views[m.focus].vp.Observer()
			if m.addView(lat, lon+newViewLonStep) {
				m.focus = len(m.views) - 1
			}
		case "x":
			m.removeFocused()

		case "1":
			m.toggle(sky.Sun)
		case "2":
			m.toggle(sky.Moon)
		case "3":
			m.toggle(sky.Stars)

		case "A":
			m.sky.SetAutoAmbience(!m.sky.AutoAmbience())
			m.statusMsg = fmt.Sprintf("auto ambience %s", onOff(m.sky.AutoAmbience()))
		case "+", "=":
			m.nudgeAmbient(ambientStep)
		case "-":
			m.nudgeAmbient(-ambientStep)

		case "]":
			m.clock.SetRate(m.clock.Rate() * 2)
			m.statusMsg = fmt.Sprintf("rate %gx", m.clock.Rate())
		case "[":
			m.clock.SetRate(m.clock.Rate() / 2)
			m.statusMsg = fmt.Sprintf("rate %gx", m.clock.Rate())
		case " ":
			if m.clock.Paused() {
				m.clock.Resume()
			} else {
				m.clock.Pause()
			}
		case "n":
			m.clock.Jump(time.Now())

		case "H":
			m.moveObserver(0, -15)
		case "L":
			m.moveObserver(0, 15)
		case "K":
			m.moveObserver(10, 0)
		case "J":
			m.moveObserver(-10, 0)

		default:
			var cmd tea.Cmd
			m.views[m.focus], cmd = m.views[m.focus].Update(msg)
			cmds = append(cmds, cmd)
		}
		m.refresh()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()

	case TickMsg:
		cmds = append(cmds, tickCmd(m.clock.TickInterval()))
		t := m.clock.Now()
		m.sky.SetDateTime(t)
		m.clock.RecordApplied(t)
		m.refresh()

	case AnimTickMsg:
		cmds = append(cmds, animTickCmd())
		m.animTick++

	default:
		var cmd tea.Cmd
		m.views[m.focus], cmd = m.views[m.focus].Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// addView attaches a new viewport and captures its first frame.
func (m *Model) addView(lat, lon float64) bool {
	if len(m.views) >= maxViews {
		m.statusMsg = fmt.Sprintf("at most %d viewports", maxViews)
		return false
	}
	id := m.nextID
	m.nextID++

	vp := viewer.NewViewport(id, fmt.Sprintf("view-%d", id), m.ellipsoid, 0, 0, 0)
	vp.SetObserver(lat, lon)
	m.sky.Attach(vp, 0)

	v := NewSkyViewModel(vp)
	if m.ready {
		v = v.SetSize(m.width, m.contentHeight())
	}
	m.views = append(m.views, v.UpdateFrame(viewer.Capture(m.sky, vp)))
	m.log.Debug("attached %s", vp.Name())
	return true
}

// removeFocused detaches the focused viewport, keeping at least one.
func (m *Model) removeFocused() {
	if len(m.views) <= 1 {
		m.statusMsg = "cannot remove the last viewport"
		return
	}
	vp := m.views[m.focus].vp
	m.sky.Detach(vp.ID())
	m.views = append(m.views[:m.focus], m.views[m.focus+1:]...)
	if m.focus >= len(m.views) {
		m.focus = len(m.views) - 1
	}
	m.statusMsg = fmt.Sprintf("removed %s", vp.Name())
}

func (m *Model) toggle(b sky.Body) {
	m.sky.SetVisible(b, !m.sky.Visible(b))
	m.statusMsg = fmt.Sprintf("%s %s", b, onOff(m.sky.Visible(b)))
}

// nudgeAmbient shifts the focused viewport's ambient level. This turns
// automatic ambience off.
func (m *Model) nudgeAmbient(delta float64) {
	v := m.views[m.focus]
	cur := 0.0
	if v.frame != nil {
		cur = v.frame.Ambient
	}
	m.sky.SetAmbientBrightness(cur+delta, v.vp.ID())
	m.statusMsg = fmt.Sprintf("ambient %.2f (auto off)", clamp01(cur+delta))
}

func (m *Model) moveObserver(dLat, dLon float64) {
	vp := m.views[m.focus].vp
	lat, lon, _ := vp.Observer()
	vp.SetObserver(lat+dLat, lon+dLon)
}

// refresh recaptures every viewport.
func (m *Model) refresh() {
	for i, v := range m.views {
		m.views[i] = v.UpdateFrame(viewer.Capture(m.sky, v.vp))
	}
}

func (m *Model) resize() {
	h := m.contentHeight()
	for i, v := range m.views {
		m.views[i] = v.SetSize(m.width, h)
	}
}

// contentHeight leaves room for the title, tabs and footer.
func (m Model) contentHeight() int {
	return m.height - 6
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	return m.renderHeader() + "\n" + m.views[m.focus].View() + "\n" + m.renderFooter()
}

func (m Model) renderHeader() string {
	return m.renderTitle() + "\n" + m.renderTabs()
}

func (m Model) renderTitle() string {
	title := []rune(" ls-skydome ")

	var b strings.Builder
	b.WriteString(" ")
	for col, r := range title {
		style := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(gradientColor(col, 0, len(title), 1)))
		b.WriteString(style.Render(string(r)))
	}

	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	b.WriteString(muted.Render(fmt.Sprintf(" v%s · %s · %s",
		version.Version, m.sky.Ephemeris().Name(), m.clock.Now().UTC().Format("2006-01-02 15:04:05Z"))))
	return b.String()
}

// gradientColor returns a hex color for a position in the title gradient:
// blue -> purple -> magenta -> pink, darker toward the bottom.
func gradientColor(col, row, width, height int) string {
	xRatio := float64(col) / float64(width)
	yRatio := float64(row) / float64(height)

	var r, g, b float64

	if xRatio < 0.33 {
		t := xRatio / 0.33
		r = 59 + t*(139-59)
		g = 130 + t*(92-130)
		b = 246
	} else if xRatio < 0.66 {
		t := (xRatio - 0.33) / 0.33
		r = 139 + t*(217-139)
		g = 92 + t*(70-92)
		b = 246 + t*(239-246)
	} else {
		t := (xRatio - 0.66) / 0.34
		r = 217 + t*(236-217)
		g = 70 + t*(72-70)
		b = 239 + t*(153-239)
	}

	f := 1.0 - (yRatio * 0.5)
	return fmt.Sprintf("#%02X%02X%02X", clampByte(r*f), clampByte(g*f), clampByte(b*f))
}

func clampByte(v float64) int {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return int(v)
	}
}

func (m Model) renderTabs() string {
	activeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9D4EDD")).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))

	var parts []string
	for i, v := range m.views {
		tab := fmt.Sprintf("[%d] %s", v.vp.ID(), v.vp.Name())
		if i == m.focus {
			parts = append(parts, activeStyle.Render("▶ "+tab))
		} else {
			parts = append(parts, dimStyle.Render("  "+tab))
		}
	}
	return "  " + strings.Join(parts, "  ")
}

func (m Model) renderFooter() string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#7B2CBF"))

	spinnerFrames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	spinner := spinnerFrames[m.animTick%len(spinnerFrames)]

	clock := fmt.Sprintf(" rate %gx", m.clock.Rate())
	if m.clock.Paused() {
		spinner = "⏸"
		clock += " paused"
	}

	vis := fmt.Sprintf("sun:%s moon:%s stars:%s auto:%s",
		onOff(m.sky.Visible(sky.Sun)), onOff(m.sky.Visible(sky.Moon)),
		onOff(m.sky.Visible(sky.Stars)), onOff(m.sky.AutoAmbience()))

	help := dimStyle.Render("tab: view | a/x: add/remove | 1/2/3: bodies | A: auto | +/-: ambient | [/]: rate | space: pause | arrows: pan | HJKL: move | c/C: sun/moon")

	footer := "  " + accentStyle.Render(spinner) + dimStyle.Render(clock) + "  " +
		dimStyle.Render("|") + "  " + dimStyle.Render(vis) + "\n  " + help
	if m.statusMsg != "" {
		footer += "\n  " + dimStyle.Render(m.statusMsg)
	}
	return footer
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func tickCmd(d time.Duration) tea.Cmd {
	if d <= 0 {
		d = time.Second
	}
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func animTickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return AnimTickMsg(t)
	})
}
