package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/harveysanders/picosampler/adcsensor/display"
	"github.com/harveysanders/picosampler/adcsensor/sampler"
	"github.com/samber/lo"
)

// CycleMsg triggers one display consumer cycle.
type CycleMsg time.Time

type model struct {
	width  int
	height int

	// Bubble Tea copies the model on every update; the simulation pointer
	// keeps all copies on the same pipeline.
	sim *simulation

	reading display.Reading
	history []sampler.Sample
}

func newModel(sim *simulation) model {
	return model{sim: sim}
}

func (m model) Init() tea.Cmd {
	return cycleCmd(m.sim.opts.delay)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "Q", "ctrl+c", "esc":
			return m, tea.Quit
		}
		return m, nil

	case CycleMsg:
		m.reading = m.sim.step()
		m.history = m.sim.monitor.snapshot()
		return m, cycleCmd(m.sim.opts.delay)
	}
	return m, nil
}

func (m model) View() string {
	if m.width == 0 {
		return "Starting ADC simulator..."
	}

	title := StyleTitleBar.Width(m.width).Render(fmt.Sprintf(
		"ADCSIM  depth=%d  %s/%s  window=%s  signal=%s",
		m.sim.sampler.Depth(), m.sim.opts.strategy, m.sim.opts.consistency,
		m.sim.opts.window, m.sim.opts.signal,
	))

	lines := m.sim.screen.Lines()
	lcdPanel := StyleLCD.Render(lines[0] + "\n" + lines[1])

	sparkW := m.width - 6
	if sparkW < 8 {
		sparkW = 8
	}
	mn, mx := historyRange(m.history)
	histPanel := StylePanel.Render(
		StylePanelTitle.Render(fmt.Sprintf("History (oldest → newest)  min %d  max %d", mn, mx)) + "\n" +
			StyleSpark.Render(sparkline(m.history, sparkW)),
	)

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		lcdPanel,
		histPanel,
		m.statusLine(),
	)
}

func (m model) statusLine() string {
	torn := m.sim.monitor.torn.Load()
	tornStyle := StyleTornNone
	if torn > 0 {
		tornStyle = StyleTornSeen
	}
	missed := m.sim.clock.missed.Load()

	content := fmt.Sprintf("conversions %s  rate %s  reads %s  ",
		humanize.Comma(int64(m.sim.sampler.Conversions())),
		humanize.SIWithDigits(m.sim.opts.rate, 1, "Hz"),
		humanize.Comma(int64(m.sim.monitor.reads.Load())),
	) + tornStyle.Render("torn "+humanize.Comma(int64(torn)))
	if missed > 0 {
		content += StyleMissed.Render("  missed " + humanize.Comma(int64(missed)))
	}
	content += fmt.Sprintf("  %.4f V  q quit", m.reading.Voltage)
	return StyleStatusBar.Width(m.width).Render(content)
}

func cycleCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return CycleMsg(t)
	})
}

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// sparkline draws the newest width samples of a newest-first history, oldest
// on the left, scaled between its own min and max.
func sparkline(h []sampler.Sample, width int) string {
	if len(h) == 0 || width <= 0 {
		return ""
	}
	if len(h) > width {
		h = h[:width]
	}
	mn, mx := historyRange(h)
	var b strings.Builder
	for i := len(h) - 1; i >= 0; i-- {
		level := 0
		if mx > mn {
			level = int(h[i]-mn) * (len(sparkLevels) - 1) / int(mx-mn)
		}
		b.WriteRune(sparkLevels[level])
	}
	return b.String()
}

func historyRange(h []sampler.Sample) (mn, mx sampler.Sample) {
	if len(h) == 0 {
		return 0, 0
	}
	return lo.Min(h), lo.Max(h)
}
