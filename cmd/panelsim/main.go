// Command panelsim runs the panel stack on a developer machine: the
// real services on an in-process bus, a fake sensor, and a terminal
// mock of the e-paper screen. Keystrokes stand in for the buttons and
// for uplink traffic.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"inkpanel-go/bus"
	"inkpanel-go/drivers/scd4x"
	"inkpanel-go/services/config"
	"inkpanel-go/services/heartbeat"
	"inkpanel-go/services/panel"
	"inkpanel-go/services/sensor"
	"inkpanel-go/services/telemetry"
	"inkpanel-go/types"
	"inkpanel-go/x/logx"
	"inkpanel-go/x/strx"
)

// simMeasurer fakes an SCD41: CO2 drifts around a target the keys can
// push up and down. Raw temp/RH map to about 21.5 C and 50 %.
type simMeasurer struct {
	co2 chan int
	cur int
}

func newSimMeasurer() *simMeasurer {
	return &simMeasurer{co2: make(chan int, 4), cur: 640}
}

func (m *simMeasurer) StartPeriodic() error { return nil }

func (m *simMeasurer) ReadMeasurement() (scd4x.Sample, error) {
	for {
		select {
		case v := <-m.co2:
			m.cur = v
		default:
			return scd4x.Sample{CO2: uint16(m.cur), RawTemp: 24900, RawRH: 32768}, nil
		}
	}
}

func (m *simMeasurer) nudge(delta int) {
	next := m.cur + delta
	if next < 400 {
		next = 400
	}
	select {
	case m.co2 <- next:
	default:
	}
}

// Messages bridged from the bus into the Bubble Tea loop.
type busMsg struct{ msg *bus.Message }

type model struct {
	conn *bus.Connection
	msgs chan *bus.Message
	meas *simMeasurer

	frame    types.Frame
	state    types.PanelState
	beat     types.Heartbeat
	isolated bool
	injected int
	width    int
	height   int
	quitting bool
}

func initialModel(b *bus.Bus, meas *simMeasurer) *model {
	m := &model{
		conn: b.NewConnection("sim"),
		msgs: make(chan *bus.Message, 32),
		meas: meas,
	}
	go m.pump(m.conn.Subscribe(bus.Topic{"panel", bus.WildcardOne}))
	go m.pump(m.conn.Subscribe(bus.Topic{"system", "heartbeat"}))
	return m
}

func (m *model) pump(sub *bus.Subscription) {
	for msg := range sub.Channel() {
		m.msgs <- msg
	}
}

func (m *model) waitBus() tea.Cmd {
	return func() tea.Msg { return busMsg{<-m.msgs} }
}

func (m *model) Init() tea.Cmd {
	return m.waitBus()
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case busMsg:
		m.handleBus(msg.msg)
		return m, m.waitBus()
	}
	return m, nil
}

func (m *model) handleBus(msg *bus.Message) {
	switch v := msg.Payload.(type) {
	case types.Frame:
		m.frame = v
	case types.PanelState:
		m.state = v
	case types.Heartbeat:
		m.beat = v
	}
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "a":
		m.pressButton(types.ButtonAdvance)
	case "r":
		m.pressButton(types.ButtonRetreat)
	case "s":
		m.pressButton(types.ButtonSelect)
	case "i":
		m.isolated = !m.isolated
		m.inject(types.CategoryIsolation, isolationPayload(m.isolated))
	case "h":
		m.inject(types.CategoryHealth,
			`{"ha":1,"gw":1,"inet":1,"ha_api":1,"ha_ms":12,"gw_ms":3,"inet_ms":28,`+
				`"mem":512,"disk":41,"msgs_24h":37,"up":"3d 4h","model":"qwen2.5:7b"}`)
	case "p":
		m.inject(types.CategorySecondaryPeer, `{"ha_errors":0,"ha_reachable":true}`)
	case "+", "=":
		m.meas.nudge(200)
	case "-":
		m.meas.nudge(-200)
	}
	return m, nil
}

func (m *model) pressButton(b types.Button) {
	m.conn.Publish(m.conn.NewMessage(bus.Topic{"input", "button", string(b)},
		types.ButtonEvent{Button: b, TS: time.Now().UnixMilli()}, false))
}

func (m *model) inject(cat types.Category, payload string) {
	m.injected++
	m.conn.Publish(m.conn.NewMessage(bus.Topic{"uplink", "msg", string(cat)},
		[]byte(payload), false))
}

func isolationPayload(isolated bool) string {
	if isolated {
		return `{"state":"isolated","address":"0x7f3a91c2","isolated_at":"14:02",` +
			`"ws_connected":true,"block_number":19034211}`
	}
	return `{"state":"operational","address":"0x7f3a91c2","ws_connected":true}`
}

// ---- View ----

var (
	screenStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Width(44)
	titleStyle  = lipgloss.NewStyle().Bold(true)
	footerStyle = lipgloss.NewStyle().Faint(true)
	sideStyle   = lipgloss.NewStyle().PaddingLeft(2).Faint(true)
)

func (m *model) View() string {
	if m.quitting {
		return "panelsim: done\n"
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.viewScreen(), m.viewSide()) + "\n"
}

func (m *model) viewScreen() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.frame.Title))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("-", 40))
	b.WriteString("\n")
	for _, line := range m.frame.Body {
		b.WriteString(strx.PadRight(line, 40))
		b.WriteString("\n")
	}
	if m.frame.HasGauge {
		b.WriteString(gauge(m.frame.GaugePct))
		b.WriteString("\n")
	}
	if m.frame.QR != "" {
		b.WriteString("[QR] " + m.frame.QR + "\n")
	}
	b.WriteString(strings.Repeat("-", 40))
	b.WriteString("\n")
	for _, line := range m.frame.Footer {
		b.WriteString(footerStyle.Render(line))
		b.WriteString("\n")
	}
	return screenStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func gauge(pct int) string {
	filled := pct * 20 / 100
	return fmt.Sprintf("[%s%s] %d%%",
		strings.Repeat("#", filled), strings.Repeat(".", 20-filled), pct)
}

func (m *model) viewSide() string {
	lines := []string{
		fmt.Sprintf("screen      %s", m.state.Screen),
		fmt.Sprintf("refresh     %s", m.state.Mode),
		fmt.Sprintf("transitions %d", m.state.Transitions),
		fmt.Sprintf("uptime      %ds", m.beat.UptimeS),
		fmt.Sprintf("injected    %d", m.injected),
		"",
		"a/r  advance/retreat    s select",
		"i    toggle killswitch  h health",
		"p    peer health        +/- co2",
		"q    quit",
	}
	return sideStyle.Render(strings.Join(lines, "\n"))
}

func main() {
	// The alternate screen belongs to the TUI; service logs go to a file.
	logSink := io.Discard
	if f, err := os.Create("panelsim.log"); err == nil {
		defer f.Close()
		logSink = f
	}
	logx.SetLogger(slog.New(slog.NewTextHandler(logSink, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := bus.NewBus(8)
	meas := newSimMeasurer()

	services := []struct {
		name string
		svc  interface {
			Start(context.Context, *bus.Connection) error
		}
	}{
		{"panel", &panel.Service{}},
		{"telemetry", &telemetry.Service{}},
		{"sensor", &sensor.Service{Dev: meas}},
		{"heartbeat", &heartbeat.Service{}},
		{"config", &config.Service{Device: "panel-01"}},
	}
	for _, s := range services {
		if err := s.svc.Start(ctx, b.NewConnection(s.name)); err != nil {
			fmt.Fprintf(os.Stderr, "panelsim: start %s: %v\n", s.name, err)
			os.Exit(1)
		}
	}

	p := tea.NewProgram(initialModel(b, meas), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "panelsim: %v\n", err)
		os.Exit(1)
	}
}
