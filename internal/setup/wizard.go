package setup

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sensdot/sensdot/internal/configstore"
	"github.com/sensdot/sensdot/internal/identity"
	"github.com/sensdot/sensdot/internal/tui"
)

// Committer persists the finished configuration
type Committer interface {
	Commit(cfg *configstore.DeviceConfig) error
}

// Field order in the form. The two toggles and the save action follow
// the text inputs in the focus cycle.
const (
	fieldSSID = iota
	fieldWiFiPassword
	fieldBroker
	fieldPort
	fieldUsername
	fieldMQTTPassword
	fieldTopicPrefix
	fieldSleepInterval
	fieldSensorInterval
	fieldCount
)

const (
	focusHADiscovery = fieldCount + iota
	focusDebugMode
	focusSave
	focusCount
)

var fieldLabels = [fieldCount]string{
	"WiFi SSID",
	"WiFi password",
	"MQTT broker host",
	"MQTT port",
	"MQTT username",
	"MQTT password",
	"Topic prefix",
	"Sleep interval (s)",
	"Sensor interval (s)",
}

// Model is the wizard's bubbletea model
type Model struct {
	id    identity.Identity
	store Committer

	inputs      [fieldCount]textinput.Model
	focus       int
	haDiscovery bool
	debugMode   bool

	errs     []string
	warnings []string
	saved    bool
	err      error
}

// New builds the wizard model. An existing configuration pre-fills the
// form so setup doubles as an editor.
func New(id identity.Identity, store Committer, current *configstore.DeviceConfig) Model {
	m := Model{id: id, store: store}

	for i := range m.inputs {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 128
		m.inputs[i] = in
	}
	m.inputs[fieldSSID].CharLimit = configstore.MaxSSIDLength
	m.inputs[fieldWiFiPassword].EchoMode = textinput.EchoPassword
	m.inputs[fieldMQTTPassword].EchoMode = textinput.EchoPassword
	m.inputs[fieldTopicPrefix].Placeholder = id.DefaultTopicPrefix()
	m.inputs[fieldPort].Placeholder = strconv.Itoa(int(configstore.DefaultMQTTPort))
	m.inputs[fieldSleepInterval].Placeholder = strconv.Itoa(int(configstore.DefaultSleepIntervalS))
	m.inputs[fieldSensorInterval].Placeholder = strconv.Itoa(int(configstore.DefaultSensorIntervalS))

	if current != nil {
		m.inputs[fieldSSID].SetValue(current.WiFi.SSID)
		m.inputs[fieldWiFiPassword].SetValue(current.WiFi.Password)
		m.inputs[fieldBroker].SetValue(current.MQTT.Broker)
		if current.MQTT.Port != 0 {
			m.inputs[fieldPort].SetValue(strconv.Itoa(int(current.MQTT.Port)))
		}
		m.inputs[fieldUsername].SetValue(current.MQTT.Username)
		m.inputs[fieldMQTTPassword].SetValue(current.MQTT.Password)
		m.inputs[fieldTopicPrefix].SetValue(current.MQTT.TopicPrefix)
		if current.SleepIntervalS != 0 {
			m.inputs[fieldSleepInterval].SetValue(strconv.Itoa(int(current.SleepIntervalS)))
		}
		if current.SensorIntervalS != 0 {
			m.inputs[fieldSensorInterval].SetValue(strconv.Itoa(int(current.SensorIntervalS)))
		}
		m.haDiscovery = current.HADiscovery
		m.debugMode = current.DebugMode
	}

	m.inputs[fieldSSID].Focus()
	return m
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "tab", "down", "enter":
			if msg.String() == "enter" && m.focus == focusSave {
				return m.save()
			}
			if msg.String() == "enter" && (m.focus == focusHADiscovery || m.focus == focusDebugMode) {
				m.toggle()
				return m, nil
			}
			m.setFocus((m.focus + 1) % focusCount)
			return m, nil

		case "shift+tab", "up":
			m.setFocus((m.focus + focusCount - 1) % focusCount)
			return m, nil

		case " ":
			if m.focus == focusHADiscovery || m.focus == focusDebugMode {
				m.toggle()
				return m, nil
			}

		case "ctrl+s":
			return m.save()
		}
	}

	if m.focus < fieldCount {
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) setFocus(focus int) {
	if m.focus < fieldCount {
		m.inputs[m.focus].Blur()
	}
	m.focus = focus
	if m.focus < fieldCount {
		m.inputs[m.focus].Focus()
	}
}

func (m *Model) toggle() {
	switch m.focus {
	case focusHADiscovery:
		m.haDiscovery = !m.haDiscovery
	case focusDebugMode:
		m.debugMode = !m.debugMode
	}
}

// save validates the form and commits. Validation failures keep the
// wizard open with the problems listed.
func (m Model) save() (tea.Model, tea.Cmd) {
	cfg, err := m.buildConfig()
	if err != nil {
		m.errs = []string{err.Error()}
		return m, nil
	}

	configstore.Normalize(cfg, m.id)

	warnings, criticalErrors := configstore.SeparateWarningsAndErrors(configstore.ValidateConfig(cfg))
	m.warnings = errorStrings(warnings)
	if len(criticalErrors) > 0 {
		m.errs = errorStrings(criticalErrors)
		return m, nil
	}
	m.errs = nil

	if err := m.store.Commit(cfg); err != nil {
		m.err = fmt.Errorf("failed to persist configuration: %w", err)
		return m, tea.Quit
	}

	m.saved = true
	return m, tea.Quit
}

// buildConfig assembles a record from the form fields
func (m Model) buildConfig() (*configstore.DeviceConfig, error) {
	cfg := &configstore.DeviceConfig{
		SchemaVersion: configstore.CurrentSchemaVersion,
		WiFi: configstore.WiFiConfig{
			SSID:     strings.TrimSpace(m.inputs[fieldSSID].Value()),
			Password: m.inputs[fieldWiFiPassword].Value(),
		},
		MQTT: configstore.MQTTConfig{
			Broker:      strings.TrimSpace(m.inputs[fieldBroker].Value()),
			Username:    strings.TrimSpace(m.inputs[fieldUsername].Value()),
			Password:    m.inputs[fieldMQTTPassword].Value(),
			TopicPrefix: strings.TrimSpace(m.inputs[fieldTopicPrefix].Value()),
		},
		HADiscovery: m.haDiscovery,
		DebugMode:   m.debugMode,
	}

	port, err := parseOptionalUint(m.inputs[fieldPort].Value(), "MQTT port", 65535)
	if err != nil {
		return nil, err
	}
	cfg.MQTT.Port = uint16(port)

	sleep, err := parseOptionalUint(m.inputs[fieldSleepInterval].Value(), "sleep interval", int(configstore.MaxSleepIntervalS))
	if err != nil {
		return nil, err
	}
	cfg.SleepIntervalS = uint32(sleep)

	sensor, err := parseOptionalUint(m.inputs[fieldSensorInterval].Value(), "sensor interval", int(configstore.MaxSensorIntervalS))
	if err != nil {
		return nil, err
	}
	cfg.SensorIntervalS = uint32(sensor)

	return cfg, nil
}

func parseOptionalUint(raw, label string, max int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil // zero takes the default at normalization
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 || v > max {
		return 0, fmt.Errorf("%s must be a number between 0 and %d", label, max)
	}
	return v, nil
}

// View implements tea.Model
func (m Model) View() string {
	if m.saved || m.err != nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(tui.TitleStyle.Render("SensDot Setup"))
	b.WriteString("\n")
	b.WriteString(tui.MutedStyle.Render("Device " + m.id.DeviceID))
	b.WriteString("\n\n")

	for i := 0; i < fieldCount; i++ {
		b.WriteString(m.renderLabel(fieldLabels[i], m.focus == i))
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderToggle("Home Assistant discovery", m.haDiscovery, m.focus == focusHADiscovery))
	b.WriteString("\n")
	b.WriteString(m.renderToggle("Debug mode", m.debugMode, m.focus == focusDebugMode))
	b.WriteString("\n\n")

	save := "[ Save ]"
	if m.focus == focusSave {
		save = tui.SuccessTitleStyle.Render("[ Save ]")
	} else {
		save = tui.MutedStyle.Render(save)
	}
	b.WriteString(save)
	b.WriteString("\n")

	if len(m.errs) > 0 {
		b.WriteString("\n")
		for _, e := range m.errs {
			b.WriteString(tui.ErrorMessageStyle.Render(tui.FailureMarker + " " + e))
			b.WriteString("\n")
		}
	}
	if len(m.warnings) > 0 {
		b.WriteString("\n")
		b.WriteString(tui.RenderWarnings(m.warnings))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(tui.MutedStyle.Render("tab/↑↓ move · space toggles · ctrl+s saves · esc quits"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderLabel(label string, focused bool) string {
	marker := "  "
	if focused {
		marker = tui.SuccessTitleStyle.Render("> ")
	}
	return marker + tui.KeyStyle.Render(label+":") + " "
}

func (m Model) renderToggle(label string, on, focused bool) string {
	box := "[ ]"
	if on {
		box = "[x]"
	}
	marker := "  "
	if focused {
		marker = tui.SuccessTitleStyle.Render("> ")
	}
	return marker + box + " " + tui.ValueStyle.Render(label)
}

func errorStrings(errs []error) []string {
	out := make([]string, len(errs))
	for i, err := range errs {
		out[i] = err.Error()
	}
	return out
}

// Run launches the wizard and blocks until it exits. Returns nil when a
// configuration was committed; a cancel is reported as an error so the
// CLI can exit nonzero.
func Run(id identity.Identity, store Committer, current *configstore.DeviceConfig) error {
	program := tea.NewProgram(New(id, store, current))
	final, err := program.Run()
	if err != nil {
		return fmt.Errorf("setup wizard failed: %w", err)
	}

	model, ok := final.(Model)
	if !ok {
		return fmt.Errorf("unexpected wizard model type %T", final)
	}
	if model.err != nil {
		return model.err
	}
	if !model.saved {
		return fmt.Errorf("setup cancelled, nothing saved")
	}
	return nil
}
