package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/clocktower-engine/pkg/engine"
	"github.com/jwebster45206/clocktower-engine/pkg/state"
)

const PlaceHolderText = "Type a command (try /help)..."

// ConsoleUI is the BubbleTea model that runs the storyteller console.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config           *ConsoleConfig
	client           *http.Client
	game             *state.GameState
	logViewport      viewport.Model
	grimoireViewport viewport.Model
	textarea         textarea.Model
	ready            bool
	width            int
	height           int
	err              error

	// Script selection state
	showScriptModal bool
	scripts         []string
	scriptMap       map[string]string
	selectedScript  int
	loadingScripts  bool
	creating        bool

	// Quit confirmation state
	showQuitModal bool

	logLines  []string
	eventChan chan SSEEvent
	sseCancel context.CancelFunc
}

type scriptsLoadedMsg struct {
	scripts   []string
	scriptMap map[string]string
	err       error
}

type gameCreatedMsg struct {
	game *state.GameState
	err  error
}

type grimoireMsg struct {
	game *state.GameState
	err  error
}

type actionAckMsg struct {
	requestID string
	err       error
}

type sseEventMsg struct {
	event SSEEvent
}

type sseClosedMsg struct {
	err error
}

var (
	logPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	grimoirePanelStyle = lipgloss.NewStyle().
				PaddingTop(2).
				PaddingBottom(0).
				PaddingLeft(0).
				PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	commandStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	deadStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")). // dark grey
			Strikethrough(true)

	evilStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("160")) // dark red

	goodStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("75")) // blue

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey
)

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 200
	ta.SetWidth(50)
	ta.SetHeight(1)
	ta.ShowLineNumbers = false

	logVp := viewport.New(50, 20)
	logVp.MouseWheelEnabled = true

	grimoireVp := viewport.New(20, 20)

	return ConsoleUI{
		config:           cfg,
		client:           client,
		textarea:         ta,
		logViewport:      logVp,
		grimoireViewport: grimoireVp,
		ready:            false,
		showScriptModal:  true,
		loadingScripts:   true,
		selectedScript:   0,
		eventChan:        make(chan SSEEvent, 16),
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	if m.showScriptModal {
		return m.loadScripts()
	}
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showScriptModal {
		return m.updateScriptModal(msg)
	}

	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		gvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.logViewport, vpCmd = m.logViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.grimoireViewport, gvCmd = m.grimoireViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, gvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.writeLogContent()
		if m.game != nil {
			m.grimoireViewport.SetContent(writeGrimoire(m.game))
		}

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}
			m.textarea.Reset()
			return m.handleInput(input)
		}

	case actionAckMsg:
		if msg.err != nil {
			m.appendLog(errorStyle.Render("Error: " + msg.err.Error()))
		}
		return m, nil

	case grimoireMsg:
		if msg.err == nil && msg.game != nil {
			m.game = msg.game
			m.grimoireViewport.SetContent(writeGrimoire(m.game))
		}

	case sseEventMsg:
		m.handleEvent(msg.event)
		return m, tea.Batch(m.waitForEvent(), m.maybeRefresh(msg.event))

	case sseClosedMsg:
		if msg.err != nil && msg.err != context.Canceled {
			m.appendLog(errorStyle.Render("Event stream closed: " + msg.err.Error()))
		}
		return m, nil
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.logViewport, vpCmd = m.logViewport.Update(msg)
	m.grimoireViewport, gvCmd = m.grimoireViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, gvCmd)
}

func (m *ConsoleUI) layout() {
	logWidth := int(float64(m.width)*0.62) - 4
	grimoireWidth := m.width - logWidth - 6

	m.logViewport.Width = logWidth - 2
	m.logViewport.Height = m.height - 7
	m.grimoireViewport.Width = grimoireWidth - 2
	m.grimoireViewport.Height = m.height - 4
	m.textarea.SetWidth(logWidth - 4)
	m.ready = true
}

func (m *ConsoleUI) appendLog(line string) {
	m.logLines = append(m.logLines, line)
	m.writeLogContent()
}

func (m *ConsoleUI) writeLogContent() {
	logWidth := m.logViewport.Width - 6
	if logWidth < 20 {
		logWidth = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("CLOCKTOWER CONSOLE") + "\n\n")
	content.WriteString("You are the storyteller. Drive the game below.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", logWidth)) + "\n\n")

	for _, line := range m.logLines {
		content.WriteString(wordwrap.String(line, logWidth) + "\n")
	}

	m.logViewport.SetContent(content.String())
	m.logViewport.GotoBottom()
}

// handleEvent turns one SSE event into log lines.
func (m *ConsoleUI) handleEvent(ev SSEEvent) {
	inner, _ := ev.Data["data"].(map[string]interface{})

	switch ev.Type {
	case "narration":
		if message, ok := inner["message"].(string); ok {
			m.appendLog(narratorStyle.Render(message))
		}
	case "action.rejected":
		reason, _ := inner["reason"].(string)
		m.appendLog(errorStyle.Render("Rejected: " + reason))
	case "action.failed":
		errText, _ := inner["error"].(string)
		m.appendLog(errorStyle.Render("Failed: " + errText))
	case "connected":
		m.appendLog(promptStyle.Render("Connected to event stream."))
	}
}

// maybeRefresh refetches the grimoire when the snapshot changed.
func (m ConsoleUI) maybeRefresh(ev SSEEvent) tea.Cmd {
	if ev.Type != "game.state_updated" {
		return nil
	}
	return m.refreshGrimoire()
}

func (m ConsoleUI) handleInput(input string) (tea.Model, tea.Cmd) {
	if strings.HasPrefix(input, "/") {
		return m.handleSlashCommand(input)
	}

	action, err := m.parseAction(input)
	if err != nil {
		m.appendLog(commandStyle.Render("> "+input))
		m.appendLog(errorStyle.Render(err.Error()))
		return m, nil
	}

	m.appendLog(commandStyle.Render("> " + input))
	return m, m.submit(action)
}

func (m ConsoleUI) handleSlashCommand(input string) (tea.Model, tea.Cmd) {
	cmd := strings.ToLower(strings.TrimSpace(input))

	switch cmd {
	case "/help":
		helpText := `
Commands:
  start                          begin the game (deals are already made)
  night <player> [target ...]    submit a night choice for a player
  nominations                    open nominations
  nominate <nominator> <nominee> open a nomination
  vote <player> yes|no           cast a vote
  close                          close voting and tally
  endday                         end the day, move to dusk
  slayer <player> <target>       a public slayer shot

  /grimoire  refresh the side panel
  /copy      copy the game ID to the clipboard
  /help      this help
  Ctrl+C     quit
`
		m.appendLog(titleStyle.Render("Help:") + helpText)

	case "/grimoire":
		return m, m.refreshGrimoire()

	case "/copy":
		if m.game != nil {
			if err := clipboard.WriteAll(m.game.ID.String()); err != nil {
				m.appendLog(errorStyle.Render("Copy failed: " + err.Error()))
			} else {
				m.appendLog(promptStyle.Render("Game ID copied to clipboard."))
			}
		}

	default:
		m.appendLog(errorStyle.Render("Unknown command: " + cmd))
	}

	return m, nil
}

// parseAction converts a console command into a game action. Player
// references are names, resolved against the current grimoire.
func (m ConsoleUI) parseAction(input string) (engine.Action, error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return engine.Action{}, fmt.Errorf("empty command")
	}

	switch strings.ToLower(fields[0]) {
	case "start":
		return engine.Action{Type: engine.ActionStartGame}, nil

	case "night":
		if len(fields) < 2 {
			return engine.Action{}, fmt.Errorf("usage: night <player> [target ...]")
		}
		actor, err := m.findPlayer(fields[1])
		if err != nil {
			return engine.Action{}, err
		}
		var targets []uuid.UUID
		for _, name := range fields[2:] {
			p, err := m.findPlayer(name)
			if err != nil {
				return engine.Action{}, err
			}
			targets = append(targets, p.ID)
		}
		return engine.Action{Type: engine.ActionNightChoice, Player: actor.ID, Targets: targets}, nil

	case "nominations":
		return engine.Action{Type: engine.ActionBeginNominations}, nil

	case "nominate":
		if len(fields) != 3 {
			return engine.Action{}, fmt.Errorf("usage: nominate <nominator> <nominee>")
		}
		nominator, err := m.findPlayer(fields[1])
		if err != nil {
			return engine.Action{}, err
		}
		nominee, err := m.findPlayer(fields[2])
		if err != nil {
			return engine.Action{}, err
		}
		return engine.Action{Type: engine.ActionNominate, Player: nominator.ID, Target: nominee.ID}, nil

	case "vote":
		if len(fields) != 3 {
			return engine.Action{}, fmt.Errorf("usage: vote <player> yes|no")
		}
		voter, err := m.findPlayer(fields[1])
		if err != nil {
			return engine.Action{}, err
		}
		var vote bool
		switch strings.ToLower(fields[2]) {
		case "yes", "y":
			vote = true
		case "no", "n":
			vote = false
		default:
			return engine.Action{}, fmt.Errorf("vote must be yes or no")
		}
		return engine.Action{Type: engine.ActionVote, Player: voter.ID, Vote: vote}, nil

	case "close":
		return engine.Action{Type: engine.ActionCloseVoting}, nil

	case "endday":
		return engine.Action{Type: engine.ActionEndDay}, nil

	case "slayer":
		if len(fields) != 3 {
			return engine.Action{}, fmt.Errorf("usage: slayer <player> <target>")
		}
		shooter, err := m.findPlayer(fields[1])
		if err != nil {
			return engine.Action{}, err
		}
		target, err := m.findPlayer(fields[2])
		if err != nil {
			return engine.Action{}, err
		}
		return engine.Action{Type: engine.ActionSlayerShot, Player: shooter.ID, Target: target.ID}, nil
	}

	return engine.Action{}, fmt.Errorf("unknown command %q, try /help", fields[0])
}

func (m ConsoleUI) findPlayer(name string) (*state.Player, error) {
	if m.game == nil {
		return nil, fmt.Errorf("no game loaded")
	}
	if p := m.game.PlayerByName(name); p != nil {
		return p, nil
	}
	return nil, fmt.Errorf("no player named %q", name)
}

func (m ConsoleUI) submit(action engine.Action) tea.Cmd {
	return func() tea.Msg {
		requestID, err := submitAction(m.client, m.config.APIBaseURL, m.game.ID, action)
		return actionAckMsg{requestID, err}
	}
}

func (m ConsoleUI) refreshGrimoire() tea.Cmd {
	return func() tea.Msg {
		gs, err := getGrimoire(m.client, m.config.APIBaseURL, m.game.ID)
		return grimoireMsg{gs, err}
	}
}

func (m ConsoleUI) loadScripts() tea.Cmd {
	return func() tea.Msg {
		orderedNames, scriptMap, err := listScripts(m.client, m.config.APIBaseURL)
		return scriptsLoadedMsg{orderedNames, scriptMap, err}
	}
}

func (m ConsoleUI) createGameFromScript(scriptFile string) tea.Cmd {
	return func() tea.Msg {
		gs, err := createGame(m.client, m.config.APIBaseURL, m.config.Players, scriptFile)
		return gameCreatedMsg{gs, err}
	}
}

// startSSE launches the event stream reader for the created game.
func (m *ConsoleUI) startSSE() tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.sseCancel = cancel
	client := &http.Client{} // No timeout: the stream stays open
	baseURL := m.config.APIBaseURL
	gameID := m.game.ID
	eventChan := m.eventChan

	go func() {
		_ = listenToSSE(ctx, client, baseURL, gameID, eventChan)
		close(eventChan)
	}()

	return m.waitForEvent()
}

func (m ConsoleUI) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.eventChan
		if !ok {
			return sseClosedMsg{nil}
		}
		return sseEventMsg{ev}
	}
}

func (m ConsoleUI) updateScriptModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case scriptsLoadedMsg:
		m.loadingScripts = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.scripts = msg.scripts
			m.scriptMap = msg.scriptMap
		}

	case gameCreatedMsg:
		m.creating = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.game = msg.game
		m.showScriptModal = false
		if m.width > 0 && m.height > 0 {
			m.layout()
		}
		m.appendLog(promptStyle.Render(fmt.Sprintf("Game %s created with %d players.", m.game.ID.String()[:8], len(m.game.Players))))
		m.grimoireViewport.SetContent(writeGrimoire(m.game))
		m.textarea.Focus()
		return m, tea.Batch(textarea.Blink, m.startSSE())

	case tea.KeyMsg:
		if m.loadingScripts || m.creating {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				return m, tea.Quit
			}
			return m, nil
		}

		if m.err != nil {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyUp:
			if m.selectedScript > 0 {
				m.selectedScript--
			}
		case tea.KeyDown:
			if m.selectedScript < len(m.scripts)-1 {
				m.selectedScript++
			}
		case tea.KeyEnter:
			if len(m.scripts) > 0 {
				scriptName := m.scripts[m.selectedScript]
				scriptFile := m.scriptMap[scriptName]
				m.creating = true
				return m, m.createGameFromScript(scriptFile)
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m.quit()
		default:
			switch msg.String() {
			case "y", "Y":
				return m.quit()
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) quit() (tea.Model, tea.Cmd) {
	if m.sseCancel != nil {
		m.sseCancel()
	}
	return m, tea.Quit
}

func writeGrimoire(gs *state.GameState) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("GRIMOIRE") + "\n\n")

	content.WriteString("Game ID:\n")
	content.WriteString(gs.ID.String()[:8] + "...\n\n")

	content.WriteString(fmt.Sprintf("Phase: %s\n", gs.Phase))
	content.WriteString(fmt.Sprintf("Day %d / Night %d\n\n", gs.DayNumber, gs.NightNumber))

	for _, p := range gs.Players {
		role := p.Character.DisplayName()
		line := fmt.Sprintf("%2d %-10s %s", p.Seat, p.Name, role)

		var marks []string
		if p.Drunk {
			marks = append(marks, "drunk")
		}
		if p.Poisoned {
			marks = append(marks, "poisoned")
		}
		if p.Protected {
			marks = append(marks, "protected")
		}
		if len(marks) > 0 {
			line += " [" + strings.Join(marks, ",") + "]"
		}

		switch {
		case !p.Alive:
			content.WriteString(deadStyle.Render(line))
		case p.Team == "evil":
			content.WriteString(evilStyle.Render(line))
		default:
			content.WriteString(goodStyle.Render(line))
		}
		content.WriteString("\n")
	}

	if gs.Result != nil {
		content.WriteString("\n")
		content.WriteString(titleStyle.Render(fmt.Sprintf("%s team wins", gs.Result.Team)) + "\n")
		content.WriteString(gs.Result.Reason + "\n")
	}

	content.WriteString("\n")
	content.WriteString("Commands:\n")
	content.WriteString("• Ctrl+C: Quit\n")
	content.WriteString("• Enter: Send\n")
	content.WriteString("• /help: Help\n")
	content.WriteString("• /copy: Copy game ID\n")

	return content.String()
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Console?"))
	content.WriteString("\n\n")
	content.WriteString("The game keeps its state on the server.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderScriptModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	if m.loadingScripts {
		content.WriteString(modalTitleStyle.Render("Loading Scripts..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Fetching available scripts..."))
	} else if m.err != nil {
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(fmt.Sprintf("Failed to set up game: %v", m.err)))
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	} else if m.creating {
		content.WriteString(modalTitleStyle.Render("Creating Game..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Shuffling characters and seating players..."))
	} else {
		content.WriteString(modalTitleStyle.Render("Select a Script"))
		content.WriteString("\n\n")

		for i, script := range m.scripts {
			if i == m.selectedScript {
				content.WriteString(modalSelectedItemStyle.Render(fmt.Sprintf("▶ %s", script)))
			} else {
				content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", script)))
			}
			content.WriteString("\n")
		}

		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Ctrl+C to exit"))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showScriptModal {
		return m.renderScriptModal()
	}

	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	logWidth := int(float64(m.width)*0.62) - 4
	grimoireWidth := m.width - logWidth - 6

	logPanel := logPanelStyle.Width(logWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.logViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", logWidth-4)),
			m.textarea.View(),
		),
	)

	grimoirePanel := grimoirePanelStyle.Width(grimoireWidth).Height(m.height - 2).Render(
		m.grimoireViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, logPanel, grimoirePanel)
}
