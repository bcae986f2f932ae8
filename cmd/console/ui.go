package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jwebster45206/scene-engine/pkg/api"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	PlaceHolderText = "look, take lamp, click door..."
	notUnderstood   = "I don't understand that. Try /help."
)

type entryKind int

const (
	entryPlayer entryKind = iota
	entryText
	entryMessage
	entryError
	entrySystem
)

// entry is one line of the transcript.
type entry struct {
	kind entryKind
	text string
}

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *apiClient
	session      *api.SessionResponse
	transcript   []entry
	storyVp      viewport.Model
	metaVp       viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool
	progressTick int

	// Project selection state
	showProjectModal bool
	projects         []string
	projectMap       map[string]string
	selectedProject  int
	loadingProjects  bool

	showQuitModal bool
}

type commandResponseMsg struct {
	response *api.CommandResponse
	err      error
}

type sessionMsg struct {
	session *api.SessionResponse
	err     error
}

type projectsLoadedMsg struct {
	projects   []string
	projectMap map[string]string
	err        error
}

type sessionCreatedMsg struct {
	session *api.SessionResponse
	err     error
}

type progressTickMsg struct{}

var (
	storyPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	textStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")). // yellow
			Italic(true)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	separatorStyle = lipgloss.NewStyle().
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
)

var titleCaser = cases.Title(language.English)

func NewConsoleUI(cfg *ConsoleConfig, client *apiClient) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 200
	ta.SetWidth(50)
	ta.SetHeight(1)
	ta.ShowLineNumbers = false

	storyVp := viewport.New(50, 20)
	storyVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:           cfg,
		client:           client,
		textarea:         ta,
		storyVp:          storyVp,
		metaVp:           metaVp,
		showProjectModal: true,
		loadingProjects:  true,
	}
}

// displayName turns an id such as "rusty_key" into "Rusty Key".
func displayName(id string) string {
	return titleCaser.String(strings.NewReplacer("_", " ", "-", " ").Replace(id))
}

func writeMetadata(s *api.SessionResponse) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("SESSION") + "\n\n")

	content.WriteString("Project:\n")
	content.WriteString(s.ProjectFile + "\n\n")

	content.WriteString("Scene:\n")
	if s.Scene != nil && s.Scene.Title != "" {
		content.WriteString(s.Scene.Title + "\n\n")
	} else {
		content.WriteString(displayName(s.CurrentNodeID) + "\n\n")
	}

	content.WriteString("Inventory:\n")
	if len(s.Inventory) == 0 {
		content.WriteString("Empty\n")
	}
	for _, id := range s.Inventory {
		content.WriteString("• " + displayName(id) + "\n")
	}
	content.WriteString("\n")

	content.WriteString("Flags:\n")
	if len(s.Flags) == 0 {
		content.WriteString("None set\n")
	}
	for _, name := range sortedFlags(s.Flags) {
		content.WriteString(fmt.Sprintf("• %s: %v\n", name, s.Flags[name]))
	}

	if s.Strict {
		content.WriteString("\nStrict mode\n")
	}

	content.WriteString("\n")
	content.WriteString("Commands:\n")
	content.WriteString("• Ctrl+C: Quit\n")
	content.WriteString("• Enter: Send\n")
	content.WriteString("• /help: Help\n")
	content.WriteString("• /copy: Copy transcript\n")

	return content.String()
}

func sortedFlags(flags map[string]bool) []string {
	names := make([]string, 0, len(flags))
	for name := range flags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// renderTranscript formats every entry for the given width.
func renderTranscript(entries []entry, width int) string {
	if width < 10 {
		width = 10
	}
	var content strings.Builder
	content.WriteString(titleStyle.Render("SCENE ENGINE") + "\n\n")
	content.WriteString("Type commands below to explore. /help lists them.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", width)) + "\n\n")

	for _, e := range entries {
		switch e.kind {
		case entryPlayer:
			content.WriteString(userStyle.Render("> ") + wordwrap.String(e.text, width-2))
		case entryText:
			content.WriteString(textStyle.Render(wordwrap.String(e.text, width)))
		case entryMessage:
			content.WriteString(messageStyle.Render(wordwrap.String(e.text, width)))
		case entryError:
			content.WriteString(errorStyle.Render(wordwrap.String("Error: "+e.text, width)))
		case entrySystem:
			content.WriteString(titleStyle.Render(wordwrap.String(e.text, width)))
		}
		content.WriteString("\n\n")
	}
	return content.String()
}

// plainTranscript is the transcript without styling, for the clipboard.
func plainTranscript(entries []entry) string {
	var b strings.Builder
	for _, e := range entries {
		switch e.kind {
		case entryPlayer:
			b.WriteString("> " + e.text)
		case entryError:
			b.WriteString("Error: " + e.text)
		default:
			b.WriteString(e.text)
		}
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String())
}

// appendResponse records the outcome of one command in the transcript.
func appendResponse(entries []entry, resp *api.CommandResponse) []entry {
	if !resp.Handled {
		return append(entries, entry{entryMessage, notUnderstood})
	}
	for _, m := range resp.Messages {
		kind := entryText
		if m.Kind == api.MessageMessage {
			kind = entryMessage
		}
		entries = append(entries, entry{kind, m.Text})
	}
	if resp.Ended {
		entries = append(entries, entry{entrySystem, "THE END"})
	}
	return entries
}

func (m *ConsoleUI) writeStoryContent() {
	content := renderTranscript(m.transcript, m.storyVp.Width-6)
	if m.loading {
		content += m.renderProgressBar()
	}
	m.storyVp.SetContent(content)
	m.storyVp.GotoBottom()
}

func (m *ConsoleUI) resize() {
	storyWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - storyWidth - 6

	m.storyVp.Width = storyWidth - 2
	m.storyVp.Height = m.height - 7
	m.metaVp.Width = metaWidth - 2
	m.metaVp.Height = m.height - 4
	m.textarea.SetWidth(storyWidth - 4)
}

func (m ConsoleUI) Init() tea.Cmd {
	if m.showProjectModal {
		return m.loadProjects()
	}
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}
	if m.showProjectModal {
		return m.updateProjectModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.storyVp, vpCmd = m.storyVp.Update(msg)
		m.metaVp, mvCmd = m.metaVp.Update(msg)
		return m, tea.Batch(vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true
		m.writeStoryContent()
		if m.session != nil {
			m.metaVp.SetContent(writeMetadata(m.session))
		}

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}
			input := strings.TrimSpace(m.textarea.Value())
			m.textarea.Reset()
			if input == "" {
				return m, nil
			}
			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			m.transcript = append(m.transcript, entry{entryPlayer, input})
			m.loading = true
			m.progressTick = 0
			m.writeStoryContent()
			return m, tea.Batch(m.sendCommand(input), progressTick())
		}

	case commandResponseMsg:
		m.loading = false
		if msg.err != nil {
			m.transcript = append(m.transcript, entry{entryError, msg.err.Error()})
			m.writeStoryContent()
			// The failed action may still have changed the session.
			return m, m.refreshSession()
		}
		m.transcript = appendResponse(m.transcript, msg.response)
		m.session = &msg.response.SessionResponse
		m.metaVp.SetContent(writeMetadata(m.session))
		m.writeStoryContent()
		return m, nil

	case sessionMsg:
		if msg.err == nil && msg.session != nil {
			m.session = msg.session
			m.metaVp.SetContent(writeMetadata(m.session))
		}

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeStoryContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.storyVp, vpCmd = m.storyVp.Update(msg)
	m.metaVp, mvCmd = m.metaVp.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "/help":
		m.transcript = append(m.transcript, entry{entrySystem, `Commands:
• look (l) - Describe the scene
• inventory (i) - List what you carry
• undo (u) - Step back one action
• click <hotspot> - Use a hotspot or its default action
• <verb> <thing> - look, take, use, talk or open something
• /copy - Copy the transcript to the clipboard
• /help - Show this help
• Ctrl+C - Quit`})

	case "/copy":
		if err := clipboard.WriteAll(plainTranscript(m.transcript)); err != nil {
			m.transcript = append(m.transcript, entry{entryError, "could not copy transcript: " + err.Error()})
		} else {
			m.transcript = append(m.transcript, entry{entrySystem, "Transcript copied."})
		}

	default:
		m.transcript = append(m.transcript, entry{entryMessage, "Unknown command " + input})
	}

	m.writeStoryContent()
	return m, nil
}

func (m ConsoleUI) sendCommand(input string) tea.Cmd {
	id := m.session.ID
	return func() tea.Msg {
		resp, err := m.client.sendCommand(id, input)
		return commandResponseMsg{resp, err}
	}
}

func (m ConsoleUI) refreshSession() tea.Cmd {
	id := m.session.ID
	return func() tea.Msg {
		s, err := m.client.getSession(id)
		return sessionMsg{s, err}
	}
}

func (m ConsoleUI) loadProjects() tea.Cmd {
	return func() tea.Msg {
		names, projectMap, err := m.client.listProjects()
		return projectsLoadedMsg{names, projectMap, err}
	}
}

func (m ConsoleUI) createSession(projectFile string) tea.Cmd {
	strict := m.config.Strict
	return func() tea.Msg {
		s, err := m.client.createSession(projectFile, strict)
		return sessionCreatedMsg{s, err}
	}
}

func (m ConsoleUI) updateProjectModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case projectsLoadedMsg:
		m.loadingProjects = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.projects = msg.projects
			m.projectMap = msg.projectMap
		}

	case sessionCreatedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.session = msg.session
		m.showProjectModal = false
		if m.width > 0 && m.height > 0 {
			m.resize()
		}
		m.transcript = append(m.transcript, entry{entryText, describe(m.session)})
		m.writeStoryContent()
		m.metaVp.SetContent(writeMetadata(m.session))
		m.textarea.Focus()
		m.ready = true
		return m, textarea.Blink

	case tea.KeyMsg:
		if m.loadingProjects {
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
			if m.selectedProject > 0 {
				m.selectedProject--
			}
		case tea.KeyDown:
			if m.selectedProject < len(m.projects)-1 {
				m.selectedProject++
			}
		case tea.KeyEnter:
			if m.err == nil && len(m.projects) > 0 && !m.loading {
				file := m.projectMap[m.projects[m.selectedProject]]
				m.loading = true
				return m, m.createSession(file)
			}
		}
	}

	return m, nil
}

// describe is the opening text of a new session.
func describe(s *api.SessionResponse) string {
	if s.Scene == nil {
		return ""
	}
	text := s.Scene.Text
	if s.Scene.Title != "" {
		text = s.Scene.Title + "\n\n" + text
	}
	return strings.TrimSpace(text)
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				if m.showProjectModal {
					return m, nil
				}
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Game?"))
	content.WriteString("\n\n")
	content.WriteString("Are you sure you want to quit your adventure?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderProjectModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	switch {
	case m.loadingProjects:
		content.WriteString(modalTitleStyle.Render("Loading Projects..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Please wait while we fetch available projects..."))
	case m.err != nil:
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(fmt.Sprintf("%v", m.err)))
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	case m.loading:
		content.WriteString(modalTitleStyle.Render("Starting Session..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Setting up your adventure..."))
	case len(m.projects) == 0:
		content.WriteString(modalTitleStyle.Render("No Projects"))
		content.WriteString("\n\n")
		content.WriteString("Add a project file to DATA_DIR/projects and restart the API.")
	default:
		content.WriteString(modalTitleStyle.Render("Select a Project"))
		content.WriteString("\n\n")
		for i, name := range m.projects {
			if i == m.selectedProject {
				content.WriteString(modalSelectedItemStyle.Render(fmt.Sprintf("▶ %s", name)))
			} else {
				content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", name)))
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
	if m.showQuitModal {
		return m.renderQuitModal()
	}
	if m.showProjectModal {
		return m.renderProjectModal()
	}
	if !m.ready {
		return "\n  Initializing..."
	}

	storyWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - storyWidth - 6

	storyPanel := storyPanelStyle.Width(storyWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.storyVp.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(storyWidth-4, 0))),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaVp.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, storyPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.storyVp.Width - 6
	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		switch {
		case i < filled:
			bar.WriteString("█")
		case i == filled && frame%4 < 2:
			bar.WriteString("▓")
		default:
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
