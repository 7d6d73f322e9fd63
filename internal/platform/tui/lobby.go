// Package tui provides the terminal lobby: a Bubble Tea room list fed by the
// lobby stream, served locally or over SSH.
package tui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/multisnake/internal/protocol"
)

const (
	minTableHeight = 3
	chromeHeight   = 9 // title, box border, footer and help
)

// LobbyUpdateMsg carries one room count from the lobby stream.
type LobbyUpdateMsg protocol.LobbyUpdate

// lobbyClosedMsg reports that the lobby stream ended.
type lobbyClosedMsg struct{}

// LobbyOptions configures a lobby model.
type LobbyOptions struct {
	// RoomURL renders the websocket endpoint of a room for the footer.
	RoomURL func(roomID int) string

	// QuitOnPick ends the program when a room is picked. Local viewers use
	// it to print the endpoint; SSH viewers keep the list open.
	QuitOnPick bool

	Width  int
	Height int
}

// LobbyModel lists the rooms and their player counts.
type LobbyModel struct {
	counts  map[int]int
	updates <-chan protocol.LobbyUpdate
	opts    LobbyOptions

	table  table.Model
	help   help.Model
	keys   LobbyKeyMap
	width  int
	height int

	picked   int
	closed   bool
	quitting bool
}

// NewLobbyModel creates a lobby model from an initial snapshot and a stream
// of later updates. updates may be nil for a static list.
func NewLobbyModel(snapshot []protocol.LobbyUpdate, updates <-chan protocol.LobbyUpdate, opts LobbyOptions) LobbyModel {
	if opts.RoomURL == nil {
		opts.RoomURL = func(id int) string { return fmt.Sprintf("/room/%d", id) }
	}

	m := LobbyModel{
		counts:  make(map[int]int, len(snapshot)),
		updates: updates,
		opts:    opts,
		help:    help.New(),
		keys:    DefaultLobbyKeyMap(),
		width:   opts.Width,
		height:  opts.Height,
	}
	for _, u := range snapshot {
		m.counts[u.RoomID] = u.PlayerCount
	}

	m.table = m.createTable()
	m.updateTableRows()
	return m
}

func (m *LobbyModel) createTable() table.Model {
	columns := []table.Column{
		{Title: "Room", Width: 6},
		{Title: "Players", Width: 9},
		{Title: "Status", Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(max(m.height-chromeHeight, minTableHeight)),
	)
	t.SetStyles(tableStyles())
	return t
}

func (m *LobbyModel) updateTableRows() {
	ids := m.roomIDs()
	rows := make([]table.Row, len(ids))
	for i, id := range ids {
		n := m.counts[id]
		status := "open"
		if n == 0 {
			status = "empty"
		}
		rows[i] = table.Row{strconv.Itoa(id), strconv.Itoa(n), status}
	}
	m.table.SetRows(rows)
	if c := m.table.Cursor(); c >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

func (m LobbyModel) roomIDs() []int {
	ids := make([]int, 0, len(m.counts))
	for id := range m.counts {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// waitForUpdate returns a command that waits for the next lobby update.
func (m LobbyModel) waitForUpdate() tea.Cmd {
	if m.updates == nil {
		return nil
	}
	ch := m.updates
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return lobbyClosedMsg{}
		}
		return LobbyUpdateMsg(u)
	}
}

// Init starts listening for updates.
func (m LobbyModel) Init() tea.Cmd {
	return m.waitForUpdate()
}

// Update handles messages for the lobby.
func (m LobbyModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LobbyUpdateMsg:
		m.counts[msg.RoomID] = msg.PlayerCount
		m.updateTableRows()
		return m, m.waitForUpdate()

	case lobbyClosedMsg:
		m.closed = true
		return m, tea.Quit

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil

		case key.Matches(msg, m.keys.Up):
			m.table.MoveUp(1)
			return m, nil

		case key.Matches(msg, m.keys.Down):
			m.table.MoveDown(1)
			return m, nil

		case key.Matches(msg, m.keys.Select):
			row := m.table.SelectedRow()
			if row == nil {
				return m, nil
			}
			id, err := strconv.Atoi(row[0])
			if err != nil {
				return m, nil
			}
			m.picked = id
			if m.opts.QuitOnPick {
				return m, tea.Quit
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(max(m.height-chromeHeight, minTableHeight))
		m.help.Width = msg.Width
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the lobby.
func (m LobbyModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render(centerText("M U L T I S N A K E", m.width)))
	b.WriteString("\n")

	var body string
	if len(m.counts) == 0 {
		body = emptyStyle.Render("No rooms yet.\nWaiting for the server...")
	} else {
		body = m.table.View()
	}
	b.WriteString(centerText(boxStyle.Render(body), m.width))
	b.WriteString("\n")

	switch {
	case m.closed:
		b.WriteString(dimStyle.Render("lobby stream closed"))
	case m.picked != 0:
		b.WriteString(pickStyle.Render(fmt.Sprintf("room %d: %s", m.picked, m.opts.RoomURL(m.picked))))
	default:
		b.WriteString(dimStyle.Render(fmt.Sprintf("%d rooms, %d players", len(m.counts), m.totalPlayers())))
	}

	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m LobbyModel) totalPlayers() int {
	total := 0
	for _, n := range m.counts {
		total += n
	}
	return total
}

// Picked returns the room chosen with Enter, if any.
func (m LobbyModel) Picked() (int, bool) {
	return m.picked, m.picked != 0
}

// PlayerCount returns the last known count of a room.
func (m LobbyModel) PlayerCount(roomID int) (int, bool) {
	n, ok := m.counts[roomID]
	return n, ok
}

// IsClosed reports whether the lobby stream ended.
func (m LobbyModel) IsClosed() bool {
	return m.closed
}

// IsQuitting returns true if the user quit.
func (m LobbyModel) IsQuitting() bool {
	return m.quitting
}

// RunLobby runs the lobby on the local terminal and returns the room the
// user picked, or 0 if they quit.
func RunLobby(updates <-chan protocol.LobbyUpdate, opts LobbyOptions) (int, error) {
	opts.QuitOnPick = true
	model := NewLobbyModel(nil, updates, opts)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	finalModel, err := p.Run()
	if err != nil {
		return 0, err
	}

	m, ok := finalModel.(LobbyModel)
	if !ok {
		return 0, nil
	}
	id, _ := m.Picked()
	return id, nil
}
