package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// CallStage represents where the call currently is.
type CallStage int

const (
	StageConnecting CallStage = iota
	StageWaiting
	StageNegotiating
	StageInCall
	StageEnded
	StageError
)

// CallUpdate is a message sent from external goroutines to update the view.
type CallUpdate struct {
	Type    CallUpdateType
	Message string
	Err     error
}

type CallUpdateType int

const (
	UpdateStage CallUpdateType = iota
	UpdateRole
	UpdateWaiting
	UpdateNegotiating
	UpdateInCall
	UpdatePeerLeft
	UpdatePeerMuted
	UpdateEnded
	UpdateCallError
)

// CallActions are the hooks the view invokes on key presses. Each toggle
// returns the new muted state so the view can render it.
type CallActions struct {
	ToggleMic func() bool
	ToggleCam func() bool
	Hangup    func()
}

// CallModel is the Bubble Tea model for a live call.
type CallModel struct {
	roomID string
	role   string

	stage    CallStage
	stageMsg string
	err      error

	micMuted   bool
	camMuted   bool
	peerNotice string

	spinner   spinner.Model
	startTime time.Time

	actions    CallActions
	updateChan chan CallUpdate
	done       chan struct{}

	mu sync.RWMutex
}

// NewCallModel creates the model for a call in the given room. The role is
// unknown until the server assigns one at join time.
func NewCallModel(roomID string, actions CallActions) *CallModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return &CallModel{
		roomID:     roomID,
		stage:      StageConnecting,
		stageMsg:   "Joining room...",
		spinner:    s,
		actions:    actions,
		updateChan: make(chan CallUpdate, 32),
		done:       make(chan struct{}),
	}
}

// Updates returns the channel for sending view updates.
func (m *CallModel) Updates() chan<- CallUpdate {
	return m.updateChan
}

// Close releases the update listener.
func (m *CallModel) Close() {
	close(m.done)
}

func (m *CallModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForUpdates())
}

func (m *CallModel) waitForUpdates() tea.Cmd {
	return func() tea.Msg {
		select {
		case update := <-m.updateChan:
			return update
		case <-m.done:
			return nil
		}
	}
}

func (m *CallModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.actions.Hangup != nil {
				m.actions.Hangup()
			}
			return m, tea.Quit
		case "m":
			if m.actions.ToggleMic != nil {
				muted := m.actions.ToggleMic()
				m.mu.Lock()
				m.micMuted = muted
				m.mu.Unlock()
			}
		case "v":
			if m.actions.ToggleCam != nil {
				muted := m.actions.ToggleCam()
				m.mu.Lock()
				m.camMuted = muted
				m.mu.Unlock()
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case CallUpdate:
		if quit := m.handleUpdate(msg); quit {
			return m, tea.Quit
		}
		cmds = append(cmds, m.waitForUpdates())
	}

	return m, tea.Batch(cmds...)
}

func (m *CallModel) handleUpdate(update CallUpdate) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch update.Type {
	case UpdateStage:
		m.stageMsg = update.Message

	case UpdateRole:
		m.role = update.Message

	case UpdateWaiting:
		m.stage = StageWaiting
		m.stageMsg = "Waiting for someone to join..."
		m.peerNotice = ""

	case UpdateNegotiating:
		m.stage = StageNegotiating
		m.stageMsg = update.Message

	case UpdateInCall:
		m.stage = StageInCall
		if m.startTime.IsZero() {
			m.startTime = time.Now()
		}

	case UpdatePeerLeft:
		m.stage = StageWaiting
		m.stageMsg = "Waiting for someone to join..."
		m.peerNotice = update.Message
		m.startTime = time.Time{}

	case UpdatePeerMuted:
		m.peerNotice = update.Message

	case UpdateEnded:
		m.stage = StageEnded
		return true

	case UpdateCallError:
		m.stage = StageError
		m.err = update.Err
		return true
	}
	return false
}

func (m *CallModel) View() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var b strings.Builder

	title := fmt.Sprintf("%s Kaiwa - Room %s", IconCall, m.roomID)
	if m.role != "" {
		title += fmt.Sprintf(" (%s)", m.role)
	}
	b.WriteString(HeaderStyle.Render(title) + "\n\n")

	switch m.stage {
	case StageConnecting, StageWaiting, StageNegotiating:
		b.WriteString(fmt.Sprintf("%s %s", m.spinner.View(), m.stageMsg))

	case StageInCall:
		b.WriteString(m.viewInCall())

	case StageEnded:
		b.WriteString(MutedStyle.Render(fmt.Sprintf("%s Call ended", IconBye)))

	case StageError:
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("%s Call failed", IconError)))
		if m.err != nil {
			b.WriteString("\n\n" + ErrorBoxStyle.Render(m.err.Error()))
		}
	}

	if m.peerNotice != "" {
		b.WriteString("\n\n" + WarningStyle.Render(m.peerNotice))
	}

	b.WriteString("\n" + m.viewFooter())

	return ContainerStyle.Render(b.String())
}

func (m *CallModel) viewInCall() string {
	var b strings.Builder

	b.WriteString(SuccessStyle.Render(fmt.Sprintf("%s Connected", IconPeer)))
	if !m.startTime.IsZero() {
		elapsed := time.Since(m.startTime).Round(time.Second)
		b.WriteString(MutedStyle.Render(fmt.Sprintf("  %s", elapsed)))
	}
	b.WriteString("\n\n")

	mic := fmt.Sprintf("%s mic on", IconMic)
	if m.micMuted {
		mic = fmt.Sprintf("%s mic muted", IconMicOff)
	}
	cam := fmt.Sprintf("%s camera on", IconCam)
	if m.camMuted {
		cam = fmt.Sprintf("%s camera off", IconCamOff)
	}
	b.WriteString(fmt.Sprintf("  %s    %s", mic, cam))

	return b.String()
}

func (m *CallModel) viewFooter() string {
	switch m.stage {
	case StageEnded, StageError:
		return FooterStyle.Render("Press 'q' to exit")
	case StageInCall:
		return FooterStyle.Render("m: toggle mic  v: toggle camera  q: hang up")
	default:
		return FooterStyle.Render("Press 'q' or Ctrl+C to cancel")
	}
}
