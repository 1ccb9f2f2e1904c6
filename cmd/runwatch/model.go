package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/dto"
	"github.com/siddiqueakber/ai-creative-director-sub001/domain/models"
)

// statusFetcher แยกออกมาเพื่อให้ test ใส่ fake ได้
type statusFetcher interface {
	Status(ctx context.Context, runID uuid.UUID) (*dto.RunStatusResponse, error)
}

type statusMsg struct {
	status *dto.RunStatusResponse
}

type fetchErrMsg struct {
	err error
}

type pollMsg struct{}

// หยุดหลัง error ติดกันเท่านี้
const maxFetchErrors = 5

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	panelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

var sceneStyles = map[string]lipgloss.Style{
	string(models.SceneStatusPending):    mutedStyle,
	string(models.SceneStatusProcessing): lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	string(models.SceneStatusReady):      okStyle,
	string(models.SceneStatusFailed):     errorStyle,
}

type watchModel struct {
	runID    uuid.UUID
	client   statusFetcher
	interval time.Duration

	spinner  spinner.Model
	bar      progress.Model
	status   *dto.RunStatusResponse
	errCount int
	lastErr  error
	done     bool
	width    int
}

func newWatchModel(runID uuid.UUID, client statusFetcher, interval time.Duration) watchModel {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("62"))

	return watchModel{
		runID:    runID,
		client:   client,
		interval: interval,
		spinner:  sp,
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, fetchStatusCmd(m.client, m.runID))
}

func fetchStatusCmd(client statusFetcher, runID uuid.UUID) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		status, err := client.Status(ctx, runID)
		if err != nil {
			return fetchErrMsg{err: err}
		}
		return statusMsg{status: status}
	}
}

func (m watchModel) scheduleNext() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg { return pollMsg{} })
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
		return m, nil

	case pollMsg:
		return m, fetchStatusCmd(m.client, m.runID)

	case statusMsg:
		m.status = msg.status
		m.errCount = 0
		m.lastErr = nil
		if isTerminal(msg.status.Status) {
			m.done = true
			return m, tea.Quit
		}
		return m, m.scheduleNext()

	case fetchErrMsg:
		m.errCount++
		m.lastErr = msg.err
		if m.errCount >= maxFetchErrors {
			m.done = true
			return m, tea.Quit
		}
		return m, m.scheduleNext()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func isTerminal(status string) bool {
	return status == string(models.RunStatusReady) || status == string(models.RunStatusFailed)
}

func (m watchModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Run " + m.runID.String()))
	b.WriteString("\n\n")

	if m.status == nil {
		if m.lastErr != nil {
			b.WriteString(errorStyle.Render("error: "+m.lastErr.Error()) + "\n")
		} else {
			b.WriteString(m.spinner.View() + " loading...\n")
		}
		return b.String()
	}

	s := m.status
	layer := models.Layer(s.CurrentLayer)
	header := fmt.Sprintf("%s  layer %d/7 (%s)  attempt %d", s.Status, s.CurrentLayer, layer.StageName(), s.Attempt)
	if !m.done {
		header = m.spinner.View() + " " + header
	}
	b.WriteString(header + "\n")
	b.WriteString(m.bar.ViewAs(s.Progress/100) + "\n\n")

	if len(s.Scenes) > 0 {
		var rows []string
		for _, sc := range s.Scenes {
			style, ok := sceneStyles[sc.Status]
			if !ok {
				style = mutedStyle
			}
			rows = append(rows, fmt.Sprintf("scene %2d  %s", sc.Index, style.Render(sc.Status)))
		}
		b.WriteString(panelStyle.Render(strings.Join(rows, "\n")) + "\n")
	}

	switch s.Status {
	case string(models.RunStatusReady):
		b.WriteString(okStyle.Render("ready") + "  " + s.FinalVideoURL + "\n")
		if s.TotalDuration > 0 {
			b.WriteString(mutedStyle.Render(fmt.Sprintf("duration %.1fs", s.TotalDuration)) + "\n")
		}
	case string(models.RunStatusFailed):
		line := "failed"
		if s.ErrorLayer != nil {
			line = fmt.Sprintf("failed at layer %d", *s.ErrorLayer)
		}
		b.WriteString(errorStyle.Render(line) + "  " + s.ErrorMessage + "\n")
	}

	if m.lastErr != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("poll error (%d/%d): %v", m.errCount, maxFetchErrors, m.lastErr)) + "\n")
	}
	if !m.done {
		b.WriteString(mutedStyle.Render("q to quit") + "\n")
	}
	return b.String()
}
