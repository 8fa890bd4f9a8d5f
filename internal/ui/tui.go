package ui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const defaultTUIInterval = 100 * time.Millisecond

// TUIRenderer draws a live progress panel with bubbletea.
type TUIRenderer struct {
	mu      sync.Mutex
	cfg     Config
	program *tea.Program
	model   *buildModel
	cancel  context.CancelFunc
	started bool
	done    chan struct{}
}

// NewTUIRenderer creates a TUI renderer.
// Returns an error if the output is not a terminal.
func NewTUIRenderer(cfg Config) (*TUIRenderer, error) {
	if !IsTTY(cfg.Output) {
		return nil, fmt.Errorf("output is not a TTY")
	}

	model := newBuildModel(cfg.Interval)
	if cfg.NoColor || DetectNoColor() {
		model.styles = NoColorStyles()
	}

	return &TUIRenderer{
		cfg:   cfg,
		model: model,
		done:  make(chan struct{}),
	}, nil
}

// Start implements Renderer.
func (r *TUIRenderer) Start(ctx context.Context, p *Progress) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return nil
	}

	ctx, r.cancel = context.WithCancel(ctx)
	r.model.progress = p
	r.model.meter = newRateMeter(time.Now())

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if f, ok := r.cfg.Output.(*os.File); ok {
		opts = append(opts, tea.WithOutput(f))
	}

	r.program = tea.NewProgram(r.model, opts...)
	r.started = true

	go func() {
		defer close(r.done)
		_, _ = r.program.Run()
	}()

	return nil
}

// SetStage implements Renderer.
func (r *TUIRenderer) SetStage(stage string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.program != nil {
		r.program.Send(stageMsg(stage))
	}
}

// Complete implements Renderer.
func (r *TUIRenderer) Complete(s Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.program != nil {
		r.program.Send(completeMsg(s))
	}
}

// Stop implements Renderer.
func (r *TUIRenderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.program == nil {
		return nil
	}

	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		// the program did not exit on its own after Complete
		r.program.Quit()
		select {
		case <-r.done:
		case <-time.After(time.Second):
		}
	}
	if r.cancel != nil {
		r.cancel()
	}
	r.program = nil
	return nil
}

type stageMsg string
type completeMsg Summary
type tickMsg time.Time

// buildModel is the bubbletea model for a running build.
type buildModel struct {
	progress *Progress
	meter    *rateMeter
	interval time.Duration
	stage    string
	width    int
	quitting bool
	complete bool
	summary  Summary
	spinner  spinner.Model
	bar      progress.Model
	styles   Styles
}

func newBuildModel(interval time.Duration) *buildModel {
	if interval <= 0 {
		interval = defaultTUIInterval
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccent))

	return &buildModel{
		interval: interval,
		stage:    "Starting",
		width:    80,
		spinner:  s,
		bar: progress.New(
			progress.WithSolidFill(ColorAccent),
			progress.WithWidth(50),
			progress.WithoutPercentage(),
		),
		styles: DefaultStyles(),
	}
}

// Init implements tea.Model.
func (m *buildModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.tick())
}

func (m *buildModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m *buildModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			// the build keeps running; only the display goes away
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = max(msg.Width-30, 20)

	case stageMsg:
		m.stage = string(msg)

	case completeMsg:
		m.complete = true
		m.summary = Summary(msg)
		return m, tea.Quit

	case tickMsg:
		if m.progress != nil && m.meter != nil {
			m.meter.observe(m.progress.Current(), time.Time(msg))
		}
		return m, m.tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m *buildModel) View() string {
	if m.quitting {
		return "Display closed; the build continues in the background.\n"
	}
	if m.complete {
		return m.renderComplete()
	}

	contentWidth := max(m.width-4, 40)

	title := "booksearch indexer"
	if m.progress != nil && m.progress.Label() != "" {
		title = fmt.Sprintf("booksearch • %s", m.progress.Label())
	}

	sections := []string{
		m.styles.Active.Render(m.spinner.View() + " " + m.stage),
		m.styles.Border.Render(strings.Repeat("─", contentWidth)),
		m.renderProgress(),
		m.renderSpeed(),
	}

	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorBorder)).
		Padding(0, 1).
		Width(contentWidth)

	return lipgloss.JoinVertical(lipgloss.Left,
		m.styles.Header.Render(title),
		panel.Render(strings.Join(sections, "\n")),
	) + "\n" + m.styles.Dim.Render("q to hide")
}

func (m *buildModel) renderProgress() string {
	if m.progress == nil {
		return m.styles.Dim.Render("Counting rows...")
	}

	bar := m.bar.ViewAs(m.progress.Fraction())
	pct := m.styles.Active.Render(fmt.Sprintf("%3.0f%%", m.progress.Fraction()*100))
	count := m.styles.Label.Render(fmt.Sprintf("%d / %d rows  [%s]",
		m.progress.Current(), m.progress.Total(), formatElapsed(m.progress.Elapsed())))

	return fmt.Sprintf("%s  %s\n%s", bar, pct, count)
}

func (m *buildModel) renderSpeed() string {
	if m.meter == nil || m.progress == nil {
		return ""
	}

	parts := []string{m.styles.Speed.Render(fmt.Sprintf("Speed: %.0f rows/s", m.meter.current))}
	if m.meter.avg > 0 {
		parts[0] = m.styles.Speed.Render(fmt.Sprintf("Speed: %.0f rows/s (avg: %.0f, peak: %.0f)",
			m.meter.current, m.meter.avg, m.meter.peak))
	}
	if eta := m.meter.eta(m.progress.Current(), m.progress.Total()); eta > 0 {
		parts = append(parts, m.styles.Label.Render("ETA: "+formatDuration(eta)))
	}
	return strings.Join(parts, m.styles.Dim.Render("  •  "))
}

func (m *buildModel) renderComplete() string {
	s := m.summary
	var lines []string

	if s.Err != nil {
		lines = append(lines, m.styles.Error.Render("✗ Indexing failed"), "", s.Err.Error())
	} else {
		lines = append(lines, m.styles.Success.Render("✓ Indexing complete"), "")
		lines = append(lines,
			fmt.Sprintf("%s  %s", m.styles.Label.Render("Documents:"), m.styles.Active.Render(fmt.Sprintf("%d", s.Added))),
			fmt.Sprintf("%s       %s", m.styles.Label.Render("Rows:"), m.styles.Active.Render(fmt.Sprintf("%d", s.Consumed))),
			fmt.Sprintf("%s   %s", m.styles.Label.Render("Duration:"), m.styles.Active.Render(formatDuration(s.Duration))),
		)
		if s.DecodeErrors > 0 {
			lines = append(lines, m.styles.Warning.Render(fmt.Sprintf("⚠ %d rows could not be decoded", s.DecodeErrors)))
		}
		if s.AddErrors > 0 {
			lines = append(lines, m.styles.Warning.Render(fmt.Sprintf("⚠ %d documents rejected", s.AddErrors)))
		}
	}

	border := ColorAccent
	if s.Err != nil {
		border = ColorRed
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(border)).
		Padding(1, 2).
		Width(max(m.width-4, 40)).
		Render(strings.Join(lines, "\n")) + "\n"
}

// formatDuration formats a duration in a human-friendly way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		if s == 0 {
			return fmt.Sprintf("%dm", m)
		}
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}

var _ Renderer = (*TUIRenderer)(nil)
