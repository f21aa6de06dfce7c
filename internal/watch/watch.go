// Package watch provides the live context-usage dashboard for `cgate watch`.
package watch

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/cgate/internal/cli"
	"github.com/theirongolddev/cgate/internal/config"
	"github.com/theirongolddev/cgate/internal/journal"
	"github.com/theirongolddev/cgate/internal/transcript"
)

// refreshInterval is how often the dashboard re-samples transcripts
// and re-reads the firing journal.
const refreshInterval = 10 * time.Second

// maxSessionRows bounds the per-session usage list.
const maxSessionRows = 12

// maxFiringRows bounds the recent-firings feed.
const maxFiringRows = 8

// dataMsg carries a completed refresh.
type dataMsg struct {
	samples []transcript.SessionSample
	firings []journal.Entry
	err     error
}

// tickMsg drives the auto-refresh loop.
type tickMsg time.Time

// Model is the root Bubble Tea model for the watch dashboard.
type Model struct {
	cfg       config.Config
	claudeDir string

	samples []transcript.SessionSample
	firings []journal.Entry

	loaded      bool
	refreshing  bool
	lastRefresh time.Time
	loadErr     error

	spinner spinner.Model
	width   int
	height  int
}

// New builds the dashboard model. claudeDir is the already-resolved
// Claude data directory.
func New(cfg config.Config, claudeDir string) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(cli.ColorAccent)

	return Model{
		cfg:       cfg,
		claudeDir: claudeDir,
		spinner:   sp,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		refreshCmd(m.claudeDir),
		m.spinner.Tick,
		tickCmd(),
	)
}

// refreshCmd samples every discovered transcript tail and reads the
// newest journal firings in the background.
func refreshCmd(claudeDir string) tea.Cmd {
	return func() tea.Msg {
		files, err := transcript.ScanDir(claudeDir)
		if err != nil {
			return dataMsg{err: err}
		}
		samples := transcript.SampleAll(files, nil)

		var firings []journal.Entry
		if j, err := journal.Open(config.JournalPath()); err == nil {
			firings, _ = j.Recent(maxFiringRows)
			_ = j.Close()
		}

		return dataMsg{samples: samples, firings: firings}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			if !m.refreshing {
				m.refreshing = true
				return m, refreshCmd(m.claudeDir)
			}
		}
		return m, nil

	case dataMsg:
		m.loaded = true
		m.refreshing = false
		m.lastRefresh = time.Now()
		m.loadErr = msg.err
		if msg.err == nil {
			m.samples = sortByActivity(msg.samples)
			m.firings = msg.firings
		}
		return m, nil

	case tickMsg:
		if m.refreshing {
			return m, tickCmd()
		}
		m.refreshing = true
		return m, tea.Batch(refreshCmd(m.claudeDir), tickCmd())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// sortByActivity orders samples most-recently-active first.
func sortByActivity(samples []transcript.SessionSample) []transcript.SessionSample {
	sorted := make([]transcript.SessionSample, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].State.LastTime.After(sorted[j].State.LastTime)
	})
	return sorted
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(cli.ColorText)
	b.WriteString("\n  ")
	b.WriteString(titleStyle.Render("cgate watch"))
	if m.refreshing {
		b.WriteString("  " + m.spinner.View())
	} else if !m.lastRefresh.IsZero() {
		b.WriteString(cli.Muted(fmt.Sprintf("  refreshed %s", cli.FormatRelative(m.lastRefresh, time.Now()))))
	}
	b.WriteString("\n\n")

	if !m.loaded {
		b.WriteString(fmt.Sprintf("  %s sampling sessions...\n", m.spinner.View()))
		return b.String()
	}
	if m.loadErr != nil {
		b.WriteString(cli.Warn(fmt.Sprintf("  scan failed: %s\n", m.loadErr)))
		return b.String()
	}

	b.WriteString(m.viewSessions())
	b.WriteString(m.viewFirings())

	b.WriteString(cli.Muted("\n  r refresh · q quit\n"))
	return b.String()
}

func (m Model) viewSessions() string {
	var b strings.Builder

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(cli.ColorAccent)
	b.WriteString("  " + headerStyle.Render("Context usage") + "\n")

	shown := 0
	now := time.Now()
	for _, s := range m.samples {
		if s.State.Sample == nil {
			continue
		}
		if shown >= maxSessionRows {
			break
		}
		shown++

		capacity := config.ResolveCapacity(m.cfg, s.State.Model)
		pct := s.State.Sample.Percent(capacity)

		bar := progress.New(
			progress.WithSolidFill(string(cli.ColorForPercent(pct))),
			progress.WithWidth(24),
			progress.WithoutPercentage(),
		)
		bar.EmptyColor = string(cli.ColorTextDim)

		frac := float64(pct) / 100
		if frac > 1 {
			frac = 1
		}

		label := cli.Truncate(s.File.Project, 16)
		if s.File.IsSubagent {
			label = cli.Truncate(s.File.Project+" (sub)", 16)
		}

		b.WriteString(fmt.Sprintf("  %-16s %s %3d%%  %s  %s\n",
			label,
			bar.ViewAs(frac),
			pct,
			cli.FormatTokens(s.State.Sample.Consumed()),
			cli.Muted(cli.FormatRelative(s.State.LastTime, now)),
		))
	}

	if shown == 0 {
		b.WriteString(cli.Muted("  no active sessions\n"))
	}
	return b.String()
}

func (m Model) viewFirings() string {
	var b strings.Builder

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(cli.ColorAccent)
	b.WriteString("\n  " + headerStyle.Render("Recent firings") + "\n")

	if len(m.firings) == 0 {
		b.WriteString(cli.Muted("  none recorded\n"))
		return b.String()
	}

	now := time.Now()
	for _, f := range m.firings {
		detail := ""
		if f.Percent > 0 {
			detail = fmt.Sprintf(" at %d%%", f.Percent)
		}
		b.WriteString(fmt.Sprintf("  %-22s %s%s  %s\n",
			string(f.Trigger),
			cli.Truncate(f.SessionID, 12),
			detail,
			cli.Muted(cli.FormatRelative(f.CreatedAt, now)),
		))
	}
	return b.String()
}
