package presenter

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/WangYihang/index-crawler/pkg/domain/entity"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const maxRecentTargets = 50

// Dashboard is a TUI dashboard for crawling progress
type Dashboard struct {
	root          string
	metrics       *entity.Metrics
	recentTargets []string // Recent discovered target files
	totalTargets  int
	bar           progress.Model
	width         int
	height        int
	startTime     time.Time
	onQuit        func()
	mu            sync.RWMutex
}

type tickMsg time.Time

// NewDashboard creates a new TUI dashboard for a crawl of root.
// onQuit runs when the user quits; it may be nil.
func NewDashboard(root string, onQuit func()) *Dashboard {
	return &Dashboard{
		root:      root,
		metrics:   &entity.Metrics{},
		bar:       progress.New(progress.WithDefaultGradient()),
		startTime: time.Now(),
		onQuit:    onQuit,
	}
}

// Init initializes the dashboard
func (d *Dashboard) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		tea.EnterAltScreen,
	)
}

// Update handles dashboard updates
func (d *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "Q", "ctrl+c":
			if d.onQuit != nil {
				d.onQuit()
			}
			return d, tea.Quit
		}

	case tea.WindowSizeMsg:
		d.width = msg.Width
		d.height = msg.Height
		d.bar.Width = msg.Width - 8
		return d, nil

	case tickMsg:
		return d, tickCmd()
	}

	return d, nil
}

// View renders the dashboard
func (d *Dashboard) View() string {
	if d.width == 0 {
		return "Initializing..."
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	var sections []string

	header := d.renderHeader()
	sections = append(sections, header)
	headerHeight := lipgloss.Height(header)

	bar := d.renderProgress()
	sections = append(sections, bar)
	barHeight := lipgloss.Height(bar)

	footer := d.renderFooter()
	footerHeight := lipgloss.Height(footer)

	availableHeight := d.height - headerHeight - barHeight - footerHeight
	if availableHeight < 0 {
		availableHeight = 0
	}
	halfHeight := availableHeight / 2

	halfWidth := d.width / 2
	leftWidth := halfWidth
	rightWidth := d.width - leftWidth

	// Row 1: Frontier (Left) | Links (Right)
	row1 := lipgloss.JoinHorizontal(
		lipgloss.Top,
		d.renderFrontierStats(leftWidth, halfHeight),
		d.renderLinkStats(rightWidth, halfHeight),
	)
	sections = append(sections, row1)

	// Row 2: Active fetches (Left) | Recent targets (Right)
	remainingHeight := availableHeight - halfHeight
	row2 := lipgloss.JoinHorizontal(
		lipgloss.Top,
		d.renderActive(leftWidth, remainingHeight),
		d.renderRecentTargets(rightWidth, remainingHeight),
	)
	sections = append(sections, row2)

	sections = append(sections, footer)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// OnMetricsUpdate implements application.MetricsObserver
func (d *Dashboard) OnMetricsUpdate(metrics *entity.Metrics) {
	d.mu.Lock()
	d.metrics = metrics
	d.mu.Unlock()
}

// AddTarget implements application.MetricsObserver
func (d *Dashboard) AddTarget(url string) {
	d.mu.Lock()
	d.totalTargets++
	d.recentTargets = append(d.recentTargets, url)
	if len(d.recentTargets) > maxRecentTargets {
		d.recentTargets = d.recentTargets[len(d.recentTargets)-maxRecentTargets:]
	}
	d.mu.Unlock()
}

func (d *Dashboard) renderHeader() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7D56F4")).
		Padding(0, 1)

	timeStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#999999"))

	title := titleStyle.Render("📂 Index Crawler")
	timeInfo := timeStyle.Render(fmt.Sprintf(" %s | Running: %s | Time: %s",
		d.root, formatElapsed(time.Since(d.startTime)), time.Now().Format("15:04:05")))

	return title + timeInfo
}

func (d *Dashboard) renderProgress() string {
	style := lipgloss.NewStyle().Padding(1, 2, 0, 2)
	return style.Render(d.bar.ViewAs(completion(d.metrics)))
}

func (d *Dashboard) renderFrontierStats(width, height int) string {
	statStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#874BFD")).
		Padding(1, 2).
		Width(width - 2).
		Height(height - 2)

	stats := []string{
		"📊 Frontier",
		"",
		fmt.Sprintf("Queue Length:       %d", d.metrics.QueueLength),
		fmt.Sprintf("In Flight:          %d / %d", d.metrics.InFlight, d.metrics.TotalWorkers),
		fmt.Sprintf("Directories Queued: %d", d.metrics.DirectoriesQueued),
		fmt.Sprintf("Pages Fetched:      %d", d.metrics.PagesFetched),
		fmt.Sprintf("Fetch Errors:       %d", d.metrics.FetchErrors),
	}

	elapsed := time.Since(d.startTime).Seconds()
	if elapsed > 0 {
		stats = append(stats,
			"",
			fmt.Sprintf("Page Rate:          %.1f pages/s", float64(d.metrics.PagesFetched)/elapsed),
		)
	}

	return statStyle.Render(strings.Join(stats, "\n"))
}

func (d *Dashboard) renderLinkStats(width, height int) string {
	statStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#FF6B6B")).
		Padding(1, 2).
		Width(width - 2).
		Height(height - 2)

	stats := []string{
		"🔗 Links",
		"",
		fmt.Sprintf("Target Files:       %d", d.metrics.TargetsFound),
		fmt.Sprintf("Ignored:            %d", d.metrics.LinksIgnored),
		fmt.Sprintf("  on denylist:      %d", d.metrics.LinksDenied),
		fmt.Sprintf("Out of Scope:       %d", d.metrics.LinksOutOfScope),
	}

	return statStyle.Render(strings.Join(stats, "\n"))
}

func (d *Dashboard) renderActive(width, height int) string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#4ECDC4")).
		Padding(1, 2).
		Width(width - 2).
		Height(height - 2)

	lines := []string{"⏳ Workers", ""}
	if len(d.metrics.Workers) == 0 {
		lines = append(lines, "Idle")
	}
	lines = append(lines, tail(workerLines(d.metrics.Workers), height-6)...)

	return style.Render(strings.Join(lines, "\n"))
}

// workerLines renders one line per worker, with the URL it is working on
func workerLines(workers []entity.WorkerStatus) []string {
	lines := make([]string, 0, len(workers))
	for i, w := range workers {
		line := fmt.Sprintf("#%-2d %-11s", i, w.State)
		if w.URL != "" {
			line += " " + w.URL
		}
		lines = append(lines, strings.TrimRight(line, " "))
	}
	return lines
}

func (d *Dashboard) renderRecentTargets(width, height int) string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#04B575")).
		Padding(1, 2).
		Width(width - 2).
		Height(height - 2)

	lines := []string{
		fmt.Sprintf("📦 Recent Targets (Total: %d)", d.totalTargets),
		"",
	}

	if len(d.recentTargets) == 0 {
		lines = append(lines, "No target files discovered yet...")
	}
	// Height - 2 (border) - 2 (padding) - 2 (title + empty line)
	for _, url := range tail(d.recentTargets, height-6) {
		lines = append(lines, fmt.Sprintf("  • %s", url))
	}

	return style.Render(strings.Join(lines, "\n"))
}

func (d *Dashboard) renderFooter() string {
	footerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#626262")).
		Padding(1, 0)

	return footerStyle.Render("Press 'q' or 'Ctrl+C' to stop the crawl")
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*500, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// completion is the share of queued directories that have been processed
func completion(m *entity.Metrics) float64 {
	if m.DirectoriesQueued == 0 {
		return 0
	}
	done := float64(m.PagesFetched + m.FetchErrors)
	ratio := done / float64(m.DirectoriesQueued)
	if ratio > 1 {
		return 1
	}
	return ratio
}

// tail returns the last n items of s
func tail(s []string, n int) []string {
	if n <= 0 {
		return nil
	}
	if len(s) > n {
		return s[len(s)-n:]
	}
	return s
}

func formatElapsed(elapsed time.Duration) string {
	hours := int(elapsed.Hours())
	minutes := int(elapsed.Minutes()) % 60
	seconds := int(elapsed.Seconds()) % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
