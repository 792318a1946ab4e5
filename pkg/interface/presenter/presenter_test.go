package presenter

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/WangYihang/index-crawler/pkg/domain/entity"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboard_QuitCallsOnQuit(t *testing.T) {
	quit := false
	d := NewDashboard("http://h/files/", func() { quit = true })

	_, cmd := d.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
	assert.True(t, quit)
}

func TestDashboard_View(t *testing.T) {
	d := NewDashboard("http://h/files/", nil)
	assert.Equal(t, "Initializing...", d.View())

	d.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	d.OnMetricsUpdate(&entity.Metrics{
		QueueLength:       3,
		InFlight:          2,
		TotalWorkers:      5,
		PagesFetched:      10,
		DirectoriesQueued: 15,
		TargetsFound:      1,
		Workers: []entity.WorkerStatus{
			{State: entity.Fetching, URL: "http://h/files/a/"},
			{State: entity.Idle},
		},
	})
	d.AddTarget("http://h/files/x.zip")

	view := d.View()
	assert.Contains(t, view, "Index Crawler")
	assert.Contains(t, view, "http://h/files/x.zip")
	assert.Contains(t, view, "http://h/files/a/")
	assert.Contains(t, view, "Workers")
}

func TestWorkerLines(t *testing.T) {
	lines := workerLines([]entity.WorkerStatus{
		{State: entity.Fetching, URL: "http://h/files/a/"},
		{State: entity.Classifying, URL: "http://h/files/b/"},
		{State: entity.Idle},
		{State: entity.Stopped},
	})

	assert.Equal(t, []string{
		"#0  fetching    http://h/files/a/",
		"#1  classifying http://h/files/b/",
		"#2  idle",
		"#3  stopped",
	}, lines)
}

func TestDashboard_KeepsRecentTargets(t *testing.T) {
	d := NewDashboard("http://h/files/", nil)
	for i := 0; i < maxRecentTargets+10; i++ {
		d.AddTarget(fmt.Sprintf("http://h/files/%d.zip", i))
	}

	assert.Len(t, d.recentTargets, maxRecentTargets)
	assert.Equal(t, maxRecentTargets+10, d.totalTargets)
	assert.Equal(t, "http://h/files/10.zip", d.recentTargets[0])
}

func TestCompletion(t *testing.T) {
	assert.Zero(t, completion(&entity.Metrics{}))
	assert.InDelta(t, 0.5, completion(&entity.Metrics{DirectoriesQueued: 4, PagesFetched: 1, FetchErrors: 1}), 1e-9)
	assert.Equal(t, 1.0, completion(&entity.Metrics{DirectoriesQueued: 1, PagesFetched: 3}))
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "42s", formatElapsed(42*time.Second))
	assert.Equal(t, "3m 5s", formatElapsed(3*time.Minute+5*time.Second))
	assert.Equal(t, "1h 0m 1s", formatElapsed(time.Hour+time.Second))
}

func TestProgressBar(t *testing.T) {
	var out bytes.Buffer
	bar := NewProgressBar(&out, "http://h/files/")

	bar.OnMetricsUpdate(&entity.Metrics{DirectoriesQueued: 4, PagesFetched: 2})
	bar.AddTarget("http://h/files/x.zip")
	bar.AddTarget("http://h/files/y.zip")

	done := make(chan struct{})
	go func() {
		bar.Finish()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("progress bar did not finish")
	}
	assert.Equal(t, int64(2), bar.targets.Load())
}

func TestPrintSummary(t *testing.T) {
	var out bytes.Buffer
	PrintSummary(&out, &entity.CrawlReport{
		Targets:      []string{"http://h/files/a/y.zip", "http://h/files/x.zip"},
		PagesFetched: 2,
		FetchErrors:  1,
		Elapsed:      1500 * time.Millisecond,
	}, "links.txt", false)

	assert.Equal(t, "Crawling completed successfully!\n"+
		"Found 2 target files\n"+
		"Results saved to: links.txt\n"+
		"Pages fetched: 2, fetch errors: 1, elapsed: 1.5s\n", out.String())
}

func TestPrintSummary_Interrupted(t *testing.T) {
	var out bytes.Buffer
	PrintSummary(&out, &entity.CrawlReport{Interrupted: true}, "-", false)

	assert.Contains(t, out.String(), "Crawling interrupted by user\n")
	assert.Contains(t, out.String(), "Found 0 target files\n")
	assert.Contains(t, out.String(), "Results written to stdout\n")
}

func TestPrintProbe(t *testing.T) {
	var out bytes.Buffer
	PrintProbe(&out, &entity.ProbeResult{
		URL:           "http://h/files",
		FinalURL:      "http://h/files/",
		StatusCode:    200,
		ContentLength: 1024,
		Preview:       "<html>",
	}, nil, false)

	assert.Contains(t, out.String(), "Redirected to:  http://h/files/\n")
	assert.Contains(t, out.String(), "Status:         200\n")
	assert.Contains(t, out.String(), "Connection successful\n")

	out.Reset()
	PrintProbe(&out, nil, errors.New("connection refused"), false)
	assert.Equal(t, "Connection failed: connection refused\n", out.String())
}
