package presenter

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/WangYihang/index-crawler/pkg/domain/entity"
	"github.com/olekukonko/ts"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

const defaultBarWidth = 40

// ProgressBar renders processed directories against discovered directories
type ProgressBar struct {
	progress *mpb.Progress
	bar      *mpb.Bar
	targets  atomic.Int64
}

// NewProgressBar creates a progress bar labelled name writing to out
func NewProgressBar(out io.Writer, name string) *ProgressBar {
	pb := &ProgressBar{}

	pb.progress = mpb.New(
		mpb.WithOutput(out),
		mpb.WithWidth(barWidth()),
	)
	pb.bar = pb.progress.AddBar(0,
		mpb.BarOptional(mpb.BarRemoveOnComplete(), false),
		mpb.PrependDecorators(
			decor.Name(name, decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.CountersNoUnit("[%d / %d]", decor.WCSyncWidth),
			decor.Percentage(decor.WCSyncSpace),
			decor.Any(func(decor.Statistics) string {
				return fmt.Sprintf("targets: %d", pb.targets.Load())
			}, decor.WCSyncSpace),
		),
	)
	return pb
}

// barWidth sizes the bar to a third of the terminal
func barWidth() int {
	size, err := ts.GetSize()
	if err != nil || size.Col() <= 0 {
		return defaultBarWidth
	}
	if width := size.Col() / 3; width > 10 {
		return width
	}
	return 10
}

// OnMetricsUpdate implements application.MetricsObserver
func (p *ProgressBar) OnMetricsUpdate(metrics *entity.Metrics) {
	p.bar.SetTotal(metrics.DirectoriesQueued, false)
	p.bar.SetCurrent(metrics.PagesFetched + metrics.FetchErrors)
}

// AddTarget implements application.MetricsObserver
func (p *ProgressBar) AddTarget(string) {
	p.targets.Add(1)
}

// Finish completes the bar and waits for the final render
func (p *ProgressBar) Finish() {
	p.bar.SetTotal(-1, true)
	p.progress.Wait()
}
