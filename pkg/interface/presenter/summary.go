package presenter

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/WangYihang/index-crawler/pkg/domain/entity"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// IsTerminal reports whether f is attached to a terminal that takes colors
func IsTerminal(f *os.File) bool {
	if f == nil || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type palette struct {
	ok, warn, fail, bold, dim *color.Color
}

func newPalette(colored bool) palette {
	p := palette{
		ok:   color.New(color.FgGreen, color.Bold),
		warn: color.New(color.FgYellow, color.Bold),
		fail: color.New(color.FgRed, color.Bold),
		bold: color.New(color.Bold),
		dim:  color.New(color.FgHiBlack),
	}
	for _, c := range []*color.Color{p.ok, p.warn, p.fail, p.bold, p.dim} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// PrintSummary writes the end of run summary
func PrintSummary(w io.Writer, report *entity.CrawlReport, outputPath string, colored bool) {
	p := newPalette(colored)

	if report.Interrupted {
		fmt.Fprintln(w, p.warn.Sprint("Crawling interrupted by user"))
	} else {
		fmt.Fprintln(w, p.ok.Sprint("Crawling completed successfully!"))
	}

	fmt.Fprintf(w, "Found %s target files\n", p.bold.Sprint(len(report.Targets)))
	if outputPath == "-" {
		fmt.Fprintln(w, "Results written to stdout")
	} else {
		fmt.Fprintf(w, "Results saved to: %s\n", p.bold.Sprint(outputPath))
	}

	failed := fmt.Sprint(report.FetchErrors)
	if report.FetchErrors > 0 {
		failed = p.fail.Sprint(report.FetchErrors)
	}
	fmt.Fprintln(w, p.dim.Sprintf("Pages fetched: %d, fetch errors: ", report.PagesFetched)+failed+
		p.dim.Sprintf(", elapsed: %s", report.Elapsed.Round(time.Millisecond)))
}

// PrintProbe writes the outcome of a connectivity probe
func PrintProbe(w io.Writer, result *entity.ProbeResult, probeErr error, colored bool) {
	p := newPalette(colored)

	if result != nil {
		fmt.Fprintf(w, "URL:            %s\n", result.URL)
		if result.FinalURL != result.URL {
			fmt.Fprintf(w, "Redirected to:  %s\n", result.FinalURL)
		}
		fmt.Fprintf(w, "Status:         %d\n", result.StatusCode)
		fmt.Fprintf(w, "Content length: %d bytes\n", result.ContentLength)
		if preview := strings.TrimSpace(result.Preview); preview != "" {
			fmt.Fprintln(w, "Preview:")
			fmt.Fprintln(w, p.dim.Sprint(preview))
		}
	}

	if probeErr != nil {
		fmt.Fprintln(w, p.fail.Sprintf("Connection failed: %v", probeErr))
		return
	}
	fmt.Fprintln(w, p.ok.Sprint("Connection successful"))
}
