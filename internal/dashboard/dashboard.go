// Package dashboard renders a live terminal UI for a running load batch.
package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/convofire/convofire/internal/metrics"
)

// RunConfig holds the batch parameters shown in the summary panel.
type RunConfig struct {
	BaseURL      string
	InterviewKey string
	Sessions     int
	Turns        int
	Workers      int
	LaunchRate   int
	Timeout      time.Duration
	ConfigFile   string
}

// Dashboard renders live batch metrics with termui.
type Dashboard struct {
	agg          *metrics.Aggregator
	ctx          context.Context
	cancel       context.CancelFunc
	shutdownFunc func()
	wg           sync.WaitGroup
	mu           sync.Mutex

	grid         *ui.Grid
	summaryPara  *widgets.Paragraph
	sessionGauge *widgets.Gauge
	metricsPara  *widgets.Paragraph
	rpsSparkle   *widgets.SparklineGroup
	errorList    *widgets.List
	rpsHistory   []float64
	startTime    time.Time
	runConfig    RunConfig
}

// New creates a new Dashboard.
func New(agg *metrics.Aggregator, cfg RunConfig, shutdownFunc func()) (*Dashboard, error) {
	if err := ui.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize termui: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &Dashboard{
		agg:          agg,
		ctx:          ctx,
		cancel:       cancel,
		shutdownFunc: shutdownFunc,
		rpsHistory:   make([]float64, 0, 100),
		startTime:    time.Now(),
		runConfig:    cfg,
	}

	d.initWidgets()
	d.setupGrid()

	return d, nil
}

func (d *Dashboard) initWidgets() {
	d.summaryPara = widgets.NewParagraph()
	d.summaryPara.Title = "Interview Load Test"
	d.summaryPara.Text = "Initializing..."
	d.summaryPara.BorderStyle.Fg = ui.ColorCyan

	d.sessionGauge = widgets.NewGauge()
	d.sessionGauge.Title = "Sessions Completed"
	d.sessionGauge.Percent = 0
	d.sessionGauge.BarColor = ui.ColorBlue
	d.sessionGauge.BorderStyle.Fg = ui.ColorCyan
	d.sessionGauge.LabelStyle = ui.NewStyle(ui.ColorWhite)

	d.metricsPara = widgets.NewParagraph()
	d.metricsPara.Title = "Metrics"
	d.metricsPara.Text = "Waiting for data..."
	d.metricsPara.BorderStyle.Fg = ui.ColorCyan

	sparkline := widgets.NewSparkline()
	sparkline.Title = "RPS"
	sparkline.LineColor = ui.ColorGreen
	sparkline.Data = []float64{0}

	d.rpsSparkle = widgets.NewSparklineGroup(sparkline)
	d.rpsSparkle.Title = "Requests Per Second"
	d.rpsSparkle.BorderStyle.Fg = ui.ColorCyan

	d.errorList = widgets.NewList()
	d.errorList.Title = "Failures"
	d.errorList.Rows = []string{"No failures"}
	d.errorList.TextStyle = ui.NewStyle(ui.ColorYellow)
	d.errorList.BorderStyle.Fg = ui.ColorCyan
}

func (d *Dashboard) setupGrid() {
	termWidth, termHeight := ui.TerminalDimensions()

	d.grid = ui.NewGrid()
	d.grid.SetRect(0, 0, termWidth, termHeight)

	d.grid.Set(
		ui.NewRow(0.2,
			ui.NewCol(1.0, d.summaryPara),
		),
		ui.NewRow(0.2,
			ui.NewCol(1.0, d.sessionGauge),
		),
		ui.NewRow(0.3,
			ui.NewCol(0.5, d.metricsPara),
			ui.NewCol(0.5, d.rpsSparkle),
		),
		ui.NewRow(0.3,
			ui.NewCol(1.0, d.errorList),
		),
	)
}

// Start begins the dashboard update loop.
func (d *Dashboard) Start() {
	d.wg.Add(1)
	go d.run()
}

// Stop stops the dashboard and restores the terminal.
func (d *Dashboard) Stop() {
	d.cancel()
	d.wg.Wait()
	ui.Close()
	// Give terminal time to restore
	time.Sleep(100 * time.Millisecond)
}

func (d *Dashboard) run() {
	defer d.wg.Done()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	uiEvents := ui.PollEvents()

	d.render()

	for {
		select {
		case <-d.ctx.Done():
			for len(uiEvents) > 0 {
				<-uiEvents
			}
			return
		case e := <-uiEvents:
			select {
			case <-d.ctx.Done():
				return
			default:
			}

			switch e.ID {
			case "q", "<C-c>":
				if d.shutdownFunc != nil {
					d.shutdownFunc()
				}
				// Do not return here; wait for Stop() to cancel context
			case "<Resize>":
				payload := e.Payload.(ui.Resize)
				d.grid.SetRect(0, 0, payload.Width, payload.Height)
				ui.Clear()
				d.render()
			}
		case <-ticker.C:
			d.update()
			d.render()
		}
	}
}

func (d *Dashboard) update() {
	d.mu.Lock()
	defer d.mu.Unlock()

	elapsed := time.Since(d.startTime)
	snap := d.agg.LiveSnapshot()

	total := d.runConfig.Sessions
	percent := 0
	if total > 0 {
		percent = int(float64(snap.SessionsDone) / float64(total) * 100)
	}
	if percent > 100 {
		percent = 100
	}
	d.sessionGauge.Percent = percent
	d.sessionGauge.Label = fmt.Sprintf("%d / %d sessions", snap.SessionsDone, total)

	d.rpsHistory = append(d.rpsHistory, snap.RequestsPerSec)
	if len(d.rpsHistory) > 100 {
		d.rpsHistory = d.rpsHistory[1:]
	}
	d.rpsSparkle.Sparklines[0].Data = d.rpsHistory
	d.rpsSparkle.Title = fmt.Sprintf("Requests Per Second | Current: %.1f", snap.RequestsPerSec)

	d.summaryPara.Text = fmt.Sprintf(
		"Target: %s\nInterview: %s | %s\nElapsed: %s",
		d.runConfig.BaseURL,
		d.runConfig.InterviewKey,
		d.formatRunParams(),
		elapsed.Round(time.Second),
	)

	d.metricsPara.Text = fmt.Sprintf(
		"Requests:          %d\nRequest Failures:  %d\nSessions Done:     %d\nSessions Failed:   %d\nCurrent RPS:       %.2f",
		snap.Requests,
		snap.RequestFailures,
		snap.SessionsDone,
		snap.SessionsFailed,
		snap.RequestsPerSec,
	)

	d.errorList.Rows = d.failureRows()
}

func (d *Dashboard) render() {
	d.mu.Lock()
	defer d.mu.Unlock()

	ui.Render(d.grid)
}

func (d *Dashboard) failureRows() []string {
	summary := d.agg.Summary(time.Since(d.startTime))
	if len(summary.Errors) == 0 {
		return []string{"[No failures](fg:green)"}
	}

	names := make([]string, 0, len(summary.Errors))
	for name := range summary.Errors {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if summary.Errors[names[i]] != summary.Errors[names[j]] {
			return summary.Errors[names[i]] > summary.Errors[names[j]]
		}
		return names[i] < names[j]
	})

	maxRows := len(names)
	if maxRows > 10 {
		maxRows = 10
	}
	rows := make([]string, 0, maxRows)
	for i := 0; i < maxRows; i++ {
		rows = append(rows, fmt.Sprintf("[%s](fg:red) %d", names[i], summary.Errors[names[i]]))
	}
	return rows
}

func (d *Dashboard) formatRunParams() string {
	var parts []string

	if d.runConfig.Sessions > 0 {
		parts = append(parts, fmt.Sprintf("Users: %d", d.runConfig.Sessions))
	}
	if d.runConfig.Turns >= 0 {
		parts = append(parts, fmt.Sprintf("Turns: %d", d.runConfig.Turns))
	}
	if d.runConfig.Workers > 0 {
		parts = append(parts, fmt.Sprintf("Workers: %d", d.runConfig.Workers))
	}
	if d.runConfig.LaunchRate > 0 {
		parts = append(parts, fmt.Sprintf("Launch: %d/s", d.runConfig.LaunchRate))
	}
	if d.runConfig.Timeout > 0 {
		parts = append(parts, fmt.Sprintf("Timeout: %s", d.runConfig.Timeout))
	}
	if d.runConfig.ConfigFile != "" {
		parts = append(parts, fmt.Sprintf("Config: %s", d.runConfig.ConfigFile))
	}

	return strings.Join(parts, " | ")
}
