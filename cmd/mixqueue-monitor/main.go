// ABOUTME: mixqueue-monitor entry point
// ABOUTME: Bubbletea dashboard showing queue capacity, depth, and producer state (no drop or throughput counts)
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rivermix/mixqueue/audioqueue"
	"github.com/rivermix/mixqueue/producer/tone"
)

// Config holds the monitor's command-line configuration.
type Config struct {
	Rate      string
	Layout    string
	LatencyMs uint
	Sources   uint
}

func parseFlags() Config {
	cfg := Config{}
	flag.StringVar(&cfg.Rate, "rate", "SR48000", "sample rate (SR44100, SR48000, SR88200, SR96000, SR176400, SR192000)")
	flag.StringVar(&cfg.Layout, "layout", "Stereo", "channel layout (Mono, Stereo, 5.1, 7.1)")
	flag.UintVar(&cfg.LatencyMs, "latency", 200, "queue latency budget in milliseconds")
	flag.UintVar(&cfg.Sources, "sources", 2, "number of synthetic tone producers to run")
	flag.Parse()
	return cfg
}

func main() {
	cfg := parseFlags()

	rate, err := audioqueue.NewSampleRate(cfg.Rate)
	if err != nil {
		log.Fatalf("mixqueue-monitor: %v", err)
	}
	layout, err := audioqueue.NewChannelLayout(cfg.Layout)
	if err != nil {
		log.Fatalf("mixqueue-monitor: %v", err)
	}

	ctx := audioqueue.NewContext(rate, layout)
	queue := audioqueue.New[float32](ctx, uint32(cfg.LatencyMs))

	gens := make([]*tone.Generator[float32], cfg.Sources)
	for i := range gens {
		gens[i] = tone.New(queue, ctx, tone.Config{
			Name:      fmt.Sprintf("tone-%d", i),
			Frequency: 220.0 * float64(i+1),
		})
		if err := gens[i].Start(); err != nil {
			log.Fatalf("mixqueue-monitor: starting %s: %v", gens[i].Name(), err)
		}
	}
	defer func() {
		for _, g := range gens {
			g.Stop()
		}
	}()

	m := model{
		ctx:       ctx,
		queue:     queue,
		startTime: time.Now(),
		sources:   gens,
	}

	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatalf("mixqueue-monitor: %v", err)
	}
}

type tickMsg time.Time

type model struct {
	ctx       audioqueue.AudioContext
	queue     *audioqueue.AudioQueue[float32]
	startTime time.Time
	sources   []*tone.Generator[float32]
	quitting  bool
}

func (m model) Init() tea.Cmd {
	return tickEvery()
}

func tickEvery() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
	case tickMsg:
		return m, tickEvery()
	}
	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return "Shutting down mixqueue-monitor...\n"
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).MarginBottom(1)
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	sourceHeaderStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))

	var b strings.Builder
	b.WriteString(titleStyle.Render("mixqueue monitor"))
	b.WriteString("\n\n")

	b.WriteString(headerStyle.Render("Context:   "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%s, %s (%d ch)", m.ctx.Rate, m.ctx.Layout, m.ctx.Channels())))
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("Capacity:  "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%d frames", m.queue.Capacity()/m.ctx.Channels())))
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("Depth:     "))
	depthFrames := m.queue.Depth() / m.ctx.Channels()
	b.WriteString(valueStyle.Render(fmt.Sprintf("%s %d frames", renderBar(m.queue.Depth(), m.queue.Capacity(), 20), depthFrames)))
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("Uptime:    "))
	b.WriteString(valueStyle.Render(time.Since(m.startTime).Round(time.Second).String()))
	b.WriteString("\n\n")

	b.WriteString(sourceHeaderStyle.Render(fmt.Sprintf("Producers (%d)", len(m.sources))))
	b.WriteString("\n\n")
	for _, s := range m.sources {
		state := "stopped"
		if s.Active() {
			state = "running"
		}
		b.WriteString(fmt.Sprintf("  - %s: %s\n", s.Name(), state))
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Faint(true).Render("Press 'q' or Ctrl+C to quit"))
	return b.String()
}

func renderBar(value, max, width int) string {
	if max == 0 {
		max = 1
	}
	filled := (value * width) / max
	var bar strings.Builder
	for i := 0; i < width; i++ {
		if i < filled {
			bar.WriteString("█")
		} else {
			bar.WriteString("░")
		}
	}
	return bar.String()
}
