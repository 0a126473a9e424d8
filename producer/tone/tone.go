// ABOUTME: Signal-generator producer (sine tone or linear ramp)
// ABOUTME: Synthesizes audio for any sample type and AudioContext instead of reading a file or socket
package tone

import (
	"fmt"
	"log"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rivermix/mixqueue/audioqueue"
)

// Signal selects the waveform a Generator emits.
type Signal int

const (
	// SignalSine emits a sine wave at Frequency Hz on every channel.
	SignalSine Signal = iota
	// SignalRamp emits x[i] = i*Step on every channel.
	SignalRamp
)

const defaultChunkDuration = 20 * time.Millisecond

// Generator is a Source that synthesizes audio instead of reading it
// from a file or network: a sine tone or a linear ramp, at any sample
// type and AudioContext.
type Generator[T audioqueue.Sample] struct {
	name   string
	queue  *audioqueue.AudioQueue[T]
	ctx    audioqueue.AudioContext
	signal Signal

	frequency   float64 // Hz, for SignalSine
	step        float64 // per-sample increment, for SignalRamp
	chunkFrames int

	sampleIndex uint64
	mu          sync.Mutex

	active   atomic.Bool
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Config configures a Generator.
type Config struct {
	Name        string
	Signal      Signal
	Frequency   float64 // Hz, used when Signal == SignalSine (default 440)
	Step        float64 // used when Signal == SignalRamp (default 0.001)
	ChunkFrames int      // frames pushed per tick (default 20ms worth of ctx.Rate)
}

// New creates a Generator that pushes into queue using ctx as its
// producer-side context.
func New[T audioqueue.Sample](queue *audioqueue.AudioQueue[T], ctx audioqueue.AudioContext, cfg Config) *Generator[T] {
	if cfg.Frequency == 0 {
		cfg.Frequency = 440.0
	}
	if cfg.Step == 0 {
		cfg.Step = 0.001
	}
	if cfg.ChunkFrames == 0 {
		cfg.ChunkFrames = int(float64(ctx.Rate.Hz()) * defaultChunkDuration.Seconds())
	}
	if cfg.Name == "" {
		cfg.Name = "tone"
	}
	return &Generator[T]{
		name:        cfg.Name,
		queue:       queue,
		ctx:         ctx,
		signal:      cfg.Signal,
		frequency:   cfg.Frequency,
		step:        cfg.Step,
		chunkFrames: cfg.ChunkFrames,
		stopCh:      make(chan struct{}),
	}
}

func (g *Generator[T]) Name() string { return g.name }
func (g *Generator[T]) Active() bool { return g.active.Load() }

// Start begins generating and pushing chunks on a ticker.
func (g *Generator[T]) Start() error {
	if !g.active.CompareAndSwap(false, true) {
		return fmt.Errorf("producer/tone: %s already started", g.name)
	}

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		interval := time.Duration(float64(g.chunkFrames) / float64(g.ctx.Rate.Hz()) * float64(time.Second))
		if interval <= 0 {
			interval = defaultChunkDuration
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-g.stopCh:
				return
			case <-ticker.C:
				buf := g.nextChunk()
				if !g.queue.Push(g.ctx, buf, g.chunkFrames) {
					log.Printf("producer/tone: %s: push did not fully complete", g.name)
				}
			}
		}
	}()
	return nil
}

// Stop halts the generator goroutine and waits for it to exit.
func (g *Generator[T]) Stop() error {
	g.stopOnce.Do(func() {
		close(g.stopCh)
	})
	g.wg.Wait()
	g.active.Store(false)
	return nil
}

func (g *Generator[T]) nextChunk() []T {
	g.mu.Lock()
	defer g.mu.Unlock()

	channels := g.ctx.Channels()
	out := make([]T, g.chunkFrames*channels)

	for f := 0; f < g.chunkFrames; f++ {
		var sample float32
		switch g.signal {
		case SignalRamp:
			sample = float32(float64(g.sampleIndex) * g.step)
		default:
			t := float64(g.sampleIndex) / float64(g.ctx.Rate.Hz())
			sample = float32(math.Sin(2*math.Pi*g.frequency*t) * 0.5)
		}
		v := audioqueue.FromFloat[T](sample)
		for ch := 0; ch < channels; ch++ {
			out[f*channels+ch] = v
		}
		g.sampleIndex++
	}
	return out
}
