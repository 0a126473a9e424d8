// ABOUTME: Real-time device sink that pops from an AudioQueue and plays it via oto
package deviceoutput

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/rivermix/mixqueue/audioqueue"
)

const defaultPullInterval = 20 * time.Millisecond

// device is the playback backend Sink drains into. It exists so tests
// can substitute a fake without opening a real audio device; oto is
// the only real implementation, one consumer per queue per spec §1's
// no-multi-consumer-fan-out non-goal.
type device interface {
	Open(sampleRate, channels int) error
	Write(pcm []int16) error
	Close() error
}

// Sink drains an audioqueue.AudioQueue on a fixed tick and writes
// whatever comes back straight to a device — already-mixed audio, or
// silence on underflow.
type Sink struct {
	ctx   audioqueue.AudioContext
	queue *audioqueue.AudioQueue[int16]
	out   device

	pullInterval time.Duration
	frames       int

	active   atomic.Bool
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Config configures a Sink.
type Config struct {
	PullInterval time.Duration // default 20ms
}

// New creates a Sink that pops ctx-shaped chunks from queue and plays
// them through a freshly opened oto output device.
func New(queue *audioqueue.AudioQueue[int16], ctx audioqueue.AudioContext, cfg Config) *Sink {
	interval := cfg.PullInterval
	if interval <= 0 {
		interval = defaultPullInterval
	}
	frames := int(float64(ctx.Rate.Hz()) * interval.Seconds())

	return &Sink{
		ctx:          ctx,
		queue:        queue,
		out:          &otoDevice{},
		pullInterval: interval,
		frames:       frames,
		stopCh:       make(chan struct{}),
	}
}

func (s *Sink) Name() string { return "deviceoutput" }
func (s *Sink) Active() bool { return s.active.Load() }

// Start opens the output device and begins popping from the queue on
// a ticker, writing whatever comes back to the device.
func (s *Sink) Start() error {
	if !s.active.CompareAndSwap(false, true) {
		return fmt.Errorf("consumer/deviceoutput: already started")
	}

	if err := s.out.Open(int(s.ctx.Rate.Hz()), s.ctx.Channels()); err != nil {
		s.active.Store(false)
		return fmt.Errorf("consumer/deviceoutput: opening device: %w", err)
	}

	s.wg.Add(1)
	go s.pullLoop()
	return nil
}

func (s *Sink) pullLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.pullInterval)
	defer ticker.Stop()

	buf := make([]int16, s.frames*s.ctx.Channels())

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			clear(buf)
			s.queue.Pop(s.ctx, buf, s.frames)
			if err := s.out.Write(buf); err != nil {
				log.Printf("consumer/deviceoutput: write failed: %v", err)
			}
		}
	}
}

// Stop halts the pull loop and closes the output device.
func (s *Sink) Stop() error {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.wg.Wait()
	s.active.Store(false)
	return s.out.Close()
}

// otoDevice is the real device backend, a persistent oto.Player fed
// through a pipe so Write can be called repeatedly without reopening
// the device each tick.
type otoDevice struct {
	ctx        *oto.Context
	player     *oto.Player
	pipeWriter *io.PipeWriter
	sampleRate int
	channels   int
}

func (o *otoDevice) Open(sampleRate, channels int) error {
	if o.ctx != nil && o.sampleRate == sampleRate && o.channels == channels {
		return nil
	}
	if o.ctx != nil {
		return fmt.Errorf("oto does not support reinitializing with a new format (%dHz/%dch running, %dHz/%dch requested)",
			o.sampleRate, o.channels, sampleRate, channels)
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("creating oto context: %w", err)
	}
	<-ready

	pr, pw := io.Pipe()
	player := ctx.NewPlayer(pr)
	player.Play()

	o.ctx = ctx
	o.player = player
	o.pipeWriter = pw
	o.sampleRate = sampleRate
	o.channels = channels
	return nil
}

func (o *otoDevice) Write(pcm []int16) error {
	raw := make([]byte, len(pcm)*2)
	for i, s := range pcm {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(s))
	}
	if _, err := o.pipeWriter.Write(raw); err != nil {
		return fmt.Errorf("pipe write: %w", err)
	}
	return nil
}

func (o *otoDevice) Close() error {
	if o.pipeWriter != nil {
		o.pipeWriter.Close()
		o.pipeWriter = nil
	}
	if o.player != nil {
		o.player.Close()
		o.player = nil
	}
	if o.ctx != nil {
		o.ctx.Suspend()
		o.ctx = nil
	}
	return nil
}
