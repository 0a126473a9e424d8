// ABOUTME: Decode-file-and-push producer (mp3/flac/opus/pcm)
// ABOUTME: Streams a whole decoded file into an AudioQueue at real-time pace
package filereader

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hajimehoshi/go-mp3"
	"github.com/mewkiz/flac"
	"gopkg.in/hraban/opus.v2"

	"github.com/rivermix/mixqueue/audioqueue"
)

const defaultChunkDuration = 20 * time.Millisecond

// Info describes the file a Reader decoded: the sample rate and
// channel count the decoder itself reported (which may differ from
// the queue's AudioContext — the queue resamples and remaps on
// Push), plus the decoded duration. It is populated once decoding
// completes in Start and is zero-valued beforehand.
type Info struct {
	SampleRate int
	Channels   int
	Duration   time.Duration
}

// Reader is a Source that decodes an entire audio file up front and
// pushes it into an audioqueue.AudioQueue at real-time pace. Every
// supported codec decodes straight to int16 PCM, the native width of
// the queue this reader feeds — there is no intermediate wire-format
// representation to narrow afterward.
type Reader struct {
	name       string
	path       string
	codec      string
	sampleRate int
	channels   int
	ctx        audioqueue.AudioContext

	queue       *audioqueue.AudioQueue[int16]
	chunkFrames int

	active   atomic.Bool
	info     atomic.Pointer[Info]
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Config describes the file and the codec it was encoded with. Codec
// is one of "pcm", "mp3", "opus", "flac".
type Config struct {
	Path        string
	Codec       string
	SampleRate  int
	Channels    int
	ChunkFrames int // frames pushed per tick (default 20ms worth of Context.Rate)
}

// New builds a Reader that pushes decoded PCM from path into queue.
// ctx is the producer-side context used when the decoder's native rate
// and channel count do not name a supported SampleRate and
// ChannelLayout. cfg.Codec is validated here.
func New(queue *audioqueue.AudioQueue[int16], ctx audioqueue.AudioContext, cfg Config) (*Reader, error) {
	switch cfg.Codec {
	case "pcm", "mp3", "opus", "flac":
	default:
		return nil, fmt.Errorf("producer/filereader: unsupported codec %q", cfg.Codec)
	}

	chunkFrames := cfg.ChunkFrames
	if chunkFrames == 0 {
		chunkFrames = int(float64(ctx.Rate.Hz()) * defaultChunkDuration.Seconds())
	}

	return &Reader{
		name:        cfg.Path,
		path:        cfg.Path,
		codec:       cfg.Codec,
		sampleRate:  cfg.SampleRate,
		channels:    cfg.Channels,
		ctx:         ctx,
		queue:       queue,
		chunkFrames: chunkFrames,
		stopCh:      make(chan struct{}),
	}, nil
}

func (r *Reader) Name() string { return r.name }
func (r *Reader) Active() bool { return r.active.Load() }

// Info returns the decoded file's native sample rate, channel count,
// and duration. It reads as the zero Info until Start has finished
// decoding.
func (r *Reader) Info() Info {
	if p := r.info.Load(); p != nil {
		return *p
	}
	return Info{}
}

// Start reads the whole file, decodes it to int16 PCM, and pushes it
// into the queue in real-time-paced chunks on a background goroutine.
// It returns once decoding has succeeded and the push goroutine is
// running; decode errors are returned synchronously instead of being
// deferred to a background failure.
func (r *Reader) Start() error {
	if !r.active.CompareAndSwap(false, true) {
		return fmt.Errorf("producer/filereader: %s already started", r.name)
	}

	raw, err := os.ReadFile(r.path)
	if err != nil {
		r.active.Store(false)
		return fmt.Errorf("producer/filereader: reading %s: %w", r.path, err)
	}

	pcm, nativeRate, nativeChannels, err := r.decode(raw)
	if err != nil {
		r.active.Store(false)
		return fmt.Errorf("producer/filereader: decoding %s: %w", r.path, err)
	}

	if nativeChannels > 0 && nativeRate > 0 {
		nativeFrames := len(pcm) / nativeChannels
		r.info.Store(&Info{
			SampleRate: nativeRate,
			Channels:   nativeChannels,
			Duration:   time.Duration(nativeFrames) * time.Second / time.Duration(nativeRate),
		})

		// Push in the decoder's own context when it names a supported
		// rate and layout, so the queue resamples and remaps it.
		rate, rerr := audioqueue.NewSampleRate(audioqueue.SampleRate(nativeRate).String())
		layout, lerr := audioqueue.NewChannelLayout(audioqueue.ChannelLayout(nativeChannels).String())
		if rerr == nil && lerr == nil {
			r.ctx = audioqueue.NewContext(rate, layout)
		}
	}

	channels := r.ctx.Channels()
	frames := len(pcm) / channels
	pcm = pcm[:frames*channels]

	r.wg.Add(1)
	go r.pushLoop(pcm, frames, channels)
	return nil
}

// decode dispatches to the codec-specific decode path, all of which
// land on int16 PCM. It also reports the decoder's native sample rate
// and channel count, for Info.
func (r *Reader) decode(raw []byte) (samples []int16, nativeRate, nativeChannels int, err error) {
	switch r.codec {
	case "pcm":
		return decodePCM16(raw), r.sampleRate, r.channels, nil
	case "mp3":
		return decodeMP3(raw)
	case "opus":
		samples, err := decodeOpus(raw, r.sampleRate, r.channels)
		return samples, r.sampleRate, r.channels, err
	case "flac":
		return decodeFLAC(raw)
	default:
		return nil, 0, 0, fmt.Errorf("unsupported codec %q", r.codec)
	}
}

// decodePCM16 reinterprets raw little-endian 16-bit PCM bytes as int16
// samples.
func decodePCM16(data []byte) []int16 {
	n := len(data) / 2
	samples := make([]int16, n)
	for i := 0; i < n; i++ {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return samples
}

// decodeMP3 decodes a whole MP3 file to int16 PCM via go-mp3, which
// always produces 16-bit stereo output at the file's own sample rate.
func decodeMP3(data []byte) (samples []int16, sampleRate, channels int, err error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("creating mp3 decoder: %w", err)
	}

	pcm, err := io.ReadAll(dec)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("reading mp3 stream: %w", err)
	}
	return decodePCM16(pcm), dec.SampleRate(), 2, nil
}

// decodeFLAC decodes a whole FLAC file to int16 PCM via mewkiz/flac,
// scaling each subframe sample from the stream's native bit depth down
// to 16-bit (FLAC stores samples as signed integers at whatever depth
// the encoder used), and reports the stream's own rate and channel
// count.
func decodeFLAC(data []byte) (samples []int16, sampleRate, channels int, err error) {
	stream, err := flac.New(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("creating flac stream: %w", err)
	}

	bitDepth := int(stream.Info.BitsPerSample)
	channels = int(stream.Info.NChannels)
	sampleRate = int(stream.Info.SampleRate)
	samples = make([]int16, 0, int(stream.Info.NSamples)*channels)

	for {
		frame, ferr := stream.ParseNext()
		if ferr == io.EOF {
			break
		}
		if ferr != nil {
			return nil, 0, 0, fmt.Errorf("parsing flac frame: %w", ferr)
		}

		shift := bitDepth - 16
		for i := 0; i < int(frame.BlockSize); i++ {
			for ch := 0; ch < channels; ch++ {
				s := frame.Subframes[ch].Samples[i]
				var s16 int32
				switch {
				case shift > 0:
					s16 = s >> uint(shift)
				case shift < 0:
					s16 = s << uint(-shift)
				default:
					s16 = s
				}
				if s16 > math.MaxInt16 {
					s16 = math.MaxInt16
				} else if s16 < math.MinInt16 {
					s16 = math.MinInt16
				}
				samples = append(samples, int16(s16))
			}
		}
	}
	return samples, sampleRate, channels, nil
}

// decodeOpus decodes a single Opus packet to int16 PCM. Multi-packet
// Opus files need an Ogg demuxer ahead of this to split the container
// into packets; this reader treats the whole file as one packet, which
// matches what a single-frame capture or test fixture produces.
func decodeOpus(data []byte, sampleRate, channels int) ([]int16, error) {
	dec, err := opus.NewDecoder(sampleRate, channels)
	if err != nil {
		return nil, fmt.Errorf("creating opus decoder: %w", err)
	}

	pcm := make([]int16, 5760*channels) // max Opus frame size
	n, err := dec.Decode(data, pcm)
	if err != nil {
		return nil, fmt.Errorf("opus decode: %w", err)
	}
	return pcm[:n*channels], nil
}

func (r *Reader) pushLoop(pcm []int16, frames, channels int) {
	defer r.wg.Done()

	interval := time.Duration(float64(r.chunkFrames) / float64(r.ctx.Rate.Hz()) * float64(time.Second))
	if interval <= 0 {
		interval = defaultChunkDuration
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	pos := 0
	for pos < frames {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			n := r.chunkFrames
			if pos+n > frames {
				n = frames - pos
			}
			chunk := pcm[pos*channels : (pos+n)*channels]
			if !r.queue.Push(r.ctx, chunk, n) {
				log.Printf("producer/filereader: %s: push did not fully complete", r.name)
			}
			pos += n
		}
	}
}

// Stop halts the push goroutine and waits for it to exit.
func (r *Reader) Stop() error {
	r.stopOnce.Do(func() {
		close(r.stopCh)
	})
	r.wg.Wait()
	r.active.Store(false)
	return nil
}
