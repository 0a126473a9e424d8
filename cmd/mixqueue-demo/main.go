// ABOUTME: mixqueue-demo entry point
// ABOUTME: Wires N producers and one consumer over a single AudioQueue
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rivermix/mixqueue/audioqueue"
	"github.com/rivermix/mixqueue/consumer/deviceoutput"
	"github.com/rivermix/mixqueue/consumer/netrelay"
	"github.com/rivermix/mixqueue/discovery"
	"github.com/rivermix/mixqueue/producer"
	"github.com/rivermix/mixqueue/producer/filereader"
	"github.com/rivermix/mixqueue/producer/netreceiver"
	"github.com/rivermix/mixqueue/producer/tone"
)

// Config holds the demo's command-line configuration.
type Config struct {
	Rate       string
	Layout     string
	LatencyMs  uint
	Tones      uint
	AudioFile  string
	FileCodec  string
	ListenAddr string
	RelayAddr  string
	RelayCodec string
	Sink       string // "device" or "relay"
	Name       string
	Advertise  bool
}

func parseFlags() Config {
	cfg := Config{}
	flag.StringVar(&cfg.Rate, "rate", "SR48000", "sample rate (SR44100, SR48000, SR88200, SR96000, SR176400, SR192000)")
	flag.StringVar(&cfg.Layout, "layout", "Stereo", "channel layout (Mono, Stereo, 5.1, 7.1)")
	flag.UintVar(&cfg.LatencyMs, "latency", 200, "queue latency budget in milliseconds")
	flag.UintVar(&cfg.Tones, "tones", 1, "number of synthetic tone producers to run")
	flag.StringVar(&cfg.AudioFile, "file", "", "path to a PCM/MP3/FLAC/Opus file to stream (optional)")
	flag.StringVar(&cfg.FileCodec, "file-codec", "pcm", "codec of -file (pcm, mp3, opus, flac)")
	flag.StringVar(&cfg.ListenAddr, "listen", ":9100", "address netreceiver listens on for inbound PCM")
	flag.StringVar(&cfg.RelayAddr, "relay-addr", ":9200", "address netrelay listens on for outbound listeners")
	flag.StringVar(&cfg.RelayCodec, "relay-codec", "pcm", "codec netrelay encodes with (pcm, opus)")
	flag.StringVar(&cfg.Sink, "sink", "device", "output sink: device or relay")
	flag.StringVar(&cfg.Name, "name", "mixqueue-demo", "node name advertised over mDNS")
	flag.BoolVar(&cfg.Advertise, "advertise", false, "advertise this node over mDNS")
	flag.Parse()
	return cfg
}

func main() {
	cfg := parseFlags()

	rate, err := audioqueue.NewSampleRate(cfg.Rate)
	if err != nil {
		log.Fatalf("mixqueue-demo: %v", err)
	}
	layout, err := audioqueue.NewChannelLayout(cfg.Layout)
	if err != nil {
		log.Fatalf("mixqueue-demo: %v", err)
	}
	ctx := audioqueue.NewContext(rate, layout)

	var sources []producer.Source

	int16Queue := audioqueue.New[int16](ctx, uint32(cfg.LatencyMs))

	for i := uint(0); i < cfg.Tones; i++ {
		gen := tone.New(int16Queue, ctx, tone.Config{Frequency: 220.0 * float64(i+1)})
		sources = append(sources, gen)
	}

	if cfg.AudioFile != "" {
		reader, err := filereader.New(int16Queue, ctx, filereader.Config{
			Path:       cfg.AudioFile,
			Codec:      cfg.FileCodec,
			SampleRate: int(rate.Hz()),
			Channels:   ctx.Channels(),
		})
		if err != nil {
			log.Fatalf("mixqueue-demo: %v", err)
		}
		sources = append(sources, reader)
	}

	recv := netreceiver.New(int16Queue, ctx, netreceiver.Config{Addr: cfg.ListenAddr, Name: "netreceiver"})
	sources = append(sources, recv)

	for _, s := range sources {
		if err := s.Start(); err != nil {
			log.Fatalf("mixqueue-demo: starting %s: %v", s.Name(), err)
		}
	}
	defer func() {
		for _, s := range sources {
			if err := s.Stop(); err != nil {
				log.Printf("mixqueue-demo: stopping %s: %v", s.Name(), err)
			}
		}
	}()

	var stopSink func() error
	switch cfg.Sink {
	case "relay":
		relay, err := netrelay.New(int16Queue, ctx, netrelay.Config{Addr: cfg.RelayAddr, Codec: cfg.RelayCodec})
		if err != nil {
			log.Fatalf("mixqueue-demo: %v", err)
		}
		if err := relay.Start(); err != nil {
			log.Fatalf("mixqueue-demo: starting relay: %v", err)
		}
		stopSink = relay.Stop
	default:
		sink := deviceoutput.New(int16Queue, ctx, deviceoutput.Config{})
		if err := sink.Start(); err != nil {
			log.Fatalf("mixqueue-demo: starting device output: %v", err)
		}
		stopSink = sink.Stop
	}
	defer stopSink()

	var mgr *discovery.Manager
	if cfg.Advertise {
		role := discovery.Intake
		if cfg.Sink == "relay" {
			role = discovery.RelayRole
		}
		mgr = discovery.NewManager(discovery.Config{ServiceName: cfg.Name, Port: 9100, Role: role})
		if err := mgr.Advertise(); err != nil {
			log.Printf("mixqueue-demo: mDNS advertise failed: %v", err)
		}
		defer mgr.Stop()
	}

	log.Printf("mixqueue-demo: running (%s, %s, %d sources, sink=%s)", ctx.Rate, ctx.Layout, len(sources), cfg.Sink)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("mixqueue-demo: received %v, shutting down", sig)
}
