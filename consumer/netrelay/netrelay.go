// ABOUTME: Pop-mix-encode-broadcast sink for websocket listeners
package netrelay

import (
	"encoding/binary"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"gopkg.in/hraban/opus.v2"

	"github.com/rivermix/mixqueue/audioqueue"
)

// audioChunkMessageType tags the wire framing consumed by producer/netreceiver:
// a leading type byte, an 8-byte big-endian timestamp, then payload.
const audioChunkMessageType = 1

const defaultPopInterval = 20 * time.Millisecond

// client is a single connected listener: a connection plus a bounded
// outbound queue so one slow listener can't stall the relay.
type client struct {
	conn     *websocket.Conn
	sendChan chan []byte
}

// Relay drains an audioqueue.AudioQueue on a fixed tick, encodes the
// result (PCM or Opus), and broadcasts it to every connected WebSocket
// listener — the network-facing twin of consumer/deviceoutput.
type Relay struct {
	ctx   audioqueue.AudioContext
	queue *audioqueue.AudioQueue[int16]

	codec   string
	opusEnc *opus.Encoder

	addr       string
	server     *http.Server
	clockStart time.Time

	clients   map[*client]struct{}
	clientsMu sync.RWMutex

	popInterval time.Duration
	frames      int

	active   atomic.Bool
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Config configures a Relay.
type Config struct {
	Addr        string // listen address, e.g. ":9200"
	Codec       string // "pcm" or "opus"
	PopInterval time.Duration
}

// New creates a Relay that pops ctx-shaped chunks from queue and
// broadcasts them, encoded per cfg.Codec, to every WebSocket client
// connected to cfg.Addr.
func New(queue *audioqueue.AudioQueue[int16], ctx audioqueue.AudioContext, cfg Config) (*Relay, error) {
	codec := cfg.Codec
	if codec == "" {
		codec = "pcm"
	}

	var opusEnc *opus.Encoder
	switch codec {
	case "pcm":
	case "opus":
		enc, err := opus.NewEncoder(int(ctx.Rate.Hz()), ctx.Channels(), opus.AppAudio)
		if err != nil {
			return nil, fmt.Errorf("consumer/netrelay: creating opus encoder: %w", err)
		}
		opusEnc = enc
	default:
		return nil, fmt.Errorf("consumer/netrelay: unsupported codec %q", codec)
	}

	interval := cfg.PopInterval
	if interval <= 0 {
		interval = defaultPopInterval
	}

	return &Relay{
		ctx:         ctx,
		queue:       queue,
		codec:       codec,
		opusEnc:     opusEnc,
		addr:        cfg.Addr,
		clockStart:  time.Now(),
		clients:     make(map[*client]struct{}),
		popInterval: interval,
		frames:      int(float64(ctx.Rate.Hz()) * interval.Seconds()),
		stopCh:      make(chan struct{}),
	}, nil
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (s *Relay) Name() string { return "netrelay" }
func (s *Relay) Active() bool { return s.active.Load() }

// Start begins accepting listener connections and pops/encodes/
// broadcasts on a fixed tick.
func (s *Relay) Start() error {
	if !s.active.CompareAndSwap(false, true) {
		return fmt.Errorf("consumer/netrelay: already started")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/mixqueue", s.handleConnection)
	s.server = &http.Server{Addr: s.addr, Handler: mux}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.active.Store(false)
		return fmt.Errorf("consumer/netrelay: listen %s: %w", s.addr, err)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Printf("consumer/netrelay: serve error: %v", err)
		}
	}()

	s.wg.Add(1)
	go s.broadcastLoop()
	return nil
}

func (s *Relay) handleConnection(w http.ResponseWriter, req *http.Request) {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.Printf("consumer/netrelay: upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn, sendChan: make(chan []byte, 100)}
	s.clientsMu.Lock()
	s.clients[c] = struct{}{}
	s.clientsMu.Unlock()

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, c)
		s.clientsMu.Unlock()
		conn.Close()
	}()

	for data := range c.sendChan {
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
			log.Printf("consumer/netrelay: write failed: %v", err)
			return
		}
	}
}

func (s *Relay) broadcastLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.popInterval)
	defer ticker.Stop()

	buf := make([]int16, s.frames*s.ctx.Channels())

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			clear(buf)
			s.queue.Pop(s.ctx, buf, s.frames)

			encoded, err := s.encode(buf)
			if err != nil {
				log.Printf("consumer/netrelay: encode failed: %v", err)
				continue
			}

			chunk := createAudioChunk(time.Since(s.clockStart).Microseconds(), encoded)
			s.broadcast(chunk)
		}
	}
}

// encode turns a popped PCM buffer into wire bytes per the relay's
// configured codec.
func (s *Relay) encode(pcm []int16) ([]byte, error) {
	if s.codec == "opus" {
		data := make([]byte, 4000) // max Opus packet size
		n, err := s.opusEnc.Encode(pcm, data)
		if err != nil {
			return nil, fmt.Errorf("opus encode: %w", err)
		}
		return data[:n], nil
	}

	out := make([]byte, len(pcm)*2)
	for i, sample := range pcm {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(sample))
	}
	return out, nil
}

func (s *Relay) broadcast(chunk []byte) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for c := range s.clients {
		select {
		case c.sendChan <- chunk:
		default:
			log.Printf("consumer/netrelay: listener send buffer full, dropping chunk")
		}
	}
}

// createAudioChunk frames a payload as [type:1][timestamp:8][payload:N].
func createAudioChunk(timestamp int64, payload []byte) []byte {
	chunk := make([]byte, 1+8+len(payload))
	chunk[0] = audioChunkMessageType
	binary.BigEndian.PutUint64(chunk[1:9], uint64(timestamp))
	copy(chunk[9:], payload)
	return chunk
}

// Stop halts the broadcast loop, closes every listener connection, and
// shuts down the listening server.
func (s *Relay) Stop() error {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	if s.server != nil {
		s.server.Close()
	}

	s.clientsMu.Lock()
	for c := range s.clients {
		close(c.sendChan)
	}
	s.clients = make(map[*client]struct{})
	s.clientsMu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
	}
	s.active.Store(false)
	return nil
}
