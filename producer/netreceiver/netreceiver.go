// ABOUTME: WebSocket-receive-and-push producer
// ABOUTME: Accepts one inbound PCM connection and pushes every chunk into a queue
package netreceiver

import (
	"encoding/binary"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rivermix/mixqueue/audioqueue"
)

// audioChunkMessageType tags a message as a PCM chunk: a single
// leading byte, followed by an 8-byte big-endian timestamp and the
// raw interleaved int16 samples.
const audioChunkMessageType = 1

// Receiver is a Source that accepts a single inbound WebSocket
// connection and pushes every PCM chunk it receives into a queue. No
// handshake: a peer connects, sends binary PCM chunks, and the
// Receiver pushes each one as it arrives.
type Receiver struct {
	name   string
	addr   string
	ctx    audioqueue.AudioContext
	queue  *audioqueue.AudioQueue[int16]
	server *http.Server

	active atomic.Bool
	connMu sync.Mutex
	conn   *websocket.Conn

	wg sync.WaitGroup
}

// Config configures a Receiver.
type Config struct {
	Addr string // listen address, e.g. ":9100"
	Name string
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// New creates a Receiver bound to cfg.Addr that pushes decoded chunks
// into queue using ctx as the producer-side context.
func New(queue *audioqueue.AudioQueue[int16], ctx audioqueue.AudioContext, cfg Config) *Receiver {
	name := cfg.Name
	if name == "" {
		name = "netreceiver-" + uuid.New().String()[:8]
	}
	return &Receiver{
		name:  name,
		addr:  cfg.Addr,
		ctx:   ctx,
		queue: queue,
	}
}

func (r *Receiver) Name() string { return r.name }
func (r *Receiver) Active() bool { return r.active.Load() }

// Start listens for a single WebSocket connection and, once accepted,
// reads binary PCM chunks from it in a background goroutine.
func (r *Receiver) Start() error {
	if !r.active.CompareAndSwap(false, true) {
		return fmt.Errorf("producer/netreceiver: %s already started", r.name)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/mixqueue", r.handleConnection)
	r.server = &http.Server{Addr: r.addr, Handler: mux}

	ln, err := net.Listen("tcp", r.addr)
	if err != nil {
		r.active.Store(false)
		return fmt.Errorf("producer/netreceiver: listen %s: %w", r.addr, err)
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Printf("producer/netreceiver: %s: serve error: %v", r.name, err)
		}
	}()
	return nil
}

func (r *Receiver) handleConnection(w http.ResponseWriter, req *http.Request) {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.Printf("producer/netreceiver: %s: upgrade failed: %v", r.name, err)
		return
	}

	r.connMu.Lock()
	if r.conn != nil {
		r.connMu.Unlock()
		log.Printf("producer/netreceiver: %s: rejecting second connection", r.name)
		conn.Close()
		return
	}
	r.conn = conn
	r.connMu.Unlock()

	defer func() {
		r.connMu.Lock()
		r.conn = nil
		r.connMu.Unlock()
		conn.Close()
	}()

	channels := r.ctx.Channels()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("producer/netreceiver: %s: read error: %v", r.name, err)
			}
			return
		}
		if len(data) < 9 || data[0] != audioChunkMessageType {
			continue
		}

		pcmBytes := data[9:]
		frames := len(pcmBytes) / 2 / channels
		pcm := make([]int16, frames*channels)
		for i := range pcm {
			pcm[i] = int16(binary.LittleEndian.Uint16(pcmBytes[i*2:]))
		}

		if !r.queue.Push(r.ctx, pcm, frames) {
			log.Printf("producer/netreceiver: %s: push did not fully complete", r.name)
		}
	}
}

// Stop closes the listening server and the active connection, if any.
func (r *Receiver) Stop() error {
	if r.server != nil {
		r.server.Close()
	}
	r.connMu.Lock()
	if r.conn != nil {
		r.conn.Close()
	}
	r.connMu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
	}
	r.active.Store(false)
	return nil
}
