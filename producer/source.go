// ABOUTME: Source is the contract every producer input module implements
// ABOUTME: start/stop/active lifecycle shared by file, network, and generator producers
package producer

// Source is an audio mixer input module: it owns a goroutine that
// reads from wherever its concrete type reads from (a file decoder, a
// websocket, a signal generator) and pushes the result into a target
// audioqueue.AudioQueue. A Source is neither copyable nor movable —
// callers hold it by pointer, the same restriction the queue itself
// carries.
type Source interface {
	// Start begins pushing audio into the target queue. Start
	// returns once the producer goroutine is running; it does not
	// block for the lifetime of the source.
	Start() error

	// Stop halts the producer goroutine and waits for it to exit.
	Stop() error

	// Active reports whether the producer is currently running.
	Active() bool

	// Name identifies the source for diagnostics (file path, remote
	// address, or generator name).
	Name() string
}
