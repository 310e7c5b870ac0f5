package stream

import (
	"time"

	"github.com/ashebbar-dev/Ojas-EB/internal/pkg/logger"
)

// Status is one of the four relay states. Transitions only move forward:
// thinking, searching, answering, finished.
type Status string

const (
	StatusThinking  Status = "thinking"
	StatusSearching Status = "searching"
	StatusAnswering Status = "answering"
	StatusFinished  Status = "finished"
)

// TokenKind tags a TokenMessage. End is a typed sentinel, not an absent
// value, so "done" can never be confused with an empty token.
type TokenKind int

const (
	KindToken TokenKind = iota
	KindEnd
)

type TokenMessage struct {
	Kind TokenKind
	Text string
}

// Event is the wire shape serialized onto the response stream.
type Event struct {
	Type   string `json:"type"`
	Status string `json:"status,omitempty"`
	Chunk  string `json:"chunk,omitempty"`
}

func StatusEvent(s Status) Event {
	return Event{Type: "status", Status: string(s)}
}

func AnswerEvent(chunk string) Event {
	return Event{Type: "answer", Chunk: chunk}
}

// Relay carries tokens from the generation goroutine to the consumer loop.
// The token channel is single-producer single-consumer and strictly FIFO.
// Status events ride a separate channel so token volume cannot starve them.
type Relay struct {
	gate        *MarkerGate
	tokens      chan TokenMessage
	statuses    chan Status
	pollTimeout time.Duration
	logger      logger.ILogger
}

func NewRelay(marker string, pollTimeout time.Duration, log logger.ILogger) *Relay {
	if pollTimeout <= 0 {
		pollTimeout = 50 * time.Millisecond
	}
	return &Relay{
		gate:        NewMarkerGate(marker),
		tokens:      make(chan TokenMessage, 256),
		statuses:    make(chan Status, 8),
		pollTimeout: pollTimeout,
		logger:      log,
	}
}

// Observe is the token-observer callback handed to the generation call.
// Text is gated on the marker; nothing before it is ever forwarded.
func (r *Relay) Observe(token string) {
	out := r.gate.Feed(token)
	if out == "" {
		return
	}
	r.tokens <- TokenMessage{Kind: KindToken, Text: out}
}

// Push forwards text to the consumer without marker gating. Used for the
// fallback answer when generation fails before producing output.
func (r *Relay) Push(text string) {
	if text == "" {
		return
	}
	r.tokens <- TokenMessage{Kind: KindToken, Text: text}
}

// End signals generation completion. Must be called exactly once, after the
// last Observe/Push.
func (r *Relay) End() {
	r.tokens <- TokenMessage{Kind: KindEnd}
}

// EmitStatus queues a state transition. Never blocks the caller; an
// overflowing status channel drops the event rather than stalling search.
func (r *Relay) EmitStatus(s Status) {
	select {
	case r.statuses <- s:
	default:
		r.logger.Warn("StreamRelay", "Status channel full, dropping status", map[string]interface{}{
			"status": string(s),
		})
	}
}

// Run is the consumer loop. It polls the token channel with a short
// timeout, draining pending status events on every timeout so transitions
// are never starved by token volume. On the End sentinel it emits exactly
// one finished status and returns. An emit error means the caller is gone:
// the loop stops, and a drainer keeps the producer from blocking while
// generation runs to completion.
func (r *Relay) Run(emit func(Event) error) error {
	answering := false

	for {
		select {
		case msg := <-r.tokens:
			if msg.Kind == KindEnd {
				if err := r.drainStatuses(emit); err != nil {
					return err
				}
				return emit(StatusEvent(StatusFinished))
			}

			if err := r.drainStatuses(emit); err != nil {
				r.abandon()
				return err
			}
			if !answering {
				answering = true
				if err := emit(StatusEvent(StatusAnswering)); err != nil {
					r.abandon()
					return err
				}
			}
			if err := emit(AnswerEvent(msg.Text)); err != nil {
				r.abandon()
				return err
			}

		case <-time.After(r.pollTimeout):
			if err := r.drainStatuses(emit); err != nil {
				r.abandon()
				return err
			}
		}
	}
}

func (r *Relay) drainStatuses(emit func(Event) error) error {
	for {
		select {
		case s := <-r.statuses:
			if err := emit(StatusEvent(s)); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

// abandon consumes the remaining token stream in the background so the
// generation goroutine can finish after the client disconnected.
func (r *Relay) abandon() {
	r.logger.Info("StreamRelay", "Consumer gone, draining remaining tokens", nil)
	go func() {
		for msg := range r.tokens {
			if msg.Kind == KindEnd {
				return
			}
		}
	}()
}
