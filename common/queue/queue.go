// Package queue implements an unbounded single-producer single-consumer
// FIFO queue of frame payloads, the Go counterpart of the Rust original's
// tokio::sync::mpsc::unbounded_channel (original_source/main.rs: the
// channel connecting each direction's reassembler task to its handler
// task). spec.md §5 requires the reassembler-to-classifier queue to be
// unbounded with FIFO ordering; a plain buffered Go channel has a fixed
// capacity, so Payloads runs an internal goroutine backed by a growable
// slice buffer instead.
package queue

// Payloads is safe for exactly one concurrent sender and one concurrent
// receiver, matching the SPSC queues described in spec.md §5.
type Payloads struct {
	in  chan []byte
	out chan []byte
}

// NewPayloads returns a ready queue and starts its pump goroutine.
func NewPayloads() *Payloads {
	q := &Payloads{
		in:  make(chan []byte),
		out: make(chan []byte),
	}
	go q.run()
	return q
}

// run buffers everything sent on in and republishes it on out in order,
// never blocking the sender on the receiver's pace (spec.md §5
// "Backpressure": "the reassembler does not drop bytes under load").
func (q *Payloads) run() {
	var buf [][]byte
	for {
		if len(buf) == 0 {
			v, ok := <-q.in
			if !ok {
				close(q.out)
				return
			}
			buf = append(buf, v)
			continue
		}
		select {
		case v, ok := <-q.in:
			if !ok {
				for _, item := range buf {
					q.out <- item
				}
				close(q.out)
				return
			}
			buf = append(buf, v)
		case q.out <- buf[0]:
			buf = buf[1:]
		}
	}
}

// Send enqueues v. Must not be called after Close.
func (q *Payloads) Send(v []byte) { q.in <- v }

// Close signals no more values will be sent; Recv continues to drain
// whatever was already buffered before reporting ok=false.
func (q *Payloads) Close() { close(q.in) }

// Recv blocks for the next value in FIFO order. ok is false once the
// queue is closed and drained.
func (q *Payloads) Recv() (v []byte, ok bool) {
	v, ok = <-q.out
	return v, ok
}
