package connection

import (
	"context"
	"time"
)

// Receive pops one message from the inbound queue, waiting at most timeout.
// Returns ErrReceiveTimeout when nothing arrives in the window; manager
// state is unchanged on timeout.
func (m *Manager) Receive(timeout time.Duration) (Message, error) {
	select {
	case msg := <-m.queue:
		return msg, nil
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case msg := <-m.queue:
		return msg, nil
	case <-timer.C:
		return Message{}, ErrReceiveTimeout
	}
}

// Stream returns a channel delivering inbound messages in arrival order.
// Delivery suspends while the queue is empty or the connection is down and
// resumes once messages flow again; the channel closes only when the manager
// reaches the Closed state (after draining anything still queued) or when
// ctx is cancelled. Transient disconnects do not terminate the stream.
func (m *Manager) Stream(ctx context.Context) <-chan Message {
	out := make(chan Message)

	go func() {
		defer close(out)

		for {
			select {
			case msg := <-m.queue:
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			case <-m.lifetime.Done():
				// Manager retired: drain what is already queued, then stop.
				for {
					select {
					case msg := <-m.queue:
						select {
						case out <- msg:
						case <-ctx.Done():
							return
						}
					default:
						return
					}
				}
			}
		}
	}()

	return out
}

// QueueLen reports how many decoded messages are waiting for consumers.
func (m *Manager) QueueLen() int {
	return len(m.queue)
}
