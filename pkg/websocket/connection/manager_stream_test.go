package connection_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/quantmesh/streamkit/pkg/websocket/connection"
)

var _ = Describe("ConnectionManager - Receive and Stream", func() {
	var (
		mgr    *connection.Manager
		dialer *fakeDialer
		config connection.Config
	)

	BeforeEach(func() {
		dialer = newFakeDialer()
		config = connection.TestConfig("wss://test.example.com/ws")
		config.AutoReconnect = false
		config.QueueSize = 10

		var err error
		mgr, err = connection.NewManager(config, dialer, nil)
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		mgr.ForceClose()
	})

	Describe("Receive", func() {
		It("should time out on an empty queue after approximately the deadline", func() {
			start := time.Now()
			_, err := mgr.Receive(100 * time.Millisecond)
			elapsed := time.Since(start)

			Expect(err).To(MatchError(connection.ErrReceiveTimeout))
			Expect(elapsed).To(BeNumerically(">=", 100*time.Millisecond))
			Expect(elapsed).To(BeNumerically("<", time.Second))
		})

		It("should deliver frames pushed by the read loop", func() {
			Expect(mgr.Connect(ctxBG())).To(Succeed())
			dialer.LastConn().Deliver([]byte(`{"price": 42}`))

			msg, err := mgr.Receive(time.Second)
			Expect(err).ToNot(HaveOccurred())
			Expect(msg.IsJSON()).To(BeTrue())
			Expect(msg.Data).To(HaveKeyWithValue("price", float64(42)))
		})

		It("should fall back to raw text for frames that are not JSON", func() {
			Expect(mgr.Connect(ctxBG())).To(Succeed())
			dialer.LastConn().Deliver([]byte("plain text frame"))

			msg, err := mgr.Receive(time.Second)
			Expect(err).ToNot(HaveOccurred())
			Expect(msg.IsJSON()).To(BeFalse())
			Expect(msg.Text).To(Equal("plain text frame"))
		})

		It("should count received messages and bytes", func() {
			Expect(mgr.Connect(ctxBG())).To(Succeed())
			dialer.LastConn().Deliver([]byte("12345"))

			_, err := mgr.Receive(time.Second)
			Expect(err).ToNot(HaveOccurred())

			snapshot := mgr.Stats().Snapshot()
			Expect(snapshot.MessagesReceived).To(Equal(int64(1)))
			Expect(snapshot.BytesReceived).To(Equal(int64(5)))
		})
	})

	Describe("Stream", func() {
		It("should deliver queued items in arrival order and terminate on close", func() {
			mgr.Enqueue(connection.Message{Text: `{"v":1}`, Raw: []byte(`{"v":1}`)})
			mgr.Enqueue(connection.Message{Text: `{"v":2}`, Raw: []byte(`{"v":2}`)})

			collected := make(chan []string, 1)
			go func() {
				var seen []string
				for msg := range mgr.Stream(context.Background()) {
					seen = append(seen, msg.Text)
				}
				collected <- seen
			}()

			// Give the consumer a moment, then retire the manager.
			time.Sleep(50 * time.Millisecond)
			mgr.ForceClose()

			Eventually(collected).Should(Receive(Equal([]string{`{"v":1}`, `{"v":2}`})))
		})

		It("should survive a transient disconnect", func() {
			Expect(mgr.Connect(ctxBG())).To(Succeed())
			dialer.LastConn().Deliver([]byte("one"))

			stream := mgr.Stream(context.Background())
			Eventually(stream).Should(Receive())

			mgr.Kill()
			Expect(mgr.Connect(ctxBG())).To(Succeed())
			dialer.LastConn().Deliver([]byte("two"))

			var msg connection.Message
			Eventually(stream, time.Second).Should(Receive(&msg))
			Expect(msg.Text).To(Equal("two"))
		})

		It("should stop when the caller context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			stream := mgr.Stream(ctx)

			cancel()
			Eventually(stream).Should(BeClosed())
		})
	})

	Describe("Backpressure", func() {
		It("should block the read loop rather than drop messages", func() {
			config.QueueSize = 2
			small, err := connection.NewManager(config, dialer, nil)
			Expect(err).ToNot(HaveOccurred())
			defer small.ForceClose()

			Expect(small.Connect(ctxBG())).To(Succeed())
			conn := dialer.LastConn()

			for i := 0; i < 5; i++ {
				conn.Deliver([]byte("frame"))
			}

			// Only the queue capacity plus the frame in the read loop's hand
			// can be admitted; the rest wait in the transport.
			Consistently(small.QueueLen).Should(BeNumerically("<=", 2))

			// Draining unblocks the read loop and nothing was lost.
			for i := 0; i < 5; i++ {
				_, err := small.Receive(time.Second)
				Expect(err).ToNot(HaveOccurred())
			}
		})
	})
})
