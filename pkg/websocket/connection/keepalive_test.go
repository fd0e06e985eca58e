package connection_test

import (
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/quantmesh/streamkit/pkg/websocket/connection"
)

var _ = Describe("ConnectionManager - Keepalive", func() {
	var (
		mgr    *connection.Manager
		dialer *fakeDialer
		config connection.Config
	)

	BeforeEach(func() {
		dialer = newFakeDialer()
		config = connection.TestConfig("wss://test.example.com/ws")
		config.PingInterval = 50 * time.Millisecond
		config.PingTimeout = 100 * time.Millisecond
	})

	AfterEach(func() {
		if mgr != nil {
			mgr.ForceClose()
		}
	})

	It("should stay connected while pongs arrive", func() {
		config.AutoReconnect = false

		var err error
		mgr, err = connection.NewManager(config, dialer, nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(mgr.Connect(ctxBG())).To(Succeed())

		conn := dialer.LastConn()
		stop := make(chan struct{})
		defer close(stop)
		go func() {
			ticker := time.NewTicker(20 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-stop:
					return
				case <-ticker.C:
					conn.Pong()
				}
			}
		}()

		Consistently(mgr.IsConnected, 400*time.Millisecond).Should(BeTrue())
		Expect(conn.Pings()).To(BeNumerically(">=", 2))
	})

	It("should treat a missing pong as a ping timeout", func() {
		config.AutoReconnect = false
		var reasons []connection.DisconnectReason
		config.Hooks.OnDisconnect = func(reason connection.DisconnectReason) {
			reasons = append(reasons, reason)
		}

		var err error
		mgr, err = connection.NewManager(config, dialer, nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(mgr.Connect(ctxBG())).To(Succeed())

		// Never pong: the keepalive loop must give up after PingTimeout.
		Eventually(mgr.State, time.Second).Should(Equal(connection.StateDisconnected))
		Expect(reasons).To(Equal([]connection.DisconnectReason{connection.ReasonPingTimeout}))
	})

	It("should reconnect after a ping timeout when auto-reconnect is on", func() {
		config.AutoReconnect = true
		config.ReconnectStrategy = connection.FixedDelay

		var err error
		mgr, err = connection.NewManager(config, dialer, nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(mgr.Connect(ctxBG())).To(Succeed())
		firstConn := dialer.LastConn()

		Eventually(func() int { return dialer.Dials() }, 2*time.Second).Should(BeNumerically(">=", 2))
		Expect(dialer.LastConn()).ToNot(BeIdenticalTo(firstConn))
	})

	It("should cycle the connection when the ShouldDisconnect hook fires", func() {
		config.AutoReconnect = true
		config.ReconnectStrategy = connection.FixedDelay

		var trigger atomic.Bool
		trigger.Store(true)
		config.Hooks.ShouldDisconnect = func() bool {
			// Fire once; the replacement connection must be left alone.
			return trigger.Swap(false)
		}

		var err error
		mgr, err = connection.NewManager(config, dialer, nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(mgr.Connect(ctxBG())).To(Succeed())

		Eventually(mgr.IsConnected, 2*time.Second).Should(BeTrue())
		Eventually(func() int { return dialer.Dials() }, 2*time.Second).Should(BeNumerically(">=", 2))

		snapshot := mgr.Stats().Snapshot()
		Expect(snapshot.ProactiveDisconnects).To(Equal(int64(1)))
	})
})
