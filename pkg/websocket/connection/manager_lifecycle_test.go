package connection_test

import (
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/quantmesh/streamkit/pkg/websocket/connection"
)

var _ = Describe("ConnectionManager - Lifecycle", func() {
	var (
		mgr    *connection.Manager
		dialer *fakeDialer
		config connection.Config
	)

	newManager := func() *connection.Manager {
		m, err := connection.NewManager(config, dialer, nil)
		Expect(err).ToNot(HaveOccurred())
		return m
	}

	BeforeEach(func() {
		dialer = newFakeDialer()
		config = connection.TestConfig("wss://test.example.com/ws")
		config.AutoReconnect = false
	})

	AfterEach(func() {
		if mgr != nil {
			mgr.ForceClose()
		}
	})

	Describe("Connect", func() {
		It("should fire the OnConnect hook", func() {
			var connects atomic.Int32
			config.Hooks.OnConnect = func() { connects.Add(1) }
			mgr = newManager()

			Expect(mgr.Connect(ctxBG())).To(Succeed())
			Eventually(connects.Load).Should(Equal(int32(1)))
		})

		It("should be a no-op when already connected", func() {
			mgr = newManager()
			Expect(mgr.Connect(ctxBG())).To(Succeed())
			Expect(mgr.Connect(ctxBG())).To(Succeed())

			Expect(dialer.Dials()).To(Equal(1))
			Expect(mgr.Stats().Snapshot().Connects).To(Equal(int64(1)))
		})

		It("should return the dial error and stay disconnected", func() {
			dialer.FailNext(1)
			mgr = newManager()

			Expect(mgr.Connect(ctxBG())).ToNot(Succeed())
			Expect(mgr.State()).To(Equal(connection.StateDisconnected))
		})

		It("should be a logged no-op once Closed", func() {
			mgr = newManager()
			mgr.Shutdown()

			Expect(mgr.Connect(ctxBG())).To(Succeed())
			Expect(mgr.State()).To(Equal(connection.StateClosed))
			Expect(dialer.Dials()).To(BeZero())
		})
	})

	Describe("Kill", func() {
		It("should transition Connected to Disconnected and fire OnDisconnect(Killed) once", func() {
			var reasons []connection.DisconnectReason
			config.Hooks.OnDisconnect = func(reason connection.DisconnectReason) {
				reasons = append(reasons, reason)
			}
			mgr = newManager()
			Expect(mgr.Connect(ctxBG())).To(Succeed())

			mgr.Kill()

			Expect(mgr.State()).To(Equal(connection.StateDisconnected))
			Expect(reasons).To(Equal([]connection.DisconnectReason{connection.ReasonKilled}))

			snapshot := mgr.Stats().Snapshot()
			Expect(snapshot.Disconnects).To(Equal(int64(1)))
			Expect(snapshot.ProactiveDisconnects).To(BeZero())
		})

		It("should be a no-op from Closed", func() {
			mgr = newManager()
			mgr.Shutdown()

			mgr.Kill()
			Expect(mgr.State()).To(Equal(connection.StateClosed))
		})

		It("should leave reconnection possible", func() {
			mgr = newManager()
			Expect(mgr.Connect(ctxBG())).To(Succeed())
			mgr.Kill()

			Expect(mgr.Connect(ctxBG())).To(Succeed())
			Expect(mgr.IsConnected()).To(BeTrue())
		})
	})

	Describe("Shutdown", func() {
		It("should end Closed with IsShutdown true", func() {
			mgr = newManager()
			Expect(mgr.Connect(ctxBG())).To(Succeed())

			mgr.Shutdown()

			Expect(mgr.State()).To(Equal(connection.StateClosed))
			Expect(mgr.IsShutdown()).To(BeTrue())
		})

		It("should be idempotent", func() {
			mgr = newManager()
			mgr.Shutdown()
			mgr.Shutdown()

			Expect(mgr.State()).To(Equal(connection.StateClosed))
			Expect(mgr.IsShutdown()).To(BeTrue())
		})

		It("should fire OnDisconnect with the shutdown reason when connected", func() {
			var reasons []connection.DisconnectReason
			config.Hooks.OnDisconnect = func(reason connection.DisconnectReason) {
				reasons = append(reasons, reason)
			}
			mgr = newManager()
			Expect(mgr.Connect(ctxBG())).To(Succeed())

			mgr.Shutdown()
			Expect(reasons).To(Equal([]connection.DisconnectReason{connection.ReasonShutdown}))
		})
	})

	Describe("ForceClose", func() {
		It("should end Closed with IsShutdown false", func() {
			mgr = newManager()
			Expect(mgr.Connect(ctxBG())).To(Succeed())

			mgr.ForceClose()

			Expect(mgr.State()).To(Equal(connection.StateClosed))
			Expect(mgr.IsShutdown()).To(BeFalse())
		})
	})

	Describe("Session", func() {
		It("should connect before fn and close on every exit path", func() {
			mgr = newManager()

			err := mgr.Session(ctxBG(), func(m *connection.Manager) error {
				Expect(m.IsConnected()).To(BeTrue())
				return nil
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(mgr.State()).To(Equal(connection.StateClosed))
		})

		It("should close even when fn fails", func() {
			mgr = newManager()

			err := mgr.Session(ctxBG(), func(*connection.Manager) error {
				return errConnClosed
			})

			Expect(err).To(HaveOccurred())
			Expect(mgr.State()).To(Equal(connection.StateClosed))
		})
	})

	Describe("TriggerReconnect", func() {
		It("should record a proactive disconnect and reconnect", func() {
			config.AutoReconnect = true
			var reasons []connection.DisconnectReason
			config.Hooks.OnDisconnect = func(reason connection.DisconnectReason) {
				reasons = append(reasons, reason)
			}
			mgr = newManager()
			Expect(mgr.Connect(ctxBG())).To(Succeed())

			mgr.TriggerReconnect()

			Eventually(mgr.IsConnected, time.Second).Should(BeTrue())
			Expect(dialer.Dials()).To(Equal(2))
			Expect(reasons).To(Equal([]connection.DisconnectReason{connection.ReasonProactiveReconnect}))

			snapshot := mgr.Stats().Snapshot()
			Expect(snapshot.ProactiveDisconnects).To(Equal(int64(1)))
			Expect(snapshot.Connects).To(Equal(int64(2)))
		})
	})
})
