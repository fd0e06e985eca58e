package connection_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/quantmesh/streamkit/pkg/websocket/connection"
)

var _ = Describe("Config", func() {
	Describe("ApplyDefaults", func() {
		It("should fill every zero field", func() {
			config := connection.Config{URL: "wss://test.example.com/ws"}
			config.ApplyDefaults()

			defaults := connection.DefaultConfig()
			Expect(config.PingInterval).To(Equal(defaults.PingInterval))
			Expect(config.ReconnectStrategy).To(Equal(connection.ExponentialBackoff))
			Expect(config.MaxReconnectAttempts).To(Equal(defaults.MaxReconnectAttempts))
			Expect(config.QueueSize).To(Equal(defaults.QueueSize))
		})

		It("should leave explicitly set fields alone", func() {
			config := connection.Config{
				URL:          "wss://test.example.com/ws",
				PingInterval: 3 * time.Second,
			}
			config.ApplyDefaults()

			Expect(config.PingInterval).To(Equal(3 * time.Second))
		})
	})

	Describe("MergeSettings", func() {
		It("should fill fields from a nested mapping", func() {
			config := connection.Config{URL: "wss://test.example.com/ws"}
			settings := map[string]any{
				"websocket": map[string]any{
					"ping": map[string]any{
						"interval": "15s",
						"timeout":  "4s",
					},
					"reconnect": map[string]any{
						"delay":        "2s",
						"max_attempts": 7,
					},
				},
			}

			Expect(config.MergeSettings(settings)).To(Succeed())
			Expect(config.PingInterval).To(Equal(15 * time.Second))
			Expect(config.PingTimeout).To(Equal(4 * time.Second))
			Expect(config.ReconnectDelay).To(Equal(2 * time.Second))
			Expect(config.MaxReconnectAttempts).To(Equal(7))
		})

		It("should accept flat dotted keys", func() {
			config := connection.Config{URL: "wss://test.example.com/ws"}
			settings := map[string]any{
				"websocket.ping.interval": "20s",
			}

			Expect(config.MergeSettings(settings)).To(Succeed())
			Expect(config.PingInterval).To(Equal(20 * time.Second))
		})

		It("should let explicit fields win over the mapping", func() {
			config := connection.Config{
				URL:          "wss://test.example.com/ws",
				PingInterval: 3 * time.Second,
			}
			settings := map[string]any{
				"websocket.ping.interval": "20s",
			}

			Expect(config.MergeSettings(settings)).To(Succeed())
			Expect(config.PingInterval).To(Equal(3 * time.Second))
		})

		It("should leave defaults as the last resort", func() {
			config := connection.Config{URL: "wss://test.example.com/ws"}
			Expect(config.MergeSettings(map[string]any{})).To(Succeed())
			config.ApplyDefaults()

			Expect(config.PingInterval).To(Equal(connection.DefaultConfig().PingInterval))
		})

		It("should reject values that do not parse", func() {
			config := connection.Config{URL: "wss://test.example.com/ws"}
			settings := map[string]any{
				"websocket.ping.interval": "not a duration",
			}

			Expect(config.MergeSettings(settings)).To(MatchError(ContainSubstring("websocket.ping.interval")))
		})

		It("should tolerate a nil mapping", func() {
			config := connection.Config{URL: "wss://test.example.com/ws"}
			Expect(config.MergeSettings(nil)).To(Succeed())
		})
	})

	Describe("Validate", func() {
		newValid := func() connection.Config {
			config := connection.DefaultConfig()
			config.URL = "wss://test.example.com/ws"
			return config
		}

		It("should accept a defaulted config with a URL", func() {
			config := newValid()
			Expect(config.Validate()).To(Succeed())
		})

		It("should require a URL", func() {
			config := newValid()
			config.URL = ""
			Expect(config.Validate()).To(MatchError(ContainSubstring("URL")))
		})

		It("should require a positive queue size", func() {
			config := newValid()
			config.QueueSize = 0
			Expect(config.Validate()).To(MatchError(ContainSubstring("queue size")))
		})

		It("should require an attempt budget when auto-reconnect is on", func() {
			config := newValid()
			config.AutoReconnect = true
			config.MaxReconnectAttempts = 0
			Expect(config.Validate()).To(MatchError(ContainSubstring("max reconnect attempts")))
		})

		It("should reject unknown strategies", func() {
			config := newValid()
			config.ReconnectStrategy = "linear"
			Expect(config.Validate()).To(MatchError(ContainSubstring("unknown reconnect strategy")))
		})
	})
})
