package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/okian/wellmed/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.MoodWindow, convey.ShouldEqual, 5)
			convey.So(cfg.StoreDriver, convey.ShouldEqual, config.StoreMemory)
			convey.So(cfg.KafkaBrokers, convey.ShouldBeEmpty)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with one bad setting each", t, func() {
		cases := map[string]func(*config.Config){
			"empty addr":       func(c *config.Config) { c.Addr = "" },
			"zero queue":       func(c *config.Config) { c.QueueSize = 0 },
			"negative workers": func(c *config.Config) { c.WorkerCount = -1 },
			"zero dedupe":      func(c *config.Config) { c.DedupeSize = 0 },
			"zero watchlist":   func(c *config.Config) { c.MaxWatchlistLimit = 0 },
			"zero mood window": func(c *config.Config) { c.MoodWindow = 0 },
			"unknown driver":   func(c *config.Config) { c.StoreDriver = "postgres" },
			"sqlite no path":   func(c *config.Config) { c.StoreDriver = config.StoreSQLite; c.SQLitePath = "" },
			"brokers no topic": func(c *config.Config) { c.KafkaBrokers = []string{"localhost:9092"}; c.KafkaTopic = "" },
			"repeated bucket":  func(c *config.Config) { c.MetricsLatencyBuckets = []float64{1, 5, 5} },
		}

		for name, mutate := range cases {
			convey.Convey("When "+name, func() {
				cfg := config.New()
				mutate(cfg)

				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})
}
