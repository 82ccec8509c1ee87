package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/wellmed/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wellmed.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	convey.Convey("Given no file and no env", t, func() {
		cfg, err := config.Load(context.Background())

		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
		convey.So(cfg.StoreDriver, convey.ShouldEqual, config.StoreMemory)
	})
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("WELLMED_ADDR", ":8080")
	t.Setenv("WELLMED_QUEUE_SIZE", "64")
	t.Setenv("WELLMED_WORKER_COUNT", "3")
	t.Setenv("WELLMED_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("WELLMED_SHUTDOWN_TIMEOUT", "2s")

	convey.Convey("Given env overrides", t, func() {
		cfg, err := config.Load(context.Background())

		convey.Convey("Then they replace defaults", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
			convey.So(cfg.KafkaBrokers, convey.ShouldResemble, []string{"k1:9092", "k2:9092"})
			convey.So(cfg.ShutdownTimeout, convey.ShouldEqual, 2*time.Second)
		})
	})
}

func TestLoad_EnvLists(t *testing.T) {
	t.Setenv("WELLMED_KAFKA_BROKERS", " k1:9092 , k2:9092,,k3:9092 ")
	t.Setenv("WELLMED_METRICS_LATENCY_BUCKETS", "0.5,1,10")

	convey.Convey("Given comma-separated lists in env", t, func() {
		cfg, err := config.Load(context.Background())

		convey.Convey("Then each item is a separate entry", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.KafkaBrokers, convey.ShouldResemble, []string{"k1:9092", "k2:9092", "k3:9092"})
			convey.So(cfg.MetricsLatencyBuckets, convey.ShouldResemble, []float64{0.5, 1, 10})
		})
	})
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeConfigFile(t, `
# service settings
addr: ":7070"
queue_size: 500
store_driver: sqlite
sqlite_path: /tmp/wellmed-test.db
mood_window: 7
`)
	t.Setenv("WELLMED_CONFIG", path)
	t.Setenv("WELLMED_QUEUE_SIZE", "900")

	convey.Convey("Given a YAML file and an env override", t, func() {
		cfg, err := config.Load(context.Background())

		convey.Convey("Then the file fills in and env wins", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 900)
			convey.So(cfg.StoreDriver, convey.ShouldEqual, config.StoreSQLite)
			convey.So(cfg.SQLitePath, convey.ShouldEqual, "/tmp/wellmed-test.db")
			convey.So(cfg.MoodWindow, convey.ShouldEqual, 7)
			convey.So(cfg.DedupeSize, convey.ShouldEqual, config.New().DedupeSize)
		})
	})
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("WELLMED_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	convey.Convey("Given a missing config file", t, func() {
		_, err := config.Load(context.Background())

		convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
	})
}

func TestLoad_MalformedYAML(t *testing.T) {
	t.Setenv("WELLMED_CONFIG", writeConfigFile(t, "addr: [unterminated"))

	convey.Convey("Given malformed YAML", t, func() {
		_, err := config.Load(context.Background())

		convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
	})
}

func TestLoad_BadNumber(t *testing.T) {
	t.Setenv("WELLMED_QUEUE_SIZE", "lots")

	convey.Convey("Given a non-numeric queue size", t, func() {
		_, err := config.Load(context.Background())

		convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
	})
}

func TestLoad_InvalidDriver(t *testing.T) {
	t.Setenv("WELLMED_STORE_DRIVER", "mongo")

	convey.Convey("Given an unknown store driver", t, func() {
		_, err := config.Load(context.Background())

		convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
	})
}
