package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then metrics carry the default namespace", func() {
				So(manager, ShouldNotBeNil)
				manager.undos.Inc()
				n, err := testutil.GatherAndCount(registry, "wordsort_engine_undos_total")
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("board"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then names and labels follow the options", func() {
				manager.completions.Inc()
				n, err := testutil.GatherAndCount(registry, "test_board_completions_total")
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)

				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() != "test_board_completions_total" {
						continue
					}
					for _, lp := range f.GetMetric()[0].GetLabel() {
						if lp.GetName() == "env" && lp.GetValue() == "test" {
							found = true
						}
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When empty options are passed", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithConstLabels(nil),
				WithPrometheusRegistry(registry),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "wordsort")
				So(manager.subsystem, ShouldEqual, "engine")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestBoardMetrics(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When moves are recorded", func() {
			before := testutil.ToFloat64(globalManager.moves.WithLabelValues("touch", "true"))
			RecordMove("touch", true)
			RecordMove("touch", true)
			RecordMove("pointer", false)

			Convey("Then they are split by source and correctness", func() {
				So(testutil.ToFloat64(globalManager.moves.WithLabelValues("touch", "true")), ShouldEqual, before+2)
			})
		})

		Convey("When a no-op drop is recorded", func() {
			before := testutil.ToFloat64(globalManager.movesNoop.WithLabelValues("pointer"))
			RecordMoveNoop("pointer")
			So(testutil.ToFloat64(globalManager.movesNoop.WithLabelValues("pointer")), ShouldEqual, before+1)
		})

		Convey("When checks are recorded", func() {
			before := testutil.ToFloat64(globalManager.checks)
			RecordCheck(3, 1)
			RecordCheck(0, 0)

			Convey("Then every check counts", func() {
				So(testutil.ToFloat64(globalManager.checks), ShouldEqual, before+2)
			})
		})

		Convey("When touch drops are recorded", func() {
			before := testutil.ToFloat64(globalManager.touchDrops.WithLabelValues("miss"))
			RecordTouchDrop("miss")
			So(testutil.ToFloat64(globalManager.touchDrops.WithLabelValues("miss")), ShouldEqual, before+1)
		})

		Convey("When gauges are updated", func() {
			UpdateActiveSessions(7)
			UpdateQueueSize(3)
			UpdateQueueUtilization(0.25)
			UpdateTotalPlayers(42)

			Convey("Then they hold the last value", func() {
				So(testutil.ToFloat64(globalManager.sessionsActive), ShouldEqual, 7)
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.queueUtilization), ShouldEqual, 0.25)
				So(testutil.ToFloat64(globalManager.totalPlayers), ShouldEqual, 42)
			})
		})
	})
}

func TestRecordersDoNotPanic(t *testing.T) {
	Convey("Given every global recorder", t, func() {
		So(func() {
			RecordUndo()
			RecordCompletion()
			RecordInitFailure()
			RecordSessionCreated()
			RecordSessionEvicted()
			RecordReportProcessed()
			RecordReportDuplicate()
			RecordScoringError()
			RecordLeaderboardUpdate()
			RecordLeaderboardError()
			UpdateQueueCapacity(10)
			RecordQueueEnqueue()
			RecordQueueDequeue()
			RecordQueueEnqueueError()
			UpdateWorkerCount(4)
			RecordWorkerProcessingLatency(1.5)
			RecordWorkerError()
			RecordRepositoryUpdateLatency(0.2)
			RecordRepositoryQueryLatency(0.1)
			RecordHTTPRequest("/healthz", "GET", "200")
			RecordHTTPRequestDuration("/healthz", "GET", "200", 0.01)
			RecordErrorByComponent("view", "init")
			RecordErrorByType("validation", "warning")
			RecordErrorByEndpoint("/sessions", "POST", "bad_request")
			UpdateSystemMemoryUsage(1 << 20)
			UpdateSystemGoroutineCount(12)
			RecordSystemGCPauseTime(0.05)
		}, ShouldNotPanic)
		So(GetRegistry(), ShouldNotBeNil)
	})
}
