package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should use the league namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "fairway")
				So(manager.subsystem, ShouldEqual, "league")
			})
		})

		Convey("When creating with const labels", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithConstLabels(map[string]string{"league": "alumni"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the labels should be applied", func() {
				So(manager.constLabels["league"], ShouldEqual, "alumni")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics", t, func() {
		Convey("When recording roster mutations", func() {
			before := metricValue(active().rosterMutations.WithLabelValues("add_score", "noop"))
			RecordRosterMutation("add_score", false)

			Convey("Then the noop series should increase", func() {
				after := metricValue(active().rosterMutations.WithLabelValues("add_score", "noop"))
				So(after-before, ShouldEqual, 1)
			})
		})

		Convey("When updating roster size", func() {
			UpdateRosterSize(4, 9)
			So(metricValue(active().rosterPlayers), ShouldEqual, 4)
			So(metricValue(active().rosterScores), ShouldEqual, 9)
		})

		Convey("When recording the remaining series", func() {
			So(func() {
				RecordStandingsRead("asc")
				RecordStorageSave(1.5, 128)
				RecordStorageLoad(0.5)
				RecordStorageError("save")
				RecordCommentary("fallback", 20)
				UpdateCommentaryQueue(1, 8)
				RecordCommentaryEnqueueError("queue_full")
				RecordExport()
				RecordDuplicateScore()
				RecordHTTPRequest("standings", "GET", "200")
				RecordHTTPRequestDuration("standings", "GET", "200", 3)
				RecordErrorByComponent("storage", "save")
				RecordErrorByEndpoint("players", "POST", "client_error")
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.2)
			}, ShouldNotPanic)
			So(metricValue(active().storageBlobBytes), ShouldEqual, 128)
		})

		Convey("Then the registry should gather without error", func() {
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
		})
	})
}

func metricValue(m prometheus.Metric) float64 {
	var out dto.Metric
	if err := m.Write(&out); err != nil {
		return -1
	}
	switch {
	case out.Counter != nil:
		return out.GetCounter().GetValue()
	case out.Gauge != nil:
		return out.GetGauge().GetValue()
	}
	return -1
}

func TestConfigure(t *testing.T) {
	Convey("Given the process metrics configured with a league label", t, func() {
		Configure(WithConstLabels(map[string]string{"league": "alumni"}))
		Reset(func() { Configure() })

		RecordExport()
		UpdateRosterSize(2, 3)

		Convey("Then every gathered series carries the label", func() {
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
			for _, family := range families {
				for _, m := range family.GetMetric() {
					So(labelValue(m, "league"), ShouldEqual, "alumni")
				}
			}
		})

		Convey("Then earlier values are not carried over", func() {
			Configure(WithConstLabels(map[string]string{"league": "alumni"}))
			So(metricValue(active().exportsRendered), ShouldEqual, 0)
		})

		Convey("And the registry option cannot detach the helpers from GetRegistry", func() {
			other := prometheus.NewRegistry()
			Configure(WithPrometheusRegistry(other))
			RecordExport()
			families, err := other.Gather()
			So(err, ShouldBeNil)
			So(families, ShouldBeEmpty)
		})
	})
}

func labelValue(m *dto.Metric, name string) string {
	for _, pair := range m.GetLabel() {
		if pair.GetName() == name {
			return pair.GetValue()
		}
	}
	return ""
}
