package confidence

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/trundler/internal/domain/model"
)

func TestEstimateIntervals(t *testing.T) {
	Convey("Given the default estimator", t, func() {
		s := New()
		now := time.Date(2026, 4, 12, 18, 0, 0, 0, time.UTC)
		fresh := now.Add(-24 * time.Hour)

		Convey("a fully complete feature gets the base interval", func() {
			p := s.Estimate(model.MetricRuns, model.Feature{
				Value:              40.5,
				Completeness:       1.0,
				Contributions:      []float64{40.5},
				FreshestObservedAt: fresh,
			}, now)

			So(p.Value, ShouldAlmostEqual, 40.5, 1e-9)
			So(p.LowerBound, ShouldAlmostEqual, 40.5-40.5*0.2, 1e-9)
			So(p.UpperBound, ShouldAlmostEqual, 40.5+40.5*0.2, 1e-9)
		})

		Convey("incomplete features widen the interval", func() {
			p := s.Estimate(model.MetricRuns, model.Feature{
				Value:              40.5,
				Completeness:       0.7,
				Contributions:      []float64{40.5},
				FreshestObservedAt: fresh,
			}, now)

			half := 40.5 * 0.2 * 1.3
			So(p.UpperBound-p.Value, ShouldAlmostEqual, half, 1e-9)
			So(p.Value-p.LowerBound, ShouldAlmostEqual, half, 1e-9)
		})

		Convey("small values fall back to the absolute minimum half-width", func() {
			p := s.Estimate(model.MetricWickets, model.Feature{
				Value:              1.0,
				Completeness:       1.0,
				Contributions:      []float64{1.0},
				FreshestObservedAt: fresh,
			}, now)

			// value*0.2 = 0.2 is below the 0.5 floor for wickets
			So(p.UpperBound-p.Value, ShouldAlmostEqual, 0.5, 1e-9)
		})

		Convey("bounds are ordered and the lower bound never goes negative", func() {
			p := s.Estimate(model.MetricWickets, model.Feature{
				Value:        0.2,
				Completeness: 0.3,
			}, now)

			So(p.LowerBound, ShouldBeGreaterThanOrEqualTo, 0)
			So(p.LowerBound, ShouldBeLessThanOrEqualTo, p.Value)
			So(p.Value, ShouldBeLessThanOrEqualTo, p.UpperBound)
		})
	})
}

func TestEstimateClamping(t *testing.T) {
	Convey("Given values outside the metric domain", t, func() {
		s := New()
		now := time.Now()

		Convey("negative values clamp to zero", func() {
			p := s.Estimate(model.MetricRuns, model.Feature{Value: -3}, now)
			So(p.Value, ShouldEqual, 0)
		})

		Convey("strike rate clamps to its sanity ceiling", func() {
			p := s.Estimate(model.MetricStrikeRate, model.Feature{Value: 412}, now)
			So(p.Value, ShouldEqual, 300)
		})

		Convey("economy rate clamps to its sanity ceiling", func() {
			p := s.Estimate(model.MetricEconomyRate, model.Feature{Value: 31.5}, now)
			So(p.Value, ShouldEqual, 20)
		})
	})
}

func TestConfidenceScore(t *testing.T) {
	Convey("Given the confidence blend", t, func() {
		s := New()
		now := time.Date(2026, 4, 12, 18, 0, 0, 0, time.UTC)

		Convey("complete fresh agreeing data scores 1", func() {
			p := s.Estimate(model.MetricRuns, model.Feature{
				Value:              40,
				Completeness:       1.0,
				Contributions:      []float64{40, 40, 40},
				FreshestObservedAt: now.Add(-time.Hour),
			}, now)
			So(p.Confidence, ShouldAlmostEqual, 1.0, 1e-9)
		})

		Convey("an empty feature scores 0", func() {
			p := s.Estimate(model.MetricRuns, model.Feature{}, now)
			So(p.Confidence, ShouldEqual, 0)
		})

		Convey("scattered sources reduce the variance share", func() {
			agree := s.Estimate(model.MetricRuns, model.Feature{
				Value: 40, Completeness: 1.0,
				Contributions:      []float64{40, 40, 40},
				FreshestObservedAt: now.Add(-time.Hour),
			}, now)
			scatter := s.Estimate(model.MetricRuns, model.Feature{
				Value: 40, Completeness: 1.0,
				Contributions:      []float64{10, 40, 70},
				FreshestObservedAt: now.Add(-time.Hour),
			}, now)
			So(scatter.Confidence, ShouldBeLessThan, agree.Confidence)
		})

		Convey("recency decays linearly between 7 and 30 days", func() {
			at := func(age time.Duration) float64 {
				return s.Estimate(model.MetricRuns, model.Feature{
					Value: 40, Completeness: 1.0,
					Contributions:      []float64{40},
					FreshestObservedAt: now.Add(-age),
				}, now).Confidence
			}

			So(at(6*24*time.Hour), ShouldAlmostEqual, 1.0, 1e-9)
			// 18.5 days is the midpoint of the 7..30 day ramp
			So(at(18*24*time.Hour+12*time.Hour), ShouldAlmostEqual, 0.5+0.3+0.2*0.5, 1e-9)
			So(at(31*24*time.Hour), ShouldAlmostEqual, 0.5+0.3, 1e-9)
		})

		Convey("confidence stays within [0,1] for arbitrary inputs", func() {
			p := s.Estimate(model.MetricRuns, model.Feature{
				Value: 40, Completeness: 3.0,
				Contributions:      []float64{40},
				FreshestObservedAt: now,
			}, now)
			So(p.Confidence, ShouldBeLessThanOrEqualTo, 1)
			So(p.Confidence, ShouldBeGreaterThanOrEqualTo, 0)
		})
	})
}

func TestEstimateDeterminism(t *testing.T) {
	Convey("Given identical inputs", t, func() {
		s := New()
		now := time.Date(2026, 4, 12, 18, 0, 0, 0, time.UTC)
		f := model.Feature{
			Value:              38.2,
			Completeness:       0.7,
			Contributions:      []float64{45, 35},
			FreshestObservedAt: now.Add(-10 * 24 * time.Hour),
		}

		Convey("two estimates are identical", func() {
			a := s.Estimate(model.MetricRuns, f, now)
			b := s.Estimate(model.MetricRuns, f, now)
			So(a, ShouldResemble, b)
		})
	})
}
