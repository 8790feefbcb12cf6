package baseline_test

import (
	"errors"
	"testing"

	"github.com/okian/trundler/internal/domain/baseline"
	"github.com/okian/trundler/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestResolver(t *testing.T) {
	Convey("Given a resolver over the default table", t, func() {
		r, err := baseline.NewResolver()
		So(err, ShouldBeNil)

		Convey("When resolving the bowler role", func() {
			row := r.Resolve(model.Bowler)

			Convey("Then it carries the default bowling numbers", func() {
				So(row.Bowling.Wickets, ShouldEqual, 1.5)
				So(row.Bowling.Economy, ShouldEqual, 8.0)
				So(row.Bowling.Average, ShouldEqual, 25.0)
			})
		})

		Convey("When resolving every known role", func() {
			for _, role := range []model.Role{model.Batsman, model.Bowler, model.AllRounder, model.WicketKeeper} {
				row := r.Resolve(role)
				So(row.Role, ShouldEqual, role)
			}
		})

		Convey("When resolving an unknown role", func() {
			row := r.Resolve(model.Role("umpire"))

			Convey("Then it falls back to the all-rounder row", func() {
				So(row.Role, ShouldEqual, model.AllRounder)
			})
		})

		Convey("Then the table version is reported", func() {
			So(r.Version(), ShouldEqual, baseline.TableVersion)
		})
	})
}

func TestResolverOptions(t *testing.T) {
	Convey("Given a resolver with an overridden row", t, func() {
		r, err := baseline.NewResolver(baseline.WithRow(model.RoleBaseline{
			Role:    model.Batsman,
			Batting: model.BattingBaseline{Average: 40, StrikeRate: 150, Runs: 38},
		}))
		So(err, ShouldBeNil)

		Convey("Then the override wins for that role only", func() {
			So(r.Resolve(model.Batsman).Batting.Runs, ShouldEqual, 38.0)
			So(r.Resolve(model.Bowler).Bowling.Wickets, ShouldEqual, 1.5)
		})
	})

	Convey("Given a replacement table missing a role", t, func() {
		_, err := baseline.NewResolver(baseline.WithTable(map[model.Role]model.RoleBaseline{
			model.Batsman: {Role: model.Batsman},
		}, "test"))

		Convey("Then construction fails with ErrMissingRole", func() {
			So(err, ShouldNotBeNil)
			So(errors.Is(err, baseline.ErrMissingRole), ShouldBeTrue)
		})
	})
}
