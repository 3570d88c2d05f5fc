package auth_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/wordsort/internal/adapters/auth"
	. "github.com/smartystreets/goconvey/convey"
)

func TestIssuer(t *testing.T) {
	Convey("Given an issuer", t, func() {
		now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
		clock := func() time.Time { return now }
		iss, err := auth.NewIssuer("s3cret", auth.WithTTL(time.Hour), auth.WithClock(clock))
		So(err, ShouldBeNil)

		Convey("When a token is issued", func() {
			tok, p, exp, err := iss.Issue("player-1", "Ada")
			So(err, ShouldBeNil)
			So(exp, ShouldEqual, now.Add(time.Hour))

			Convey("Then it verifies to the same player", func() {
				got, err := iss.Verify(tok)
				So(err, ShouldBeNil)
				So(got, ShouldResemble, p)
				So(got.ID, ShouldEqual, "player-1")
			})

			Convey("Then another secret rejects it", func() {
				other, _ := auth.NewIssuer("other", auth.WithClock(clock))
				_, err := other.Verify(tok)
				So(errors.Is(err, auth.ErrInvalidToken), ShouldBeTrue)
			})

			Convey("Then it expires", func() {
				now = now.Add(2 * time.Hour)
				_, err := iss.Verify(tok)
				So(errors.Is(err, auth.ErrInvalidToken), ShouldBeTrue)
			})
		})

		Convey("When issued without a player id", func() {
			_, p, _, err := iss.Issue("", "")
			So(err, ShouldBeNil)
			So(p.ID, ShouldNotBeEmpty)
		})

		Convey("When the token is garbage", func() {
			_, err := iss.Verify("not-a-token")
			So(errors.Is(err, auth.ErrInvalidToken), ShouldBeTrue)
		})
	})

	Convey("Given no secret", t, func() {
		_, err := auth.NewIssuer("")
		So(errors.Is(err, auth.ErrNoSecret), ShouldBeTrue)
	})
}

func TestMiddleware(t *testing.T) {
	Convey("Given a protected handler", t, func() {
		iss, _ := auth.NewIssuer("s3cret")
		var seen *auth.Player
		h := iss.Middleware(func(w http.ResponseWriter, _ *http.Request, _ error) {
			w.WriteHeader(http.StatusUnauthorized)
		})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p, ok := auth.PlayerFrom(r.Context()); ok {
				seen = &p
			}
			w.WriteHeader(http.StatusNoContent)
		}))

		Convey("When called without a token", func() {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			So(rec.Code, ShouldEqual, http.StatusNoContent)
			So(seen, ShouldBeNil)
		})

		Convey("When called with a valid token", func() {
			tok, _, _, _ := iss.Issue("p1", "")
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+tok)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			So(rec.Code, ShouldEqual, http.StatusNoContent)
			So(seen, ShouldNotBeNil)
			So(seen.ID, ShouldEqual, "p1")
		})

		Convey("When called with a bad token", func() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "bearer nope")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			So(rec.Code, ShouldEqual, http.StatusUnauthorized)
		})
	})
}
