package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/wordsort/internal/adapters/catalog"
	"github.com/okian/wordsort/internal/adapters/dom"
	service "github.com/okian/wordsort/internal/app"
	"github.com/okian/wordsort/internal/domain/evaluate"
	"github.com/okian/wordsort/internal/domain/puzzle"
	"github.com/okian/wordsort/internal/view"
	. "github.com/smartystreets/goconvey/convey"
)

var produceAnswers = map[string]puzzle.Bucket{
	"apple":    "fruits",
	"banana":   "fruits",
	"cherry":   "fruits",
	"carrot":   "vegetables",
	"broccoli": "vegetables",
	"spinach":  "vegetables",
}

func drag(ctx context.Context, svc *service.Service, id, word string, to puzzle.Bucket) service.DispatchResult {
	_, err := svc.Dispatch(ctx, id, service.EventRequest{Type: dom.EventDragStart, Target: view.TokenID(word)})
	So(err, ShouldBeNil)
	res, err := svc.Dispatch(ctx, id, service.EventRequest{Type: dom.EventDrop, Target: view.ContainerID(to)})
	So(err, ShouldBeNil)
	return res
}

func TestService_SessionFlow(t *testing.T) {
	Convey("Given a session on the produce puzzle", t, func() {
		ctx := context.Background()
		svc := started(t)

		st, err := svc.CreateSession(ctx, service.CreateRequest{PuzzleID: "produce", PlayerID: "alice"})
		So(err, ShouldBeNil)
		id := st.ID

		So(id, ShouldNotBeEmpty)
		So(st.PuzzleID, ShouldEqual, "produce")
		So(st.Locale, ShouldEqual, "en")
		So(len(st.Board.Buckets), ShouldEqual, 3)
		So(st.Board.Buckets[0].ID, ShouldEqual, puzzle.WordBank)
		So(len(st.Board.Buckets[0].Tokens), ShouldEqual, 6)

		Convey("Pointer drops move words between containers", func() {
			res := drag(ctx, svc, id, "apple", "fruits")
			So(res.DefaultPrevented, ShouldBeTrue)
			So(res.State.Board.Membership()["apple"], ShouldEqual, puzzle.Bucket("fruits"))
			So(res.State.Board.History, ShouldEqual, 1)

			Convey("Undo puts the word back", func() {
				st, undone, err := svc.Undo(ctx, id)
				So(err, ShouldBeNil)
				So(undone, ShouldBeTrue)
				So(st.Board.Membership()["apple"], ShouldEqual, puzzle.WordBank)
				So(st.Board.History, ShouldEqual, 0)
			})
		})

		Convey("Touch drags resolve the release point against the layout", func() {
			_, err := svc.Layout(ctx, id, []service.RectUpdate{
				{ID: view.ContainerID(puzzle.WordBank), Rect: dom.Rect{Left: 0, Top: 0, Width: 300, Height: 100}},
				{ID: view.ContainerID("fruits"), Rect: dom.Rect{Left: 0, Top: 120, Width: 140, Height: 100}},
				{ID: view.ContainerID("vegetables"), Rect: dom.Rect{Left: 160, Top: 120, Width: 140, Height: 100}},
				{ID: "word-carrot", Rect: dom.Rect{Left: 10, Top: 10, Width: 50, Height: 20}},
			})
			So(err, ShouldBeNil)

			touches := []dom.Touch{{ClientX: 20, ClientY: 15}}
			res, err := svc.Dispatch(ctx, id, service.EventRequest{Type: dom.EventTouchStart, Target: "word-carrot", Touches: touches})
			So(err, ShouldBeNil)
			So(res.DefaultPrevented, ShouldBeTrue)

			release := []dom.Touch{{ClientX: 200, ClientY: 150}}
			_, err = svc.Dispatch(ctx, id, service.EventRequest{Type: dom.EventTouchMove, Target: "word-carrot", Touches: release})
			So(err, ShouldBeNil)
			res, err = svc.Dispatch(ctx, id, service.EventRequest{Type: dom.EventTouchEnd, Target: "word-carrot", ChangedTouches: release})
			So(err, ShouldBeNil)
			So(res.State.Board.Membership()["carrot"], ShouldEqual, puzzle.Bucket("vegetables"))

			Convey("Scrolling shifts the client rectangles", func() {
				st, err := svc.Scroll(ctx, id, dom.Point{Y: 50})
				So(err, ShouldBeNil)
				So(st.Board.Scroll.Y, ShouldEqual, 50.0)
				So(st.Board.Buckets[1].Rect.Top, ShouldEqual, 70.0)
			})
		})

		Convey("Checking a partial board reports a score", func() {
			drag(ctx, svc, id, "apple", "fruits")
			drag(ctx, svc, id, "carrot", "fruits")

			res, err := svc.Check(ctx, id)
			So(err, ShouldBeNil)
			So(res.Score, ShouldResemble, evaluate.Score{Correct: 1, Incorrect: 5})
			So(res.Complete, ShouldBeFalse)
			So(res.State.Checks, ShouldEqual, 1)
			So(res.State.Board.FeedbackActive, ShouldBeTrue)

			So(eventually(func() bool { _, err := svc.Rank(ctx, "alice"); return err == nil }), ShouldBeTrue)
			e, _ := svc.Rank(ctx, "alice")
			So(e.Score, ShouldAlmostEqual, 100.0/6, 1e-6)
		})

		Convey("Completing the board locks it and records a perfect score", func() {
			for word, bucket := range produceAnswers {
				drag(ctx, svc, id, word, bucket)
			}
			res, err := svc.Dispatch(ctx, id, service.EventRequest{Type: dom.EventClick, Target: view.CheckButtonID})
			So(err, ShouldBeNil)
			So(res.State.Complete, ShouldBeTrue)
			So(res.State.Board.Locked, ShouldBeTrue)
			So(*res.State.LastScore, ShouldResemble, evaluate.Score{Correct: 6})

			So(eventually(func() bool { e, err := svc.Rank(ctx, "alice"); return err == nil && e.Score == 100 }), ShouldBeTrue)

			Convey("Moves on the locked board are ignored", func() {
				res := drag(ctx, svc, id, "apple", "vegetables")
				So(res.State.Board.Membership()["apple"], ShouldEqual, puzzle.Bucket("fruits"))

				again, err := svc.Check(ctx, id)
				So(err, ShouldBeNil)
				So(again.Complete, ShouldBeTrue)
				So(again.State.Checks, ShouldEqual, 1)
			})

			Convey("Reset replays the puzzle", func() {
				st, err := svc.Reset(ctx, id)
				So(err, ShouldBeNil)
				So(st.Complete, ShouldBeFalse)
				So(st.LastScore, ShouldBeNil)
				So(st.Board.Locked, ShouldBeFalse)
				So(len(st.Board.Buckets[0].Tokens), ShouldEqual, 6)
				So(st.Checks, ShouldEqual, 1)
			})
		})

		Convey("The menu button is surfaced in the state", func() {
			res, err := svc.Dispatch(ctx, id, service.EventRequest{Type: dom.EventClick, Target: view.MenuButtonID})
			So(err, ShouldBeNil)
			So(res.State.MenuRequested, ShouldBeTrue)
		})

		Convey("Render leaves an unchanged board as it was", func() {
			before, _ := svc.Session(ctx, id)
			after, err := svc.Render(ctx, id)
			So(err, ShouldBeNil)
			So(after.Board, ShouldResemble, before.Board)
		})

		Convey("Bad events are rejected", func() {
			_, err := svc.Dispatch(ctx, id, service.EventRequest{Type: "keydown"})
			So(errors.Is(err, service.ErrUnknownEvent), ShouldBeTrue)

			_, err = svc.Dispatch(ctx, id, service.EventRequest{Type: dom.EventDrop, Target: "nowhere"})
			So(errors.Is(err, service.ErrElementNotFound), ShouldBeTrue)

			_, err = svc.Layout(ctx, id, []service.RectUpdate{
				{ID: view.ContainerID("fruits"), Rect: dom.Rect{Width: 1, Height: 1}},
				{ID: "nowhere"},
			})
			So(errors.Is(err, service.ErrElementNotFound), ShouldBeTrue)
			st, _ := svc.Session(ctx, id)
			So(st.Board.Buckets[1].Rect, ShouldResemble, dom.Rect{})
		})

		Convey("A deleted session is gone", func() {
			So(svc.DeleteSession(ctx, id), ShouldBeNil)
			_, err := svc.Session(ctx, id)
			So(errors.Is(err, service.ErrSessionNotFound), ShouldBeTrue)
			So(errors.Is(svc.DeleteSession(ctx, id), service.ErrSessionNotFound), ShouldBeTrue)
		})
	})
}

func TestService_CreateSession(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		strs, err := catalog.BuiltinStrings("en")
		So(err, ShouldBeNil)
		svc := started(t, service.WithStrings(strs), service.WithMaxSessions(2))

		Convey("Inline data builds an inline board for a guest", func() {
			st, err := svc.CreateSession(ctx, service.CreateRequest{Data: &puzzle.Data{
				Words:      []puzzle.Entry{{Word: "cat", Category: "animal"}},
				Categories: []puzzle.CategoryEntry{{ID: "animal", Label: "Animals"}},
			}})
			So(err, ShouldBeNil)
			So(st.PuzzleID, ShouldEqual, service.InlinePuzzleID)
			So(st.PlayerID, ShouldStartWith, "guest-")
		})

		Convey("Invalid inline data is rejected", func() {
			_, err := svc.CreateSession(ctx, service.CreateRequest{Data: &puzzle.Data{
				Words:      []puzzle.Entry{{Word: "cat", Category: "plant"}},
				Categories: []puzzle.CategoryEntry{{ID: "animal", Label: "Animals"}},
			}})
			So(errors.Is(err, puzzle.ErrUnknownCategory), ShouldBeTrue)
			So(svc.GetStats(ctx).Sessions, ShouldEqual, 0)
		})

		Convey("A missing puzzle is rejected", func() {
			_, err := svc.CreateSession(ctx, service.CreateRequest{})
			So(err, ShouldEqual, service.ErrMissingPuzzle)
			_, err = svc.CreateSession(ctx, service.CreateRequest{PuzzleID: "nope"})
			So(errors.Is(err, catalog.ErrPuzzleNotFound), ShouldBeTrue)
		})

		Convey("Labels follow the requested locale", func() {
			st, err := svc.CreateSession(ctx, service.CreateRequest{PuzzleID: "produce", Locale: "de-DE"})
			So(err, ShouldBeNil)
			So(st.Locale, ShouldEqual, "de")
			So(st.Board.Buckets[1].Label, ShouldEqual, "Obst")
		})

		Convey("A seed fixes the shuffled order", func() {
			seed := int64(42)
			a, err := svc.CreateSession(ctx, service.CreateRequest{PuzzleID: "animals", Seed: &seed})
			So(err, ShouldBeNil)
			b, err := svc.CreateSession(ctx, service.CreateRequest{PuzzleID: "animals", Seed: &seed})
			So(err, ShouldBeNil)
			So(a.Board.Buckets[0].Tokens, ShouldResemble, b.Board.Buckets[0].Tokens)
		})

		Convey("The session cap is enforced", func() {
			for i := 0; i < 2; i++ {
				_, err := svc.CreateSession(ctx, service.CreateRequest{PuzzleID: "produce"})
				So(err, ShouldBeNil)
			}
			_, err := svc.CreateSession(ctx, service.CreateRequest{PuzzleID: "produce"})
			So(err, ShouldEqual, service.ErrTooManySessions)
		})
	})
}

func TestService_ConcurrentCreate(t *testing.T) {
	Convey("Given sessions created while other sessions are in use", t, func() {
		ctx := context.Background()
		svc := started(t, service.WithMaxSessions(64))

		const n = 16
		created := make([]service.SessionState, n)
		moved := make([]service.DispatchResult, n)
		errs := make([]error, n)
		stop := make(chan struct{})

		var sweeper sync.WaitGroup
		sweeper.Add(1)
		go func() {
			defer sweeper.Done()
			for {
				select {
				case <-stop:
					return
				default:
					svc.EvictIdle(ctx, time.Now())
				}
			}
		}()

		var wg sync.WaitGroup
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				st, err := svc.CreateSession(ctx, service.CreateRequest{PuzzleID: "produce"})
				if err != nil {
					errs[i] = err
					return
				}
				created[i] = st
				if _, err = svc.Dispatch(ctx, st.ID, service.EventRequest{Type: dom.EventDragStart, Target: view.TokenID("apple")}); err != nil {
					errs[i] = err
					return
				}
				moved[i], errs[i] = svc.Dispatch(ctx, st.ID, service.EventRequest{Type: dom.EventDrop, Target: view.ContainerID("fruits")})
			}()
		}
		wg.Wait()
		close(stop)
		sweeper.Wait()

		Convey("Then each creation returns its own untouched board", func() {
			for i := range n {
				So(errs[i], ShouldBeNil)
				So(created[i].Board.History, ShouldEqual, 0)
				So(created[i].Board.Buckets[0].Tokens, ShouldHaveLength, 6)
				So(moved[i].State.ID, ShouldEqual, created[i].ID)
				So(moved[i].State.Board.Membership()["apple"], ShouldEqual, puzzle.Bucket("fruits"))
			}
		})
	})
}

func TestService_EvictIdle(t *testing.T) {
	Convey("Given sessions and a controllable clock", t, func() {
		ctx := context.Background()
		var mu sync.Mutex
		now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
		clock := func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			return now
		}
		advance := func(d time.Duration) {
			mu.Lock()
			defer mu.Unlock()
			now = now.Add(d)
		}

		svc := started(t, service.WithSessionTTL(time.Minute), service.WithClock(clock))
		idle, err := svc.CreateSession(ctx, service.CreateRequest{PuzzleID: "produce"})
		So(err, ShouldBeNil)
		busy, err := svc.CreateSession(ctx, service.CreateRequest{PuzzleID: "produce"})
		So(err, ShouldBeNil)

		advance(45 * time.Second)
		_, err = svc.Session(ctx, busy.ID)
		So(err, ShouldBeNil)
		advance(30 * time.Second)

		Convey("Only the idle session is evicted", func() {
			So(svc.EvictIdle(ctx, clock()), ShouldEqual, 1)
			_, err := svc.Session(ctx, idle.ID)
			So(errors.Is(err, service.ErrSessionNotFound), ShouldBeTrue)
			_, err = svc.Session(ctx, busy.ID)
			So(err, ShouldBeNil)
			So(svc.EvictIdle(ctx, clock()), ShouldEqual, 0)
		})
	})
}
