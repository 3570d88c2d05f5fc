package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/wordsort/internal/adapters/mq/queue"
	"github.com/okian/wordsort/internal/adapters/mq/worker"
	"github.com/okian/wordsort/internal/adapters/repository"
	"github.com/okian/wordsort/internal/domain/model"
	"github.com/okian/wordsort/internal/domain/scoring"
	logging "github.com/okian/wordsort/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	ch chan worker.Report
}

func newMockQueue() *mockQueue {
	return &mockQueue{ch: make(chan worker.Report, 10)}
}

func (m *mockQueue) Dequeue(context.Context) <-chan worker.Report { return m.ch }

func (m *mockQueue) add(r worker.Report) { m.ch <- r } //nolint:gocritic // test helper

type update struct {
	score float64
	meta  repository.Meta
}

type mockUpdater struct {
	mu      sync.Mutex
	updates map[string]update
	errs    map[string]error
}

func newMockUpdater() *mockUpdater {
	return &mockUpdater{updates: make(map[string]update), errs: make(map[string]error)}
}

func (m *mockUpdater) UpdateBest(_ context.Context, playerID string, score float64, meta repository.Meta) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.errs[playerID]; ok {
		return false, err
	}
	m.updates[playerID] = update{score: score, meta: meta}
	return true, nil
}

func (m *mockUpdater) get(playerID string) (update, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.updates[playerID]
	return u, ok
}

func (m *mockUpdater) fail(playerID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[playerID] = err
}

func report(id, player string, correct, incorrect int) model.ScoreReport {
	return model.ScoreReport{
		ReportID:  id,
		SessionID: "s-" + id,
		PlayerID:  player,
		PuzzleID:  "produce",
		Correct:   correct,
		Incorrect: incorrect,
		Complete:  incorrect == 0,
		TS:        time.Now(),
	}
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a running worker", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		updater := newMockUpdater()
		w := worker.NewInMemoryWorker(q, scoring.NewAccuracyScorer(), updater, worker.WithName("test-worker"))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a checked board arrives", func() {
			q.add(report("r1", "alice", 3, 1))

			convey.Convey("Then its accuracy is written to the leaderboard", func() {
				convey.So(eventually(func() bool { _, ok := updater.get("alice"); return ok }), convey.ShouldBeTrue)
				u, _ := updater.get("alice")
				convey.So(u.score, convey.ShouldEqual, 75.0)
				convey.So(u.meta, convey.ShouldResemble, repository.Meta{PuzzleID: "produce", ReportID: "r1"})
			})
		})

		convey.Convey("When a report has nothing evaluated", func() {
			q.add(report("r2", "bob", 0, 0))
			q.add(report("r3", "carol", 1, 0))

			convey.Convey("Then it is skipped and later reports still flow", func() {
				convey.So(eventually(func() bool { _, ok := updater.get("carol"); return ok }), convey.ShouldBeTrue)
				_, ok := updater.get("bob")
				convey.So(ok, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the leaderboard rejects an update", func() {
			updater.fail("dave", errors.New("boom"))
			q.add(report("r4", "dave", 2, 0))
			q.add(report("r5", "erin", 2, 0))

			convey.Convey("Then the worker keeps running", func() {
				convey.So(eventually(func() bool { _, ok := updater.get("erin"); return ok }), convey.ShouldBeTrue)
				_, ok := updater.get("dave")
				convey.So(ok, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When shutting down", func() {
			sctx, scancel := context.WithTimeout(context.Background(), time.Second)
			defer scancel()

			convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
			convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
			_, open := <-w.Done()
			convey.So(open, convey.ShouldBeFalse)
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool over a real queue and leaderboard", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(500))
		board := repository.NewTreapStore(repository.WithSeed(7))
		scorer := scoring.NewAccuracyScorer(scoring.WithPuzzleWeights(map[string]float64{"hard": 1.5}, 1))

		var mu sync.Mutex
		improved := 0
		pool := worker.NewPool(q, scorer, board,
			worker.WithWorkerCount(4),
			worker.WithProcessedHook(func(_ worker.Report, updated bool) {
				mu.Lock()
				defer mu.Unlock()
				if updated {
					improved++
				}
			}),
		)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)
		pool.Start(ctx)

		convey.So(pool.Size(), convey.ShouldEqual, 4)

		convey.Convey("When many reports are enqueued concurrently", func() {
			const players, rounds = 20, 5
			var wg sync.WaitGroup
			for p := 0; p < players; p++ {
				wg.Add(1)
				go func(p int) {
					defer wg.Done()
					for r := 0; r < rounds; r++ {
						rep := report(fmt.Sprintf("r-%d-%d", p, r), fmt.Sprintf("p%02d", p), r, rounds-r)
						for !q.Enqueue(ctx, rep) {
							time.Sleep(time.Millisecond)
						}
					}
				}(p)
			}
			wg.Wait()

			convey.Convey("Then each player keeps their best score after a drain", func() {
				sctx, scancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer scancel()
				convey.So(pool.Shutdown(sctx), convey.ShouldBeNil)

				convey.So(pool.Processed(), convey.ShouldEqual, players*rounds)
				convey.So(board.Count(ctx), convey.ShouldEqual, players)
				for p := 0; p < players; p++ {
					e, err := board.Rank(ctx, fmt.Sprintf("p%02d", p))
					convey.So(err, convey.ShouldBeNil)
					convey.So(e.Score, convey.ShouldEqual, 80.0)
					convey.So(e.Rank, convey.ShouldEqual, 1)
				}
				mu.Lock()
				defer mu.Unlock()
				convey.So(improved, convey.ShouldBeBetweenOrEqual, players, players*rounds)
			})
		})

		convey.Convey("When a weighted puzzle is scored", func() {
			rep := report("w1", "heavy", 1, 1)
			rep.PuzzleID = "hard"
			convey.So(q.Enqueue(ctx, rep), convey.ShouldBeTrue)

			convey.Convey("Then the weight is applied", func() {
				convey.So(eventually(func() bool { _, err := board.Rank(ctx, "heavy"); return err == nil }), convey.ShouldBeTrue)
				e, _ := board.Rank(ctx, "heavy")
				convey.So(e.Score, convey.ShouldEqual, 75.0)
				convey.So(pool.Shutdown(ctx), convey.ShouldBeNil)
			})
		})
	})
}

func TestPoolShutdownWithoutStart(t *testing.T) {
	convey.Convey("A pool that never started shuts down immediately", t, func() {
		q := queue.NewInMemoryQueue()
		pool := worker.NewPool(q, scoring.NewAccuracyScorer(), repository.NewTreapStore())
		convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
		convey.So(q.IsClosed(), convey.ShouldBeTrue)
	})
}
