package sortbot

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync/atomic"

	"github.com/okian/wordsort/internal/adapters/dom"
	service "github.com/okian/wordsort/internal/app"
	"github.com/okian/wordsort/internal/domain/evaluate"
	"github.com/okian/wordsort/internal/domain/puzzle"
	"github.com/okian/wordsort/internal/view"
	"github.com/okian/wordsort/pkg/logger"
)

// Board geometry reported to the server before touch drags.
const (
	bankHeight   = 100.0
	bucketTop    = 200.0
	bucketWidth  = 150.0
	bucketHeight = 150.0
	bucketGap    = 20.0
	tokenWidth   = 50.0
	tokenHeight  = 20.0
)

// bot plays rounds as one player.
type bot struct {
	id     string
	client *Client
	rng    *rand.Rand
	cfg    *Config
	stats  *Stats
	log    logger.Logger
	best   float64
	played int
}

// playRound creates a session on a fresh puzzle, sorts every word, checks
// and returns the score the leaderboard should see.
func (b *bot) playRound(ctx context.Context, round int) (float64, error) {
	data, key := generatePuzzle(b.rng, round, b.cfg.Words, b.cfg.Buckets)
	st, err := b.client.CreateSession(ctx, service.CreateRequest{Data: &data, PlayerID: b.id})
	if err != nil {
		return 0, fmt.Errorf("create session: %w", err)
	}
	atomic.AddInt64(&b.stats.Sessions, 1)
	defer func() { _ = b.client.DeleteSession(context.WithoutCancel(ctx), st.ID) }()

	if st.PlayerID != b.id {
		return 0, fmt.Errorf("session player %q, want %q", st.PlayerID, b.id)
	}
	if err := b.client.Layout(ctx, st.ID, containerRects(data)); err != nil {
		return 0, fmt.Errorf("layout: %w", err)
	}
	rects := bucketCenters(data)

	for _, tok := range bankTokens(st.Board) {
		target := pickTarget(b.rng, data, key[tok.Text], b.cfg.Accuracy)
		if err := b.move(ctx, st.ID, tok, target, rects[target]); err != nil {
			return 0, fmt.Errorf("move %s: %w", tok.Text, err)
		}
	}

	score, err := b.check(ctx, st.ID, round)
	if err != nil {
		return 0, err
	}
	if score.Total() != len(data.Words) {
		return 0, fmt.Errorf("checked %d words, want %d", score.Total(), len(data.Words))
	}
	got := expectedScore(score.Correct, score.Total(), b.cfg.Weight)
	if b.cfg.Verbose {
		b.log.Info(ctx, "round played",
			logger.String("player", b.id),
			logger.Int("round", round),
			logger.Int("correct", score.Correct),
			logger.Int("incorrect", score.Incorrect),
			logger.Float64("score", got),
		)
	}
	return got, nil
}

func (b *bot) useTouch() bool {
	switch b.cfg.Mode {
	case ModeTouch:
		return true
	case ModeMixed:
		return b.rng.IntN(2) == 0
	default:
		return false
	}
}

func (b *bot) move(ctx context.Context, sessionID string, tok view.TokenSnapshot, target string, at dom.Point) error {
	var (
		res service.DispatchResult
		err error
	)
	if b.useTouch() {
		res, err = b.touchMove(ctx, sessionID, tok, at)
		atomic.AddInt64(&b.stats.TouchMoves, 1)
	} else {
		res, err = b.pointerMove(ctx, sessionID, tok, target)
	}
	if err != nil {
		return err
	}
	atomic.AddInt64(&b.stats.Moves, 1)
	if got := res.State.Board.Membership()[tok.WordID]; got != puzzle.Bucket(target) {
		return fmt.Errorf("landed in %q, want %q", got, target)
	}
	return nil
}

func (b *bot) pointerMove(ctx context.Context, sessionID string, tok view.TokenSnapshot, target string) (service.DispatchResult, error) {
	steps := []service.EventRequest{
		{Type: dom.EventDragStart, Target: tok.ElementID},
		{Type: dom.EventDragOver, Target: view.ContainerID(puzzle.Bucket(target))},
		{Type: dom.EventDrop, Target: view.ContainerID(puzzle.Bucket(target))},
		{Type: dom.EventDragEnd, Target: tok.ElementID},
	}
	var res service.DispatchResult
	for _, ev := range steps {
		var err error
		if res, err = b.client.Dispatch(ctx, sessionID, ev); err != nil {
			return res, fmt.Errorf("%s: %w", ev.Type, err)
		}
	}
	return res, nil
}

func (b *bot) touchMove(ctx context.Context, sessionID string, tok view.TokenSnapshot, at dom.Point) (service.DispatchResult, error) {
	start := dom.Rect{Left: 10, Top: 10, Width: tokenWidth, Height: tokenHeight}
	if err := b.client.Layout(ctx, sessionID, []service.RectUpdate{{ID: tok.ElementID, Rect: start}}); err != nil {
		return service.DispatchResult{}, fmt.Errorf("token layout: %w", err)
	}

	grab := []dom.Touch{{ClientX: start.Left + tokenWidth/2, ClientY: start.Top + tokenHeight/2}}
	release := []dom.Touch{{ClientX: at.X, ClientY: at.Y}}

	res, err := b.client.Dispatch(ctx, sessionID, service.EventRequest{Type: dom.EventTouchStart, Target: tok.ElementID, Touches: grab})
	if err != nil {
		return res, fmt.Errorf("%s: %w", dom.EventTouchStart, err)
	}
	if !res.DefaultPrevented {
		return res, fmt.Errorf("%s was not claimed", dom.EventTouchStart)
	}
	if _, err := b.client.Dispatch(ctx, sessionID, service.EventRequest{Type: dom.EventTouchMove, Target: tok.ElementID, Touches: release}); err != nil {
		return res, fmt.Errorf("%s: %w", dom.EventTouchMove, err)
	}
	res, err = b.client.Dispatch(ctx, sessionID, service.EventRequest{Type: dom.EventTouchEnd, Target: tok.ElementID, ChangedTouches: release})
	if err != nil {
		return res, fmt.Errorf("%s: %w", dom.EventTouchEnd, err)
	}
	return res, nil
}

// check alternates between the check button and the check endpoint.
func (b *bot) check(ctx context.Context, sessionID string, round int) (score evaluate.Score, err error) {
	atomic.AddInt64(&b.stats.Checks, 1)
	if round%2 == 1 {
		res, err := b.client.Dispatch(ctx, sessionID, service.EventRequest{Type: dom.EventClick, Target: view.CheckButtonID})
		if err != nil {
			return score, fmt.Errorf("click check: %w", err)
		}
		if res.State.LastScore == nil {
			return score, fmt.Errorf("click check: no score on session")
		}
		return *res.State.LastScore, nil
	}
	res, err := b.client.Check(ctx, sessionID)
	if err != nil {
		return score, fmt.Errorf("check: %w", err)
	}
	return res.Score, nil
}

func bankTokens(s view.Snapshot) []view.TokenSnapshot {
	for _, bk := range s.Buckets {
		if bk.ID == puzzle.WordBank {
			return bk.Tokens
		}
	}
	return nil
}

func containerRects(data puzzle.Data) []service.RectUpdate {
	width := float64(len(data.Categories)) * (bucketWidth + bucketGap)
	rects := []service.RectUpdate{{ID: view.ContainerID(puzzle.WordBank), Rect: dom.Rect{Width: width, Height: bankHeight}}}
	for i, c := range data.Categories {
		rects = append(rects, service.RectUpdate{ID: view.ContainerID(puzzle.Bucket(c.ID)), Rect: dom.Rect{
			Left:   float64(i) * (bucketWidth + bucketGap),
			Top:    bucketTop,
			Width:  bucketWidth,
			Height: bucketHeight,
		}})
	}
	return rects
}

func bucketCenters(data puzzle.Data) map[string]dom.Point {
	out := make(map[string]dom.Point, len(data.Categories))
	for i, r := range containerRects(data)[1:] {
		out[data.Categories[i].ID] = dom.Point{X: r.Rect.Left + r.Rect.Width/2, Y: r.Rect.Top + r.Rect.Height/2}
	}
	return out
}
