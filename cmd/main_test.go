package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/wordsort/internal/config"
	"github.com/okian/wordsort/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func get(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestBuildService(t *testing.T) {
	convey.Convey("Given the default configuration", t, func() {
		cfg := config.New()
		cfg.WorkerCount = 2
		log := logger.Get()

		svc, err := buildService(cfg, log)
		convey.So(err, convey.ShouldBeNil)
		convey.So(svc.Start(context.Background()), convey.ShouldBeNil)
		defer func() { _ = svc.Stop(context.Background()) }()

		h := newHandler(svc, cfg, log)

		convey.Convey("Then the built-in catalog is served", func() {
			w := get(h, http.MethodGet, "/puzzles", "")
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Body.String(), convey.ShouldContainSubstring, "produce")
		})

		convey.Convey("Then the OpenAPI document is served", func() {
			w := get(h, http.MethodGet, "/openapi.yaml", "")
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("Then token issuing is not routed", func() {
			w := get(h, http.MethodPost, "/auth/token", "")
			convey.So(w.Code, convey.ShouldEqual, http.StatusNotFound)
		})

		convey.Convey("Then service gauges refresh without panicking", func() {
			convey.So(func() { updateServiceMetrics(context.Background(), svc) }, convey.ShouldNotPanic)
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})
	})

	convey.Convey("Given a jwt secret", t, func() {
		cfg := config.New()
		cfg.JWTSecret = "secret"
		cfg.WorkerCount = 1
		log := logger.Get()

		svc, err := buildService(cfg, log)
		convey.So(err, convey.ShouldBeNil)
		convey.So(svc.Start(context.Background()), convey.ShouldBeNil)
		defer func() { _ = svc.Stop(context.Background()) }()

		w := get(newHandler(svc, cfg, log), http.MethodPost, "/auth/token", `{"player_id":"kim"}`)
		convey.So(w.Code, convey.ShouldEqual, http.StatusCreated)
	})

	convey.Convey("Given catalog files", t, func() {
		dir := t.TempDir()
		cfg := config.New()

		convey.Convey("When the puzzles file is missing", func() {
			cfg.PuzzlesFile = filepath.Join(dir, "missing.yaml")
			_, err := buildService(cfg, logger.Get())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "load puzzles")
		})

		convey.Convey("When the strings file is missing", func() {
			cfg.StringsFile = filepath.Join(dir, "missing.yaml")
			_, err := buildService(cfg, logger.Get())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "load strings")
		})

		convey.Convey("When the puzzles file is valid", func() {
			path := filepath.Join(dir, "puzzles.yaml")
			doc := `
puzzles:
  - id: pets
    title: Pets
    categories:
      - {id: mammals, label: Mammals}
      - {id: birds, label: Birds}
    words:
      - {word: cat, category: mammals}
      - {word: parrot, category: birds}
`
			convey.So(os.WriteFile(path, []byte(doc), 0o600), convey.ShouldBeNil)
			cfg.PuzzlesFile = path
			cfg.WorkerCount = 1

			svc, err := buildService(cfg, logger.Get())
			convey.So(err, convey.ShouldBeNil)
			convey.So(svc.Start(context.Background()), convey.ShouldBeNil)
			defer func() { _ = svc.Stop(context.Background()) }()
			convey.So(svc.Puzzles(), convey.ShouldHaveLength, 1)
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a running server", t, func() {
		cfg := config.New()
		cfg.Addr = "127.0.0.1:0"
		cfg.WorkerCount = 1

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- run(ctx, cfg, logger.Get()) }()

		convey.Convey("When the context is cancelled it shuts down cleanly", func() {
			time.Sleep(50 * time.Millisecond)
			cancel()
			select {
			case err := <-done:
				convey.So(err, convey.ShouldBeNil)
			case <-time.After(5 * time.Second):
				t.Fatal("run did not return")
			}
		})
	})

	convey.Convey("Given an unusable address", t, func() {
		cfg := config.New()
		cfg.Addr = "256.0.0.1:bad"
		cfg.WorkerCount = 1

		err := run(context.Background(), cfg, logger.Get())
		convey.So(err, convey.ShouldNotBeNil)
		convey.So(err.Error(), convey.ShouldContainSubstring, "http server")
	})
}
