package http

import (
	"bytes"
	"encoding/json"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/arenachat/arena-server/internal/config"
	"github.com/arenachat/arena-server/internal/core"
	"github.com/arenachat/arena-server/internal/images"
	"github.com/arenachat/arena-server/internal/store/redisstore"
)

type testEnv struct {
	handler  stdhttp.Handler
	client   *redis.Client
	registry *core.Registry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	logger := zerolog.New(io.Discard)
	st := redisstore.New(client, time.Hour)

	imageSvc, err := images.NewService(t.TempDir(), st, &logger)
	if err != nil {
		t.Fatalf("init images: %v", err)
	}

	registry := core.NewRegistry()
	engine := core.NewEngine(registry, st, &logger)
	lifecycle := core.NewLifecycle(st, imageSvc, &logger)

	cfg := config.Default()
	cfg.UploadDir = t.TempDir()

	server := NewServer(Deps{
		Store:     st,
		Registry:  registry,
		Engine:    engine,
		Lifecycle: lifecycle,
		Images:    imageSvc,
	}, &cfg, &logger)

	return &testEnv{
		handler:  server.Handler,
		client:   client,
		registry: registry,
	}
}

func (env *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}
