package images

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/chai2010/webp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/arenachat/arena-server/internal/store"
	"github.com/arenachat/arena-server/internal/store/redisstore"
)

func newTestService(t *testing.T) (*Service, *redisstore.Store, string) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	st := redisstore.New(client, time.Hour)
	logger := zerolog.New(io.Discard)

	dir := t.TempDir()
	svc, err := NewService(dir, st, &logger)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, st, dir
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 80, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestProcessResizesAndStores(t *testing.T) {
	svc, st, dir := newTestService(t)
	ctx := context.Background()

	stored, err := svc.Process(ctx, pngBytes(t, 800, 400))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if stored.ID == "" || stored.FileName != stored.ID+".webp" {
		t.Fatalf("unexpected stored metadata: %+v", stored)
	}
	if stored.Path != "/uploads/"+stored.FileName {
		t.Fatalf("unexpected path: %q", stored.Path)
	}

	f, err := os.Open(filepath.Join(dir, stored.FileName))
	if err != nil {
		t.Fatalf("open stored file: %v", err)
	}
	defer f.Close()

	img, err := webp.Decode(f)
	if err != nil {
		t.Fatalf("decode stored webp: %v", err)
	}
	if got := img.Bounds().Dx(); got != maxWidth {
		t.Fatalf("expected width %d after resize, got %d", maxWidth, got)
	}

	name, err := st.ImageFile(ctx, stored.ID)
	if err != nil {
		t.Fatalf("image file: %v", err)
	}
	if name != stored.FileName {
		t.Fatalf("store records %q, want %q", name, stored.FileName)
	}
}

func TestProcessKeepsSmallImages(t *testing.T) {
	svc, _, dir := newTestService(t)

	stored, err := svc.Process(context.Background(), pngBytes(t, 200, 100))
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, stored.FileName))
	if err != nil {
		t.Fatalf("open stored file: %v", err)
	}
	defer f.Close()

	img, err := webp.Decode(f)
	if err != nil {
		t.Fatalf("decode stored webp: %v", err)
	}
	if got := img.Bounds().Dx(); got != 200 {
		t.Fatalf("small image must keep its width, got %d", got)
	}
}

func TestProcessRejectsGarbage(t *testing.T) {
	svc, _, _ := newTestService(t)

	if _, err := svc.Process(context.Background(), []byte("not an image")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestDeleteImage(t *testing.T) {
	svc, st, dir := newTestService(t)
	ctx := context.Background()

	stored, err := svc.Process(ctx, pngBytes(t, 100, 100))
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	if err := svc.DeleteImage(ctx, stored.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, stored.FileName)); !os.IsNotExist(err) {
		t.Fatal("file must be gone after delete")
	}
	name, err := st.ImageFile(ctx, stored.ID)
	if err != nil {
		t.Fatalf("image file: %v", err)
	}
	if name != "" {
		t.Fatalf("record must be gone after delete, got %q", name)
	}

	// Unknown ids are a no-op.
	if err := svc.DeleteImage(ctx, "unknown"); err != nil {
		t.Fatalf("delete unknown: %v", err)
	}
}

func TestDeleteRoomImages(t *testing.T) {
	svc, st, dir := newTestService(t)
	ctx := context.Background()

	stored, err := svc.Process(ctx, pngBytes(t, 100, 100))
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	// Reference the image from a room message so the marker exists.
	msg := store.Message{Name: "alice", Content: "![p](" + stored.Path + ")"}
	if err := st.Append(ctx, "lobby", msg, "a"); err != nil {
		t.Fatalf("append: %v", err)
	}

	if err := svc.DeleteRoomImages(ctx, "lobby"); err != nil {
		t.Fatalf("delete room images: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, stored.FileName)); !os.IsNotExist(err) {
		t.Fatal("room image file must be gone")
	}
}
