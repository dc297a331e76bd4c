// Package images normalizes uploaded images: resized to a bounded width,
// re-encoded as WebP, written under the upload directory and tracked in
// the store so room expiry can cascade to the files.
package images

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/arenachat/arena-server/internal/store"
)

const (
	// maxWidth bounds stored images; taller-than-wide images keep their
	// aspect ratio.
	maxWidth = 600
	// targetSize is the encoded-size threshold above which the quality
	// drops a notch.
	targetSize = 100 * 1024

	qualityHigh = 80
	qualityLow  = 60
)

// Stored describes a processed, persisted image.
type Stored struct {
	ID       string `json:"id"`
	FileName string `json:"fileName"`
	Path     string `json:"path"`
}

// Service processes and stores uploaded images.
type Service struct {
	dir   string
	store store.ImageStore
	log   *zerolog.Logger
}

// NewService creates the image service, ensuring the upload directory
// exists.
func NewService(dir string, st store.ImageStore, logger *zerolog.Logger) (*Service, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Service{dir: dir, store: st, log: logger}, nil
}

// Process decodes the raw upload, scales it down to the width bound,
// encodes it as WebP (dropping quality once if the result stays above
// the size threshold) and records it in the store.
func (s *Service) Process(ctx context.Context, data []byte) (*Stored, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	if img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	encoded, err := encodeWebP(img, qualityHigh)
	if err != nil {
		return nil, err
	}
	if len(encoded) > targetSize {
		if encoded, err = encodeWebP(img, qualityLow); err != nil {
			return nil, err
		}
	}

	imageID := uuid.NewString()
	fileName := imageID + ".webp"
	if err := os.WriteFile(filepath.Join(s.dir, fileName), encoded, 0o644); err != nil {
		return nil, fmt.Errorf("write image file: %w", err)
	}

	if err := s.store.SaveImage(ctx, imageID, fileName); err != nil {
		return nil, err
	}

	s.log.Debug().Str("image_id", imageID).Int("bytes", len(encoded)).Msg("image stored")
	return &Stored{
		ID:       imageID,
		FileName: fileName,
		Path:     "/uploads/" + fileName,
	}, nil
}

// DeleteImage removes an image's file and record. Unknown ids are a
// no-op.
func (s *Service) DeleteImage(ctx context.Context, imageID string) error {
	fileName, err := s.store.ImageFile(ctx, imageID)
	if err != nil {
		return err
	}
	if fileName == "" {
		return nil
	}

	if err := os.Remove(filepath.Join(s.dir, fileName)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove image file: %w", err)
	}
	return s.store.DeleteImage(ctx, imageID)
}

// DeleteRoomImages removes every image referenced from the room. Part
// of the room destruction cascade; file cleanup failures are logged and
// skipped so one bad file cannot wedge the cascade.
func (s *Service) DeleteRoomImages(ctx context.Context, roomID string) error {
	ids, err := s.store.RoomImages(ctx, roomID)
	if err != nil {
		return err
	}

	for _, id := range ids {
		if err := s.DeleteImage(ctx, id); err != nil {
			s.log.Error().Err(err).Str("room", roomID).Str("image_id", id).Msg("delete room image")
		}
	}
	return nil
}

func encodeWebP(img image.Image, quality float32) ([]byte, error) {
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}
	return buf.Bytes(), nil
}
