// Package redisstore implements store.Store on Redis. Rooms are a set,
// each room's log is a list trimmed to the history window, and lifetime
// bookkeeping rides on plain keys with TTLs matching the room lifetime.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arenachat/arena-server/internal/store"
)

const (
	roomsKey       = "arena:rooms"
	roomPrefix     = "arena:"
	imagePrefix    = "image:"
	feedbacksKey   = "feedbacks"
	feedbackPrefix = "feedback:"

	feedbackRetention = 30 * 24 * time.Hour
	scanBatch         = 100
)

// imageRefPattern matches a markdown image link and captures its URL.
var imageRefPattern = regexp.MustCompile(`!\[[^\]]*\]\(([^)]+)\)`)

// Store implements store.Store for Redis.
type Store struct {
	client   *redis.Client
	lifetime time.Duration
	now      func() time.Time
}

// New creates a Redis-backed store. lifetime is the room lifetime used to
// derive expiry times and key TTLs.
func New(client *redis.Client, lifetime time.Duration) *Store {
	return &Store{
		client:   client,
		lifetime: lifetime,
		now:      time.Now,
	}
}

// Ping verifies the Redis connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

func createdAtKey(roomID string) string {
	return roomPrefix + roomID + ":created_at"
}

func messagesKey(roomID string) string {
	return roomPrefix + roomID + ":messages"
}

func lastSenderKey(roomID string) string {
	return roomPrefix + roomID + ":lastSender"
}

func roomImageKey(roomID, imageID string) string {
	return roomPrefix + roomID + ":image:" + imageID
}

func dailyCounterKey(day time.Time) string {
	return "arena:rooms:created:" + day.Format("2006-01-02")
}

// ==== MessageStore ====

// Append adds a message to the room log. The push, trim and last-sender
// update run in a single MULTI/EXEC transaction so concurrent senders
// cannot interleave the steps.
func (s *Store) Append(ctx context.Context, roomID string, msg store.Message, senderID string) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, messagesKey(roomID), data)
	pipe.LTrim(ctx, messagesKey(roomID), -store.HistoryWindow, -1)
	pipe.Expire(ctx, messagesKey(roomID), s.lifetime)
	pipe.Set(ctx, lastSenderKey(roomID), senderID, s.lifetime)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append message: %w", err)
	}

	// Register any embedded image against the room so Purge can cascade.
	if imageID := extractImageID(msg.Content); imageID != "" {
		if err := s.client.Set(ctx, roomImageKey(roomID, imageID), "1", s.lifetime).Err(); err != nil {
			return fmt.Errorf("register room image: %w", err)
		}
	}

	return nil
}

// Read returns up to the most recent HistoryWindow messages in order.
func (s *Store) Read(ctx context.Context, roomID string) ([]store.Message, error) {
	raw, err := s.client.LRange(ctx, messagesKey(roomID), -store.HistoryWindow, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read messages: %w", err)
	}

	messages := make([]store.Message, 0, len(raw))
	for _, item := range raw {
		var msg store.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			// A corrupt entry is dropped rather than failing the read.
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// LastSender returns the last sender id, or "" when none is recorded.
func (s *Store) LastSender(ctx context.Context, roomID string) (string, error) {
	id, err := s.client.Get(ctx, lastSenderKey(roomID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get last sender: %w", err)
	}
	return id, nil
}

// extractImageID pulls the image id out of a markdown image link, taking
// the URL's base name without the .webp suffix.
func extractImageID(content string) string {
	if !strings.Contains(content, "![") {
		return ""
	}
	match := imageRefPattern.FindStringSubmatch(content)
	if match == nil {
		return ""
	}
	return strings.TrimSuffix(path.Base(match[1]), ".webp")
}

// ==== RoomStore ====

// Create registers a new room and bumps the daily creation counter.
func (s *Store) Create(ctx context.Context, roomID string) error {
	active, err := s.Active(ctx, roomID)
	if err != nil {
		return err
	}
	if active {
		return store.ErrRoomExists
	}

	count, err := s.CreatedToday(ctx)
	if err != nil {
		return err
	}
	if count >= store.DailyRoomQuota {
		return store.ErrQuotaExceeded
	}

	now := s.now()
	counterKey := dailyCounterKey(now)

	pipe := s.client.TxPipeline()
	pipe.Incr(ctx, counterKey)
	pipe.Expire(ctx, counterKey, s.lifetime)
	pipe.SAdd(ctx, roomsKey, roomID)
	pipe.Set(ctx, createdAtKey(roomID), now.Format(time.RFC3339Nano), s.lifetime)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	return nil
}

// Active reports whether the room exists and has not expired. It never
// mutates state; callers observing an expired room invoke Purge themselves.
func (s *Store) Active(ctx context.Context, roomID string) (bool, error) {
	info, err := s.Info(ctx, roomID)
	if errors.Is(err, store.ErrRoomNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.Active(s.now()), nil
}

// Info returns lifecycle metadata for a room.
func (s *Store) Info(ctx context.Context, roomID string) (*store.RoomInfo, error) {
	raw, err := s.client.Get(ctx, createdAtKey(roomID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get created_at: %w", err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	return &store.RoomInfo{
		Name:      roomID,
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(s.lifetime),
	}, nil
}

// List returns metadata for all non-expired rooms.
func (s *Store) List(ctx context.Context) ([]store.RoomInfo, error) {
	names, err := s.client.SMembers(ctx, roomsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}

	now := s.now()
	rooms := make([]store.RoomInfo, 0, len(names))
	for _, name := range names {
		info, err := s.Info(ctx, name)
		if errors.Is(err, store.ErrRoomNotFound) {
			// Registered but without a creation record: dead, the
			// sweeper will purge it.
			continue
		}
		if err != nil {
			return nil, err
		}
		if info.Active(now) {
			rooms = append(rooms, *info)
		}
	}
	return rooms, nil
}

// Expired returns the names of registered rooms past their lifetime,
// including rooms whose creation record is missing.
func (s *Store) Expired(ctx context.Context) ([]string, error) {
	names, err := s.client.SMembers(ctx, roomsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}

	now := s.now()
	var expired []string
	for _, name := range names {
		info, err := s.Info(ctx, name)
		if errors.Is(err, store.ErrRoomNotFound) {
			expired = append(expired, name)
			continue
		}
		if err != nil {
			return nil, err
		}
		if !info.Active(now) {
			expired = append(expired, name)
		}
	}
	return expired, nil
}

// Purge removes every key owned by the room. Idempotent.
func (s *Store) Purge(ctx context.Context, roomID string) error {
	if err := s.client.SRem(ctx, roomsKey, roomID).Err(); err != nil {
		return fmt.Errorf("remove room from set: %w", err)
	}

	known := []string{
		createdAtKey(roomID),
		messagesKey(roomID),
		lastSenderKey(roomID),
	}
	if err := s.client.Del(ctx, known...).Err(); err != nil {
		return fmt.Errorf("delete room keys: %w", err)
	}

	// Anything else under the room's prefix, image markers included.
	return s.deletePattern(ctx, roomPrefix+roomID+":*")
}

// CreatedToday returns today's room creation count.
func (s *Store) CreatedToday(ctx context.Context) (int, error) {
	raw, err := s.client.Get(ctx, dailyCounterKey(s.now())).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get daily counter: %w", err)
	}

	count, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse daily counter: %w", err)
	}
	return count, nil
}

// ==== ImageStore ====

// SaveImage records the stored filename for an image id.
func (s *Store) SaveImage(ctx context.Context, imageID, fileName string) error {
	if err := s.client.Set(ctx, imagePrefix+imageID, fileName, 0).Err(); err != nil {
		return fmt.Errorf("save image: %w", err)
	}
	return nil
}

// ImageFile returns the stored filename for an image id, or "".
func (s *Store) ImageFile(ctx context.Context, imageID string) (string, error) {
	name, err := s.client.Get(ctx, imagePrefix+imageID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get image file: %w", err)
	}
	return name, nil
}

// DeleteImage drops the filename record for an image id.
func (s *Store) DeleteImage(ctx context.Context, imageID string) error {
	if err := s.client.Del(ctx, imagePrefix+imageID).Err(); err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	return nil
}

// RoomImages returns the ids of images referenced from the room.
func (s *Store) RoomImages(ctx context.Context, roomID string) ([]string, error) {
	prefix := roomPrefix + roomID + ":image:"

	var ids []string
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, prefix+"*", scanBatch).Result()
		if err != nil {
			return nil, fmt.Errorf("scan room images: %w", err)
		}
		for _, key := range keys {
			ids = append(ids, strings.TrimPrefix(key, prefix))
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return ids, nil
}

// ==== FeedbackStore ====

// SaveFeedback stores a feedback hash with bounded retention and indexes
// it on the feedbacks list.
func (s *Store) SaveFeedback(ctx context.Context, fb store.Feedback) error {
	key := feedbackPrefix + strconv.FormatInt(s.now().UnixNano(), 10)

	email := fb.Email
	if email == "" {
		email = "not provided"
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		"email":       email,
		"text":        fb.Text,
		"timestamp":   fb.Timestamp,
		"user_agent":  fb.UserAgent,
		"screen_size": fb.ScreenSize,
	})
	pipe.Expire(ctx, key, feedbackRetention)
	pipe.LPush(ctx, feedbacksKey, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save feedback: %w", err)
	}
	return nil
}

func (s *Store) deletePattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return fmt.Errorf("scan keys: %w", err)
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("delete keys: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return nil
}
