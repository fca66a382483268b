package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rahul01879/chat-app/internal/domain"
)

// historyLimit caps how much of a room's backlog one fetch returns.
const historyLimit = 100

// roomMeta is the stored lifetime of one room.
type roomMeta struct {
	ID        string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// historyStore persists room lifetimes and ciphertext backlogs. The relay
// never holds plaintext; stored messages are the client's sealed payloads.
type historyStore interface {
	// EnsureRoom creates the room on first attach and returns its meta.
	EnsureRoom(ctx context.Context, roomID string, ttl time.Duration) (roomMeta, error)
	// Room looks a room up; ok is false for unknown rooms.
	Room(ctx context.Context, roomID string) (meta roomMeta, ok bool, err error)
	Append(ctx context.Context, roomID string, msg domain.HistoryMessage) error
	// History returns the oldest messages first, at most limit of them.
	History(ctx context.Context, roomID string, limit int) ([]domain.HistoryMessage, error)
	// DeleteMessage reports whether the message was present.
	DeleteMessage(ctx context.Context, roomID, messageID string) (bool, error)
	ExpiredRooms(ctx context.Context, now time.Time) ([]string, error)
	DropRoom(ctx context.Context, roomID string) error
	Ping(ctx context.Context) error
}

// memoryStore is the default backend. All state is lost on process exit,
// which suits a development relay.
type memoryStore struct {
	mu       sync.RWMutex
	rooms    map[string]roomMeta
	messages map[string][]domain.HistoryMessage
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		rooms:    make(map[string]roomMeta),
		messages: make(map[string][]domain.HistoryMessage),
	}
}

var _ historyStore = (*memoryStore)(nil)

func (s *memoryStore) EnsureRoom(ctx context.Context, roomID string, ttl time.Duration) (roomMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if meta, ok := s.rooms[roomID]; ok {
		return meta, nil
	}
	now := time.Now().UTC()
	meta := roomMeta{ID: roomID, CreatedAt: now, ExpiresAt: now.Add(ttl)}
	s.rooms[roomID] = meta
	return meta, nil
}

func (s *memoryStore) Room(ctx context.Context, roomID string) (roomMeta, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	meta, ok := s.rooms[roomID]
	return meta, ok, nil
}

func (s *memoryStore) Append(ctx context.Context, roomID string, msg domain.HistoryMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[roomID] = append(s.messages[roomID], msg)
	return nil
}

func (s *memoryStore) History(ctx context.Context, roomID string, limit int) ([]domain.HistoryMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.messages[roomID]
	if len(msgs) > limit {
		msgs = msgs[:limit]
	}
	out := make([]domain.HistoryMessage, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (s *memoryStore) DeleteMessage(ctx context.Context, roomID, messageID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.messages[roomID]
	for i := range msgs {
		if msgs[i].ID == messageID {
			s.messages[roomID] = append(msgs[:i], msgs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryStore) ExpiredRooms(ctx context.Context, now time.Time) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var expired []string
	for id, meta := range s.rooms {
		if meta.ExpiresAt.Before(now) {
			expired = append(expired, id)
		}
	}
	return expired, nil
}

func (s *memoryStore) DropRoom(ctx context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, roomID)
	delete(s.messages, roomID)
	return nil
}

func (s *memoryStore) Ping(ctx context.Context) error { return nil }

// Redis key shapes.
const (
	roomKeyPrefix     = "room:"        // room:{id} -> hash {created_at, expires_at}
	messagesKeySuffix = ":messages"    // room:{id}:messages -> list of JSON messages
	roomExpiryKey     = "rooms_expiry" // zset of room ids scored by expiry unix time
)

// redisStore keeps room backlogs in Redis so they survive relay restarts.
// Keys carry their own TTL as a safety net under the sweep.
type redisStore struct {
	rdb *redis.Client
}

func newRedisStore(url string) (*redisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	return &redisStore{rdb: redis.NewClient(opts)}, nil
}

var _ historyStore = (*redisStore)(nil)

func roomKey(roomID string) string     { return roomKeyPrefix + roomID }
func messagesKey(roomID string) string { return roomKey(roomID) + messagesKeySuffix }

func (s *redisStore) EnsureRoom(ctx context.Context, roomID string, ttl time.Duration) (roomMeta, error) {
	if meta, ok, err := s.Room(ctx, roomID); err != nil || ok {
		return meta, err
	}
	now := time.Now().UTC()
	meta := roomMeta{ID: roomID, CreatedAt: now, ExpiresAt: now.Add(ttl)}
	err := s.rdb.HSet(ctx, roomKey(roomID), map[string]interface{}{
		"created_at": meta.CreatedAt.Format(time.RFC3339Nano),
		"expires_at": meta.ExpiresAt.Format(time.RFC3339Nano),
	}).Err()
	if err != nil {
		return roomMeta{}, fmt.Errorf("create room: %w", err)
	}
	if err := s.rdb.ZAdd(ctx, roomExpiryKey, redis.Z{
		Score:  float64(meta.ExpiresAt.Unix()),
		Member: roomID,
	}).Err(); err != nil {
		return roomMeta{}, fmt.Errorf("index room expiry: %w", err)
	}
	// Key-level TTL with slack so the sweep broadcasts before Redis reaps.
	s.rdb.Expire(ctx, roomKey(roomID), ttl+time.Hour)
	s.rdb.Expire(ctx, messagesKey(roomID), ttl+time.Hour)
	return meta, nil
}

func (s *redisStore) Room(ctx context.Context, roomID string) (roomMeta, bool, error) {
	fields, err := s.rdb.HGetAll(ctx, roomKey(roomID)).Result()
	if err != nil {
		return roomMeta{}, false, fmt.Errorf("load room: %w", err)
	}
	if len(fields) == 0 {
		return roomMeta{}, false, nil
	}
	created, err := time.Parse(time.RFC3339Nano, fields["created_at"])
	if err != nil {
		return roomMeta{}, false, fmt.Errorf("room %s created_at: %w", roomID, err)
	}
	expires, err := time.Parse(time.RFC3339Nano, fields["expires_at"])
	if err != nil {
		return roomMeta{}, false, fmt.Errorf("room %s expires_at: %w", roomID, err)
	}
	return roomMeta{ID: roomID, CreatedAt: created, ExpiresAt: expires}, true, nil
}

func (s *redisStore) Append(ctx context.Context, roomID string, msg domain.HistoryMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := s.rdb.RPush(ctx, messagesKey(roomID), data).Err(); err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

func (s *redisStore) History(ctx context.Context, roomID string, limit int) ([]domain.HistoryMessage, error) {
	raw, err := s.rdb.LRange(ctx, messagesKey(roomID), 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	msgs := make([]domain.HistoryMessage, 0, len(raw))
	for _, item := range raw {
		var m domain.HistoryMessage
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

func (s *redisStore) DeleteMessage(ctx context.Context, roomID, messageID string) (bool, error) {
	raw, err := s.rdb.LRange(ctx, messagesKey(roomID), 0, -1).Result()
	if err != nil {
		return false, fmt.Errorf("scan messages: %w", err)
	}
	for _, item := range raw {
		var m domain.HistoryMessage
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			continue
		}
		if m.ID == messageID {
			n, err := s.rdb.LRem(ctx, messagesKey(roomID), 1, item).Result()
			if err != nil {
				return false, fmt.Errorf("delete message: %w", err)
			}
			return n > 0, nil
		}
	}
	return false, nil
}

func (s *redisStore) ExpiredRooms(ctx context.Context, now time.Time) ([]string, error) {
	ids, err := s.rdb.ZRangeByScore(ctx, roomExpiryKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", now.Unix()),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("scan expiries: %w", err)
	}
	return ids, nil
}

func (s *redisStore) DropRoom(ctx context.Context, roomID string) error {
	if err := s.rdb.Del(ctx, roomKey(roomID), messagesKey(roomID)).Err(); err != nil {
		return fmt.Errorf("drop room: %w", err)
	}
	return s.rdb.ZRem(ctx, roomExpiryKey, roomID).Err()
}

func (s *redisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
