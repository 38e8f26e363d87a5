// Package cache publishes the move transcript to redis for the historian:
// every accepted move becomes one MoveRecord on a per-room list, plus a
// pub/sub notification for live consumers. Publishing is best-effort; the
// game never blocks on it.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Rdb is the shared redis client. Nil when redis is not configured; all
// publish helpers are nil-safe.
var Rdb *redis.Client

// Init connects the shared client.
func Init(addr, password string, db int) {
	Rdb = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// MoveRecord is one transcript entry: who submitted which move, in receipt
// order at the authority.
type MoveRecord struct {
	RoomID      uuid.UUID       `json:"roomId"`
	Index       int             `json:"index"`
	ActorUserID uuid.UUID       `json:"actorUserId"`
	MoveType    string          `json:"moveType"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Timestamp   int64           `json:"timestamp"`
}

func transcriptKey(roomID uuid.UUID) string {
	return fmt.Sprintf("matchplay:transcript:%s", roomID)
}

func channelKey(roomID uuid.UUID) string {
	return fmt.Sprintf("matchplay:moves:%s", roomID)
}

// PublishMoveRecord appends the record to the room's transcript list and
// notifies subscribers. No-op without a client.
func PublishMoveRecord(ctx context.Context, rec MoveRecord) error {
	if Rdb == nil {
		return nil
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal move record: %w", err)
	}
	pipe := Rdb.Pipeline()
	pipe.RPush(ctx, transcriptKey(rec.RoomID), data)
	pipe.Publish(ctx, channelKey(rec.RoomID), data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish move record: %w", err)
	}
	return nil
}

// PublishMoveRecordAsync fires PublishMoveRecord on its own goroutine with a
// short timeout, logging failures instead of propagating them.
func PublishMoveRecordAsync(rec MoveRecord) {
	if Rdb == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := PublishMoveRecord(ctx, rec); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"room":  rec.RoomID,
				"index": rec.Index,
			}).Warn("failed to publish move record")
		}
	}()
}

// Transcript returns the room's full recorded transcript.
func Transcript(ctx context.Context, roomID uuid.UUID) ([]MoveRecord, error) {
	if Rdb == nil {
		return nil, nil
	}
	raw, err := Rdb.LRange(ctx, transcriptKey(roomID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	out := make([]MoveRecord, 0, len(raw))
	for _, item := range raw {
		var rec MoveRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("decode transcript entry: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// DropTranscript removes a room's transcript, used when a room is torn down.
func DropTranscript(ctx context.Context, roomID uuid.UUID) error {
	if Rdb == nil {
		return nil
	}
	return Rdb.Del(ctx, transcriptKey(roomID)).Err()
}
