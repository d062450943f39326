package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const prefix = "meetbot"

// RedisStore shares sessions between bot replicas.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func sessionKey(chatID int64) string {
	return prefix + ":session:" + strconv.FormatInt(chatID, 10)
}

func userKey(username string) string {
	return prefix + ":user:" + username
}

const indexKey = prefix + ":sessions"

func (r *RedisStore) Get(ctx context.Context, chatID int64) (Session, error) {
	raw, err := r.rdb.Get(ctx, sessionKey(chatID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("err getting session %d: %w", chatID, err)
	}
	var s Session
	if err = json.Unmarshal(raw, &s); err != nil {
		return Session{}, fmt.Errorf("err decoding session %d: %w", chatID, err)
	}
	return s, nil
}

func (r *RedisStore) Save(ctx context.Context, session Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("err encoding session %d: %w", session.ChatID, err)
	}
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey(session.ChatID), raw, 0)
		pipe.SAdd(ctx, indexKey, session.ChatID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("err saving session %d: %w", session.ChatID, err)
	}
	return nil
}

func (r *RedisStore) Login(ctx context.Context, session Session, username string) (Session, error) {
	chat := strconv.FormatInt(session.ChatID, 10)
	ok, err := r.rdb.SetNX(ctx, userKey(username), chat, 0).Result()
	if err != nil {
		return Session{}, fmt.Errorf("err binding %s: %w", username, err)
	}
	if !ok {
		owner, err := r.rdb.Get(ctx, userKey(username)).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return Session{}, fmt.Errorf("err binding %s: %w", username, err)
		}
		if owner != chat {
			return Session{}, ErrTaken
		}
	}
	if prev, err := r.Get(ctx, session.ChatID); err == nil && prev.Username != "" && prev.Username != username {
		if err = r.rdb.Del(ctx, userKey(prev.Username)).Err(); err != nil {
			return Session{}, fmt.Errorf("err releasing %s: %w", prev.Username, err)
		}
	}
	session.Username = username
	session.Candidate = ""
	session.State = StateMainMenu
	if err = r.Save(ctx, session); err != nil {
		if delErr := r.rdb.Del(ctx, userKey(username)).Err(); delErr != nil {
			return Session{}, errors.Join(err, fmt.Errorf("err releasing %s: %w", username, delErr))
		}
		return Session{}, err
	}
	return session, nil
}

func (r *RedisStore) Delete(ctx context.Context, chatID int64) error {
	s, err := r.Get(ctx, chatID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if s.Username != "" {
			pipe.Del(ctx, userKey(s.Username))
		}
		pipe.Del(ctx, sessionKey(chatID))
		pipe.SRem(ctx, indexKey, chatID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("err deleting session %d: %w", chatID, err)
	}
	return nil
}

func (r *RedisStore) ChatOf(ctx context.Context, username string) (int64, error) {
	chat, err := r.rdb.Get(ctx, userKey(username)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("err getting chat of %s: %w", username, err)
	}
	return chat, nil
}

func (r *RedisStore) Count(ctx context.Context) (int, error) {
	n, err := r.rdb.SCard(ctx, indexKey).Result()
	if err != nil {
		return 0, fmt.Errorf("err counting sessions: %w", err)
	}
	return int(n), nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}
