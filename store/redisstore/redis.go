package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/redis/go-redis/v9"

	"github.com/chatfan/chatfan-go/store"
)

// Config for the Redis-backed store. Defaults can be loaded via envdecode.
type Config struct {
	// RedisAddr like "localhost:6379". ENV: REDIS_ADDR
	RedisAddr string `env:"REDIS_ADDR,default=localhost:6379"`
	// KeyPrefix for all keys. ENV: CHATFAN_KEY_PREFIX
	KeyPrefix string `env:"CHATFAN_KEY_PREFIX,default=chatfan:"`
}

type Store struct {
	client *redis.Client
	prefix string
}

func New(cfg Config) (*Store, error) {
	addr := cfg.RedisAddr
	if addr == "" {
		addr = "localhost:6379"
	}
	cl := redis.NewClient(&redis.Options{Addr: addr})
	if err := cl.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "chatfan:"
	}
	return &Store{client: cl, prefix: prefix}, nil
}

// NewFromEnv builds a Store using envdecode to populate Config.
func NewFromEnv() (*Store, error) {
	var cfg Config
	_ = envdecode.Decode(&cfg)
	return New(cfg)
}

// Close closes the Redis client.
func (s *Store) Close() error { return s.client.Close() }

// --- Key helpers ---

func (s *Store) recKey(k store.Key) string {
	return s.prefix + "rec:" + k.HashKey + "/" + k.RangeKey
}
func (s *Store) fwdKey(hashKey string) string  { return s.prefix + "fwd:" + hashKey }
func (s *Store) revKey(rangeKey string) string { return s.prefix + "rev:" + rangeKey }
func (s *Store) feedKey() string               { return s.prefix + "changes" }

// Record fields share the hash with the key parts; user fields get the
// "f:" prefix to keep the two namespaces apart.
const fieldPrefix = "f:"

func (s *Store) Put(ctx context.Context, rec store.Record) error {
	// Existence decides insert vs update for the feed. The check and the
	// write are not atomic; a racing writer can only flip the kind, never
	// lose the record, which the commutative index semantics tolerate.
	exists, err := s.client.Exists(ctx, s.recKey(rec.Key)).Result()
	if err != nil {
		return err
	}
	kind := store.ChangeInsert
	if exists > 0 {
		kind = store.ChangeUpdate
	}

	fields := map[string]interface{}{"hk": rec.HashKey, "rk": rec.RangeKey}
	for k, v := range rec.Fields {
		fields[fieldPrefix+k] = v
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.recKey(rec.Key))
	pipe.HSet(ctx, s.recKey(rec.Key), fields)
	pipe.ZAdd(ctx, s.fwdKey(rec.HashKey), redis.Z{Member: rec.RangeKey})
	pipe.ZAdd(ctx, s.revKey(rec.RangeKey), redis.Z{Member: rec.HashKey})
	pipe.XAdd(ctx, &redis.XAddArgs{Stream: s.feedKey(), Values: map[string]interface{}{
		"hk":   rec.HashKey,
		"rk":   rec.RangeKey,
		"kind": string(kind),
	}})
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Store) Delete(ctx context.Context, key store.Key) error {
	exists, err := s.client.Exists(ctx, s.recKey(key)).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		// Deleting an absent record is a no-op and emits nothing.
		return nil
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.recKey(key))
	pipe.ZRem(ctx, s.fwdKey(key.HashKey), key.RangeKey)
	pipe.ZRem(ctx, s.revKey(key.RangeKey), key.HashKey)
	pipe.XAdd(ctx, &redis.XAddArgs{Stream: s.feedKey(), Values: map[string]interface{}{
		"hk":   key.HashKey,
		"rk":   key.RangeKey,
		"kind": string(store.ChangeRemove),
	}})
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Store) Query(ctx context.Context, hashKey, rangePrefix string) ([]store.Record, error) {
	members, err := s.client.ZRangeByLex(ctx, s.fwdKey(hashKey), &redis.ZRangeBy{
		Min: "[" + rangePrefix,
		Max: "+",
	}).Result()
	if err != nil {
		return nil, err
	}

	var recs []store.Record
	for _, m := range members {
		if !strings.HasPrefix(m, rangePrefix) {
			// Lex order: once past the prefix, no later member matches.
			break
		}
		rec, err := s.getRecord(ctx, store.Key{HashKey: hashKey, RangeKey: m})
		if err != nil {
			return nil, err
		}
		if rec != nil {
			recs = append(recs, *rec)
		}
	}
	return recs, nil
}

func (s *Store) QueryReverse(ctx context.Context, rangeKey, hashPrefix string) ([]store.Record, error) {
	members, err := s.client.ZRangeByLex(ctx, s.revKey(rangeKey), &redis.ZRangeBy{
		Min: "[" + hashPrefix,
		Max: "+",
	}).Result()
	if err != nil {
		return nil, err
	}

	var recs []store.Record
	for _, m := range members {
		if !strings.HasPrefix(m, hashPrefix) {
			break
		}
		rec, err := s.getRecord(ctx, store.Key{HashKey: m, RangeKey: rangeKey})
		if err != nil {
			return nil, err
		}
		if rec != nil {
			recs = append(recs, *rec)
		}
	}
	return recs, nil
}

func (s *Store) getRecord(ctx context.Context, key store.Key) (*store.Record, error) {
	raw, err := s.client.HGetAll(ctx, s.recKey(key)).Result()
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		// Stale index entry; the record is gone.
		return nil, nil
	}
	rec := store.Record{Key: key}
	for k, v := range raw {
		if f, ok := strings.CutPrefix(k, fieldPrefix); ok {
			if rec.Fields == nil {
				rec.Fields = make(map[string]string)
			}
			rec.Fields[f] = v
		}
	}
	return &rec, nil
}

// --- Change feed via Redis Streams ---

// Subscribe implements store.ChangeFeed. The cursor is a stream id; an
// empty cursor starts at the next published change.
func (s *Store) Subscribe(ctx context.Context, from string, handler store.ChangeHandler) error {
	start := from
	if start == "" {
		start = "$"
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		res, err := s.client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{s.feedKey(), start},
			Count:   16,
			Block:   500 * time.Millisecond,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return err
		}
		if len(res) == 0 {
			continue
		}
		for _, m := range res[0].Messages {
			start = m.ID
			rec := store.ChangeRecord{
				Key: store.Key{
					HashKey:  stringValue(m.Values["hk"]),
					RangeKey: stringValue(m.Values["rk"]),
				},
				Kind: store.ChangeKind(stringValue(m.Values["kind"])),
				Seq:  m.ID,
			}
			if err := handler(ctx, rec); err != nil {
				return err
			}
		}
	}
}

// stringValue decodes a stream field that go-redis may hand back as a
// string or []byte.
func stringValue(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
