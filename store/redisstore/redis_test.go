package redisstore

import (
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/chatfan/chatfan-go/store/storetest"
)

func TestRedisStore(t *testing.T) {
	// Quick availability check to allow graceful skip in environments without Redis
	s, err := NewFromEnv()
	if err != nil {
		t.Skipf("skipping redis store tests: %v", err)
		return
	}
	_ = s.Close()

	storetest.RunStoreTests(t, func(t *testing.T) storetest.Backend {
		var cfg Config
		// Unique prefix per subtest keeps runs isolated in a shared Redis.
		cfg.KeyPrefix = fmt.Sprintf("chatfan:test:%s:", uuid.NewString())
		ss, err := New(cfg)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		t.Cleanup(func() { _ = ss.Close() })
		return ss
	})
}
