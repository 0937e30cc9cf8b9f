package memorystore

import (
	"testing"

	"github.com/chatfan/chatfan-go/store/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.RunStoreTests(t, func(t *testing.T) storetest.Backend {
		return New()
	})
}
