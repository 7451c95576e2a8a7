package store

import (
	"fmt"
	"strings"
	"sync"
)

const (
	docPrefix     = "doc:"
	settingPrefix = "kv:"
)

// keyPool reuses buffers for building keys on the read/write paths.
var keyPool = sync.Pool{
	New: func() any {
		// prefix + user id + collection + 21-char nanoid fits comfortably.
		return make([]byte, 0, 128)
	},
}

// docKey builds doc:{user}:{collection}:{id}. Callers release it with releaseKey.
func docKey(userID, collection, docID string) []byte {
	buf, _ := keyPool.Get().([]byte)
	buf = append(buf[:0], docPrefix...)
	buf = append(buf, userID...)
	buf = append(buf, ':')
	buf = append(buf, collection...)
	buf = append(buf, ':')
	buf = append(buf, docID...)
	return buf
}

// collectionPrefix is doc:{user}:{collection}:.
func collectionPrefix(userID, collection string) []byte {
	return []byte(docPrefix + userID + ":" + collection + ":")
}

func settingKey(userID, key string) []byte {
	return []byte(settingPrefix + userID + ":" + key)
}

func releaseKey(key []byte) {
	if cap(key) <= 512 {
		keyPool.Put(key[:0]) //nolint:staticcheck // slice header copy is fine here
	}
}

// checkScope rejects ids that would break key layout.
func checkScope(userID, collection string) error {
	if userID == "" || strings.Contains(userID, ":") {
		return ErrInvalidInput.WithCause(fmt.Errorf("bad user id %q", userID))
	}
	if collection == "" || strings.Contains(collection, ":") {
		return ErrInvalidInput.WithCause(fmt.Errorf("bad collection %q", collection))
	}
	return nil
}
