package service

import (
	"hash/fnv"
	"sync"
)

const mutexStripes = 64

// keyedMutex serializes work per key over a fixed set of stripes.
type keyedMutex struct {
	stripes [mutexStripes]sync.Mutex
}

func (k *keyedMutex) Lock(key string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	m := &k.stripes[h.Sum32()%mutexStripes]
	m.Lock()
	return m.Unlock
}
