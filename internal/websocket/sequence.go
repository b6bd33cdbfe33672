package websocket

import (
	"sync"
	"sync/atomic"
)

// per-topic publish counters, readable without touching the hub loop
var seqMap sync.Map // map[string]*uint64

func nextSeq(topic string) uint64 {
	v, _ := seqMap.LoadOrStore(topic, new(uint64))
	return atomic.AddUint64(v.(*uint64), 1)
}

// TopicSeq reports how many payloads have been published on a topic.
func TopicSeq(topic string) uint64 {
	v, ok := seqMap.Load(topic)
	if !ok {
		return 0
	}
	return atomic.LoadUint64(v.(*uint64))
}
