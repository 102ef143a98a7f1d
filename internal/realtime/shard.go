package realtime

import "hash/fnv"

// shardFor maps a token id to one of n connection shards using FNV-1a
// 32-bit, so the assignment is stable across restarts without needing to
// persist it. Pure function, independently testable without a live socket.
func shardFor(tokenID string, n int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(tokenID))
	return int(h.Sum32() % uint32(n))
}
