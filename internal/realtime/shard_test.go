package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShardFor_Stable(t *testing.T) {
	a := shardFor("12345678901234567890", 4)
	b := shardFor("12345678901234567890", 4)
	assert.Equal(t, a, b)
}

func TestShardFor_WithinRange(t *testing.T) {
	for _, token := range []string{"a", "b", "token-with-dashes", "0987654321"} {
		s := shardFor(token, 7)
		assert.GreaterOrEqual(t, s, 0)
		assert.Less(t, s, 7)
	}
}

func TestShardFor_SingleShard(t *testing.T) {
	assert.Equal(t, 0, shardFor("anything", 1))
}

func TestShardFor_DistributesAcrossShards(t *testing.T) {
	seen := make(map[int]bool)
	for i := 0; i < 200; i++ {
		seen[shardFor(string(rune('a'+i%26))+string(rune(i)), 3)] = true
	}
	assert.Len(t, seen, 3, "200 distinct-ish tokens should land on all 3 shards")
}
