package sync

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/predimarket/indexer/internal/store/model"
)

func TestDedupeMarkets_RemovesDuplicatesAcrossLists(t *testing.T) {
	a := []model.Market{{ID: "m1"}, {ID: "m2"}}
	b := []model.Market{{ID: "m2"}, {ID: "m3"}}
	out := dedupeMarkets(a, b)

	ids := make([]string, len(out))
	for i, m := range out {
		ids[i] = m.ID
	}
	sort.Strings(ids)
	assert.Equal(t, []string{"m1", "m2", "m3"}, ids)
}

func TestDedupeMarkets_EmptyInputsYieldNil(t *testing.T) {
	assert.Nil(t, dedupeMarkets())
}

func TestSetToSlice_ContainsAllKeys(t *testing.T) {
	s := map[string]struct{}{"e1": {}, "e2": {}}
	out := setToSlice(s)
	sort.Strings(out)
	assert.Equal(t, []string{"e1", "e2"}, out)
}

func TestSetToSlice_EmptySetYieldsEmptySlice(t *testing.T) {
	out := setToSlice(map[string]struct{}{})
	assert.Empty(t, out)
}
