package assetcache

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBatchKeys(t *testing.T) {
	t.Parallel()

	cases := []struct {
		n, size, want int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 10, 3},
		{30, 10, 3},
		{5, 1, 5},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(fmt.Sprintf("n=%d size=%d", tc.n, tc.size), func(t *testing.T) {
			t.Parallel()

			keys := make([]string, tc.n)
			for i := range keys {
				keys[i] = fmt.Sprintf("/asset-%d", i)
			}

			batches := batchKeys(keys, tc.size)
			assert.Len(t, batches, tc.want)

			var total int
			for _, b := range batches {
				assert.LessOrEqual(t, len(b), tc.size)
				total += len(b)
			}
			assert.Equal(t, tc.n, total)
		})
	}
}

func TestBatchKeysNonPositiveSize(t *testing.T) {
	t.Parallel()

	batches := batchKeys([]string{"/a", "/b"}, 0)
	assert.Len(t, batches, 2)
}
