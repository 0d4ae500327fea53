package nscheck_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/nsisolate/pkg/nscheck"
)

func TestMemo_CachesAnswers(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64

	inner := nscheck.CheckerFunc(func(candidate string) bool {
		calls.Add(1)

		return candidate == `Vendor\`
	})
	memo := nscheck.NewMemo(inner)

	assert.True(t, memo.ShouldTransform(`Vendor\`))
	assert.True(t, memo.ShouldTransform(`Vendor\`))
	assert.False(t, memo.ShouldTransform(`Other\`))
	assert.False(t, memo.ShouldTransform(`Other\`))

	assert.Equal(t, int64(2), calls.Load())
	assert.Equal(t, int64(2), memo.Hits())
	assert.Equal(t, int64(2), memo.Misses())
}

func TestMemo_ConcurrentUse(t *testing.T) {
	t.Parallel()

	memo := nscheck.NewMemo(nscheck.NewPolicy(nscheck.WithPrefixes("Vendor")))

	var wg sync.WaitGroup

	for range 16 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range 100 {
				assert.True(t, memo.ShouldTransform(`Vendor\Pkg\`))
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, int64(1600), memo.Hits()+memo.Misses())
}
