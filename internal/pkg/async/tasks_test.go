package async

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSettleKeepsOrder(t *testing.T) {
	src := []time.Duration{30 * time.Millisecond, 0, 10 * time.Millisecond}

	got := Settle(context.Background(), src, 0, func(_ context.Context, i int, d time.Duration) int {
		time.Sleep(d)
		return i
	})

	assert.Equal(t, []int{0, 1, 2}, got)
}

func TestSettleRespectsLimit(t *testing.T) {
	var inflight, peak atomic.Int32
	src := make([]int, 10)

	Settle(context.Background(), src, 3, func(_ context.Context, _ int, _ int) struct{} {
		n := inflight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inflight.Add(-1)
		return struct{}{}
	})

	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestSettleEmpty(t *testing.T) {
	got := Settle(context.Background(), []string{}, 2, func(context.Context, int, string) string { return "x" })
	assert.Empty(t, got)
}
