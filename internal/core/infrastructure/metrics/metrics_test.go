package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

// TestCounters 测试计数器递增
func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(keySynthesisTotal.WithLabelValues("credits/join"))
	RecordKeySynthesis("credits/join")
	require.Equal(t, before+1, testutil.ToFloat64(keySynthesisTotal.WithLabelValues("credits/join")))

	before = testutil.ToFloat64(keyCacheLookupTotal.WithLabelValues("hit"))
	RecordKeyCacheLookup("hit")
	require.Equal(t, before+1, testutil.ToFloat64(keyCacheLookupTotal.WithLabelValues("hit")))

	before = testutil.ToFloat64(joinTotal.WithLabelValues("success"))
	RecordJoin("success")
	require.Equal(t, before+1, testutil.ToFloat64(joinTotal.WithLabelValues("success")))

	RecordInclusion("stale")
	ObserveProving("credits/fee", 50*time.Millisecond)
	require.Equal(t, 1, testutil.CollectAndCount(provingDuration))
	require.NotNil(t, Handler())
}
