package internaldefs

import (
	"strings"
	"testing"

	goSession "github.com/MrEthical07/goSession"
)

func TestDefsCoverEveryMetric(t *testing.T) {
	seen := map[goSession.MetricID]bool{}
	for _, d := range CounterDefs {
		seen[d.ID] = true
		if !strings.HasPrefix(d.Name, "gosession_") || !strings.HasSuffix(d.Name, "_total") {
			t.Fatalf("bad counter name %q", d.Name)
		}
	}
	for _, d := range HistogramDefs {
		seen[d.ID] = true
	}
	if len(seen) != goSession.MetricIDCount() {
		t.Fatalf("defs cover %d of %d metrics", len(seen), goSession.MetricIDCount())
	}
	if BucketCount != goSession.HistogramBucketCount {
		t.Fatalf("bucket count %d does not match handler %d", BucketCount, goSession.HistogramBucketCount)
	}
}

func TestCumulativeBuckets(t *testing.T) {
	got := CumulativeBuckets(NormalizeBuckets([]uint64{1, 2, 3}))
	want := [BucketCount]uint64{1, 3, 6, 6, 6, 6, 6, 6}
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
