package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveOperationCountsErrors(t *testing.T) {
	before := testutil.ToFloat64(OperationErrors.WithLabelValues("test_op"))

	ObserveOperation("test_op", time.Now(), nil)
	ObserveOperation("test_op", time.Now(), errors.New("boom"))

	after := testutil.ToFloat64(OperationErrors.WithLabelValues("test_op"))
	if after-before != 1 {
		t.Errorf("error counter moved by %v, want 1", after-before)
	}
}
