package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestEngine_Singleton(t *testing.T) {
	first := Engine()
	second := Engine()
	assert.Same(t, first, second)
}

func TestObserveAllocation_CountsRunsAndPayments(t *testing.T) {
	m := Engine()

	before := testutil.ToFloat64(m.allocationPayments.WithLabelValues("coupon_semi_annual"))
	m.ObserveAllocation(OperationGenerate, "coupon_semi_annual", 3, 10*time.Millisecond, nil)
	after := testutil.ToFloat64(m.allocationPayments.WithLabelValues("coupon_semi_annual"))
	assert.InDelta(t, before+3, after, 0.0001)

	errBefore := testutil.ToFloat64(m.allocationRuns.WithLabelValues(OperationGenerate, "coupon_semi_annual", "error"))
	m.ObserveAllocation(OperationGenerate, "coupon_semi_annual", 0, time.Millisecond, errors.New("boom"))
	errAfter := testutil.ToFloat64(m.allocationRuns.WithLabelValues(OperationGenerate, "coupon_semi_annual", "error"))
	assert.InDelta(t, errBefore+1, errAfter, 0.0001)
}

func TestObserveRollup_AndVouchers(t *testing.T) {
	m := Engine()

	runsBefore := testutil.ToFloat64(m.rollupRuns)
	m.ObserveRollup(2)
	assert.InDelta(t, runsBefore+1, testutil.ToFloat64(m.rollupRuns), 0.0001)

	vouchersBefore := testutil.ToFloat64(m.vouchersIssued)
	m.VoucherIssued()
	assert.InDelta(t, vouchersBefore+1, testutil.ToFloat64(m.vouchersIssued), 0.0001)
}
