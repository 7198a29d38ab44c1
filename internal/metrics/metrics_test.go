package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecordContractCall(t *testing.T) {
	require := require.New(t)

	before := testutil.ToFloat64(ContractCalls.WithLabelValues("getMarket", "error"))
	RecordContractCall("getMarket", 10*time.Millisecond, errors.New("boom"))
	require.Equal(before+1, testutil.ToFloat64(ContractCalls.WithLabelValues("getMarket", "error")))
}

func TestRecordPurchase(t *testing.T) {
	require := require.New(t)

	ok := testutil.ToFloat64(Purchases.WithLabelValues("A", "confirmed"))
	failed := testutil.ToFloat64(Purchases.WithLabelValues("A", "failed"))
	RecordPurchase("A", nil)
	RecordPurchase("A", errors.New("reverted"))
	require.Equal(ok+1, testutil.ToFloat64(Purchases.WithLabelValues("A", "confirmed")))
	require.Equal(failed+1, testutil.ToFloat64(Purchases.WithLabelValues("A", "failed")))
}

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequests.WithLabelValues("POST", "409"))
	RecordHTTPRequest("POST", 409)
	require.Equal(t, before+1, testutil.ToFloat64(HTTPRequests.WithLabelValues("POST", "409")))
}
