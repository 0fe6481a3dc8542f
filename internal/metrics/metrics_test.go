package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"merchant-recon/internal/reconcile/model"
)

func TestObserveRun(t *testing.T) {
	okBefore := testutil.ToFloat64(RunsTotal.WithLabelValues("ok"))
	highBefore := testutil.ToFloat64(CandidatesTotal.WithLabelValues("HIGH"))
	leftBefore := testutil.ToFloat64(UniqueTotal.WithLabelValues("left"))

	ObserveRun(&model.Report{Summary: model.Summary{High: 3, LeftUnique: 2}}, nil, time.Second)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(RunsTotal.WithLabelValues("ok")))
	assert.Equal(t, highBefore+3, testutil.ToFloat64(CandidatesTotal.WithLabelValues("HIGH")))
	assert.Equal(t, leftBefore+2, testutil.ToFloat64(UniqueTotal.WithLabelValues("left")))
}

func TestObserveRunFailures(t *testing.T) {
	cancelled := testutil.ToFloat64(RunsTotal.WithLabelValues("cancelled"))
	failed := testutil.ToFloat64(RunsTotal.WithLabelValues("error"))

	ObserveRun(nil, context.Canceled, 0)
	ObserveRun(nil, errors.New("boom"), 0)

	assert.Equal(t, cancelled+1, testutil.ToFloat64(RunsTotal.WithLabelValues("cancelled")))
	assert.Equal(t, failed+1, testutil.ToFloat64(RunsTotal.WithLabelValues("error")))
}
