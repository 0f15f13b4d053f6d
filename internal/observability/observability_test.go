package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAction(t *testing.T) {
	before := testutil.ToFloat64(SocialActions.WithLabelValues("follow", "ok"))
	beforeErr := testutil.ToFloat64(SocialActions.WithLabelValues("follow", "error"))

	RecordAction("follow", nil)
	RecordAction("follow", errors.New("boom"))

	assert.Equal(t, before+1, testutil.ToFloat64(SocialActions.WithLabelValues("follow", "ok")))
	assert.Equal(t, beforeErr+1, testutil.ToFloat64(SocialActions.WithLabelValues("follow", "error")))
}

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))

	ctx, span := StartSpan(context.Background(), "test", "op")
	assert.NotNil(t, ctx)
	span.Finish(errors.New("ignored"))
}

func TestSpan_NilSafe(t *testing.T) {
	var s *Span
	s.AddAttributes()
	s.SetError(errors.New("x"))
	s.End()
	assert.Empty(t, s.TraceID())
}
