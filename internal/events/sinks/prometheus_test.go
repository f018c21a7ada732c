package sinks

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailsift/mailsift/internal/events"
)

func TestPrometheusSink_CountsEvents(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	sink, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	sink.Emit(events.Email([]string{"a@b.test", "c@d.test"}))
	sink.Emit(events.Progress(50))
	sink.Emit(events.Progress(100))
	sink.Emit(events.FailedURLsSnapshot(nil))
	sink.Emit(events.NoEmailURLsSnapshot(nil))
	sink.Emit(events.Error("boom"))
	sink.Emit(events.Complete("done"))
	sink.Emit(events.Log(events.LevelInfo, "ignored by metrics"))

	assert.Equal(t, 2.0, testutil.ToFloat64(sink.emailsFound))
	assert.Equal(t, 2.0, testutil.ToFloat64(sink.progressEvents))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.urlsFailed))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.urlsNoEmail))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.jobErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.jobsCompleted))
}

func TestPrometheusSink_DuplicateRegistration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	_, err := NewPrometheusSink(reg)
	require.NoError(t, err)
	_, err = NewPrometheusSink(reg)
	require.Error(t, err)
}
