package middleware

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordTaskGeneration(t *testing.T) {
	successBefore := testutil.ToFloat64(taskGenerationRuns.WithLabelValues("success"))
	errorBefore := testutil.ToFloat64(taskGenerationRuns.WithLabelValues("error"))

	RecordTaskGeneration(42, nil)

	assert.Equal(t, successBefore+1, testutil.ToFloat64(taskGenerationRuns.WithLabelValues("success")))
	assert.Equal(t, errorBefore, testutil.ToFloat64(taskGenerationRuns.WithLabelValues("error")))
	assert.Equal(t, float64(42), testutil.ToFloat64(tasksGenerated))
}

func TestRecordTaskGenerationError(t *testing.T) {
	successBefore := testutil.ToFloat64(taskGenerationRuns.WithLabelValues("success"))
	errorBefore := testutil.ToFloat64(taskGenerationRuns.WithLabelValues("error"))

	RecordTaskGeneration(10, nil)
	RecordTaskGeneration(0, errors.New("generation failed"))

	assert.Equal(t, successBefore+1, testutil.ToFloat64(taskGenerationRuns.WithLabelValues("success")))
	assert.Equal(t, errorBefore+1, testutil.ToFloat64(taskGenerationRuns.WithLabelValues("error")))

	// A failed run must not overwrite the last successful total
	assert.Equal(t, float64(10), testutil.ToFloat64(tasksGenerated))
}
