package monitoring

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/toxichat/toxichat/engine/llm"
)

func TestService(t *testing.T) {
	t.Run("Should count remote calls by endpoint and outcome", func(t *testing.T) {
		svc := NewService()
		svc.RecordRemoteCall("models/gemini-2.5-flash", "success", 120*time.Millisecond)
		svc.RecordRemoteCall("models/gemini-2.5-flash", "failure", 80*time.Millisecond)
		svc.RecordRemoteCall("models/gemini-2.5-flash", "success", 95*time.Millisecond)

		got := testutil.ToFloat64(svc.remoteCalls.WithLabelValues("models/gemini-2.5-flash", "success"))
		assert.Equal(t, 2.0, got)
		got = testutil.ToFloat64(svc.remoteCalls.WithLabelValues("models/gemini-2.5-flash", "failure"))
		assert.Equal(t, 1.0, got)
	})
	t.Run("Should count failures by kind", func(t *testing.T) {
		svc := NewService()
		svc.RecordEndpointFailure(llm.FailureRateLimited)
		svc.RecordEndpointFailure(llm.FailureRateLimited)
		got := testutil.ToFloat64(svc.endpointFailures.WithLabelValues("rate_limited"))
		assert.Equal(t, 2.0, got)
	})
	t.Run("Should count tool executions by outcome", func(t *testing.T) {
		svc := NewService()
		svc.RecordToolExecution("predict_toxicity_without_family", true)
		svc.RecordToolExecution("predict_toxicity_without_family", false)
		got := testutil.ToFloat64(svc.toolExecutions.WithLabelValues("predict_toxicity_without_family", "failure"))
		assert.Equal(t, 1.0, got)
	})
	t.Run("Should serve the text exposition format", func(t *testing.T) {
		svc := NewService()
		svc.RecordEndpointFailure(llm.FailureOther)

		rec := httptest.NewRecorder()
		svc.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
		assert.Equal(t, 200, rec.Code)
		assert.Contains(t, rec.Body.String(), "toxichat_endpoint_failures_total")
	})
}
