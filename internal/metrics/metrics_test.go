package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/tags", "200"))

	ObserveRequest("GET", "/api/tags", 200, 5*time.Millisecond)

	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/tags", "200"))
	assert.Equal(t, before+1, after)
}

func TestRecordTokenIssued(t *testing.T) {
	issued := testutil.ToFloat64(TokensIssuedTotal.WithLabelValues("issued"))
	rejected := testutil.ToFloat64(TokensIssuedTotal.WithLabelValues("rejected"))

	RecordTokenIssued(true)
	RecordTokenIssued(false)
	RecordTokenIssued(false)

	assert.Equal(t, issued+1, testutil.ToFloat64(TokensIssuedTotal.WithLabelValues("issued")))
	assert.Equal(t, rejected+2, testutil.ToFloat64(TokensIssuedTotal.WithLabelValues("rejected")))
}

func TestRecordRateLimitedAndImages(t *testing.T) {
	limited := testutil.ToFloat64(RateLimitedTotal)
	RecordRateLimited()
	assert.Equal(t, limited+1, testutil.ToFloat64(RateLimitedTotal))

	png := testutil.ToFloat64(RecipeImagesTotal.WithLabelValues("png"))
	RecordRecipeImage("png")
	assert.Equal(t, png+1, testutil.ToFloat64(RecipeImagesTotal.WithLabelValues("png")))
}
