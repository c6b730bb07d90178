package capability

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mterrors "github.com/otherjamesbrown/mint-cli/pkg/errors"
)

func newTestHost(t *testing.T, handler http.HandlerFunc) *ModelHost {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewModelHost(HostConfig{BaseURL: srv.URL, Timeout: 5 * time.Second})
}

func TestModelHost_Embed(t *testing.T) {
	host := newTestHost(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embed", r.URL.Path)
		var req struct {
			Text string `json:"text"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "send the report", req.Text)
		json.NewEncoder(w).Encode(map[string]interface{}{"vector": []float64{0.1, 0.2, 0.3}})
	})

	vec, err := host.Embed(context.Background(), "send the report")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, vec)
}

func TestModelHost_Embed_EmptyVectorIsParseFailure(t *testing.T) {
	host := newTestHost(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"vector": []float64{}})
	})

	_, err := host.Embed(context.Background(), "x")
	assert.True(t, mterrors.IsParseFailure(err))
}

func TestModelHost_Score(t *testing.T) {
	host := newTestHost(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/classify/action", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]float64{"probability": 0.87})
	})

	p, err := host.Score(context.Background(), []float64{1, 0, 2})
	require.NoError(t, err)
	assert.Equal(t, 0.87, p)
}

func TestModelHost_Score_OutOfRange(t *testing.T) {
	host := newTestHost(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]float64{"probability": 1.7})
	})

	_, err := host.Score(context.Background(), nil)
	assert.True(t, mterrors.IsParseFailure(err))
}

func TestModelHost_ServerDownIsCapabilityUnavailable(t *testing.T) {
	host := NewModelHost(HostConfig{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})

	_, err := host.Embed(context.Background(), "x")
	assert.True(t, mterrors.IsCapabilityUnavailable(err))
}

func TestModelHost_HTTPErrorIsCapabilityUnavailable(t *testing.T) {
	host := newTestHost(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	})

	_, err := host.SplitSentences(context.Background(), "One. Two.")
	assert.True(t, mterrors.IsCapabilityUnavailable(err))
}

func TestModelHost_ParseDate_NoDateReturnsNil(t *testing.T) {
	host := newTestHost(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PreferFuture bool `json:"prefer_future"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		assert.True(t, req.PreferFuture)
		json.NewEncoder(w).Encode(map[string]interface{}{"timestamp": nil})
	})

	ts, err := host.ParseDate(context.Background(), "no dates here", true)
	require.NoError(t, err)
	assert.Nil(t, ts)
}

func TestModelHost_ExtractEntities(t *testing.T) {
	host := newTestHost(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"entities": []Entity{
				{Text: "Sarah", Label: "PER", Confidence: 0.95, Start: 0, End: 5},
			},
		})
	})

	entities, err := host.ExtractEntities(context.Background(), "Sarah will review")
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "Sarah", entities[0].Text)
	assert.Equal(t, 0.95, entities[0].Confidence)
}

func TestModelHost_Warmup(t *testing.T) {
	host := newTestHost(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/warmup", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	assert.NoError(t, host.Warmup(context.Background()))
}

func TestModelHost_WarmupNotReady(t *testing.T) {
	host := newTestHost(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "loading"})
	})
	err := host.Warmup(context.Background())
	assert.True(t, mterrors.IsCapabilityUnavailable(err))
}
