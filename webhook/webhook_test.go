package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliver_Signed(t *testing.T) {
	var (
		gotSig  string
		gotBody []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get(SignatureHeader)
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	event := &Event{Type: EventBatchCompleted, JobID: "job-1", Timestamp: 1700000000, Data: map[string]int{"total": 2}}
	err := NewSender(nil, nil).Deliver(context.Background(), srv.URL, "s3cret", event)
	require.NoError(t, err)

	assert.Equal(t, Sign("s3cret", gotBody), gotSig)
	var decoded Event
	require.NoError(t, json.Unmarshal(gotBody, &decoded))
	assert.Equal(t, "batch.completed", decoded.Type)
	assert.Equal(t, "job-1", decoded.JobID)
}

func TestDeliver_NoSecretNoSignature(t *testing.T) {
	var hadHeader atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := r.Header[SignatureHeader]
		hadHeader.Store(ok)
	}))
	defer srv.Close()

	require.NoError(t, NewSender(nil, nil).Deliver(context.Background(), srv.URL, "", &Event{Type: EventBatchCompleted}))
	assert.False(t, hadHeader.Load())
}

func TestDeliverAsync_Retries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	s := NewSender(srv.Client(), []time.Duration{0, time.Millisecond, time.Millisecond, time.Millisecond})
	err := <-s.DeliverAsync(srv.URL, "", &Event{Type: EventBatchCompleted})

	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDeliverAsync_GivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewSender(srv.Client(), []time.Duration{0, time.Millisecond})
	err := <-s.DeliverAsync(srv.URL, "", &Event{Type: EventBatchCompleted})
	assert.EqualError(t, err, "webhook: endpoint returned status 500")
}
