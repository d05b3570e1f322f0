package engine

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/specmock/pkg/logging"
)

func newTestLogger(w io.Writer) *slog.Logger {
	return logging.New(logging.Config{Level: logging.LevelDebug, Format: logging.FormatText, Output: w})
}

func TestRecover(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), RequestScope(newTestLogger(&logs)), AccessLog, Recover)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Something broke!"}`, rec.Body.String())
	assert.Contains(t, logs.String(), "panic while serving request")
	assert.Contains(t, logs.String(), "status=500")
}

func TestRecover_AfterWrite(t *testing.T) {
	t.Parallel()

	h := Recover(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		panic("late")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestRecover_AbortHandler(t *testing.T) {
	t.Parallel()

	h := Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
	})
}

func TestRequestScope(t *testing.T) {
	t.Parallel()

	var seen *RequestContext
	h := RequestScope(nil)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = RequestContextFrom(r.Context())
	}))

	t.Run("generates an ID", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.NotNil(t, seen)
		assert.Len(t, seen.ID, 36)
		assert.Equal(t, seen.ID, rec.Header().Get(RequestIDHeader))
	})

	t.Run("keeps the client ID", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(RequestIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		require.NotNil(t, seen)
		assert.Equal(t, "abc-123", seen.ID)
		assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
	})
}

func TestAccessLog_OperationID(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	srv, _ := newTestServer(t)
	srv = NewServer(srv.handler, WithServerLogger(newTestLogger(&logs)))

	rec := serve(srv, http.MethodGet, "/ping", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	out := logs.String()
	assert.Contains(t, out, "request completed")
	assert.Contains(t, out, "operationId=ping")
	assert.Contains(t, out, "status=200")
	assert.Contains(t, out, "requestId="+rec.Header().Get(RequestIDHeader))
}

func TestAccessLog_Rejection(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	srv, _ := newTestServer(t)
	srv = NewServer(srv.handler, WithServerLogger(newTestLogger(&logs)))

	rec := serve(srv, http.MethodGet, "/items/abc", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, logs.String(), "rejectedBy=path")
}

func TestStatusRecorder(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	sr := newStatusRecorder(rec)
	sr.WriteHeader(http.StatusCreated)
	sr.WriteHeader(http.StatusOK)
	_, _ = sr.Write([]byte("x"))
	sr.Flush()

	assert.Equal(t, http.StatusCreated, sr.statusCode)
	assert.True(t, sr.written)
	assert.Same(t, rec, sr.Unwrap())
}
