package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/greforce/udm-devconnector/pkg/ident"
	"github.com/greforce/udm-devconnector/pkg/logger"
)

// Dummy handler to check context and header
func makeTestHandler(t *testing.T, wantID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gotID := GetRequestID(r.Context())
		if wantID != "" && gotID != wantID {
			t.Errorf("want request id in context %q, got %q", wantID, gotID)
		}
		respID := w.Header().Get("X-Request-Id")
		if wantID != "" && respID != wantID {
			t.Errorf("want X-Request-Id header %q, got %q", wantID, respID)
		}
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "ok")
	}
}

func Test_requestIDMiddlewareHeaderExists(t *testing.T) {
	api := &API{}
	wantID := "test-req-id-123"
	handler := api.requestIDMiddleware(makeTestHandler(t, wantID))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", wantID)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("want status code %v, got %v", http.StatusOK, rr.Code)
	}
	got := rr.Header().Get("X-Request-Id")
	if got != wantID {
		t.Errorf("want X-Request-Id header %q, got %q", wantID, got)
	}
}

func Test_requestIDMiddlewareHeaderNotExists(t *testing.T) {
	api := &API{}
	handler := api.requestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID := GetRequestID(r.Context())
		if gotID == "" {
			t.Error("want non-empty request id in context when header is missing")
		}
		respID := w.Header().Get("X-Request-Id")
		if _, err := uuid.FromString(respID); err != nil {
			t.Errorf("want valid UUID for generated request id, got %q", respID)
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("want status code %v, got %v", http.StatusOK, rr.Code)
	}
}

func Test_private(t *testing.T) {
	api := &API{}
	actorID := ident.New()

	handler := api.private(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := GetActor(r.Context())
		if !ok {
			t.Fatal("want actor in context")
		}
		if actor.ID != actorID || actor.Name != "Jane" || actor.Avatar != "//avatar" {
			t.Errorf("unexpected actor %+v", actor)
		}
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		userID string
		want   int
	}{
		{name: "valid actor", userID: actorID.String(), want: http.StatusNoContent},
		{name: "missing actor", userID: "", want: http.StatusUnauthorized},
		{name: "malformed actor", userID: "not-a-uuid", want: http.StatusUnauthorized},
		{name: "nil actor", userID: uuid.Nil.String(), want: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			req.Header.Set("X-User-Id", tt.userID)
			req.Header.Set("X-User-Name", "Jane")
			req.Header.Set("X-User-Avatar", "//avatar")
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Errorf("want status code %v, got %v", tt.want, rr.Code)
			}
		})
	}
}

type chanWriter struct {
	ch chan kafka.Message
}

func (c *chanWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		c.ch <- m
	}
	return nil
}

func Test_loggingMiddleware(t *testing.T) {
	kw := &chanWriter{ch: make(chan kafka.Message, 1)}
	api := &API{ServiceName: "devconnector"}
	handler := api.requestIDMiddleware(api.loggingMiddleware(kw)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	req := httptest.NewRequest(http.MethodPost, "/api/posts", nil)
	req.Header.Set("X-Request-Id", "req-1")
	req.Header.Set("X-Forwarded-For", "10.0.0.1")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	var msg kafka.Message
	select {
	case msg = <-kw.ch:
	case <-time.After(2 * time.Second):
		t.Fatal("no log entry written")
	}

	var entry logger.LogEntry
	if err := json.Unmarshal(msg.Value, &entry); err != nil {
		t.Fatalf("failed to unmarshal log entry: %v", err)
	}
	if string(msg.Key) != "req-1" {
		t.Errorf("want message key %q, got %q", "req-1", msg.Key)
	}

	want := logger.LogEntry{
		IP:         "10.0.0.1",
		StatusCode: http.StatusTeapot,
		RequestID:  "req-1",
		Method:     http.MethodPost,
		Path:       "/api/posts",
		Service:    "devconnector",
	}
	entry.Timestamp, entry.Duration = time.Time{}, 0
	if entry != want {
		t.Errorf("want log entry\n%+v\ngot\n%+v", want, entry)
	}
}
