package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gofrs/uuid"
	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"github.com/greforce/udm-devconnector/pkg/ident"
	"github.com/greforce/udm-devconnector/pkg/logger"
	"github.com/greforce/udm-devconnector/pkg/models"
)

type ctxKeyRequestID struct{}

type ctxKeyActor struct{}

var (
	RequestIDKey = ctxKeyRequestID{}
	ActorKey     = ctxKeyActor{}
)

// GetRequestID returns the request ID stored in ctx, or "" if there is none.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// GetActor returns the authenticated actor stored in ctx.
func GetActor(ctx context.Context) (models.Actor, bool) {
	a, ok := ctx.Value(ActorKey).(models.Actor)
	return a, ok
}

func (api *API) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			id, err := uuid.NewV4()
			if err != nil {
				log.Errorf("[requestIDMiddleware] failed to generate request ID for %v: %v", r.RemoteAddr, err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			reqID = id.String()
			log.Debugf("[requestIDMiddleware] generated request ID:%s for %v", reqID, r.RemoteAddr)
		}

		w.Header().Set("X-Request-Id", reqID)
		ctx := context.WithValue(r.Context(), RequestIDKey, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (api *API) headerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// private requires the X-User-Id header set by the authentication gateway
// and stores the actor in the request context.
func (api *API) private(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := ident.Parse(r.Header.Get("X-User-Id"))
		if err != nil {
			log.Debugf("[private][%s] rejected request without valid X-User-Id from %v", shorten(GetRequestID(r.Context())), r.RemoteAddr)
			writeJSON(w, http.StatusUnauthorized, errorResponse{
				Error:   "unauthorized",
				Reason:  "no-actor",
				Message: "Missing or invalid X-User-Id header",
			})
			return
		}

		actor := models.Actor{
			ID:     id,
			Name:   r.Header.Get("X-User-Name"),
			Avatar: r.Header.Get("X-User-Avatar"),
		}
		ctx := context.WithValue(r.Context(), ActorKey, actor)
		next(w, r.WithContext(ctx))
	}
}

func (api *API) loggingMiddleware(kw LogWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lw := logger.New(w)
			defer func() {
				entry := logger.LogEntry{
					Timestamp:  time.Now(),
					IP:         getClientIP(r),
					StatusCode: lw.Status(),
					RequestID:  GetRequestID(r.Context()),
					Method:     r.Method,
					Path:       r.URL.Path,
					Duration:   time.Since(start).Seconds(),
					Service:    api.ServiceName,
					Actor:      r.Header.Get("X-User-Id"),
				}
				go func() {
					jsonEntry, err := json.Marshal(entry)
					if err != nil {
						log.Errorf("[loggingMiddleware] failed to marshal log entry for request %s", entry.RequestID)
						return
					}
					ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
					defer cancel()
					err = kw.WriteMessages(ctx, kafka.Message{Key: []byte(entry.RequestID), Value: jsonEntry})
					if err != nil {
						log.Errorf("[loggingMiddleware] failed to write log to Kafka: %v", err)
						return
					}
					log.Debugf("[loggingMiddleware] log entry sent to Kafka request_id:%s", entry.RequestID)
				}()
			}()

			next.ServeHTTP(lw, r)
		})
	}
}

func getClientIP(r *http.Request) string {
	ip := r.Header.Get("X-Forwarded-For")
	if ip == "" {
		ip = r.RemoteAddr
	}

	return ip
}
