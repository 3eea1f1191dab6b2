// Package api exposes the mutation service over HTTP. Authentication is done
// upstream: the acting user arrives in the X-User-* headers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gofrs/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"github.com/greforce/udm-devconnector/pkg/ident"
	"github.com/greforce/udm-devconnector/pkg/mutation"
)

// LogWriter ships request logs. *kafka.Writer implements it.
type LogWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type API struct {
	ServiceName string

	r        *mux.Router
	svc      *mutation.Service
	lw       LogWriter
	reg      *prometheus.Registry
	outcomes *prometheus.CounterVec
}

// New builds the router. lw may be nil to disable request-log shipping; reg
// may be nil, in which case a private registry is used for /metrics.
func New(name string, svc *mutation.Service, lw LogWriter, reg *prometheus.Registry) *API {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	api := API{
		ServiceName: name,
		r:           mux.NewRouter(),
		svc:         svc,
		lw:          lw,
		reg:         reg,
		outcomes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "devconnector_mutations_total",
				Help: "Mutation requests by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
	}
	api.endpoints()

	return &api
}

func (api *API) Router() *mux.Router {
	return api.r
}

func (api *API) endpoints() {
	api.r.Use(api.requestIDMiddleware)
	api.r.Use(api.headerMiddleware)
	if api.lw != nil {
		api.r.Use(api.loggingMiddleware(api.lw))
	}

	api.r.HandleFunc("/api/posts", api.private(api.createPost)).Methods(http.MethodPost)
	api.r.HandleFunc("/api/posts/{post_id}", api.getPost).Methods(http.MethodGet)
	api.r.HandleFunc("/api/posts/{post_id}", api.private(api.removePost)).Methods(http.MethodDelete)
	api.r.HandleFunc("/api/posts/like/{post_id}", api.private(api.likePost)).Methods(http.MethodPost)
	api.r.HandleFunc("/api/posts/unlike/{post_id}", api.private(api.unlikePost)).Methods(http.MethodPost)
	api.r.HandleFunc("/api/posts/comment/{post_id}", api.private(api.addComment)).Methods(http.MethodPost)
	api.r.HandleFunc("/api/posts/comment/{post_id}/{comment_id}", api.private(api.removeComment)).Methods(http.MethodDelete)

	api.r.HandleFunc("/api/profile", api.private(api.ownProfile)).Methods(http.MethodGet)
	api.r.HandleFunc("/api/profile", api.private(api.saveProfile)).Methods(http.MethodPost)
	api.r.HandleFunc("/api/profile", api.private(api.removeProfile)).Methods(http.MethodDelete)
	api.r.HandleFunc("/api/profile/user/{user_id}", api.profileByUser).Methods(http.MethodGet)
	api.r.HandleFunc("/api/profile/handle/{handle}", api.profileByHandle).Methods(http.MethodGet)
	api.r.HandleFunc("/api/profile/experience", api.private(api.addExperience)).Methods(http.MethodPost)
	api.r.HandleFunc("/api/profile/experience/{exp_id}", api.private(api.removeExperience)).Methods(http.MethodDelete)
	api.r.HandleFunc("/api/profile/education", api.private(api.addEducation)).Methods(http.MethodPost)
	api.r.HandleFunc("/api/profile/education/{edu_id}", api.private(api.removeEducation)).Methods(http.MethodDelete)

	api.r.Handle("/metrics", promhttp.HandlerFor(api.reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)
}

// pathID parses the named route variable as an identifier. On failure it
// writes a 400 response and returns false.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := ident.Parse(mux.Vars(r)[name])
	if err != nil {
		log.Debugf("[pathID][%s] invalid %s %q: %v", shorten(GetRequestID(r.Context())), name, mux.Vars(r)[name], err)
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   string(mutation.ValidationFailed),
			Reason:  "invalid-id",
			Message: "Invalid " + name,
		})
		return uuid.Nil, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		log.Debugf("[decodeBody][%s] failed to decode request body: %v", shorten(GetRequestID(r.Context())), err)
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   string(mutation.ValidationFailed),
			Reason:  mutation.ReasonInvalidInput,
			Message: "Malformed request body",
		})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("[writeJSON] failed to encode response: %v", err)
	}
}

// shorten truncates a string to 6 characters if it is longer than 6, appends '...' at the end,
// otherwise it returns the string unchanged.
func shorten(s string) string {
	if len(s) > 6 {
		return s[:6] + "..."
	}
	return s
}
