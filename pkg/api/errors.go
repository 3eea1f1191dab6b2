package api

import (
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/greforce/udm-devconnector/pkg/guard"
	"github.com/greforce/udm-devconnector/pkg/mutation"
)

type errorResponse struct {
	Error   string `json:"error"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

var messages = map[string]string{
	mutation.ReasonNoPost:         "No post found with this id",
	mutation.ReasonNoComment:      "There is no comment with such id",
	mutation.ReasonNoExperience:   "There is no experience record with such id",
	mutation.ReasonNoEducation:    "There is no education record with such id",
	mutation.ReasonNoProfile:      "There is no profile for this user",
	mutation.ReasonHandleTaken:    "This handle already exists",
	mutation.ReasonInvalidInput:   "Invalid input",
	mutation.ReasonUnavailable:    "Storage temporarily unavailable",
	mutation.ReasonConflict:       "The document was modified concurrently, try again",
	mutation.ReasonDuplicateIdent: "The document holds duplicate records",
	string(guard.NotOwner):        "User not authorized",
	string(guard.OwnResource):     "User cannot like or unlike own post",
	string(guard.AlreadyLiked):    "User already liked this post",
	string(guard.NotYetLiked):     "You have not yet liked this post",
}

func statusOf(kind mutation.Kind) int {
	switch kind {
	case mutation.NotFound, mutation.ProfileMissing:
		return http.StatusNotFound
	case mutation.Forbidden:
		return http.StatusForbidden
	case mutation.ValidationFailed:
		return http.StatusBadRequest
	case mutation.StorageFailure:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError maps err to a status code and a stable JSON body. The raw error
// is only logged.
func writeError(w http.ResponseWriter, handler, reqID string, err error) {
	var merr *mutation.Error
	if !errors.As(err, &merr) {
		log.Errorf("[%s][%s] unexpected error: %v", handler, shorten(reqID), err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "internal",
			Reason:  mutation.ReasonInternal,
			Message: "Internal Server Error",
		})
		return
	}

	status := statusOf(merr.Kind)
	if status >= http.StatusInternalServerError {
		log.Errorf("[%s][%s] %v", handler, shorten(reqID), err)
	} else {
		log.Debugf("[%s][%s] %v", handler, shorten(reqID), err)
	}
	if merr.Retryable() {
		w.Header().Set("Retry-After", "1")
	}

	msg, ok := messages[merr.Reason]
	if !ok {
		msg = http.StatusText(status)
	}
	if merr.Kind == mutation.ValidationFailed && merr.Reason == mutation.ReasonInvalidInput && merr.Err != nil {
		msg = merr.Err.Error()
	}

	writeJSON(w, status, errorResponse{Error: string(merr.Kind), Reason: merr.Reason, Message: msg})
}
