package api

import (
	"net/http"

	"github.com/gofrs/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/greforce/udm-devconnector/pkg/models"
	"github.com/greforce/udm-devconnector/pkg/mutation"
)

func (api *API) ownProfile(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetActor(r.Context())

	profile, err := api.svc.ProfileOf(r.Context(), actor.ID)
	if err != nil {
		writeError(w, "ownProfile", GetRequestID(r.Context()), err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func (api *API) profileByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "user_id")
	if !ok {
		return
	}

	profile, err := api.svc.ProfileOf(r.Context(), userID)
	if err != nil {
		writeError(w, "profileByUser", GetRequestID(r.Context()), err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func (api *API) profileByHandle(w http.ResponseWriter, r *http.Request) {
	profile, err := api.svc.ProfileByHandle(r.Context(), mux.Vars(r)["handle"])
	if err != nil {
		writeError(w, "profileByHandle", GetRequestID(r.Context()), err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func (api *API) saveProfile(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetActor(r.Context())

	var req mutation.ProfileFields
	if !decodeBody(w, r, &req) {
		return
	}

	profile, err := api.svc.SaveProfile(r.Context(), actor.ID, req)
	api.record("save-profile", err)
	if err != nil {
		writeError(w, "saveProfile", GetRequestID(r.Context()), err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func (api *API) removeProfile(w http.ResponseWriter, r *http.Request) {
	reqID := GetRequestID(r.Context())
	actor, _ := GetActor(r.Context())

	err := api.svc.RemoveProfile(r.Context(), actor.ID)
	api.record("remove-profile", err)
	if err != nil {
		writeError(w, "removeProfile", reqID, err)
		return
	}

	log.Infof("[removeProfile][%s] profile of %v removed", shorten(reqID), actor.ID)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (api *API) addExperience(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetActor(r.Context())

	var exp models.Experience
	if !decodeBody(w, r, &exp) {
		return
	}

	profile, err := api.svc.AddExperience(r.Context(), uuid.Nil, actor.ID, exp)
	api.record("add-experience", err)
	if err != nil {
		writeError(w, "addExperience", GetRequestID(r.Context()), err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func (api *API) removeExperience(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetActor(r.Context())
	expID, ok := pathID(w, r, "exp_id")
	if !ok {
		return
	}

	profile, err := api.svc.RemoveExperience(r.Context(), uuid.Nil, actor.ID, expID)
	api.record("remove-experience", err)
	if err != nil {
		writeError(w, "removeExperience", GetRequestID(r.Context()), err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func (api *API) addEducation(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetActor(r.Context())

	var edu models.Education
	if !decodeBody(w, r, &edu) {
		return
	}

	profile, err := api.svc.AddEducation(r.Context(), uuid.Nil, actor.ID, edu)
	api.record("add-education", err)
	if err != nil {
		writeError(w, "addEducation", GetRequestID(r.Context()), err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func (api *API) removeEducation(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetActor(r.Context())
	eduID, ok := pathID(w, r, "edu_id")
	if !ok {
		return
	}

	profile, err := api.svc.RemoveEducation(r.Context(), uuid.Nil, actor.ID, eduID)
	api.record("remove-education", err)
	if err != nil {
		writeError(w, "removeEducation", GetRequestID(r.Context()), err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}
