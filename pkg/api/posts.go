package api

import (
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/greforce/udm-devconnector/pkg/mutation"
)

type postRequest struct {
	Text string `json:"text"`
}

// record counts the outcome of a mutation request.
func (api *API) record(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(mutation.KindOf(err))
		if outcome == "" {
			outcome = "internal"
		}
	}
	api.outcomes.WithLabelValues(op, outcome).Inc()
}

func (api *API) createPost(w http.ResponseWriter, r *http.Request) {
	reqID := GetRequestID(r.Context())
	actor, _ := GetActor(r.Context())

	var req postRequest
	if !decodeBody(w, r, &req) {
		return
	}

	post, err := api.svc.CreatePost(r.Context(), actor, req.Text)
	api.record("create-post", err)
	if err != nil {
		writeError(w, "createPost", reqID, err)
		return
	}

	log.Infof("[createPost][%s] post %v created by %v", shorten(reqID), post.ID, actor.ID)
	writeJSON(w, http.StatusCreated, post)
}

func (api *API) getPost(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r, "post_id")
	if !ok {
		return
	}

	post, err := api.svc.Post(r.Context(), postID)
	if err != nil {
		writeError(w, "getPost", GetRequestID(r.Context()), err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

func (api *API) removePost(w http.ResponseWriter, r *http.Request) {
	reqID := GetRequestID(r.Context())
	actor, _ := GetActor(r.Context())
	postID, ok := pathID(w, r, "post_id")
	if !ok {
		return
	}

	err := api.svc.RemovePost(r.Context(), postID, actor.ID)
	api.record("remove-post", err)
	if err != nil {
		writeError(w, "removePost", reqID, err)
		return
	}

	log.Infof("[removePost][%s] post %v removed by %v", shorten(reqID), postID, actor.ID)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (api *API) likePost(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetActor(r.Context())
	postID, ok := pathID(w, r, "post_id")
	if !ok {
		return
	}

	post, err := api.svc.Like(r.Context(), postID, actor.ID)
	api.record("like", err)
	if err != nil {
		writeError(w, "likePost", GetRequestID(r.Context()), err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

func (api *API) unlikePost(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetActor(r.Context())
	postID, ok := pathID(w, r, "post_id")
	if !ok {
		return
	}

	post, err := api.svc.Unlike(r.Context(), postID, actor.ID)
	api.record("unlike", err)
	if err != nil {
		writeError(w, "unlikePost", GetRequestID(r.Context()), err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

func (api *API) addComment(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetActor(r.Context())
	postID, ok := pathID(w, r, "post_id")
	if !ok {
		return
	}

	var req postRequest
	if !decodeBody(w, r, &req) {
		return
	}

	post, err := api.svc.AddComment(r.Context(), postID, actor, req.Text)
	api.record("add-comment", err)
	if err != nil {
		writeError(w, "addComment", GetRequestID(r.Context()), err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

func (api *API) removeComment(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetActor(r.Context())
	postID, ok := pathID(w, r, "post_id")
	if !ok {
		return
	}
	commentID, ok := pathID(w, r, "comment_id")
	if !ok {
		return
	}

	post, err := api.svc.RemoveComment(r.Context(), postID, actor.ID, commentID)
	api.record("remove-comment", err)
	if err != nil {
		writeError(w, "removeComment", GetRequestID(r.Context()), err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}
