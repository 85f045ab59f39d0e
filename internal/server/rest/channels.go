package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) channelProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.channels.ChannelProfile(r.Context(), chi.URLParam(r, "username"), mustUser(r).ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, profile, "User channel fetched successfully")
}

type subscriptionState struct {
	Subscribed bool `json:"subscribed"`
}

func (h *Handler) subscribe(w http.ResponseWriter, r *http.Request) {
	if err := h.channels.Subscribe(r.Context(), mustUser(r).ID, chi.URLParam(r, "username")); err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, subscriptionState{Subscribed: true}, "Subscribed")
}

func (h *Handler) unsubscribe(w http.ResponseWriter, r *http.Request) {
	if err := h.channels.Unsubscribe(r.Context(), mustUser(r).ID, chi.URLParam(r, "username")); err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, subscriptionState{Subscribed: false}, "Unsubscribed")
}

func (h *Handler) watchHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.channels.WatchHistory(r.Context(), mustUser(r).ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, history, "Watch history fetched successfully")
}
