package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/vidtube/internal/server/services"
)

func (h *Handler) publishVideo(w http.ResponseWriter, r *http.Request) {
	up, err := h.parseUploads(w, r, "videoFile", "thumbnail")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer up.cleanup(r.Context())

	f, err := readFields(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	video, err := h.videos.Publish(r.Context(), mustUser(r).ID, services.PublishInput{
		Title:       f["title"],
		Description: f["description"],
		VideoFile:   up.get("videoFile"),
		Thumbnail:   up.get("thumbnail"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusCreated, video, "Video published successfully")
}

func (h *Handler) getVideo(w http.ResponseWriter, r *http.Request) {
	video, err := h.videos.Get(r.Context(), chi.URLParam(r, "videoID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, video, "Video fetched successfully")
}

func (h *Handler) recordView(w http.ResponseWriter, r *http.Request) {
	if err := h.videos.RecordView(r.Context(), mustUser(r).ID, chi.URLParam(r, "videoID")); err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, nil, "View recorded")
}
