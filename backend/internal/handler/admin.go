package handler

import (
	"net/http"
	"strconv"

	"github.com/itchan-dev/anniv/shared/api"
	internal_errors "github.com/itchan-dev/anniv/shared/errors"
	"github.com/itchan-dev/anniv/shared/utils"
)

// AdminListMessages lists pending messages with pending=true, every message
// otherwise.
func (h *Handler) AdminListMessages(w http.ResponseWriter, r *http.Request) {
	page, pageSize, err := h.pagination(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var pending bool
	if raw := r.URL.Query().Get("pending"); raw != "" {
		pending, err = strconv.ParseBool(raw)
		if err != nil {
			h.writeError(w, internal_errors.Validation("pending must be true or false"))
			return
		}
	}

	result, err := h.moderation.List(r.Context(), page, pageSize, pending)
	if err != nil {
		h.writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.NewModerationPageResponse(result))
}

func (h *Handler) ModerateMessage(w http.ResponseWriter, r *http.Request) {
	var body api.ModerateMessageRequest
	if err := h.decode(w, r, &body); err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.moderation.Approve(r.Context(), body.Id, *body.Approve); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	var body api.DeleteMessageRequest
	if err := h.decode(w, r, &body); err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.moderation.Remove(r.Context(), body.Id, body.Ban); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
