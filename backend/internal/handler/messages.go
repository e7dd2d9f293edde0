package handler

import (
	"net/http"

	"github.com/itchan-dev/anniv/shared/api"
	"github.com/itchan-dev/anniv/shared/domain"
	"github.com/itchan-dev/anniv/shared/utils"
)

// ListMessages serves the public board, approved messages only.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	page, pageSize, err := h.pagination(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.listing.List(r.Context(), page, pageSize, domain.VisibleOnly)
	if err != nil {
		h.writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.NewPageResponse(result))
}

func (h *Handler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	var body api.CreateMessageRequest
	if err := h.decode(w, r, &body); err != nil {
		h.writeError(w, err)
		return
	}

	res, err := h.submission.Submit(r.Context(), body.Submission())
	if err != nil {
		h.writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, api.CreateMessageResponse{Id: res.Id, Timestamp: res.Timestamp})
}
