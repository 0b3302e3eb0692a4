package api

import (
	"net/http"

	"github.com/jarviz-io/jarviz-api/internal/controller"
)

// GET /api/call-sessions
func (h *Handler) HandleSessionListOwn(w http.ResponseWriter, r *http.Request) {
	rows, err := h.sessions.ListOwn(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// GET /api/call-sessions/all
func (h *Handler) HandleSessionListAll(w http.ResponseWriter, r *http.Request) {
	rows, err := h.sessions.ListAll(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// GET /api/call-sessions/client/{id}
func (h *Handler) HandleSessionListByClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rows, err := h.sessions.ListByClient(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// GET /api/call-sessions/widget/{id}
func (h *Handler) HandleSessionListByWidget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rows, err := h.sessions.ListByWidget(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandleSessionFilter filters call sessions by client name, numbers and init_at range.
// GET /api/call-sessions/filter?client=&client_num=&ans_operator_num=&from=&to=
func (h *Handler) HandleSessionFilter(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rows, err := h.sessions.Filter(r.Context(), controller.CallSessionFilter{
		Client:         q.Get("client"),
		ClientNum:      q.Get("client_num"),
		AnsOperatorNum: q.Get("ans_operator_num"),
		From:           q.Get("from"),
		To:             q.Get("to"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandleSessionCallInfo returns the call summary of one session.
// GET /api/call-sessions/{id}/call-info
func (h *Handler) HandleSessionCallInfo(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	info, err := h.sessions.CallInfo(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// POST /api/call-sessions
func (h *Handler) HandleSessionCreate(w http.ResponseWriter, r *http.Request) {
	payload, err := decodePayload(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	id, err := h.sessions.Create(r.Context(), payload)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

// PUT /api/call-sessions/{id}
func (h *Handler) HandleSessionUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	payload, err := decodePayload(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.sessions.Update(r.Context(), id, payload); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
