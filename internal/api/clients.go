package api

import (
	"net/http"

	"github.com/jarviz-io/jarviz-api/internal/controller"
)

type createdResponse struct {
	ID int64 `json:"id"`
}

// HandleClientListAll lists every client.
// GET /api/clients
func (h *Handler) HandleClientListAll(w http.ResponseWriter, r *http.Request) {
	rows, err := h.clients.ListAll(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandleClientListReferred lists the clients the caller referred.
// GET /api/clients/referred
func (h *Handler) HandleClientListReferred(w http.ResponseWriter, r *http.Request) {
	rows, err := h.clients.ListReferred(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// GET /api/clients/referer/{id}
func (h *Handler) HandleClientListByReferer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rows, err := h.clients.ListByReferer(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandleClientNames returns distinct client names containing term.
// GET /api/clients/names?term=
func (h *Handler) HandleClientNames(w http.ResponseWriter, r *http.Request) {
	names, err := h.clients.Names(r.Context(), r.URL.Query().Get("term"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

// GET /api/clients/widgets
func (h *Handler) HandleClientWidgets(w http.ResponseWriter, r *http.Request) {
	rows, err := h.clients.ListByWidget(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandleClientCurrent returns the caller's profile.
// GET /api/clients/me
func (h *Handler) HandleClientCurrent(w http.ResponseWriter, r *http.Request) {
	client, err := h.clients.Current(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

// HandleClientSelect returns the client overview.
// GET /api/clients/select?name=&type=&created_at=&from=&to=&term=
func (h *Handler) HandleClientSelect(w http.ResponseWriter, r *http.Request) {
	typ, err := intParam(r, "type")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	rows, err := h.clients.Select(r.Context(), controller.ClientSelect{
		Name:      q.Get("name"),
		Type:      typ,
		CreatedAt: q.Get("created_at"),
		From:      q.Get("from"),
		To:        q.Get("to"),
		Term:      q.Get("term"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// GET /api/clients/{id}
func (h *Handler) HandleClientGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rows, err := h.clients.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// GET /api/clients/{id}/info
func (h *Handler) HandleClientInfo(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	info, err := h.clients.Info(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// POST /api/clients
func (h *Handler) HandleClientCreate(w http.ResponseWriter, r *http.Request) {
	payload, err := decodePayload(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	id, err := h.clients.Create(r.Context(), payload)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

// PUT /api/clients/{id}
func (h *Handler) HandleClientUpdate(w http.ResponseWriter, r *http.Request) {
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
	if err := h.clients.Update(r.Context(), id, payload); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
