package api

import (
	"net/http"

	"github.com/jarviz-io/jarviz-api/internal/controller"
)

// HandleBillingListOwn lists the caller's billing records.
// GET /api/billing
func (h *Handler) HandleBillingListOwn(w http.ResponseWriter, r *http.Request) {
	rows, err := h.billing.ListOwn(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandleBillingListAll lists every billing record.
// GET /api/billing/all
func (h *Handler) HandleBillingListAll(w http.ResponseWriter, r *http.Request) {
	rows, err := h.billing.ListAll(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandleBillingListByClient lists one client's billing entries.
// GET /api/billing/client/{id}
func (h *Handler) HandleBillingListByClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rows, err := h.billing.ListByClient(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandleBillingFilter filters billing entries.
// GET /api/billing/filter?client=&status=&payed_at=&type=&from=&to=
func (h *Handler) HandleBillingFilter(w http.ResponseWriter, r *http.Request) {
	typ, err := intParam(r, "type")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	rows, err := h.billing.Filter(r.Context(), controller.BillingFilter{
		Client:  q.Get("client"),
		Status:  q.Get("status"),
		PayedAt: q.Get("payed_at"),
		Type:    typ,
		From:    q.Get("from"),
		To:      q.Get("to"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandleBillingCreate stores a billing record.
// POST /api/billing
func (h *Handler) HandleBillingCreate(w http.ResponseWriter, r *http.Request) {
	payload, err := decodePayload(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	id, err := h.billing.Create(r.Context(), payload)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

// HandleBillingUpdate overwrites a billing record.
// PUT /api/billing/{id}
func (h *Handler) HandleBillingUpdate(w http.ResponseWriter, r *http.Request) {
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
	if err := h.billing.Update(r.Context(), id, payload); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
