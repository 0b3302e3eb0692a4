package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jarviz-io/jarviz-api/internal/query"
)

// errBadJSON marks request bodies that could not be decoded.
var errBadJSON = errors.New("invalid JSON body")

// decodeJSON decodes the request body into v. Numbers decoded into interface
// values stay json.Number so integers reach the store unchanged.
func decodeJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadJSON, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data", errBadJSON)
	}
	return nil
}

// decodePayload decodes a JSON object body into a payload.
func decodePayload(r *http.Request) (query.Payload, error) {
	var p query.Payload
	if err := decodeJSON(r, &p); err != nil {
		return nil, err
	}
	if p == nil {
		return query.Payload{}, nil
	}
	return p, nil
}

// pathID reads the {id} URL parameter.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, query.InvalidParams(0, "invalid arguments")
	}
	return id, nil
}

// intParam reads an optional integer query parameter; absent means 0.
func intParam(r *http.Request, name string) (int64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, query.InvalidParams(0, "%s must be an integer", name)
	}
	return n, nil
}

// fail writes the response for a decoding or operation error.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errBadJSON) {
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
		return
	}
	h.writeFailure(w, r, err)
}
