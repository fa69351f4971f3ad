package api

import (
	"errors"
	"net/http"
)

// errTrackerDisabled is returned when tracking endpoints are hit without a
// running tracker.
var errTrackerDisabled = errors.New("api: ambulance tracking is disabled")

func (h *Handler) listCategories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.app.Catalog().Categories())
}

// listProducts returns products filtered by the optional category parameter,
// or fuzzy-matched against the optional q parameter. q wins when both are set.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	if q := r.URL.Query().Get("q"); q != "" {
		writeJSON(w, http.StatusOK, h.app.Catalog().SearchProducts(q))
		return
	}
	writeJSON(w, http.StatusOK, h.app.Catalog().Products(r.URL.Query().Get("category")))
}

func (h *Handler) listTopics(w http.ResponseWriter, r *http.Request) {
	if q := r.URL.Query().Get("q"); q != "" {
		writeJSON(w, http.StatusOK, h.app.Catalog().SearchTopics(q))
		return
	}
	writeJSON(w, http.StatusOK, h.app.Catalog().Topics(r.URL.Query().Get("category")))
}

func (h *Handler) listDocuments(w http.ResponseWriter, r *http.Request) {
	if q := r.URL.Query().Get("q"); q != "" {
		writeJSON(w, http.StatusOK, h.app.Catalog().SearchDocuments(q))
		return
	}
	writeJSON(w, http.StatusOK, h.app.Catalog().Documents(r.URL.Query().Get("category")))
}

func (h *Handler) listHospitals(w http.ResponseWriter, r *http.Request) {
	if q := r.URL.Query().Get("q"); q != "" {
		writeJSON(w, http.StatusOK, h.app.Catalog().SearchHospitals(q))
		return
	}
	writeJSON(w, http.StatusOK, h.app.Catalog().Hospitals())
}

// summarise runs the document summariser on the uploaded filename. The body
// carries only metadata; the canned summariser never reads file contents.
func (h *Handler) summarise(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Filename string `json:"filename"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}
	if body.Filename == "" {
		writeBadRequest(w, "filename is required")
		return
	}

	summary, err := h.app.Summariser().Summarise(r.Context(), body.Filename)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Filename string `json:"filename"`
		Summary  string `json:"summary"`
	}{Filename: body.Filename, Summary: summary})
}

// trackerSnapshot returns the current simulated ambulance position.
func (h *Handler) trackerSnapshot(w http.ResponseWriter, _ *http.Request) {
	tr := h.app.Tracker()
	if tr == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: errTrackerDisabled.Error()})
		return
	}
	writeJSON(w, http.StatusOK, tr.Snapshot())
}
