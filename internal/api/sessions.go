package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pulseaid/pulseaid/internal/questionnaire"
	"github.com/pulseaid/pulseaid/internal/report"
	"github.com/pulseaid/pulseaid/internal/translate"
)

// errReportNotReady is returned while the questionnaire is still running.
var errReportNotReady = errors.New("api: report not ready")

// sessionResponse is the JSON shape for session metadata plus current state.
type sessionResponse struct {
	ID        string                 `json:"id"`
	Variant   string                 `json:"variant"`
	StartedAt time.Time              `json:"started_at"`
	Snapshot  questionnaire.Snapshot `json:"snapshot"`
}

// listVariants returns every questionnaire variant with its full question list.
func (h *Handler) listVariants(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, questionnaire.Variants())
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Variant string `json:"variant"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}

	sess, info, err := h.app.Sessions().Create(r.Context(), body.Variant)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{
		ID:        info.ID,
		Variant:   info.Variant,
		StartedAt: info.StartedAt,
		Snapshot:  sess.Snapshot(),
	})
}

func (h *Handler) listSessions(w http.ResponseWriter, _ *http.Request) {
	infos := h.app.Sessions().List()
	out := make([]sessionResponse, 0, len(infos))
	for _, info := range infos {
		sess, _, err := h.app.Sessions().Get(info.ID)
		if err != nil {
			continue // removed between List and Get
		}
		out = append(out, sessionResponse{
			ID:        info.ID,
			Variant:   info.Variant,
			StartedAt: info.StartedAt,
			Snapshot:  sess.Snapshot(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	sess, info, err := h.app.Sessions().Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		ID:        info.ID,
		Variant:   info.Variant,
		StartedAt: info.StartedAt,
		Snapshot:  sess.Snapshot(),
	})
}

func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Sessions().Remove(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// submitInput buffers typed text for the current question.
func (h *Handler) submitInput(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}
	if body.Text == "" {
		writeBadRequest(w, "text is required")
		return
	}

	sess, _, err := h.app.Sessions().Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := sess.SubmitManual(body.Text); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, sess.Snapshot())
}

// submitChoice records a structured selection. Used for both single-choice
// lists and the hospital location pick.
func (h *Handler) submitChoice(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Label string `json:"label"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}
	if body.Label == "" {
		writeBadRequest(w, "label is required")
		return
	}

	sess, _, err := h.app.Sessions().Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := sess.Select(body.Label); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, sess.Snapshot())
}

// forceSubmit ends the current listening window immediately and resolves the
// answer from whatever has been buffered so far.
func (h *Handler) forceSubmit(w http.ResponseWriter, r *http.Request) {
	sess, _, err := h.app.Sessions().Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := sess.Submit(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, sess.Snapshot())
}

// skipQuestion records the skip sentinel for the current question and closes
// its window, mirroring the spoken "skip" escape.
func (h *Handler) skipQuestion(w http.ResponseWriter, r *http.Request) {
	sess, _, err := h.app.Sessions().Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := sess.SubmitManual("skip"); err != nil {
		writeError(w, err)
		return
	}
	if err := sess.Submit(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, sess.Snapshot())
}

// resetSession discards the current run and restarts the same variant under
// the same session ID.
func (h *Handler) resetSession(w http.ResponseWriter, r *http.Request) {
	sess, info, err := h.app.Sessions().Reset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		ID:        info.ID,
		Variant:   info.Variant,
		StartedAt: info.StartedAt,
		Snapshot:  sess.Snapshot(),
	})
}

// getReport returns the composed report text, optionally translated via the
// lang query parameter (en, te, hi).
func (h *Handler) getReport(w http.ResponseWriter, r *http.Request) {
	sess, info, err := h.app.Sessions().Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	snap := sess.Snapshot()
	if snap.Status != questionnaire.StatusDone || snap.Report == "" {
		writeJSON(w, http.StatusConflict, errorBody{Error: errReportNotReady.Error()})
		return
	}

	lang, err := translate.Parse(r.URL.Query().Get("lang"))
	if err != nil {
		writeError(w, err)
		return
	}
	text, err := translate.Report(snap.Report, lang)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		ID       string             `json:"id"`
		Variant  string             `json:"variant"`
		Language translate.Language `json:"language"`
		Report   string             `json:"report"`
	}{
		ID:       info.ID,
		Variant:  info.Variant,
		Language: lang,
		Report:   text,
	})
}

// getReportPDF renders the completed report as a PDF document.
func (h *Handler) getReportPDF(w http.ResponseWriter, r *http.Request) {
	sess, info, err := h.app.Sessions().Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	snap := sess.Snapshot()
	if snap.Status != questionnaire.StatusDone {
		writeJSON(w, http.StatusConflict, errorBody{Error: errReportNotReady.Error()})
		return
	}

	pdf, err := report.RenderPDF(info.Variant, snap.Answers)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="emergency-report.pdf"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		h.log.Warn("pdf write failed", "session_id", info.ID, "err", err)
	}
}
