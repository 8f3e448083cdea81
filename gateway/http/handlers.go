package http

import (
	"encoding/json"
	"net/http"

	"github.com/mmbrian/graph-ical-sub001/dragbehavior"
	"github.com/mmbrian/graph-ical-sub001/events"
)

// handleMutations is the mutation intake. Accepted requests are
// answered 202 before any store traffic happens; the caller learns the
// outcome through the refresh notification channel, never through this
// response.
func (s *Server) handleMutations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	defer r.Body.Close()

	var req events.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed mutation request")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.session.Emitter().Submit(req)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	entries, err := s.session.Timeline().Entries(r.Context())
	if err != nil {
		s.logger.Error("timeline fetch failed", "error", err)
		writeError(w, mapErrorToHTTPStatus(err), "timeline unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) handleBehaviors(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"behaviors": s.session.Behaviors().All()})

	case http.MethodPost:
		defer r.Body.Close()
		var b dragbehavior.Behavior
		if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
			writeError(w, http.StatusBadRequest, "malformed behavior")
			return
		}
		if err := s.session.Behaviors().Add(b); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, b)

	case http.MethodDelete:
		defer r.Body.Close()
		var b dragbehavior.Behavior
		if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
			writeError(w, http.StatusBadRequest, "malformed behavior")
			return
		}
		removed := s.session.Behaviors().Remove(b)
		writeJSON(w, http.StatusOK, map[string]int{"removed": removed})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// templateRequest names a behavior template. Save persists the current
// session list under the name; load replaces the session list with the
// named template's behaviors.
type templateRequest struct {
	Name string `json:"name"`
	Load bool   `json:"load,omitempty"`
}

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	defer r.Body.Close()

	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed template request")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "template name is required")
		return
	}

	if req.Load {
		behaviors, err := dragbehavior.LoadTemplate(r.Context(), s.session.Store(), req.Name)
		if err != nil {
			s.logger.Error("template load failed", "template", req.Name, "error", err)
			writeError(w, mapErrorToHTTPStatus(err), "template load failed")
			return
		}
		s.session.Behaviors().Replace(behaviors)
		writeJSON(w, http.StatusOK, map[string]any{"behaviors": behaviors})
		return
	}

	ref, err := dragbehavior.SaveTemplate(r.Context(), s.session.Store(), req.Name, s.session.Behaviors())
	if err != nil {
		s.logger.Error("template save failed", "template", req.Name, "error", err)
		writeError(w, mapErrorToHTTPStatus(err), "template save failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"template": string(ref)})
}
