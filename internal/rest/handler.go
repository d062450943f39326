package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/pershin-daniil/MeetBot/pkg/models"
	"github.com/pershin-daniil/MeetBot/pkg/timeutil"
)

var errBadRequest = errors.New("bad request")

type ErrorResponse struct {
	Error string `json:"error"`
}

type AvailabilityResponse struct {
	Available bool     `json:"available"`
	Busy      []string `json:"busy"`
}

type ConflictResponse struct {
	Error string   `json:"error"`
	Busy  []string `json:"busy"`
}

type SweepResponse struct {
	Deleted int `json:"deleted"`
}

func (s *Server) versionHandler(w http.ResponseWriter, _ *http.Request) {
	_, err := fmt.Fprintf(w, "%s\n", s.opts.Version)
	if err != nil {
		s.log.Warnf("err during writing to connection: %v", err)
	}
}

func (s *Server) readyHandler(w http.ResponseWriter, r *http.Request) {
	for name, check := range s.opts.Checks {
		if err := check.Ping(r.Context()); err != nil {
			s.log.Warnf("%s is not ready: %v", name, err)
			s.writeResponse(w, http.StatusServiceUnavailable, fmt.Errorf("%s is not ready", name))
			return
		}
	}
	s.writeResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeResponse(w, http.StatusBadRequest, err)
		return
	}
	if req.Name == nil || req.Password == nil {
		s.writeResponse(w, http.StatusBadRequest, fmt.Errorf("%w: name and password are required", errBadRequest))
		return
	}
	user, err := s.users.Authenticate(*req.Name, *req.Password)
	if err != nil {
		s.writeResponse(w, http.StatusUnauthorized, err)
		return
	}
	token, err := s.newToken(user)
	if err != nil {
		s.log.Warnf("err during issuing token: %v", err)
		s.writeResponse(w, http.StatusInternalServerError, err)
		return
	}
	s.writeResponse(w, http.StatusOK, models.TokenResponse{Token: token})
}

func (s *Server) workdaysHandler(w http.ResponseWriter, r *http.Request) {
	count := s.opts.Workdays
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.writeResponse(w, http.StatusBadRequest, fmt.Errorf("%w: invalid count %q", errBadRequest, raw))
			return
		}
		count = n
	}
	s.writeResponse(w, http.StatusOK, s.app.Workdays(count))
}

func (s *Server) availabilityHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date, err := timeutil.ParseDate(q.Get("date"), s.now())
	if err != nil {
		s.writeResponse(w, http.StatusBadRequest, err)
		return
	}
	duration, err := strconv.Atoi(q.Get("duration"))
	if err != nil {
		s.writeResponse(w, http.StatusBadRequest, fmt.Errorf("%w: invalid duration", errBadRequest))
		return
	}
	users := q["user"]
	if len(users) == 0 {
		s.writeResponse(w, http.StatusBadRequest, fmt.Errorf("%w: at least one user is required", errBadRequest))
		return
	}
	busy, err := s.app.BusyParticipants(r.Context(), date, q.Get("start"), duration, users)
	if err != nil {
		s.writeError(w, "checking availability", err)
		return
	}
	s.writeResponse(w, http.StatusOK, AvailabilityResponse{Available: len(busy) == 0, Busy: busy})
}

func (s *Server) createMeetingHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := s.getClaims(ctx)
	var req models.MeetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeResponse(w, http.StatusBadRequest, err)
		return
	}
	if req.Date == nil || req.StartTime == nil || req.DurationMinutes == nil {
		s.writeResponse(w, http.StatusBadRequest, fmt.Errorf("%w: date, startTime and durationMinutes are required", errBadRequest))
		return
	}
	date, err := timeutil.ParseDate(*req.Date, s.now())
	if err != nil {
		s.writeResponse(w, http.StatusBadRequest, err)
		return
	}
	if claims.Role != models.RoleCreator {
		s.writeResponse(w, http.StatusForbidden, models.ErrForbidden)
		return
	}
	busy, err := s.app.BusyParticipants(ctx, date, *req.StartTime, *req.DurationMinutes, req.Participants)
	if err != nil {
		s.writeError(w, "creating meeting", err)
		return
	}
	if len(busy) > 0 {
		s.writeResponse(w, http.StatusConflict, ConflictResponse{
			Error: "busy at this time: " + strings.Join(busy, ", "),
			Busy:  busy,
		})
		return
	}
	id, err := s.app.Create(ctx, claims.Name, date, *req.StartTime, *req.DurationMinutes, req.Participants)
	if err != nil {
		s.writeError(w, "creating meeting", err)
		return
	}
	meeting, err := s.app.Meeting(ctx, id)
	if err != nil {
		s.writeError(w, "creating meeting", err)
		return
	}
	s.writeResponse(w, http.StatusCreated, meeting)
}

func (s *Server) getMeetingHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		s.writeResponse(w, http.StatusBadRequest, err)
		return
	}
	meeting, err := s.app.Meeting(r.Context(), id)
	if err != nil {
		s.writeError(w, "getting meeting", err)
		return
	}
	s.writeResponse(w, http.StatusOK, meeting)
}

func (s *Server) deleteMeetingHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		s.writeResponse(w, http.StatusBadRequest, err)
		return
	}
	if err = s.app.Delete(ctx, s.getClaims(ctx).Name, id); err != nil {
		s.writeError(w, "deleting meeting", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pastMeetingsHandler lists the caller's past meetings; creators may pass
// all=true to see everyone's.
func (s *Server) pastMeetingsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := s.getClaims(ctx)
	creator := claims.Name
	if r.URL.Query().Get("all") == "true" && claims.Role == models.RoleCreator {
		creator = ""
	}
	meetings, err := s.app.PastMeetings(ctx, creator)
	if err != nil {
		s.writeError(w, "getting past meetings", err)
		return
	}
	s.writeResponse(w, http.StatusOK, meetings)
}

func (s *Server) futureMeetingsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	meetings, err := s.app.FutureMeetings(ctx, s.getClaims(ctx).Name)
	if err != nil {
		s.writeError(w, "getting future meetings", err)
		return
	}
	s.writeResponse(w, http.StatusOK, meetings)
}

func (s *Server) notificationsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	notifications, err := s.app.Notifications(ctx, s.getClaims(ctx).Name)
	if err != nil {
		s.writeError(w, "getting notifications", err)
		return
	}
	s.writeResponse(w, http.StatusOK, notifications)
}

func (s *Server) readNotificationHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		s.writeResponse(w, http.StatusBadRequest, err)
		return
	}
	if err = s.app.MarkNotificationRead(ctx, s.getClaims(ctx).Name, id); err != nil {
		s.writeError(w, "reading notification", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) sweepHandler(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.sweeper.SweepNow(r.Context())
	if err != nil {
		s.writeError(w, "sweeping meetings", err)
		return
	}
	s.writeResponse(w, http.StatusOK, SweepResponse{Deleted: deleted})
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := s.app.Stats(ctx)
	if err != nil {
		s.writeError(w, "getting stats", err)
		return
	}
	if s.opts.Sessions != nil {
		if stats.Sessions, err = s.opts.Sessions.Count(ctx); err != nil {
			s.log.Warnf("err during counting sessions: %v", err)
		}
	}
	s.writeResponse(w, http.StatusOK, stats)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, models.ErrMeetingNotFound), errors.Is(err, models.ErrNotificationNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrMalformedTime), errors.Is(err, models.ErrInvalidMeeting), errors.Is(err, timeutil.ErrOutOfDay):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, action string, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.log.Warnf("err during %s: %v", action, err)
	}
	s.writeResponse(w, status, err)
}

func (s *Server) writeResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if x, ok := data.(error); ok {
		if err := json.NewEncoder(w).Encode(ErrorResponse{Error: x.Error()}); err != nil {
			s.log.Warnf("err during encoding error: %v", err)
		}
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Warnf("err during encoding response: %v", err)
	}
}
