package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"maitred/internal/database"
	"maitred/internal/domain"
	"maitred/internal/models"
	"maitred/internal/service"

	"github.com/gorilla/mux"
)

func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date := strings.TrimSpace(q.Get("date"))
	clock := strings.TrimSpace(q.Get("time"))
	if date == "" || clock == "" {
		writeError(w, http.StatusBadRequest, "date and time are required")
		return
	}
	partySize, err := strconv.Atoi(q.Get("party_size"))
	if err != nil || partySize <= 0 {
		writeError(w, http.StatusBadRequest, "party_size must be a positive integer")
		return
	}

	result, err := s.reservations.CheckAvailability(r.Context(), date, clock, partySize)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type createReservationRequest struct {
	UserID         int64  `json:"user_id"`
	GuestName      string `json:"guest_name"`
	GuestPhone     string `json:"guest_phone"`
	GuestEmail     string `json:"guest_email"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	PartySize      int    `json:"party_size"`
	TableType      string `json:"table_type"`
	SpecialRequest string `json:"special_request"`
}

func (s *Server) handleCreateReservation(w http.ResponseWriter, r *http.Request) {
	var req createReservationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	reservation := &models.Reservation{
		UserID:         req.UserID,
		GuestName:      req.GuestName,
		GuestPhone:     req.GuestPhone,
		GuestEmail:     req.GuestEmail,
		Date:           req.Date,
		Time:           req.Time,
		PartySize:      req.PartySize,
		TableType:      req.TableType,
		SpecialRequest: req.SpecialRequest,
	}
	if err := s.reservations.Create(r.Context(), reservation); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reservation)
}

func (s *Server) handleListReservations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.ReservationFilter{
		Date:     q.Get("date"),
		FromDate: q.Get("from"),
		ToDate:   q.Get("to"),
		Status:   q.Get("status"),
	}
	if raw := q.Get("user_id"); raw != "" {
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "user_id must be an integer")
			return
		}
		filter.UserID = userID
	}

	reservations, err := s.reservations.List(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reservations": reservations})
}

func (s *Server) handleGetReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	reservation, err := s.reservations.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reservation)
}

func (s *Server) handleGetReservationByCode(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	reservation, err := s.reservations.GetByCode(r.Context(), code)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reservation)
}

type modifyReservationRequest struct {
	Date           *string `json:"date"`
	Time           *string `json:"time"`
	PartySize      *int    `json:"party_size"`
	TableType      *string `json:"table_type"`
	SpecialRequest *string `json:"special_request"`
	ActorID        int64   `json:"actor_id"`
	Staff          bool    `json:"staff"`
}

func (s *Server) handleModifyReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req modifyReservationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	change := domain.ReservationChange{
		Date:           req.Date,
		Time:           req.Time,
		PartySize:      req.PartySize,
		TableType:      req.TableType,
		SpecialRequest: req.SpecialRequest,
	}
	reservation, err := s.reservations.Modify(r.Context(), id, change, req.ActorID, req.Staff)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reservation)
}

func (s *Server) handleConfirmReservation(w http.ResponseWriter, r *http.Request) {
	s.reservationTransition(w, r, func(id int64) (*models.Reservation, error) {
		return s.reservations.Confirm(r.Context(), id)
	})
}

func (s *Server) handleCheckInReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		TableNumber string `json:"table_number"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	reservation, err := s.reservations.CheckIn(r.Context(), id, req.TableNumber)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reservation)
}

func (s *Server) handleCompleteReservation(w http.ResponseWriter, r *http.Request) {
	s.reservationTransition(w, r, func(id int64) (*models.Reservation, error) {
		return s.reservations.Complete(r.Context(), id)
	})
}

func (s *Server) handleCancelReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Reason  string `json:"reason"`
		ActorID int64  `json:"actor_id"`
		Staff   bool   `json:"staff"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	reservation, err := s.reservations.Cancel(r.Context(), id, req.Reason, req.ActorID, req.Staff)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reservation)
}

func (s *Server) handleReservationNoShow(w http.ResponseWriter, r *http.Request) {
	s.reservationTransition(w, r, func(id int64) (*models.Reservation, error) {
		return s.reservations.MarkNoShow(r.Context(), id)
	})
}

func (s *Server) handleAddNote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		AuthorID int64  `json:"author_id"`
		Content  string `json:"content"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	reservation, err := s.reservations.AddNote(r.Context(), id, req.AuthorID, req.Content)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reservation)
}

func (s *Server) reservationTransition(w http.ResponseWriter, r *http.Request, op func(int64) (*models.Reservation, error)) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	reservation, err := op(id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reservation)
}

type shiftRequest struct {
	EmployeeID    int64  `json:"employee_id"`
	EmployeeName  string `json:"employee_name"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	ShiftType     string `json:"shift_type"`
	Position      string `json:"position"`
	BreakDuration int    `json:"break_duration"`
	Notes         string `json:"notes"`
}

func (r shiftRequest) toModel() *models.Shift {
	return &models.Shift{
		EmployeeID:    r.EmployeeID,
		EmployeeName:  r.EmployeeName,
		Date:          r.Date,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		ShiftType:     r.ShiftType,
		Position:      r.Position,
		BreakDuration: r.BreakDuration,
		Notes:         r.Notes,
	}
}

func (s *Server) handleCreateShift(w http.ResponseWriter, r *http.Request) {
	var req shiftRequest
	if !decodeBody(w, r, &req) {
		return
	}
	shift := req.toModel()
	if err := s.shifts.Create(r.Context(), shift); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, shift)
}

func (s *Server) handleListShifts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.ShiftFilter{
		Date:     q.Get("date"),
		FromDate: q.Get("from"),
		ToDate:   q.Get("to"),
		Status:   q.Get("status"),
		Position: q.Get("position"),
	}
	if raw := q.Get("employee_id"); raw != "" {
		employeeID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "employee_id must be an integer")
			return
		}
		filter.EmployeeID = employeeID
	}

	shifts, err := s.shifts.List(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"shifts": shifts})
}

func (s *Server) handleShiftConflicts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	employeeID, err := strconv.ParseInt(q.Get("employee_id"), 10, 64)
	if err != nil || employeeID <= 0 {
		writeError(w, http.StatusBadRequest, "employee_id must be a positive integer")
		return
	}
	date := q.Get("date")
	start := q.Get("start")
	end := q.Get("end")
	if date == "" || start == "" || end == "" {
		writeError(w, http.StatusBadRequest, "date, start and end are required")
		return
	}
	var excludeID int64
	if raw := q.Get("exclude_id"); raw != "" {
		excludeID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "exclude_id must be an integer")
			return
		}
	}

	conflicts, err := s.shifts.CheckConflicts(r.Context(), employeeID, date, start, end, excludeID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"has_conflicts": len(conflicts) > 0,
		"conflicts":     conflicts,
	})
}

func (s *Server) handleGetShift(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	shift, err := s.shifts.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shift)
}

func (s *Server) handleUpdateShift(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req shiftRequest
	if !decodeBody(w, r, &req) {
		return
	}
	shift := req.toModel()
	shift.ID = id
	if err := s.shifts.Update(r.Context(), shift); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shift)
}

func (s *Server) handleDeleteShift(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.shifts.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClockIn(w http.ResponseWriter, r *http.Request) {
	s.shiftTransition(w, r, func(id int64) (*models.Shift, error) {
		return s.shifts.ClockIn(r.Context(), id)
	})
}

func (s *Server) handleClockOut(w http.ResponseWriter, r *http.Request) {
	s.shiftTransition(w, r, func(id int64) (*models.Shift, error) {
		return s.shifts.ClockOut(r.Context(), id)
	})
}

func (s *Server) handleCancelShift(w http.ResponseWriter, r *http.Request) {
	s.shiftTransition(w, r, func(id int64) (*models.Shift, error) {
		return s.shifts.Cancel(r.Context(), id)
	})
}

func (s *Server) handleShiftNoShow(w http.ResponseWriter, r *http.Request) {
	s.shiftTransition(w, r, func(id int64) (*models.Shift, error) {
		return s.shifts.MarkNoShow(r.Context(), id)
	})
}

func (s *Server) shiftTransition(w http.ResponseWriter, r *http.Request, op func(int64) (*models.Shift, error)) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	shift, err := op(id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shift)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.settings.GetOrCreateDefaults(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var settings models.CapacitySettings
	if !decodeBody(w, r, &settings) {
		return
	}
	if err := s.settings.Update(r.Context(), &settings); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, &settings)
}

type slotRequest struct {
	Date     string `json:"date"`
	Time     string `json:"time"`
	Capacity int    `json:"capacity"`
}

func (s *Server) handleBlockDate(w http.ResponseWriter, r *http.Request) {
	s.settingsMutation(w, r, func(req slotRequest) (*models.CapacitySettings, error) {
		return s.settings.BlockDate(r.Context(), req.Date)
	})
}

func (s *Server) handleUnblockDate(w http.ResponseWriter, r *http.Request) {
	s.settingsMutation(w, r, func(req slotRequest) (*models.CapacitySettings, error) {
		return s.settings.UnblockDate(r.Context(), req.Date)
	})
}

func (s *Server) handleBlockSlot(w http.ResponseWriter, r *http.Request) {
	s.settingsMutation(w, r, func(req slotRequest) (*models.CapacitySettings, error) {
		return s.settings.BlockSlot(r.Context(), req.Date, req.Time)
	})
}

func (s *Server) handleUnblockSlot(w http.ResponseWriter, r *http.Request) {
	s.settingsMutation(w, r, func(req slotRequest) (*models.CapacitySettings, error) {
		return s.settings.UnblockSlot(r.Context(), req.Date, req.Time)
	})
}

func (s *Server) handleSlotOverride(w http.ResponseWriter, r *http.Request) {
	s.settingsMutation(w, r, func(req slotRequest) (*models.CapacitySettings, error) {
		return s.settings.SetSlotOverride(r.Context(), req.Date, req.Time, req.Capacity)
	})
}

func (s *Server) settingsMutation(w http.ResponseWriter, r *http.Request, op func(slotRequest) (*models.CapacitySettings, error)) {
	var req slotRequest
	if !decodeBody(w, r, &req) {
		return
	}
	settings, err := op(req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		writeError(w, http.StatusBadRequest, "from and to are required")
		return
	}
	stats, err := s.stats.Collect(r.Context(), from, to)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleExportSchedule(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		writeError(w, http.StatusNotImplemented, "export is not configured")
		return
	}
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		writeError(w, http.StatusBadRequest, "from and to are required")
		return
	}

	filePath, err := s.exporter.ExportSchedule(r.Context(), from, to)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(filePath)))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	http.ServeFile(w, r, filePath)
}

// writeServiceError maps domain failures to HTTP statuses. Unknown errors fall
// back to 400 because the services wrap storage failures with context and the
// remainder are rejected input.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	var (
		invalid  *service.InvalidTransitionError
		blocked  *service.SlotBlockedError
		capacity *service.CapacityError
		conflict *service.ConflictError
	)

	switch {
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrNotOwner):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrTooLateToCancel),
		errors.Is(err, service.ErrTooLateToModify),
		errors.Is(err, service.ErrTooSoon):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &invalid):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":     err.Error(),
			"conflicts": conflict.Conflicts,
		})
	case errors.As(err, &capacity):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":     err.Error(),
			"requested": capacity.Requested,
			"remaining": capacity.Remaining,
		})
	case errors.As(err, &blocked):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":  err.Error(),
			"reason": blocked.Reason,
		})
	case errors.Is(err, database.ErrConcurrentModification):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
