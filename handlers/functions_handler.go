package handlers

import (
	"net/http"

	"github.com/clubvolley/club-system/middleware"
	"github.com/clubvolley/club-system/services"
)

// FunctionsHandler обслуживает endpoints рекордера статистики.
// Контракт отличается от остального API: ответ всегда несёт поле
// success, ошибки возвращаются как {"success": false, "error": ...}
// со статусом 400 — клиент рекордера по нему решает, чистить ли
// офлайн-очередь.
type FunctionsHandler struct {
	statsService services.StatsService
}

func NewFunctionsHandler(statsService services.StatsService) *FunctionsHandler {
	return &FunctionsHandler{statsService: statsService}
}

func (h *FunctionsHandler) writeSuccess(w http.ResponseWriter, r *http.Request, payload jsonResponse) {
	payload["success"] = true
	if err := writeJSON(w, http.StatusOK, payload, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *FunctionsHandler) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	response := jsonResponse{
		"success": false,
		"error":   err.Error(),
	}
	if wErr := writeJSON(w, http.StatusBadRequest, response, nil); wErr != nil {
		serverErrorResponse(w, r, wErr)
	}
}

func (h *FunctionsHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input services.StartSessionInput
	if err := readJSON(w, r, &input); err != nil {
		h.writeFailure(w, r, err)
		return
	}
	input.CreatorID = currentUserID

	session, firstSet, err := h.statsService.StartSession(r.Context(), input)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	h.writeSuccess(w, r, jsonResponse{
		"session": session,
		"set":     firstSet,
	})
}

func (h *FunctionsHandler) RecordAction(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input services.RecordActionInput
	if err := readJSON(w, r, &input); err != nil {
		h.writeFailure(w, r, err)
		return
	}
	input.CreatorID = currentUserID

	action, set, err := h.statsService.RecordAction(r.Context(), input)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	h.writeSuccess(w, r, jsonResponse{
		"action": action,
		"set":    set,
	})
}

func (h *FunctionsHandler) UndoLastAction(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input struct {
		SessionID int `json:"session_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		h.writeFailure(w, r, err)
		return
	}

	set, err := h.statsService.UndoLastAction(r.Context(), input.SessionID, currentUserID)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	h.writeSuccess(w, r, jsonResponse{"set": set})
}

func (h *FunctionsHandler) SaveActionsBatch(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input struct {
		SessionID int                     `json:"session_id"`
		Actions   []services.ActionIntent `json:"actions"`
	}
	if err := readJSON(w, r, &input); err != nil {
		h.writeFailure(w, r, err)
		return
	}

	saved, err := h.statsService.SaveActionsBatch(r.Context(), input.SessionID, currentUserID, input.Actions)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	h.writeSuccess(w, r, jsonResponse{"saved": saved})
}
