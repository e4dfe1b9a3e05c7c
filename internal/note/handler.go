package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"notevault/internal/note/model"
	"notevault/internal/note/service"
	"notevault/middleware"
	"notevault/pkg/logger"
	"notevault/pkg/response"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

type NoteHandler struct {
	Service  *service.NoteService
	validate *validator.Validate
}

func NewNoteHandler(service *service.NoteService) *NoteHandler {
	return &NoteHandler{Service: service, validate: validator.New()}
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	ownerID := middleware.GetUserID(r)
	note, err := h.Service.Create(r.Context(), ownerID, &req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, map[string]any{"success": true, "data": map[string]any{"note": note}})
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r)
	notes, err := h.Service.List(r.Context(), ownerID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if notes == nil {
		notes = []model.Note{}
	}
	response.JSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"notes": notes}})
}

func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r)
	note, err := h.Service.Get(r.Context(), ownerID, mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"note": note}})
}

func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Title == nil && req.Content == nil {
		response.Error(w, http.StatusBadRequest, "At least one of title or content is required")
		return
	}

	ownerID := middleware.GetUserID(r)
	note, err := h.Service.Update(r.Context(), ownerID, mux.Vars(r)["id"], &req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"note": note}})
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r)
	if err := h.Service.Delete(r.Context(), ownerID, mux.Vars(r)["id"]); err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"success": true, "message": "Note deleted successfully"})
}

func (h *NoteHandler) Search(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r)
	results, err := h.Service.Search(r.Context(), ownerID, r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if results == nil {
		results = []model.SearchResult{}
	}
	response.JSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"notes": results}})
}

func (h *NoteHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r)
	versions, err := h.Service.ListVersions(r.Context(), ownerID, mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	if versions == nil {
		versions = []model.NoteVersion{}
	}
	response.JSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"versions": versions}})
}

func (h *NoteHandler) Revert(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	versionNumber, err := strconv.Atoi(vars["versionNumber"])
	if err != nil || versionNumber < 1 {
		response.Error(w, http.StatusBadRequest, "Invalid version number")
		return
	}

	// The expected-version body is optional; an empty body means no
	// optimistic check beyond the row lock.
	var req model.RevertNoteRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	ownerID := middleware.GetUserID(r)
	note, err := h.Service.Revert(r.Context(), ownerID, vars["id"], versionNumber, &req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"note": note}})
}

// writeError maps the error taxonomy onto status codes. A conflict carries
// the authoritative current version so the client can retry without another
// read.
func (h *NoteHandler) writeError(w http.ResponseWriter, err error) {
	var vErr *model.ValidationError
	var cErr *model.ConflictError
	switch {
	case errors.As(err, &vErr):
		response.Error(w, http.StatusBadRequest, vErr.Error())
	case errors.As(err, &cErr):
		response.JSON(w, http.StatusConflict, map[string]any{
			"success":         false,
			"error":           "Concurrency conflict: Note has been modified by another user. Please refresh and try again.",
			"currentVersion":  cErr.CurrentVersion,
			"providedVersion": cErr.ProvidedVersion,
		})
	case errors.Is(err, model.ErrNoteNotFound):
		response.Error(w, http.StatusNotFound, "Note not found")
	case errors.Is(err, model.ErrVersionNotFound):
		response.Error(w, http.StatusNotFound, "Version not found")
	case errors.Is(err, model.ErrStoreUnavailable):
		response.Error(w, http.StatusServiceUnavailable, "Storage temporarily unavailable, please retry")
	default:
		logger.Sugar.Errorf("Unhandled note error: %v", err)
		response.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
