package handler

import (
	"encoding/json"
	"net/http"

	"notevault/internal/auth/model"
	"notevault/internal/auth/service"
	"notevault/pkg/logger"
	"notevault/pkg/response"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

type AuthHandler struct {
	Service  *service.AuthService
	validate *validator.Validate
}

func NewAuthHandler(service *service.AuthService) *AuthHandler {
	return &AuthHandler{Service: service, validate: validator.New()}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.Service.Register(r.Context(), &req)
	if err != nil {
		if errors.Is(err, model.ErrUserExists) {
			response.Error(w, http.StatusConflict, err.Error())
			return
		}
		logger.Sugar.Errorf("Registration failed for %s: %v", req.Email, err)
		response.Error(w, http.StatusInternalServerError, "Registration failed")
		return
	}
	response.JSON(w, http.StatusCreated, map[string]any{"success": true, "data": resp})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.Service.Login(r.Context(), &req)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) {
			response.Error(w, http.StatusUnauthorized, err.Error())
			return
		}
		logger.Sugar.Errorf("Login failed for %s: %v", req.Email, err)
		response.Error(w, http.StatusInternalServerError, "Login failed")
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"success": true, "data": resp})
}
