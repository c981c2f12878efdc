package handler

import (
	"encoding/json"
	"errors"
	"go-blog-api/common"
	"go-blog-api/logger"
	"go-blog-api/model"
	"go-blog-api/service"
	"net/http"
	"strconv"
)

type AuthHandler struct {
	service *service.AuthService
}

func NewAuthHandler(service *service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

// Register godoc
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body model.RegisterRequest true "registration payload"
// @Success      200  {object}  model.AuthResponse
// @Failure      400  {object}  common.AppError
// @Failure      409  {object}  common.AppError
// @Router       /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.RegisterRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	logger.Log.WithField("email", req.Email).Info("Register request received")

	resp, err := h.service.Register(&req)
	if err != nil {
		if errors.Is(err, service.ErrUserExists) {
			return common.NewAppError(http.StatusConflict, "User already exists", nil)
		}
		return common.NewAppError(http.StatusInternalServerError, "Could not register user", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
	return nil
}

// Login godoc
// @Summary      Authenticate and open a session
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body model.LoginRequest true "credentials"
// @Success      200  {object}  model.AuthResponse
// @Failure      400  {object}  common.AppError
// @Failure      401  {object}  common.AppError
// @Router       /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.LoginRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	resp, err := h.service.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return common.NewAppError(http.StatusUnauthorized, "Invalid credentials", nil)
		}
		return common.NewAppError(http.StatusInternalServerError, "Could not log in", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
	return nil
}

// Me godoc
// @Summary      Current authenticated identity
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]model.PublicInfo
// @Failure      401  {object}  common.AppError
// @Router       /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Not authenticated", nil)
	}

	user, err := h.service.CurrentUser(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return common.NewAppError(http.StatusUnauthorized, "Not authenticated", nil)
		}
		return common.NewAppError(http.StatusInternalServerError, "Could not load user", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]model.PublicInfo{"user": user.PublicInfo()})
	return nil
}

// Refresh godoc
// @Summary      Rotate the refresh token
// @Description  Exchanges a valid refresh token for a new access/refresh pair. The presented token is invalidated.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body model.RefreshRequest true "refresh token"
// @Success      200  {object}  model.AuthResponse
// @Failure      401  {object}  common.AppError
// @Failure      403  {object}  common.AppError
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.RefreshRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	// 401 for a missing token, 403 for an invalid one: the client can tell
	// "send the token" apart from "prompt a fresh login".
	if req.RefreshToken == "" {
		return common.NewAppError(http.StatusUnauthorized, "No refresh token provided", nil)
	}

	resp, err := h.service.Refresh(req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRefreshTokenExpired):
			return common.NewAppError(http.StatusForbidden, "Refresh token expired. Please log in again.", nil)
		case errors.Is(err, service.ErrInvalidRefreshToken):
			return common.NewAppError(http.StatusForbidden, "Invalid refresh token", nil)
		case errors.Is(err, service.ErrUserNotFound):
			return common.NewAppError(http.StatusNotFound, "User not found", nil)
		default:
			return common.NewAppError(http.StatusInternalServerError, "Could not refresh token", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
	return nil
}

// Logout godoc
// @Summary      Revoke the refresh token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body model.LogoutRequest true "refresh token"
// @Success      200  {object}  model.MessageResponse
// @Failure      500  {object}  common.AppError
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.LogoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// Treat an empty or malformed body as a logout with no token.
		req.RefreshToken = ""
	}

	if err := h.service.Logout(req.RefreshToken); err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Logout failed", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(model.MessageResponse{Message: "Logged out successfully"})
	return nil
}

// Verify godoc
// @Summary      Verify an access token
// @Description  Validates the bearer token and returns the identity it names.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  model.PublicInfo
// @Failure      401  {object}  common.AppError
// @Failure      404  {object}  common.AppError
// @Router       /auth/verify [get]
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) *common.AppError {
	tokenString, present, appErr := bearerToken(r)
	if appErr != nil {
		return appErr
	}
	if !present {
		return common.NewAppError(http.StatusUnauthorized, "No token provided", nil)
	}

	claims, err := h.service.ParseAccessToken(tokenString)
	if err != nil {
		return common.NewAppError(http.StatusUnauthorized, "Invalid or expired token", err)
	}

	userID, err := strconv.Atoi(claims.Subject)
	if err != nil {
		return common.NewAppError(http.StatusUnauthorized, "Invalid or expired token", err)
	}

	user, err := h.service.CurrentUser(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return common.NewAppError(http.StatusNotFound, "User not found", nil)
		}
		return common.NewAppError(http.StatusInternalServerError, "Could not load user", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(user.PublicInfo())
	return nil
}

// ForgotPassword godoc
// @Summary      Request a password reset email
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body model.ForgotPasswordRequest true "account email"
// @Success      200  {object}  model.MessageResponse
// @Failure      404  {object}  common.AppError
// @Failure      500  {object}  common.AppError
// @Router       /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.ForgotPasswordRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	if err := h.service.ForgotPassword(req.Email); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return common.NewAppError(http.StatusNotFound, "User not found", nil)
		}
		return common.NewAppError(http.StatusInternalServerError, "Server error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(model.MessageResponse{Message: "Reset link sent to your email"})
	return nil
}

// ResetPassword godoc
// @Summary      Consume a password reset token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        token   path string true "reset token from the email link"
// @Param        request body model.ResetPasswordRequest true "new password"
// @Success      200  {object}  model.MessageResponse
// @Failure      400  {object}  common.AppError
// @Router       /auth/reset-password/{token} [post]
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) *common.AppError {
	resetToken := r.PathValue("token")

	var req model.ResetPasswordRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	if err := h.service.ResetPassword(resetToken, req.Password); err != nil {
		if errors.Is(err, service.ErrInvalidResetToken) {
			return common.NewAppError(http.StatusBadRequest, "Invalid or expired token", nil)
		}
		return common.NewAppError(http.StatusInternalServerError, "Server error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(model.MessageResponse{Message: "Password reset successful"})
	return nil
}
