package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/yovohub/hub/internal/logging"
	"github.com/yovohub/hub/internal/models"
	"github.com/yovohub/hub/internal/services"
	"github.com/yovohub/hub/internal/storage"
)

const maxPasswordBytes = 72

var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

type AuthHandler struct {
	userService  services.UserServiceInterface
	authService  services.AuthServiceInterface
	emailService services.EmailServiceInterface
	store        storage.Store
	debug        bool // expose reset codes in responses
}

func NewAuthHandler(userService services.UserServiceInterface, authService services.AuthServiceInterface, emailService services.EmailServiceInterface, store storage.Store, debug bool) *AuthHandler {
	return &AuthHandler{
		userService:  userService,
		authService:  authService,
		emailService: emailService,
		store:        store,
		debug:        debug,
	}
}

type RegisterRequest struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

type LoginRequest struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

type AuthResponse struct {
	User    *models.User `json:"user,omitempty"`
	Token   string       `json:"token,omitempty"`
	Message string       `json:"message,omitempty"`
}

func writeFieldError(w http.ResponseWriter, field, message string) {
	writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: message, Field: field})
}

func validatePassword(password string) (string, bool) {
	if utf8.RuneCountInString(password) < services.MinPasswordLength {
		return "Password must be at least 6 characters", false
	}
	if len(password) > maxPasswordBytes {
		return "Password must be at most 72 bytes", false
	}
	return "", true
}

func normalizeEmail(email string) (string, bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	if len(email) > 255 {
		return email, false
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return email, false
	}
	return email, true
}

// withPhotoURL resolves the stored photo key into a URL the client can fetch.
func (h *AuthHandler) withPhotoURL(ctx context.Context, user *models.User) *models.User {
	if user == nil || user.Photo == nil || h.store == nil {
		return user
	}
	url, err := h.store.URL(ctx, *user.Photo)
	if err != nil {
		logging.FromContext(ctx).Warn("Failed to resolve profile photo URL", logging.Fields{
			"error":   err.Error(),
			"user_id": user.ID.String(),
		})
		return user
	}
	user.PhotoURL = url
	return user
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || utf8.RuneCountInString(req.Name) > 255 {
		writeFieldError(w, "name", "Name is required and must be at most 255 characters")
		return
	}
	email, ok := normalizeEmail(req.Email)
	if !ok {
		writeFieldError(w, "email", "Invalid email address")
		return
	}
	if msg, ok := validatePassword(req.Password); !ok {
		writeFieldError(w, "password", msg)
		return
	}
	if !req.Role.Valid() {
		writeFieldError(w, "role", "Role must be young or provider")
		return
	}

	passwordHash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		writeInternalError(w, r, "Error hashing password", err)
		return
	}

	user, err := h.userService.Create(r.Context(), models.CreateUserParams{
		Name:         req.Name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         req.Role,
	})
	if errors.Is(err, services.ErrEmailAlreadyExists) {
		writeError(w, http.StatusConflict, "Email already registered")
		return
	}
	if err != nil {
		writeInternalError(w, r, "Error creating user", err)
		return
	}

	token, err := h.authService.CreateSession(r.Context(), user.ID)
	if err != nil {
		writeInternalError(w, r, "Error creating session", err)
		return
	}

	logging.FromContext(r.Context()).Info("User registered", logging.Fields{
		"user_id": user.ID.String(),
		"role":    string(user.Role),
	})
	writeJSON(w, http.StatusCreated, AuthResponse{User: user, Token: token})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	email, ok := normalizeEmail(req.Email)
	if !ok {
		writeFieldError(w, "email", "Invalid email address")
		return
	}
	if req.Password == "" {
		writeFieldError(w, "password", "Password is required")
		return
	}
	if !req.Role.Valid() {
		writeFieldError(w, "role", "Role must be young or provider")
		return
	}

	user, err := h.authService.Authenticate(r.Context(), email, req.Password, req.Role)
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	case errors.Is(err, services.ErrRoleMismatch):
		writeFieldError(w, "role", "The selected role does not match this account")
		return
	case err != nil:
		writeInternalError(w, r, "Error authenticating user", err)
		return
	}

	token, err := h.authService.CreateSession(r.Context(), user.ID)
	if err != nil {
		writeInternalError(w, r, "Error creating session", err)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{User: h.withPhotoURL(r.Context(), user), Token: token})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := GetTokenFromContext(r.Context()); token != "" {
		if err := h.authService.DeleteSession(r.Context(), token); err != nil {
			logging.FromContext(r.Context()).Warn("Error deleting session", logging.Fields{"error": err.Error()})
		}
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Déconnexion réussie"})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, h.withPhotoURL(r.Context(), user))
}

type UpdateProfileRequest struct {
	Name     *string   `json:"name"`
	Bio      *string   `json:"bio"`
	Location *string   `json:"location"`
	Phone    *string   `json:"phone"`
	WhatsApp *string   `json:"whatsapp"`
	Skills   *[]string `json:"skills"`
}

// validate trims the request in place and returns the first offending field.
func (req *UpdateProfileRequest) validate() (field, message string) {
	trim := func(s *string) {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}
	trim(req.Name)
	trim(req.Bio)
	trim(req.Location)
	trim(req.Phone)
	trim(req.WhatsApp)

	if req.Name != nil && (*req.Name == "" || utf8.RuneCountInString(*req.Name) > 255) {
		return "name", "Name must be between 1 and 255 characters"
	}
	if req.Bio != nil && utf8.RuneCountInString(*req.Bio) > 1000 {
		return "bio", "Bio must be at most 1000 characters"
	}
	if req.Location != nil && utf8.RuneCountInString(*req.Location) > 255 {
		return "location", "Location must be at most 255 characters"
	}
	if req.Phone != nil && (len(*req.Phone) > 20 || !phonePattern.MatchString(*req.Phone)) {
		return "phone", "Invalid phone number"
	}
	if req.WhatsApp != nil && (len(*req.WhatsApp) > 20 || !phonePattern.MatchString(*req.WhatsApp)) {
		return "whatsapp", "Invalid WhatsApp number"
	}
	if req.Skills != nil {
		for _, s := range *req.Skills {
			if utf8.RuneCountInString(s) > 100 {
				return "skills", "Each skill must be at most 100 characters"
			}
		}
	}
	return "", ""
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if field, msg := req.validate(); field != "" {
		writeFieldError(w, field, msg)
		return
	}

	params := models.UpdateProfileParams{
		Name:     req.Name,
		Bio:      req.Bio,
		Location: req.Location,
		Phone:    req.Phone,
		WhatsApp: req.WhatsApp,
	}
	if req.Skills != nil {
		params.Skills = cleanSkills(*req.Skills)
	}

	updated, err := h.userService.UpdateProfile(r.Context(), user.ID, params)
	if err != nil {
		writeInternalError(w, r, "Error updating profile", err)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		User:    h.withPhotoURL(r.Context(), updated),
		Message: "Profil mis à jour avec succès",
	})
}

// cleanSkills trims skills and drops blanks, keeping a non-nil slice so an
// empty list clears the stored skills.
func cleanSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

type ForgotPasswordResponse struct {
	Message   string `json:"message"`
	ResetCode string `json:"reset_code,omitempty"`
}

// ForgotPassword emails a six digit reset code. The response is the same
// whether or not the account exists.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	email, ok := normalizeEmail(req.Email)
	if !ok {
		writeFieldError(w, "email", "Invalid email address")
		return
	}

	resp := ForgotPasswordResponse{Message: "Un code de réinitialisation a été envoyé à votre adresse email."}

	user, code, err := h.authService.CreatePasswordResetCode(r.Context(), email)
	if errors.Is(err, services.ErrUserNotFound) {
		writeJSON(w, http.StatusOK, resp)
		return
	}
	if err != nil {
		writeInternalError(w, r, "Error creating reset code", err)
		return
	}

	if err := h.emailService.SendPasswordResetCode(r.Context(), user.Email, user.Name, code); err != nil {
		logging.FromContext(r.Context()).Error("Error sending password reset code", logging.Fields{
			"error":   err.Error(),
			"user_id": user.ID.String(),
		})
	}

	if h.debug {
		resp.ResetCode = code
	}
	writeJSON(w, http.StatusOK, resp)
}

type ResetPasswordRequest struct {
	Email                string `json:"email"`
	Code                 string `json:"code"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	email, ok := normalizeEmail(req.Email)
	if !ok {
		writeFieldError(w, "email", "Invalid email address")
		return
	}
	req.Code = strings.TrimSpace(req.Code)
	if len(req.Code) != 6 {
		writeFieldError(w, "code", "Code must be 6 digits")
		return
	}
	if msg, ok := validatePassword(req.Password); !ok {
		writeFieldError(w, "password", msg)
		return
	}
	if req.Password != req.PasswordConfirmation {
		writeFieldError(w, "password", "Password confirmation does not match")
		return
	}

	err := h.authService.ResetPassword(r.Context(), email, req.Code, req.Password)
	switch {
	case errors.Is(err, services.ErrInvalidResetCode), errors.Is(err, services.ErrUserNotFound):
		writeError(w, http.StatusBadRequest, "Le code de réinitialisation est invalide.")
		return
	case errors.Is(err, services.ErrResetCodeExpired):
		writeError(w, http.StatusBadRequest, "Le code de réinitialisation a expiré.")
		return
	case err != nil:
		writeInternalError(w, r, "Error resetting password", err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Votre mot de passe a été réinitialisé avec succès."})
}
