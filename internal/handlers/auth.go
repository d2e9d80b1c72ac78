package handlers

import (
	"errors"
	"fmt"
	"html"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/knightquest/kq-api/internal/auth"
	"github.com/knightquest/kq-api/internal/config"
	"github.com/knightquest/kq-api/internal/models"
	"github.com/knightquest/kq-api/internal/services"
	"github.com/knightquest/kq-api/internal/utils"
	"github.com/rs/zerolog"
)

// AuthHandler handles every login and registration flow: password accounts,
// passwordless student IDs, one-time PINs and Google OAuth.
type AuthHandler struct {
	Users  *services.UserService
	Saves  *services.SaveService
	Pins   *services.PinService
	Google *auth.GoogleProvider
	Cfg    *config.Config
	Logger zerolog.Logger
}

// sessionResponse is the data payload returned by every successful login.
type sessionResponse struct {
	Token     string `json:"token"`
	ID        uint64 `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

func newSessionResponse(token string, user *models.User) sessionResponse {
	return sessionResponse{
		Token:     token,
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      string(user.Role),
	}
}

// setSessionCookie mirrors the token into the access_token cookie for the
// browser-based flows. The game client keeps using the bearer header.
func (h *AuthHandler) setSessionCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    token,
		HTTPOnly: true,
		SameSite: "Lax",
		Path:     "/",
		MaxAge:   int(auth.DefaultTokenTTL.Seconds()),
	})
}

// Register handles POST /auth/register
// @Summary Register a new account
// @Description Create a user with username/password credentials. Students get a default save in the same operation.
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body services.RegisterInput true "Registration payload"
// @Success 201 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var in services.RegisterInput
	if err := c.BodyParser(&in); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_INPUT")
	}
	if in.Username == "" || in.Password == "" || in.FirstName == "" || in.LastName == "" {
		return utils.Error(c, fiber.StatusBadRequest, "Missing required fields", "INVALID_INPUT")
	}
	switch in.Role {
	case models.RoleStudent, models.RoleTeacher, models.RoleParent:
	default:
		return utils.Error(c, fiber.StatusBadRequest, "Invalid role", "INVALID_ROLE")
	}

	user, err := h.Users.Register(in)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDuplicateUsername):
			return utils.Error(c, fiber.StatusConflict, "Username already exists", "DUPLICATE_USERNAME")
		case errors.Is(err, services.ErrNotFound):
			return utils.Error(c, fiber.StatusBadRequest, "Linked account not found", "LINK_NOT_FOUND")
		default:
			h.Logger.Error().Err(err).Msg("register failed")
			return utils.Internal(c, "REGISTER_FAILED")
		}
	}

	token, err := auth.Sign(h.Cfg.JWTSecret, user, auth.DefaultTokenTTL)
	if err != nil {
		h.Logger.Error().Err(err).Msg("token signing failed")
		return utils.Internal(c, "TOKEN_FAILED")
	}
	h.setSessionCookie(c, token)

	return utils.Success(c, fiber.StatusCreated, "Registration successful", newSessionResponse(token, user))
}

// Login handles POST /auth/login
// @Summary Login with username and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body object true "Credentials"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 401 {object} utils.ErrorResponseStruct
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil || body.Username == "" || body.Password == "" {
		return utils.Error(c, fiber.StatusBadRequest, "Username and password are required", "INVALID_INPUT")
	}

	user, err := h.Users.GetByUsername(body.Username, "")
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return utils.Unauthorized(c, "Invalid username or password")
		}
		h.Logger.Error().Err(err).Msg("login lookup failed")
		return utils.Internal(c, "LOGIN_FAILED")
	}
	if err := h.Users.VerifyPassword(user, body.Password); err != nil {
		return utils.Unauthorized(c, "Invalid username or password")
	}

	token, err := auth.Sign(h.Cfg.JWTSecret, user, auth.DefaultTokenTTL)
	if err != nil {
		h.Logger.Error().Err(err).Msg("token signing failed")
		return utils.Internal(c, "TOKEN_FAILED")
	}
	h.setSessionCookie(c, token)

	return utils.Success(c, fiber.StatusOK, "Login successful", newSessionResponse(token, user))
}

// StudentRegister handles POST /auth/student
// @Summary Register a student by student ID
// @Description Passwordless student account keyed by the nine-digit student ID. The save document is created lazily at first login, not here.
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body object true "Student details"
// @Success 201 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Router /auth/student [post]
func (h *AuthHandler) StudentRegister(c *fiber.Ctx) error {
	var body struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		StudentID string `json:"studentId"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_INPUT")
	}
	if body.FirstName == "" || body.LastName == "" || body.StudentID == "" {
		return utils.Error(c, fiber.StatusBadRequest, "firstName, lastName and studentId are required", "INVALID_INPUT")
	}

	studentID := services.NormalizeStudentID(body.StudentID)
	user, err := h.Users.RegisterStudentID(body.FirstName, body.LastName, studentID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrValidation):
			return utils.Error(c, fiber.StatusBadRequest, "Student ID must be 9 digits", "INVALID_STUDENT_ID")
		case errors.Is(err, services.ErrDuplicateUsername):
			return utils.Error(c, fiber.StatusConflict, "Student ID already registered", "DUPLICATE_USERNAME")
		default:
			h.Logger.Error().Err(err).Msg("student registration failed")
			return utils.Internal(c, "REGISTER_FAILED")
		}
	}

	return utils.Success(c, fiber.StatusCreated, "Student registered successfully", fiber.Map{
		"id":        user.ID,
		"studentId": user.Username,
		"firstName": user.FirstName,
		"lastName":  user.LastName,
	})
}

// StudentLogin handles POST /auth/student/login
// @Summary Login with a student ID
// @Description Passwordless login for the game client. Creates the save document on first login if none exists; an existing save is never touched.
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body object true "Student ID"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 401 {object} utils.ErrorResponseStruct
// @Router /auth/student/login [post]
func (h *AuthHandler) StudentLogin(c *fiber.Ctx) error {
	var body struct {
		StudentID string `json:"studentId"`
	}
	if err := c.BodyParser(&body); err != nil || body.StudentID == "" {
		return utils.Error(c, fiber.StatusBadRequest, "studentId is required", "INVALID_INPUT")
	}

	studentID := services.NormalizeStudentID(body.StudentID)
	user, err := h.Users.GetByUsername(studentID, models.RoleStudent)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return utils.Unauthorized(c, "Student ID not found")
		}
		h.Logger.Error().Err(err).Msg("student login lookup failed")
		return utils.Internal(c, "LOGIN_FAILED")
	}

	token, err := auth.Sign(h.Cfg.JWTSecret, user, auth.StudentTokenTTL)
	if err != nil {
		h.Logger.Error().Err(err).Msg("token signing failed")
		return utils.Internal(c, "TOKEN_FAILED")
	}

	account := models.SaveAccount{
		Token:     token,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      string(user.Role),
	}
	if _, err := h.Saves.Ensure(user.ID, models.StudentSaveData(account)); err != nil {
		h.Logger.Error().Err(err).Uint64("user_id", user.ID).Msg("save creation failed")
		return utils.Internal(c, "SAVE_FAILED")
	}

	return utils.Success(c, fiber.StatusOK, "Login successful", newSessionResponse(token, user))
}

// VerifyPin handles POST /auth/verify-pin
// @Summary Exchange a one-time PIN for session data
// @Description Consumes the PIN; a second attempt with the same PIN fails.
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body object true "PIN"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 401 {object} utils.ErrorResponseStruct
// @Router /auth/verify-pin [post]
func (h *AuthHandler) VerifyPin(c *fiber.Ctx) error {
	var body struct {
		Pin string `json:"pin"`
	}
	if err := c.BodyParser(&body); err != nil || body.Pin == "" {
		return utils.Error(c, fiber.StatusBadRequest, "pin is required", "INVALID_INPUT")
	}

	row, err := h.Pins.Verify(body.Pin)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrValidation):
			return utils.Error(c, fiber.StatusBadRequest, "PIN must be 6 digits", "INVALID_INPUT")
		case errors.Is(err, services.ErrInvalidPin):
			return utils.Unauthorized(c, "Invalid or expired PIN")
		default:
			h.Logger.Error().Err(err).Msg("pin verification failed")
			return utils.Internal(c, "PIN_FAILED")
		}
	}

	return utils.Success(c, fiber.StatusOK, "PIN verified", fiber.Map{
		"token":     row.Token,
		"username":  row.Username,
		"firstName": row.FirstName,
		"lastName":  row.LastName,
	})
}

// GoogleRedirect handles GET /auth/google
// @Summary Start the Google OAuth flow
// @Tags Auth
// @Success 302
// @Router /auth/google [get]
func (h *AuthHandler) GoogleRedirect(c *fiber.Ctx) error {
	state := uuid.NewString()
	c.Cookie(&fiber.Cookie{
		Name:     "oauth_state",
		Value:    state,
		HTTPOnly: true,
		SameSite: "Lax",
		Path:     "/",
		MaxAge:   300,
	})
	return c.Redirect(h.Google.AuthCodeURL(state), fiber.StatusFound)
}

// GoogleCallback handles GET /auth/google/callback
// @Summary Complete the Google OAuth flow
// @Description Exchanges the authorization code, upserts the account and hands the session to the game client through a deep link.
// @Tags Auth
// @Produce html
// @Param code query string true "Authorization code"
// @Param state query string true "CSRF state"
// @Success 200
// @Failure 401 {object} utils.ErrorResponseStruct
// @Router /auth/google/callback [get]
func (h *AuthHandler) GoogleCallback(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" {
		return utils.Error(c, fiber.StatusBadRequest, "Missing authorization code", "OAUTH_FAILED")
	}
	if state == "" || state != c.Cookies("oauth_state") {
		return utils.Unauthorized(c, "OAuth state mismatch")
	}
	c.ClearCookie("oauth_state")

	tok, err := h.Google.Exchange(c.Context(), code)
	if err != nil {
		h.Logger.Error().Err(err).Msg("oauth code exchange failed")
		return utils.Unauthorized(c, "Google authentication failed")
	}

	profile, err := h.Google.FetchProfile(c.Context(), tok.AccessToken)
	if err != nil || profile.Email == "" {
		h.Logger.Error().Err(err).Msg("oauth profile fetch failed")
		return utils.Unauthorized(c, "Google authentication failed")
	}

	first, last := auth.ProfileNames(profile)
	user, err := h.Users.UpsertOAuthUser(profile.Email, first, last)
	if err != nil {
		h.Logger.Error().Err(err).Msg("oauth user upsert failed")
		return utils.Internal(c, "OAUTH_FAILED")
	}

	token, err := auth.Sign(h.Cfg.JWTSecret, user, auth.DefaultTokenTTL)
	if err != nil {
		h.Logger.Error().Err(err).Msg("token signing failed")
		return utils.Internal(c, "TOKEN_FAILED")
	}
	h.setSessionCookie(c, token)

	deepLink := fmt.Sprintf("knightquest://login?token=%s&username=%s&firstName=%s&lastName=%s",
		url.QueryEscape(token),
		url.QueryEscape(user.Username),
		url.QueryEscape(user.FirstName),
		url.QueryEscape(user.LastName),
	)

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(loginHandoffPage(deepLink, user.FirstName))
}

// loginHandoffPage is the browser page shown after OAuth completes. It tries
// the custom-scheme deep link immediately and leaves a button for browsers
// that block automatic navigation.
func loginHandoffPage(deepLink, firstName string) string {
	safeLink := html.EscapeString(deepLink)
	safeName := html.EscapeString(firstName)
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
<title>Knight Quest - Login Complete</title>
<meta name="viewport" content="width=device-width, initial-scale=1">
<style>
body { font-family: sans-serif; text-align: center; padding-top: 4rem; background: #1a1a2e; color: #eee; }
a.button { display: inline-block; margin-top: 1.5rem; padding: 0.75rem 2rem; background: #e94560; color: #fff; border-radius: 8px; text-decoration: none; }
</style>
</head>
<body>
<h1>Welcome, %s!</h1>
<p>Returning you to Knight Quest...</p>
<a class="button" href="%s">Open Knight Quest</a>
<script>window.location.href = %q;</script>
</body>
</html>`, safeName, safeLink, deepLink)
}
