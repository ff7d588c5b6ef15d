package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/passport/internal/api/metrics"
	"github.com/99minutos/passport/internal/core/domain"
	"github.com/99minutos/passport/internal/core/ports"
)

type UserHandler struct {
	users ports.UserService
}

func NewUserHandler(users ports.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type registerRequest struct {
	UserName  string `json:"user_name"  validate:"required,min=3,max=32"`
	UserEmail string `json:"user_email" validate:"required,email"`
	// Characters only; the 72-byte bcrypt limit is checked when hashing.
	Password string `json:"password" validate:"required,max=72"`
	Nickname string `json:"nickname"   validate:"max=64"`
	Phone    string `json:"phone"      validate:"max=32"`
}

type loginRequest struct {
	UserEmail string `json:"user_email" validate:"required,email"`
	Password  string `json:"password"   validate:"required"`
}

type verificationRequest struct {
	UserEmail string `json:"user_email" validate:"required,email"`
	UserName  string `json:"user_name"  validate:"max=32"`
}

type confirmRequest struct {
	UserEmail string `json:"user_email" validate:"required,email"`
	Code      string `json:"code"       validate:"required,len=6,numeric"`
}

type updateProfileRequest struct {
	UserName  *string `json:"user_name"  validate:"omitempty,min=3,max=32"`
	UserEmail *string `json:"user_email" validate:"omitempty,email"`
	Password  *string `json:"password"   validate:"omitempty,max=72"`
	Nickname  *string `json:"nickname"   validate:"omitempty,max=64"`
	Phone     *string `json:"phone"      validate:"omitempty,max=32"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url"`
	Bio       *string `json:"bio"        validate:"omitempty,max=280"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// bindAndValidate decodes the body into req and runs the registered validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// outcome classifies err for the result label of the passport counters.
func outcome(err error, rejected ...error) string {
	if err == nil {
		return metrics.ResultSuccess
	}
	if errors.Is(err, domain.ErrRateLimitExceeded) {
		return metrics.ResultLimited
	}
	for _, r := range rejected {
		if errors.Is(err, r) {
			return metrics.ResultRejected
		}
	}
	return metrics.ResultError
}

// Register creates a new user account.
//
// @Summary      Register a new user
// @Tags         passport
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  domain.User
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /api/v1/passport/register [post]
func (h *UserHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		metrics.RegistrationsTotal.WithLabelValues(metrics.ResultRejected).Inc()
		return err
	}

	user, err := h.users.Register(c.Request().Context(), ports.RegisterInput{
		UserName:  req.UserName,
		UserEmail: req.UserEmail,
		Password:  req.Password,
		Nickname:  req.Nickname,
		Phone:     req.Phone,
	})
	metrics.RegistrationsTotal.WithLabelValues(outcome(err, domain.ErrDuplicateUser, domain.ErrInvalidInput)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, user)
}

// Login authenticates a user and opens a session.
//
// @Summary      Login
// @Tags         passport
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/passport/login [post]
func (h *UserHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		metrics.LoginsTotal.WithLabelValues(metrics.ResultRejected).Inc()
		return err
	}

	res, err := h.users.Login(c.Request().Context(), req.UserEmail, req.Password)
	metrics.LoginsTotal.WithLabelValues(outcome(err, domain.ErrInvalidCredentials, domain.ErrUserNotFound)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, loginResponse{Token: res.Token, ExpiresAt: res.ExpiresAt, User: res.User})
}

// Logout revokes the session behind the bearer token.
//
// @Summary      Logout
// @Tags         passport
// @Security     BearerAuth
// @Success      204
// @Failure      401   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /api/v1/passport/logout [post]
func (h *UserHandler) Logout(c echo.Context) error {
	token, err := ctxToken(c)
	if err != nil {
		return err
	}

	err = h.users.Logout(c.Request().Context(), token)
	metrics.SessionsRevokedTotal.WithLabelValues(outcome(err, domain.ErrUnauthorized)).Inc()
	if err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// SendVerification mails a fresh verification code to the given address.
//
// @Summary      Send a verification code
// @Tags         passport
// @Accept       json
// @Produce      json
// @Param        body  body      verificationRequest  true  "Recipient"
// @Success      202   {object}  statusResponse
// @Failure      400   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/v1/passport/verification [post]
func (h *UserHandler) SendVerification(c echo.Context) error {
	var req verificationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	err := h.users.SendVerification(c.Request().Context(), ports.VerificationInput{
		UserEmail: req.UserEmail,
		UserName:  req.UserName,
	})
	metrics.VerificationCodesTotal.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusAccepted, statusResponse{Status: "sent"})
}

// ConfirmVerification checks a code previously sent to the address.
//
// @Summary      Confirm a verification code
// @Tags         passport
// @Accept       json
// @Produce      json
// @Param        body  body      confirmRequest  true  "Address and code"
// @Success      200   {object}  statusResponse
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/passport/verification/confirm [post]
func (h *UserHandler) ConfirmVerification(c echo.Context) error {
	var req confirmRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.users.ConfirmVerification(c.Request().Context(), req.UserEmail, req.Code); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, statusResponse{Status: "verified"})
}

// Me returns the authenticated user's profile.
//
// @Summary      Current user
// @Tags         passport
// @Produce      json
// @Security     BearerAuth
// @Success      200   {object}  domain.User
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/passport/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	user, err := h.users.Me(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, user)
}

// UpdateProfile applies a partial update to the authenticated user.
//
// @Summary      Update current user
// @Tags         passport
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateProfileRequest  true  "Fields to change"
// @Success      200   {object}  domain.User
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/v1/passport/me [patch]
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.users.UpdateProfile(c.Request().Context(), userID, domain.ProfileUpdate{
		UserName:  req.UserName,
		UserEmail: req.UserEmail,
		Password:  req.Password,
		Nickname:  req.Nickname,
		Phone:     req.Phone,
		AvatarURL: req.AvatarURL,
		Bio:       req.Bio,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, user)
}
