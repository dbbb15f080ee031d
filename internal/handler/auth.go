package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/smartshelter/api/internal/repository"
	"github.com/smartshelter/api/internal/service"
	"github.com/smartshelter/api/internal/validation"
)

// AuthHandler exposes account registration and login.
type AuthHandler struct {
	Accounts *service.AccountService
}

func NewAuthHandler(accounts *service.AccountService) *AuthHandler {
	return &AuthHandler{Accounts: accounts}
}

// ----- DTOs -----

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"` // admin | shelter_owner | user
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResp struct {
	Token string `json:"token"`
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
	Role  string `json:"role"`
}

// Register: validate, create the account, report conflicts per field.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if errs := validation.UserRegister(req.Username, req.Email, req.Password); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": errs})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Accounts.Register(ctx, req.Username, req.Email, req.Password, req.Role)
	switch {
	case err == nil:
		return c.JSON(http.StatusCreated, echo.Map{"message": "registration successful", "id": u.ID})
	case errors.Is(err, repository.ErrUsernameExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists"})
	case errors.Is(err, repository.ErrEmailExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
}

// Login: verify credentials and return a bearer token with the profile. The
// 401 message never reveals whether the email or the password was wrong.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if errs := validation.UserLogin(req.Email, req.Password); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": errs})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Accounts.Login(ctx, req.Email, req.Password)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, loginResp{
			Token: res.Token.Token,
			ID:    res.Profile.ID,
			Name:  res.Profile.Username,
			Email: res.Profile.Email,
			Phone: res.Profile.Phone,
			Role:  res.Profile.Role,
		})
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid email or password"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}
}
