package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/smartshelter/api/internal/service"
	"github.com/smartshelter/api/internal/utils"
)

// DeviceUserHandler exposes the two provisioning paths: device login
// (credential bootstrap) and administrative enrollment.
type DeviceUserHandler struct {
	Devices *service.DeviceService
}

func NewDeviceUserHandler(devices *service.DeviceService) *DeviceUserHandler {
	return &DeviceUserHandler{Devices: devices}
}

type deviceLoginReq struct {
	MAC      string `json:"mac"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// deviceLoginResp carries the raw key only on the issuing call; on every
// later login DeviceKey is absent and KeyIssued is false.
type deviceLoginResp struct {
	DeviceUsersID string `json:"device_users_id"`
	DeviceID      string `json:"device_id"`
	MAC           string `json:"mac"`
	DeviceKey     string `json:"device_key,omitempty"`
	KeyIssued     bool   `json:"key_issued"`
}

type enrollReq struct {
	UserID string `json:"user_id"`
	MAC    string `json:"mac"`
}

// Login handles POST /device-users/login.
func (h *DeviceUserHandler) Login(c echo.Context) error {
	var req deviceLoginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.MAC == "" || req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "mac, username and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	res, err := h.Devices.Login(ctx, req.MAC, req.Username, req.Password)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, deviceLoginResp{
			DeviceUsersID: res.LinkID,
			DeviceID:      res.DeviceID,
			MAC:           res.MAC,
			DeviceKey:     res.Key,
			KeyIssued:     res.KeyIssued,
		})
	case errors.Is(err, utils.ErrInvalidMAC):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid mac address"})
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid username or password"})
	case errors.Is(err, service.ErrDeviceOwned):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "device is registered to another account"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "device login failed"})
	}
}

// Enroll handles POST /device-users/enroll (admin only, enforced by the
// route's middleware). It binds a MAC to a target account and returns the
// freshly issued key.
func (h *DeviceUserHandler) Enroll(c echo.Context) error {
	var req enrollReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.UserID == "" || req.MAC == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id and mac are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	res, err := h.Devices.Enroll(ctx, req.UserID, req.MAC)
	switch {
	case err == nil:
		return c.JSON(http.StatusCreated, echo.Map{
			"device_users_id": res.LinkID,
			"device_key":      res.Key,
		})
	case errors.Is(err, utils.ErrInvalidMAC):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid mac address"})
	case errors.Is(err, service.ErrUnknownAccount):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	case errors.Is(err, service.ErrAlreadyEnrolled):
		return c.JSON(http.StatusConflict, echo.Map{"error": "device already enrolled for this user"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "enroll failed"})
	}
}
