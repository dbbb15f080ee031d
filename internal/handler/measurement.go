package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/smartshelter/api/internal/model"
	"github.com/smartshelter/api/internal/queue"
	"github.com/smartshelter/api/internal/repository"
	"github.com/smartshelter/api/internal/service"
	"github.com/smartshelter/api/internal/utils"
)

// Device credentials arrive in headers, not the body, so a reading can be a
// plain JSON payload of sensor values.
const (
	headerDeviceMAC = "X-Device-Mac"
	headerAPIKey    = "X-Api-Key"
)

// MeasurementHandler ingests sensor readings from provisioned devices.
type MeasurementHandler struct {
	Devices      *service.DeviceService
	Measurements *repository.MeasurementRepo
}

func NewMeasurementHandler(devices *service.DeviceService, measurements *repository.MeasurementRepo) *MeasurementHandler {
	return &MeasurementHandler{Devices: devices, Measurements: measurements}
}

type measurementReq struct {
	Temperature float64  `json:"temperature"`
	CO2         float64  `json:"co2"`
	Humidity    float64  `json:"humidity"`
	Ammonia     *float64 `json:"ammonia"`
	VOC         *float64 `json:"voc"`
}

// Create handles POST /measurements. The (MAC, key) pair is verified against
// the stored hashes; any mismatch is a uniform 401.
func (h *MeasurementHandler) Create(c echo.Context) error {
	mac := c.Request().Header.Get(headerDeviceMAC)
	key := c.Request().Header.Get(headerAPIKey)
	if mac == "" || key == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing device credentials"})
	}

	var req measurementReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	link, device, err := h.Devices.Authenticate(ctx, mac, key)
	switch {
	case err == nil:
	case errors.Is(err, utils.ErrInvalidMAC), errors.Is(err, service.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid device credentials"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "device authentication failed"})
	}

	m := model.Measurement{
		ID:           uuid.NewString(),
		MAC:          link.MAC,
		Temperature:  req.Temperature,
		CO2:          req.CO2,
		Humidity:     req.Humidity,
		Ammonia:      req.Ammonia,
		VOC:          req.VOC,
		UserID:       link.UserID,
		DeviceUserID: link.ID,
	}
	if err := h.Measurements.Create(ctx, &m); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store measurement failed"})
	}

	if err := h.Devices.TouchLastSeen(ctx, link.MAC); err != nil {
		c.Logger().Warnf("measurements: touch last seen failed for %s: %v", link.MAC, err)
	}

	// Best-effort event; a broker outage never fails the ingest.
	_ = queue.PublishMeasurementRecorded(ctx, queue.MeasurementRecordedEvent{
		MeasurementID: m.ID,
		MAC:           m.MAC,
		DeviceID:      device.ID,
		UserID:        m.UserID,
		Temperature:   &m.Temperature,
		CO2:           &m.CO2,
		Humidity:      &m.Humidity,
		RecordedAt:    time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusCreated, echo.Map{"id": m.ID})
}
