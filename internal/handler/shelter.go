package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/smartshelter/api/internal/model"
	"github.com/smartshelter/api/internal/repository"
	"github.com/smartshelter/api/internal/utils"
)

// ShelterHandler lets shelter owners create their shelter profile. The
// contact email is stored as deterministic ciphertext like user emails, so
// the same uniqueness and lookup discipline applies.
type ShelterHandler struct {
	Shelters *repository.ShelterRepo
	Cipher   utils.Cipher
}

func NewShelterHandler(shelters *repository.ShelterRepo, cipher utils.Cipher) *ShelterHandler {
	return &ShelterHandler{Shelters: shelters, Cipher: cipher}
}

type shelterReq struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Description string `json:"description"`
}

// Create handles POST /v1/shelters (JWT + shelter_owner).
func (h *ShelterHandler) Create(c echo.Context) error {
	ownerID, ok := c.Get("user_id").(string)
	if !ok || ownerID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req shelterReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Address = strings.TrimSpace(req.Address)
	if req.Name == "" || req.Address == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and address are required"})
	}

	sh := model.Shelter{
		ID:      uuid.NewString(),
		Name:    req.Name,
		Address: req.Address,
		OwnerID: ownerID,
	}
	if req.Phone != "" {
		sh.Phone = &req.Phone
	}
	if req.Description != "" {
		sh.Description = &req.Description
	}
	if email := strings.ToLower(strings.TrimSpace(req.Email)); email != "" {
		cipherText, err := h.Cipher.Encrypt(email)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create shelter failed"})
		}
		sh.Email = &cipherText
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	switch err := h.Shelters.Create(ctx, &sh); {
	case err == nil:
		return c.JSON(http.StatusCreated, echo.Map{"id": sh.ID, "name": sh.Name})
	case errors.Is(err, repository.ErrShelterEmailExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "shelter email already exists"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create shelter failed"})
	}
}
