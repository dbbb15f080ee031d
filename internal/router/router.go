package router

import (
	"github.com/labstack/echo/v4"

	"github.com/smartshelter/api/internal/handler"
	"github.com/smartshelter/api/internal/middleware"
	"github.com/smartshelter/api/internal/model"
)

// Register wires every route on the Echo instance. Credential endpoints get
// the rate limiter; enroll sits behind JWT + admin; shelter creation behind
// JWT + shelter_owner; measurement ingest authenticates with device headers
// inside the handler.
func Register(
	e *echo.Echo,
	auth *handler.AuthHandler,
	deviceUsers *handler.DeviceUserHandler,
	measurements *handler.MeasurementHandler,
	shelters *handler.ShelterHandler,
	limiter echo.MiddlewareFunc,
	jwtSecret, jwtIssuer, jwtAudience string,
) {
	e.GET("/healthz", handler.Health)

	e.POST("/register", auth.Register, limiter)
	e.POST("/login", auth.Login, limiter)

	e.POST("/device-users/login", deviceUsers.Login, limiter)
	e.POST("/device-users/enroll", deviceUsers.Enroll,
		middleware.JWTAuth(jwtSecret, jwtIssuer, jwtAudience),
		middleware.RequireRole(model.RoleAdmin))

	e.POST("/measurements", measurements.Create)

	shelterGroup := e.Group("/v1/shelters")
	shelterGroup.Use(middleware.JWTAuth(jwtSecret, jwtIssuer, jwtAudience))
	shelterGroup.Use(middleware.RequireRole(model.RoleShelterOwner, model.RoleAdmin))
	shelterGroup.POST("", shelters.Create)
}
