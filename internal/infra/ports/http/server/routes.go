package server

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/vgrebnev/duolink/internal/application/config"
	"github.com/vgrebnev/duolink/internal/infra/ports/http/handlers"
	"github.com/vgrebnev/duolink/internal/infra/ports/http/middleware"
)

func New(
	cfg *config.Config,
	roomHandler *handlers.RoomHandler,
	iceHandler *handlers.IceHandler,
	wsHandler *handlers.WebSocketHandler,
) *echo.Echo {
	e := echo.New()

	e.HideBanner = true

	e.Use(middleware.SlogLogger())
	e.Use(middleware.PrometheusMiddleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{cfg.Domain},
	}))

	api := e.Group("/api")
	{
		v1 := api.Group("/v1")
		{
			v1.GET("/ws", wsHandler.Handle)

			v1.GET("/ice", iceHandler.IceServers)

			v1.GET("/rooms/:id", roomHandler.GetRoom)
		}
	}

	e.Static("/", cfg.StaticDir)

	return e
}
