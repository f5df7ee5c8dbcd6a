package server

import (
	"gasapp/internal/config"
	"gasapp/internal/handler"
	"gasapp/internal/repository"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

type Handlers struct {
	Auth          *handler.AuthHandler
	Order         *handler.OrderHandler
	ProviderOrder *handler.ProviderOrderHandler
	Product       *handler.ProductHandler
}

func Start(addr string, cfg config.Config, userRepo repository.UserRepository, h Handlers) error {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	RegisterRoutes(e, cfg, userRepo, h)

	return e.Start(addr)
}
