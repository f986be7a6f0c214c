package echoServer

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"bookrental/app/echoServer/controller/book"
	"bookrental/app/echoServer/controller/rental"

	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type C struct {
	Book      *book.Controller
	Rental    *rental.Controller
	Health    Pinger
	JWTSecret string
}

func Register(e *echo.Echo, c C) {
	e.GET("/health", health(c.Health))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")
	// Reads are public; writes need a token once JWT_SECRET is set.
	auth := JWTAuth(c.JWTSecret)

	// Books. Static segments are registered before :id.
	api.GET("/books", c.Book.List)
	api.GET("/books/available", c.Book.Available)
	api.GET("/books/search", c.Book.Search)
	api.GET("/books/:id", c.Book.Detail)
	api.GET("/books/:id/rentals", c.Book.History)
	api.POST("/books", c.Book.Create, auth)
	api.PUT("/books/:id", c.Book.Update, auth)
	api.DELETE("/books/:id", c.Book.Delete, auth)

	// Rentals
	api.GET("/rentals", c.Rental.List)
	api.GET("/rentals/active", c.Rental.Active)
	api.GET("/rentals/:id", c.Rental.Detail)
	api.POST("/rentals", c.Rental.Create, auth)
	api.PUT("/rentals/:id", c.Rental.Update, auth)
	api.PUT("/rentals/:id/return", c.Rental.Return, auth)
}

func health(p Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			slog.Warn("health check failed", "err", err)
			return c.JSON(http.StatusServiceUnavailable, echo.Map{
				"status":  "unavailable",
				"message": "store unreachable",
			})
		}
		return c.JSON(http.StatusOK, echo.Map{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	}
}
