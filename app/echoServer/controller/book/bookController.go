package book

import (
	"log/slog"
	"net/http"

	"bookrental/app/echoServer/controller"
	"bookrental/app/echoServer/validation"
	"bookrental/model"
	booksvc "bookrental/service/book"
	rentalsvc "bookrental/service/rental"

	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc     booksvc.Service
	Rentals rentalsvc.Service
	Log     *slog.Logger
}

// Create adds a book to the catalog.
// @Summary  Create book
// @Tags     books
// @Accept   json
// @Produce  json
// @Param    payload  body      CreateBookReq  true  "Book"
// @Success  201      {object}  model.Book
// @Failure  400      {object}  controller.Message
// @Security BearerAuth
// @Router   /api/books [post]
func (h *Controller) Create(c echo.Context) error {
	var req CreateBookReq
	if err := c.Bind(&req); err != nil {
		return controller.BadRequest(c, "invalid json")
	}
	if err := c.Validate(&req); err != nil {
		return controller.BadRequest(c, validation.Describe(err))
	}
	b, err := h.Svc.Create(c.Request().Context(), booksvc.CreateInput{
		Title:     req.Title,
		Author:    req.Author,
		Genre:     req.Genre,
		Available: req.Available,
	})
	if err != nil {
		return controller.Fail(c, h.Log, "book create", err)
	}
	return c.JSON(http.StatusCreated, b)
}

// List returns the whole catalog.
// @Summary  List books
// @Tags     books
// @Produce  json
// @Success  200  {array}   model.Book
// @Failure  500  {object}  controller.Message
// @Router   /api/books [get]
func (h *Controller) List(c echo.Context) error {
	rows, err := h.Svc.List(c.Request().Context())
	if err != nil {
		return controller.Fail(c, h.Log, "book list", err)
	}
	return c.JSON(http.StatusOK, rows)
}

// Available returns books that can be rented now.
// @Summary  List available books
// @Tags     books
// @Produce  json
// @Success  200  {array}   model.Book
// @Failure  500  {object}  controller.Message
// @Router   /api/books/available [get]
func (h *Controller) Available(c echo.Context) error {
	rows, err := h.Svc.ListAvailable(c.Request().Context())
	if err != nil {
		return controller.Fail(c, h.Log, "book list available", err)
	}
	return c.JSON(http.StatusOK, rows)
}

// @Summary  Get book
// @Tags     books
// @Produce  json
// @Param    id   path      int  true  "Book id"
// @Success  200  {object}  model.Book
// @Failure  400  {object}  controller.Message
// @Failure  404  {object}  controller.Message
// @Router   /api/books/{id} [get]
func (h *Controller) Detail(c echo.Context) error {
	id, ok := controller.ParseID(c, "id")
	if !ok {
		return controller.BadRequest(c, "invalid id")
	}
	b, err := h.Svc.Detail(c.Request().Context(), id)
	if err != nil {
		return controller.Fail(c, h.Log, "book detail", err)
	}
	return c.JSON(http.StatusOK, b)
}

// Update applies the fields present in the body.
// @Summary  Update book
// @Tags     books
// @Accept   json
// @Produce  json
// @Param    id       path      int            true  "Book id"
// @Param    payload  body      UpdateBookReq  true  "Fields to change"
// @Success  200      {object}  model.Book
// @Failure  400      {object}  controller.Message
// @Failure  404      {object}  controller.Message
// @Security BearerAuth
// @Router   /api/books/{id} [put]
func (h *Controller) Update(c echo.Context) error {
	id, ok := controller.ParseID(c, "id")
	if !ok {
		return controller.BadRequest(c, "invalid id")
	}
	var p model.BookPatch
	if err := (&echo.DefaultBinder{}).BindBody(c, &p); err != nil {
		return controller.BadRequest(c, "invalid json")
	}
	b, err := h.Svc.Update(c.Request().Context(), id, p)
	if err != nil {
		return controller.Fail(c, h.Log, "book update", err)
	}
	return c.JSON(http.StatusOK, b)
}

// @Summary  Delete book
// @Tags     books
// @Produce  json
// @Param    id   path      int  true  "Book id"
// @Success  200  {object}  controller.Message
// @Failure  404  {object}  controller.Message
// @Security BearerAuth
// @Router   /api/books/{id} [delete]
func (h *Controller) Delete(c echo.Context) error {
	id, ok := controller.ParseID(c, "id")
	if !ok {
		return controller.BadRequest(c, "invalid id")
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		return controller.Fail(c, h.Log, "book delete", err)
	}
	return c.JSON(http.StatusOK, controller.Message{Message: "book deleted"})
}

// Search filters by title, else author, else genre.
// @Summary  Search books
// @Tags     books
// @Produce  json
// @Param    title   query     string  false  "Title substring"
// @Param    author  query     string  false  "Author substring"
// @Param    genre   query     string  false  "Genre substring"
// @Success  200     {array}   model.Book
// @Failure  500     {object}  controller.Message
// @Router   /api/books/search [get]
func (h *Controller) Search(c echo.Context) error {
	rows, err := h.Svc.Search(c.Request().Context(), c.QueryParam("title"), c.QueryParam("author"), c.QueryParam("genre"))
	if err != nil {
		return controller.Fail(c, h.Log, "book search", err)
	}
	return c.JSON(http.StatusOK, rows)
}

// History lists every rental the book has been part of.
// @Summary  Book rental history
// @Tags     books
// @Produce  json
// @Param    id   path      int  true  "Book id"
// @Success  200  {array}   model.RentalDetail
// @Failure  404  {object}  controller.Message
// @Router   /api/books/{id}/rentals [get]
func (h *Controller) History(c echo.Context) error {
	id, ok := controller.ParseID(c, "id")
	if !ok {
		return controller.BadRequest(c, "invalid id")
	}
	rows, err := h.Rentals.ForBook(c.Request().Context(), id)
	if err != nil {
		return controller.Fail(c, h.Log, "book history", err)
	}
	return c.JSON(http.StatusOK, rows)
}
