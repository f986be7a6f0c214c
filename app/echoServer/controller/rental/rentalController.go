package rental

import (
	"log/slog"
	"net/http"
	"strconv"

	"bookrental/app/echoServer/controller"
	"bookrental/app/echoServer/validation"
	"bookrental/model"
	rs "bookrental/service/rental"
	"bookrental/util/apperr"

	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc rs.Service
	Log *slog.Logger
}

// createStatus reports every rejected rental as a client error.
func createStatus(code apperr.ErrCode) int {
	if code == "" {
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

// Create rents the listed books.
// @Summary  Create rental
// @Tags     rentals
// @Accept   json
// @Produce  json
// @Param    payload  body      CreateRentalReq  true  "Rental"
// @Success  201      {object}  model.RentalDetail
// @Failure  400      {object}  controller.Message
// @Security BearerAuth
// @Router   /api/rentals [post]
func (h *Controller) Create(c echo.Context) error {
	var req CreateRentalReq
	if err := c.Bind(&req); err != nil {
		return controller.BadRequest(c, "invalid json")
	}
	if err := c.Validate(&req); err != nil {
		return controller.BadRequest(c, validation.Describe(err))
	}
	out, err := h.Svc.Create(c.Request().Context(), rs.CreateInput{
		UserDetails: req.UserDetails,
		RentalDate:  req.RentalDate,
		ReturnDate:  req.ReturnDate,
		BookIDs:     req.BookIDs,
	})
	if err != nil {
		return controller.FailWith(c, h.Log, "rental create", err, createStatus)
	}
	return c.JSON(http.StatusCreated, out)
}

// List returns rentals matching the optional filters.
// @Summary  List rentals
// @Tags     rentals
// @Produce  json
// @Param    user  query     string  false  "userDetails substring"
// @Param    from  query     string  false  "First rental date, 2006-01-02"
// @Param    to    query     string  false  "Last rental date, 2006-01-02"
// @Param    open  query     bool    false  "Only rentals not yet returned"
// @Success  200   {array}   model.RentalDetail
// @Failure  400   {object}  controller.Message
// @Router   /api/rentals [get]
func (h *Controller) List(c echo.Context) error {
	f := model.RentalFilter{User: c.QueryParam("user")}
	for _, q := range []struct {
		name string
		dst  **model.Date
	}{{"from", &f.From}, {"to", &f.To}} {
		v := c.QueryParam(q.name)
		if v == "" {
			continue
		}
		d, err := model.ParseDate(v)
		if err != nil {
			return controller.BadRequest(c, q.name+": "+err.Error())
		}
		*q.dst = &d
	}
	if v := c.QueryParam("open"); v != "" {
		open, err := strconv.ParseBool(v)
		if err != nil {
			return controller.BadRequest(c, "open must be true or false")
		}
		f.OpenOnly = open
	}
	return h.list(c, f)
}

// Active returns rentals that have not been returned.
// @Summary  List open rentals
// @Tags     rentals
// @Produce  json
// @Success  200  {array}   model.RentalDetail
// @Failure  500  {object}  controller.Message
// @Router   /api/rentals/active [get]
func (h *Controller) Active(c echo.Context) error {
	return h.list(c, model.RentalFilter{OpenOnly: true})
}

func (h *Controller) list(c echo.Context, f model.RentalFilter) error {
	rows, err := h.Svc.List(c.Request().Context(), f)
	if err != nil {
		return controller.Fail(c, h.Log, "rental list", err)
	}
	return c.JSON(http.StatusOK, rows)
}

// @Summary  Get rental
// @Tags     rentals
// @Produce  json
// @Param    id   path      int  true  "Rental id"
// @Success  200  {object}  model.RentalDetail
// @Failure  404  {object}  controller.Message
// @Router   /api/rentals/{id} [get]
func (h *Controller) Detail(c echo.Context) error {
	id, ok := controller.ParseID(c, "id")
	if !ok {
		return controller.BadRequest(c, "invalid id")
	}
	out, err := h.Svc.Detail(c.Request().Context(), id)
	if err != nil {
		return controller.Fail(c, h.Log, "rental detail", err)
	}
	return c.JSON(http.StatusOK, out)
}

// Update edits rental fields without touching book availability.
// @Summary  Update rental
// @Tags     rentals
// @Accept   json
// @Produce  json
// @Param    id       path      int              true  "Rental id"
// @Param    payload  body      UpdateRentalReq  true  "Fields to change"
// @Success  200      {object}  model.RentalDetail
// @Failure  400      {object}  controller.Message
// @Failure  404      {object}  controller.Message
// @Security BearerAuth
// @Router   /api/rentals/{id} [put]
func (h *Controller) Update(c echo.Context) error {
	id, ok := controller.ParseID(c, "id")
	if !ok {
		return controller.BadRequest(c, "invalid id")
	}
	var p model.RentalPatch
	if err := (&echo.DefaultBinder{}).BindBody(c, &p); err != nil {
		return controller.BadRequest(c, "invalid json")
	}
	out, err := h.Svc.Update(c.Request().Context(), id, p)
	if err != nil {
		return controller.Fail(c, h.Log, "rental update", err)
	}
	return c.JSON(http.StatusOK, out)
}

// Return closes the rental and frees its books.
// @Summary  Return rental
// @Tags     rentals
// @Produce  json
// @Param    id   path      int  true  "Rental id"
// @Success  200  {object}  model.RentalDetail
// @Failure  404  {object}  controller.Message
// @Security BearerAuth
// @Router   /api/rentals/{id}/return [put]
func (h *Controller) Return(c echo.Context) error {
	id, ok := controller.ParseID(c, "id")
	if !ok {
		return controller.BadRequest(c, "invalid id")
	}
	out, err := h.Svc.Return(c.Request().Context(), id)
	if err != nil {
		return controller.Fail(c, h.Log, "rental return", err)
	}
	return c.JSON(http.StatusOK, out)
}
