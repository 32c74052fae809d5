package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/commission-dashboard/sales-api/internal/api/metrics"
	"github.com/commission-dashboard/sales-api/internal/core/ports"
)

// SaleHandler handles HTTP requests for the caller's sales.
type SaleHandler struct {
	service ports.SaleService
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewSaleHandler(service ports.SaleService, m *metrics.Metrics) *SaleHandler {
	return &SaleHandler{service: service, metrics: m, now: time.Now}
}

// List handles GET /sales.
//
// @Summary      List the caller's sales
// @Tags         sales
// @Produce      json
// @Security     TokenAuth
// @Success      200  {array}   saleResponse
// @Failure      401  {object}  map[string]string
// @Router       /sales [get]
func (h *SaleHandler) List(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	sales, err := h.service.ListSales(c.Request().Context(), user.ID)
	h.metrics.Sale("list", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSaleResponses(sales))
}

// Get handles GET /sales/:id.
//
// @Summary      Get one of the caller's sales
// @Tags         sales
// @Produce      json
// @Security     TokenAuth
// @Param        id   path      string  true  "Sale id"
// @Success      200  {object}  saleResponse
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /sales/{id} [get]
func (h *SaleHandler) Get(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	sale, err := h.service.GetSale(c.Request().Context(), user.ID, c.Param("id"))
	h.metrics.Sale("get", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSaleResponse(sale))
}

// Create handles POST /sales. The owner is always the caller.
//
// @Summary      Record a sale
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     TokenAuth
// @Param        body  body      saleRequest  true  "Sale"
// @Success      201   {object}  saleResponse
// @Failure      400   {object}  map[string]any
// @Failure      401   {object}  map[string]string
// @Router       /sales [post]
func (h *SaleHandler) Create(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	payload, err := decodePayload(c)
	if err != nil {
		return err
	}

	sale, err := h.service.CreateSale(c.Request().Context(), user.ID, payload)
	h.metrics.Sale("create", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toSaleResponse(sale))
}

// Update handles PATCH /sales/:id. Only the fields present in the body change.
//
// @Summary      Partially update a sale
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     TokenAuth
// @Param        id    path      string       true  "Sale id"
// @Param        body  body      saleRequest  true  "Fields to change"
// @Success      200   {object}  saleResponse
// @Failure      400   {object}  map[string]any
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /sales/{id} [patch]
func (h *SaleHandler) Update(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	payload, err := decodePayload(c)
	if err != nil {
		return err
	}

	sale, err := h.service.UpdateSale(c.Request().Context(), user.ID, c.Param("id"), payload)
	h.metrics.Sale("update", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSaleResponse(sale))
}

// Delete handles DELETE /sales/:id.
//
// @Summary      Delete a sale
// @Tags         sales
// @Security     TokenAuth
// @Param        id   path  string  true  "Sale id"
// @Success      204
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /sales/{id} [delete]
func (h *SaleHandler) Delete(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	err = h.service.DeleteSale(c.Request().Context(), user.ID, c.Param("id"))
	h.metrics.Sale("delete", err)
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Schedule handles POST /sales/schedule. Nothing is stored.
//
// @Summary      Preview a payment schedule
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     TokenAuth
// @Param        body  body      scheduleRequest  true  "Sale terms"
// @Success      200   {object}  scheduleResponse
// @Failure      400   {object}  map[string]any
// @Failure      401   {object}  map[string]string
// @Router       /sales/schedule [post]
func (h *SaleHandler) Schedule(c echo.Context) error {
	if _, err := currentUser(c); err != nil {
		return err
	}

	var req scheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		h.metrics.Sale("schedule", err)
		return err
	}

	preview, err := h.service.PreviewSchedule(c.Request().Context(), toScheduleInput(req))
	h.metrics.Sale("schedule", err)
	if err != nil {
		return err
	}
	h.metrics.Installments(len(preview.Installments))
	return c.JSON(http.StatusOK, toScheduleResponse(preview))
}

// Commission handles GET /sales/commission?month=YYYY-MM. The month defaults
// to the current one.
//
// @Summary      Commission earned on billed installments in a month
// @Tags         sales
// @Produce      json
// @Security     TokenAuth
// @Param        month  query     string  false  "Month as YYYY-MM"
// @Success      200    {object}  commissionResponse
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Router       /sales/commission [get]
func (h *SaleHandler) Commission(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	month := h.now().UTC()
	if raw := strings.TrimSpace(c.QueryParam("month")); raw != "" {
		month, err = time.Parse(monthLayout, raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "month must be formatted as YYYY-MM")
		}
	}

	summary, err := h.service.MonthlyCommission(c.Request().Context(), user.ID, month)
	h.metrics.Sale("commission", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCommissionResponse(summary))
}

// decodePayload reads the body as a JSON object keyed by field name.
func decodePayload(c echo.Context) (ports.SalePayload, error) {
	var payload ports.SalePayload
	if err := json.NewDecoder(c.Request().Body).Decode(&payload); err != nil || payload == nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return payload, nil
}
