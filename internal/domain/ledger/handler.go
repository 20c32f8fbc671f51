package ledger

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/medneed/medneed/internal/platform/apperr"
	"github.com/medneed/medneed/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/prescriptions", h.ListPrescriptions)
	api.POST("/prescriptions", h.CreatePrescription)
	api.GET("/prescriptions/:id", h.GetPrescription)
	api.PUT("/prescriptions/:id", h.UpdatePrescription)
	api.DELETE("/prescriptions/:id", h.DeletePrescription)

	api.GET("/dispensings", h.ListDispensings)
	api.POST("/dispensings", h.RegisterDispensing)
	api.GET("/dispensings/:id", h.GetDispensing)
	api.PUT("/dispensings/:id", h.UpdateDispensing)
	api.DELETE("/dispensings/:id", h.DeleteDispensing)

	api.GET("/needs", h.RemainingNeed)
	api.GET("/patients/:id/summary", h.Summary)
	api.GET("/patients/:id/history", h.History)
}

func listOptions(c echo.Context) (ListOptions, error) {
	opts := ListOptions{
		DateFrom: c.QueryParam("date_from"),
		DateTo:   c.QueryParam("date_to"),
		Sort:     c.QueryParam("sort"),
		Page:     pagination.FromContext(c),
	}
	for name, v := range map[string]string{"date_from": opts.DateFrom, "date_to": opts.DateTo} {
		if v == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", v); err != nil {
			return opts, echo.NewHTTPError(http.StatusBadRequest,
				name+" must be a YYYY-MM-DD date")
		}
	}
	if v := c.QueryParam("patient_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return opts, echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		opts.PatientID = &id
	}
	if v := c.QueryParam("medicine_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return opts, echo.NewHTTPError(http.StatusBadRequest, "invalid medicine_id")
		}
		opts.MedicineID = &id
	}
	return opts, nil
}

func (h *Handler) CreatePrescription(c echo.Context) error {
	var p Prescription
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreatePrescription(c.Request().Context(), &p); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPrescription(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetPrescription(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdatePrescription(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var p Prescription
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p.ID = id
	if err := h.svc.UpdatePrescription(c.Request().Context(), &p); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeletePrescription(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeletePrescription(c.Request().Context(), id); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListPrescriptions(c echo.Context) error {
	opts, err := listOptions(c)
	if err != nil {
		return err
	}
	res, err := h.svc.ListPrescriptions(c.Request().Context(), opts)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) RegisterDispensing(c echo.Context) error {
	var d Dispensing
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.RegisterDispensing(c.Request().Context(), &d); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetDispensing(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, err := h.svc.GetDispensing(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) UpdateDispensing(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var d Dispensing
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d.ID = id
	if err := h.svc.UpdateDispensing(c.Request().Context(), &d); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) DeleteDispensing(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteDispensing(c.Request().Context(), id); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListDispensings(c echo.Context) error {
	opts, err := listOptions(c)
	if err != nil {
		return err
	}
	res, err := h.svc.ListDispensings(c.Request().Context(), opts)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) RemainingNeed(c echo.Context) error {
	patientID, err := strconv.ParseInt(c.QueryParam("patient_id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
	}
	medicineID, err := strconv.ParseInt(c.QueryParam("medicine_id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid medicine_id")
	}
	need, err := h.svc.RemainingNeed(c.Request().Context(), patientID, medicineID)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"patient_id":     patientID,
		"medicine_id":    medicineID,
		"remaining_need": need,
	})
}

func (h *Handler) Summary(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rows, err := h.svc.Summary(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	if rows == nil {
		rows = []SummaryRow{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"patient_id": id,
		"medicines":  rows,
	})
}

func (h *Handler) History(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	hist, err := h.svc.History(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, hist)
}
