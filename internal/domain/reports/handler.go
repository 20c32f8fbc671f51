package reports

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/medneed/medneed/internal/platform/apperr"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/reports")
	g.GET("/medicines", h.Medicines)
	g.GET("/patients", h.Patients)
	g.GET("/dispensings", h.Dispensings)
	g.GET("/financial", h.Financial)
	g.GET("/usage", h.Usage)

	g.GET("/export/medicines", h.ExportMedicines)
	g.GET("/export/patients", h.ExportPatients)
	g.GET("/export/dispensings", h.ExportDispensings)
	g.GET("/export/financial", h.ExportFinancial)
}

func dateRange(c echo.Context) DateRange {
	return DateRange{
		From: c.QueryParam("date_from"),
		To:   c.QueryParam("date_to"),
	}
}

func optionalID(c echo.Context, name string) (*int64, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return &id, nil
}

func (h *Handler) Medicines(c echo.Context) error {
	report, err := h.svc.MedicineReport(c.Request().Context())
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, report)
}

func (h *Handler) Patients(c echo.Context) error {
	patientID, err := optionalID(c, "patient_id")
	if err != nil {
		return err
	}
	report, err := h.svc.PatientReport(c.Request().Context(), dateRange(c), patientID)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, report)
}

func (h *Handler) Dispensings(c echo.Context) error {
	medicineID, err := optionalID(c, "medicine_id")
	if err != nil {
		return err
	}
	report, err := h.svc.DispensingReport(c.Request().Context(), dateRange(c), medicineID)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, report)
}

func (h *Handler) Financial(c echo.Context) error {
	report, err := h.svc.FinancialReport(c.Request().Context(), dateRange(c))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, report)
}

func (h *Handler) Usage(c echo.Context) error {
	stats, err := h.svc.UsageStatistics(c.Request().Context())
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, stats)
}

func sendCSV(c echo.Context, name string, payload []byte) error {
	filename := fmt.Sprintf("%s_%s.csv", name, time.Now().Format("20060102_150405"))
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%s", filename))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", payload)
}

func (h *Handler) ExportMedicines(c echo.Context) error {
	report, err := h.svc.MedicineReport(c.Request().Context())
	if err != nil {
		return apperr.ToHTTP(err)
	}
	payload, err := ExportMedicineCSV(report)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return sendCSV(c, "medicine_report", payload)
}

func (h *Handler) ExportPatients(c echo.Context) error {
	patientID, err := optionalID(c, "patient_id")
	if err != nil {
		return err
	}
	report, err := h.svc.PatientReport(c.Request().Context(), dateRange(c), patientID)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	payload, err := ExportPatientCSV(report)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return sendCSV(c, "patient_report", payload)
}

func (h *Handler) ExportDispensings(c echo.Context) error {
	medicineID, err := optionalID(c, "medicine_id")
	if err != nil {
		return err
	}
	report, err := h.svc.DispensingReport(c.Request().Context(), dateRange(c), medicineID)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	payload, err := ExportDispensingCSV(report)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return sendCSV(c, "dispensing_report", payload)
}

func (h *Handler) ExportFinancial(c echo.Context) error {
	report, err := h.svc.FinancialReport(c.Request().Context(), dateRange(c))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	payload, err := ExportFinancialCSV(report)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return sendCSV(c, "financial_report", payload)
}
