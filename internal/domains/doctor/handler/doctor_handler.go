package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/bcmedia-dr/doctor-management-system/internal/domains/doctor/model"
	"github.com/bcmedia-dr/doctor-management-system/internal/domains/doctor/service"
	"github.com/bcmedia-dr/doctor-management-system/internal/shared/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DoctorHandler serves the doctor CRUD, stats and export endpoints.
type DoctorHandler struct {
	service service.ServiceInterface
}

func NewDoctorHandler(svc service.ServiceInterface) *DoctorHandler {
	return &DoctorHandler{service: svc}
}

// ========================================
// QUERIES
// ========================================

// List handles GET /doctors?search=&specialty=&gender=&status=
func (h *DoctorHandler) List(c *gin.Context) {
	var req model.ListDoctorsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	doctors, err := h.service.ListDoctors(c.Request.Context(), req)
	if err != nil {
		model.HandleDoctorError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, doctors, &response.Meta{Total: len(doctors)})
}

// Get handles GET /doctors/:id
func (h *DoctorHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	d, err := h.service.GetDoctor(c.Request.Context(), id)
	if err != nil {
		model.HandleDoctorError(c, err)
		return
	}

	response.Success(c, http.StatusOK, d)
}

// Stats handles GET /doctors/stats
func (h *DoctorHandler) Stats(c *gin.Context) {
	stats, err := h.service.GetStats(c.Request.Context())
	if err != nil {
		model.HandleDoctorError(c, err)
		return
	}

	response.Success(c, http.StatusOK, stats)
}

// Export handles GET /doctors/export and streams the workbook as an attachment.
func (h *DoctorHandler) Export(c *gin.Context) {
	var req model.ListDoctorsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	data, n, err := h.service.ExportDoctors(c.Request.Context(), req)
	if err != nil {
		model.HandleDoctorError(c, err)
		return
	}

	filename := fmt.Sprintf("doctors_%s.xlsx", time.Now().Format("20060102_150405"))
	log.Info().Int("rows", n).Str("file", filename).Msg("doctor export served")

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// ========================================
// MUTATIONS
// ========================================

// Create handles POST /doctors
func (h *DoctorHandler) Create(c *gin.Context) {
	var req model.CreateDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	d, err := h.service.CreateDoctor(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Location", "/api/v1/doctors/"+d.ID.String())
	response.Success(c, http.StatusCreated, d)
}

// Update handles PUT /doctors/:id. Omitted fields keep their value.
func (h *DoctorHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req model.UpdateDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	d, err := h.service.UpdateDoctor(c.Request.Context(), id, req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, d)
}

// Delete handles DELETE /doctors/:id (admin only)
func (h *DoctorHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteDoctor(c.Request.Context(), id); err != nil {
		model.HandleDoctorError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"id": id})
}

// ========================================
// HELPERS
// ========================================

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		model.HandleDoctorError(c, model.ErrInvalidDoctorID)
		return uuid.Nil, false
	}
	return id, true
}

func (h *DoctorHandler) handleError(c *gin.Context, err error) {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		response.ValidationError(c, verrs)
		return
	}
	model.HandleDoctorError(c, err)
}
