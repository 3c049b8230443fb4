package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sanjuan-tahitic/api-go/config"
	"github.com/sanjuan-tahitic/api-go/services"
	"github.com/sirupsen/logrus"
)

type ExperienceController struct {
	Experiences *services.ExperienceService
	Cfg         *config.Config
	Log         *logrus.Logger
}

type ExperienceListQuery struct {
	PageQuery
	LugarID string `form:"lugarId"`
}

type ModerationQuery struct {
	PageQuery
	Estado string `form:"estado"`
}

type ModerateRequest struct {
	Estado string `json:"estado" binding:"required"`
}

func NewExperienceController(experiences *services.ExperienceService, cfg *config.Config, log *logrus.Logger) *ExperienceController {
	return &ExperienceController{Experiences: experiences, Cfg: cfg, Log: log}
}

// SubmitExperience godoc
// @Summary Submit a visitor photo with a caption; it stays pending until moderated
// @Tags experiencias
// @Accept multipart/form-data
// @Produce json
// @Success 201 {object} StandardResponse
// @Router /experiencias [post]
func (ec *ExperienceController) SubmitExperience(c *gin.Context) {
	fh, err := c.FormFile("imagen")
	if err != nil {
		badRequest(c, "Se requiere una imagen")
		return
	}
	lugarID, ok := optionalID(c, c.PostForm("lugarId"))
	if !ok {
		return
	}
	descripcion := strings.TrimSpace(c.PostForm("descripcion"))
	if len([]rune(descripcion)) > services.MaxExperienceDescription {
		respondError(c, ec.Log, services.ErrDescriptionTooLong)
		return
	}

	upload, err := readImage(fh, ec.Cfg.MaxImageBytes, "")
	if err != nil {
		respondError(c, ec.Log, err)
		return
	}

	exp, err := ec.Experiences.Submit(c.Request.Context(), services.ExperienceInput{
		Descripcion: descripcion,
		LugarID:     lugarID,
		Image:       upload,
	})
	if err != nil {
		respondError(c, ec.Log, err)
		return
	}
	c.JSON(http.StatusCreated, StandardResponse{
		Success: true,
		Data:    exp,
		Message: "Experiencia enviada; será visible cuando sea aprobada",
	})
}

func (ec *ExperienceController) ListApproved(c *gin.Context) {
	var query ExperienceListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, "Parámetros de consulta inválidos")
		return
	}
	lugarID, ok := optionalID(c, query.LugarID)
	if !ok {
		return
	}
	page := query.normalize()

	items, total, err := ec.Experiences.ListApproved(c.Request.Context(), lugarID, page)
	if err != nil {
		respondError(c, ec.Log, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: items, Pagination: newPaginationMeta(page, total)})
}

// GetExperience counts a view on every fetch.
func (ec *ExperienceController) GetExperience(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	exp, err := ec.Experiences.ViewApproved(c.Request.Context(), id, services.ViewerInfo{
		IP:        c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	})
	if err != nil {
		respondError(c, ec.Log, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: exp})
}

func (ec *ExperienceController) ListAll(c *gin.Context) {
	var query ModerationQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, "Parámetros de consulta inválidos")
		return
	}
	page := query.normalize()

	items, total, err := ec.Experiences.ListAll(c.Request.Context(), strings.TrimSpace(query.Estado), page)
	if err != nil {
		respondError(c, ec.Log, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: items, Pagination: newPaginationMeta(page, total)})
}

func (ec *ExperienceController) Moderate(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req ModerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, ec.Log, services.ErrInvalidEstado)
		return
	}

	exp, err := ec.Experiences.Moderate(c.Request.Context(), id, strings.TrimSpace(req.Estado))
	if err != nil {
		respondError(c, ec.Log, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: exp, Message: "Experiencia " + exp.Estado})
}

func (ec *ExperienceController) DeleteExperience(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := ec.Experiences.Delete(c.Request.Context(), id); err != nil {
		respondError(c, ec.Log, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Message: "Experiencia eliminada"})
}

func (ec *ExperienceController) GetStats(c *gin.Context) {
	stats, err := ec.Experiences.Stats(c.Request.Context())
	if err != nil {
		respondError(c, ec.Log, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: stats})
}

// optionalID parses an optional positive id. Empty means absent.
func optionalID(c *gin.Context, raw string) (*uint, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		badRequest(c, "lugarId inválido")
		return nil, false
	}
	id := uint(n)
	return &id, true
}
