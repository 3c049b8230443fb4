package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sanjuan-tahitic/api-go/services"
	"github.com/sanjuan-tahitic/api-go/utils"
	"github.com/sirupsen/logrus"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type RatingController struct {
	Ratings *services.RatingService
	Log     *logrus.Logger
}

type RatingRequest struct {
	LugarID      uint    `json:"lugarId" binding:"required"`
	Calificacion int     `json:"calificacion" binding:"required,min=1,max=5"`
	Comentario   *string `json:"comentario" binding:"omitempty,max=500"`
}

func NewRatingController(ratings *services.RatingService, log *logrus.Logger) *RatingController {
	return &RatingController{Ratings: ratings, Log: log}
}

// SubmitRating godoc
// @Summary Rate a place; a second rating from the same visitor replaces the first
// @Tags calificaciones
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /calificaciones [post]
func (rc *RatingController) SubmitRating(c *gin.Context) {
	var req RatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "lugarId y una calificación entera entre 1 y 5 son obligatorios; el comentario admite hasta 500 caracteres")
		return
	}

	var comentario *string
	if req.Comentario != nil {
		if trimmed := strings.TrimSpace(*req.Comentario); trimmed != "" {
			comentario = &trimmed
		}
	}

	fingerprint, ip := utils.RequestFingerprint(c)
	rating, err := rc.Ratings.Upsert(c.Request.Context(), services.RatingInput{
		LugarID:      req.LugarID,
		Calificacion: req.Calificacion,
		Comentario:   comentario,
		Fingerprint:  fingerprint,
		IP:           ip,
	})
	if err != nil {
		respondError(c, rc.Log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"mensaje":      "Calificación guardada",
		"calificacion": rating,
	})
}

// GetMyRating returns the caller's own rating, or null.
func (rc *RatingController) GetMyRating(c *gin.Context) {
	lugarID, ok := paramID(c, "lugarId")
	if !ok {
		return
	}
	fingerprint, _ := utils.RequestFingerprint(c)
	rating, err := rc.Ratings.FindByFingerprint(c.Request.Context(), lugarID, fingerprint)
	if err != nil {
		respondError(c, rc.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"calificacion": rating})
}

func (rc *RatingController) ListRatings(c *gin.Context) {
	lugarID, ok := paramID(c, "lugarId")
	if !ok {
		return
	}
	ratings, err := rc.Ratings.ListByPlace(c.Request.Context(), lugarID)
	if err != nil {
		respondError(c, rc.Log, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: ratings})
}

func (rc *RatingController) GetStats(c *gin.Context) {
	lugarID, ok := paramID(c, "lugarId")
	if !ok {
		return
	}
	stats, err := rc.Ratings.Stats(c.Request.Context(), lugarID)
	if err != nil {
		respondError(c, rc.Log, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: stats})
}

func (rc *RatingController) DeleteRating(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := rc.Ratings.Delete(c.Request.Context(), id); err != nil {
		respondError(c, rc.Log, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Message: "Calificación eliminada"})
}

// ExportRatings streams the place's ratings as an .xlsx download.
func (rc *RatingController) ExportRatings(c *gin.Context) {
	lugarID, ok := paramID(c, "lugarId")
	if !ok {
		return
	}
	data, filename, err := rc.Ratings.ExportXLSX(c.Request.Context(), lugarID)
	if err != nil {
		respondError(c, rc.Log, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}
