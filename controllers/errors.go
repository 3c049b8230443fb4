package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sanjuan-tahitic/api-go/services"
	"github.com/sanjuan-tahitic/api-go/utils"
	"github.com/sirupsen/logrus"
)

const msgInternal = "Error interno del servidor"

// respondError maps service and upload errors to a status code and a
// {"error": msg} body. Anything unclassified is logged and hidden.
func respondError(c *gin.Context, log *logrus.Logger, err error) {
	var derr *services.DomainError
	if errors.As(err, &derr) {
		c.JSON(domainStatus(derr), gin.H{"error": derr.Msg})
		return
	}

	switch {
	case errors.Is(err, utils.ErrFileTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "El archivo supera el tamaño permitido"})
		return
	case errors.Is(err, utils.ErrInvalidFileType):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tipo de archivo no permitido"})
		return
	case errors.Is(err, utils.ErrEmptyFile):
		c.JSON(http.StatusBadRequest, gin.H{"error": "El archivo está vacío"})
		return
	case errors.Is(err, utils.ErrUnreadableImage):
		c.JSON(http.StatusBadRequest, gin.H{"error": "No se pudo leer la imagen"})
		return
	}

	log.WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.FullPath(),
		"params": c.Params,
	}).WithError(err).Error("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
}

func domainStatus(err *services.DomainError) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// paramID reads a positive numeric path parameter, answering 400 otherwise.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "ID inválido")
		return 0, false
	}
	return uint(id), true
}
