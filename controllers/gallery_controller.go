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

const maxPhotoDescription = 255

type GalleryController struct {
	Gallery *services.GalleryService
	Cfg     *config.Config
	Log     *logrus.Logger
}

type UpdatePhotoRequest struct {
	Descripcion string `json:"descripcion" binding:"max=255"`
}

func NewGalleryController(gallery *services.GalleryService, cfg *config.Config, log *logrus.Logger) *GalleryController {
	return &GalleryController{Gallery: gallery, Cfg: cfg, Log: log}
}

// GetGallery godoc
// @Summary Gallery of a place, principal photo first then by orden
// @Tags galeria
// @Produce json
// @Param id path integer true "Place ID"
// @Success 200 {object} StandardResponse
// @Router /lugares/{id}/galeria [get]
func (gc *GalleryController) GetGallery(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	photos, err := gc.Gallery.List(c.Request.Context(), id)
	if err != nil {
		respondError(c, gc.Log, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: photos})
}

// AddPhoto uploads one image. es_principal=true promotes it right away.
func (gc *GalleryController) AddPhoto(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	fh, err := c.FormFile("imagen")
	if err != nil {
		badRequest(c, "Se requiere una imagen")
		return
	}
	descripcion, ok := photoDescription(c)
	if !ok {
		return
	}
	upload, err := readImage(fh, gc.Cfg.MaxImageBytes, descripcion)
	if err != nil {
		respondError(c, gc.Log, err)
		return
	}
	makePrincipal, _ := strconv.ParseBool(c.PostForm("es_principal"))

	photos, err := gc.Gallery.AddPhotos(c.Request.Context(), id, []services.ImageUpload{upload}, makePrincipal)
	if err != nil {
		respondError(c, gc.Log, err)
		return
	}
	c.JSON(http.StatusCreated, StandardResponse{Success: true, Data: photos[0], Message: "Foto agregada"})
}

// AddPhotos uploads up to ten images in one request; all of them are kept
// or none is.
func (gc *GalleryController) AddPhotos(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		badRequest(c, "Se requiere al menos una imagen")
		return
	}
	files := form.File["imagenes"]
	if len(files) == 0 {
		respondError(c, gc.Log, services.ErrNoPhotos)
		return
	}
	if len(files) > services.MaxPhotosPerUpload {
		respondError(c, gc.Log, services.ErrTooManyPhotos)
		return
	}

	uploads := make([]services.ImageUpload, 0, len(files))
	for _, fh := range files {
		upload, err := readImage(fh, gc.Cfg.MaxImageBytes, "")
		if err != nil {
			respondError(c, gc.Log, err)
			return
		}
		uploads = append(uploads, upload)
	}

	photos, err := gc.Gallery.AddPhotos(c.Request.Context(), id, uploads, false)
	if err != nil {
		respondError(c, gc.Log, err)
		return
	}
	c.JSON(http.StatusCreated, StandardResponse{
		Success: true,
		Data:    photos,
		Message: strconv.Itoa(len(photos)) + " fotos agregadas",
	})
}

func (gc *GalleryController) SetPrincipal(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	fotoID, ok := paramID(c, "fotoId")
	if !ok {
		return
	}
	photo, err := gc.Gallery.Promote(c.Request.Context(), id, fotoID)
	if err != nil {
		respondError(c, gc.Log, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: photo, Message: "Foto principal actualizada"})
}

// ReplacePrincipal swaps the main image for a new upload and drops the old one.
func (gc *GalleryController) ReplacePrincipal(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	fh, err := c.FormFile("imagen")
	if err != nil {
		badRequest(c, "Se requiere una imagen")
		return
	}
	descripcion, ok := photoDescription(c)
	if !ok {
		return
	}
	upload, err := readImage(fh, gc.Cfg.MaxImageBytes, descripcion)
	if err != nil {
		respondError(c, gc.Log, err)
		return
	}

	photo, err := gc.Gallery.ReplacePrincipal(c.Request.Context(), id, upload)
	if err != nil {
		respondError(c, gc.Log, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: photo, Message: "Imagen principal reemplazada"})
}

func (gc *GalleryController) UpdatePhoto(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	fotoID, ok := paramID(c, "fotoId")
	if !ok {
		return
	}
	var req UpdatePhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "La descripción no puede superar 255 caracteres")
		return
	}

	photo, err := gc.Gallery.UpdateDescription(c.Request.Context(), id, fotoID, strings.TrimSpace(req.Descripcion))
	if err != nil {
		respondError(c, gc.Log, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: photo})
}

// DeletePhoto refuses to delete the principal photo with 409.
func (gc *GalleryController) DeletePhoto(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	fotoID, ok := paramID(c, "fotoId")
	if !ok {
		return
	}
	if err := gc.Gallery.Delete(c.Request.Context(), id, fotoID); err != nil {
		respondError(c, gc.Log, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Message: "Foto eliminada"})
}

func photoDescription(c *gin.Context) (string, bool) {
	d := strings.TrimSpace(c.PostForm("descripcion"))
	if len([]rune(d)) > maxPhotoDescription {
		badRequest(c, "La descripción no puede superar 255 caracteres")
		return "", false
	}
	return d, true
}
