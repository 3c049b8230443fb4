package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sanjuan-tahitic/api-go/config"
	"github.com/sanjuan-tahitic/api-go/services"
	"github.com/sirupsen/logrus"
)

type PlaceController struct {
	Places *services.PlaceService
	Cfg    *config.Config
	Log    *logrus.Logger
}

type PlaceListQuery struct {
	PageQuery
	Categoria string `form:"categoria"`
	Q         string `form:"q"`
}

// PlaceRequest is accepted as multipart form on create and JSON on update.
type PlaceRequest struct {
	Nombre      string   `form:"nombre" json:"nombre" binding:"required,max=150"`
	Descripcion string   `form:"descripcion" json:"descripcion" binding:"required"`
	Ubicacion   string   `form:"ubicacion" json:"ubicacion" binding:"required"`
	Categoria   string   `form:"categoria" json:"categoria" binding:"required,max=50"`
	Etiquetas   []string `form:"etiquetas" json:"etiquetas"`
}

func (r PlaceRequest) toInput() services.PlaceInput {
	return services.PlaceInput{
		Nombre:      strings.TrimSpace(r.Nombre),
		Descripcion: strings.TrimSpace(r.Descripcion),
		Ubicacion:   strings.TrimSpace(r.Ubicacion),
		Categoria:   strings.TrimSpace(r.Categoria),
		Etiquetas:   splitTags(r.Etiquetas),
	}
}

func NewPlaceController(places *services.PlaceService, cfg *config.Config, log *logrus.Logger) *PlaceController {
	return &PlaceController{Places: places, Cfg: cfg, Log: log}
}

// ListPlaces godoc
// @Summary List places, optionally filtered by category or text
// @Tags lugares
// @Produce json
// @Param categoria query string false "Category"
// @Param q query string false "Search in name and description"
// @Param page query integer false "Page (1-based)"
// @Param pageSize query integer false "Page size (max 50)"
// @Success 200 {object} StandardResponse
// @Router /lugares [get]
func (pc *PlaceController) ListPlaces(c *gin.Context) {
	var query PlaceListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, "Parámetros de consulta inválidos")
		return
	}
	page := query.normalize()

	places, total, err := pc.Places.List(c.Request.Context(), services.PlaceFilter{
		Categoria: strings.TrimSpace(query.Categoria),
		Query:     query.Q,
		Page:      page,
	})
	if err != nil {
		respondError(c, pc.Log, err)
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success:    true,
		Data:       places,
		Pagination: newPaginationMeta(page, total),
	})
}

func (pc *PlaceController) GetCategories(c *gin.Context) {
	categorias, err := pc.Places.Categories(c.Request.Context())
	if err != nil {
		respondError(c, pc.Log, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: categorias})
}

// GetPlace godoc
// @Summary Place detail with rating aggregate and principal photo
// @Tags lugares
// @Produce json
// @Param id path integer true "Place ID"
// @Success 200 {object} StandardResponse
// @Router /lugares/{id} [get]
func (pc *PlaceController) GetPlace(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	place, err := pc.Places.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, pc.Log, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: place})
}

// CreatePlace godoc
// @Summary Create a place with an optional principal image and PDF guide
// @Tags lugares
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Success 201 {object} StandardResponse
// @Router /lugares [post]
func (pc *PlaceController) CreatePlace(c *gin.Context) {
	var req PlaceRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "Nombre, descripción, ubicación y categoría son obligatorios")
		return
	}

	imageFile, err := optionalFile(c, "imagen")
	if err != nil {
		badRequest(c, "No se pudo leer la imagen")
		return
	}
	pdfFile, err := optionalFile(c, "pdf")
	if err != nil {
		badRequest(c, "No se pudo leer el PDF")
		return
	}

	var image *services.ImageUpload
	if imageFile != nil {
		upload, err := readImage(imageFile, pc.Cfg.MaxImageBytes, "")
		if err != nil {
			respondError(c, pc.Log, err)
			return
		}
		image = &upload
	}
	var pdf *services.PDFUpload
	if pdfFile != nil {
		upload, err := readPDF(pdfFile, pc.Cfg.MaxPDFBytes)
		if err != nil {
			respondError(c, pc.Log, err)
			return
		}
		pdf = &upload
	}

	place, err := pc.Places.Create(c.Request.Context(), req.toInput(), image, pdf)
	if err != nil {
		respondError(c, pc.Log, err)
		return
	}
	c.JSON(http.StatusCreated, StandardResponse{Success: true, Data: place, Message: "Lugar creado"})
}

func (pc *PlaceController) UpdatePlace(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req PlaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Nombre, descripción, ubicación y categoría son obligatorios")
		return
	}

	place, err := pc.Places.Update(c.Request.Context(), id, req.toInput())
	if err != nil {
		respondError(c, pc.Log, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: place, Message: "Lugar actualizado"})
}

// DeletePlace removes the place, its ratings and its photos.
func (pc *PlaceController) DeletePlace(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := pc.Places.Delete(c.Request.Context(), id); err != nil {
		respondError(c, pc.Log, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Message: "Lugar eliminado"})
}

func (pc *PlaceController) UploadPDF(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	fh, err := c.FormFile("pdf")
	if err != nil {
		badRequest(c, "Se requiere un archivo PDF")
		return
	}
	pdf, err := readPDF(fh, pc.Cfg.MaxPDFBytes)
	if err != nil {
		respondError(c, pc.Log, err)
		return
	}

	place, err := pc.Places.SetPDF(c.Request.Context(), id, pdf)
	if err != nil {
		respondError(c, pc.Log, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: place, Message: "PDF actualizado"})
}

func (pc *PlaceController) DeletePDF(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := pc.Places.RemovePDF(c.Request.Context(), id); err != nil {
		respondError(c, pc.Log, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Message: "PDF eliminado"})
}

// splitTags accepts repeated fields and comma separated values alike.
func splitTags(raw []string) []string {
	var tags []string
	seen := make(map[string]bool)
	for _, r := range raw {
		for _, t := range strings.Split(r, ",") {
			t = strings.TrimSpace(t)
			if t == "" || seen[t] {
				continue
			}
			seen[t] = true
			tags = append(tags, t)
		}
	}
	return tags
}
