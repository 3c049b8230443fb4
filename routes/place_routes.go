package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sanjuan-tahitic/api-go/controllers"
)

func SetupPlaceRoutes(api *gin.RouterGroup, placeController *controllers.PlaceController, galleryController *controllers.GalleryController, adminOnly gin.HandlerFunc) {
	places := api.Group("/lugares")
	{
		places.GET("", placeController.ListPlaces)
		places.GET("/categorias", placeController.GetCategories)
		places.GET("/:id", placeController.GetPlace)
		places.GET("/:id/galeria", galleryController.GetGallery)
	}

	admin := api.Group("/lugares", adminOnly)
	{
		admin.POST("", placeController.CreatePlace)
		admin.PUT("/:id", placeController.UpdatePlace)
		admin.DELETE("/:id", placeController.DeletePlace)
		admin.POST("/:id/pdf", placeController.UploadPDF)
		admin.DELETE("/:id/pdf", placeController.DeletePDF)

		// Gallery
		admin.POST("/:id/fotos", galleryController.AddPhoto)
		admin.POST("/:id/fotos/multiples", galleryController.AddPhotos)
		admin.PUT("/:id/fotos/:fotoId/principal", galleryController.SetPrincipal)
		admin.PUT("/:id/imagen-principal", galleryController.ReplacePrincipal)
		admin.PATCH("/:id/fotos/:fotoId", galleryController.UpdatePhoto)
		admin.DELETE("/:id/fotos/:fotoId", galleryController.DeletePhoto)
	}
}
