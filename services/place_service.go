package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sanjuan-tahitic/api-go/models"
	"github.com/sanjuan-tahitic/api-go/storage"
	"github.com/sanjuan-tahitic/api-go/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 12
	MaxPageSize     = 50
)

// Page is a normalized 1-based page request.
type Page struct {
	Number int
	Size   int
}

// NewPage clamps raw query values to sane bounds.
func NewPage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return Page{Number: number, Size: size}
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

type PlaceFilter struct {
	Categoria string
	Query     string
	Page      Page
}

// PlaceInput holds the editable fields of a place.
type PlaceInput struct {
	Nombre      string
	Descripcion string
	Ubicacion   string
	Categoria   string
	Etiquetas   []string
}

// PDFUpload is a PDF whose content has already been inspected.
type PDFUpload struct {
	Data []byte
	Info utils.FileInfo
}

type PlaceService struct {
	db    *gorm.DB
	store storage.Storage
	log   *logrus.Logger
}

func NewPlaceService(db *gorm.DB, store storage.Storage, log *logrus.Logger) *PlaceService {
	return &PlaceService{db: db, store: store, log: log}
}

// List returns one page of places ordered by name.
func (s *PlaceService) List(ctx context.Context, filter PlaceFilter) ([]models.Place, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Place{})
	if filter.Categoria != "" {
		q = q.Where("categoria = ?", filter.Categoria)
	}
	if term := strings.TrimSpace(filter.Query); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(nombre) LIKE ? OR LOWER(descripcion) LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var places []models.Place
	if err := q.Order("nombre ASC, id ASC").
		Offset(filter.Page.Offset()).
		Limit(filter.Page.Size).
		Find(&places).Error; err != nil {
		return nil, 0, err
	}
	return places, total, nil
}

func (s *PlaceService) Categories(ctx context.Context) ([]string, error) {
	var categorias []string
	err := s.db.WithContext(ctx).Model(&models.Place{}).
		Distinct("categoria").
		Order("categoria ASC").
		Pluck("categoria", &categorias).Error
	return categorias, err
}

func (s *PlaceService) Get(ctx context.Context, id uint) (*models.Place, error) {
	var place models.Place
	err := s.db.WithContext(ctx).First(&place, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPlaceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &place, nil
}

// Create inserts a place. An image, when given, becomes photo number one and
// the principal photo; a PDF is attached as the place guide. Files stored
// before a failed insert are removed.
func (s *PlaceService) Create(ctx context.Context, in PlaceInput, image *ImageUpload, pdf *PDFUpload) (*models.Place, error) {
	var stored []storage.Object
	cleanup := func() {
		for _, obj := range stored {
			removeStoredFile(ctx, s.store, s.log, obj.Path, nil)
		}
	}

	var imageObj, pdfObj *storage.Object
	if image != nil {
		obj, err := s.store.Save(ctx, storage.FolderPlaceImages, image.Info.Extension, image.Info.MimeType, image.Data)
		if err != nil {
			return nil, fmt.Errorf("store image: %w", err)
		}
		stored = append(stored, obj)
		imageObj = &obj
	}
	if pdf != nil {
		obj, err := s.store.Save(ctx, storage.FolderPDFs, pdf.Info.Extension, pdf.Info.MimeType, pdf.Data)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("store pdf: %w", err)
		}
		stored = append(stored, obj)
		pdfObj = &obj
	}

	place := models.Place{
		Nombre:      in.Nombre,
		Descripcion: in.Descripcion,
		Ubicacion:   in.Ubicacion,
		Categoria:   in.Categoria,
		Etiquetas:   models.Tags(in.Etiquetas),
	}
	if pdfObj != nil {
		place.PDFURL = &pdfObj.URL
		place.PDFPath = &pdfObj.Path
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Fotos", "Calificaciones").Create(&place).Error; err != nil {
			return fmt.Errorf("insert place: %w", err)
		}
		if imageObj == nil {
			return nil
		}
		photos, err := insertPhotos(tx, place.ID, []ImageUpload{*image}, []storage.Object{*imageObj}, true)
		if err != nil {
			return err
		}
		place.FotoPrincipalURL = photos[0].URLFoto
		place.Fotos = photos
		return verifyOnePrincipal(tx, place.ID)
	})
	if err != nil {
		cleanup()
		return nil, err
	}
	return &place, nil
}

// Update rewrites the editable fields. Aggregates and the principal URL are
// never touched here.
func (s *PlaceService) Update(ctx context.Context, id uint, in PlaceInput) (*models.Place, error) {
	var place models.Place
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&place, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPlaceNotFound
			}
			return err
		}
		place.Nombre = in.Nombre
		place.Descripcion = in.Descripcion
		place.Ubicacion = in.Ubicacion
		place.Categoria = in.Categoria
		place.Etiquetas = models.Tags(in.Etiquetas)
		return tx.Model(&place).
			Select("nombre", "descripcion", "ubicacion", "categoria", "etiquetas").
			Updates(&place).Error
	})
	if err != nil {
		return nil, err
	}
	return &place, nil
}

// Delete removes the place with its ratings and photos in one transaction and
// detaches its experiences. Backing files go after the commit.
func (s *PlaceService) Delete(ctx context.Context, id uint) error {
	var (
		place  *models.Place
		photos []models.GalleryPhoto
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if place, err = lockPlace(tx, id); err != nil {
			return err
		}
		if err := tx.Where("lugar_id = ?", id).Find(&photos).Error; err != nil {
			return err
		}
		if err := tx.Session(&gorm.Session{SkipHooks: true}).
			Where("lugar_id = ?", id).
			Delete(&models.Rating{}).Error; err != nil {
			return fmt.Errorf("delete ratings: %w", err)
		}
		if err := tx.Where("lugar_id = ?", id).Delete(&models.GalleryPhoto{}).Error; err != nil {
			return fmt.Errorf("delete photos: %w", err)
		}
		if err := tx.Model(&models.Experience{}).
			Where("lugar_id = ?", id).
			Update("lugar_id", nil).Error; err != nil {
			return fmt.Errorf("detach experiences: %w", err)
		}
		return tx.Delete(&models.Place{}, id).Error
	})
	if err != nil {
		return err
	}

	fields := logrus.Fields{"lugar_id": id}
	for _, p := range photos {
		removeStoredFile(ctx, s.store, s.log, p.RutaArchivo, fields)
	}
	if place.PDFPath != nil {
		removeStoredFile(ctx, s.store, s.log, *place.PDFPath, fields)
	}
	return nil
}

// SetPDF attaches or replaces the place guide. The previous file is removed
// once the new one is recorded.
func (s *PlaceService) SetPDF(ctx context.Context, id uint, pdf PDFUpload) (*models.Place, error) {
	if err := placeExists(s.db.WithContext(ctx), id); err != nil {
		return nil, err
	}

	obj, err := s.store.Save(ctx, storage.FolderPDFs, pdf.Info.Extension, pdf.Info.MimeType, pdf.Data)
	if err != nil {
		return nil, fmt.Errorf("store pdf: %w", err)
	}

	var (
		place   *models.Place
		oldPath *string
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if place, err = lockPlace(tx, id); err != nil {
			return err
		}
		oldPath = place.PDFPath
		place.PDFURL = &obj.URL
		place.PDFPath = &obj.Path
		return tx.Model(place).Updates(map[string]interface{}{
			"pdf_url":  obj.URL,
			"pdf_ruta": obj.Path,
		}).Error
	})
	if err != nil {
		removeStoredFile(ctx, s.store, s.log, obj.Path, nil)
		return nil, err
	}

	if oldPath != nil {
		removeStoredFile(ctx, s.store, s.log, *oldPath, logrus.Fields{"lugar_id": id})
	}
	return place, nil
}

func (s *PlaceService) RemovePDF(ctx context.Context, id uint) error {
	var oldPath string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		place, err := lockPlace(tx, id)
		if err != nil {
			return err
		}
		if place.PDFPath == nil && place.PDFURL == nil {
			return ErrNoPDF
		}
		if place.PDFPath != nil {
			oldPath = *place.PDFPath
		}
		return tx.Model(place).Updates(map[string]interface{}{
			"pdf_url":  nil,
			"pdf_ruta": nil,
		}).Error
	})
	if err != nil {
		return err
	}
	removeStoredFile(ctx, s.store, s.log, oldPath, logrus.Fields{"lugar_id": id})
	return nil
}
