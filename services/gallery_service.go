package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sanjuan-tahitic/api-go/models"
	"github.com/sanjuan-tahitic/api-go/storage"
	"github.com/sanjuan-tahitic/api-go/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const MaxPhotosPerUpload = 10

// ImageUpload is an image whose content has already been inspected.
type ImageUpload struct {
	Data        []byte
	Info        utils.FileInfo
	Descripcion string
}

// GalleryService keeps each place's photo set consistent: exactly one
// principal photo whenever the place has photos, the principal URL mirrored
// on the place row, and orden growing monotonically per place.
type GalleryService struct {
	db    *gorm.DB
	store storage.Storage
	log   *logrus.Logger
}

func NewGalleryService(db *gorm.DB, store storage.Storage, log *logrus.Logger) *GalleryService {
	return &GalleryService{db: db, store: store, log: log}
}

// List returns the gallery with the principal photo first, then by orden.
func (s *GalleryService) List(ctx context.Context, lugarID uint) ([]models.GalleryPhoto, error) {
	db := s.db.WithContext(ctx)
	if err := placeExists(db, lugarID); err != nil {
		return nil, err
	}

	var photos []models.GalleryPhoto
	if err := db.Where("lugar_id = ?", lugarID).
		Order("es_principal DESC, orden ASC, id ASC").
		Find(&photos).Error; err != nil {
		return nil, err
	}
	return photos, nil
}

// AddPhotos appends images at the end of the gallery. The first image
// becomes principal when makePrincipal is set or the place has no principal
// yet. Either every image is stored and recorded or none is.
func (s *GalleryService) AddPhotos(ctx context.Context, lugarID uint, uploads []ImageUpload, makePrincipal bool) ([]models.GalleryPhoto, error) {
	if len(uploads) == 0 {
		return nil, ErrNoPhotos
	}
	if len(uploads) > MaxPhotosPerUpload {
		return nil, ErrTooManyPhotos
	}
	if err := placeExists(s.db.WithContext(ctx), lugarID); err != nil {
		return nil, err
	}

	objects, err := s.storeImages(ctx, storage.FolderPlaceImages, uploads)
	if err != nil {
		return nil, err
	}

	var created []models.GalleryPhoto
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockPlace(tx, lugarID); err != nil {
			return err
		}
		photos, err := insertPhotos(tx, lugarID, uploads, objects, makePrincipal)
		if err != nil {
			return err
		}
		created = photos
		return verifyOnePrincipal(tx, lugarID)
	})
	if err != nil {
		s.removeObjects(ctx, objects)
		return nil, err
	}
	return created, nil
}

// Promote makes fotoID the principal photo of the place. Demote, promote and
// the URL mirror commit together or not at all.
func (s *GalleryService) Promote(ctx context.Context, lugarID, fotoID uint) (*models.GalleryPhoto, error) {
	var photo models.GalleryPhoto
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockPlace(tx, lugarID); err != nil {
			return err
		}
		if err := findPhoto(tx, lugarID, fotoID, &photo); err != nil {
			return err
		}
		if err := setPrincipal(tx, lugarID, &photo); err != nil {
			return err
		}
		return verifyOnePrincipal(tx, lugarID)
	})
	if err != nil {
		return nil, err
	}
	return &photo, nil
}

// Delete removes a non-principal photo and then its file. Sibling orden
// values are left untouched.
func (s *GalleryService) Delete(ctx context.Context, lugarID, fotoID uint) error {
	var photo models.GalleryPhoto
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockPlace(tx, lugarID); err != nil {
			return err
		}
		if err := findPhoto(tx, lugarID, fotoID, &photo); err != nil {
			return err
		}
		if photo.EsPrincipal {
			return ErrSolePrincipal
		}
		return tx.Delete(&photo).Error
	})
	if err != nil {
		return err
	}

	s.removeFile(ctx, photo.RutaArchivo, logrus.Fields{"lugar_id": lugarID, "foto_id": fotoID})
	return nil
}

// ReplacePrincipal stores a new image as the principal photo and removes the
// previous principal photo together with its file.
func (s *GalleryService) ReplacePrincipal(ctx context.Context, lugarID uint, upload ImageUpload) (*models.GalleryPhoto, error) {
	if err := placeExists(s.db.WithContext(ctx), lugarID); err != nil {
		return nil, err
	}

	objects, err := s.storeImages(ctx, storage.FolderPlaceImages, []ImageUpload{upload})
	if err != nil {
		return nil, err
	}

	var (
		created  []models.GalleryPhoto
		previous []models.GalleryPhoto
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockPlace(tx, lugarID); err != nil {
			return err
		}
		if err := tx.Where("lugar_id = ? AND es_principal = ?", lugarID, true).Find(&previous).Error; err != nil {
			return err
		}
		photos, err := insertPhotos(tx, lugarID, []ImageUpload{upload}, objects, true)
		if err != nil {
			return err
		}
		created = photos
		for i := range previous {
			if err := tx.Delete(&previous[i]).Error; err != nil {
				return err
			}
		}
		return verifyOnePrincipal(tx, lugarID)
	})
	if err != nil {
		s.removeObjects(ctx, objects)
		return nil, err
	}

	for _, p := range previous {
		s.removeFile(ctx, p.RutaArchivo, logrus.Fields{"lugar_id": lugarID, "foto_id": p.ID})
	}
	return &created[0], nil
}

// UpdateDescription changes the caption of a photo.
func (s *GalleryService) UpdateDescription(ctx context.Context, lugarID, fotoID uint, descripcion string) (*models.GalleryPhoto, error) {
	var photo models.GalleryPhoto
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := findPhoto(tx, lugarID, fotoID, &photo); err != nil {
			return err
		}
		photo.Descripcion = descripcion
		return tx.Model(&photo).Update("descripcion", descripcion).Error
	})
	if err != nil {
		return nil, err
	}
	return &photo, nil
}

func (s *GalleryService) storeImages(ctx context.Context, folder string, uploads []ImageUpload) ([]storage.Object, error) {
	objects := make([]storage.Object, 0, len(uploads))
	for _, u := range uploads {
		obj, err := s.store.Save(ctx, folder, u.Info.Extension, u.Info.MimeType, u.Data)
		if err != nil {
			s.removeObjects(ctx, objects)
			return nil, fmt.Errorf("store image: %w", err)
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

func (s *GalleryService) removeObjects(ctx context.Context, objects []storage.Object) {
	for _, obj := range objects {
		s.removeFile(ctx, obj.Path, nil)
	}
}

// removeFile is best effort: the database is the source of truth, so a
// failed file removal is logged and never reported to the caller.
func (s *GalleryService) removeFile(ctx context.Context, path string, fields logrus.Fields) {
	removeStoredFile(ctx, s.store, s.log, path, fields)
}

func removeStoredFile(ctx context.Context, store storage.Storage, log *logrus.Logger, path string, fields logrus.Fields) {
	if path == "" {
		return
	}
	if err := store.Delete(context.WithoutCancel(ctx), path); err != nil {
		log.WithFields(fields).WithField("ruta", path).WithError(err).Warn("could not remove stored file")
	}
}

// lockPlace loads the place row FOR UPDATE so concurrent gallery writes on
// the same place are serialized.
func lockPlace(tx *gorm.DB, lugarID uint) (*models.Place, error) {
	var place models.Place
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&place, lugarID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPlaceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &place, nil
}

func findPhoto(tx *gorm.DB, lugarID, fotoID uint, photo *models.GalleryPhoto) error {
	err := tx.Where("id = ? AND lugar_id = ?", fotoID, lugarID).First(photo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrPhotoNotFound
	}
	return err
}

// insertPhotos records already stored images after the current max orden.
// The place row must be locked by the caller.
func insertPhotos(tx *gorm.DB, lugarID uint, uploads []ImageUpload, objects []storage.Object, makePrincipal bool) ([]models.GalleryPhoto, error) {
	var maxOrden int
	if err := tx.Model(&models.GalleryPhoto{}).
		Select("COALESCE(MAX(orden), 0)").
		Where("lugar_id = ?", lugarID).
		Scan(&maxOrden).Error; err != nil {
		return nil, err
	}

	var principals int64
	if err := tx.Model(&models.GalleryPhoto{}).
		Where("lugar_id = ? AND es_principal = ?", lugarID, true).
		Count(&principals).Error; err != nil {
		return nil, err
	}

	created := make([]models.GalleryPhoto, 0, len(uploads))
	for i, u := range uploads {
		photo := models.GalleryPhoto{
			LugarID:       lugarID,
			URLFoto:       objects[i].URL,
			RutaArchivo:   objects[i].Path,
			Descripcion:   u.Descripcion,
			Orden:         maxOrden + i + 1,
			Ancho:         u.Info.Width,
			Alto:          u.Info.Height,
			TamanoArchivo: u.Info.Size,
			TipoMime:      u.Info.MimeType,
		}
		if err := tx.Create(&photo).Error; err != nil {
			return nil, fmt.Errorf("insert photo: %w", err)
		}
		if i == 0 && (makePrincipal || principals == 0) {
			if err := setPrincipal(tx, lugarID, &photo); err != nil {
				return nil, err
			}
		}
		created = append(created, photo)
	}
	return created, nil
}

// setPrincipal demotes every photo of the place, promotes photo and mirrors
// its URL onto the place.
func setPrincipal(tx *gorm.DB, lugarID uint, photo *models.GalleryPhoto) error {
	if err := tx.Model(&models.GalleryPhoto{}).
		Where("lugar_id = ? AND es_principal = ?", lugarID, true).
		Update("es_principal", false).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.GalleryPhoto{}).
		Where("id = ?", photo.ID).
		Update("es_principal", true).Error; err != nil {
		return err
	}
	photo.EsPrincipal = true
	return tx.Model(&models.Place{}).
		Where("id = ?", lugarID).
		Update("foto_principal_url", photo.URLFoto).Error
}

func verifyOnePrincipal(tx *gorm.DB, lugarID uint) error {
	var principals, total int64
	if err := tx.Model(&models.GalleryPhoto{}).Where("lugar_id = ?", lugarID).Count(&total).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.GalleryPhoto{}).
		Where("lugar_id = ? AND es_principal = ?", lugarID, true).
		Count(&principals).Error; err != nil {
		return err
	}
	if (total > 0 && principals != 1) || (total == 0 && principals != 0) {
		return fmt.Errorf("lugar %d: %d principal photos out of %d: %w", lugarID, principals, total, errPrincipalInvariant)
	}
	return nil
}
