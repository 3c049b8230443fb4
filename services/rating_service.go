package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sanjuan-tahitic/api-go/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RatingService struct {
	db *gorm.DB
}

func NewRatingService(db *gorm.DB) *RatingService {
	return &RatingService{db: db}
}

// RatingInput is one visitor submission. Fingerprint and IP come from the
// request, never from the body.
type RatingInput struct {
	LugarID      uint
	Calificacion int
	Comentario   *string
	Fingerprint  string
	IP           string
}

type RatingStats struct {
	LugarID      uint        `json:"lugar_id"`
	Promedio     float64     `json:"puntuacion_promedio"`
	Total        int64       `json:"total_calificaciones"`
	Distribucion map[int]int `json:"distribucion"`
}

// Upsert inserts the visitor's rating or overwrites the one they already
// left for the place. The place aggregate is rewritten in the same
// transaction by the Rating hooks.
func (s *RatingService) Upsert(ctx context.Context, in RatingInput) (*models.Rating, error) {
	if in.Calificacion < 1 || in.Calificacion > 5 {
		return nil, ErrInvalidScore
	}

	var saved models.Rating
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := placeExists(tx, in.LugarID); err != nil {
			return err
		}

		rating := models.Rating{
			LugarID:      in.LugarID,
			Calificacion: in.Calificacion,
			Comentario:   in.Comentario,
			Fingerprint:  in.Fingerprint,
			IPAddress:    in.IP,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "lugar_id"}, {Name: "fingerprint"}},
			DoUpdates: clause.AssignmentColumns([]string{"calificacion", "comentario", "ip_address", "updated_at"}),
		}).Create(&rating).Error; err != nil {
			return fmt.Errorf("upsert rating: %w", err)
		}

		return tx.Where("lugar_id = ? AND fingerprint = ?", in.LugarID, in.Fingerprint).First(&saved).Error
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// FindByFingerprint returns the visitor's own rating, or nil when they have
// not rated the place.
func (s *RatingService) FindByFingerprint(ctx context.Context, lugarID uint, fingerprint string) (*models.Rating, error) {
	db := s.db.WithContext(ctx)
	if err := placeExists(db, lugarID); err != nil {
		return nil, err
	}

	var rating models.Rating
	err := db.Where("lugar_id = ? AND fingerprint = ?", lugarID, fingerprint).First(&rating).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

// ListByPlace returns every rating of a place, newest first.
func (s *RatingService) ListByPlace(ctx context.Context, lugarID uint) ([]models.Rating, error) {
	db := s.db.WithContext(ctx)
	if err := placeExists(db, lugarID); err != nil {
		return nil, err
	}

	var ratings []models.Rating
	if err := db.Where("lugar_id = ?", lugarID).Order("updated_at DESC, id DESC").Find(&ratings).Error; err != nil {
		return nil, err
	}
	return ratings, nil
}

// Stats is computed from the rating rows on every call.
func (s *RatingService) Stats(ctx context.Context, lugarID uint) (*RatingStats, error) {
	db := s.db.WithContext(ctx)
	if err := placeExists(db, lugarID); err != nil {
		return nil, err
	}

	var rows []struct {
		Calificacion int
		Cantidad     int
	}
	if err := db.Model(&models.Rating{}).
		Select("calificacion, COUNT(*) AS cantidad").
		Where("lugar_id = ?", lugarID).
		Group("calificacion").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	stats := &RatingStats{LugarID: lugarID, Distribucion: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}}
	var sum int64
	for _, r := range rows {
		stats.Distribucion[r.Calificacion] = r.Cantidad
		stats.Total += int64(r.Cantidad)
		sum += int64(r.Calificacion * r.Cantidad)
	}
	if stats.Total > 0 {
		stats.Promedio = float64(int64(float64(sum)/float64(stats.Total)*100+0.5)) / 100
	}
	return stats, nil
}

// Delete removes one rating; the aggregate follows through the hook.
func (s *RatingService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rating models.Rating
		if err := tx.First(&rating, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRatingNotFound
			}
			return err
		}
		return tx.Delete(&rating).Error
	})
}

func placeExists(db *gorm.DB, lugarID uint) error {
	var count int64
	if err := db.Model(&models.Place{}).Where("id = ?", lugarID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrPlaceNotFound
	}
	return nil
}
