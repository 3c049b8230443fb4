package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sanjuan-tahitic/api-go/events"
	"github.com/sanjuan-tahitic/api-go/models"
	"github.com/sanjuan-tahitic/api-go/storage"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const MaxExperienceDescription = 1000

type ExperienceInput struct {
	Descripcion string
	LugarID     *uint
	Image       ImageUpload
}

// ViewerInfo identifies an anonymous reader for the view log.
type ViewerInfo struct {
	IP        string
	UserAgent string
}

type ExperienceStats struct {
	Total       int64 `json:"total"`
	Pendientes  int64 `json:"pendientes"`
	Aprobadas   int64 `json:"aprobadas"`
	Rechazadas  int64 `json:"rechazadas"`
	TotalVistas int64 `json:"total_vistas"`
}

type ExperienceService struct {
	db        *gorm.DB
	store     storage.Storage
	publisher events.Publisher
	log       *logrus.Logger
}

func NewExperienceService(db *gorm.DB, store storage.Storage, publisher events.Publisher, log *logrus.Logger) *ExperienceService {
	return &ExperienceService{db: db, store: store, publisher: publisher, log: log}
}

// Submit stores a visitor experience as pending and notifies moderators. A
// failed notification is logged; the submission itself still succeeds.
func (s *ExperienceService) Submit(ctx context.Context, in ExperienceInput) (*models.Experience, error) {
	if len([]rune(in.Descripcion)) > MaxExperienceDescription {
		return nil, ErrDescriptionTooLong
	}
	if in.LugarID != nil {
		if err := placeExists(s.db.WithContext(ctx), *in.LugarID); err != nil {
			return nil, err
		}
	}

	obj, err := s.store.Save(ctx, storage.FolderExperienceImages, in.Image.Info.Extension, in.Image.Info.MimeType, in.Image.Data)
	if err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	exp := models.Experience{
		URLFoto:       obj.URL,
		RutaArchivo:   obj.Path,
		Descripcion:   in.Descripcion,
		Estado:        models.EstadoPendiente,
		LugarID:       in.LugarID,
		Ancho:         in.Image.Info.Width,
		Alto:          in.Image.Info.Height,
		TamanoArchivo: in.Image.Info.Size,
		TipoMime:      in.Image.Info.MimeType,
	}
	if err := s.db.WithContext(ctx).Omit("Lugar").Create(&exp).Error; err != nil {
		removeStoredFile(ctx, s.store, s.log, obj.Path, nil)
		return nil, fmt.Errorf("insert experience: %w", err)
	}

	event := events.ExperienceSubmitted{
		ExperienciaID: exp.ID,
		LugarID:       exp.LugarID,
		Descripcion:   exp.Descripcion,
		URLFoto:       exp.URLFoto,
		CreadoEn:      exp.CreatedAt.UTC().Format(time.RFC3339),
	}
	if err := s.publisher.PublishExperienceSubmitted(ctx, event); err != nil {
		s.log.WithError(err).WithField("experiencia_id", exp.ID).Warn("could not publish moderation event")
	}
	return &exp, nil
}

// ListApproved returns public experiences, newest first.
func (s *ExperienceService) ListApproved(ctx context.Context, lugarID *uint, page Page) ([]models.Experience, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Experience{}).Where("estado = ?", models.EstadoAprobado)
	if lugarID != nil {
		q = q.Where("lugar_id = ?", *lugarID)
	}
	return s.paginate(q, page)
}

// ViewApproved returns an approved experience and records the view: the
// counter increment and the log row commit together.
func (s *ExperienceService) ViewApproved(ctx context.Context, id uint, viewer ViewerInfo) (*models.Experience, error) {
	var exp models.Experience
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND estado = ?", id, models.EstadoAprobado).First(&exp).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrExperienceNotFound
			}
			return err
		}
		if err := tx.Model(&models.Experience{}).
			Where("id = ?", id).
			UpdateColumn("contador_vistas", gorm.Expr("contador_vistas + 1")).Error; err != nil {
			return err
		}
		view := models.ExperienceView{
			ExperienciaID: id,
			IPAddress:     viewer.IP,
			UserAgent:     truncate(viewer.UserAgent, 512),
			VistoEn:       time.Now().UTC(),
		}
		if err := tx.Create(&view).Error; err != nil {
			return fmt.Errorf("log view: %w", err)
		}
		exp.ContadorVistas++
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &exp, nil
}

// ListAll is the moderation queue. An empty estado lists every state.
func (s *ExperienceService) ListAll(ctx context.Context, estado string, page Page) ([]models.Experience, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Experience{})
	if estado != "" {
		if !validEstado(estado) {
			return nil, 0, ErrInvalidEstadoFilter
		}
		q = q.Where("estado = ?", estado)
	}
	return s.paginate(q, page)
}

// Moderate sets the final state. Re-moderating an already moderated
// experience is allowed.
func (s *ExperienceService) Moderate(ctx context.Context, id uint, estado string) (*models.Experience, error) {
	if estado != models.EstadoAprobado && estado != models.EstadoRechazado {
		return nil, ErrInvalidEstado
	}

	var exp models.Experience
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&exp, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrExperienceNotFound
			}
			return err
		}
		now := time.Now().UTC()
		exp.Estado = estado
		exp.ModeradoEn = &now
		return tx.Model(&exp).Updates(map[string]interface{}{
			"estado":      estado,
			"moderado_en": now,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &exp, nil
}

// Delete removes the experience, its view log and then its file.
func (s *ExperienceService) Delete(ctx context.Context, id uint) error {
	var exp models.Experience
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&exp, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrExperienceNotFound
			}
			return err
		}
		if err := tx.Where("experiencia_id = ?", id).Delete(&models.ExperienceView{}).Error; err != nil {
			return err
		}
		return tx.Delete(&exp).Error
	})
	if err != nil {
		return err
	}
	removeStoredFile(ctx, s.store, s.log, exp.RutaArchivo, logrus.Fields{"experiencia_id": id})
	return nil
}

func (s *ExperienceService) Stats(ctx context.Context) (*ExperienceStats, error) {
	var rows []struct {
		Estado   string
		Cantidad int64
		Vistas   int64
	}
	if err := s.db.WithContext(ctx).Model(&models.Experience{}).
		Select("estado, COUNT(*) AS cantidad, COALESCE(SUM(contador_vistas), 0) AS vistas").
		Group("estado").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	stats := &ExperienceStats{}
	for _, r := range rows {
		stats.Total += r.Cantidad
		stats.TotalVistas += r.Vistas
		switch r.Estado {
		case models.EstadoPendiente:
			stats.Pendientes = r.Cantidad
		case models.EstadoAprobado:
			stats.Aprobadas = r.Cantidad
		case models.EstadoRechazado:
			stats.Rechazadas = r.Cantidad
		}
	}
	return stats, nil
}

func (s *ExperienceService) paginate(q *gorm.DB, page Page) ([]models.Experience, int64, error) {
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []models.Experience
	if err := q.Preload("Lugar", func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "nombre", "categoria")
	}).
		Order("created_at DESC, id DESC").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func validEstado(estado string) bool {
	switch estado {
	case models.EstadoPendiente, models.EstadoAprobado, models.EstadoRechazado:
		return true
	}
	return false
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
