package models

import (
	"time"

	"gorm.io/gorm"
)

// Rating is one visitor's score for one place. The (lugar_id, fingerprint)
// pair is unique; a repeat submission overwrites the existing row.
type Rating struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	LugarID      uint      `gorm:"not null;uniqueIndex:idx_calificacion_lugar_fingerprint" json:"lugar_id"`
	Calificacion int       `gorm:"not null;check:calificacion BETWEEN 1 AND 5" json:"calificacion"`
	Comentario   *string   `gorm:"size:500" json:"comentario"`
	Fingerprint  string    `gorm:"not null;size:64;uniqueIndex:idx_calificacion_lugar_fingerprint" json:"-"`
	IPAddress    string    `gorm:"column:ip_address;size:45" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Rating) TableName() string {
	return "calificaciones_lugares"
}

// AfterSave runs inside the transaction of the insert or update that wrote
// the rating, so the place aggregate never lags behind the rows.
func (r *Rating) AfterSave(tx *gorm.DB) error {
	return RecomputePlaceScore(tx, r.LugarID)
}

func (r *Rating) AfterDelete(tx *gorm.DB) error {
	return RecomputePlaceScore(tx, r.LugarID)
}

// RecomputePlaceScore rewrites the average and count of a place from its
// current rating rows.
func RecomputePlaceScore(tx *gorm.DB, lugarID uint) error {
	if lugarID == 0 {
		return nil
	}

	var agg struct {
		Promedio float64
		Total    int
	}
	if err := tx.Session(&gorm.Session{NewDB: true, SkipHooks: true}).
		Model(&Rating{}).
		Select("COALESCE(AVG(calificacion), 0) AS promedio, COUNT(*) AS total").
		Where("lugar_id = ?", lugarID).
		Scan(&agg).Error; err != nil {
		return err
	}

	return tx.Session(&gorm.Session{NewDB: true, SkipHooks: true}).
		Model(&Place{}).
		Where("id = ?", lugarID).
		Updates(map[string]interface{}{
			"puntuacion_promedio":  roundScore(agg.Promedio),
			"total_calificaciones": agg.Total,
		}).Error
}

func roundScore(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
