package models

import "time"

// Place is a point of interest shown on the site. PuntuacionPromedio and
// TotalCalificaciones are derived from the ratings table and are only written
// by the Rating hooks.
type Place struct {
	ID                  uint           `json:"id" gorm:"primaryKey;autoIncrement"`
	Nombre              string         `json:"nombre" gorm:"not null;size:150"`
	Descripcion         string         `json:"descripcion" gorm:"type:text;not null"`
	Ubicacion           string         `json:"ubicacion" gorm:"not null"`
	Categoria           string         `json:"categoria" gorm:"not null;size:50;index"`
	Etiquetas           Tags           `json:"etiquetas"`
	PuntuacionPromedio  float64        `json:"puntuacion_promedio" gorm:"not null;default:0;type:decimal(3,2)"`
	TotalCalificaciones int            `json:"total_calificaciones" gorm:"not null;default:0"`
	FotoPrincipalURL    string         `json:"foto_principal_url"`
	PDFURL              *string        `json:"pdf_url" gorm:"column:pdf_url"`
	PDFPath             *string        `json:"-" gorm:"column:pdf_ruta"`
	Fotos               []GalleryPhoto `json:"fotos,omitempty" gorm:"foreignKey:LugarID;constraint:OnDelete:CASCADE"`
	Calificaciones      []Rating       `json:"-" gorm:"foreignKey:LugarID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

func (Place) TableName() string {
	return "lugares"
}
