package models

import "time"

// GalleryPhoto is one image in a place's gallery. At most one photo per place
// has EsPrincipal set, and Orden only grows: removals leave gaps.
type GalleryPhoto struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	LugarID       uint      `gorm:"not null;index" json:"lugar_id"`
	URLFoto       string    `gorm:"column:url_foto;not null" json:"url_foto"`
	RutaArchivo   string    `gorm:"column:ruta_almacenamiento;not null" json:"-"`
	Descripcion   string    `gorm:"size:255" json:"descripcion"`
	EsPrincipal   bool      `gorm:"not null;default:false;index" json:"es_principal"`
	Orden         int       `gorm:"not null;default:0" json:"orden"`
	Ancho         int       `json:"ancho"`
	Alto          int       `json:"alto"`
	TamanoArchivo int64     `gorm:"column:tamano_archivo" json:"tamano_archivo"`
	TipoMime      string    `gorm:"column:tipo_mime;size:50" json:"tipo_mime"`
	CreatedAt     time.Time `json:"created_at"`
}

func (GalleryPhoto) TableName() string {
	return "fotos_lugares"
}
