package models

import "time"

const (
	EstadoPendiente = "pendiente"
	EstadoAprobado  = "aprobado"
	EstadoRechazado = "rechazado"
)

// Experience is a visitor-submitted photo with a caption. It is public only
// once an administrator approves it.
type Experience struct {
	ID             uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	URLFoto        string     `gorm:"column:url_foto;not null" json:"url_foto"`
	RutaArchivo    string     `gorm:"column:ruta_almacenamiento;not null" json:"-"`
	Descripcion    string     `gorm:"type:text" json:"descripcion"`
	Estado         string     `gorm:"not null;size:20;default:pendiente;index" json:"estado"`
	ContadorVistas int        `gorm:"not null;default:0" json:"contador_vistas"`
	LugarID        *uint      `gorm:"index" json:"lugar_id"`
	Lugar          *Place     `gorm:"foreignKey:LugarID;constraint:OnDelete:SET NULL" json:"lugar,omitempty"`
	Ancho          int        `json:"ancho"`
	Alto           int        `json:"alto"`
	TamanoArchivo  int64      `gorm:"column:tamano_archivo" json:"tamano_archivo"`
	TipoMime       string     `gorm:"column:tipo_mime;size:50" json:"tipo_mime"`
	ModeradoEn     *time.Time `json:"moderado_en"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (Experience) TableName() string {
	return "experiencias"
}

// ExperienceView is the anonymous log written on each public detail fetch.
type ExperienceView struct {
	ID            uint      `gorm:"primaryKey;autoIncrement"`
	ExperienciaID uint      `gorm:"not null;index"`
	IPAddress     string    `gorm:"column:ip_address;size:45"`
	UserAgent     string    `gorm:"size:512"`
	VistoEn       time.Time `gorm:"not null"`
}

func (ExperienceView) TableName() string {
	return "experiencia_vistas"
}
