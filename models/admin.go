package models

import (
	"time"
)

const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"

	RolAdmin = "admin"
)

// Admin is a back-office account. PasswordHash stays nil for accounts that
// only ever entered through Google until a local password is set.
type Admin struct {
	ID           uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string     `gorm:"unique;not null;size:50" json:"username"`
	Email        string     `gorm:"unique;not null;size:255" json:"email"`
	PasswordHash *string    `gorm:"column:password_hash" json:"-"`
	Proveedor    string     `gorm:"not null;size:20;default:local" json:"proveedor"`
	ProveedorID  *string    `gorm:"column:proveedor_id;size:255" json:"-"`
	Rol          string     `gorm:"not null;size:20;default:admin" json:"rol"`
	AvatarURL    string     `gorm:"column:avatar_url" json:"avatar_url"`
	Verificado   bool       `gorm:"not null;default:false" json:"verificado"`
	UltimoLogin  *time.Time `json:"ultimo_login"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (Admin) TableName() string {
	return "administradores"
}

// HasPassword reports whether local password login is possible.
func (a *Admin) HasPassword() bool {
	return a.PasswordHash != nil && *a.PasswordHash != ""
}
