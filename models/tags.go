package models

import (
	"database/sql/driver"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Tags is a text[] column on Postgres. Other dialects store the same array
// literal in a plain text column.
type Tags []string

func (t Tags) Value() (driver.Value, error) {
	return pq.StringArray(t).Value()
}

func (t *Tags) Scan(src interface{}) error {
	return (*pq.StringArray)(t).Scan(src)
}

func (Tags) GormDataType() string {
	return "text"
}

func (Tags) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}
