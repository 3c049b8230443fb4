package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sanjuan-tahitic/api-go/models"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const ratingsSheet = "Calificaciones"

// ExportXLSX renders every rating of a place as a spreadsheet with a summary
// row at the bottom.
func (s *RatingService) ExportXLSX(ctx context.Context, lugarID uint) ([]byte, string, error) {
	var place models.Place
	if err := s.db.WithContext(ctx).First(&place, lugarID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrPlaceNotFound
		}
		return nil, "", err
	}
	ratings, err := s.ListByPlace(ctx, lugarID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ratingsSheet); err != nil {
		return nil, "", fmt.Errorf("excel sheet: %w", err)
	}

	header := []interface{}{"ID", "Calificación", "Comentario", "Creada", "Actualizada"}
	if err := f.SetSheetRow(ratingsSheet, "A1", &header); err != nil {
		return nil, "", fmt.Errorf("excel header: %w", err)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(ratingsSheet, "A1", "E1", style)
	}

	for i, r := range ratings {
		comentario := ""
		if r.Comentario != nil {
			comentario = *r.Comentario
		}
		row := []interface{}{
			r.ID,
			r.Calificacion,
			comentario,
			r.CreatedAt.Format("2006-01-02 15:04"),
			r.UpdatedAt.Format("2006-01-02 15:04"),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(ratingsSheet, cell, &row); err != nil {
			return nil, "", fmt.Errorf("excel row %d: %w", i+2, err)
		}
	}

	summary := []interface{}{"Promedio", place.PuntuacionPromedio, "Total", place.TotalCalificaciones}
	cell, _ := excelize.CoordinatesToCellName(1, len(ratings)+3)
	if err := f.SetSheetRow(ratingsSheet, cell, &summary); err != nil {
		return nil, "", fmt.Errorf("excel summary: %w", err)
	}
	_ = f.SetColWidth(ratingsSheet, "C", "C", 60)
	_ = f.SetColWidth(ratingsSheet, "D", "E", 18)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("excel write: %w", err)
	}
	return buf.Bytes(), fmt.Sprintf("calificaciones_lugar_%d.xlsx", lugarID), nil
}
