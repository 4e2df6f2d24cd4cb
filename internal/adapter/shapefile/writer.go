// Package shapefile exports annual adjusted ET totals as a point shapefile
// for use in GIS tools.
package shapefile

import (
	"fmt"
	"os"
	"strings"

	goshp "github.com/jonas-p/go-shp"

	"github.com/greenblume/et-shade-etl/internal/domain"
)

// WriteAnnual writes one point per field with its annual totals as
// attributes. Fields and totals are matched by field ID; a total without a
// matching field is an error.
func WriteAnnual(path string, fields []domain.Field, totals []domain.AnnualAdjustedET) error {
	byID := make(map[string]domain.Field, len(fields))
	for _, f := range fields {
		if err := f.Validate(); err != nil {
			return err
		}
		byID[f.ID] = f
	}

	w, err := goshp.Create(path, goshp.POINT)
	if err != nil {
		return fmt.Errorf("create shapefile %s: %w", path, err)
	}
	err = writeTotals(w, byID, totals)
	w.Close()
	if err != nil {
		return err
	}
	return renameDBF(path)
}

func writeTotals(w *goshp.Writer, byID map[string]domain.Field, totals []domain.AnnualAdjustedET) error {
	if err := w.SetFields([]goshp.Field{
		goshp.StringField("FIELD_ID", 64),
		goshp.NumberField("YEAR", 10),
		goshp.FloatField("ET_MM", 14, 6),
		goshp.FloatField("ADJ_ET_MM", 14, 6),
		goshp.FloatField("SAVED_MM", 14, 6),
		goshp.NumberField("DAYS", 10),
	}); err != nil {
		return fmt.Errorf("set attribute fields: %w", err)
	}

	for row, total := range totals {
		field, ok := byID[total.FieldID]
		if !ok {
			return fmt.Errorf("no field definition for %q", total.FieldID)
		}
		w.Write(&goshp.Point{X: field.Lon, Y: field.Lat})
		// dBase character fields are space padded to the column width;
		// go-shp writes values bare and leaves NUL bytes in the gap.
		attrs := []any{
			fmt.Sprintf("%-64s", total.FieldID),
			total.Year,
			total.TotalETmm,
			total.TotalAdjustedETmm,
			total.WaterSavedmm,
			total.PeriodCount,
		}
		for col, v := range attrs {
			if err := w.WriteAttribute(row, col, v); err != nil {
				return fmt.Errorf("write attribute for %q: %w", total.FieldID, err)
			}
		}
	}
	return nil
}

// renameDBF moves the attribute table to the name GIS readers expect.
// go-shp's writer creates it at "<base>dbf", without the dot, while its
// reader and every other DBF consumer open "<base>.dbf".
func renameDBF(path string) error {
	base := path
	if strings.HasSuffix(strings.ToLower(base), ".shp") {
		base = base[:len(base)-4]
	}
	if err := os.Rename(base+"dbf", base+".dbf"); err != nil {
		return fmt.Errorf("rename attribute table: %w", err)
	}
	return nil
}
