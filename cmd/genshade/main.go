// Command genshade generates shade table fixtures from the tracker shading
// simulation. It uses the actual simulation code so fixtures match what the
// CLI produces for the same site, and prints summary stats for updating test
// assertions.
//
// Usage:
//
//	go run ./cmd/genshade \
//	  -field field-1 -lat 36.77 -lon -119.42 -year 2021 \
//	  -out data/mock/field-1-2021-shade.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"

	"github.com/greenblume/et-shade-etl/internal/adapter/csvfile"
	"github.com/greenblume/et-shade-etl/internal/domain"
	"github.com/greenblume/et-shade-etl/internal/suntracker"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	fieldID := flag.String("field", "", "field identifier")
	lat := flag.Float64("lat", 0, "site latitude in decimal degrees")
	lon := flag.Float64("lon", 0, "site longitude in decimal degrees")
	year := flag.Int("year", 0, "calendar year to simulate")
	out := flag.String("out", "", "output path for the shade table CSV")
	flag.Parse()

	if *fieldID == "" || *year == 0 || *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -field, -year, -out")
	}

	field := domain.Field{ID: *fieldID, Lat: *lat, Lon: *lon}
	records, err := suntracker.Simulate(context.Background(), field, *year, suntracker.DefaultGeometry(), false)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return err
	}
	if err := csvfile.WriteShadeTable(*out, records); err != nil {
		return err
	}
	log.Printf("wrote %d shade records: %s", len(records), *out)

	printStats(records)
	return nil
}

func printStats(records []domain.ShadeRecord) {
	fractions := make([]float64, len(records))
	zeros := 0
	for i, rec := range records {
		fractions[i] = rec.Fraction
		if rec.Fraction == 0 {
			zeros++
		}
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Days: %d (zero shade: %d)\n", len(records), zeros)
	fmt.Printf("Shade fraction: min=%.4f max=%.4f mean=%.4f\n",
		floats.Min(fractions), floats.Max(fractions),
		floats.Sum(fractions)/float64(len(fractions)))

	// Seasonal means, useful for sanity-checking the winter/summer contrast.
	var winter, summer []float64
	for _, rec := range records {
		switch rec.Date.Month {
		case 12, 1, 2:
			winter = append(winter, rec.Fraction)
		case 6, 7, 8:
			summer = append(summer, rec.Fraction)
		}
	}
	if len(winter) > 0 && len(summer) > 0 {
		fmt.Printf("Mean shade: winter=%.4f summer=%.4f\n",
			floats.Sum(winter)/float64(len(winter)),
			floats.Sum(summer)/float64(len(summer)))
	}
}
