// Command etshade computes shade-adjusted ET for a single field and year.
// It runs interactively by default, prompting for anything not supplied by
// flags, then writes shade, daily adjusted, and annual CSVs.
//
// Shade comes from an existing shade table CSV or, when none is given, from
// the tracker shading simulation. Daily ET comes from an ET CSV or from the
// OpenET API (OPENET_TOKEN required).
//
// Usage:
//
//	go run ./cmd/etshade \
//	  -field field-1 -year 2021 -lat 36.77 -lon -119.42 \
//	  -et-csv data/field-1-et.csv -out-dir out -shapefile
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/greenblume/et-shade-etl/internal/adapter/csvfile"
	"github.com/greenblume/et-shade-etl/internal/adapter/openet"
	"github.com/greenblume/et-shade-etl/internal/adapter/shapefile"
	"github.com/greenblume/et-shade-etl/internal/config"
	"github.com/greenblume/et-shade-etl/internal/domain"
	"github.com/greenblume/et-shade-etl/internal/observability"
	"github.com/greenblume/et-shade-etl/internal/suntracker"
)

// OpenET publishes Ensemble data for these years; the prompt enforces the
// same range so a typo does not turn into an empty API response.
const (
	minYear = 2018
	maxYear = 2022
)

type options struct {
	fieldID  string
	year     int
	lat      float64
	lon      float64
	shadeCSV string
	etCSV    string
	outDir   string
	shape    bool
	policy   string
	noInput  bool
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "etshade: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.fieldID, "field", "", "field identifier")
	flag.IntVar(&opts.year, "year", 0, fmt.Sprintf("calendar year (%d-%d)", minYear, maxYear))
	flag.Float64Var(&opts.lat, "lat", 0, "field latitude in decimal degrees")
	flag.Float64Var(&opts.lon, "lon", 0, "field longitude in decimal degrees")
	flag.StringVar(&opts.shadeCSV, "shade-csv", "", "shade table CSV (default: simulate tracker shading)")
	flag.StringVar(&opts.etCSV, "et-csv", "", "daily ET CSV (default: fetch from OpenET)")
	flag.StringVar(&opts.outDir, "out-dir", ".", "output directory")
	flag.BoolVar(&opts.shape, "shapefile", false, "also write annual totals as a point shapefile")
	flag.StringVar(&opts.policy, "policy", "reject", "missing shade policy: reject or skip")
	flag.BoolVar(&opts.noInput, "no-input", false, "fail instead of prompting for missing values")
	flag.Parse()

	if err := fillFromPrompts(&opts); err != nil {
		return err
	}

	field := domain.Field{ID: opts.fieldID, Lat: opts.lat, Lon: opts.lon}
	if err := field.Validate(); err != nil {
		return err
	}
	if opts.year < minYear || opts.year > maxYear {
		return fmt.Errorf("year %d outside supported range %d-%d", opts.year, minYear, maxYear)
	}
	policy, err := domain.ParseMissingPolicy(opts.policy)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	table, shadeRecords, err := shadeTable(ctx, &opts, field)
	if err != nil {
		return err
	}

	etRecords, err := dailyET(ctx, &opts, field)
	if err != nil {
		return err
	}

	adjusted, skipped, err := table.AdjustAll(etRecords, policy)
	if err != nil {
		return err
	}
	total, err := domain.AggregateAnnual(field.ID, opts.year, adjusted)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	prefix := fmt.Sprintf("%s-%d", field.ID, opts.year)

	shadePath := filepath.Join(opts.outDir, prefix+"-shade.csv")
	if err := csvfile.WriteShadeTable(shadePath, shadeRecords); err != nil {
		return err
	}
	adjustedPath := filepath.Join(opts.outDir, prefix+"-adjusted.csv")
	if err := csvfile.WriteAdjusted(adjustedPath, adjusted); err != nil {
		return err
	}
	annualPath := filepath.Join(opts.outDir, prefix+"-annual.csv")
	if err := csvfile.WriteAnnual(annualPath, []domain.AnnualAdjustedET{total}); err != nil {
		return err
	}
	if opts.shape {
		shapePath := filepath.Join(opts.outDir, prefix+"-annual.shp")
		if err := shapefile.WriteAnnual(shapePath, []domain.Field{field}, []domain.AnnualAdjustedET{total}); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", shapePath)
	}

	printSummary(total, skipped, shadePath, adjustedPath, annualPath)
	return nil
}

// shadeTable loads or simulates the shade table and returns it together with
// its records in date order for the shade CSV output.
func shadeTable(ctx context.Context, opts *options, field domain.Field) (*domain.ShadeTable, []domain.ShadeRecord, error) {
	if opts.shadeCSV != "" {
		table, err := csvfile.ReadShadeTable(opts.shadeCSV)
		if err != nil {
			return nil, nil, err
		}
		return table, table.Records(), nil
	}

	fmt.Printf("simulating tracker shading for %s, %d...\n", field.ID, opts.year)
	records, err := suntracker.Simulate(ctx, field, opts.year, suntracker.DefaultGeometry(), !opts.noInput)
	if err != nil {
		return nil, nil, err
	}

	table := domain.NewShadeTable()
	for _, rec := range records {
		if err := table.Add(rec); err != nil {
			return nil, nil, err
		}
	}
	return table, records, nil
}

// dailyET loads the daily ET series from CSV or fetches it from OpenET.
func dailyET(ctx context.Context, opts *options, field domain.Field) ([]domain.ETRecord, error) {
	if opts.etCSV != "" {
		return csvfile.ReadDailyET(opts.etCSV)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.OpenETToken == "" {
		return nil, fmt.Errorf("no -et-csv given and OPENET_TOKEN is not set")
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	var source domain.ETSource = openet.NewClient(
		cfg.OpenETToken, cfg.OpenETBaseURL, cfg.OpenETTimeout, metrics, logger)
	source = openet.NewCachedSource(source, cfg.OpenETCacheSize, metrics)

	fmt.Printf("fetching daily ET from OpenET for %s, %d...\n", field.ID, opts.year)
	records, err := source.DailyET(ctx, field, opts.year)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("OpenET returned no data for %g,%g in %d", field.Lat, field.Lon, opts.year)
	}
	return records, nil
}

func printSummary(total domain.AnnualAdjustedET, skipped int, paths ...string) {
	fmt.Println()
	fmt.Printf("Field %s, %d (%d days", total.FieldID, total.Year, total.PeriodCount)
	if skipped > 0 {
		fmt.Printf(", %d skipped without shade", skipped)
	}
	fmt.Println(")")
	fmt.Printf("  annual ET:          %.1f mm (%.1f in)\n",
		total.TotalETmm, total.TotalETmm/domain.MMPerInch)
	fmt.Printf("  adjusted annual ET: %.1f mm (%.1f in)\n",
		total.TotalAdjustedETmm, total.TotalAdjustedETmm/domain.MMPerInch)
	fmt.Printf("  water saved:        %.1f mm (%.1f in)\n",
		total.WaterSavedmm, total.WaterSavedmm/domain.MMPerInch)
	fmt.Println()
	for _, p := range paths {
		fmt.Printf("wrote %s\n", p)
	}
}

// --- prompting ---

// needsCoords reports whether the run will actually use the field
// coordinates: simulating shade, fetching ET from OpenET, or placing the
// shapefile point. A run fed entirely from CSVs with no shapefile does not.
func (o *options) needsCoords() bool {
	return o.shadeCSV == "" || o.etCSV == "" || o.shape
}

func fillFromPrompts(opts *options) error {
	needs := opts.fieldID == "" || opts.year == 0 ||
		(opts.lat == 0 && opts.lon == 0 && opts.needsCoords())
	if !needs {
		return nil
	}
	if opts.noInput {
		return fmt.Errorf("missing required flags and -no-input is set")
	}

	in := bufio.NewReader(os.Stdin)
	if opts.fieldID == "" {
		opts.fieldID = promptString(in, "field identifier")
	}
	if opts.year == 0 {
		opts.year = promptInt(in, fmt.Sprintf("year (%d-%d)", minYear, maxYear), minYear, maxYear)
	}
	if opts.lat == 0 && opts.lon == 0 && opts.needsCoords() {
		opts.lat = promptFloat(in, "latitude", -90, 90)
		opts.lon = promptFloat(in, "longitude", -180, 180)
	}
	return nil
}

func promptString(in *bufio.Reader, label string) string {
	for {
		fmt.Printf("%s: ", label)
		line, _ := in.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
}

func promptInt(in *bufio.Reader, label string, lo, hi int) int {
	for {
		fmt.Printf("%s: ", label)
		line, _ := in.ReadString('\n')
		v, err := strconv.Atoi(strings.TrimSpace(line))
		if err == nil && v >= lo && v <= hi {
			return v
		}
		fmt.Printf("please enter a whole number between %d and %d\n", lo, hi)
	}
}

func promptFloat(in *bufio.Reader, label string, lo, hi float64) float64 {
	for {
		fmt.Printf("%s: ", label)
		line, _ := in.ReadString('\n')
		v, err := strconv.ParseFloat(strings.TrimSpace(line), 64)
		if err == nil && v >= lo && v <= hi {
			return v
		}
		fmt.Printf("please enter a number between %g and %g\n", lo, hi)
	}
}
