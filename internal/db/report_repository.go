package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/unklstewy/uatfeed/internal/report"
)

// ReportRepository handles database operations for the report archive.
type ReportRepository struct {
	db *DB
}

// NewReportRepository creates a new report repository.
func NewReportRepository(db *DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// InsertReport stores one emitted report and refreshes the per-target
// summary row.
func (r *ReportRepository) InsertReport(ctx context.Context, rep report.Report) error {
	ac := &rep.State

	var callsign, squawk sql.NullString
	if ac.Callsign.Valid() {
		callsign = sql.NullString{String: ac.Callsign.Value(), Valid: true}
	}
	if ac.FlightPlanID.Valid() {
		squawk = sql.NullString{String: ac.FlightPlanID.Value(), Valid: true}
	}

	var lat, lon sql.NullFloat64
	if ac.Position.Valid() {
		p := ac.Position.Value()
		lat = sql.NullFloat64{Float64: p.Lat, Valid: true}
		lon = sql.NullFloat64{Float64: p.Lon, Valid: true}
	}

	var altitude, speed sql.NullInt64
	if ac.PressureAltitude.Valid() {
		altitude = sql.NullInt64{Int64: int64(ac.PressureAltitude.Value()), Valid: true}
	}
	if ac.GroundSpeed.Valid() {
		speed = sql.NullInt64{Int64: int64(ac.GroundSpeed.Value()), Valid: true}
	}

	address := fmt.Sprintf("%06X", rep.Key.Address)
	qualifier := rep.Key.Qualifier.String()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reports (
			address, address_qualifier, report_time, line,
			callsign, squawk, latitude, longitude,
			pressure_altitude_ft, ground_speed_kts
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		address, qualifier, rep.Time.UTC(), rep.Line,
		callsign, squawk, lat, lon, altitude, speed,
	)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO aircraft_summary (
			address, address_qualifier, first_report, last_report,
			report_count, last_callsign
		) VALUES ($1, $2, $3, $3, 1, $4)
		ON CONFLICT (address, address_qualifier) DO UPDATE SET
			last_report = EXCLUDED.last_report,
			report_count = aircraft_summary.report_count + 1,
			last_callsign = COALESCE(EXCLUDED.last_callsign, aircraft_summary.last_callsign)`,
		address, qualifier, rep.Time.UTC(), callsign,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert aircraft summary: %w", err)
	}

	return nil
}
