package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"kltransit.dev/pipeline/model"
)

type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(connStr string) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	_, err = db.Exec(`
CREATE TABLE IF NOT EXISTS stops (
    stop_id INTEGER PRIMARY KEY,
    stop_code TEXT NOT NULL,
    stop_name TEXT NOT NULL,
    street_name TEXT NOT NULL,
    latitude DOUBLE PRECISION NOT NULL,
    longitude DOUBLE PRECISION NOT NULL,
    rapid_stop_id INTEGER,
    mrt_stop_id INTEGER,
    old_stop_id TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS services (
    route_number TEXT NOT NULL,
    stop_id INTEGER NOT NULL,
    sequence INTEGER NOT NULL,
    direction INTEGER NOT NULL,
    zone INTEGER NOT NULL,
    PRIMARY KEY (route_number, stop_id, direction)
);

CREATE INDEX IF NOT EXISTS services_stop_id ON services (stop_id);

CREATE TABLE IF NOT EXISTS routes (
    route_id INTEGER PRIMARY KEY,
    route_short_name TEXT NOT NULL,
    route_long_name TEXT NOT NULL,
    operator_id TEXT,
    network_id TEXT,
    route_type INTEGER NOT NULL,
    route_color TEXT NOT NULL,
    route_text_color TEXT NOT NULL,
    trips JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS routes_short_name ON routes (route_short_name);
`)
	if err != nil {
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return &PostgresStorage{db: db}, nil
}

func (s *PostgresStorage) WriteStops(stops []model.Stop) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
INSERT INTO stops
    (stop_id, stop_code, stop_name, street_name, latitude, longitude, rapid_stop_id, mrt_stop_id, old_stop_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (stop_id) DO UPDATE SET
    stop_code = EXCLUDED.stop_code,
    stop_name = EXCLUDED.stop_name,
    street_name = EXCLUDED.street_name,
    latitude = EXCLUDED.latitude,
    longitude = EXCLUDED.longitude,
    rapid_stop_id = EXCLUDED.rapid_stop_id,
    mrt_stop_id = EXCLUDED.mrt_stop_id,
    old_stop_id = EXCLUDED.old_stop_id`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, stop := range stops {
		_, err := stmt.Exec(
			stop.ID, stop.Code, stop.Name, stop.StreetName,
			stop.Latitude, stop.Longitude,
			nullableID(stop.RapidStopID), nullableID(stop.MRTStopID),
			stop.OldStopID)
		if err != nil {
			return fmt.Errorf("writing stop %d: %w", stop.ID, err)
		}
	}

	return tx.Commit()
}

func (s *PostgresStorage) WriteServices(services []model.Service) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM services`); err != nil {
		return fmt.Errorf("clearing services: %w", err)
	}

	stmt, err := tx.Prepare(`
INSERT INTO services (route_number, stop_id, sequence, direction, zone)
VALUES ($1, $2, $3, $4, $5)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, svc := range services {
		_, err := stmt.Exec(svc.RouteNumber, svc.StopID, svc.Sequence, svc.Direction, svc.Zone)
		if err != nil {
			return fmt.Errorf("writing service %s/%d: %w", svc.RouteNumber, svc.StopID, err)
		}
	}

	return tx.Commit()
}

func (s *PostgresStorage) WriteRoutes(routes []model.Route) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
INSERT INTO routes
    (route_id, route_short_name, route_long_name, operator_id, network_id, route_type, route_color, route_text_color, trips)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (route_id) DO UPDATE SET
    route_short_name = EXCLUDED.route_short_name,
    route_long_name = EXCLUDED.route_long_name,
    operator_id = EXCLUDED.operator_id,
    network_id = EXCLUDED.network_id,
    route_type = EXCLUDED.route_type,
    route_color = EXCLUDED.route_color,
    route_text_color = EXCLUDED.route_text_color,
    trips = EXCLUDED.trips`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, route := range routes {
		trips, err := marshalTrips(route.Trips)
		if err != nil {
			return fmt.Errorf("marshaling trips for route %d: %w", route.RouteID, err)
		}
		_, err = stmt.Exec(
			route.RouteID, route.RouteShortName, route.RouteLongName,
			route.OperatorID, route.NetworkID, route.RouteType,
			route.RouteColor, route.RouteTextColor, trips)
		if err != nil {
			return fmt.Errorf("writing route %d: %w", route.RouteID, err)
		}
	}

	return tx.Commit()
}

func (s *PostgresStorage) Stops() ([]model.Stop, error) {
	rows, err := s.db.Query(`
SELECT stop_id, stop_code, stop_name, street_name, latitude, longitude,
       rapid_stop_id, mrt_stop_id, old_stop_id
FROM stops ORDER BY stop_id`)
	if err != nil {
		return nil, fmt.Errorf("querying stops: %w", err)
	}
	defer rows.Close()

	return scanStops(rows)
}

func (s *PostgresStorage) Services() ([]model.Service, error) {
	rows, err := s.db.Query(`
SELECT route_number, stop_id, sequence, direction, zone
FROM services ORDER BY route_number, direction, sequence`)
	if err != nil {
		return nil, fmt.Errorf("querying services: %w", err)
	}
	defer rows.Close()

	return scanServices(rows)
}

func (s *PostgresStorage) Routes() ([]model.Route, error) {
	rows, err := s.db.Query(`
SELECT route_id, route_short_name, route_long_name, operator_id, network_id,
       route_type, route_color, route_text_color, trips
FROM routes ORDER BY route_id`)
	if err != nil {
		return nil, fmt.Errorf("querying routes: %w", err)
	}
	defer rows.Close()

	return scanRoutes(rows)
}

func (s *PostgresStorage) DeleteRoutesWhere(exclude func(string) bool) (int, error) {
	routes, err := s.Routes()
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, route := range routes {
		if !exclude(route.RouteShortName) {
			continue
		}
		if _, err := s.db.Exec(`DELETE FROM routes WHERE route_id = $1`, route.RouteID); err != nil {
			return deleted, fmt.Errorf("deleting route %d: %w", route.RouteID, err)
		}
		deleted++
	}
	return deleted, nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
