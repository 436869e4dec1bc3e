package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"kltransit.dev/pipeline/model"
)

type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens (or creates) a database at path. An empty
// path gives an in-memory database.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	_, err = db.Exec(`
CREATE TABLE IF NOT EXISTS stops (
    stop_id INTEGER,
    stop_code TEXT NOT NULL,
    stop_name TEXT NOT NULL,
    street_name TEXT NOT NULL,
    latitude REAL NOT NULL,
    longitude REAL NOT NULL,
    rapid_stop_id INTEGER,
    mrt_stop_id INTEGER,
    old_stop_id TEXT NOT NULL,
PRIMARY KEY (stop_id)
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
    route_id INTEGER,
    route_short_name TEXT NOT NULL,
    route_long_name TEXT NOT NULL,
    operator_id TEXT,
    network_id TEXT,
    route_type INTEGER NOT NULL,
    route_color TEXT NOT NULL,
    route_text_color TEXT NOT NULL,
    trips TEXT NOT NULL,
PRIMARY KEY (route_id)
);

CREATE INDEX IF NOT EXISTS routes_short_name ON routes (route_short_name);
`)
	if err != nil {
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func (s *SQLiteStorage) WriteStops(stops []model.Stop) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
INSERT INTO stops
    (stop_id, stop_code, stop_name, street_name, latitude, longitude, rapid_stop_id, mrt_stop_id, old_stop_id)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (stop_id) DO UPDATE SET
    stop_code = excluded.stop_code,
    stop_name = excluded.stop_name,
    street_name = excluded.street_name,
    latitude = excluded.latitude,
    longitude = excluded.longitude,
    rapid_stop_id = excluded.rapid_stop_id,
    mrt_stop_id = excluded.mrt_stop_id,
    old_stop_id = excluded.old_stop_id`)
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

func (s *SQLiteStorage) WriteServices(services []model.Service) error {
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
VALUES (?, ?, ?, ?, ?)`)
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

func (s *SQLiteStorage) WriteRoutes(routes []model.Route) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
INSERT INTO routes
    (route_id, route_short_name, route_long_name, operator_id, network_id, route_type, route_color, route_text_color, trips)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (route_id) DO UPDATE SET
    route_short_name = excluded.route_short_name,
    route_long_name = excluded.route_long_name,
    operator_id = excluded.operator_id,
    network_id = excluded.network_id,
    route_type = excluded.route_type,
    route_color = excluded.route_color,
    route_text_color = excluded.route_text_color,
    trips = excluded.trips`)
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

func (s *SQLiteStorage) Stops() ([]model.Stop, error) {
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

func (s *SQLiteStorage) Services() ([]model.Service, error) {
	rows, err := s.db.Query(`
SELECT route_number, stop_id, sequence, direction, zone
FROM services ORDER BY route_number, direction, sequence`)
	if err != nil {
		return nil, fmt.Errorf("querying services: %w", err)
	}
	defer rows.Close()

	return scanServices(rows)
}

func (s *SQLiteStorage) Routes() ([]model.Route, error) {
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

func (s *SQLiteStorage) DeleteRoutesWhere(exclude func(string) bool) (int, error) {
	routes, err := s.Routes()
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, route := range routes {
		if !exclude(route.RouteShortName) {
			continue
		}
		if _, err := s.db.Exec(`DELETE FROM routes WHERE route_id = ?`, route.RouteID); err != nil {
			return deleted, fmt.Errorf("deleting route %d: %w", route.RouteID, err)
		}
		deleted++
	}
	return deleted, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Shared row scanning for the sqlite and postgres backends.

func nullableID(id int) interface{} {
	if id == 0 {
		return nil
	}
	return id
}

func marshalTrips(trips []model.Trip) (string, error) {
	if trips == nil {
		trips = []model.Trip{}
	}
	buf, err := json.Marshal(trips)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

func scanStops(rows *sql.Rows) ([]model.Stop, error) {
	stops := []model.Stop{}
	for rows.Next() {
		var stop model.Stop
		var rapidID, mrtID sql.NullInt64
		err := rows.Scan(
			&stop.ID, &stop.Code, &stop.Name, &stop.StreetName,
			&stop.Latitude, &stop.Longitude, &rapidID, &mrtID, &stop.OldStopID)
		if err != nil {
			return nil, fmt.Errorf("scanning stop: %w", err)
		}
		stop.RapidStopID = int(rapidID.Int64)
		stop.MRTStopID = int(mrtID.Int64)
		stops = append(stops, stop)
	}
	return stops, rows.Err()
}

func scanServices(rows *sql.Rows) ([]model.Service, error) {
	services := []model.Service{}
	for rows.Next() {
		var svc model.Service
		err := rows.Scan(&svc.RouteNumber, &svc.StopID, &svc.Sequence, &svc.Direction, &svc.Zone)
		if err != nil {
			return nil, fmt.Errorf("scanning service: %w", err)
		}
		services = append(services, svc)
	}
	return services, rows.Err()
}

func scanRoutes(rows *sql.Rows) ([]model.Route, error) {
	routes := []model.Route{}
	for rows.Next() {
		var route model.Route
		var operatorID, networkID sql.NullString
		var trips string
		err := rows.Scan(
			&route.RouteID, &route.RouteShortName, &route.RouteLongName,
			&operatorID, &networkID, &route.RouteType,
			&route.RouteColor, &route.RouteTextColor, &trips)
		if err != nil {
			return nil, fmt.Errorf("scanning route: %w", err)
		}
		route.OperatorID = operatorID.String
		route.NetworkID = networkID.String
		if err := json.Unmarshal([]byte(trips), &route.Trips); err != nil {
			return nil, fmt.Errorf("unmarshaling trips for route %d: %w", route.RouteID, err)
		}
		routes = append(routes, route)
	}
	return routes, rows.Err()
}
