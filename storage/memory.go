package storage

import (
	"sort"
	"sync"

	"kltransit.dev/pipeline/model"
)

type MemoryStorage struct {
	mu       sync.RWMutex
	stops    map[int]model.Stop
	services []model.Service
	routes   map[int]model.Route
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		stops:  map[int]model.Stop{},
		routes: map[int]model.Route{},
	}
}

func (s *MemoryStorage) WriteStops(stops []model.Stop) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, stop := range stops {
		s.stops[stop.ID] = stop
	}
	return nil
}

func (s *MemoryStorage) WriteServices(services []model.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services = append([]model.Service{}, services...)
	return nil
}

func (s *MemoryStorage) WriteRoutes(routes []model.Route) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, route := range routes {
		s.routes[route.RouteID] = route
	}
	return nil
}

func (s *MemoryStorage) Stops() ([]model.Stop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stops := make([]model.Stop, 0, len(s.stops))
	for _, stop := range s.stops {
		stops = append(stops, stop)
	}
	sort.Slice(stops, func(i, j int) bool {
		return stops[i].ID < stops[j].ID
	})
	return stops, nil
}

func (s *MemoryStorage) Services() ([]model.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Service{}, s.services...), nil
}

func (s *MemoryStorage) Routes() ([]model.Route, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	routes := make([]model.Route, 0, len(s.routes))
	for _, route := range s.routes {
		routes = append(routes, route)
	}
	sort.Slice(routes, func(i, j int) bool {
		return routes[i].RouteID < routes[j].RouteID
	})
	return routes, nil
}

func (s *MemoryStorage) DeleteRoutesWhere(exclude func(string) bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for id, route := range s.routes {
		if exclude(route.RouteShortName) {
			delete(s.routes, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *MemoryStorage) Close() error {
	return nil
}
