package fleetapi

import (
	"context"
	"fmt"
	"net/http"

	"evfleet-console/internal/domain"
	"evfleet-console/internal/ports"
)

func (c *Client) ListRoutes(ctx context.Context) ([]domain.Route, error) {
	return c.listRoutes(ctx, c.baseURL+"/api/routes")
}

func (c *Client) ListRoutesByDriver(ctx context.Context, driverID int64) ([]domain.Route, error) {
	return c.listRoutes(ctx, fmt.Sprintf("%s/api/routes/driver/%d", c.baseURL, driverID))
}

func (c *Client) ListMyRoutes(ctx context.Context) ([]domain.Route, error) {
	return c.listRoutes(ctx, c.baseURL+"/api/routes/my-routes")
}

func (c *Client) ListMyActiveRoutes(ctx context.Context) ([]domain.Route, error) {
	return c.listRoutes(ctx, c.baseURL+"/api/routes/my-routes/active")
}

func (c *Client) listRoutes(ctx context.Context, url string) ([]domain.Route, error) {
	var dtos []routeDTO
	if err := c.getJSON(ctx, url, &dtos); err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}

	routes := make([]domain.Route, 0, len(dtos))
	for _, d := range dtos {
		routes = append(routes, d.toDomain())
	}
	return routes, nil
}

func (c *Client) StartRoute(ctx context.Context, routeID int64) (domain.Route, error) {
	url := fmt.Sprintf("%s/api/routes/%d/start", c.baseURL, routeID)

	var d routeDTO
	if err := c.mutate(ctx, http.MethodPut, url, nil, &d); err != nil {
		return domain.Route{}, fmt.Errorf("start route: %w", err)
	}
	return d.toDomain(), nil
}

func (c *Client) CompleteStop(ctx context.Context, routeID int64, sequence int) (domain.Route, error) {
	url := fmt.Sprintf("%s/api/routes/%d/complete-stop?stopSequence=%d", c.baseURL, routeID, sequence)

	var d routeDTO
	if err := c.mutate(ctx, http.MethodPut, url, nil, &d); err != nil {
		return domain.Route{}, fmt.Errorf("complete stop: %w", err)
	}
	return d.toDomain(), nil
}

func (c *Client) DeleteRoute(ctx context.Context, routeID int64) error {
	url := fmt.Sprintf("%s/api/routes/%d", c.baseURL, routeID)

	if err := c.mutate(ctx, http.MethodDelete, url, nil, nil); err != nil {
		return fmt.Errorf("delete route: %w", err)
	}
	return nil
}

func (c *Client) AssignRoute(ctx context.Context, req ports.AssignRequest) (domain.Route, error) {
	body := assignRequestDTO{
		DriverID:  req.DriverID,
		VehicleID: req.VehicleID,
		OrderIDs:  req.OrderIDs,
	}

	var d routeDTO
	if err := c.mutate(ctx, http.MethodPost, c.baseURL+"/api/routes/assign", body, &d); err != nil {
		return domain.Route{}, fmt.Errorf("assign route: %w", err)
	}
	return d.toDomain(), nil
}

func (c *Client) ApplyOptimization(ctx context.Context, routes []domain.OptimizedRoute, orderIDs []int64) ([]domain.Route, error) {
	body := applyOptimizationDTO{
		Routes:   make([]optimizedRouteDTO, 0, len(routes)),
		OrderIDs: orderIDs,
	}
	for _, r := range routes {
		stops := make([]optimizedStopDTO, 0, len(r.Stops))
		for _, s := range r.Stops {
			stops = append(stops, optimizedStopDTO{
				NodeID: s.NodeID,
				Type:   s.Kind,
				X:      s.X,
				Y:      s.Y,
			})
		}
		body.Routes = append(body.Routes, optimizedRouteDTO{
			VehicleID: r.VehicleID,
			Stops:     stops,
			Distance:  r.Distance,
			Feasible:  r.Feasible,
		})
	}

	var dtos []routeDTO
	if err := c.mutate(ctx, http.MethodPost, c.baseURL+"/api/routes/apply-optimization", body, &dtos); err != nil {
		return nil, fmt.Errorf("apply optimization: %w", err)
	}

	out := make([]domain.Route, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toDomain())
	}
	return out, nil
}
