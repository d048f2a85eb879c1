package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"

	"evfleet-console/internal/adapters/fleetapi"
	"evfleet-console/internal/adapters/optimizer"
	"evfleet-console/internal/adapters/poscache"
	"evfleet-console/internal/adapters/snapshot"
	"evfleet-console/internal/config"
	"evfleet-console/internal/domain"
	"evfleet-console/internal/platform/db"
	"evfleet-console/internal/ports"
	"evfleet-console/internal/services"
	"evfleet-console/internal/session"
	routesync "evfleet-console/internal/sync"
)

// main is the composition root. It wires the fleet API and optimizer
// clients behind ports, selects a snapshot store (postgres when
// DATABASE_URL is set, a local sqlite file otherwise), and dispatches one
// of the console commands:
//
//	watch          run the background sync loop for the configured view
//	start          transition a PLANNED route to IN_PROGRESS
//	complete-stop  mark one stop of an IN_PROGRESS route complete
//	delete         remove a route
//	assign         create a route manually for a driver/vehicle pair
//	optimize       request an optimization candidate, optionally apply it
//	overview       print the last stored snapshot and cached positions
func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "no .env file found (using environment variables)")
	}
	log := newLogger()

	cmd := "watch"
	args := os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd = args[0]
		args = args[1:]
	}

	a, cleanup, err := buildApp(log)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "watch":
		err = a.watch(ctx)
	case "start":
		err = a.startRoute(ctx, args)
	case "complete-stop":
		err = a.completeStop(ctx, args)
	case "delete":
		err = a.deleteRoute(ctx, args)
	case "optimize":
		err = a.optimize(ctx, args)
	case "assign":
		err = a.assign(ctx, args)
	case "overview":
		err = a.overview(ctx)
	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", cmd).Msg("command failed")
	}
}

func newLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(config.Get("LOG_LEVEL", "info"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}

type app struct {
	log       zerolog.Logger
	sess      *session.Session
	api       *fleetapi.Client
	prog      *services.Progression
	rec       *services.Reconciler // nil unless OPTIMIZER_URL is set
	ws        *services.Workspace
	sched     *routesync.Scheduler
	positions *poscache.RedisPositionCache // nil unless REDIS_ADDRESS is set
	depot     domain.LatLng
	view      string
	interval  time.Duration
}

type logNotifier struct{ log zerolog.Logger }

func (n logNotifier) Notify(message string) {
	n.log.Warn().Msg(message)
}

func buildApp(log zerolog.Logger) (*app, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	apiURL := os.Getenv("FLEET_API_URL")
	if strings.TrimSpace(apiURL) == "" {
		return nil, cleanup, errors.New("FLEET_API_URL is required")
	}
	token := os.Getenv("API_TOKEN")
	if strings.TrimSpace(token) == "" {
		return nil, cleanup, errors.New("API_TOKEN is required")
	}

	user := session.User{
		ID:       config.GetInt64("USER_ID", 0),
		Username: config.Get("USERNAME", ""),
		Role:     config.Get("ROLE", "DRIVER"),
		DriverID: config.GetInt64("DRIVER_ID", 0),
	}
	sess := session.New(user, token)

	api, err := fleetapi.New(apiURL, sess, log)
	if err != nil {
		return nil, cleanup, err
	}

	view := "dispatch"
	if user.Role == "DRIVER" {
		view = "driver:" + strconv.FormatInt(user.DriverID, 10)
	}

	store, closeStore, err := openSnapshotStore(log)
	if err != nil {
		return nil, cleanup, err
	}
	closers = append(closers, closeStore)

	var positions *poscache.RedisPositionCache
	if addr := os.Getenv("REDIS_ADDRESS"); addr != "" {
		positions, err = poscache.NewRedisPositionCache(addr, os.Getenv("REDIS_PASSWORD"))
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, func() { positions.Close() })
	}

	depot := domain.LatLng{
		Lat: config.GetFloat("DEPOT_LAT", 0),
		Lng: config.GetFloat("DEPOT_LNG", 0),
	}

	ws := services.NewWorkspace()
	fetch := api.ListRoutes
	if user.Role == "DRIVER" {
		fetch = api.ListMyRoutes
	}

	a := &app{
		log:       log,
		sess:      sess,
		api:       api,
		prog:      services.NewProgression(api, log),
		ws:        ws,
		positions: positions,
		depot:     depot,
		view:      view,
		interval:  config.GetDuration("SYNC_INTERVAL", 30*time.Second),
	}

	a.sched = routesync.New(routesync.Config{
		View:     view,
		Fetch:    fetch,
		Apply:    a.applySnapshot,
		Interval: a.interval,
		Store:    store,
		Notifier: logNotifier{log: log},
		Log:      log,
	})

	if optURL := os.Getenv("OPTIMIZER_URL"); optURL != "" {
		opt, err := optimizer.New(optURL, log)
		if err != nil {
			return nil, cleanup, err
		}
		refresh := func(ctx context.Context) {
			if err := a.sched.Refresh(ctx); err != nil {
				log.Warn().Err(err).Msg("post-apply refresh failed")
			}
		}
		a.rec = services.NewReconciler(opt, api, refresh, log)
	}

	return a, cleanup, nil
}

// openSnapshotStore picks postgres when DATABASE_URL is set, otherwise a
// local sqlite file; schemas are created on startup either way.
func openSnapshotStore(log zerolog.Logger) (ports.SnapshotStore, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		pg, err := db.Open(databaseURL)
		if err != nil {
			return nil, func() {}, err
		}
		if err := snapshot.InitSchema(ctx, pg); err != nil {
			pg.Close()
			return nil, func() {}, err
		}
		return snapshot.NewSQLSnapshotStore(pg, log), func() { pg.Close() }, nil
	}

	path := config.Get("SNAPSHOT_DB", "data/snapshots.db")
	local, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, func() {}, fmt.Errorf("open sqlite database %q: %w", path, err)
	}
	store := snapshot.NewSqliteSnapshotStore(local)
	if err := store.Init(ctx); err != nil {
		local.Close()
		return nil, func() {}, err
	}
	return store, func() { local.Close() }, nil
}

// applySnapshot receives each successful fetch: the workspace is replaced
// wholesale and fresh position estimates are pushed to the cache.
func (a *app) applySnapshot(routes []domain.Route, fetchedAt time.Time) {
	a.ws.Replace(routes, fetchedAt)

	if a.positions == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.positions.SetAll(ctx, services.FleetPositions(a.ws.Routes(), a.depot)); err != nil {
		a.log.Warn().Err(err).Msg("position cache update failed")
	}
}

// watch runs the sync loop until interrupted. The stored snapshot is shown
// first so the view is populated before the initial fetch completes.
func (a *app) watch(ctx context.Context) error {
	if routes, at, err := a.sched.LastGood(ctx); err != nil {
		a.log.Warn().Err(err).Msg("stored snapshot unavailable")
	} else if routes != nil {
		a.ws.Replace(routes, at)
		a.log.Info().Int("routes", len(routes)).Time("fetched_at", at).Msg("restored stored snapshot")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.sched.Run(ctx)
		return nil
	})
	g.Go(func() error {
		return a.heartbeat(ctx)
	})
	return g.Wait()
}

// heartbeat logs a workspace summary every interval and stops the console
// when the session has been invalidated by a 401.
func (a *app) heartbeat(ctx context.Context) error {
	interval := a.interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if !a.sess.Valid() {
				return errors.New("session invalidated, sign in again")
			}
			ev := a.log.Info().Str("view", a.view)
			for status, n := range a.ws.CountByStatus() {
				ev = ev.Int(strings.ToLower(string(status)), n)
			}
			if active, ok := a.ws.ActiveRoute(); ok {
				ev = ev.Int64("active_route", active.ID).
					Int("completed", active.CompletedCount()).
					Int("total", len(active.Stops))
			}
			ev.Msg("workspace")
		}
	}
}

func (a *app) startRoute(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("start", flag.ContinueOnError)
	routeID := fs.Int64("route", 0, "route id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	route, err := a.findRoute(ctx, *routeID)
	if err != nil {
		return err
	}
	updated, err := a.prog.Start(ctx, route)
	if err != nil {
		return err
	}
	a.ws.Update(updated)
	return nil
}

func (a *app) completeStop(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("complete-stop", flag.ContinueOnError)
	routeID := fs.Int64("route", 0, "route id")
	sequence := fs.Int("stop", 0, "stop sequence")
	if err := fs.Parse(args); err != nil {
		return err
	}

	route, err := a.findRoute(ctx, *routeID)
	if err != nil {
		return err
	}
	updated, err := a.prog.CompleteStop(ctx, route, *sequence)
	if err != nil {
		return err
	}
	a.ws.Update(updated)
	return nil
}

func (a *app) deleteRoute(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	routeID := fs.Int64("route", 0, "route id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	route, err := a.findRoute(ctx, *routeID)
	if err != nil {
		return err
	}
	if err := a.prog.Delete(ctx, route); err != nil {
		return err
	}
	a.ws.Remove(route.ID)
	return nil
}

func (a *app) optimize(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("optimize", flag.ContinueOnError)
	orders := fs.String("orders", "", "comma-separated order ids")
	drivers := fs.String("drivers", "", "comma-separated driver ids")
	stations := fs.String("stations", "", "comma-separated station ids")
	mode := fs.String("mode", string(domain.ChargingFullRecharge), "charging mode")
	swapTime := fs.Float64("swap-time", 0, "battery swap time in hours")
	parallel := fs.Bool("parallel", false, "allow parallel charging")
	apply := fs.Bool("apply", false, "apply the candidate when feasible")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if a.rec == nil {
		return errors.New("OPTIMIZER_URL is not configured")
	}

	orderIDs, err := parseIDList(*orders)
	if err != nil {
		return fmt.Errorf("parse -orders: %w", err)
	}
	driverIDs, err := parseIDList(*drivers)
	if err != nil {
		return fmt.Errorf("parse -drivers: %w", err)
	}
	stationIDs, err := parseIDList(*stations)
	if err != nil {
		return fmt.Errorf("parse -stations: %w", err)
	}

	req := ports.OptimizationRequest{
		OrderIDs:             orderIDs,
		DriverIDs:            driverIDs,
		StationIDs:           stationIDs,
		ChargingMode:         domain.ChargingMode(*mode),
		BatterySwapTimeHours: *swapTime,
		Parallel:             *parallel,
	}
	if a.depot != (domain.LatLng{}) {
		req.Depot = &a.depot
	}

	cand, err := a.rec.Request(ctx, req)
	if err != nil {
		return err
	}

	if cand.Summary.InsufficientDrivers {
		a.log.Warn().
			Int("required", cand.Summary.RequiredDriverCount).
			Int("available", cand.Summary.AvailableDriverCount).
			Msg("not enough available drivers for this plan")
	}
	if !*apply {
		a.rec.Discard()
		return nil
	}

	routes, err := a.rec.Apply(ctx)
	if err != nil {
		return err
	}
	a.log.Info().Int("routes", len(routes)).Msg("routes persisted")
	return nil
}

// assign creates one route manually, bypassing optimization.
func (a *app) assign(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("assign", flag.ContinueOnError)
	driverID := fs.Int64("driver", 0, "driver id")
	vehicleID := fs.Int64("vehicle", 0, "vehicle id")
	orders := fs.String("orders", "", "comma-separated order ids")
	if err := fs.Parse(args); err != nil {
		return err
	}

	orderIDs, err := parseIDList(*orders)
	if err != nil {
		return fmt.Errorf("parse -orders: %w", err)
	}
	route, err := a.api.AssignRoute(ctx, ports.AssignRequest{
		DriverID:  *driverID,
		VehicleID: *vehicleID,
		OrderIDs:  orderIDs,
	})
	if err != nil {
		return err
	}
	a.ws.Update(route)
	a.log.Info().Int64("route_id", route.ID).Int("stops", len(route.Stops)).Msg("route assigned")
	return nil
}

// overview prints the stored snapshot and any cached position estimates
// without touching the network.
func (a *app) overview(ctx context.Context) error {
	routes, at, err := a.sched.LastGood(ctx)
	if err != nil {
		return err
	}
	if routes == nil {
		a.log.Info().Str("view", a.view).Msg("no stored snapshot")
		return nil
	}

	a.ws.Replace(routes, at)
	ev := a.log.Info().Str("view", a.view).Time("fetched_at", at)
	for status, n := range a.ws.CountByStatus() {
		ev = ev.Int(strings.ToLower(string(status)), n)
	}
	ev.Msg("stored snapshot")

	if a.positions != nil {
		cached, err := a.positions.GetAll(ctx)
		if err != nil {
			return err
		}
		for _, p := range cached {
			a.log.Info().
				Int64("route_id", p.RouteID).
				Str("driver", p.DriverName).
				Float64("lat", p.Position.Lat).
				Float64("lng", p.Position.Lng).
				Msg("estimated position")
		}
	}
	return nil
}

func (a *app) findRoute(ctx context.Context, routeID int64) (domain.Route, error) {
	if routeID == 0 {
		return domain.Route{}, errors.New("-route is required")
	}
	routes, err := a.api.ListRoutes(ctx)
	if err != nil {
		return domain.Route{}, err
	}
	for _, r := range routes {
		if r.ID == routeID {
			return r, nil
		}
	}
	return domain.Route{}, fmt.Errorf("route %d not found", routeID)
}

func parseIDList(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
