// Package catalogsync pulls the public charger feed into the station catalog.
package catalogsync

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"evcharge/backend/libs/events"
	"evcharge/backend/libs/geo"
	"evcharge/backend/libs/metrics"
	"evcharge/backend/services/stations-service/internal/feed"
	"evcharge/backend/services/stations-service/internal/models"
)

const (
	defaultPageSize = 500
	defaultMaxPages = 3
)

// Fetcher reads one page of the provider feed.
type Fetcher interface {
	Fetch(ctx context.Context, page, pageSize int, region string) (*feed.Page, error)
}

// CatalogStore applies one page of stations and chargers atomically.
type CatalogStore interface {
	UpsertBatch(ctx context.Context, stations []models.Station, chargers []models.Charger) error
}

// Options bounds one refresh.
type Options struct {
	PageSize int
	MaxPages int
}

// Result summarizes a refresh. Pages counts committed pages only.
type Result struct {
	Region   string `json:"region"`
	Pages    int    `json:"pages"`
	Stations int    `json:"stations"`
	Chargers int    `json:"chargers"`
	Skipped  int    `json:"skipped"`
}

// Pipeline coordinates fetch and upsert. Fetches never run inside a write transaction.
type Pipeline struct {
	fetcher Fetcher
	store   CatalogStore
	events  events.Publisher
	metrics *metrics.Metrics
	logger  *zap.Logger
	opts    Options
	now     func() time.Time
}

// NewPipeline builds a pipeline. Publisher and metrics may be nil.
func NewPipeline(fetcher Fetcher, store CatalogStore, publisher events.Publisher, m *metrics.Metrics, opts Options, logger *zap.Logger) *Pipeline {
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = defaultMaxPages
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		fetcher: fetcher,
		store:   store,
		events:  publisher,
		metrics: m,
		logger:  logger,
		opts:    opts,
		now:     time.Now,
	}
}

// Refresh walks pages 1..MaxPages until the feed runs dry. A failing page stops the run;
// pages committed before it stay committed.
func (p *Pipeline) Refresh(ctx context.Context, region string) (Result, error) {
	region = strings.TrimSpace(region)
	started := p.now()
	res := Result{Region: region}
	logger := p.logger.With(zap.String("region", region))

	var runErr error
	for page := 1; page <= p.opts.MaxPages; page++ {
		fetched, err := p.fetcher.Fetch(ctx, page, p.opts.PageSize, region)
		if err != nil {
			runErr = fmt.Errorf("fetch page %d: %w", page, err)
			break
		}
		if fetched.IsEmpty() {
			break
		}
		applied, err := p.applyPage(ctx, fetched.Items.Item)
		if err != nil {
			runErr = fmt.Errorf("apply page %d: %w", page, err)
			break
		}
		res.Pages++
		res.Stations += applied.Stations
		res.Chargers += applied.Chargers
		res.Skipped += applied.Skipped
		logger.Debug("catalog page applied",
			zap.Int("page", page),
			zap.Int("stations", applied.Stations),
			zap.Int("chargers", applied.Chargers),
		)
	}

	elapsed := p.now().Sub(started)
	p.metrics.RecordSync(res.Pages, res.Stations+res.Chargers, res.Skipped, elapsed, runErr)

	if runErr != nil {
		logger.Error("catalog sync failed",
			zap.Int("committed_pages", res.Pages),
			zap.Error(runErr),
		)
		return res, runErr
	}

	logger.Info("catalog sync completed",
		zap.Int("pages", res.Pages),
		zap.Int("stations", res.Stations),
		zap.Int("chargers", res.Chargers),
		zap.Int("skipped", res.Skipped),
		zap.Duration("elapsed", elapsed),
	)
	if err := p.events.Publish(ctx, events.Event{
		Type:       events.TypeCatalogSynced,
		Key:        region,
		OccurredAt: p.now(),
		Payload:    res,
	}); err != nil {
		logger.Warn("publish catalog event", zap.Error(err))
	}
	return res, nil
}

type pageResult struct {
	Stations int
	Chargers int
	Skipped  int
}

// applyPage translates one page and writes it in a single store call.
func (p *Pipeline) applyPage(ctx context.Context, items []feed.Item) (pageResult, error) {
	now := p.now().UTC()
	stations := make([]models.Station, 0, len(items))
	chargers := make([]models.Charger, 0, len(items))
	seenStations := make(map[string]struct{}, len(items))
	seenChargers := make(map[string]struct{}, len(items))
	var out pageResult

	for _, item := range items {
		station, charger, err := translate(item, now)
		if err != nil {
			out.Skipped++
			p.logger.Warn("skip feed item",
				zap.String("station_id", item.StatID.String()),
				zap.String("charger_id", item.ChgerID.String()),
				zap.Error(err),
			)
			continue
		}
		if _, ok := seenStations[station.ID]; !ok {
			seenStations[station.ID] = struct{}{}
			stations = append(stations, station)
		}
		if _, ok := seenChargers[charger.ID]; ok {
			continue
		}
		seenChargers[charger.ID] = struct{}{}
		chargers = append(chargers, charger)
	}

	if len(stations) == 0 && len(chargers) == 0 {
		return out, nil
	}
	if err := p.store.UpsertBatch(ctx, stations, chargers); err != nil {
		return out, err
	}
	out.Stations = len(stations)
	out.Chargers = len(chargers)
	return out, nil
}

var errBadItem = errors.New("malformed feed item")

func translate(item feed.Item, now time.Time) (models.Station, models.Charger, error) {
	stationID := strings.TrimSpace(item.StatID.String())
	providerID := strings.TrimSpace(item.ChgerID.String())
	if stationID == "" || providerID == "" {
		return models.Station{}, models.Charger{}, fmt.Errorf("%w: missing identifiers", errBadItem)
	}
	point, err := parsePoint(item.Lat.String(), item.Lng.String())
	if err != nil {
		return models.Station{}, models.Charger{}, err
	}

	station := models.Station{
		ID:        stationID,
		Name:      strings.TrimSpace(item.StatNm.String()),
		Address:   strings.TrimSpace(item.Addr.String()),
		Lat:       point.Lat,
		Lng:       point.Lng,
		UpdatedAt: now,
	}
	charger := models.Charger{
		ID:                ChargerID(stationID, providerID),
		StationID:         stationID,
		ProviderChargerID: providerID,
		Name:              strings.TrimSpace(item.ChgerNm.String()),
		Status:            NormalizeStatus(item.Stat.String()),
		PowerClass:        ClassifyPower(item.PowerType.String(), item.ChgerType.String()),
		ConnectorType:     ConnectorLabel(item.ChgerType.String()),
		StatusUpdatedAt:   strings.TrimSpace(item.StatUpdDt.String()),
		UpdatedAt:         now,
	}
	return station, charger, nil
}

func parsePoint(latText, lngText string) (geo.Point, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(latText), 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("%w: lat %q", errBadItem, latText)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngText), 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("%w: lng %q", errBadItem, lngText)
	}
	point := geo.Point{Lat: lat, Lng: lng}
	if !point.Valid() || (lat == 0 && lng == 0) {
		return geo.Point{}, fmt.Errorf("%w: coordinates out of range", errBadItem)
	}
	return point, nil
}
