package usage

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/jinzhu/now"

	"water-app-go/internal/domain/property"
	"water-app-go/internal/domain/supply"
	userdomain "water-app-go/internal/domain/user"
	"water-app-go/internal/domain/waterid"
	"water-app-go/internal/store"
	"water-app-go/pkg/apperr"
	"water-app-go/pkg/events"
	"water-app-go/pkg/logger"
)

const defaultTariffRate = 0.05

type Service struct {
	users     userdomain.Repository
	families  property.FamilyRepository
	now       func() time.Time
	loc       *time.Location
	weekStart time.Weekday
	rate      float64
	publisher events.Publisher
	log       logger.Logger
}

type Option func(*Service)

func WithNow(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithWeekStart(day time.Weekday) Option {
	return func(s *Service) { s.weekStart = day }
}

// WithTariffRate sets the price of one liter used for bill estimates.
func WithTariffRate(rate float64) Option {
	return func(s *Service) { s.rate = rate }
}

func WithPublisher(publisher events.Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithLogger(log logger.Logger) Option {
	return func(s *Service) { s.log = log }
}

func NewService(users userdomain.Repository, families property.FamilyRepository, opts ...Option) *Service {
	s := &Service{
		users:     users,
		families:  families,
		now:       time.Now,
		loc:       time.Local,
		weekStart: time.Sunday,
		rate:      defaultTariffRate,
		publisher: events.Noop(),
		log:       logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dashboard summarises the ledger of the household the user lives in.
func (s *Service) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	ref := s.now().In(s.loc)

	user, err := s.users.Get(ctx, strings.TrimSpace(userID))
	if err != nil {
		return nil, userdomain.Translate(err)
	}
	if !user.Housed() {
		return s.noWater(ref), nil
	}
	rootID, tenantCode, err := waterid.Parse(user.WaterID)
	if err != nil {
		s.log.Warn("usage: malformed water id on user", "user_id", user.UserID, "water_id", user.WaterID)
		return s.noWater(ref), nil
	}

	family, err := s.families.Get(ctx, rootID, tenantCode)
	if errors.Is(err, store.ErrNotFound) {
		return s.noWater(ref), nil
	}
	if err != nil {
		return nil, apperr.Storage("load family record", err)
	}

	dashboard := s.Summarize(family, ref)
	dashboard.WaterID = user.WaterID
	return &dashboard, nil
}

// Summarize folds a family ledger into the figures for the month, week and
// year containing ref. Keys that are not dates and values that are not
// numbers are skipped.
func (s *Service) Summarize(family *property.Family, ref time.Time) Dashboard {
	ref = ref.In(s.loc)
	cal := (&now.Config{WeekStartDay: s.weekStart, TimeLocation: s.loc}).With(ref)

	month := period{from: cal.BeginningOfMonth()}
	month.to = month.from.AddDate(0, 1, 0)
	lastMonth := period{from: month.from.AddDate(0, -1, 0), to: month.from}
	week := period{from: cal.BeginningOfWeek()}
	week.to = week.from.AddDate(0, 0, 7)
	year := period{from: cal.BeginningOfYear()}
	year.to = year.from.AddDate(1, 0, 0)

	d := Dashboard{HasWater: true, NextSupply: nextSupply(ref)}
	daily := make(map[string]float64)

	for key, value := range family.WaterUsage {
		day, ok := ParseDate(key, s.loc)
		if !ok {
			continue
		}
		liters, ok := numeric(value)
		if !ok {
			continue
		}
		if month.contains(day) {
			d.WaterUsedThisMonth += liters
			daily[day.Format(supply.DateLayout)] += liters
		}
		if lastMonth.contains(day) {
			d.WaterUsedLastMonth += liters
		}
		if week.contains(day) {
			d.WaterUsedThisWeek += liters
		}
		if year.contains(day) {
			d.WaterUsedThisYear += liters
		}
	}

	for key, value := range family.Guests {
		day, ok := ParseDate(key, s.loc)
		if !ok || !month.contains(day) {
			continue
		}
		if count, ok := guestCount(value); ok {
			d.GuestsThisMonth += count
		}
	}

	for key, value := range family.Fines {
		day, ok := ParseDate(key, s.loc)
		if !ok || !month.contains(day) {
			continue
		}
		if amount, ok := numeric(value); ok {
			d.FinesThisMonth += amount
		}
	}

	seen := make(map[string]struct{}, len(family.ExtraWaterDates))
	for _, key := range family.ExtraWaterDates {
		day, ok := ParseDate(key, s.loc)
		if !ok || !month.contains(day) {
			continue
		}
		seen[day.Format(supply.DateLayout)] = struct{}{}
	}
	d.ExtraWaterDaysThisMonth = len(seen)

	d.EstimatedBill = s.bill(d.WaterUsedThisMonth)
	d.LastMonthBill = s.bill(d.WaterUsedLastMonth)

	d.Daily = make([]DailyUsage, 0, len(daily))
	for date, liters := range daily {
		d.Daily = append(d.Daily, DailyUsage{Date: date, Liters: liters})
	}
	sort.Slice(d.Daily, func(i, j int) bool { return d.Daily[i].Date < d.Daily[j].Date })
	for _, day := range d.Daily {
		if day.Liters > d.PeakUsage {
			d.PeakDay, d.PeakUsage = day.Date, day.Liters
		}
	}
	if elapsed := ref.Day(); elapsed > 0 {
		d.AverageDailyUsage = d.WaterUsedThisMonth / float64(elapsed)
	}
	return d
}

type RecordInput struct {
	WaterID string
	Date    string
	Liters  float64
}

// RecordReading stores one day's usage for a household, replacing any
// earlier reading for the same date.
func (s *Service) RecordReading(ctx context.Context, input RecordInput) (string, error) {
	rootID, tenantCode, err := waterid.Parse(strings.TrimSpace(input.WaterID))
	if err != nil {
		return "", err
	}
	if input.Liters < 0 || math.IsNaN(input.Liters) || math.IsInf(input.Liters, 0) {
		return "", ErrNegativeReading
	}
	day, ok := ParseDate(input.Date, s.loc)
	if !ok {
		return "", ErrInvalidDate
	}
	date := day.Format(supply.DateLayout)

	if err := s.families.SetUsage(ctx, rootID, tenantCode, date, input.Liters); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrNoWaterService
		}
		return "", apperr.Storage("record usage", err)
	}

	if err := s.publisher.Publish(ctx, events.SubjectUsageRecorded, map[string]any{
		"water_id": waterid.Compose(rootID, tenantCode),
		"date":     date,
		"liters":   input.Liters,
	}); err != nil {
		s.log.Warn("usage: publish event failed", "err", err)
	}
	return date, nil
}

func (s *Service) noWater(ref time.Time) *Dashboard {
	return &Dashboard{Daily: []DailyUsage{}, NextSupply: nextSupply(ref)}
}

func (s *Service) bill(liters float64) int64 {
	return max(int64(math.Round(liters*s.rate)), 0)
}

func nextSupply(ref time.Time) NextSupply {
	next := supply.Next(ref)
	return NextSupply{At: next.At, Label: next.Label, Hours: next.Hours}
}

type period struct {
	from, to time.Time
}

func (p period) contains(t time.Time) bool {
	return !t.Before(p.from) && t.Before(p.to)
}
