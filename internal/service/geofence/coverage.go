package geofence

import (
	"context"
	"fmt"
	"math"

	"github.com/cmlabs-hris/hris-timesheet-go/internal/domain/geofence"
	"github.com/shopspring/decimal"
)

type coverageServiceImpl struct {
	geofence.CoverageRepository
}

func NewCoverageService(coverageRepo geofence.CoverageRepository) geofence.CoverageService {
	return &coverageServiceImpl{CoverageRepository: coverageRepo}
}

// WorkAreaCoverage implements geofence.CoverageService.
func (s *coverageServiceImpl) WorkAreaCoverage(ctx context.Context, filter geofence.CoverageFilter) (geofence.CoverageResponse, error) {
	if err := filter.Validate(); err != nil {
		return geofence.CoverageResponse{}, err
	}

	totals, err := s.CoverageRepository.Totals(ctx, filter)
	if err != nil {
		return geofence.CoverageResponse{}, fmt.Errorf("failed to aggregate coverage: %w", err)
	}
	zones, err := s.CoverageRepository.ZoneUtilization(ctx, filter)
	if err != nil {
		return geofence.CoverageResponse{}, fmt.Errorf("failed to aggregate zone utilization: %w", err)
	}
	if zones == nil {
		zones = []geofence.ZoneUtilization{}
	}

	counts := totals.Counts
	return geofence.CoverageResponse{
		TotalEntries:     counts.Total,
		InsideCount:      counts.Inside,
		OutsideCount:     counts.Outside,
		NoZoneCount:      counts.NoZone,
		UncheckedCount:   counts.Unchecked,
		CoverageRate:     percentage(counts.Inside, counts.Inside+counts.Outside),
		TotalHours:       totals.TotalHours,
		InsideHours:      totals.InsideHours,
		OutsideHours:     totals.OutsideHours,
		TimeCoverageRate: hoursPercentage(totals.InsideHours, totals.InsideHours.Add(totals.OutsideHours)),
		PerZoneBreakdown: zones,
	}, nil
}

// percentage returns part/whole as a percentage rounded to two decimals, 0 when whole is 0.
func percentage(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*10000) / 100
}

func hoursPercentage(part, whole decimal.Decimal) float64 {
	if whole.IsZero() {
		return 0
	}
	return part.Div(whole).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
}
