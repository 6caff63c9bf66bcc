package summary

import (
	"context"
	"database/sql"
	"fmt"
)

const (
	adoptionRateQuery = `SELECT ANIMAL_TYPE, COUNT(*) AS TOTAL, SUM(ADOPTION) AS ADOPTED
FROM CLEAN_OUTCOMES
GROUP BY ANIMAL_TYPE
ORDER BY TOTAL DESC`

	outcomeBreakdownQuery = `SELECT OUTCOME_TYPE, COUNT(*) AS CNT
FROM CLEAN_OUTCOMES
GROUP BY OUTCOME_TYPE
ORDER BY CNT DESC`

	ageBucketQuery = `SELECT
  CASE
    WHEN AGE_IN_DAYS IS NULL THEN 'unknown'
    WHEN AGE_IN_DAYS < 365 THEN 'under 1 year'
    WHEN AGE_IN_DAYS < 1095 THEN '1-3 years'
    WHEN AGE_IN_DAYS < 2555 THEN '3-7 years'
    ELSE '7+ years'
  END AS BUCKET,
  COUNT(*) AS TOTAL,
  SUM(ADOPTION) AS ADOPTED
FROM CLEAN_OUTCOMES
GROUP BY 1
ORDER BY TOTAL DESC`

	totalQuery = `SELECT COUNT(*) FROM CLEAN_OUTCOMES`
)

// Service answers aggregate questions over the cleaned outcomes view.
type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Report runs every aggregation and assembles the full report.
func (s *Service) Report(ctx context.Context) (*Report, error) {
	total, err := s.TotalRecords(ctx)
	if err != nil {
		return nil, err
	}
	rates, err := s.AdoptionRates(ctx)
	if err != nil {
		return nil, err
	}
	outcomes, err := s.OutcomeBreakdown(ctx)
	if err != nil {
		return nil, err
	}
	buckets, err := s.AgeBuckets(ctx)
	if err != nil {
		return nil, err
	}
	return &Report{
		TotalRecords:  total,
		AdoptionRates: rates,
		Outcomes:      outcomes,
		AgeBuckets:    buckets,
	}, nil
}

// TotalRecords counts the usable cleaned rows.
func (s *Service) TotalRecords(ctx context.Context) (int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, totalQuery).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count clean outcomes: %w", err)
	}
	return total, nil
}

// AdoptionRates returns the adoption share per animal type, most common
// type first.
func (s *Service) AdoptionRates(ctx context.Context) ([]AdoptionRate, error) {
	rows, err := s.db.QueryContext(ctx, adoptionRateQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query adoption rates: %w", err)
	}
	defer rows.Close()

	var rates []AdoptionRate
	for rows.Next() {
		var r AdoptionRate
		if err := rows.Scan(&r.AnimalType, &r.Total, &r.Adopted); err != nil {
			return nil, fmt.Errorf("failed to scan adoption rate row: %w", err)
		}
		if r.Total > 0 {
			r.AdoptionRate = float64(r.Adopted) / float64(r.Total)
		}
		rates = append(rates, r)
	}
	return rates, rows.Err()
}

// OutcomeBreakdown returns the count per outcome type, most common first.
func (s *Service) OutcomeBreakdown(ctx context.Context) ([]OutcomeCount, error) {
	rows, err := s.db.QueryContext(ctx, outcomeBreakdownQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query outcome breakdown: %w", err)
	}
	defer rows.Close()

	var counts []OutcomeCount
	for rows.Next() {
		var c OutcomeCount
		if err := rows.Scan(&c.OutcomeType, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan outcome row: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// AgeBuckets groups outcomes into age ranges with per-bucket adoption rates.
// Rows with an unparseable age land in the unknown bucket.
func (s *Service) AgeBuckets(ctx context.Context) ([]AgeBucket, error) {
	rows, err := s.db.QueryContext(ctx, ageBucketQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query age buckets: %w", err)
	}
	defer rows.Close()

	var buckets []AgeBucket
	for rows.Next() {
		var b AgeBucket
		if err := rows.Scan(&b.Bucket, &b.Total, &b.Adopted); err != nil {
			return nil, fmt.Errorf("failed to scan age bucket row: %w", err)
		}
		if b.Total > 0 {
			b.AdoptionRate = float64(b.Adopted) / float64(b.Total)
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}
