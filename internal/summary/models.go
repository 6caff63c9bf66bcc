package summary

// AdoptionRate is the adoption share for one animal type.
type AdoptionRate struct {
	AnimalType   string  `json:"animal_type"`
	Total        int     `json:"total"`
	Adopted      int     `json:"adopted"`
	AdoptionRate float64 `json:"adoption_rate"`
}

// OutcomeCount is the row count for one outcome type.
type OutcomeCount struct {
	OutcomeType string `json:"outcome_type"`
	Count       int    `json:"count"`
}

// AgeBucket groups outcomes by age range at the time of the outcome.
type AgeBucket struct {
	Bucket       string  `json:"bucket"`
	Total        int     `json:"total"`
	Adopted      int     `json:"adopted"`
	AdoptionRate float64 `json:"adoption_rate"`
}

// Report aggregates the cleaned outcomes into the shapes the dashboard
// endpoints serve.
type Report struct {
	TotalRecords  int            `json:"total_records"`
	AdoptionRates []AdoptionRate `json:"adoption_rates"`
	Outcomes      []OutcomeCount `json:"outcomes"`
	AgeBuckets    []AgeBucket    `json:"age_buckets"`
}
