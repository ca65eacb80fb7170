package domain

type PriorityFactors struct {
	DaysSinceLastService int  `json:"days_since_last_service"`
	PreferenceMatch      bool `json:"preference_match"`
	ServiceComplexity    int  `json:"service_complexity"`
}

// CustomerPriority is recomputed every planning cycle and never persisted.
type CustomerPriority struct {
	CustomerID string          `json:"customer_id"`
	Score      float64         `json:"score"`
	Factors    PriorityFactors `json:"factors"`
}
