package domain

// DashboardStats summarizes the lead pipeline and record counts.
type DashboardStats struct {
	TotalLeads       int64                `json:"total_leads"`
	LeadsByStatus    map[LeadStatus]int64 `json:"leads_by_status"`
	PipelineValue    float64              `json:"pipeline_value"`
	ConversionRate   float64              `json:"conversion_rate"`
	TotalContacts    int64                `json:"total_contacts"`
	OpenActivities   int64                `json:"open_activities"`
	ActivitiesDueNow int64                `json:"activities_due"`
}

// StatusCount is one row of a GROUP BY status query.
type StatusCount struct {
	Status LeadStatus `db:"status"`
	Count  int64      `db:"count"`
	Value  float64    `db:"value"`
}
