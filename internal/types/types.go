package types

// NotListed is the placeholder for listing fields a source did not provide
const NotListed = "Not listed"

// SearchPlan represents the structured search parameters derived from user intent
type SearchPlan struct {
	KeywordVariants []string `json:"keywordVariants"` // Precise phrases for aggregator APIs
	BroadKeywords   []string `json:"broadKeywords"`   // Looser terms for site-restricted search
	TargetLocations []string `json:"targetLocations"` // Country names or codes
	RemoteOnly      bool     `json:"remoteOnly"`
}

// Listing represents one normalized job posting
type Listing struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Description string `json:"description"`
	URL         string `json:"url"` // Sole identity key
	Source      string `json:"source"`
	SalaryRaw   string `json:"salaryRaw"`
}

// ScoredListing represents a listing with its fit assessment
type ScoredListing struct {
	Listing
	MatchScore     int    `json:"matchScore"` // 0-100
	SalaryEstimate string `json:"salaryEstimate"`
	Rationale      string `json:"rationale"`
}

// PlanSearchInput represents the input for planning a search
type PlanSearchInput struct {
	Intent     string `json:"intent"`
	ResumeText string `json:"resumeText"`
}

// PlanSearchOutput represents the raw planner response shape
type PlanSearchOutput struct {
	SpecificKeywords []string `json:"specific_keywords"`
	BroadKeywords    []string `json:"broad_keywords"`
	Countries        []string `json:"countries"`
	RemoteOnly       bool     `json:"remote_only"`
}

// ScoreListingInput represents the input for scoring one listing
type ScoreListingInput struct {
	Intent      string `json:"intent"`
	ResumeText  string `json:"resumeText"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Description string `json:"description"`
}

// ScoreListingOutput represents the raw scorer response shape
type ScoreListingOutput struct {
	Score     int    `json:"score"`
	SalaryEst string `json:"salary_est"`
	Reason    string `json:"reason"`
}

// RunStatus is the terminal state of one pipeline run
type RunStatus string

const (
	StatusPlanningFailed RunStatus = "planning_failed"
	StatusNoCandidates   RunStatus = "no_candidates"
	StatusNoMatches      RunStatus = "no_matches"
	StatusDelivered      RunStatus = "delivered"
	StatusDeliveryFailed RunStatus = "delivery_failed"
	StatusCompleted      RunStatus = "completed"
)

// SearchReport is the user-facing result of one run
type SearchReport struct {
	Status     RunStatus       `json:"status"`
	Message    string          `json:"message"`
	Plan       *SearchPlan     `json:"plan,omitempty"`
	Candidates int             `json:"candidates"`
	Results    []ScoredListing `json:"results"`
	Delivered  string          `json:"deliveredTo,omitempty"`
	Error      string          `json:"error,omitempty"`

	Err error `json:"-"`
}
