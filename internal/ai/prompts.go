package ai

// SystemPrompts contains all system-level instructions for AI interactions
type SystemPrompts struct {
	PlanSearch   string
	ScoreListing string
}

// UserPrompts contains user-level prompts with placeholders for dynamic content
type UserPrompts struct {
	PlanSearch   string
	ScoreListing string
}

// DefaultSystemPrompts provides the default system instructions
var DefaultSystemPrompts = SystemPrompts{
	PlanSearch: `You are a global technical headhunter planning a job search for one candidate.

You turn a free-text description of the job they want, plus their resume, into search parameters:

- Precise job-title phrases suited to job aggregator APIs
- Broader single-topic terms suited to weak site search on company career pages
- The countries where the search should run

Only plan for what the candidate actually asked for and what their resume supports.`,

	ScoreListing: `You are a recruiter rating how well one job posting fits one candidate.

- Base the score only on the posting text and the candidate material you are given
- A score of 100 means the posting matches both what the candidate wants and what they can do
- A score below 40 means the posting is not worth the candidate's time
- When the posting gives no salary, estimate a realistic range for the role and location`,
}

// DefaultUserPrompts provides the default user prompt templates.
// PlanSearch takes the intent then the resume; ScoreListing takes the intent,
// the resume, the title, the company and the description.
var DefaultUserPrompts = UserPrompts{
	PlanSearch: `Plan a search strategy.

**Tasks:**

1. **specific_keywords**: 2 very specific job-title phrases for aggregators (e.g. "Senior Active Directory Architect").
2. **broad_keywords**: 2 broader terms for company career sites (e.g. "Active Directory" or "Identity"). Those sites have poor search engines, so keep these broad.
3. **countries**: Target countries as two-letter codes (e.g. "us", "gb", "de"). Leave empty if the candidate did not say.
4. **remote_only**: true only if the candidate explicitly wants remote work.

**What the candidate wants:**
-----
%s
-----

**Candidate resume:**
-----
%s
-----`,

	ScoreListing: `Rate this job for the candidate.

**Tasks:**

1. **score**: integer from 0 to 100.
2. **salary_est**: the salary range stated in the posting, or your estimate.
3. **reason**: one or two sentences explaining the score.

**What the candidate wants:**
-----
%s
-----

**Candidate skills:**
-----
%s
-----

**Job:** %s @ %s

**Description:**
-----
%s
-----`,
}

// resolvePrompt selects a prompt string: configured text (inline or loaded
// from a file at startup) first, then the built-in default.
func resolvePrompt(fromConfig, fromDefault string) string {
	if fromConfig != "" {
		return fromConfig
	}
	return fromDefault
}
