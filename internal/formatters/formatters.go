package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"hybridhunter/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "SearchReport", &ReportTextFormatter{})
	registry.RegisterFormatter("markdown", "SearchReport", &ReportMarkdownFormatter{})
	registry.RegisterFormatter("text", "SearchPlan", &PlanTextFormatter{})
	registry.RegisterFormatter("markdown", "SearchPlan", &PlanMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.SearchReport:
		return "SearchReport"
	case types.SearchPlan:
		return "SearchPlan"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

func orNone(values []string) string {
	if len(values) == 0 {
		return "(none)"
	}
	return strings.Join(values, ", ")
}

func writePlanText(output *strings.Builder, plan types.SearchPlan) {
	fmt.Fprintf(output, "Keywords:       %s\n", orNone(plan.KeywordVariants))
	fmt.Fprintf(output, "Broad keywords: %s\n", orNone(plan.BroadKeywords))
	fmt.Fprintf(output, "Locations:      %s\n", orNone(plan.TargetLocations))
	fmt.Fprintf(output, "Remote only:    %t\n", plan.RemoteOnly)
}

// PlanTextFormatter handles text formatting for search plans
type PlanTextFormatter struct{}

func (ptf *PlanTextFormatter) Format(data any) (string, error) {
	plan, ok := data.(types.SearchPlan)
	if !ok {
		return "", fmt.Errorf("expected SearchPlan, got %T", data)
	}

	var output strings.Builder
	output.WriteString("=== SEARCH PLAN ===\n")
	writePlanText(&output, plan)
	return output.String(), nil
}

func (ptf *PlanTextFormatter) SupportedType() string {
	return "SearchPlan"
}

// PlanMarkdownFormatter handles markdown formatting for search plans
type PlanMarkdownFormatter struct{}

func (pmf *PlanMarkdownFormatter) Format(data any) (string, error) {
	plan, ok := data.(types.SearchPlan)
	if !ok {
		return "", fmt.Errorf("expected SearchPlan, got %T", data)
	}

	var output strings.Builder
	output.WriteString("# Search Plan\n\n")
	writePlanMarkdown(&output, plan)
	return output.String(), nil
}

func (pmf *PlanMarkdownFormatter) SupportedType() string {
	return "SearchPlan"
}

func writePlanMarkdown(output *strings.Builder, plan types.SearchPlan) {
	fmt.Fprintf(output, "- **Keywords:** %s\n", orNone(plan.KeywordVariants))
	fmt.Fprintf(output, "- **Broad keywords:** %s\n", orNone(plan.BroadKeywords))
	fmt.Fprintf(output, "- **Locations:** %s\n", orNone(plan.TargetLocations))
	fmt.Fprintf(output, "- **Remote only:** %t\n\n", plan.RemoteOnly)
}

// ReportTextFormatter handles text formatting for search reports
type ReportTextFormatter struct{}

func (rtf *ReportTextFormatter) Format(data any) (string, error) {
	report, ok := data.(types.SearchReport)
	if !ok {
		return "", fmt.Errorf("expected SearchReport, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== SEARCH RESULT ===\n")
	fmt.Fprintf(&output, "Status: %s\n", report.Status)
	fmt.Fprintf(&output, "%s\n", report.Message)
	if report.Error != "" {
		fmt.Fprintf(&output, "Error: %s\n", report.Error)
	}
	fmt.Fprintf(&output, "Candidates: %d\n\n", report.Candidates)

	if report.Plan != nil {
		output.WriteString("=== SEARCH PLAN ===\n")
		writePlanText(&output, *report.Plan)
		output.WriteString("\n")
	}

	if len(report.Results) > 0 {
		output.WriteString("=== MATCHES ===\n")
		for i, r := range report.Results {
			fmt.Fprintf(&output, "%d. [%d%%] %s @ %s\n", i+1, r.MatchScore, r.Title, r.Company)
			fmt.Fprintf(&output, "   %s | %s | Salary: %s\n", r.Location, r.Source, r.SalaryEstimate)
			fmt.Fprintf(&output, "   %s\n", r.URL)
			if r.Rationale != "" {
				fmt.Fprintf(&output, "   %s\n", r.Rationale)
			}
		}
	}

	return output.String(), nil
}

func (rtf *ReportTextFormatter) SupportedType() string {
	return "SearchReport"
}

// ReportMarkdownFormatter handles markdown formatting for search reports
type ReportMarkdownFormatter struct{}

func (rmf *ReportMarkdownFormatter) Format(data any) (string, error) {
	report, ok := data.(types.SearchReport)
	if !ok {
		return "", fmt.Errorf("expected SearchReport, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Job Search Results\n\n")
	fmt.Fprintf(&output, "**Status:** %s\n\n", report.Status)
	fmt.Fprintf(&output, "%s\n\n", report.Message)
	if report.Error != "" {
		fmt.Fprintf(&output, "> %s\n\n", report.Error)
	}

	if report.Plan != nil {
		output.WriteString("## Search Plan\n\n")
		writePlanMarkdown(&output, *report.Plan)
	}

	if len(report.Results) > 0 {
		fmt.Fprintf(&output, "## Matches (%d of %d candidates)\n\n", len(report.Results), report.Candidates)
		output.WriteString("| Match % | Title | Company | Source | Location | Salary |\n")
		output.WriteString("|---|---|---|---|---|---|\n")
		for _, r := range report.Results {
			fmt.Fprintf(&output, "| %d | [%s](%s) | %s | %s | %s | %s |\n",
				r.MatchScore, escapeCell(r.Title), r.URL, escapeCell(r.Company),
				escapeCell(r.Source), escapeCell(r.Location), escapeCell(r.SalaryEstimate))
		}
	}

	return output.String(), nil
}

func (rmf *ReportMarkdownFormatter) SupportedType() string {
	return "SearchReport"
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
