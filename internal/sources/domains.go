package sources

import (
	"fmt"
	"math/rand"
	"os"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultDomains are the career sites searched when no domain file is configured
var DefaultDomains = []string{
	// Big tech
	"careers.microsoft.com", "amazon.jobs", "careers.google.com",
	"netflix.com/jobs", "careers.apple.com", "meta.com/careers",
	"salesforce.com/company/careers", "oracle.com/careers",
	"cisco.com/c/en/us/about/careers", "ibm.com/careers", "intel.com/jobs",
	"nvidia.com/en-us/about-nvidia/careers", "adobe.com/careers",

	// Consulting and enterprise
	"careers.deloitte.com", "accenture.com", "capgemini.com",
	"mckinsey.com/careers", "bcg.com/careers", "bain.com/careers",
	"kpmg.com/careers", "pwc.com/careers", "ey.com/careers",

	// Cloud and infrastructure
	"vmware.com/careers", "redhat.com/en/jobs", "servicenow.com/careers",
	"workday.com/en-us/company/careers", "splunk.com/careers",
	"paloaltonetworks.com/company/careers", "fortinet.com/careers",

	"dgrsystems.com", "bedroc.com",
}

// DomainList is a concurrency-safe, replaceable list of site domains
type DomainList struct {
	mu      sync.RWMutex
	domains []string
}

// NewDomainList creates a list holding a cleaned copy of domains
func NewDomainList(domains []string) *DomainList {
	return &DomainList{domains: cleanDomains(domains)}
}

// Snapshot returns a copy of the current domains
func (d *DomainList) Snapshot() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.domains)
}

// Replace swaps in a new set of domains
func (d *DomainList) Replace(domains []string) {
	cleaned := cleanDomains(domains)
	d.mu.Lock()
	d.domains = cleaned
	d.mu.Unlock()
}

// Len returns the number of domains
func (d *DomainList) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.domains)
}

func cleanDomains(domains []string) []string {
	seen := make(map[string]bool, len(domains))
	out := make([]string, 0, len(domains))
	for _, domain := range domains {
		domain = strings.ToLower(strings.TrimSpace(domain))
		domain = strings.TrimPrefix(domain, "https://")
		domain = strings.TrimPrefix(domain, "http://")
		domain = strings.TrimSuffix(domain, "/")
		if domain == "" || seen[domain] {
			continue
		}
		seen[domain] = true
		out = append(out, domain)
	}
	return out
}

// domainFile is the on-disk shape of a domain list
type domainFile struct {
	Domains []string `yaml:"domains"`
}

// LoadDomainsFile reads a YAML domain list. The file holds either a
// top-level sequence or a mapping with a "domains" sequence.
func LoadDomainsFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read domain file %s: %w", path, err)
	}

	var list []string
	if err := yaml.Unmarshal(data, &list); err == nil {
		if domains := cleanDomains(list); len(domains) > 0 {
			return domains, nil
		}
		return nil, fmt.Errorf("domain file %s lists no domains", path)
	}

	var file domainFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse domain file %s: %w", path, err)
	}
	domains := cleanDomains(file.Domains)
	if len(domains) == 0 {
		return nil, fmt.Errorf("domain file %s lists no domains", path)
	}
	return domains, nil
}

// Chunk splits domains into consecutive groups of at most size
func Chunk(domains []string, size int) [][]string {
	if size < 1 {
		size = 1
	}
	chunks := make([][]string, 0, (len(domains)+size-1)/size)
	for start := 0; start < len(domains); start += size {
		end := min(start+size, len(domains))
		chunks = append(chunks, domains[start:end])
	}
	return chunks
}

// Sample picks n domains with r, keeping their list order. n <= 0 or
// n >= len(domains) returns every domain.
func Sample(r *rand.Rand, domains []string, n int) []string {
	if n <= 0 || n >= len(domains) {
		return slices.Clone(domains)
	}
	picked := r.Perm(len(domains))[:n]
	slices.Sort(picked)

	out := make([]string, 0, n)
	for _, i := range picked {
		out = append(out, domains[i])
	}
	return out
}

// SiteQuery builds one site-restricted query: (site:a OR site:b) term location
func SiteQuery(domains []string, term, location string) string {
	sites := make([]string, len(domains))
	for i, d := range domains {
		sites[i] = "site:" + d
	}
	parts := []string{"(" + strings.Join(sites, " OR ") + ")"}
	if term = strings.TrimSpace(term); term != "" {
		parts = append(parts, term)
	}
	if location = strings.TrimSpace(location); location != "" {
		parts = append(parts, location)
	}
	return strings.Join(parts, " ")
}
