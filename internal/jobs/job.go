package jobs

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Posting is one external job listing. Different sources supply different
// subsets of the optional fields; absent fields stay at their zero value.
type Posting struct {
	ID          string  `json:"id,omitempty"`
	Title       string  `json:"title,omitempty"`
	Company     string  `json:"company,omitempty"`
	Location    string  `json:"location,omitempty"`
	Description string  `json:"description,omitempty"`
	SalaryText  string  `json:"salary_text,omitempty"`
	SalaryMin   float64 `json:"salary_min,omitempty"`
	SalaryMax   float64 `json:"salary_max,omitempty"`
	PostedAt    string  `json:"posted_at,omitempty"`
	URL         string  `json:"url,omitempty"`
}

type List struct {
	Items []*Posting
}

func (l *List) Len() int {
	return len(l.Items)
}

func (l *List) FindByID(id string) *Posting {
	for _, p := range l.Items {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// IDs returns the posting identifiers in list order.
func (l *List) IDs() []string {
	ids := make([]string, 0, len(l.Items))
	for _, p := range l.Items {
		ids = append(ids, p.ID)
	}
	return ids
}

// Text returns the searchable text of the posting in lowercase.
func (p *Posting) Text() string {
	return strings.ToLower(p.Title + " " + p.Description)
}

// ReportByCompany groups postings under "Company" keys for quick review.
func (l *List) ReportByCompany() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, p := range l.Items {
		key := p.Company
		if key == "" {
			key = "unknown"
		}
		report[key] = append(report[key], map[string]string{
			"title":    p.Title,
			"url":      p.URL,
			"location": p.Location,
			"salary":   p.SalaryText,
		})
	}
	return report
}

func (l *List) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "postings_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l); err != nil {
		return "", err
	}
	return file.Name(), nil
}

func (p *Posting) String() string {
	return fmt.Sprintf("%s %s / %s / %s", p.ID, p.Title, p.Company, p.URL)
}
