package linkedin

import (
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"os"
	"strings"
	"time"
)

const (
	ListingIDField      = "ID"
	ListingCompanyField = "Company"
)

type WorkType string

const (
	WorkTypeRemote  WorkType = "Remote"
	WorkTypeOnsite  WorkType = "Onsite"
	WorkTypeHybrid  WorkType = "Hybrid"
	WorkTypeUnknown WorkType = "Unknown"
)

// Search filter codes of the f_WT parameter.
var workTypeCodes = map[WorkType]string{
	WorkTypeOnsite: "1",
	WorkTypeRemote: "2",
	WorkTypeHybrid: "3",
}

// ParseWorkTypes turns user input into work types. "any" (or nothing) yields
// an empty slice, which means no filter.
func ParseWorkTypes(values []string) ([]WorkType, error) {
	var types []WorkType
	seen := make(map[WorkType]bool)

	for _, raw := range values {
		for _, v := range strings.Split(raw, ",") {
			var wt WorkType
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "", "any":
				continue
			case "remote":
				wt = WorkTypeRemote
			case "onsite", "on-site", "on site":
				wt = WorkTypeOnsite
			case "hybrid":
				wt = WorkTypeHybrid
			default:
				return nil, fmt.Errorf("unknown work type %q (want remote, onsite, hybrid or any)", v)
			}
			if !seen[wt] {
				seen[wt] = true
				types = append(types, wt)
			}
		}
	}

	return types, nil
}

// Listing is one scraped job card, optionally enriched from its detail page.
type Listing struct {
	ID          string    `json:"id"`
	Title       string    `json:"title" validate:"required"`
	Company     string    `json:"company,omitempty"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description,omitempty"`
	PostedAt    time.Time `json:"posted_at,omitzero"`
	PostedText  string    `json:"posted_text,omitempty"`
	WorkType    WorkType  `json:"work_type"`
	Link        string    `json:"link" validate:"required,url"`
	// Requirement is the stated seniority or experience, when the page has one.
	Requirement string `json:"requirement,omitempty"`
}

type Listings struct {
	Items []*Listing
}

type ExcludedListings struct {
	Items []*ExcludedListing
}

type ExcludedListing struct {
	ID         string
	Link       string
	Company    string
	ExcludedAt time.Time
}

// Collect drains seq into a Listings collection.
func Collect(seq iter.Seq[*Listing]) *Listings {
	listings := &Listings{}
	for l := range seq {
		listings.Items = append(listings.Items, l)
	}
	return listings
}

func (l *Listings) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "listings_*.json")
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

func (l *Listings) ToExcluded() *ExcludedListings {
	excluded := &ExcludedListings{}
	for _, listing := range l.Items {
		excluded.Items = append(excluded.Items, &ExcludedListing{
			ID:         listing.ID,
			Link:       listing.Link,
			Company:    listing.Company,
			ExcludedAt: time.Now().UTC(),
		})
	}
	return excluded
}

// GetExcludedListingsFromFile reads an exclude file. A missing or empty
// file is an empty list.
func GetExcludedListingsFromFile(path string) (*ExcludedListings, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return &ExcludedListings{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &ExcludedListings{}, nil
	}

	var excluded ExcludedListings
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, err
	}
	return &excluded, nil
}

func (e *ExcludedListings) Append(s *ExcludedListings) {
	e.Items = append(e.Items, s.Items...)
}

func (e *ExcludedListings) IDs() []string {
	ids := make([]string, 0, len(e.Items))
	for _, listing := range e.Items {
		ids = append(ids, listing.ID)
	}
	return ids
}

func (e *ExcludedListings) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}

func (li *Listing) GetStringField(name string) string {
	switch name {
	case ListingIDField:
		return li.ID
	case ListingCompanyField:
		return li.Company
	default:
		return ""
	}
}

// ReportByCompany groups listings under their company name.
func (l *Listings) ReportByCompany() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, listing := range l.Items {
		key := listing.Company
		if key == "" {
			key = "(unknown company)"
		}

		entry := map[string]string{
			"title":     listing.Title,
			"link":      listing.Link,
			"location":  listing.Location,
			"work type": string(listing.WorkType),
		}
		if listing.PostedText != "" {
			entry["posted"] = listing.PostedText
		}
		if listing.Requirement != "" {
			entry["requirement"] = listing.Requirement
		}

		report[key] = append(report[key], entry)
	}
	return report
}

func (l *Listings) Len() int {
	return len(l.Items)
}

func (l *Listings) FindByID(id string) *Listing {
	for _, listing := range l.Items {
		if listing.ID == id {
			return listing
		}
	}
	return nil
}

// Exclude removes every listing whose field equals one of targets (case
// insensitive) and returns the removed IDs. Order of the rest is kept.
func (l *Listings) Exclude(name string, targets []string) []string {
	if len(targets) == 0 {
		return nil
	}

	var excluded []string
	kept := l.Items[:0]
	for _, listing := range l.Items {
		value := listing.GetStringField(name)
		if value != "" && containsFold(targets, value) {
			excluded = append(excluded, listing.ID)
			continue
		}
		kept = append(kept, listing)
	}
	clear(l.Items[len(kept):])
	l.Items = kept

	return excluded
}

// RemoveByIndex removes the listing at idx, keeping order.
func (l *Listings) RemoveByIndex(idx int) {
	l.Items = append(l.Items[:idx], l.Items[idx+1:]...)
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), target) {
			return true
		}
	}
	return false
}
