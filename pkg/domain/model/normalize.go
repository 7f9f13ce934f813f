package model

import (
	"regexp"
	"strings"
	"time"
)

var (
	slugSpaces  = regexp.MustCompile(`\s+`)
	slugInvalid = regexp.MustCompile(`[^a-z0-9_-]`)
	slugHyphens = regexp.MustCompile(`-{2,}`)
)

// Slugify derives a URL-safe identifier from a human-readable name.
// The derivation is pure: lowercase, trim, internal whitespace to single
// hyphens, strip everything outside [a-z0-9_-], collapse repeated hyphens.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugSpaces.ReplaceAllString(s, "-")
	s = slugInvalid.ReplaceAllString(s, "")
	s = slugHyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Field aliases per concern. Feed headers and Notion property names differ
// between sources; normalization accepts any alias, first match wins.
var (
	nameFields        = []string{"name", "title", "tool_name"}
	idFields          = []string{"id", "tool_id"}
	descriptionFields = []string{"description", "summary"}
	websiteFields     = []string{"website", "website_url", "url", "link"}
	categoryFields    = []string{"category", "type"}
	pricingFields     = []string{"pricing", "pricing_model", "price"}
	imageFields       = []string{"image", "image_url", "logo"}
	launchDateFields  = []string{"launch_date", "launched", "date"}
	statusFields      = []string{"status", "state"}
)

// liveStatuses are the source-reported statuses that admit a record into the
// catalog. Anything else is dropped silently.
var liveStatuses = map[string]bool{
	"live":      true,
	"published": true,
}

// Normalize maps a raw source record to the canonical Tool. It returns
// (nil, false) when the record must be dropped: no name, or a status other
// than live/published. Absent string fields default to empty strings; an
// absent or unparsable launch date defaults to now (the ingestion run time).
func Normalize(rec RawRecord, now time.Time) (*Tool, bool) {
	name := strings.TrimSpace(firstField(rec, nameFields))
	if name == "" {
		return nil, false
	}

	if status := strings.TrimSpace(firstField(rec, statusFields)); !liveStatuses[strings.ToLower(status)] {
		return nil, false
	}

	slug := Slugify(name)

	// Source-native identifier when present, else a deterministic derivation
	// from slug and source tag so that distinct sources never collide.
	stableID := strings.TrimSpace(firstField(rec, idFields))
	if stableID == "" {
		stableID = slug + "-" + rec.SourceTag
	}

	return &Tool{
		StableID:     stableID,
		Slug:         slug,
		Name:         name,
		Description:  strings.TrimSpace(firstField(rec, descriptionFields)),
		WebsiteURL:   strings.TrimSpace(firstField(rec, websiteFields)),
		Category:     strings.TrimSpace(firstField(rec, categoryFields)),
		PricingModel: strings.TrimSpace(firstField(rec, pricingFields)),
		ImageURL:     strings.TrimSpace(firstField(rec, imageFields)),
		LaunchDate:   parseLaunchDate(firstField(rec, launchDateFields), now),
		Status:       StatusLive,
	}, true
}

func firstField(rec RawRecord, names []string) string {
	for _, n := range names {
		if v, ok := rec.Fields[n]; ok && v != "" {
			return v
		}
	}
	return ""
}

func parseLaunchDate(s string, now time.Time) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return now
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return now
}
