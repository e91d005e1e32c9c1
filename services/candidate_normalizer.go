package services

import (
	"encoding/json"
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/growthacceleratorstaffing/linked-job-seeker-board-sub000/models"
	"github.com/growthacceleratorstaffing/linked-job-seeker-board-sub000/utils"

	"github.com/microcosm-cc/bluemonday"
)

const (
	SourcePlatformWorkable = "workable"

	maxLocationLength  = 255
	maxTextLength      = 255
	maxShortLength     = 64
	maxExternalIDLen   = 100
	syntheticEmailHost = "candidates.invalid"
)

// EducationEntry is one normalized education record.
type EducationEntry struct {
	Degree string `json:"degree"`
	Field  string `json:"field"`
	School string `json:"school,omitempty"`
}

// SocialProfile is one link from the upstream social_profiles list.
type SocialProfile struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
	URL  string `json:"url"`
}

// CanonicalCandidate is the typed view of one upstream candidate. Nothing
// downstream of the normalizer sees raw payloads.
type CanonicalCandidate struct {
	ExternalID         string           `json:"external_id"`
	Name               string           `json:"name"`
	Email              string           `json:"email"`
	HasRealEmail       bool             `json:"has_real_email"`
	Phone              *string          `json:"phone,omitempty"`
	Location           *string          `json:"location,omitempty"`
	CurrentPosition    *string          `json:"current_position,omitempty"`
	Company            *string          `json:"company,omitempty"`
	Summary            *string          `json:"summary,omitempty"`
	Skills             []string         `json:"skills"`
	ExperienceYears    *int             `json:"experience_years,omitempty"`
	Education          []EducationEntry `json:"education"`
	SocialProfiles     []SocialProfile  `json:"social_profiles"`
	LinkedInProfileURL *string          `json:"linkedin_profile_url,omitempty"`
	ProfilePictureURL  *string          `json:"profile_picture_url,omitempty"`
	ResumeURL          *string          `json:"resume_url,omitempty"`
	SourcePlatform     string           `json:"source_platform"`
	UpstreamState      string           `json:"upstream_state"`
	InterviewStage     string           `json:"interview_stage"`
	CompletenessScore  int              `json:"completeness_score"`
	LastSyncedAt       time.Time        `json:"last_synced_at"`
}

// IsActive reports whether the candidate is still moving through the pipeline.
func (c *CanonicalCandidate) IsActive() bool {
	return c.InterviewStage == models.InterviewStagePending || c.InterviewStage == models.InterviewStageInProgress
}

// fieldStrategy extracts one raw value from an upstream record.
type fieldStrategy interface {
	extract(raw map[string]any) (any, bool)
}

// DirectField reads a top-level key.
type DirectField struct{ Key string }

func (s DirectField) extract(raw map[string]any) (any, bool) {
	v, ok := raw[s.Key]
	return v, ok && !isEmptyValue(v)
}

// NestedPath walks nested objects.
type NestedPath struct{ Path []string }

func (s NestedPath) extract(raw map[string]any) (any, bool) {
	var cur any = raw
	for _, key := range s.Path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return cur, !isEmptyValue(cur)
}

// ArraySearch scans an array of objects and returns Field from the first
// element accepted by Match (or the first element when Match is nil).
type ArraySearch struct {
	Key   string
	Match func(entry map[string]any) bool
	Field string
}

func (s ArraySearch) extract(raw map[string]any) (any, bool) {
	items, ok := raw[s.Key].([]any)
	if !ok {
		return nil, false
	}
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if s.Match != nil && !s.Match(entry) {
			continue
		}
		v, ok := entry[s.Field]
		if ok && !isEmptyValue(v) {
			return v, true
		}
	}
	return nil, false
}

// EnumFallback maps a coarse string enum to a value.
type EnumFallback struct {
	Key    string
	Values map[string]int
}

func (s EnumFallback) extract(raw map[string]any) (any, bool) {
	str, ok := asString(raw[s.Key])
	if !ok {
		return nil, false
	}
	v, ok := s.Values[strings.ToLower(str)]
	return v, ok
}

var (
	linkedInMatch = func(entry map[string]any) bool {
		kind, _ := asString(entry["type"])
		if strings.EqualFold(kind, "linkedin") {
			return true
		}
		u, _ := asString(entry["url"])
		return strings.Contains(strings.ToLower(u), "linkedin.com")
	}
	currentEntryMatch = func(entry map[string]any) bool {
		current, _ := entry["current"].(bool)
		return current
	}

	nameStrategies            = []fieldStrategy{DirectField{"name"}}
	phoneStrategies           = []fieldStrategy{DirectField{"phone"}}
	positionStrategies        = []fieldStrategy{DirectField{"headline"}, NestedPath{[]string{"job", "title"}}}
	summaryStrategies         = []fieldStrategy{DirectField{"summary"}}
	pictureStrategies         = []fieldStrategy{DirectField{"image_url"}, DirectField{"profile_picture_url"}, DirectField{"avatar_url"}}
	resumeStrategies          = []fieldStrategy{DirectField{"resume_url"}}
	stateStrategies           = []fieldStrategy{DirectField{"stage"}, DirectField{"state"}, NestedPath{[]string{"stage", "name"}}}
	flatLocationStrategies    = []fieldStrategy{DirectField{"location"}, NestedPath{[]string{"location", "location_str"}}, DirectField{"address"}}
	experienceYearsStrategies = []fieldStrategy{DirectField{"experience_years"}}
	experienceEnumStrategies  = []fieldStrategy{
		EnumFallback{Key: "experience_level", Values: experienceLevels},
		EnumFallback{Key: "experience", Values: experienceLevels},
	}
	linkedInStrategies = []fieldStrategy{
		DirectField{"linkedin_url"},
		ArraySearch{Key: "social_profiles", Match: linkedInMatch, Field: "url"},
	}
	companyStrategies = []fieldStrategy{
		DirectField{"company"},
		ArraySearch{Key: "experience_entries", Match: currentEntryMatch, Field: "company"},
		ArraySearch{Key: "experience_entries", Field: "company"},
	}

	experienceLevels = map[string]int{
		"entry":     1,
		"junior":    3,
		"senior":    7,
		"executive": 15,
	}

	textPolicy = bluemonday.StrictPolicy()
)

// NormalizeCandidate maps one raw upstream record to a CanonicalCandidate.
// It returns false only when the record has no usable upstream id.
func NormalizeCandidate(raw map[string]any, syncedAt time.Time) (CanonicalCandidate, bool) {
	externalID, ok := asString(raw["id"])
	if !ok {
		return CanonicalCandidate{}, false
	}
	externalID = truncateRunes(externalID, maxExternalIDLen)

	c := CanonicalCandidate{
		ExternalID:         externalID,
		Name:               truncateRunes(extractName(raw), maxTextLength),
		Phone:              truncatedPtr(firstString(raw, phoneStrategies), maxShortLength),
		Location:           ExtractLocation(raw),
		CurrentPosition:    truncatedPtr(plainText(firstString(raw, positionStrategies)), maxTextLength),
		Company:            truncatedPtr(firstString(raw, companyStrategies), maxTextLength),
		Summary:            plainText(firstString(raw, summaryStrategies)),
		Skills:             ExtractSkills(raw),
		ExperienceYears:    ExtractExperienceYears(raw),
		Education:          ExtractEducation(raw),
		SocialProfiles:     ExtractSocialProfiles(raw),
		LinkedInProfileURL: ExtractLinkedInURL(raw),
		ProfilePictureURL:  firstString(raw, pictureStrategies),
		ResumeURL:          firstString(raw, resumeStrategies),
		SourcePlatform:     SourcePlatformWorkable,
		UpstreamState:      truncateRunes(ExtractUpstreamState(raw), maxShortLength),
		LastSyncedAt:       syncedAt,
	}
	c.Email, c.HasRealEmail = extractEmail(raw, externalID)
	if utf8.RuneCountInString(c.Email) > maxTextLength {
		c.Email, c.HasRealEmail = syntheticEmail(externalID), false
	}

	disqualified, _ := raw["disqualified"].(bool)
	c.InterviewStage = MapInterviewStage(c.UpstreamState, disqualified)
	c.CompletenessScore = CompletenessScore(&c)
	return c, true
}

// ExtractLocation prefers address city and country, then either alone, then a
// flat location string.
func ExtractLocation(raw map[string]any) *string {
	if loc := cityCountry(raw, "address"); loc != "" {
		return truncatedPtr(&loc, maxLocationLength)
	}
	if s := firstString(raw, flatLocationStrategies); s != nil {
		return truncatedPtr(s, maxLocationLength)
	}
	if loc := cityCountry(raw, "location"); loc != "" {
		return truncatedPtr(&loc, maxLocationLength)
	}
	return nil
}

func cityCountry(raw map[string]any, key string) string {
	obj, ok := raw[key].(map[string]any)
	if !ok {
		return ""
	}
	city, _ := asString(obj["city"])
	country, _ := asString(obj["country"])
	switch {
	case city != "" && country != "":
		return city + ", " + country
	case city != "":
		return city
	default:
		return country
	}
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func truncatedPtr(s *string, n int) *string {
	if s == nil {
		return nil
	}
	v := truncateRunes(*s, n)
	return &v
}

// ExtractSkills returns the skills array, a wrapped scalar skill, or tags.
func ExtractSkills(raw map[string]any) []string {
	switch v := raw["skills"].(type) {
	case []any:
		if skills := stringList(v, "name"); len(skills) > 0 {
			return skills
		}
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return []string{s}
		}
	}
	if tags, ok := raw["tags"].([]any); ok {
		if skills := stringList(tags, "name"); len(skills) > 0 {
			return skills
		}
	}
	return []string{}
}

// ExtractExperienceYears prefers an explicit number, then the sum of
// work_experience years, then a coarse experience level.
func ExtractExperienceYears(raw map[string]any) *int {
	for _, s := range experienceYearsStrategies {
		if v, ok := s.extract(raw); ok {
			if n, ok := asInt(v); ok && n >= 0 {
				return &n
			}
		}
	}

	if entries, ok := raw["work_experience"].([]any); ok {
		total, found := 0, false
		for _, item := range entries {
			entry, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if n, ok := asInt(entry["years"]); ok && n > 0 {
				total += n
				found = true
			}
		}
		if found {
			return &total
		}
	}

	for _, s := range experienceEnumStrategies {
		if v, ok := s.extract(raw); ok {
			n := v.(int)
			return &n
		}
	}
	return nil
}

// ExtractLinkedInURL returns an explicit linkedin_url or a LinkedIn entry of
// social_profiles.
func ExtractLinkedInURL(raw map[string]any) *string {
	return firstString(raw, linkedInStrategies)
}

// ExtractEducation accepts an education array or scalar, Workable's
// education_entries, or a schools array.
func ExtractEducation(raw map[string]any) []EducationEntry {
	for _, key := range []string{"education", "education_entries", "schools"} {
		var items []any
		switch v := raw[key].(type) {
		case []any:
			items = v
		case nil:
			continue
		default:
			items = []any{v}
		}
		var out []EducationEntry
		for _, item := range items {
			if entry, ok := educationEntry(item); ok {
				out = append(out, entry)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return []EducationEntry{}
}

func educationEntry(item any) (EducationEntry, bool) {
	if s, ok := asString(item); ok {
		return EducationEntry{Degree: s}, true
	}
	obj, ok := item.(map[string]any)
	if !ok {
		return EducationEntry{}, false
	}
	entry := EducationEntry{
		Degree: firstKey(obj, "degree", "title"),
		Field:  firstKey(obj, "field", "field_of_study", "major"),
		School: firstKey(obj, "school", "name", "institution"),
	}
	if entry.Degree == "" && entry.Field == "" && entry.School == "" {
		return EducationEntry{}, false
	}
	return entry, true
}

// ExtractSocialProfiles returns the social_profiles entries that carry a URL.
func ExtractSocialProfiles(raw map[string]any) []SocialProfile {
	items, ok := raw["social_profiles"].([]any)
	if !ok {
		return []SocialProfile{}
	}
	out := make([]SocialProfile, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		u := firstKey(obj, "url")
		if u == "" {
			continue
		}
		out = append(out, SocialProfile{
			Type: strings.ToLower(firstKey(obj, "type")),
			Name: firstKey(obj, "name", "username"),
			URL:  u,
		})
	}
	return out
}

// ExtractUpstreamState returns the raw lifecycle state or "unknown".
func ExtractUpstreamState(raw map[string]any) string {
	if s := firstString(raw, stateStrategies); s != nil {
		return *s
	}
	return "unknown"
}

// MapInterviewStage folds an upstream stage name into the interview stage enum.
func MapInterviewStage(state string, disqualified bool) string {
	if disqualified {
		return models.InterviewStageFailed
	}
	s := strings.ToLower(strings.TrimSpace(state))
	switch {
	case s == "hired", s == "offer", strings.Contains(s, "offer"), strings.Contains(s, "hired"):
		return models.InterviewStagePassed
	case s == "disqualified", s == "rejected", s == "withdrawn", strings.Contains(s, "reject"):
		return models.InterviewStageFailed
	case strings.Contains(s, "interview"), strings.Contains(s, "screen"), strings.Contains(s, "assessment"):
		return models.InterviewStageInProgress
	default:
		return models.InterviewStagePending
	}
}

func extractName(raw map[string]any) string {
	if s := firstString(raw, nameStrategies); s != nil {
		return *s
	}
	first, _ := asString(raw["firstname"])
	last, _ := asString(raw["lastname"])
	if full := strings.TrimSpace(first + " " + last); full != "" {
		return full
	}
	return "Unknown candidate"
}

func extractEmail(raw map[string]any, externalID string) (string, bool) {
	if email, ok := asString(raw["email"]); ok && utils.ValidateEmail(email) {
		return strings.ToLower(strings.TrimSpace(email)), true
	}
	return syntheticEmail(externalID), false
}

func syntheticEmail(externalID string) string {
	return fmt.Sprintf("workable-%s@%s", externalID, syntheticEmailHost)
}

func firstString(raw map[string]any, strategies []fieldStrategy) *string {
	for _, s := range strategies {
		v, ok := s.extract(raw)
		if !ok {
			continue
		}
		if str, ok := asString(v); ok {
			return &str
		}
	}
	return nil
}

func firstKey(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := asString(obj[k]); ok {
			return s
		}
	}
	return ""
}

func stringList(items []any, objectKey string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := asString(item); ok {
			out = append(out, s)
			continue
		}
		if obj, ok := item.(map[string]any); ok {
			if s := firstKey(obj, objectKey); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func plainText(s *string) *string {
	if s == nil {
		return nil
	}
	cleaned := strings.Join(strings.Fields(html.UnescapeString(textPolicy.Sanitize(*s))), " ")
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

// asString accepts non-empty strings and numbers.
func asString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		return s, s != ""
	case json.Number:
		return t.String(), true
	case float64:
		if t == math.Trunc(t) && !math.IsInf(t, 0) {
			return strconv.FormatInt(int64(t), 10), true
		}
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	default:
		return "", false
	}
}

func asInt(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return int(math.Round(t)), true
	case int:
		return t, true
	case int64:
		return int(t), true
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return int(math.Round(f)), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return int(math.Round(f)), true
	default:
		return 0, false
	}
}

func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	default:
		return false
	}
}
