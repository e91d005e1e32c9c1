package services

import "testing"

func TestCompletenessScoreBounds(t *testing.T) {
	if got := CompletenessScore(&CanonicalCandidate{}); got != 0 {
		t.Fatalf("empty candidate scored %d", got)
	}
	if got := CompletenessScore(nil); got != 0 {
		t.Fatalf("nil candidate scored %d", got)
	}

	s := "x"
	years := 3
	full := &CanonicalCandidate{
		HasRealEmail:       true,
		Phone:              &s,
		ResumeURL:          &s,
		LinkedInProfileURL: &s,
		Skills:             []string{"go"},
		ExperienceYears:    &years,
		Company:            &s,
		Location:           &s,
		Education:          []EducationEntry{{Degree: "BSc"}},
		ProfilePictureURL:  &s,
		SocialProfiles:     []SocialProfile{{Type: "github", URL: "https://github.com/x"}},
	}
	if got := CompletenessScore(full); got != 100 {
		t.Fatalf("expected cap at 100, got %d", got)
	}
}

func TestCompletenessScoreIsMonotonic(t *testing.T) {
	s := "value"
	years := 0
	steps := []func(c *CanonicalCandidate){
		func(c *CanonicalCandidate) { c.CurrentPosition = &s },
		func(c *CanonicalCandidate) { c.HasRealEmail = true },
		func(c *CanonicalCandidate) { c.Phone = &s },
		func(c *CanonicalCandidate) { c.ResumeURL = &s },
		func(c *CanonicalCandidate) { c.LinkedInProfileURL = &s },
		func(c *CanonicalCandidate) { c.Skills = []string{"sql"} },
		func(c *CanonicalCandidate) { c.ExperienceYears = &years },
		func(c *CanonicalCandidate) { c.Company = &s },
		func(c *CanonicalCandidate) { c.Location = &s },
		func(c *CanonicalCandidate) { c.Education = []EducationEntry{{Degree: "MSc"}} },
		func(c *CanonicalCandidate) { c.ProfilePictureURL = &s },
		func(c *CanonicalCandidate) { c.SocialProfiles = []SocialProfile{{URL: "u"}} },
	}

	c := &CanonicalCandidate{}
	prev := CompletenessScore(c)
	for i, step := range steps {
		step(c)
		got := CompletenessScore(c)
		if got < prev {
			t.Fatalf("step %d decreased score from %d to %d", i, prev, got)
		}
		if got < 0 || got > 100 {
			t.Fatalf("step %d produced out-of-range score %d", i, got)
		}
		prev = got
	}
}

func TestCompletenessScoreWeights(t *testing.T) {
	s := "x"
	c := &CanonicalCandidate{HasRealEmail: true, Phone: &s, ResumeURL: &s}
	if got := CompletenessScore(c); got != 40 {
		t.Fatalf("expected 15+10+15=40, got %d", got)
	}
}
