package services

const maxCompletenessScore = 100

// Points per recognized field. The table sums past 100; the score is capped.
const (
	scoreRealEmail      = 15
	scorePhone          = 10
	scoreResume         = 15
	scoreLinkedIn       = 15
	scoreSkills         = 10
	scoreExperience     = 10
	scoreCompany        = 10
	scoreLocation       = 10
	scoreEducation      = 5
	scoreProfilePicture = 5
	scoreSocialProfiles = 5
)

// CompletenessScore rates how much of a candidate profile is filled in, 0..100.
// Current position is not scored.
func CompletenessScore(c *CanonicalCandidate) int {
	if c == nil {
		return 0
	}
	score := 0
	add := func(present bool, points int) {
		if present {
			score += points
		}
	}

	add(c.HasRealEmail, scoreRealEmail)
	add(nonEmpty(c.Phone), scorePhone)
	add(nonEmpty(c.ResumeURL), scoreResume)
	add(nonEmpty(c.LinkedInProfileURL), scoreLinkedIn)
	add(len(c.Skills) > 0, scoreSkills)
	add(c.ExperienceYears != nil, scoreExperience)
	add(nonEmpty(c.Company), scoreCompany)
	add(nonEmpty(c.Location), scoreLocation)
	add(len(c.Education) > 0, scoreEducation)
	add(nonEmpty(c.ProfilePictureURL), scoreProfilePicture)
	add(len(c.SocialProfiles) > 0, scoreSocialProfiles)

	if score > maxCompletenessScore {
		return maxCompletenessScore
	}
	return score
}

func nonEmpty(s *string) bool {
	return s != nil && *s != ""
}
