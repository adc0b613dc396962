package story

import "strings"

// Virality scores a post 1-9 based purely on total interactions
// (upvotes + comments). Thresholds are calibrated so most active posts
// score 4-7, exceptional posts score 8-9, and quiet posts score 1-3.
func Virality(score, numComments int) int {
	if score < 0 {
		score = 0
	}
	total := score + numComments

	switch {
	case total >= 50000:
		return 9
	case total >= 20000:
		return 8
	case total >= 8000:
		return 7
	case total >= 3000:
		return 6
	case total >= 1000:
		return 5
	case total >= 400:
		return 4
	case total >= 100:
		return 3
	case total >= 20:
		return 2
	default:
		return 1
	}
}

// hookWords in a title signal content that tends to travel
var hookWords = []string{"aita", "tifu", "update", "revenge", "crazy", "insane", "shocking"}

// TextEstimate holds a pre-publication virality estimate for raw text
type TextEstimate struct {
	Score        int  `json:"estimated_virality_score"`
	CharCount    int  `json:"character_count"`
	WordCount    int  `json:"word_count"`
	HasHookWords bool `json:"has_hook_words"`
	LengthScore  int  `json:"length_score"`
}

// EstimateFromText scores title+body text on length and hook words alone,
// for stories that have no engagement stats yet.
func EstimateFromText(title, body string) TextEstimate {
	est := TextEstimate{
		CharCount: len(body),
		WordCount: len(strings.Fields(body)),
	}

	// Sweet spot: 500-1500 chars reads out to a tight 1-2 minute video
	switch {
	case est.CharCount >= 500 && est.CharCount <= 1500:
		est.LengthScore = 9
	case est.CharCount > 1500 && est.CharCount <= 2500:
		est.LengthScore = 8
	case est.CharCount >= 300 && est.CharCount < 500:
		est.LengthScore = 6
	case est.CharCount > 2500 && est.CharCount <= 3500:
		est.LengthScore = 6
	case est.CharCount > 3500:
		est.LengthScore = 4
	default:
		est.LengthScore = 3
	}

	titleLower := strings.ToLower(title)
	for _, w := range hookWords {
		if strings.Contains(titleLower, w) {
			est.HasHookWords = true
			break
		}
	}

	est.Score = est.LengthScore
	if est.HasHookWords {
		est.Score += 2
	}
	if est.Score > 9 {
		est.Score = 9
	}
	return est
}
