package domain

// ReviewRating is the learner's judgement of a single card review. The
// four buckets map onto SM-2 quality values inside the srs package.
type ReviewRating string

// Possible review rating values
const (
	ReviewRatingAgain ReviewRating = "again"
	ReviewRatingHard  ReviewRating = "hard"
	ReviewRatingGood  ReviewRating = "good"
	ReviewRatingEasy  ReviewRating = "easy"
)

// ParseReviewRating converts a wire string into a ReviewRating.
// Returns ErrInvalidRating for anything outside the bucket set.
func ParseReviewRating(s string) (ReviewRating, error) {
	r := ReviewRating(s)
	if !r.IsValid() {
		return "", ErrInvalidRating
	}
	return r, nil
}

// IsValid reports whether the rating is one of the defined buckets.
func (r ReviewRating) IsValid() bool {
	switch r {
	case ReviewRatingAgain, ReviewRatingHard, ReviewRatingGood, ReviewRatingEasy:
		return true
	default:
		return false
	}
}
