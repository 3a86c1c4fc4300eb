package srs

import (
	"fmt"
	"math"

	"github.com/studyplan/srs-backend/internal/models"
)

const (
	// PassThreshold is the lowest quality rating counted as a successful recall.
	PassThreshold = 3

	// CramPenalty is subtracted from the ease factor when a review is flagged
	// as cramming, before the interval calculation runs.
	CramPenalty = 0.1
)

// ComputeNextInterval applies the SM-2 update rule to one graded review.
//
// quality is the self-assessed recall quality in [0,5]. currentIntervalDays is
// the interval that was scheduled going into this review. repetitionNumber is
// the 1-based count of review cycles including this one.
//
// Returns the interval to schedule the next review at and the updated ease
// factor. The ease factor never drops below models.MinEaseFactor and the
// interval is always at least one day.
func ComputeNextInterval(quality, currentIntervalDays int, easeFactor float64, repetitionNumber int) (int, float64, error) {
	if quality < 0 || quality > 5 {
		return 0, 0, fmt.Errorf("quality rating out of range: %d", quality)
	}
	if repetitionNumber < 1 {
		return 0, 0, fmt.Errorf("repetition number must be positive: %d", repetitionNumber)
	}

	if currentIntervalDays < 1 {
		currentIntervalDays = 1
	}
	if easeFactor < models.MinEaseFactor {
		easeFactor = models.MinEaseFactor
	}

	// EF' = EF + (0.1 - (5-q) * (0.08 + (5-q) * 0.02)), floored at 1.3.
	q := float64(quality)
	newEase := easeFactor + (0.1 - (5-q)*(0.08+(5-q)*0.02))
	if newEase < models.MinEaseFactor {
		newEase = models.MinEaseFactor
	}

	var nextInterval int
	switch {
	case quality < PassThreshold:
		// A lapse forces an immediate short interval, whatever the history.
		nextInterval = 1
	case repetitionNumber == 1:
		nextInterval = 1
	case repetitionNumber == 2:
		nextInterval = 6
	default:
		nextInterval = int(math.Round(float64(currentIntervalDays) * newEase))
	}

	if nextInterval < 1 {
		nextInterval = 1
	}

	return nextInterval, newEase, nil
}

// PenalizeEase reduces an ease factor by the cramming penalty, keeping the floor.
func PenalizeEase(easeFactor float64) float64 {
	penalized := easeFactor - CramPenalty
	if penalized < models.MinEaseFactor {
		return models.MinEaseFactor
	}
	return penalized
}
