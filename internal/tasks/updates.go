package tasks

import (
	"fmt"
	"math"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Percent int    // 0..100
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	Authorize Phase = iota
	FetchTracks
	ShuffleTracks
	Complete
)

func (p Phase) String() string {
	switch p {
	case Authorize:
		return "authorize"
	case FetchTracks:
		return "fetch_tracks"
	case ShuffleTracks:
		return "shuffle_tracks"
	case Complete:
		return "complete"
	default:
		return ""
	}
}

// Percent returns fetched/total as a rounded percentage clamped to 0..100.
//
// An empty playlist is complete as soon as its first page arrives.
func Percent(fetched, total int) int {
	if total <= 0 {
		return 100
	}
	p := int(math.Round(float64(fetched) * 100 / float64(total)))
	return max(0, min(100, p))
}

// AuthorizeUpdate reports that a login is waiting on the user at authURL. openErr is the reason
// the browser could not be opened, if any.
func AuthorizeUpdate(authURL string, openErr error) ProgressUpdate {
	msg := "Complete the login in your browser"
	if openErr != nil {
		msg = "Could not open a browser. Open this URL to log in"
	}
	return ProgressUpdate{Phase: Authorize, Message: msg, Data: authURL}
}

func fetchPageUpdate(fetched, total, page int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTracks,
		Step:    fetched,
		Total:   total,
		Percent: Percent(fetched, total),
		Message: fmt.Sprintf("Fetched page %d (%d/%d tracks)", page, fetched, total),
	}
}

func shuffleUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ShuffleTracks,
		Step:    total,
		Total:   total,
		Percent: 100,
		Message: fmt.Sprintf("Shuffling %d tracks...", total),
	}
}

func completeUpdate(result *ShuffleResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Complete,
		Step:    result.Total,
		Total:   result.Total,
		Percent: 100,
		Message: fmt.Sprintf("Shuffled %d tracks from %d pages", result.Total, result.Pages),
		Data:    result,
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
		// Channel full, skip this update
	}
}
