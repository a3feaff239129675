package feedback

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/lumen-edu/lumen/pkg/logger"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Entry is one piece of student feedback about a tutoring answer. An
// improved response, when present, is the student's own correction and is
// kept verbatim for later review.
type Entry struct {
	ID               string    `json:"id"`
	Query            string    `json:"query"`
	Response         string    `json:"response"`
	Rating           int       `json:"rating"`
	Comments         string    `json:"comments,omitempty"`
	ImprovedResponse string    `json:"improved_response,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Stats summarizes the collected feedback.
type Stats struct {
	Count         int     `json:"count"`
	AverageRating float64 `json:"average_rating"`
	LowRatings    int     `json:"low_ratings"`
}

// Service stores feedback entries as a JSON array in a single file. Writes
// rewrite the whole file; the volumes involved make anything fancier
// unnecessary.
type Service struct {
	path string
	mu   sync.Mutex
}

// NewService creates a feedback service writing to path.
func NewService(path string) *Service {
	return &Service{path: path}
}

// Submit validates and appends a feedback entry, assigning it an id and
// timestamp. The stored entry is returned.
func (s *Service) Submit(entry Entry) (Entry, error) {
	if entry.Rating < 1 || entry.Rating > 5 {
		return Entry{}, fmt.Errorf("rating must be between 1 and 5, got %d", entry.Rating)
	}
	if entry.Query == "" || entry.Response == "" {
		return Entry{}, fmt.Errorf("feedback requires both query and response")
	}

	id, err := gonanoid.New()
	if err != nil {
		return Entry{}, err
	}
	entry.ID = id
	entry.CreatedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load()
	entries = append(entries, entry)

	raw, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return Entry{}, err
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return Entry{}, fmt.Errorf("failed to write feedback log: %w", err)
	}

	return entry, nil
}

// Stats computes count, average rating, and the number of low (1-2 star)
// ratings over all stored feedback.
func (s *Service) Stats() (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load()
	stats := Stats{Count: len(entries)}
	if len(entries) == 0 {
		return stats, nil
	}

	total := 0
	for _, e := range entries {
		total += e.Rating
		if e.Rating <= 2 {
			stats.LowRatings++
		}
	}
	stats.AverageRating = float64(total) / float64(len(entries))
	return stats, nil
}

// load reads the stored entries. A missing or corrupt file yields an empty
// list; feedback must never block the answer path. Callers must hold s.mu.
func (s *Service) load() []Entry {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("[Feedback] could not read log, starting empty", "path", s.path, "err", err)
		}
		return []Entry{}
	}

	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		logger.Warn("[Feedback] corrupt log, starting empty", "path", s.path, "err", err)
		return []Entry{}
	}
	return entries
}
