// Package memory maintains a derived, keyword-indexed copy of each chat's
// messages for relevance retrieval. The index is rebuilt wholesale from the
// chat's current message list and is never authoritative: for any chat the
// stored records are exactly reproducible by reindexing. Memory is an
// optimization, so every operation degrades to empty results rather than
// failing the conversation flow.
package memory

import (
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/synpt/backend/internal/model/chat"
)

// Record is one historical message indexed by its keyword set.
type Record struct {
	ChatID       string
	MessageIndex int
	Content      string
	Type         string
	Timestamp    string
	Keywords     []string
	CreatedAt    time.Time
}

// Match pairs a record with its relevance score for a query.
type Match struct {
	Record
	Score float64
}

// Service holds the per-chat memory index.
type Service struct {
	mu      sync.RWMutex
	records map[string][]Record
}

// NewService returns an empty memory index.
func NewService() *Service {
	return &Service{records: make(map[string][]Record)}
}

// Reindex replaces every record for chatID with ones freshly derived from
// messages, skipping messages with empty content. Message indices refer to
// positions in the supplied list.
func (s *Service) Reindex(chatID string, messages []chat.Message) {
	docs := make([]Record, 0, len(messages))
	for idx, msg := range messages {
		if strings.TrimSpace(msg.Content) == "" {
			continue
		}
		docs = append(docs, Record{
			ChatID:       chatID,
			MessageIndex: idx,
			Content:      msg.Content,
			Type:         msg.Type,
			Timestamp:    msg.Timestamp,
			Keywords:     ExtractKeywords(msg.Content),
			CreatedAt:    time.Now(),
		})
	}

	s.mu.Lock()
	s.records[chatID] = docs
	s.mu.Unlock()

	log.Printf("[memory] stored %d memories for chat %s", len(docs), chatID)
}

// Retrieve ranks the chat's records against the query by keyword overlap
// and returns the top limit matches in descending score order. A query with
// no usable keywords yields no matches.
func (s *Service) Retrieve(chatID, query string, limit int) []Match {
	queryKeywords := ExtractKeywords(query)
	if len(queryKeywords) == 0 {
		return nil
	}

	s.mu.RLock()
	records := s.records[chatID]
	s.mu.RUnlock()

	var matches []Match
	for _, rec := range records {
		score := Score(queryKeywords, rec.Keywords)
		if score > 0 {
			matches = append(matches, Match{Record: rec, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	log.Printf("[memory] retrieved %d relevant memories for chat %s", len(matches), chatID)
	return matches
}

// Delete drops all records for a chat. Used when the chat itself is deleted.
func (s *Service) Delete(chatID string) {
	s.mu.Lock()
	count := len(s.records[chatID])
	delete(s.records, chatID)
	s.mu.Unlock()

	log.Printf("[memory] deleted %d memories for chat %s", count, chatID)
}

// Count reports how many records a chat currently has indexed.
func (s *Service) Count(chatID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records[chatID])
}
