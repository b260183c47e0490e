package domain

import "time"

// Data projections are what the service layer hands to callers. They never
// expose the owner hash, and all derived numbers (rolling views, ranks,
// page counts) are computed at read time.

// CounterData is the public view of a visit counter.
type CounterData struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Total     int64  `json:"total"`
	Today     int64  `json:"today"`
	Yesterday int64  `json:"yesterday"`
	Week      int64  `json:"week"`
	Month     int64  `json:"month"`
}

// LikeData is the public view of a like button for one viewer.
type LikeData struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Total     int64  `json:"total"`
	UserLiked bool   `json:"userLiked"`
}

// RankingEntry is one ranked (name, score) pair. Rank is the ordinal
// position in a fresh descending read; it is never stored.
type RankingEntry struct {
	Rank  int     `json:"rank"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// RankingData is the public view of a score ranking.
type RankingData struct {
	ID         string         `json:"id"`
	URL        string         `json:"url"`
	MaxEntries int            `json:"maxEntries"`
	Total      int64          `json:"totalEntries"`
	Entries    []RankingEntry `json:"entries"`
}

// BBSData is one page of a message board.
type BBSData struct {
	ID            string      `json:"id"`
	URL           string      `json:"url"`
	Settings      BBSSettings `json:"settings"`
	TotalMessages int64       `json:"totalMessages"`
	TotalPages    int         `json:"totalPages"`
	Page          int         `json:"page"`
	Messages      []Message   `json:"messages"`
	LastMessageAt time.Time   `json:"lastMessageAt,omitzero"`
}
