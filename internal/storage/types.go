package storage

import (
	"errors"
	"time"
)

// UnknownLanguage is recorded for statuses whose author has no language.
const UnknownLanguage = "U"

var (
	ErrStatusNotFound  = errors.New("status not found")
	ErrDuplicateStatus = errors.New("duplicate status")
	ErrAuthorNotFound  = errors.New("author not found")
)

// Status is one stored news item.
type Status struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	Source    string    `json:"source"`
	Text      string    `json:"text"`
	Language  string    `json:"language_code"`
}

// Topic maps a slug to the search text it stands for.
type Topic struct {
	Slug        string `json:"topic"`
	Description string `json:"desc"`
	Category    string `json:"cat"`
	Query       string `json:"query"`
}

// Author pairs a feed author with its language code.
type Author struct {
	Name     string `json:"author"`
	Language string `json:"language_code"`
}

// Order is the created_at sort direction of Find.
type Order int

const (
	Descending Order = iota
	Ascending
)

// Stats holds aggregate statistics about the nooze database.
type Stats struct {
	TotalStatuses     int64
	TotalTopics       int64
	TotalAuthors      int64
	UnknownAuthors    int64
	OldestStatus      time.Time
	NewestStatus      time.Time
	DatabaseSizeBytes int64
	TopAuthors        []AuthorCount
	LastRead          map[string]time.Time
}

// AuthorCount pairs an author with its status count.
type AuthorCount struct {
	Author string
	Count  int64
}
