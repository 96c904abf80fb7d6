package domain

import "time"

type InsightID string

type Insight struct {
	ID          InsightID
	PostID      string
	Content     string
	Images      []string
	GeneratedAt time.Time
}
