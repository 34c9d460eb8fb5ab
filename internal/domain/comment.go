package domain

import "time"

// Comment is a review remark attached to a conversion task, optionally
// anchored to a line of the translated code.
type Comment struct {
	ID         string
	TaskID     string
	Author     string
	Content    string
	LineNumber *int
	Resolved   bool
	CreatedAt  time.Time
}
