package entities

import (
	"time"
)

// Content is a single learning item as returned by the StudyMate API.
// Identity is by ID; every collection holding a copy of the same ID must
// stay field-consistent after a mutation.
type Content struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Category     string     `json:"category,omitempty"`
	Progress     int        `json:"progress"` // 0-100
	Rating       float64    `json:"rating"`
	UserRated    bool       `json:"userRated"`
	IsBookmarked bool       `json:"isBookmarked"`
	BookmarkedAt *time.Time `json:"bookmarkedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Statistics summarises the user's study activity for the home view.
type Statistics struct {
	TotalStudyMinutes int     `json:"totalStudyMinutes"`
	CompletedContents int     `json:"completedContents"`
	StreakDays        int     `json:"streakDays"`
	AverageRating     float64 `json:"averageRating"`
}

// ContentPatch carries the mutable fields of a Content update. Nil fields
// are left untouched when the patch is applied.
type ContentPatch struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Progress    *int     `json:"progress,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
}

// FriendStatus describes the lifecycle of a friend relation.
type FriendStatus string

const (
	FriendStatusPending  FriendStatus = "pending"
	FriendStatusAccepted FriendStatus = "accepted"
)

// Friend is a single friend relation as returned by the StudyMate API.
type Friend struct {
	ID       int64        `json:"id"`
	Nickname string       `json:"nickname"`
	Status   FriendStatus `json:"status"`
	AddedAt  time.Time    `json:"addedAt"`
}
