// Package learning implements the learning feature: a thin service adapter
// over the API gateway plus a controller that keeps the content store in
// sync and turns view intents into confirm-then-apply mutations.
package learning

import (
	"context"
	"fmt"

	"github.com/vnioa/studymate-sync/internal/apiclient"
	"github.com/vnioa/studymate-sync/internal/entities"
)

// Service is a pure request/response adapter: one gateway call per method,
// the payload unwrapped from the success envelope, errors passed through
// unchanged. No retries, no caching, no state.
type Service struct {
	client *apiclient.Client
}

// NewService creates a learning service over the gateway client.
func NewService(client *apiclient.Client) *Service {
	return &Service{client: client}
}

// NewContent carries the fields of a content creation request.
type NewContent struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
}

// RatingResult is the server-confirmed outcome of a rating call.
type RatingResult struct {
	ContentID int64   `json:"contentId"`
	Rating    float64 `json:"rating"`
}

// BookmarkResult is the server-confirmed outcome of a bookmark toggle.
type BookmarkResult struct {
	ContentID    int64 `json:"contentId"`
	IsBookmarked bool  `json:"isBookmarked"`
}

// ProgressResult is the server-confirmed outcome of a progress update.
type ProgressResult struct {
	ContentID int64 `json:"contentId"`
	Progress  int   `json:"progress"`
}

type contentListResponse struct {
	Success  bool               `json:"success"`
	Contents []entities.Content `json:"contents"`
}

type contentResponse struct {
	Success bool             `json:"success"`
	Content entities.Content `json:"content"`
}

type statisticsResponse struct {
	Success    bool                `json:"success"`
	Statistics entities.Statistics `json:"statistics"`
}

// Personalized fetches the personalized content list.
func (s *Service) Personalized(ctx context.Context) ([]entities.Content, error) {
	var resp contentListResponse
	if err := s.client.GetJSON(ctx, "/api/learning/personalized", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Contents, nil
}

// Popular fetches the popular content list.
func (s *Service) Popular(ctx context.Context) ([]entities.Content, error) {
	var resp contentListResponse
	if err := s.client.GetJSON(ctx, "/api/learning/popular", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Contents, nil
}

// Recommendations fetches the recommended content list.
func (s *Service) Recommendations(ctx context.Context) ([]entities.Content, error) {
	var resp contentListResponse
	if err := s.client.GetJSON(ctx, "/api/learning/recommendations", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Contents, nil
}

// Statistics fetches the study statistics summary.
func (s *Service) Statistics(ctx context.Context) (entities.Statistics, error) {
	var resp statisticsResponse
	if err := s.client.GetJSON(ctx, "/api/learning/statistics", nil, &resp); err != nil {
		return entities.Statistics{}, err
	}
	return resp.Statistics, nil
}

// AddContent creates a new content item and returns the server's record.
func (s *Service) AddContent(ctx context.Context, content NewContent) (entities.Content, error) {
	var resp contentResponse
	if err := s.client.PostJSON(ctx, "/api/learning/content", content, &resp); err != nil {
		return entities.Content{}, err
	}
	return resp.Content, nil
}

// UpdateContent patches an existing content item and returns the server's
// updated record.
func (s *Service) UpdateContent(ctx context.Context, id int64, patch entities.ContentPatch) (entities.Content, error) {
	var resp contentResponse
	if err := s.client.PutJSON(ctx, fmt.Sprintf("/api/learning/content/%d", id), patch, &resp); err != nil {
		return entities.Content{}, err
	}
	return resp.Content, nil
}

// DeleteContent removes a content item.
func (s *Service) DeleteContent(ctx context.Context, id int64) error {
	return s.client.DeleteJSON(ctx, fmt.Sprintf("/api/learning/content/%d", id), nil)
}

// RateContent submits a rating and returns the server-confirmed value.
func (s *Service) RateContent(ctx context.Context, id int64, rating float64) (RatingResult, error) {
	body := map[string]float64{"rating": rating}
	var resp struct {
		Success bool `json:"success"`
		RatingResult
	}
	if err := s.client.PostJSON(ctx, fmt.Sprintf("/api/learning/content/%d/rating", id), body, &resp); err != nil {
		return RatingResult{}, err
	}
	return resp.RatingResult, nil
}

// ToggleBookmark flips the bookmark state and returns the server-confirmed
// value.
func (s *Service) ToggleBookmark(ctx context.Context, id int64) (BookmarkResult, error) {
	var resp struct {
		Success bool `json:"success"`
		BookmarkResult
	}
	if err := s.client.PostJSON(ctx, fmt.Sprintf("/api/learning/content/%d/bookmark", id), nil, &resp); err != nil {
		return BookmarkResult{}, err
	}
	return resp.BookmarkResult, nil
}

// UpdateProgress reports study progress and returns the server-confirmed
// value.
func (s *Service) UpdateProgress(ctx context.Context, id int64, progress int) (ProgressResult, error) {
	body := map[string]int{"progress": progress}
	var resp struct {
		Success bool `json:"success"`
		ProgressResult
	}
	if err := s.client.PutJSON(ctx, fmt.Sprintf("/api/learning/content/%d/progress", id), body, &resp); err != nil {
		return ProgressResult{}, err
	}
	return resp.ProgressResult, nil
}
