// Package friends syncs the friend list: pending requests, accepted
// friends and the accept/remove mutations.
package friends

import (
	"context"
	"fmt"

	"github.com/vnioa/studymate-sync/internal/apiclient"
	"github.com/vnioa/studymate-sync/internal/entities"
)

// Service is a thin adapter over the gateway client for the friends
// endpoints. Errors from the client pass through unchanged.
type Service struct {
	client *apiclient.Client
}

func NewService(client *apiclient.Client) *Service {
	return &Service{client: client}
}

type friendListResponse struct {
	Success bool              `json:"success"`
	Friends []entities.Friend `json:"friends"`
}

type friendResponse struct {
	Success bool            `json:"success"`
	Friend  entities.Friend `json:"friend"`
}

// List fetches the full friend list, pending requests included.
func (s *Service) List(ctx context.Context) ([]entities.Friend, error) {
	var resp friendListResponse
	if err := s.client.GetJSON(ctx, "/api/friends", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Friends, nil
}

// Accept confirms a pending request and returns the updated relation.
func (s *Service) Accept(ctx context.Context, id int64) (entities.Friend, error) {
	var resp friendResponse
	if err := s.client.PostJSON(ctx, fmt.Sprintf("/api/friends/%d/accept", id), nil, &resp); err != nil {
		return entities.Friend{}, err
	}
	return resp.Friend, nil
}

// Remove deletes a friend relation.
func (s *Service) Remove(ctx context.Context, id int64) error {
	return s.client.DeleteJSON(ctx, fmt.Sprintf("/api/friends/%d", id), nil)
}
