package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnioa/studymate-sync/internal/friends"
)

// FriendsController exposes the friend list and its mutations.
type FriendsController struct {
	friends *friends.Controller
}

func NewFriendsController(controller *friends.Controller) *FriendsController {
	return &FriendsController{friends: controller}
}

// List returns the current friend list state.
// GET /api/friends
func (fc *FriendsController) List(c *gin.Context) {
	c.JSON(http.StatusOK, fc.friends.State())
}

// Refresh runs a manual refresh and returns the resulting state.
// POST /api/friends/refresh
func (fc *FriendsController) Refresh(c *gin.Context) {
	if err := fc.friends.Refresh(c.Request.Context()); err != nil {
		respondGatewayError(c, err)
		return
	}
	c.JSON(http.StatusOK, fc.friends.State())
}

// Accept confirms a pending friend request.
// POST /api/friends/:id/accept
func (fc *FriendsController) Accept(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := fc.friends.Accept(c.Request.Context(), id); err != nil {
		respondGatewayError(c, err)
		return
	}
	respondSuccess(c, "friend request accepted")
}

// Remove deletes a friend relation.
// DELETE /api/friends/:id
func (fc *FriendsController) Remove(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := fc.friends.Remove(c.Request.Context(), id); err != nil {
		respondGatewayError(c, err)
		return
	}
	respondSuccess(c, "friend removed")
}
