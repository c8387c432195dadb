package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnioa/studymate-sync/internal/entities"
	"github.com/vnioa/studymate-sync/internal/learning"
)

// LearningController exposes the learning store and its mutations over
// the local API.
type LearningController struct {
	learning *learning.Controller
}

func NewLearningController(controller *learning.Controller) *LearningController {
	return &LearningController{learning: controller}
}

// Home returns the current home-view state.
// GET /api/learning/home
func (lc *LearningController) Home(c *gin.Context) {
	c.JSON(http.StatusOK, lc.learning.State())
}

// Bookmarks returns the bookmarks collection, most recent first.
// GET /api/learning/bookmarks
func (lc *LearningController) Bookmarks(c *gin.Context) {
	bookmarks := lc.learning.Bookmarks()
	if bookmarks == nil {
		bookmarks = []entities.Content{}
	}
	c.JSON(http.StatusOK, gin.H{"bookmarks": bookmarks})
}

// Refresh runs a manual refresh and returns the resulting state.
// POST /api/learning/refresh
func (lc *LearningController) Refresh(c *gin.Context) {
	if err := lc.learning.Refresh(c.Request.Context()); err != nil {
		respondGatewayError(c, err)
		return
	}
	c.JSON(http.StatusOK, lc.learning.State())
}

// AddContent creates a content item upstream and in the store.
// POST /api/learning/content
func (lc *LearningController) AddContent(c *gin.Context) {
	var body learning.NewContent
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "invalid content payload")
		return
	}
	if body.Title == "" {
		respondBadRequest(c, "title is required")
		return
	}

	created, err := lc.learning.AddContent(c.Request.Context(), body)
	if err != nil {
		respondGatewayError(c, err)
		return
	}
	respondCreated(c, created)
}

// UpdateContent patches a content item.
// PUT /api/learning/content/:id
func (lc *LearningController) UpdateContent(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var patch entities.ContentPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBadRequest(c, "invalid patch payload")
		return
	}

	updated, err := lc.learning.UpdateContent(c.Request.Context(), id, patch)
	if err != nil {
		respondGatewayError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteContent removes a content item everywhere.
// DELETE /api/learning/content/:id
func (lc *LearningController) DeleteContent(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := lc.learning.DeleteContent(c.Request.Context(), id); err != nil {
		respondGatewayError(c, err)
		return
	}
	respondSuccess(c, "content deleted")
}

// RateContent submits a rating.
// POST /api/learning/content/:id/rating
func (lc *LearningController) RateContent(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var body struct {
		Rating float64 `json:"rating"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "invalid rating payload")
		return
	}
	if body.Rating < 0 || body.Rating > 5 {
		respondBadRequest(c, "rating must be between 0 and 5")
		return
	}

	if err := lc.learning.RateContent(c.Request.Context(), id, body.Rating); err != nil {
		respondGatewayError(c, err)
		return
	}
	respondSuccess(c, "rating applied")
}

// ToggleBookmark flips a bookmark.
// POST /api/learning/content/:id/bookmark
func (lc *LearningController) ToggleBookmark(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	bookmarked, err := lc.learning.ToggleBookmark(c.Request.Context(), id)
	if err != nil {
		respondGatewayError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"isBookmarked": bookmarked})
}

// UpdateProgress reports learning progress.
// PUT /api/learning/content/:id/progress
func (lc *LearningController) UpdateProgress(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var body struct {
		Progress int `json:"progress"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "invalid progress payload")
		return
	}
	if body.Progress < 0 || body.Progress > 100 {
		respondBadRequest(c, "progress must be between 0 and 100")
		return
	}

	if err := lc.learning.UpdateProgress(c.Request.Context(), id, body.Progress); err != nil {
		respondGatewayError(c, err)
		return
	}
	respondSuccess(c, "progress updated")
}
