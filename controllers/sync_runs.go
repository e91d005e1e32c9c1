package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/growthacceleratorstaffing/linked-job-seeker-board-sub000/models"
	"github.com/growthacceleratorstaffing/linked-job-seeker-board-sub000/services"
	"github.com/growthacceleratorstaffing/linked-job-seeker-board-sub000/utils"

	"github.com/gin-gonic/gin"
)

type syncRunReader interface {
	List(ctx context.Context, limit, offset int) ([]models.IntegrationSyncLog, int64, error)
	GetByID(ctx context.Context, id uint) (*models.IntegrationSyncLog, error)
}

var newSyncRunReader = func() syncRunReader {
	return services.NewSyncRunService(nil)
}

// GET /api/v1/integrations/workable/runs
func ListWorkableSyncRuns(c *gin.Context) {
	limit := utils.ParseBoundedInt(c.DefaultQuery("limit", "20"), 20, 1, 100)
	offset := utils.ParseBoundedInt(c.DefaultQuery("offset", "0"), 0, 0, 0)

	runs, total, err := newSyncRunReader().List(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    runs,
		"pagination": gin.H{
			"limit":    limit,
			"offset":   offset,
			"total":    total,
			"has_next": int64(offset+limit) < total,
			"has_prev": offset > 0,
		},
	})
}

// GET /api/v1/integrations/workable/runs/:id
func GetWorkableSyncRun(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid run id"})
		return
	}

	run, err := newSyncRunReader().GetByID(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrSyncRunNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": run})
}
