package controllers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/growthacceleratorstaffing/linked-job-seeker-board-sub000/models"
	"github.com/growthacceleratorstaffing/linked-job-seeker-board-sub000/services"
	"github.com/growthacceleratorstaffing/linked-job-seeker-board-sub000/utils"

	"github.com/gin-gonic/gin"
	"github.com/kataras/golog"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type candidateReader interface {
	List(ctx context.Context, f services.CandidateFilter) ([]models.Candidate, int64, error)
	ListAll(ctx context.Context, f services.CandidateFilter) ([]models.Candidate, error)
}

var (
	newCandidateReader = func() candidateReader {
		return services.NewCandidateRepository(nil)
	}
	latestSyncRun = func(ctx context.Context) (*models.IntegrationSyncLog, error) {
		return services.NewSyncRunService(nil).Latest(ctx)
	}
)

func candidateFilterFromQuery(c *gin.Context) services.CandidateFilter {
	return services.CandidateFilter{
		Source:   services.SourcePlatformWorkable,
		Stage:    utils.SanitizeInput(c.Query("stage")),
		State:    utils.SanitizeInput(c.Query("state")),
		Skill:    utils.SanitizeInput(c.Query("skill")),
		Location: utils.SanitizeInput(c.Query("location")),
		MinScore: utils.ParseBoundedInt(c.Query("min_score"), 0, 0, 100),
		Limit:    utils.ParseBoundedInt(c.DefaultQuery("limit", "50"), 50, 1, 500),
		Offset:   utils.ParseBoundedInt(c.DefaultQuery("offset", "0"), 0, 0, 0),
	}
}

// GET /api/v1/candidates
func ListCandidates(c *gin.Context) {
	filter := candidateFilterFromQuery(c)

	candidates, total, err := newCandidateReader().List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    candidates,
		"pagination": gin.H{
			"limit":    filter.Limit,
			"offset":   filter.Offset,
			"total":    total,
			"has_next": int64(filter.Offset+filter.Limit) < total,
			"has_prev": filter.Offset > 0,
		},
	})
}

// GET /api/v1/candidates/export
func ExportCandidates(c *gin.Context) {
	filter := candidateFilterFromQuery(c)
	ctx := c.Request.Context()

	candidates, err := newCandidateReader().ListAll(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	latest, err := latestSyncRun(ctx)
	if err != nil {
		golog.Warnf("export: load latest sync run: %v", err)
	}

	var buf bytes.Buffer
	if err := services.WriteCandidatesWorkbook(&buf, candidates, services.StatsFromRun(latest)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	filename := fmt.Sprintf("workable-candidates-%s.xlsx", time.Now().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
