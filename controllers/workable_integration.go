package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/growthacceleratorstaffing/linked-job-seeker-board-sub000/config"
	"github.com/growthacceleratorstaffing/linked-job-seeker-board-sub000/middleware"
	"github.com/growthacceleratorstaffing/linked-job-seeker-board-sub000/services"
	"github.com/growthacceleratorstaffing/linked-job-seeker-board-sub000/utils"

	"github.com/gin-gonic/gin"
	"github.com/kataras/golog"
)

const (
	ActionLoadAllCandidates = "load_all_candidates"
	ActionSyncCandidates    = "sync_candidates"
	ActionTestConnection    = "test_connection"
	ActionSyncStatus        = "sync_status"
)

type workableSyncer interface {
	LoadAllCandidates(ctx context.Context, trigger string) (*services.SyncResult, error)
	SyncCandidates(ctx context.Context, trigger string) (*services.SyncResult, error)
	TestConnection(ctx context.Context) (*services.ConnectionResult, error)
	Status(ctx context.Context) (*services.SyncStatus, error)
}

var newWorkableSyncer = func() (workableSyncer, error) {
	return services.NewDefaultWorkableSyncService(config.LoadWorkableConfig(), nil)
}

type workableActionRequest struct {
	Action string `json:"action"`
}

// POST /api/v1/integrations/workable
func WorkableIntegrationAction(c *gin.Context) {
	var req workableActionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	action := strings.ToLower(utils.SanitizeInput(req.Action))

	switch action {
	case ActionLoadAllCandidates, ActionSyncCandidates, ActionTestConnection, ActionSyncStatus:
	case "":
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "action is required"})
		return
	default:
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "unknown action: " + action})
		return
	}

	syncer, err := newWorkableSyncer()
	if err != nil {
		writeWorkableError(c, err, nil)
		return
	}

	// Runs outlive the request; a disconnecting client must not abort a
	// half-written reconciliation.
	ctx := services.DetachedContext(c.Request.Context())
	trigger := triggerSource(c)

	switch action {
	case ActionLoadAllCandidates, ActionSyncCandidates:
		var result *services.SyncResult
		if action == ActionLoadAllCandidates {
			result, err = syncer.LoadAllCandidates(ctx, trigger)
		} else {
			result, err = syncer.SyncCandidates(ctx, trigger)
		}
		if err != nil {
			writeWorkableError(c, err, result)
			return
		}
		c.JSON(http.StatusOK, result)

	case ActionTestConnection:
		result, err := syncer.TestConnection(ctx)
		if err != nil {
			writeWorkableError(c, err, nil)
			return
		}
		status := http.StatusOK
		if !result.Success {
			status = http.StatusBadGateway
		}
		c.JSON(status, result)

	case ActionSyncStatus:
		status, err := syncer.Status(ctx)
		if err != nil {
			writeWorkableError(c, err, nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "status": status})
	}
}

func writeWorkableError(c *gin.Context, err error, result *services.SyncResult) {
	var cfgErr *services.ConfigurationError
	switch {
	case errors.As(err, &cfgErr):
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": cfgErr.Error(), "missing": cfgErr.Missing})
	case errors.Is(err, services.ErrSyncAlreadyRunning):
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": "workable candidate sync already running"})
	default:
		golog.Errorf("workable integration: %v", err)
		body := gin.H{"success": false, "error": err.Error()}
		if result != nil {
			body["totalCandidates"] = result.TotalCandidates
			body["syncedCandidates"] = result.SyncedCandidates
			body["errors"] = result.Errors
			body["message"] = result.Message
			body["runId"] = result.RunID
		}
		c.JSON(http.StatusInternalServerError, body)
	}
}

func triggerSource(c *gin.Context) string {
	if role, _ := c.Get("role"); role == middleware.RoleService {
		return "scheduler"
	}
	if userID, ok := c.Get("userID"); ok {
		if id, _ := userID.(string); id != "" {
			return "api:" + id
		}
	}
	return "api"
}
