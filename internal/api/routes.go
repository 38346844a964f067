package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/calldesk/dialdesk/internal/agent"
	"github.com/calldesk/dialdesk/internal/metrics"
	"github.com/calldesk/dialdesk/internal/models"
	"github.com/calldesk/dialdesk/internal/queue"
	"github.com/calldesk/dialdesk/internal/source"
	"github.com/calldesk/dialdesk/internal/task"
	"github.com/calldesk/dialdesk/internal/workflow"
)

// registerRoutes sets up all API routes on the Gin router.
func registerRoutes(router *gin.Engine, db *gorm.DB, opts workflow.Options) {
	api := router.Group("/api")

	api.POST("/agents", handleCreateAgent(db))
	api.GET("/agents", handleListAgents(db))
	api.GET("/agents/:id", handleGetAgent(db))
	api.GET("/agents/:id/states", handleStateHistory(db))
	api.PUT("/agents/:id/state", handleChangeState(db, opts.Agent))
	api.POST("/agents/:id/tasks", handleStartTask(db, opts.Agent))
	api.GET("/agents/:id/tasks", handleListTasks(db))
	api.POST("/tasks/:id/complete", handleFinishTask(db, opts.Agent))

	api.POST("/sources", handleCreateSource(db))
	api.GET("/sources", handleListSources(db))
	api.POST("/sources/:id/enqueue", handleEnqueue(db))
	api.POST("/sources/:id/next", handleReserveNext(db))
	api.POST("/sources/:id/pull", handlePullNext(db, opts))
	api.GET("/sources/:id/stats", handleQueueStats(db))
	api.GET("/sources/:id/depth", handleQueueDepth(db))

	api.POST("/queue/:id/complete", handleComplete(db, opts.Queue))
	api.POST("/queue/:id/skip", handleSkip(db, opts.Queue))

	api.GET("/metrics/handle-time", handleHandleTime(db))
	api.GET("/metrics/agent-states", handleAgentStates(db))
	api.GET("/metrics/leaderboard", handleLeaderboard(db))
	api.GET("/metrics/queue-stats", handleQueueStatsAll(db))
}

// errStatus maps typed domain failures to HTTP status codes.
func errStatus(err error) int {
	switch {
	case errors.Is(err, queue.ErrNotFound),
		errors.Is(err, agent.ErrNotFound),
		errors.Is(err, task.ErrNotFound),
		errors.Is(err, source.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, queue.ErrInvalidState),
		errors.Is(err, agent.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, queue.ErrContended):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func abortErr(c *gin.Context, err error) {
	c.JSON(errStatus(err), gin.H{"error": err.Error()})
}

// uintParam parses a numeric path parameter, responding 400 on garbage.
func uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name + " parameter"})
		return 0, false
	}
	return uint(v), true
}

// uintQuery parses an optional numeric query parameter.
func uintQuery(c *gin.Context, name string) (*uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name + " parameter"})
		return nil, false
	}
	u := uint(v)
	return &u, true
}

type createAgentRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required"`
}

type stateRequest struct {
	State string `json:"state" binding:"required"`
}

type createSourceRequest struct {
	Name        string `json:"name" binding:"required"`
	ExternalRef string `json:"external_ref"`
}

type enqueueRequest struct {
	RecordIDs []int64 `json:"record_ids" binding:"required"`
}

type reserveRequest struct {
	AgentID uint `json:"agent_id" binding:"required"`
}

type startTaskRequest struct {
	SourceID uint  `json:"source_id" binding:"required"`
	RecordID int64 `json:"record_id" binding:"required"`
}

func handleCreateAgent(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createAgentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ag, err := agent.Create(db, req.Name, req.Email)
		if err != nil {
			abortErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, ag)
	}
}

func handleListAgents(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		agents, err := agent.List(db)
		if err != nil {
			abortErr(c, err)
			return
		}
		c.JSON(http.StatusOK, agents)
	}
}

func handleGetAgent(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := uintParam(c, "id")
		if !ok {
			return
		}
		ag, err := agent.Get(db, id)
		if err != nil {
			abortErr(c, err)
			return
		}
		c.JSON(http.StatusOK, ag)
	}
}

func handleStateHistory(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := uintParam(c, "id")
		if !ok {
			return
		}
		logs, err := agent.StateHistory(db, id)
		if err != nil {
			abortErr(c, err)
			return
		}
		c.JSON(http.StatusOK, logs)
	}
}

func handleChangeState(db *gorm.DB, pol agent.Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := uintParam(c, "id")
		if !ok {
			return
		}
		var req stateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ag, err := agent.Transition(db, id, models.AgentState(req.State), pol)
		if err != nil {
			abortErr(c, err)
			return
		}
		c.JSON(http.StatusOK, ag)
	}
}

func handleStartTask(db *gorm.DB, pol agent.Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := uintParam(c, "id")
		if !ok {
			return
		}
		var req startTaskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		tl, err := task.Start(db, id, req.SourceID, req.RecordID, pol)
		if err != nil {
			abortErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, tl)
	}
}

func handleListTasks(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := uintParam(c, "id")
		if !ok {
			return
		}
		logs, err := task.ListForAgent(db, id)
		if err != nil {
			abortErr(c, err)
			return
		}
		c.JSON(http.StatusOK, logs)
	}
}

func handleFinishTask(db *gorm.DB, pol agent.Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := uintParam(c, "id")
		if !ok {
			return
		}
		tl, err := task.Finish(db, id, pol)
		if err != nil {
			abortErr(c, err)
			return
		}
		c.JSON(http.StatusOK, tl)
	}
}

func handleCreateSource(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createSourceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		src, err := source.Create(db, req.Name, req.ExternalRef)
		if err != nil {
			abortErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, src)
	}
}

func handleListSources(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sources, err := source.List(db)
		if err != nil {
			abortErr(c, err)
			return
		}
		c.JSON(http.StatusOK, sources)
	}
}

func handleEnqueue(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := uintParam(c, "id")
		if !ok {
			return
		}
		var req enqueueRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		n, err := queue.Enqueue(db, id, req.RecordIDs)
		if err != nil {
			abortErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"enqueued": n})
	}
}

func handleReserveNext(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := uintParam(c, "id")
		if !ok {
			return
		}
		var req reserveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		entry, err := queue.ReserveNext(db, id, req.AgentID)
		if err != nil {
			abortErr(c, err)
			return
		}
		if entry == nil {
			c.Status(http.StatusNoContent)
			return
		}
		c.JSON(http.StatusOK, entry)
	}
}

func handlePullNext(db *gorm.DB, opts workflow.Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := uintParam(c, "id")
		if !ok {
			return
		}
		var req reserveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		asg, err := workflow.PullNext(db, id, req.AgentID, opts)
		if err != nil {
			abortErr(c, err)
			return
		}
		if asg == nil {
			c.Status(http.StatusNoContent)
			return
		}
		c.JSON(http.StatusOK, asg)
	}
}

func handleQueueStats(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := uintParam(c, "id")
		if !ok {
			return
		}
		counts, err := queue.Stats(db, id)
		if err != nil {
			abortErr(c, err)
			return
		}
		c.JSON(http.StatusOK, counts)
	}
}

func handleQueueDepth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := uintParam(c, "id")
		if !ok {
			return
		}
		depth, err := queue.Depth(db, id)
		if err != nil {
			abortErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"depth": depth})
	}
}

func handleComplete(db *gorm.DB, pol queue.Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := uintParam(c, "id")
		if !ok {
			return
		}
		entry, err := queue.Complete(db, id, pol)
		if err != nil {
			abortErr(c, err)
			return
		}
		c.JSON(http.StatusOK, entry)
	}
}

func handleSkip(db *gorm.DB, pol queue.Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := uintParam(c, "id")
		if !ok {
			return
		}
		entry, err := queue.Skip(db, id, pol)
		if err != nil {
			abortErr(c, err)
			return
		}
		c.JSON(http.StatusOK, entry)
	}
}

func handleHandleTime(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		agentID, ok := uintQuery(c, "agent_id")
		if !ok {
			return
		}
		sourceID, ok := uintQuery(c, "source_id")
		if !ok {
			return
		}
		ht, err := metrics.AverageHandleTime(db, metrics.Filter{AgentID: agentID, SourceID: sourceID})
		if err != nil {
			abortErr(c, err)
			return
		}
		c.JSON(http.StatusOK, ht)
	}
}

func handleAgentStates(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		dist, err := metrics.StateDistribution(db)
		if err != nil {
			abortErr(c, err)
			return
		}
		c.JSON(http.StatusOK, dist)
	}
}

func handleLeaderboard(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sourceID, ok := uintQuery(c, "source_id")
		if !ok {
			return
		}
		rows, err := metrics.Leaderboard(db, sourceID)
		if err != nil {
			abortErr(c, err)
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

func handleQueueStatsAll(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := metrics.QueueStatsAll(db)
		if err != nil {
			abortErr(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}
