package handler

import (
	"net/http"
	"strconv"

	"tailor-backend/internal/middleware"
	"tailor-backend/internal/service"
	"tailor-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type WorkerHandler struct {
	workerService service.WorkerService
	searchService service.SearchService
}

func NewWorkerHandler(workerService service.WorkerService, searchService service.SearchService) *WorkerHandler {
	return &WorkerHandler{workerService: workerService, searchService: searchService}
}

func (h *WorkerHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/workers")
	{
		group.GET("", h.ListWorkers)
		group.GET("/search/:term", h.SearchWorkers)
		group.GET("/:id", h.GetWorker)
		group.POST("", h.CreateWorker)
		group.PUT("/:id", h.UpdateWorker)
		group.DELETE("/:id", h.DeleteWorker)
	}
}

func workerID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "Invalid worker id")
		return 0, false
	}
	return uint(id), true
}

// ListWorkers
// @Summary      List workers
// @Tags         workers
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.Worker}
// @Router       /api/workers [get]
func (h *WorkerHandler) ListWorkers(c *gin.Context) {
	workers, err := h.workerService.ListWorkers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, workers))
}

// GetWorker
// @Summary      Get worker
// @Description  Returns a worker with the suits assigned to it
// @Tags         workers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Worker ID"
// @Success      200  {object}  response.Response{data=service.WorkerResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/workers/{id} [get]
func (h *WorkerHandler) GetWorker(c *gin.Context) {
	id, ok := workerID(c)
	if !ok {
		return
	}
	worker, err := h.workerService.GetWorker(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, worker))
}

// CreateWorker
// @Summary      Create worker
// @Tags         workers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.WorkerRequest  true  "Worker"
// @Success      201      {object}  response.Response{data=model.Worker}
// @Failure      400      {object}  response.Response
// @Router       /api/workers [post]
func (h *WorkerHandler) CreateWorker(c *gin.Context) {
	var req service.WorkerRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	worker, err := h.workerService.CreateWorker(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, worker))
}

// UpdateWorker
// @Summary      Rename worker
// @Tags         workers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int                    true  "Worker ID"
// @Param        payload  body      service.WorkerRequest  true  "Worker"
// @Success      200      {object}  response.Response{data=model.Worker}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/workers/{id} [put]
func (h *WorkerHandler) UpdateWorker(c *gin.Context) {
	id, ok := workerID(c)
	if !ok {
		return
	}
	var req service.WorkerRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	worker, err := h.workerService.UpdateWorker(c.Request.Context(), middleware.UserID(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, worker))
}

// DeleteWorker
// @Summary      Delete worker
// @Description  Unassigns the worker's suits and removes the worker
// @Tags         workers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Worker ID"
// @Success      200  {object}  response.Response{data=response.MessageData}
// @Failure      404  {object}  response.Response
// @Router       /api/workers/{id} [delete]
func (h *WorkerHandler) DeleteWorker(c *gin.Context) {
	id, ok := workerID(c)
	if !ok {
		return
	}
	if err := h.workerService.DeleteWorker(c.Request.Context(), middleware.UserID(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Message(http.StatusOK, "Worker deleted"))
}

// SearchWorkers
// @Summary      Search workers
// @Tags         workers
// @Security     BearerAuth
// @Produce      json
// @Param        term  path      string  true  "Search term"
// @Success      200   {object}  response.Response{data=[]model.Worker}
// @Router       /api/workers/search/{term} [get]
func (h *WorkerHandler) SearchWorkers(c *gin.Context) {
	results, err := h.searchService.Search(c.Request.Context(), service.SearchWorkers, c.Param("term"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, results))
}
