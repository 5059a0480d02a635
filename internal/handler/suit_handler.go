package handler

import (
	"net/http"

	"tailor-backend/internal/middleware"
	"tailor-backend/internal/service"
	"tailor-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type SuitHandler struct {
	suitService   service.SuitService
	searchService service.SearchService
}

func NewSuitHandler(suitService service.SuitService, searchService service.SearchService) *SuitHandler {
	return &SuitHandler{suitService: suitService, searchService: searchService}
}

func (h *SuitHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/suits")
	{
		group.GET("", h.ListSuits)
		group.GET("/search/:term", h.SearchSuits)
		group.GET("/:id", h.GetSuit)
		group.POST("", h.CreateSuit)
		group.PUT("/:id", h.UpdateSuit)
		group.DELETE("/:id", h.DeleteSuit)
	}
}

// ListSuits
// @Summary      List suits
// @Description  Lists suits ordered by due date with customer and worker names and images
// @Tags         suits
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.SuitResponse}
// @Router       /api/suits [get]
func (h *SuitHandler) ListSuits(c *gin.Context) {
	suits, err := h.suitService.ListSuits(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, suits))
}

// GetSuit
// @Summary      Get suit
// @Tags         suits
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Suit ID"
// @Success      200  {object}  response.Response{data=service.SuitResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/suits/{id} [get]
func (h *SuitHandler) GetSuit(c *gin.Context) {
	suit, err := h.suitService.GetSuit(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, suit))
}

// CreateSuit
// @Summary      Create suit
// @Description  Creates a suit for a customer; its id is {customer_id}_{n}
// @Tags         suits
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        customer_id  formData  string  true   "Customer ID"
// @Param        status       formData  string  false  "Status" Enums(no progress, work, stitching, warehouse, dispatched, completed)
// @Param        order_date   formData  string  false  "Order date (YYYY-MM-DD)"
// @Param        due_date     formData  string  false  "Due date (YYYY-MM-DD)"
// @Param        worker_id    formData  int     false  "Assigned worker"
// @Param        images       formData  file    false  "Suit images (up to 5)"
// @Success      201  {object}  response.Response{data=service.SuitResponse}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/suits [post]
func (h *SuitHandler) CreateSuit(c *gin.Context) {
	var req service.CreateSuitRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	files, err := uploadsFrom(c, fieldSuitImages)
	if err != nil {
		badRequest(c, "Invalid multipart form: "+err.Error())
		return
	}

	suit, err := h.suitService.CreateSuit(c.Request.Context(), middleware.UserID(c), req, files)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, suit))
}

// UpdateSuit
// @Summary      Update suit
// @Description  Overwrites the fields sent; an empty due_date or worker_id clears it
// @Tags         suits
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        id             path      string  true   "Suit ID"
// @Param        status         formData  string  false  "Status"
// @Param        due_date       formData  string  false  "Due date (YYYY-MM-DD)"
// @Param        worker_id      formData  string  false  "Assigned worker, empty to unassign"
// @Param        delete_images  formData  string  false  "Comma-separated image ids to remove"
// @Param        images         formData  file    false  "Suit images to add"
// @Success      200  {object}  response.Response{data=service.SuitResponse}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/suits/{id} [put]
func (h *SuitHandler) UpdateSuit(c *gin.Context) {
	var req service.UpdateSuitRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	files, err := uploadsFrom(c, fieldSuitImages)
	if err != nil {
		badRequest(c, "Invalid multipart form: "+err.Error())
		return
	}
	deleteIDs, err := deleteImageIDs(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	suit, err := h.suitService.UpdateSuit(c.Request.Context(), middleware.UserID(c), c.Param("id"), req, files, deleteIDs)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, suit))
}

// DeleteSuit
// @Summary      Delete suit
// @Tags         suits
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Suit ID"
// @Success      200  {object}  response.Response{data=response.MessageData}
// @Failure      404  {object}  response.Response
// @Router       /api/suits/{id} [delete]
func (h *SuitHandler) DeleteSuit(c *gin.Context) {
	if err := h.suitService.DeleteSuit(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Message(http.StatusOK, "Suit deleted"))
}

// SearchSuits
// @Summary      Search suits
// @Description  Case-insensitive match on suit id, customer name and customer phone
// @Tags         suits
// @Security     BearerAuth
// @Produce      json
// @Param        term  path      string  true  "Search term"
// @Success      200   {object}  response.Response{data=[]service.SuitResponse}
// @Router       /api/suits/search/{term} [get]
func (h *SuitHandler) SearchSuits(c *gin.Context) {
	results, err := h.searchService.Search(c.Request.Context(), service.SearchSuits, c.Param("term"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, results))
}
