package handler

import (
	"net/http"

	"tailor-backend/internal/middleware"
	"tailor-backend/internal/service"
	"tailor-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type CustomerHandler struct {
	customerService service.CustomerService
	searchService   service.SearchService
}

func NewCustomerHandler(customerService service.CustomerService, searchService service.SearchService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService, searchService: searchService}
}

func (h *CustomerHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/customers")
	{
		group.GET("", h.ListCustomers)
		group.GET("/search/:term", h.SearchCustomers)
		group.GET("/:id", h.GetCustomer)
		group.POST("", h.CreateCustomer)
		group.PUT("/:id", h.UpdateCustomer)
		group.DELETE("/:id", h.DeleteCustomer)
	}
}

// ListCustomers
// @Summary      List customers
// @Description  Lists customers ordered by due date, earliest first, with their measurement image counts
// @Tags         customers
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.CustomerListItem}
// @Router       /api/customers [get]
func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	customers, err := h.customerService.ListCustomers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, customers))
}

// GetCustomer
// @Summary      Get customer
// @Description  Returns a customer with measurement images and suits
// @Tags         customers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Customer ID"
// @Success      200  {object}  response.Response{data=service.CustomerResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/customers/{id} [get]
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	customer, err := h.customerService.GetCustomer(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, customer))
}

// CreateCustomer
// @Summary      Create customer
// @Description  Creates a customer; the id is derived from the phone number or instagram id
// @Tags         customers
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        name                   formData  string  false  "Name"
// @Param        phone_number           formData  string  false  "Phone number"
// @Param        instagram_id           formData  string  false  "Instagram handle"
// @Param        order_date             formData  string  false  "Order date (YYYY-MM-DD)"
// @Param        due_date               formData  string  false  "Due date (YYYY-MM-DD)"
// @Param        pending_amount         formData  string  false  "Pending amount"
// @Param        received_amount        formData  string  false  "Received amount"
// @Param        measurement_image_url  formData  file    false  "Measurement images (up to 5)"
// @Success      201  {object}  response.Response{data=service.CustomerResponse}
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/customers [post]
func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var req service.CreateCustomerRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	files, err := uploadsFrom(c, fieldMeasurementImages)
	if err != nil {
		badRequest(c, "Invalid multipart form: "+err.Error())
		return
	}

	customer, err := h.customerService.CreateCustomer(c.Request.Context(), middleware.UserID(c), req, files)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, customer))
}

// UpdateCustomer
// @Summary      Update customer
// @Description  Overwrites the fields sent, removes images listed in delete_images and adds new uploads
// @Tags         customers
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        id                     path      string  true   "Customer ID"
// @Param        name                   formData  string  false  "Name"
// @Param        phone_number           formData  string  false  "Phone number"
// @Param        instagram_id           formData  string  false  "Instagram handle"
// @Param        due_date               formData  string  false  "Due date (YYYY-MM-DD, empty clears)"
// @Param        pending_amount         formData  string  false  "Pending amount"
// @Param        received_amount        formData  string  false  "Received amount"
// @Param        delete_images          formData  string  false  "Comma-separated image ids to remove"
// @Param        measurement_image_url  formData  file    false  "Measurement images to add"
// @Success      200  {object}  response.Response{data=service.CustomerResponse}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/customers/{id} [put]
func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	var req service.UpdateCustomerRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	files, err := uploadsFrom(c, fieldMeasurementImages)
	if err != nil {
		badRequest(c, "Invalid multipart form: "+err.Error())
		return
	}
	deleteIDs, err := deleteImageIDs(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	customer, err := h.customerService.UpdateCustomer(c.Request.Context(), middleware.UserID(c), c.Param("id"), req, files, deleteIDs)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, customer))
}

// DeleteCustomer
// @Summary      Delete customer
// @Description  Deletes a customer together with its suits and all of their images
// @Tags         customers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Customer ID"
// @Success      200  {object}  response.Response{data=response.MessageData}
// @Failure      404  {object}  response.Response
// @Router       /api/customers/{id} [delete]
func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	if err := h.customerService.DeleteCustomer(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Message(http.StatusOK, "Customer deleted"))
}

// SearchCustomers
// @Summary      Search customers
// @Description  Case-insensitive match on id, name, phone number and instagram id
// @Tags         customers
// @Security     BearerAuth
// @Produce      json
// @Param        term  path      string  true  "Search term"
// @Success      200   {object}  response.Response{data=[]model.Customer}
// @Router       /api/customers/search/{term} [get]
func (h *CustomerHandler) SearchCustomers(c *gin.Context) {
	results, err := h.searchService.Search(c.Request.Context(), service.SearchCustomers, c.Param("term"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, results))
}
