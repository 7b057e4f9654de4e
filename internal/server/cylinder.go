package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	cylinderdomain "github.com/user7217/oxygentracker/internal/cylinder/domain"
)

type createCylinderBody struct {
	CustomID     string `json:"custom_id"`
	SerialNumber string `json:"serial_number"`
	Type         string `json:"type"`
	Size         string `json:"size"`
	Status       string `json:"status"`
	Location     string `json:"location"`
}

type rentCylinderBody struct {
	CustomerID string     `json:"customer_id"`
	Dispatched *time.Time `json:"dispatched,omitempty"`
}

type returnCylinderBody struct {
	Returned *time.Time `json:"returned,omitempty"`
}

func (s *Server) ListCylinders(c *gin.Context) {
	resp, err := s.cylinderSvc.List(c.Request.Context(), cylinderdomain.ListCylinderRequest{
		PageToken: c.Query("page_token"),
		PageSize:  pageSize(c),
		CustomID:  c.Query("custom_id"),
		Status:    c.Query("status"),
		Type:      c.Query("type"),
		RentedTo:  c.Query("rented_to"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) CreateCylinder(c *gin.Context) {
	var body createCylinderBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	cylinder, err := s.cylinderSvc.Create(c.Request.Context(), cylinderdomain.CreateCylinderRequest{
		CustomID:     body.CustomID,
		SerialNumber: body.SerialNumber,
		Type:         body.Type,
		Size:         body.Size,
		Status:       body.Status,
		Location:     body.Location,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cylinder)
}

func (s *Server) GetCylinderByID(c *gin.Context) {
	cylinder, err := s.cylinderSvc.GetByID(c.Request.Context(), cylinderdomain.GetCylinderRequest{
		ID: c.Param("id"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, cylinder)
}

func (s *Server) UpdateCylinder(c *gin.Context) {
	var body createCylinderBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	cylinder, err := s.cylinderSvc.Update(c.Request.Context(), cylinderdomain.UpdateCylinderRequest{
		ID:           c.Param("id"),
		SerialNumber: body.SerialNumber,
		Type:         body.Type,
		Size:         body.Size,
		Status:       body.Status,
		Location:     body.Location,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, cylinder)
}

func (s *Server) DeleteCylinder(c *gin.Context) {
	if err := s.cylinderSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) RentCylinder(c *gin.Context) {
	var body rentCylinderBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	cylinder, err := s.cylinderSvc.Rent(c.Request.Context(), cylinderdomain.RentCylinderRequest{
		ID:         c.Param("id"),
		CustomerID: body.CustomerID,
		Dispatched: body.Dispatched,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, cylinder)
}

func (s *Server) ReturnCylinder(c *gin.Context) {
	var body returnCylinderBody
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
	}

	cylinder, err := s.cylinderSvc.Return(c.Request.Context(), cylinderdomain.ReturnCylinderRequest{
		ID:       c.Param("id"),
		Returned: body.Returned,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, cylinder)
}
