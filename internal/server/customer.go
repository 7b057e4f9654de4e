package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	customerdomain "github.com/user7217/oxygentracker/internal/customer/domain"
	cylinderdomain "github.com/user7217/oxygentracker/internal/cylinder/domain"
	"github.com/user7217/oxygentracker/internal/providers/pdf"
)

type createCustomerBody struct {
	CustomerNo string `json:"customer_no"`
	Name       string `json:"name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	Phone      string `json:"phone"`
	TaxID      string `json:"tax_id"`
	TaxRegNo   string `json:"tax_reg_no"`
}

func (s *Server) ListCustomers(c *gin.Context) {
	resp, err := s.customerSvc.List(c.Request.Context(), customerdomain.ListCustomerRequest{
		PageToken:  c.Query("page_token"),
		PageSize:   pageSize(c),
		CustomerNo: c.Query("customer_no"),
		Name:       c.Query("name"),
		City:       c.Query("city"),
		State:      c.Query("state"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) CreateCustomer(c *gin.Context) {
	var body createCustomerBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	customer, err := s.customerSvc.Create(c.Request.Context(), customerdomain.CreateCustomerRequest{
		CustomerNo: body.CustomerNo,
		Name:       body.Name,
		Address:    body.Address,
		City:       body.City,
		State:      body.State,
		Phone:      body.Phone,
		TaxID:      body.TaxID,
		TaxRegNo:   body.TaxRegNo,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

func (s *Server) GetCustomerByID(c *gin.Context) {
	customer, err := s.customerSvc.GetByID(c.Request.Context(), customerdomain.GetCustomerRequest{
		ID: c.Param("id"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (s *Server) UpdateCustomer(c *gin.Context) {
	var body createCustomerBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	customer, err := s.customerSvc.Update(c.Request.Context(), customerdomain.UpdateCustomerRequest{
		ID:       c.Param("id"),
		Name:     body.Name,
		Address:  body.Address,
		City:     body.City,
		State:    body.State,
		Phone:    body.Phone,
		TaxID:    body.TaxID,
		TaxRegNo: body.TaxRegNo,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (s *Server) DeleteCustomer(c *gin.Context) {
	if err := s.customerSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CustomerRentalReceipt renders a PDF of the cylinders currently rented by
// the customer.
func (s *Server) CustomerRentalReceipt(c *gin.Context) {
	ctx := c.Request.Context()

	customer, err := s.customerSvc.GetByID(ctx, customerdomain.GetCustomerRequest{ID: c.Param("id")})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	rented, err := s.cylinderSvc.List(ctx, cylinderdomain.ListCylinderRequest{
		PageSize: maxPageSize,
		Status:   string(cylinderdomain.StatusRented),
		RentedTo: customer.ID.String(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	now := s.clock.Now()
	data := pdf.ReceiptData{
		OrgName:         s.cfg.AppName,
		GeneratedDate:   now.Format("2006-01-02"),
		CustomerNo:      customer.CustomerNo,
		CustomerName:    customer.Name,
		CustomerAddress: customer.Address,
		CustomerPhone:   customer.Phone,
	}
	for _, cyl := range rented.Cylinders {
		item := pdf.ReceiptItem{
			CustomID:     cyl.CustomID,
			SerialNumber: cyl.SerialNumber,
			Type:         cyl.Type,
			Size:         cyl.Size,
			RentalDays:   cylinderdomain.RentalDays(cyl, now),
		}
		if cyl.DateBorrowed != nil {
			item.DateBorrowed = cyl.DateBorrowed.Format("2006-01-02")
		}
		data.Items = append(data.Items, item)
	}

	doc, err := s.pdfProvider.GenerateRentalReceipt(ctx, data)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="rental-receipt-`+customer.CustomerNo+`.pdf"`)
	c.DataFromReader(http.StatusOK, -1, "application/pdf", doc, nil)
}
