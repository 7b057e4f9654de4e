package server

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	customerdomain "github.com/user7217/oxygentracker/internal/customer/domain"
	cylinderdomain "github.com/user7217/oxygentracker/internal/cylinder/domain"
	historydomain "github.com/user7217/oxygentracker/internal/rentalhistory/domain"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func csvWriter(c *gin.Context, filename string) *csv.Writer {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)
	return csv.NewWriter(c.Writer)
}

func (s *Server) ExportCustomersCSV(c *gin.Context) {
	ctx := c.Request.Context()
	w := csvWriter(c, "customers.csv")
	_ = w.Write([]string{"customer_no", "name", "address", "city", "state", "phone", "tax_id", "tax_reg_no"})

	token := ""
	for {
		resp, err := s.customerSvc.List(ctx, customerdomain.ListCustomerRequest{
			PageToken: token,
			PageSize:  maxPageSize,
		})
		if err != nil {
			AbortWithError(c, err)
			return
		}
		for _, cust := range resp.Customers {
			_ = w.Write([]string{cust.CustomerNo, cust.Name, cust.Address, cust.City, cust.State, cust.Phone, cust.TaxID, cust.TaxRegNo})
		}
		if !resp.HasMore {
			break
		}
		token = resp.NextPageToken
	}
	w.Flush()
}

func (s *Server) ExportCylindersCSV(c *gin.Context) {
	ctx := c.Request.Context()
	w := csvWriter(c, "cylinders.csv")
	_ = w.Write([]string{"custom_id", "serial_number", "type", "size", "status", "location", "customer_name", "date_borrowed", "rental_days"})

	now := s.clock.Now()
	token := ""
	for {
		resp, err := s.cylinderSvc.List(ctx, cylinderdomain.ListCylinderRequest{
			PageToken: token,
			PageSize:  maxPageSize,
			Status:    c.Query("status"),
		})
		if err != nil {
			AbortWithError(c, err)
			return
		}
		for _, cyl := range resp.Cylinders {
			_ = w.Write(cylinderCSVRow(cyl, now))
		}
		if !resp.HasMore {
			break
		}
		token = resp.NextPageToken
	}
	w.Flush()
}

func (s *Server) ExportRentalHistoryCSV(c *gin.Context) {
	ctx := c.Request.Context()
	w := csvWriter(c, "rental-history.csv")
	_ = w.Write([]string{"customer_no", "customer_name", "cylinder_custom_id", "serial_number", "type", "size", "date_borrowed", "date_returned", "rental_days"})

	token := ""
	for {
		resp, err := s.historySvc.List(ctx, historydomain.ListHistoryRequest{
			PageToken:  token,
			PageSize:   maxPageSize,
			CustomerNo: c.Query("customer_no"),
		})
		if err != nil {
			AbortWithError(c, err)
			return
		}
		for _, rec := range resp.Records {
			borrowed := ""
			if rec.DateBorrowed != nil {
				borrowed = rec.DateBorrowed.Format("2006-01-02")
			}
			_ = w.Write([]string{
				rec.CustomerNo, rec.CustomerName, rec.CylinderCustomID, rec.SerialNumber,
				rec.CylinderType, rec.CylinderSize, borrowed,
				rec.DateReturned.Format("2006-01-02"), strconv.Itoa(rec.RentalDays),
			})
		}
		if !resp.HasMore {
			break
		}
		token = resp.NextPageToken
	}
	w.Flush()
}

// xlsxSheet accumulates rows into a single-sheet workbook.
type xlsxSheet struct {
	f      *excelize.File
	sheet  string
	rowIdx int
}

func newXLSXSheet(sheet string, headers []string) *xlsxSheet {
	f := excelize.NewFile()
	f.SetSheetName(f.GetSheetName(0), sheet)
	x := &xlsxSheet{f: f, sheet: sheet, rowIdx: 1}
	x.addRow(headers)
	return x
}

func (x *xlsxSheet) addRow(values []string) {
	for colIdx, value := range values {
		cell, _ := excelize.CoordinatesToCellName(colIdx+1, x.rowIdx)
		_ = x.f.SetCellValue(x.sheet, cell, value)
	}
	x.rowIdx++
}

func (x *xlsxSheet) send(c *gin.Context, log *zap.Logger, filename string) {
	defer x.f.Close()
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Status(http.StatusOK)
	if err := x.f.Write(c.Writer); err != nil {
		log.Warn("writing xlsx export", zap.Error(err))
	}
}

// ExportCylindersXLSX writes the full cylinder inventory as a spreadsheet.
func (s *Server) ExportCylindersXLSX(c *gin.Context) {
	ctx := c.Request.Context()
	x := newXLSXSheet("Cylinders", []string{"Custom ID", "Serial Number", "Type", "Size", "Status", "Location", "Customer", "Date Borrowed", "Rental Days"})

	now := s.clock.Now()
	token := ""
	for {
		resp, err := s.cylinderSvc.List(ctx, cylinderdomain.ListCylinderRequest{
			PageToken: token,
			PageSize:  maxPageSize,
			Status:    c.Query("status"),
		})
		if err != nil {
			AbortWithError(c, err)
			return
		}
		for _, cyl := range resp.Cylinders {
			x.addRow(cylinderCSVRow(cyl, now))
		}
		if !resp.HasMore {
			break
		}
		token = resp.NextPageToken
	}

	x.send(c, s.log, "cylinders.xlsx")
}

func (s *Server) ExportCustomersXLSX(c *gin.Context) {
	ctx := c.Request.Context()
	x := newXLSXSheet("Customers", []string{"Customer No", "Name", "Address", "City", "State", "Phone", "Tax ID", "Tax Reg No"})

	token := ""
	for {
		resp, err := s.customerSvc.List(ctx, customerdomain.ListCustomerRequest{
			PageToken: token,
			PageSize:  maxPageSize,
		})
		if err != nil {
			AbortWithError(c, err)
			return
		}
		for _, cust := range resp.Customers {
			x.addRow([]string{cust.CustomerNo, cust.Name, cust.Address, cust.City, cust.State, cust.Phone, cust.TaxID, cust.TaxRegNo})
		}
		if !resp.HasMore {
			break
		}
		token = resp.NextPageToken
	}

	x.send(c, s.log, "customers.xlsx")
}

func (s *Server) ExportRentalHistoryXLSX(c *gin.Context) {
	ctx := c.Request.Context()
	x := newXLSXSheet("Rental History", []string{"Customer No", "Customer", "Cylinder", "Serial Number", "Type", "Size", "Date Borrowed", "Date Returned", "Rental Days"})

	token := ""
	for {
		resp, err := s.historySvc.List(ctx, historydomain.ListHistoryRequest{
			PageToken:  token,
			PageSize:   maxPageSize,
			CustomerNo: c.Query("customer_no"),
		})
		if err != nil {
			AbortWithError(c, err)
			return
		}
		for _, rec := range resp.Records {
			borrowed := ""
			if rec.DateBorrowed != nil {
				borrowed = rec.DateBorrowed.Format("2006-01-02")
			}
			x.addRow([]string{
				rec.CustomerNo, rec.CustomerName, rec.CylinderCustomID, rec.SerialNumber,
				rec.CylinderType, rec.CylinderSize, borrowed,
				rec.DateReturned.Format("2006-01-02"), strconv.Itoa(rec.RentalDays),
			})
		}
		if !resp.HasMore {
			break
		}
		token = resp.NextPageToken
	}

	x.send(c, s.log, "rental-history.xlsx")
}

func cylinderCSVRow(cyl cylinderdomain.Cylinder, now time.Time) []string {
	borrowed := ""
	if cyl.DateBorrowed != nil {
		borrowed = cyl.DateBorrowed.Format("2006-01-02")
	}
	return []string{
		cyl.CustomID, cyl.SerialNumber, cyl.Type, cyl.Size, string(cyl.Status),
		cyl.Location, cyl.CustomerName, borrowed,
		strconv.Itoa(cylinderdomain.RentalDays(cyl, now)),
	}
}
