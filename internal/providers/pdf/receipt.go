package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// ReceiptData describes one customer's rental receipt: the cylinders
// currently in their custody plus recently completed cycles.
type ReceiptData struct {
	OrgName       string
	GeneratedDate string

	CustomerNo      string
	CustomerName    string
	CustomerAddress string
	CustomerPhone   string

	Items []ReceiptItem
}

type ReceiptItem struct {
	CustomID     string
	SerialNumber string
	Type         string
	Size         string
	DateBorrowed string
	DateReturned string
	RentalDays   int
}

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateRentalReceipt(ctx context.Context, data ReceiptData) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(8, "Rental Receipt", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(4, data.OrgName, props.Text{
			Size:  12,
			Align: align.Right,
			Top:   4,
		}),
	)

	m.AddRow(30,
		col.New(6).Add(
			text.New("Customer", props.Text{Style: fontstyle.Bold}),
			text.New(data.CustomerName, props.Text{Top: 5}),
			text.New(data.CustomerAddress, props.Text{Top: 10}),
			text.New(data.CustomerPhone, props.Text{Top: 15}),
		),
		col.New(6).Add(
			text.New("Customer no: "+data.CustomerNo, props.Text{Align: align.Right}),
			text.New("Date: "+data.GeneratedDate, props.Text{Top: 5, Align: align.Right}),
		),
	)

	m.AddRow(10,
		text.NewCol(2, "Cylinder", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Serial", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Type", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(1, "Size", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Borrowed", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Returned", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(1, "Days", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, item := range data.Items {
		m.AddRow(8,
			text.NewCol(2, item.CustomID, props.Text{Size: 9}),
			text.NewCol(2, item.SerialNumber, props.Text{Size: 9}),
			text.NewCol(2, item.Type, props.Text{Size: 9}),
			text.NewCol(1, item.Size, props.Text{Size: 9}),
			text.NewCol(2, item.DateBorrowed, props.Text{Size: 9}),
			text.NewCol(2, item.DateReturned, props.Text{Size: 9}),
			text.NewCol(1, fmt.Sprintf("%d", item.RentalDays), props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(12,
		col.New(9),
		text.NewCol(3, fmt.Sprintf("Cylinders: %d", len(data.Items)), props.Text{
			Size:  10,
			Style: fontstyle.Bold,
			Align: align.Right,
			Top:   4,
		}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}
