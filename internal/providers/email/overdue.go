package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
)

// OverdueItem is one cylinder that has been out past the overdue threshold.
type OverdueItem struct {
	CustomID     string
	CustomerNo   string
	CustomerName string
	DateBorrowed string
	RentalDays   int
}

var overdueTmpl = template.Must(template.New("overdue").Parse(`
<h3>Overdue cylinder report</h3>
<p>{{len .Items}} cylinder(s) have been rented longer than {{.ThresholdDays}} days.</p>
<table border="1" cellpadding="4" cellspacing="0">
  <tr><th>Cylinder</th><th>Customer no</th><th>Customer</th><th>Borrowed</th><th>Days out</th></tr>
  {{range .Items}}
  <tr><td>{{.CustomID}}</td><td>{{.CustomerNo}}</td><td>{{.CustomerName}}</td><td>{{.DateBorrowed}}</td><td>{{.RentalDays}}</td></tr>
  {{end}}
</table>
`))

// SendOverdueReport renders and sends the overdue-cylinder digest.
func SendOverdueReport(ctx context.Context, p Provider, to []string, thresholdDays int, items []OverdueItem) error {
	if len(items) == 0 || len(to) == 0 {
		return nil
	}

	var body bytes.Buffer
	err := overdueTmpl.Execute(&body, struct {
		ThresholdDays int
		Items         []OverdueItem
	}{ThresholdDays: thresholdDays, Items: items})
	if err != nil {
		return fmt.Errorf("render overdue report: %w", err)
	}

	subject := fmt.Sprintf("%d overdue cylinder(s)", len(items))
	return p.Send(ctx, to, subject, body.String())
}
