package pdf

import (
	"context"
	"io"
)

// Provider renders printable documents for the web layer.
type Provider interface {
	GenerateRentalReceipt(ctx context.Context, data ReceiptData) (io.Reader, error)
}
