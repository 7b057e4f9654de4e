package providers

import (
	"github.com/user7217/oxygentracker/internal/providers/email"
	"github.com/user7217/oxygentracker/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	pdf.Module,
)
