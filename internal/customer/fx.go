package customer

import (
	"github.com/user7217/oxygentracker/internal/customer/repository"
	"github.com/user7217/oxygentracker/internal/customer/service"
	"go.uber.org/fx"
)

var Module = fx.Module("customer.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
