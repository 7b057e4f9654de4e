package rentalhistory

import (
	"github.com/user7217/oxygentracker/internal/rentalhistory/repository"
	"github.com/user7217/oxygentracker/internal/rentalhistory/service"
	"go.uber.org/fx"
)

var Module = fx.Module("rentalhistory.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
