package organization

import (
	"github.com/user7217/oxygentracker/internal/organization/repository"
	"github.com/user7217/oxygentracker/internal/organization/service"
	"go.uber.org/fx"
)

var Module = fx.Module("organization.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
)
