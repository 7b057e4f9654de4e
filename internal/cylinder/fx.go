package cylinder

import (
	"github.com/user7217/oxygentracker/internal/cylinder/repository"
	"github.com/user7217/oxygentracker/internal/cylinder/service"
	"go.uber.org/fx"
)

var Module = fx.Module("cylinder.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
