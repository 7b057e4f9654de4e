package importer

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

var Module = fx.Module("importer",
	fx.Provide(
		NewMetrics,
		NewGormStores,
		New,
	),
	fx.Invoke(func(m *Metrics) {
		m.Register(prometheus.DefaultRegisterer)
	}),
)
