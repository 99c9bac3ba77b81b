package server

import (
	"go.uber.org/fx"

	"github.com/hera-erp/tilestats/internal/server/httpserver"
	"github.com/hera-erp/tilestats/internal/server/svr"
)

func Module() fx.Option {
	return fx.Module("server",
		fx.Provide(httpserver.Create),
		fx.Provide(svr.CreateEndpointGroups))
}
