package svr

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"

	"github.com/hera-erp/tilestats/internal/app/appconfig"
	"github.com/hera-erp/tilestats/internal/pkg/middlewares"
)

type V1 struct {
	fiber.Router
}

// Meta serves health and build information, outside of any API version.
type Meta struct {
	fiber.Router
}

type Admin struct {
	fiber.Router
}

type EndpointGroups struct {
	fx.Out

	V1    *V1
	Meta  *Meta
	Admin *Admin
}

func CreateEndpointGroups(app *fiber.App, conf *appconfig.Config) EndpointGroups {
	return EndpointGroups{
		V1:    &V1{Router: app.Group("/api/v1")},
		Meta:  &Meta{Router: app.Group("/api/_")},
		Admin: &Admin{Router: app.Group("/api/_/admin", middlewares.AdminAuth(conf.AdminKey))},
	}
}
