package main

import "github.com/hera-erp/tilestats/cmd/app"

// @title          Tile Statistics API
// @version        1.0.0
// @description    Resolves the declared statistics of dashboard tiles against the tenant database.
// @license.name   MIT License
// @license.url    https://opensource.org/licenses/MIT
// @BasePath       /api
func main() {
	app.Run()
}
