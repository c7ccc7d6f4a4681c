package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (app *application) routes() http.Handler {
	mux := chi.NewRouter()

	mux.NotFound(app.notFound)
	mux.MethodNotAllowed(app.methodNotAllowed)

	mux.Use(app.traceID)
	mux.Use(app.logAccess)
	mux.Use(app.recoverPanic)

	mux.Use(app.CORS)

	mux.Get("/api/v1/status", app.handleStatus)

	mux.Get("/api/v1/customers", app.handleListCustomers)
	mux.Post("/api/v1/customers", app.handleAddCustomer)
	mux.Get("/api/v1/customers/{personNumber}", app.handleGetCustomer)
	mux.Patch("/api/v1/customers/{personNumber}", app.handleUpdateCustomer)
	mux.Delete("/api/v1/customers/{personNumber}", app.handleDeleteCustomer)

	mux.Get("/api/v1/cars", app.handleListCars)
	mux.Post("/api/v1/cars", app.handleAddCar)
	mux.Get("/api/v1/cars/{registration}", app.handleGetCar)
	mux.Patch("/api/v1/cars/{registration}", app.handleUpdateCar)
	mux.Delete("/api/v1/cars/{registration}", app.handleDeleteCar)
	mux.Post("/api/v1/cars/{registration}/return", app.handleReturnCar)

	mux.Get("/api/v1/rentals", app.handleListRentals)
	mux.Post("/api/v1/rentals", app.handleCreateRental)
	mux.Get("/api/v1/rentals/{rentalId}", app.handleGetRental)

	app.logger.Debug("routes configured", "routes", chiRoutesToStrings(mux.Routes()))

	return mux
}

func chiRoutesToStrings(routes []chi.Route) []string {
	parsedRoutes := make([]string, 0, len(routes))
	for _, route := range routes {
		parsedRoutes = append(parsedRoutes, route.Pattern)
	}
	return parsedRoutes
}
