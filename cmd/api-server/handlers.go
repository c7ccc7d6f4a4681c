package main

import (
	"net/http"
	"strings"

	"github.com/protomem/car-rental/internal/database"
	"github.com/protomem/car-rental/internal/model"
	"github.com/protomem/car-rental/internal/request"
	"github.com/protomem/car-rental/internal/response"
	"github.com/protomem/car-rental/internal/validator"
	"github.com/shopspring/decimal"
)

func (app *application) handleStatus(w http.ResponseWriter, r *http.Request) {
	if err := response.JSON(w, http.StatusOK, response.JSONObject{"status": "OK"}); err != nil {
		app.serverError(w, r, err)
	}
}

// Customers

func (app *application) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	dao := database.NewCustomerDAO(app.requestLogger(r), app.db.Handle())

	customers, err := dao.List(r.Context())
	if err != nil {
		app.storeError(w, r, err)
		return
	}

	if err := response.JSON(w, http.StatusOK, response.JSONObject{"customers": customers}); err != nil {
		app.serverError(w, r, err)
	}
}

func (app *application) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := app.requestLogger(r)
	h := app.db.Handle()

	pn := personNumberFromRequest(r)

	customer, err := database.NewCustomerDAO(logger, h).Get(ctx, pn)
	if err != nil {
		app.storeError(w, r, err)
		return
	}

	rentals, err := database.NewRentalDAO(logger, h).ListByCustomer(ctx, pn)
	if err != nil {
		app.storeError(w, r, err)
		return
	}

	if err := response.JSON(w, http.StatusOK, responseGetCustomer{Customer: customer, Rentals: rentals}); err != nil {
		app.serverError(w, r, err)
	}
}

type responseGetCustomer struct {
	Customer model.Customer `json:"customer"`
	Rentals  []model.Rental `json:"rentals"`
}

type requestAddCustomer struct {
	PersonNumber string `json:"personNumber"`
	Name         string `json:"name"`
	Address      string `json:"address"`
	Phone        string `json:"phone"`
}

func (app *application) handleAddCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var input requestAddCustomer
	if err := request.DecodeJSONStrict(w, r, &input); err != nil {
		app.badRequest(w, r, err)
		return
	}

	var v validator.Validator
	validateRequestAddCustomer(&v, input)
	if v.HasErrors() {
		app.failedValidation(w, r, v)
		return
	}

	dao := database.NewCustomerDAO(app.requestLogger(r), app.db.Handle())

	pn := model.PersonNumber(input.PersonNumber)
	err := dao.Insert(ctx, database.InsertCustomerDTO{
		PersonNumber: pn,
		Name:         input.Name,
		Address:      input.Address,
		Phone:        input.Phone,
	})
	if err != nil {
		app.storeError(w, r, err)
		return
	}

	customer, err := dao.Get(ctx, pn)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	if err := response.JSON(w, http.StatusCreated, response.JSONObject{"customer": customer}); err != nil {
		app.serverError(w, r, err)
	}
}

type requestUpdateCustomer struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
}

func (app *application) handleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var input requestUpdateCustomer
	if err := request.DecodeJSONStrict(w, r, &input); err != nil {
		app.badRequest(w, r, err)
		return
	}

	var v validator.Validator
	validateRequestUpdateCustomer(&v, input)
	if v.HasErrors() {
		app.failedValidation(w, r, v)
		return
	}

	dao := database.NewCustomerDAO(app.requestLogger(r), app.db.Handle())

	pn := personNumberFromRequest(r)
	err := dao.Update(ctx, pn, database.UpdateCustomerDTO{
		Name:    input.Name,
		Address: input.Address,
		Phone:   input.Phone,
	})
	if err != nil {
		app.storeError(w, r, err)
		return
	}

	customer, err := dao.Get(ctx, pn)
	if err != nil {
		app.storeError(w, r, err)
		return
	}

	if err := response.JSON(w, http.StatusOK, response.JSONObject{"customer": customer}); err != nil {
		app.serverError(w, r, err)
	}
}

func (app *application) handleDeleteCustomer(w http.ResponseWriter, r *http.Request) {
	if err := app.rentals.RemoveCustomer(r.Context(), personNumberFromRequest(r)); err != nil {
		app.storeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Cars

func (app *application) handleListCars(w http.ResponseWriter, r *http.Request) {
	dao := database.NewCarDAO(app.requestLogger(r), app.db.Handle())

	cars, err := dao.List(r.Context())
	if err != nil {
		app.storeError(w, r, err)
		return
	}

	if err := response.JSON(w, http.StatusOK, response.JSONObject{"cars": cars}); err != nil {
		app.serverError(w, r, err)
	}
}

func (app *application) handleGetCar(w http.ResponseWriter, r *http.Request) {
	dao := database.NewCarDAO(app.requestLogger(r), app.db.Handle())

	car, err := dao.Get(r.Context(), registrationFromRequest(r))
	if err != nil {
		app.storeError(w, r, err)
		return
	}

	if err := response.JSON(w, http.StatusOK, response.JSONObject{"car": car}); err != nil {
		app.serverError(w, r, err)
	}
}

type requestAddCar struct {
	Registration string          `json:"registration"`
	Make         string          `json:"make"`
	Model        string          `json:"model"`
	Year         int             `json:"year"`
	Price        decimal.Decimal `json:"price"`
}

func (app *application) handleAddCar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var input requestAddCar
	if err := request.DecodeJSONStrict(w, r, &input); err != nil {
		app.badRequest(w, r, err)
		return
	}

	input.Registration = normalizeRegistration(input.Registration)

	var v validator.Validator
	validateRequestAddCar(&v, input)
	if v.HasErrors() {
		app.failedValidation(w, r, v)
		return
	}

	dao := database.NewCarDAO(app.requestLogger(r), app.db.Handle())

	err := dao.Insert(ctx, database.InsertCarDTO{
		Registration: input.Registration,
		Make:         input.Make,
		Model:        input.Model,
		Year:         input.Year,
		Price:        input.Price,
	})
	if err != nil {
		app.storeError(w, r, err)
		return
	}

	car, err := dao.Get(ctx, input.Registration)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	if err := response.JSON(w, http.StatusCreated, response.JSONObject{"car": car}); err != nil {
		app.serverError(w, r, err)
	}
}

type requestUpdateCar struct {
	Make  *string          `json:"make"`
	Model *string          `json:"model"`
	Year  *int             `json:"year"`
	Price *decimal.Decimal `json:"price"`
}

func (app *application) handleUpdateCar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var input requestUpdateCar
	if err := request.DecodeJSONStrict(w, r, &input); err != nil {
		app.badRequest(w, r, err)
		return
	}

	var v validator.Validator
	validateRequestUpdateCar(&v, input)
	if v.HasErrors() {
		app.failedValidation(w, r, v)
		return
	}

	dao := database.NewCarDAO(app.requestLogger(r), app.db.Handle())

	registration := registrationFromRequest(r)
	err := dao.Update(ctx, registration, database.UpdateCarDTO{
		Make:  input.Make,
		Model: input.Model,
		Year:  input.Year,
		Price: input.Price,
	})
	if err != nil {
		app.storeError(w, r, err)
		return
	}

	car, err := dao.Get(ctx, registration)
	if err != nil {
		app.storeError(w, r, err)
		return
	}

	if err := response.JSON(w, http.StatusOK, response.JSONObject{"car": car}); err != nil {
		app.serverError(w, r, err)
	}
}

func (app *application) handleDeleteCar(w http.ResponseWriter, r *http.Request) {
	if err := app.rentals.RemoveCar(r.Context(), registrationFromRequest(r)); err != nil {
		app.storeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Rentals

func (app *application) handleListRentals(w http.ResponseWriter, r *http.Request) {
	sort := database.ColumnID
	if s := r.URL.Query().Get("sort"); s != "" {
		sort = database.Column(strings.ToLower(s))
	}

	var v validator.Validator
	validateRentalSort(&v, sort)
	if v.HasErrors() {
		app.failedValidation(w, r, v)
		return
	}

	dao := database.NewRentalDAO(app.requestLogger(r), app.db.Handle())

	rentals, err := dao.List(r.Context(), sort)
	if err != nil {
		app.storeError(w, r, err)
		return
	}

	if err := response.JSON(w, http.StatusOK, response.JSONObject{"rentals": rentals}); err != nil {
		app.serverError(w, r, err)
	}
}

func (app *application) handleGetRental(w http.ResponseWriter, r *http.Request) {
	id, err := rentalIDFromRequest(r)
	if err != nil {
		app.badRequest(w, r, err)
		return
	}

	dao := database.NewRentalDAO(app.requestLogger(r), app.db.Handle())

	rental, err := dao.Get(r.Context(), id)
	if err != nil {
		app.storeError(w, r, err)
		return
	}

	if err := response.JSON(w, http.StatusOK, response.JSONObject{"rental": rental}); err != nil {
		app.serverError(w, r, err)
	}
}

type requestCreateRental struct {
	PersonNumber string `json:"personNumber"`
	Registration string `json:"registration"`
}

func (app *application) handleCreateRental(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var input requestCreateRental
	if err := request.DecodeJSONStrict(w, r, &input); err != nil {
		app.badRequest(w, r, err)
		return
	}

	input.Registration = normalizeRegistration(input.Registration)

	var v validator.Validator
	validateRequestCreateRental(&v, input)
	if v.HasErrors() {
		app.failedValidation(w, r, v)
		return
	}

	id, err := app.rentals.CreateRental(ctx, model.PersonNumber(input.PersonNumber), input.Registration)
	if err != nil {
		app.storeError(w, r, err)
		return
	}

	app.respondRental(w, r, http.StatusCreated, id)
}

func (app *application) handleReturnCar(w http.ResponseWriter, r *http.Request) {
	registration := registrationFromRequest(r)

	var v validator.Validator
	validateRegistration(&v, registration)
	if v.HasErrors() {
		app.failedValidation(w, r, v)
		return
	}

	id, err := app.rentals.CloseRental(r.Context(), registration)
	if err != nil {
		app.storeError(w, r, err)
		return
	}

	app.respondRental(w, r, http.StatusOK, id)
}

func (app *application) respondRental(w http.ResponseWriter, r *http.Request, status int, id model.ID) {
	dao := database.NewRentalDAO(app.requestLogger(r), app.db.Handle())

	rental, err := dao.Get(r.Context(), id)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	if err := response.JSON(w, status, response.JSONObject{"rental": rental}); err != nil {
		app.serverError(w, r, err)
	}
}
