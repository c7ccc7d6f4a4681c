package main

import (
	"time"

	"github.com/protomem/car-rental/internal/database"
	"github.com/protomem/car-rental/internal/validator"
	"github.com/shopspring/decimal"
)

// Validation rules

func validateRequestAddCustomer(v *validator.Validator, input requestAddCustomer) {
	validatePersonNumber(v, input.PersonNumber)
	validateCustomerName(v, input.Name)
	validateAddress(v, input.Address)
	validatePhone(v, input.Phone)
}

func validateRequestUpdateCustomer(v *validator.Validator, input requestUpdateCustomer) {
	if input.Name != nil {
		validateCustomerName(v, *input.Name)
	}
	if input.Address != nil {
		validateAddress(v, *input.Address)
	}
	if input.Phone != nil {
		validatePhone(v, *input.Phone)
	}
}

func validateRequestAddCar(v *validator.Validator, input requestAddCar) {
	validateRegistration(v, input.Registration)
	validateCarMake(v, input.Make)
	validateCarModel(v, input.Model)
	validateCarYear(v, input.Year)
	validatePrice(v, input.Price)
}

func validateRequestUpdateCar(v *validator.Validator, input requestUpdateCar) {
	if input.Make != nil {
		validateCarMake(v, *input.Make)
	}
	if input.Model != nil {
		validateCarModel(v, *input.Model)
	}
	if input.Year != nil {
		validateCarYear(v, *input.Year)
	}
	if input.Price != nil {
		validatePrice(v, *input.Price)
	}
}

func validateRequestCreateRental(v *validator.Validator, input requestCreateRental) {
	validatePersonNumber(v, input.PersonNumber)
	validateRegistration(v, input.Registration)
}

func validatePersonNumber(v *validator.Validator, pn string) {
	v.CheckField(validator.NotBlank(pn), "personNumber", "cannot be blank")
	v.CheckField(validator.Matches(pn, validator.PersonNumberRX), "personNumber", "must look like YYYYMMDD-NNNN")
}

func validateRegistration(v *validator.Validator, registration string) {
	v.CheckField(validator.NotBlank(registration), "registration", "cannot be blank")
	v.CheckField(validator.Matches(registration, validator.RegistrationRX), "registration", "must look like ABC123")
}

func validateRentalSort(v *validator.Validator, sort database.Column) {
	v.CheckField(
		validator.In(sort, database.TableRentals.Columns()...),
		"sort",
		"must be a rental field",
	)
}

func validateCustomerName(v *validator.Validator, name string) {
	v.CheckField(validator.NotBlank(name), "name", "cannot be blank")
	v.CheckField(validator.MaxRunes(name, 100), "name", "must not be more than 100 characters")
}

func validateAddress(v *validator.Validator, address string) {
	v.CheckField(validator.MaxRunes(address, 200), "address", "must not be more than 200 characters")
}

func validatePhone(v *validator.Validator, phone string) {
	v.CheckField(validator.MaxRunes(phone, 30), "phone", "must not be more than 30 characters")
}

func validateCarMake(v *validator.Validator, carMake string) {
	v.CheckField(validator.NotBlank(carMake), "make", "cannot be blank")
}

func validateCarModel(v *validator.Validator, model string) {
	v.CheckField(validator.NotBlank(model), "model", "cannot be blank")
}

func validateCarYear(v *validator.Validator, year int) {
	v.CheckField(
		validator.Between(year, 1886, time.Now().Year()+1),
		"year",
		"must be a valid model year",
	)
}

func validatePrice(v *validator.Validator, price decimal.Decimal) {
	v.CheckField(price.IsPositive(), "price", "must be a positive amount")
	v.CheckField(price.Exponent() >= -2, "price", "must not have more than 2 decimals")
}
