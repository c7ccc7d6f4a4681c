package main

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/protomem/car-rental/internal/model"
)

func personNumberFromRequest(r *http.Request) model.PersonNumber {
	return model.PersonNumber(strings.TrimSpace(chi.URLParam(r, "personNumber")))
}

// registrationFromRequest upper-cases the plate so lookups match stored rows.
func registrationFromRequest(r *http.Request) string {
	return normalizeRegistration(chi.URLParam(r, "registration"))
}

func rentalIDFromRequest(r *http.Request) (model.ID, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "rentalId"), 10, 64)
	return model.ID(id), err
}

func normalizeRegistration(s string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
}
