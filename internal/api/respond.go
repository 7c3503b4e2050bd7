package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/retail-pos/internal/auth"
	"github.com/example/retail-pos/internal/command"
	"github.com/example/retail-pos/internal/domain/cart"
	"github.com/example/retail-pos/internal/domain/inventory"
	"github.com/example/retail-pos/internal/domain/lookup"
	"github.com/example/retail-pos/internal/domain/product"
	"github.com/example/retail-pos/internal/domain/sale"
	"github.com/example/retail-pos/internal/domain/supplier"
	"github.com/example/retail-pos/internal/domain/user"
	"github.com/example/retail-pos/internal/infrastructure/redisx"
	"github.com/example/retail-pos/internal/infrastructure/store"
	"github.com/example/retail-pos/internal/logging"
	"github.com/example/retail-pos/internal/query"
)

var log = logging.New("api")

var (
	errInvalidBody = errors.New("invalid request body")
	errInvalidDate = errors.New("dates must be YYYY-MM-DD")
)

var (
	notFoundErrors = []error{
		product.ErrProductNotFound, sale.ErrSaleNotFound, supplier.ErrSupplierNotFound,
		lookup.ErrNotFound, user.ErrUserNotFound, cart.ErrProductNotFound,
	}
	conflictErrors = []error{
		product.ErrDuplicateSKU, supplier.ErrDuplicateCNPJ, lookup.ErrDuplicateName,
		user.ErrDuplicateLogin, user.ErrDuplicateEmail, product.ErrHasStock, inventory.ErrInsufficientStock,
		sale.ErrInvalidStatus, store.ErrVersionConflict, redisx.ErrInProgress,
	}
	forbiddenErrors = []error{
		user.ErrUserDeactivated, command.ErrCannotDeactivateSelf, command.ErrManualSaleMovement,
	}
	unauthorizedErrors = []error{
		user.ErrInvalidCredentials, auth.ErrInvalidToken, auth.ErrExpiredToken,
	}
	validationErrors = []error{
		errInvalidBody, errInvalidDate, query.ErrInvalidPeriod,
		cart.ErrEmptyCart, cart.ErrPaymentMethodRequired, cart.ErrInvalidProduct,
		sale.ErrEmptySale, sale.ErrInvalidQuantity, sale.ErrInvalidPrice,
		sale.ErrPaymentMethodRequired, sale.ErrInvalidPaymentMethod, sale.ErrCashierRequired,
		lookup.ErrInvalidName, lookup.ErrNameTooLong, command.ErrUnknownKind, command.ErrDepartmentNotFound,
		supplier.ErrInvalidName, supplier.ErrInvalidEmail, supplier.ErrInvalidCNPJ, supplier.ErrSupplierInactive,
		product.ErrSKURequired, product.ErrInvalidName, product.ErrInvalidSalePrice, product.ErrInvalidCostPrice,
		product.ErrInvalidMinStock, product.ErrCategoryRequired, product.ErrCategoryInactive,
		product.ErrSupplierNotFound, product.ErrProductInactive,
		inventory.ErrInvalidQuantity, inventory.ErrZeroAdjustment, inventory.ErrInvalidMovementType,
		inventory.ErrSupplierRequired, inventory.ErrDepartmentRequired, inventory.ErrReasonRequired,
		inventory.ErrSaleRequired, inventory.ErrProductRequired, inventory.ErrNegativeUnitCost,
		user.ErrInvalidLogin, user.ErrInvalidName, auth.ErrInvalidRole,
		auth.ErrPasswordTooShort, auth.ErrPasswordTooLong,
	}
)

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// statusFor classifies a domain error. Unknown errors are internal.
func statusFor(err error) int {
	switch {
	case isAny(err, notFoundErrors):
		return http.StatusNotFound
	case isAny(err, conflictErrors):
		return http.StatusConflict
	case isAny(err, forbiddenErrors):
		return http.StatusForbidden
	case isAny(err, unauthorizedErrors):
		return http.StatusUnauthorized
	case isAny(err, validationErrors):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError writes {"error": msg}, or {"errors": [...]} for joined validation errors.
// Internal errors are logged and hidden from the client.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
		respondJSONError(w, "internal server error", status)
		return
	}

	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var messages []string
		for _, e := range joined.Unwrap() {
			if e != nil {
				messages = append(messages, e.Error())
			}
		}
		respondJSON(w, status, map[string][]string{"errors": messages})
		return
	}
	respondJSONError(w, err.Error(), status)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondJSONError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondMessage(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusOK, map[string]string{"message": message})
}

func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errInvalidBody
	}
	return nil
}

// pageRequest reads ?page=&size=; bad numbers fall back to the defaults.
func pageRequest(r *http.Request) query.PageRequest {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	return query.PageRequest{Page: page, Size: size}
}

// boolParam returns def when the parameter is absent or not a bool.
func boolParam(r *http.Request, name string, def bool) bool {
	b, err := strconv.ParseBool(r.URL.Query().Get(name))
	if err != nil {
		return def
	}
	return b
}

// dateParam accepts YYYY-MM-DD or RFC 3339. Absent gives nil.
func dateParam(r *http.Request, name string) (*time.Time, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return nil, nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, v, time.Local); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, errInvalidDate
	}
	return &t, nil
}

// dayRange applies whole-day bounds to optional start and end parameters.
func dayRange(r *http.Request) (start, end *time.Time, err error) {
	start, err = dateParam(r, "start")
	if err != nil {
		return nil, nil, err
	}
	end, err = dateParam(r, "end")
	if err != nil {
		return nil, nil, err
	}
	switch {
	case start != nil && end != nil:
		from, to, err := query.DayRange(*start, *end)
		if err != nil {
			return nil, nil, err
		}
		return &from, &to, nil
	case start != nil:
		from, _, _ := query.DayRange(*start, *start)
		return &from, nil, nil
	case end != nil:
		_, to, _ := query.DayRange(*end, *end)
		return nil, &to, nil
	}
	return nil, nil, nil
}
