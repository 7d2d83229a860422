package foodcourtserver

import (
	"errors"

	"github.com/gin-gonic/gin"

	cartapp "github.com/Apurer/foodcourt-server/internal/domains/cart/application"
	catalogports "github.com/Apurer/foodcourt-server/internal/domains/catalog/ports"
	ordersapp "github.com/Apurer/foodcourt-server/internal/domains/orders/application"
	apierrors "github.com/Apurer/foodcourt-server/internal/shared/errors"
)

// responder resolves failures of every context. Cart runs before catalog
// because unavailable items wrap catalog lookups.
var responder = apierrors.NewResponder(mapCartError, mapOrdersError, mapCatalogError)

func respondError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	responder.RespondError(c, err)
}

func respondBadRequest(c *gin.Context, err error) {
	responder.BadRequest(c, err.Error())
}

func mapCartError(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, cartapp.ErrItemUnavailable):
		return apierrors.ErrItemUnavailable.WithDetail(err.Error()), true
	case errors.Is(err, cartapp.ErrLineNotFound):
		return notFound("LineNotFound", err), true
	case errors.Is(err, cartapp.ErrInvalidInput):
		return apierrors.ErrBadRequest.WithDetail(err.Error()), true
	case errors.Is(err, ordersapp.ErrConcurrentUpdate):
		return apierrors.ErrConcurrentUpdate.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

func mapOrdersError(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, ordersapp.ErrEmptyCart):
		return apierrors.ErrEmptyCart.WithDetail(err.Error()), true
	case errors.Is(err, ordersapp.ErrVendorUnavailable):
		return apierrors.ErrItemUnavailable.WithDetail(err.Error()), true
	case errors.Is(err, ordersapp.ErrOrderNotFound):
		return notFound("OrderNotFound", err), true
	case errors.Is(err, ordersapp.ErrVendorNotFound):
		return notFound("VendorNotFound", err), true
	case errors.Is(err, ordersapp.ErrSubOrderNotFound):
		return apierrors.NewForbiddenProblem("SubOrderNotFound", err.Error()), true
	case errors.Is(err, ordersapp.ErrInvalidTransition):
		return apierrors.ErrInvalidTransition.WithDetail(err.Error()), true
	case errors.Is(err, ordersapp.ErrIdempotencyConflict):
		return apierrors.ErrIdempotencyConflict.WithDetail(err.Error()), true
	case errors.Is(err, ordersapp.ErrInvalidInput):
		return apierrors.ErrBadRequest.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

func mapCatalogError(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, catalogports.ErrVendorNotFound):
		return notFound("VendorNotFound", err), true
	case errors.Is(err, catalogports.ErrItemNotFound):
		return notFound("ItemNotFound", err), true
	}
	return apierrors.ProblemDetail{}, false
}

func notFound(code string, err error) apierrors.ProblemDetail {
	p := apierrors.ErrNotFound.WithDetail(err.Error())
	p.Code = code
	return p
}
