package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errGone = errors.New("gone")

func respond(t *testing.T, r *Responder, err error) (*httptest.ResponseRecorder, ProblemDetail) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/v1/orders/7", nil)
	r.RespondError(c, err)
	var problem ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	return rec, problem
}

func TestResponder_FirstMatchingMapperWins(t *testing.T) {
	r := NewResponder(
		func(err error) (ProblemDetail, bool) {
			if errors.Is(err, errGone) {
				return NewNotFoundProblem("OrderNotFound", "order", 7), true
			}
			return ProblemDetail{}, false
		},
		func(error) (ProblemDetail, bool) { return ErrInvalidTransition, true },
	)

	rec, problem := respond(t, r, fmt.Errorf("lookup: %w", errGone))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, ContentTypeProblemJSON, rec.Header().Get("Content-Type"))
	assert.Equal(t, "OrderNotFound", problem.Code)
	assert.Equal(t, "/v1/orders/7", problem.Instance)
	assert.Equal(t, "order", problem.Extensions["resourceType"])

	_, problem = respond(t, r, errors.New("other"))
	assert.Equal(t, "InvalidTransition", problem.Code)
}

func TestResponder_UnmappedErrorsAreOpaque(t *testing.T) {
	rec, problem := respond(t, NewResponder(), errors.New("pq: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal", problem.Code)
	assert.Empty(t, problem.Detail)
}

func TestResponder_ProblemErrorsPassThrough(t *testing.T) {
	r := NewResponder()
	r.AddMapper(func(error) (ProblemDetail, bool) { return ErrInternal, true })
	wrapped := fmt.Errorf("guard: %w", ErrRateLimited.WithDetail("slow down"))

	rec, problem := respond(t, r, wrapped)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "slow down", problem.Detail)
	assert.Equal(t, http.StatusTooManyRequests, HTTPStatusFromError(wrapped))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatusFromError(errGone))
}
