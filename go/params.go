package foodcourtserver

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"
)

// bindPathID binds a positive integer path segment, answering 400 otherwise.
func bindPathID(c *gin.Context, name string) (int64, bool) {
	var id int64
	err := runtime.BindStyledParameterWithOptions("simple", name, c.Param(name), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		respondBadRequest(c, fmt.Errorf("invalid %s: %w", name, err))
		return 0, false
	}
	if id <= 0 {
		respondBadRequest(c, fmt.Errorf("invalid %s: must be positive", name))
		return 0, false
	}
	return id, true
}

// bindQueryInt binds an optional integer query parameter.
func bindQueryInt(c *gin.Context, name string, fallback int) (int, bool) {
	value := fallback
	if err := runtime.BindQueryParameter("form", true, false, name, c.Request.URL.Query(), &value); err != nil {
		respondBadRequest(c, fmt.Errorf("invalid %s: %w", name, err))
		return 0, false
	}
	return value, true
}

// bindQueryStrings binds a repeatable query parameter (?status=a&status=b).
func bindQueryStrings(c *gin.Context, name string) ([]string, bool) {
	var values []string
	if err := runtime.BindQueryParameter("form", true, false, name, c.Request.URL.Query(), &values); err != nil {
		respondBadRequest(c, fmt.Errorf("invalid %s: %w", name, err))
		return nil, false
	}
	return values, true
}

// bindQueryTime binds an optional RFC 3339 timestamp or YYYY-MM-DD date.
func bindQueryTime(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, true
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	respondBadRequest(c, fmt.Errorf("invalid %s: want RFC 3339 time or date", name))
	return time.Time{}, false
}
