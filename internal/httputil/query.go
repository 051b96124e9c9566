package httputil

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	// DefaultLimit is applied when the limit query parameter is absent.
	DefaultLimit = 100
	// MaxLimit caps the limit query parameter.
	MaxLimit = 1000
)

// ParseLimit parses the "limit" query parameter, applying default and cap.
func ParseLimit(c *gin.Context) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return DefaultLimit, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, fmt.Errorf("invalid limit parameter: must be a positive integer")
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return limit, nil
}

// ParseSince parses the "since" query parameter as a sequence number.
// Returns 0 when absent (no lower bound).
func ParseSince(c *gin.Context) (uint64, error) {
	raw := c.Query("since")
	if raw == "" {
		return 0, nil
	}

	since, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid since parameter: must be a non-negative integer")
	}
	return since, nil
}
