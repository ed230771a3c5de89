package handler

import (
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"
)

// paramID parses a positive identifier from the named path parameter and
// responds with 400 when it is malformed.
func paramID(c *gin.Context, logger *slog.Logger, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		logger.Error("Invalid identifier", name, raw)
		RespondBadRequest(c, "Invalid "+name)
		return 0, false
	}
	return id, true
}
