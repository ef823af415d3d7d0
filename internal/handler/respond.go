package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_shop/internal/service"
	"github.com/GTDGit/gtd_shop/internal/utils"
)

// respondError maps service errors onto the response envelope.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, utils.ErrInsufficientStock):
		utils.Error(c, 409, "INSUFFICIENT_STOCK", err.Error())
	case errors.Is(err, utils.ErrValidation):
		utils.Error(c, 400, utils.ErrValidation.Error(), err.Error())
	case errors.Is(err, utils.ErrAuthentication):
		utils.Error(c, 400, utils.ErrAuthentication.Error(), err.Error())
	case errors.Is(err, utils.ErrNotFound):
		utils.Error(c, 404, utils.ErrNotFound.Error(), err.Error())
	case errors.Is(err, utils.ErrConflict):
		utils.Error(c, 409, utils.ErrConflict.Error(), err.Error())
	case errors.Is(err, utils.ErrExternalService):
		log.Error().Err(err).Str("request_id", c.GetString("request_id")).Msg("External service failure")
		utils.Error(c, 500, utils.ErrExternalService.Error(), externalMessage(err))
	default:
		log.Error().Err(err).
			Str("request_id", c.GetString("request_id")).
			Str("path", c.Request.URL.Path).
			Msg("Unhandled error")
		utils.Error(c, 500, "INTERNAL_ERROR", "Internal server error")
	}
}

// externalMessage hides upstream details behind the sentinel's message.
func externalMessage(err error) string {
	for _, known := range []error{utils.ErrSearchUnavailable, utils.ErrStorageUnavailable} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return "External service unavailable"
}

func invalidBody(c *gin.Context, err error) {
	utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body: "+err.Error())
}

// pathID parses a positive integer path parameter, writing 404 otherwise.
func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		utils.Error(c, 404, utils.ErrNotFound.Error(), "Not found")
		return 0, false
	}
	return id, true
}

// pageParams reads page and limit, ignoring malformed values like the defaults do.
func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return service.NormalizePage(page, limit)
}
