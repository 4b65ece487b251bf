package handlers

import (
	"net/http"

	"lounge_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// parseIDParam reads a positive int64 path parameter, responding 400 when it is malformed.
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := utils.StrToInt64(c.Param(name))
	if err != nil || id <= 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid "+name+" format.", "must be a positive integer"))
		return 0, false
	}
	return id, true
}

// pageQuery reads page and limit query parameters with defaults.
func pageQuery(c *gin.Context, defaultLimit int) (int, int) {
	page := utils.StrToIntDefault(c.Query("page"), 1)
	limit := utils.StrToIntDefault(c.DefaultQuery("limit", c.Query("page_size")), defaultLimit)
	return page, limit
}

func respondInternal(c *gin.Context, message string) {
	utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, message, "Internal error"))
}

func respondBindError(c *gin.Context, err error) {
	utils.RespondValidationFailed(c, err.Error())
}
