package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/casepedia/internal/pkg/errcode"
	appErr "github.com/xxxsen/casepedia/internal/pkg/errors"
	"github.com/xxxsen/casepedia/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))
	switch {
	case appErr.IsInvalid(err):
		response.Error(c, errcode.ErrInvalid, "invalid request")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrGenerativeUnavailable):
		response.Error(c, errcode.ErrGenerativeUnavailable, "generative analysis not configured")
	default:
		response.Error(c, errcode.ErrSearchFailed, "search failed")
	}
}
