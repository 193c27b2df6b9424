package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"storehub/internal/logger"
	"storehub/internal/microservices/http-api/dto"
	"storehub/internal/microservices/http-api/middleware"
	"storehub/internal/microservices/http-api/query"
	"storehub/internal/microservices/http-api/service"
	"storehub/internal/shared"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    service.Kind         `json:"code"`
	Message string               `json:"message"`
	Errors  []service.FieldError `json:"errors,omitempty"`
}

// RegisterBindingValidators installs the custom validation tags on gin's binding engine.
func RegisterBindingValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding engine is not go-playground/validator")
	}
	return dto.RegisterValidators(v)
}

func respondError(c *gin.Context, err error) {
	appErr := toAppError(err)
	if appErr.Kind == service.KindInternal {
		logger.FromGin(c).Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.AbortWithStatusJSON(appErr.Kind.Status(), ErrorResponse{
		Code:    appErr.Kind,
		Message: appErr.Message,
		Errors:  appErr.Fields,
	})
}

func toAppError(err error) *service.AppError {
	var (
		verrs     validator.ValidationErrors
		paramErr  *query.ParamError
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &verrs):
		return service.FromValidationErrors(verrs)
	case errors.As(err, &paramErr):
		return service.ValidationError(paramErr.Message, service.FieldError{Field: paramErr.Field, Message: paramErr.Message})
	case errors.As(err, &typeErr):
		return service.ValidationError("invalid request body", service.FieldError{Field: typeErr.Field, Message: "has the wrong type"})
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return service.ValidationError("invalid request body")
	}
	return service.AsAppError(err)
}

// bindJSON decodes and validates the body, answering 400 on failure.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondError(c, err)
		return false
	}
	return true
}

// pathID reads a positive integer path parameter.
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 0)
	if err != nil || id == 0 {
		respondError(c, service.ValidationError("invalid "+name, service.FieldError{Field: name, Message: name + " must be a positive integer"}))
		return 0, false
	}
	return uint(id), true
}

// listParams parses page/limit/sortBy/sortOrder for an entity.
func listParams(c *gin.Context, s query.Sorting) (query.Params, bool) {
	var raw query.Raw
	if err := c.ShouldBindQuery(&raw); err != nil {
		respondError(c, err)
		return query.Params{}, false
	}
	p, err := query.Parse(raw, s)
	if err != nil {
		respondError(c, err)
		return query.Params{}, false
	}
	return p, true
}

// actor returns the caller set by the auth middleware.
func actor(c *gin.Context) (shared.Actor, bool) {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		respondError(c, service.UnauthorizedError("authentication required"))
	}
	return a, ok
}

func respondMessage(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, dto.MessageResponse{Message: msg})
}
