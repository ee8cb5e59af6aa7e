package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"adminpanel/internal/addressbook"
	"adminpanel/internal/combination"
	"adminpanel/internal/middleware"
	"adminpanel/internal/models"
	"adminpanel/internal/orders"
	"adminpanel/internal/store"
)

const requestTimeout = 5 * time.Second

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

func handlePanic(c *gin.Context, route string) {
	if r := recover(); r != nil {
		log.Printf("[%s] panic recovered: %v", route, r)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal server error"})
	}
}

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondWithError(c *gin.Context, status int, route string, message string) {
	log.Printf("[%s] returning error %d: %s", route, status, message)
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": message})
}

// respondError maps service and store errors onto HTTP statuses. Anything
// unrecognised is logged and answered with a generic 500.
func respondError(c *gin.Context, route string, err error) {
	var validationErr models.ValidationError
	var transitionErr models.TransitionError
	switch {
	case errors.As(err, &validationErr):
		respondWithError(c, http.StatusBadRequest, route, validationErr.Error())
	case errors.Is(err, store.ErrNotFound):
		respondWithError(c, http.StatusNotFound, route, "not found")
	case errors.Is(err, addressbook.ErrNotFound):
		respondWithError(c, http.StatusNotFound, route, err.Error())
	case errors.Is(err, addressbook.ErrDuplicate),
		errors.As(err, &transitionErr),
		errors.Is(err, orders.ErrPaymentRequired):
		respondWithError(c, http.StatusConflict, route, err.Error())
	case errors.Is(err, store.ErrConflict):
		respondWithError(c, http.StatusConflict, route, "conflicting update, reload and retry")
	case errors.Is(err, orders.ErrPackageUnknown), errors.Is(err, combination.ErrInactive):
		respondWithError(c, http.StatusUnprocessableEntity, route, err.Error())
	case errors.Is(err, orders.ErrCourier):
		log.Printf("[%s] courier error: %v", route, err)
		respondWithError(c, http.StatusBadGateway, route, orders.ErrCourier.Error())
	case errors.Is(err, context.DeadlineExceeded):
		log.Printf("[%s] timeout: %v", route, err)
		respondWithError(c, http.StatusGatewayTimeout, route, "request timed out")
	default:
		log.Printf("[%s] unexpected error: %v", route, err)
		respondWithError(c, http.StatusInternalServerError, route, "internal server error")
	}
}

func respondValidationError(c *gin.Context, route string, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make([]string, 0, len(validationErrors))
		for _, fieldError := range validationErrors {
			field := fieldPath(fieldError.Namespace())
			switch fieldError.Tag() {
			case "required":
				details = append(details, fmt.Sprintf("%s is required", field))
			case "e164":
				details = append(details, fmt.Sprintf("%s must be an E.164 phone number", field))
			case "oneof":
				details = append(details, fmt.Sprintf("%s must be one of %s", field, fieldError.Param()))
			default:
				details = append(details, fmt.Sprintf("%s is invalid", field))
			}
		}
		log.Printf("[%s] returning error %d: validation failed %v", route, http.StatusBadRequest, details)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "validation failed",
			"details": strings.Join(details, "; "),
		})
		return
	}

	log.Printf("[%s] returning error %d: invalid body: %v", route, http.StatusBadRequest, err)
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid body", "details": err.Error()})
}

// fieldPath turns "CreateInput.Items[0].SKU" into "items[0].sku".
func fieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, part := range parts {
		parts[i] = lowerCamel(part)
	}
	return strings.Join(parts, ".")
}

func lowerCamel(field string) string {
	if field == "" {
		return field
	}
	if strings.ToUpper(field) == field {
		return strings.ToLower(field)
	}
	return strings.ToLower(field[:1]) + field[1:]
}

// actor names the authenticated caller for audit fields.
func actor(c *gin.Context) string {
	if p, ok := middleware.PrincipalFrom(c); ok {
		return p.Actor()
	}
	return "unknown"
}
