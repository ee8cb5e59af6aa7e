package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"adminpanel/internal/combination"
	"adminpanel/internal/models"
	"adminpanel/internal/store"
)

type CombinationRequest struct {
	Items      []models.CombinationItem `json:"items" binding:"required,min=1,dive"`
	Weight     float64                  `json:"weight" binding:"required,gt=0"`
	Dimensions models.Dimensions        `json:"dimensions"`
	Notes      string                   `json:"notes"`
}

type CombinationPatchRequest struct {
	Weight     *float64           `json:"weight" binding:"omitempty,gt=0"`
	Dimensions *models.Dimensions `json:"dimensions"`
	Notes      *string            `json:"notes"`
	IsActive   *bool              `json:"isActive"`
}

type LookupRequest struct {
	Items []models.CombinationItem `json:"items" binding:"required,min=1,dive"`
}

type lookupResponse struct {
	CombinationHash string                      `json:"combinationHash"`
	Found           bool                        `json:"found"`
	Combination     *models.VerifiedCombination `json:"combination,omitempty"`
}

func CreateCombination(cache *combination.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /combinations"
		defer handlePanic(c, route)

		var req CombinationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		rec, err := cache.Create(ctx, combination.CreateInput{
			Items:      req.Items,
			Weight:     req.Weight,
			Dimensions: req.Dimensions,
			VerifiedBy: actor(c),
			Notes:      req.Notes,
		})
		if err != nil {
			if errors.Is(err, store.ErrConflict) {
				respondWithError(c, http.StatusConflict, route, "combination already verified, update it instead")
				return
			}
			respondError(c, route, err)
			return
		}
		respond(c, http.StatusCreated, rec)
	}
}

func ListCombinations(cache *combination.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /combinations"
		defer handlePanic(c, route)

		pageNum, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondError(c, route, err)
			return
		}
		activeOnly := false
		if raw := strings.TrimSpace(c.Query("active")); raw != "" {
			activeOnly, err = strconv.ParseBool(raw)
			if err != nil {
				respondError(c, route, models.ValidationError{Field: "active", Reason: "must be true or false"})
				return
			}
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		items, total, err := cache.List(ctx, store.CombinationFilter{
			SKU:        c.Query("sku"),
			ActiveOnly: activeOnly,
			Page:       pageNum,
			Limit:      limit,
		})
		if err != nil {
			respondError(c, route, err)
			return
		}
		respond(c, http.StatusOK, pageResult{Items: items, Total: total, Page: pageNum, Limit: limit})
	}
}

// LookupCombination answers whether a set of items has been verified. A
// miss or an inactive record is reported as found=false, not as an error.
func LookupCombination(cache *combination.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /combinations/lookup"
		defer handlePanic(c, route)

		var req LookupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		rec, err := cache.Lookup(ctx, req.Items)
		switch {
		case err == nil:
			respond(c, http.StatusOK, lookupResponse{CombinationHash: rec.Hash, Found: true, Combination: rec})
		case errors.Is(err, combination.ErrInactive):
			respond(c, http.StatusOK, lookupResponse{CombinationHash: rec.Hash, Found: false, Combination: rec})
		case errors.Is(err, store.ErrNotFound):
			respond(c, http.StatusOK, lookupResponse{CombinationHash: combination.Hash(req.Items), Found: false})
		default:
			respondError(c, route, err)
		}
	}
}

func GetCombination(cache *combination.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /combinations/:hash"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		rec, err := cache.Get(ctx, c.Param("hash"))
		if err != nil {
			respondError(c, route, err)
			return
		}
		respond(c, http.StatusOK, rec)
	}
}

func UpdateCombination(cache *combination.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /combinations/:hash"
		defer handlePanic(c, route)

		var req CombinationPatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}
		patch := store.CombinationPatch{
			Weight:     req.Weight,
			Dimensions: req.Dimensions,
			Notes:      req.Notes,
			IsActive:   req.IsActive,
		}
		if patch.IsEmpty() {
			respondError(c, route, models.ValidationError{Reason: "at least one of weight, dimensions, notes, isActive is required"})
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		rec, err := cache.Update(ctx, c.Param("hash"), patch, actor(c))
		if err != nil {
			respondError(c, route, err)
			return
		}
		respond(c, http.StatusOK, rec)
	}
}

// DeactivateCombination is the DELETE verb; records are kept for audit.
func DeactivateCombination(cache *combination.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /combinations/:hash"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		rec, err := cache.Deactivate(ctx, c.Param("hash"), actor(c))
		if err != nil {
			respondError(c, route, err)
			return
		}
		respond(c, http.StatusOK, rec)
	}
}
