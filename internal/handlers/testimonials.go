package handlers

import (
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"adminpanel/internal/models"
	"adminpanel/internal/store"
)

const testimonialCachePrefix = "testimonials|"

var youtubeIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

type TestimonialRequest struct {
	CustomerName     string `json:"customerName" binding:"required"`
	CustomerLocation string `json:"customerLocation"`
	YoutubeVideoID   string `json:"youtubeVideoId" binding:"required"`
	DisplayOrder     int    `json:"displayOrder" binding:"gte=0"`
	IsActive         *bool  `json:"isActive"`
	Title            string `json:"title"`
	Description      string `json:"description"`
}

func (r TestimonialRequest) apply(t *models.Testimonial) error {
	videoID := strings.TrimSpace(r.YoutubeVideoID)
	if !youtubeIDPattern.MatchString(videoID) {
		return models.ValidationError{Field: "youtubeVideoId", Reason: "must be an 11 character YouTube video id"}
	}
	t.CustomerName = strings.TrimSpace(r.CustomerName)
	t.CustomerLocation = strings.TrimSpace(r.CustomerLocation)
	t.YoutubeVideoID = videoID
	t.DisplayOrder = r.DisplayOrder
	t.Title = strings.TrimSpace(r.Title)
	t.Description = strings.TrimSpace(r.Description)
	if r.IsActive != nil {
		t.IsActive = *r.IsActive
	}
	return nil
}

// PublicTestimonials lists active testimonials for the storefront, served
// from the list cache when warm.
func PublicTestimonials(testimonials store.Testimonials, cache *ListCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /customer/testimonials"
		defer handlePanic(c, route)

		key := testimonialCachePrefix + "public"
		c.Header("Cache-Control", fmt.Sprintf("public, max-age=%d", int(cache.TTL().Seconds())))
		if cached, ok := cache.Get(key); ok {
			c.Header("X-Cache", "HIT")
			respond(c, http.StatusOK, cached)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		items, err := testimonials.List(ctx, true)
		if err != nil {
			respondError(c, route, err)
			return
		}
		cache.Set(key, items)
		c.Header("X-Cache", "MISS")
		respond(c, http.StatusOK, items)
	}
}

func AdminListTestimonials(testimonials store.Testimonials) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/testimonials"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		items, err := testimonials.List(ctx, false)
		if err != nil {
			respondError(c, route, err)
			return
		}
		respond(c, http.StatusOK, items)
	}
}

func CreateTestimonial(testimonials store.Testimonials, cache *ListCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/testimonials"
		defer handlePanic(c, route)

		var req TestimonialRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}
		now := models.Now()
		t := &models.Testimonial{ID: uuid.NewString(), IsActive: true, CreatedAt: now, UpdatedAt: now}
		if err := req.apply(t); err != nil {
			respondError(c, route, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := testimonials.Create(ctx, t); err != nil {
			respondError(c, route, err)
			return
		}
		cache.Invalidate(testimonialCachePrefix)
		log.Printf("[TESTIMONIAL] [INFO] created %s by %s", t.ID, actor(c))
		respond(c, http.StatusCreated, t)
	}
}

func UpdateTestimonial(testimonials store.Testimonials, cache *ListCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/testimonials/:id"
		defer handlePanic(c, route)

		var req TestimonialRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		t, err := testimonials.Get(ctx, c.Param("id"))
		if err != nil {
			respondError(c, route, err)
			return
		}
		if err := req.apply(t); err != nil {
			respondError(c, route, err)
			return
		}
		t.UpdatedAt = models.Now()
		if err := testimonials.Update(ctx, t); err != nil {
			respondError(c, route, err)
			return
		}
		cache.Invalidate(testimonialCachePrefix)
		log.Printf("[TESTIMONIAL] [INFO] updated %s by %s", t.ID, actor(c))
		respond(c, http.StatusOK, t)
	}
}

func DeleteTestimonial(testimonials store.Testimonials, cache *ListCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/testimonials/:id"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		id := c.Param("id")
		if err := testimonials.Delete(ctx, id); err != nil {
			respondError(c, route, err)
			return
		}
		cache.Invalidate(testimonialCachePrefix)
		log.Printf("[TESTIMONIAL] [INFO] deleted %s by %s", id, actor(c))
		respond(c, http.StatusOK, gin.H{"id": id})
	}
}
