package main

import (
	"context"
	"encoding/json"
	"errors"
	"ers/src/db"
	"ers/src/lib"
	"ers/src/middlewares"
	"ers/src/models"
	"ers/src/store"
	"ers/src/types"
	"ers/src/utils"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const publishedEventsCacheKey = "events:published"

// cachePublishedEvents serves the public listing out of redis, falling back
// to the store on a miss. A nil redis client means cache-off, never an error.
func cachePublishedEvents(ctx context.Context) ([]models.Event, error) {
	rd := lib.GetRedisClient()
	var events []models.Event
	if rd != nil {
		if val := rd.JSONGet(ctx, publishedEventsCacheKey).Val(); val != "" {
			if err := json.Unmarshal([]byte(val), &events); err == nil {
				return events, nil
			}
		}
	}
	events, err := store.GetStore().ListPublishedEvents(ctx)
	if err != nil {
		return nil, err
	}
	if rd != nil {
		if _, err := rd.JSONSet(ctx, publishedEventsCacheKey, "$", events).Result(); err != nil {
			log.Printf("[redis] Error caching published events: %s\n", err.Error())
		}
	}
	return events, nil
}

func invalidatePublishedEventsCache() {
	rd := lib.GetRedisClient()
	if rd == nil {
		return
	}
	rd.Del(context.Background(), publishedEventsCacheKey)
}

func publicEventRoutes(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	apiv1.
		GET("/events", func(ctx *gin.Context) {
			events, err := cachePublishedEvents(ctx)
			if err != nil {
				log.Printf("Error listing events: %s\n", err.Error())
				ctx.Status(http.StatusServiceUnavailable)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": events})
		}).
		GET("/events/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			event, err := store.GetStore().FindEvent(ctx, params.ID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.Status(http.StatusServiceUnavailable)
				return
			}
			if event.Status != types.EVENT_PUBLISHED {
				ctx.Status(http.StatusNotFound)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": event})
		})
	return apiv1
}

func organizerEventHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	org := g.Group("/organizer")
	org.Use(middlewares.RequireRole("organizer"))
	org.
		POST("/events", func(ctx *gin.Context) {
			var body types.CreateEventRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			eventId, err := utils.CreateNewEvent(&body, userId)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if body.Publish {
				if err := utils.PublishEvent(eventId); err != nil {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				invalidatePublishedEventsCache()
			}
			ctx.JSON(http.StatusCreated, gin.H{"id": eventId})
		}).
		POST("/events/:id/tiers", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.CreateTierRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			if err := verifyEventOwner(params.ID, userId); err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			tierId, err := utils.CreateNewTier(params.ID, &body)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			invalidatePublishedEventsCache()
			ctx.JSON(http.StatusCreated, gin.H{"id": tierId})
		}).
		PATCH("/events/:id/publish", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			if err := verifyEventOwner(params.ID, userId); err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			if err := utils.PublishEvent(params.ID); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			invalidatePublishedEventsCache()
			ctx.Status(http.StatusNoContent)
		}).
		PATCH("/events/:id/close", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			if err := verifyEventOwner(params.ID, userId); err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			if err := utils.CloseEvent(params.ID); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			invalidatePublishedEventsCache()
			ctx.Status(http.StatusNoContent)
		}).
		GET("/events", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			var events []models.Event
			d := db.GetDb()
			if err := d.
				Model(&models.Event{}).
				Where(&models.Event{OrganizerID: userId}).
				Preload("Tiers").
				Order("created_at desc").
				Limit(100).
				Find(&events).
				Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": events})
		})
	return g
}

func verifyEventOwner(eventId, userId uint) error {
	d := db.GetDb()
	var event models.Event
	if err := d.
		Model(&models.Event{}).
		Where(&models.Event{ID: eventId, OrganizerID: userId}).
		First(&event).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		log.Printf("Error verifying Event [%d] owner: %s\n", eventId, err.Error())
		return err
	}
	return nil
}
