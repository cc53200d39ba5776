package main

import (
	"eventbooking/src/controllers"
	"eventbooking/src/middlewares"
	"eventbooking/src/models"
	"eventbooking/src/services"
	"eventbooking/src/types"
	"eventbooking/src/utils"
	"net/http"

	"github.com/gin-gonic/gin"
)

func newEventFromBody(body types.CreateEventRequestBody) (*models.Event, error) {
	date, err := utils.ParseEventDate(body.Date)
	if err != nil {
		return nil, err
	}
	event := &models.Event{
		Name:        body.Name,
		Description: body.Description,
		Date:        date,
		Time:        body.Time,
		Price:       *body.Price,
		TotalSeats:  body.TotalSeats,
		Location:    body.Location,
	}
	if body.Organizer != nil {
		event.Organizer = models.Organizer{
			Name:  body.Organizer.Name,
			Email: body.Organizer.Email,
			Phone: body.Organizer.Phone,
		}
	}
	return event, nil
}

func eventChangesFromBody(body types.UpdateEventRequestBody) (services.EventChanges, error) {
	changes := services.EventChanges{
		Name:        body.Name,
		Description: body.Description,
		Time:        body.Time,
		Price:       body.Price,
		Location:    body.Location,
	}
	if body.Date != nil {
		date, err := utils.ParseEventDate(*body.Date)
		if err != nil {
			return changes, err
		}
		changes.Date = &date
	}
	if body.Organizer != nil {
		changes.OrganizerName = body.Organizer.Name
		changes.OrganizerEmail = body.Organizer.Email
		changes.OrganizerPhone = body.Organizer.Phone
	}
	return changes, nil
}

func eventHandlers(g *gin.RouterGroup, app *application) *gin.RouterGroup {
	listEvents := func(ctx *gin.Context) {
		events, err := app.events.List(ctx.Request.Context(), ctx.GetUint("id"))
		if err != nil {
			controllers.AbortWithError(ctx, controllers.StatusOf(err), err)
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"events": events})
	}

	g.
		POST("/create", middlewares.RequireAdmin, func(ctx *gin.Context) {
			var body types.CreateEventRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				controllers.AbortWithError(ctx, http.StatusBadRequest, err)
				return
			}
			event, err := newEventFromBody(body)
			if err != nil {
				controllers.AbortWithError(ctx, http.StatusBadRequest, err)
				return
			}
			if err := app.events.Create(ctx.Request.Context(), event); err != nil {
				controllers.AbortWithError(ctx, controllers.StatusOf(err), err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"event": event})
		}).
		PUT("/update/:id", middlewares.RequireAdmin, func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				controllers.AbortWithError(ctx, http.StatusBadRequest, err)
				return
			}
			var body types.UpdateEventRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				controllers.AbortWithError(ctx, http.StatusBadRequest, err)
				return
			}
			if body.TotalSeats != nil || body.AvailableSeats != nil {
				controllers.AbortWithError(ctx, http.StatusBadRequest, services.ErrSeatFieldsLocked)
				return
			}
			changes, err := eventChangesFromBody(body)
			if err != nil {
				controllers.AbortWithError(ctx, http.StatusBadRequest, err)
				return
			}
			event, err := app.events.Update(ctx.Request.Context(), params.ID, changes)
			if err != nil {
				controllers.AbortWithError(ctx, controllers.StatusOf(err), err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"event": event})
		}).
		DELETE("/delete/:id", middlewares.RequireAdmin, func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				controllers.AbortWithError(ctx, http.StatusBadRequest, err)
				return
			}
			if err := app.events.Delete(ctx.Request.Context(), params.ID); err != nil {
				controllers.AbortWithError(ctx, controllers.StatusOf(err), err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"message": "Event deleted successfully"})
		}).
		GET("/events", listEvents).
		GET("/all-events", middlewares.RequireAdmin, listEvents).
		GET("/upcoming", func(ctx *gin.Context) {
			events, err := app.events.Upcoming(ctx.Request.Context())
			if err != nil {
				controllers.AbortWithError(ctx, controllers.StatusOf(err), err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"events": events})
		}).
		GET("/event/:id", func(ctx *gin.Context) {
			var params types.EventLookupParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				controllers.AbortWithError(ctx, http.StatusBadRequest, err)
				return
			}
			event, err := app.events.Get(ctx.Request.Context(), params.Key)
			if err != nil {
				controllers.AbortWithError(ctx, controllers.StatusOf(err), err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"event": event})
		})

	return g
}
