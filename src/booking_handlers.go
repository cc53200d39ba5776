package main

import (
	"eventbooking/src/controllers"
	"eventbooking/src/middlewares"
	"eventbooking/src/models"
	"eventbooking/src/types"
	"net/http"

	"github.com/gin-gonic/gin"
)

func bookingResponses(bookings []models.Booking) []types.APIResponseBooking {
	out := make([]types.APIResponseBooking, 0, len(bookings))
	for i := range bookings {
		out = append(out, bookings[i].Response())
	}
	return out
}

func bookingHandlers(g *gin.RouterGroup, app *application) *gin.RouterGroup {
	g.
		POST("/book", func(ctx *gin.Context) {
			var body types.BookingRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				controllers.AbortWithError(ctx, http.StatusBadRequest, err)
				return
			}
			booking, err := app.bookings.Book(ctx.Request.Context(), ctx.GetUint("id"), body.EventID)
			if err != nil {
				controllers.AbortWithError(ctx, controllers.StatusOf(err), err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"message": "Event booked successfully", "booking": booking.Response()})
		}).
		POST("/cancel", func(ctx *gin.Context) {
			var body types.BookingRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				controllers.AbortWithError(ctx, http.StatusBadRequest, err)
				return
			}
			if err := app.bookings.Cancel(ctx.Request.Context(), ctx.GetUint("id"), body.EventID); err != nil {
				controllers.AbortWithError(ctx, controllers.StatusOf(err), err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"message": "Booking cancelled successfully"})
		}).
		GET("/bookings", func(ctx *gin.Context) {
			bookings, err := app.bookings.ListUserBookings(ctx.Request.Context(), ctx.GetUint("id"))
			if err != nil {
				controllers.AbortWithError(ctx, controllers.StatusOf(err), err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"bookings": bookingResponses(bookings)})
		}).
		GET("/bookings/:eventId", middlewares.RequireAdmin, func(ctx *gin.Context) {
			var params types.EventBookingsParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				controllers.AbortWithError(ctx, http.StatusBadRequest, err)
				return
			}
			bookings, err := app.bookings.ListEventBookings(ctx.Request.Context(), params.EventID)
			if err != nil {
				controllers.AbortWithError(ctx, controllers.StatusOf(err), err)
				return
			}
			if len(bookings) == 0 {
				ctx.JSON(http.StatusNotFound, gin.H{"message": "No bookings found for this event"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"bookings": bookingResponses(bookings)})
		})

	return g
}
