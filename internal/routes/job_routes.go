package routes

import (
	"github.com/gofiber/fiber/v2"

	"fixly/internal/handlers"
	"fixly/internal/middleware"
)

func SetupJobRoutes(app *fiber.App, jobs *handlers.JobHandler, quotes *handlers.QuoteHandler) {
	jobGroup := app.Group("/api/jobs", middleware.Protected())

	jobGroup.Post("/", jobs.CreateJob)
	jobGroup.Get("/open", jobs.ListOpenJobs)
	jobGroup.Get("/mine", jobs.ListMyJobs)
	jobGroup.Get("/:id", jobs.GetJob)
	jobGroup.Post("/:id/complete", jobs.CompleteJob)
	jobGroup.Post("/:id/cancel", jobs.CancelJob)

	// Quotes against a job
	jobGroup.Get("/:id/quotes", quotes.ListJobQuotes)
	jobGroup.Post("/:id/quotes/:quoteId/accept", jobs.AcceptQuote)

	quoteGroup := app.Group("/api/quotes", middleware.Protected())
	quoteGroup.Post("/", quotes.SubmitQuote)
	quoteGroup.Put("/:id", quotes.ReviseQuote)
	quoteGroup.Post("/:id/decline", quotes.DeclineQuote)
	quoteGroup.Post("/:id/cancel", quotes.CancelQuote)
}
