package handlers

import (
	"github.com/gofiber/fiber/v2"

	"fixly/internal/services"
)

type JobHandler struct {
	jobs *services.JobService
}

func NewJobHandler(jobs *services.JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// CreateJob posts a new job for the authenticated client.
func (h *JobHandler) CreateJob(c *fiber.Ctx) error {
	req := new(services.CreateJobInput)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	job, err := h.jobs.CreateJob(c.Context(), userID(c), *req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Job posted successfully",
		"job":     job,
	})
}

func (h *JobHandler) GetJob(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	job, err := h.jobs.GetJob(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"job": job})
}

func (h *JobHandler) ListMyJobs(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	jobs, err := h.jobs.ListClientJobs(c.Context(), userID(c), limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"jobs": jobs, "count": len(jobs)})
}

func (h *JobHandler) ListOpenJobs(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	categoryID := uint(c.QueryInt("category_id", 0))
	jobs, err := h.jobs.ListOpenJobs(c.Context(), categoryID, limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"jobs": jobs, "count": len(jobs)})
}

// AcceptQuote accepts one quote on the client's job; every other active
// quote on the job is declined in the same step.
func (h *JobHandler) AcceptQuote(c *fiber.Ctx) error {
	jobID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	quoteID, err := parseID(c, "quoteId")
	if err != nil {
		return respondError(c, err)
	}

	job, err := h.jobs.AcceptQuote(c.Context(), jobID, quoteID, userID(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Quote accepted. The job is now in progress.",
		"job":     job,
	})
}

// CompleteJob lets the provider on the accepted quote mark the work done.
func (h *JobHandler) CompleteJob(c *fiber.Ctx) error {
	jobID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	job, err := h.jobs.MarkComplete(c.Context(), jobID, userID(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Job marked as completed",
		"job":     job,
	})
}

type CancelJobRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func (h *JobHandler) CancelJob(c *fiber.Ctx) error {
	jobID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	req := new(CancelJobRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	job, err := h.jobs.CancelJob(c.Context(), jobID, userID(c), req.Reason)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Job cancelled",
		"job":     job,
	})
}
