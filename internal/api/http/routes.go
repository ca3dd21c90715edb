package httpapi

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/agrosmart/farm-control/internal/farm"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *farm.Service) {
	api := app.Group("/api")

	api.Get("/sensors", func(c *fiber.Ctx) error {
		return c.JSON(service.GetSensorState())
	})

	api.Post("/sensors", func(c *fiber.Ctx) error {
		var patch map[string]any
		if err := c.BodyParser(&patch); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "body must be a JSON object")
		}
		// Unrecognized fields are ignored by design; the merge is
		// whitelist-validated inside the service.
		return c.JSON(service.UpdateSensorState(patch))
	})

	api.Get("/weather", func(c *fiber.Ctx) error {
		return c.JSON(service.CurrentWeather())
	})

	api.Get("/mode", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"mode": service.GetMode()})
	})

	api.Post("/mode", func(c *fiber.Ctx) error {
		var req modeRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		mode, err := farm.ParseMode(req.Mode)
		if err != nil {
			return errorResponse(err)
		}
		return c.JSON(fiber.Map{"mode": service.SetMode(mode)})
	})

	api.Get("/assessment", func(c *fiber.Ctx) error {
		res := service.GetAssessment()
		return c.JSON(fiber.Map{
			"assessment":     res.Assessment,
			"fresh":          res.Fresh,
			"retryInSeconds": int(res.RetryIn / time.Second),
		})
	})

	api.Post("/irrigation/immediate", func(c *fiber.Ctx) error {
		var req immediateRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		switch req.Action {
		case "start":
			status, advisory, err := service.StartIrrigation(req.Duration)
			if err != nil {
				return errorResponse(err)
			}
			body := fiber.Map{"irrigationStatus": status}
			if advisory != "" {
				body["advisory"] = advisory
			}
			return c.JSON(body)
		case "stop":
			return c.JSON(fiber.Map{"irrigationStatus": service.StopIrrigation()})
		case "pause":
			status, err := service.PauseIrrigation()
			if err != nil {
				return errorResponse(err)
			}
			return c.JSON(fiber.Map{"irrigationStatus": status})
		default: // resume; the validator restricts the set
			status, err := service.ResumeIrrigation()
			if err != nil {
				return errorResponse(err)
			}
			return c.JSON(fiber.Map{"irrigationStatus": status})
		}
	})

	api.Get("/irrigation/status", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"irrigationStatus": service.GetIrrigationStatus()})
	})

	api.Post("/irrigation/jobs", func(c *fiber.Ctx) error {
		var req jobRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		days := make([]farm.Weekday, 0, len(req.Days))
		for _, raw := range req.Days {
			day, err := farm.ParseWeekday(raw)
			if err != nil {
				return errorResponse(err)
			}
			days = append(days, day)
		}

		job, err := service.CreateJob(farm.JobSpec{
			DurationMinutes: req.DurationMinutes,
			Days:            days,
			TimeOfDay:       req.TimeOfDay,
		})
		if err != nil {
			return errorResponse(err)
		}
		return c.Status(fiber.StatusCreated).JSON(job)
	})

	api.Get("/irrigation/jobs", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"jobs": service.ListJobs()})
	})

	api.Delete("/irrigation/jobs/:id", func(c *fiber.Ctx) error {
		if err := service.DeleteJob(c.Params("id")); err != nil {
			return errorResponse(err)
		}
		return c.JSON(fiber.Map{"deleted": true})
	})

	api.Get("/thresholds", func(c *fiber.Ctx) error {
		return c.JSON(service.GetThresholds())
	})

	api.Put("/thresholds", func(c *fiber.Ctx) error {
		var updates map[string]float64
		if err := c.BodyParser(&updates); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "body must be a JSON object of threshold name to number")
		}

		cfg, err := service.SetThresholds(updates)
		if err != nil {
			if errors.Is(err, farm.ErrPersistence) {
				// The update is applied; the caller is warned it is not
				// yet durable.
				return c.JSON(fiber.Map{
					"thresholds": cfg,
					"warning":    "thresholds applied but could not be persisted",
				})
			}
			return errorResponse(err)
		}
		return c.JSON(fiber.Map{"thresholds": cfg})
	})
}

// errorResponse maps farm sentinel errors onto HTTP status codes.
func errorResponse(err error) error {
	switch {
	case errors.Is(err, farm.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, farm.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, farm.ErrUnavailable):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}

type modeRequest struct {
	Mode string `json:"mode" validate:"required"`
}

type immediateRequest struct {
	Action   string `json:"action" validate:"required,oneof=start stop pause resume"`
	Duration int    `json:"duration" validate:"omitempty,gt=0"`
}

type jobRequest struct {
	DurationMinutes int      `json:"durationMinutes" validate:"required,gt=0"`
	Days            []string `json:"daysOfWeek" validate:"required,min=1"`
	TimeOfDay       string   `json:"timeOfDay" validate:"required"`
}
