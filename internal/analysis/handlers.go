package analysis

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware, rateLimit fiber.Handler, maxBytes int64) {
	if rateLimit == nil {
		rateLimit = func(c *fiber.Ctx) error { return c.Next() }
	}

	r.Post("/", authMiddleware, rateLimit, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)

		data, fileName, err := uploadBytes(c, maxBytes)
		if err != nil {
			return err
		}

		analysis, err := svc.Analyze(c.Context(), userID, fileName, data, c.FormValue("format"))
		var invalid *InvalidInputError
		if errors.As(err, &invalid) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"valid":  false,
				"reason": invalid.Reason,
			})
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(analysis)
	})

	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		list, err := svc.History(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if list == nil {
			list = []Analysis{}
		}
		return c.JSON(list)
	})

	r.Get("/:id", authMiddleware, func(c *fiber.Ctx) error {
		analysis, err := svc.Get(c.Context(), c.Params("id"))
		if errors.Is(err, pgx.ErrNoRows) {
			return fiber.NewError(fiber.StatusNotFound, "analysis not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(analysis)
	})
}

// uploadBytes reads the telemetry payload from a multipart "file" field
// when present, raw request body otherwise. The HTTP layer owns upload
// handling; the pipeline only ever sees the bytes.
func uploadBytes(c *fiber.Ctx, maxBytes int64) ([]byte, string, error) {
	if fh, err := c.FormFile("file"); err == nil {
		if maxBytes > 0 && fh.Size > maxBytes {
			return nil, "", fiber.NewError(fiber.StatusRequestEntityTooLarge, "telemetry file too large")
		}
		f, err := fh.Open()
		if err != nil {
			return nil, "", fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, "", fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return data, fh.Filename, nil
	}

	body := c.Body()
	if len(body) == 0 {
		return nil, "", fiber.NewError(fiber.StatusBadRequest, "telemetry file required")
	}
	if maxBytes > 0 && int64(len(body)) > maxBytes {
		return nil, "", fiber.NewError(fiber.StatusRequestEntityTooLarge, "telemetry file too large")
	}
	return body, "upload", nil
}
