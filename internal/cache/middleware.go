package cache

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Responses serves cached GET bodies and stores fresh 200 responses.
func Responses(store Store, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodGet {
			return c.Next()
		}

		key := Key(c.OriginalURL())
		if body, ok, err := store.Get(c.UserContext(), key); err != nil {
			log.Printf("[WARN] cache get %s: %v", key, err)
		} else if ok {
			c.Set("X-Cache", "HIT")
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
			return c.Send(body)
		}

		c.Set("X-Cache", "MISS")
		if err := c.Next(); err != nil {
			return err
		}

		resp := c.Response()
		if resp.StatusCode() != fiber.StatusOK {
			return nil
		}
		if string(resp.Header.ContentType()) != fiber.MIMEApplicationJSON &&
			string(resp.Header.ContentType()) != fiber.MIMEApplicationJSONCharsetUTF8 {
			return nil
		}
		if err := store.Set(c.UserContext(), key, resp.Body(), ttl); err != nil {
			log.Printf("[WARN] cache set %s: %v", key, err)
		}
		return nil
	}
}

// InvalidateOn drops every cached response under prefixes after a
// successful non-GET request.
func InvalidateOn(store Store, prefixes ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodGet || c.Method() == fiber.MethodHead {
			return c.Next()
		}

		err := c.Next()
		if err != nil || c.Response().StatusCode() >= fiber.StatusBadRequest {
			return err
		}

		for _, p := range prefixes {
			if derr := store.DeletePrefix(c.UserContext(), Key(p)); derr != nil {
				log.Printf("[WARN] cache invalidate %s: %v", p, derr)
			}
		}
		return nil
	}
}
