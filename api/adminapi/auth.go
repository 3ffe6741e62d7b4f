package adminapi

import (
	"encoding/base64"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/DeNoronha/ctn-asr-demo-sub015/storage/model"
)

// authMiddleware guards the admin routes with HTTP Basic authentication.
// An empty user table means the instance is still being bootstrapped and
// every request passes; the first created user closes that window.
func authMiddleware(users model.UsersStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		count, err := users.Count()
		if err != nil {
			return errServer(c, err.Error())
		}
		if count == 0 {
			return c.Next()
		}
		username, password, ok := basicCredentials(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return challenge(c, "missing credentials")
		}
		if _, err = users.Authenticate(username, password); err != nil {
			return challenge(c, "invalid credentials")
		}
		return c.Next()
	}
}

func challenge(c *fiber.Ctx, description string) error {
	c.Set(fiber.HeaderWWWAuthenticate, "Basic realm=admin")
	return errorJSON(c, fiber.StatusUnauthorized, "authorization_failure", description)
}

// basicCredentials decodes an RFC 7617 Authorization header value.
func basicCredentials(header string) (username, password string, ok bool) {
	const scheme = "Basic "
	if !strings.HasPrefix(header, scheme) {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(header[len(scheme):])
	if err != nil {
		return "", "", false
	}
	username, password, ok = strings.Cut(string(decoded), ":")
	if !ok {
		return "", "", false
	}
	return username, password, true
}
