package validation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"
)

var xssPattern = regexp.MustCompile(`(?i)(<script|<iframe|javascript:|onerror=|onload=|onclick=)`)

// RecommendRequestSchema describes the body of a recommendation request:
// the farmer profile fields plus an optional language.
const RecommendRequestSchema = `{
  "type": "object",
  "required": ["farmerType", "district"],
  "properties": {
    "landSizeAcres": {"type": "number", "minimum": 0},
    "landSize": {"type": "number", "minimum": 0},
    "farmerType": {"type": "string", "pattern": "(?i)^\\s*(small|marginal|medium|large|tenant)\\s*$"},
    "district": {"type": "string", "minLength": 1, "maxLength": 64},
    "crops": {
      "type": "array",
      "maxItems": 50,
      "items": {"type": "string", "maxLength": 64}
    },
    "language": {"type": "string", "maxLength": 8},
    "languagePreference": {"type": "string", "maxLength": 8}
  }
}`

const FeedbackRequestSchema = `{
  "type": "object",
  "required": ["requestId", "subsidyId", "helpful"],
  "properties": {
    "requestId": {"type": "string", "minLength": 1, "maxLength": 64},
    "subsidyId": {"type": "string", "minLength": 1, "maxLength": 128},
    "helpful": {"type": "boolean"},
    "comment": {"type": "string", "maxLength": 2000}
  }
}`

type Config struct {
	AllowedContentTypes []string
	// Schemas maps an exact request path to the JSON schema its body
	// must satisfy. Only POST and PUT bodies are checked.
	Schemas map[string]string
	Logger  *zap.Logger
}

// Middleware rejects unsupported content types, bodies that fail their
// route schema and string values carrying script injection.
func Middleware(cfg Config) (fiber.Handler, error) {
	if len(cfg.AllowedContentTypes) == 0 {
		cfg.AllowedContentTypes = []string{fiber.MIMEApplicationJSON}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	schemas := make(map[string]*gojsonschema.Schema, len(cfg.Schemas))
	for path, raw := range cfg.Schemas {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid schema for %s: %w", path, err)
		}
		schemas[path] = schema
	}

	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost && c.Method() != fiber.MethodPut {
			return c.Next()
		}

		if ct := c.Get(fiber.HeaderContentType); ct != "" && !allowedType(ct, cfg.AllowedContentTypes) {
			return reject(c, fiber.StatusUnsupportedMediaType, "Unsupported content type", nil)
		}

		schema, ok := schemas[c.Path()]
		if !ok {
			return c.Next()
		}

		body := c.Body()
		var decoded any
		if err := json.Unmarshal(body, &decoded); err != nil {
			return reject(c, fiber.StatusBadRequest, "Invalid JSON format", nil)
		}

		result, err := schema.Validate(gojsonschema.NewGoLoader(decoded))
		if err != nil {
			return reject(c, fiber.StatusBadRequest, "Invalid request body", nil)
		}
		if !result.Valid() {
			details := make([]string, 0, len(result.Errors()))
			for _, e := range result.Errors() {
				details = append(details, e.String())
			}
			return reject(c, fiber.StatusBadRequest, "Request body failed validation", details)
		}

		if field, found := findXSS(decoded, ""); found {
			cfg.Logger.Warn("Potential XSS attempt",
				zap.String("ip", c.IP()),
				zap.String("path", c.Path()),
				zap.String("field", field),
			)
			return reject(c, fiber.StatusBadRequest, "Invalid request content", nil)
		}

		return c.Next()
	}, nil
}

func allowedType(contentType string, allowed []string) bool {
	for _, t := range allowed {
		if strings.Contains(contentType, t) {
			return true
		}
	}
	return false
}

// findXSS walks a decoded JSON value and returns the dotted path of the
// first string matching the injection pattern.
func findXSS(v any, path string) (string, bool) {
	switch val := v.(type) {
	case string:
		return path, xssPattern.MatchString(val)
	case []any:
		for i, item := range val {
			if p, ok := findXSS(item, fmt.Sprintf("%s[%d]", path, i)); ok {
				return p, true
			}
		}
	case map[string]any:
		for k, item := range val {
			next := k
			if path != "" {
				next = path + "." + k
			}
			if p, ok := findXSS(item, next); ok {
				return p, true
			}
		}
	}
	return "", false
}

func reject(c *fiber.Ctx, status int, message string, details []string) error {
	body := fiber.Map{"message": message, "status": status}
	if len(details) > 0 {
		body["details"] = details
	}
	return c.Status(status).JSON(fiber.Map{"error": body})
}
