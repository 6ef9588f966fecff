// internal/gateway/schemas.go
package gateway

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Success payload schemas, checked before decoding so a missing expected
// field surfaces as a declared failure rather than a zero value.
var responseSchemas = map[string]string{
	OpForecast: `{
		"type": "object",
		"required": ["status", "results"],
		"properties": {
			"status": {"type": "string"},
			"results": {
				"type": "object",
				"required": ["segment_count", "recommended_campaign_type", "recommended_offer", "success_probability", "privacy_compliant", "campaign_details"],
				"properties": {
					"segment_count": {"type": "integer", "minimum": 0},
					"recommended_campaign_type": {"type": "string"},
					"recommended_offer": {"type": "string"},
					"success_probability": {"type": "number", "minimum": 0, "maximum": 100},
					"privacy_compliant": {"type": "boolean"},
					"campaign_details": {
						"type": "object",
						"required": ["type", "offer", "target"],
						"properties": {
							"type": {"type": "string"},
							"offer": {"type": "string"},
							"target": {"type": "string"},
							"discount_percent": {"type": "number", "minimum": 0, "maximum": 100},
							"budget": {"type": "number", "minimum": 0},
							"target_size": {"type": "integer", "minimum": 0}
						}
					},
					"report_links": {
						"type": "object",
						"properties": {
							"html": {"type": "string"},
							"pdf": {"type": "string"}
						}
					}
				}
			}
		}
	}`,
	OpImage: `{
		"type": "object",
		"required": ["image_url"],
		"properties": {
			"image_url": {"type": "string", "minLength": 1}
		}
	}`,
	OpSlogan: `{
		"type": "object",
		"required": ["slogans"],
		"properties": {
			"slogans": {"type": "array", "items": {"type": "string"}}
		}
	}`,
	OpVideoIngest: `{
		"type": "object",
		"required": ["video_info"],
		"properties": {
			"video_info": {
				"type": "object",
				"required": ["video_id", "chunk_count"],
				"properties": {
					"video_id": {"type": "string", "minLength": 1},
					"url": {"type": "string"},
					"chunk_count": {"type": "integer", "minimum": 0},
					"title": {"type": "string"}
				}
			}
		}
	}`,
	OpVideoQuery: `{
		"type": "object",
		"required": ["answer"],
		"properties": {
			"answer": {"type": "string"}
		}
	}`,
}

var compiledSchemas = mustCompileSchemas()

func mustCompileSchemas() map[string]*gojsonschema.Schema {
	compiled := make(map[string]*gojsonschema.Schema, len(responseSchemas))
	for op, raw := range responseSchemas {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
		if err != nil {
			panic(fmt.Sprintf("invalid response schema for %s: %v", op, err))
		}
		compiled[op] = schema
	}
	return compiled
}

// checkResponseSchema validates a raw success body against the operation's
// schema. Returns a human-readable summary of the violations, or "" when valid.
func checkResponseSchema(operation string, body []byte) (string, error) {
	schema, ok := compiledSchemas[operation]
	if !ok {
		return "", nil
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return "", err
	}
	if result.Valid() {
		return "", nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return strings.Join(msgs, "; "), nil
}
