package standards

// documentSchema describes the standards document. Every node must carry a
// non-blank id and a title (criteria: label).
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "definitions": {
    "nonBlank": {"type": "string", "pattern": "\\S"},
    "authority": {
      "type": "object",
      "required": ["instrument", "cite"],
      "properties": {
        "instrument": {"type": "string"},
        "cite": {"type": "string"},
        "url": {"type": "string"}
      }
    },
    "criterion": {
      "type": "object",
      "required": ["id", "label"],
      "properties": {
        "id": {"$ref": "#/definitions/nonBlank"},
        "label": {"$ref": "#/definitions/nonBlank"},
        "summary": {"type": "string"},
        "tags": {"type": "array", "items": {"type": "string"}},
        "expectedAuthorities": {"type": "array", "items": {"$ref": "#/definitions/authority"}}
      }
    },
    "outcome": {
      "type": "object",
      "required": ["id", "title"],
      "properties": {
        "id": {"$ref": "#/definitions/nonBlank"},
        "title": {"$ref": "#/definitions/nonBlank"},
        "criteria": {"type": "array", "items": {"$ref": "#/definitions/criterion"}}
      }
    },
    "unit": {
      "type": "object",
      "required": ["id", "title"],
      "properties": {
        "id": {"$ref": "#/definitions/nonBlank"},
        "title": {"$ref": "#/definitions/nonBlank"},
        "outcomes": {"type": "array", "items": {"$ref": "#/definitions/outcome"}}
      }
    },
    "part": {
      "type": "object",
      "required": ["id", "title"],
      "properties": {
        "id": {"$ref": "#/definitions/nonBlank"},
        "title": {"$ref": "#/definitions/nonBlank"},
        "units": {"type": "array", "items": {"$ref": "#/definitions/unit"}}
      }
    }
  },
  "type": "object",
  "required": ["parts"],
  "properties": {
    "parts": {"type": "array", "items": {"$ref": "#/definitions/part"}}
  }
}`
