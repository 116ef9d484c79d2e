package batch

// ExampleManifest returns an example batch manifest showing all fields.
func ExampleManifest() string {
	return `{
  "version": 1,
  "defaults": {
    "command": "concordium-client",
    "output": "submissions.log"
  },
  "tasks": [
    {
      "id": "register-1",
      "args": ["contract", "update", "--parameter-binary", "register_msg1.bin"],
      "stdin": ["y"]
    },
    {
      "id": "register-2",
      "args": ["contract", "update", "--parameter-binary", "register_msg2.bin"],
      "stdin": ["y"]
    }
  ]
}
`
}

// ManifestSchema returns the JSON Schema used to validate manifests.
func ManifestSchema() string {
	return `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "fanout batch manifest",
  "type": "object",
  "required": ["version", "tasks"],
  "properties": {
    "version": {"type": "integer", "minimum": 1},
    "defaults": {
      "type": "object",
      "properties": {
        "command": {"type": "string"},
        "output": {"type": "string"},
        "dir": {"type": "string"}
      },
      "additionalProperties": false
    },
    "tasks": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "properties": {
          "id": {"type": "string"},
          "command": {"type": "string"},
          "args": {"type": "array", "items": {"type": "string"}},
          "stdin": {"type": "array", "items": {"type": "string"}},
          "output": {"type": "string"},
          "dir": {"type": "string"}
        },
        "additionalProperties": false
      }
    }
  },
  "additionalProperties": false
}
`
}
