package foxglove

const frameTransformsSchema = `{
  "type": "object",
  "properties": {
    "transforms": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "timestamp": { "type": "object", "properties": { "sec": { "type": "integer" }, "nsec": { "type": "integer" } } },
          "parent_frame_id": { "type": "string" },
          "child_frame_id": { "type": "string" },
          "translation": { "type": "object", "properties": { "x": { "type": "number" }, "y": { "type": "number" }, "z": { "type": "number" } } },
          "rotation": { "type": "object", "properties": { "x": { "type": "number" }, "y": { "type": "number" }, "z": { "type": "number" }, "w": { "type": "number" } } }
        }
      }
    }
  }
}`

const markerSchema = `{
  "type": "object",
  "properties": {
    "header": { "type": "object" },
    "ns": { "type": "string" },
    "id": { "type": "integer" },
    "type": { "type": "integer" },
    "action": { "type": "integer" },
    "pose": { "type": "object" },
    "scale": { "type": "object" },
    "color": { "type": "object" }
  }
}`

const logSchema = `{
  "type": "object",
  "properties": {
    "timestamp": { "type": "object", "properties": { "sec": { "type": "integer" }, "nsec": { "type": "integer" } } },
    "level": { "type": "integer" },
    "message": { "type": "string" },
    "name": { "type": "string" },
    "file": { "type": "string" },
    "line": { "type": "integer" }
  }
}`
