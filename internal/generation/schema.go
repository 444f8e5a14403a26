package generation

import (
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	// A titled reply. Card items only need to be objects; missing fields
	// are not filtered here.
	titledReplySchema = `{
  "type": "object",
  "required": ["title", "cards"],
  "properties": {
    "title": {"type": "string"},
    "cards": {"type": "array", "items": {"type": "object"}}
  }
}`

	// A bare array of question/answer objects.
	cardArraySchema = `{
  "type": "array",
  "items": {"type": "object", "required": ["question", "answer"]}
}`

	// Any non-empty array of objects.
	objectArraySchema = `{
  "type": "array",
  "minItems": 1,
  "items": {"type": "object"}
}`
)

var (
	titledReply = jsonschema.MustCompileString("titled-reply.json", titledReplySchema)
	cardArray   = jsonschema.MustCompileString("card-array.json", cardArraySchema)
	objectArray = jsonschema.MustCompileString("object-array.json", objectArraySchema)
)
