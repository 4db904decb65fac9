package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const subtaskSchema = `{
	"type": "object",
	"properties": {
		"id": {"type": "string"},
		"title": {"type": "string"},
		"completed": {"type": "boolean"},
		"subtasks": {"type": "array", "items": {"$ref": "#/$defs/subtask"}}
	},
	"required": ["title"]
}`

const historySchema = `{
	"type": "object",
	"properties": {
		"from": {"type": "string"},
		"to": {"type": "string"},
		"time": {"type": "string"},
		"tz": {"type": "string"}
	},
	"required": ["from", "to"]
}`

var (
	boardSchema = jsonschema.MustCompileString("board.json", `{
		"type": "object",
		"properties": {
			"name": {"type": "string", "pattern": "\\S"}
		},
		"required": ["name"]
	}`)

	createTaskSchema = jsonschema.MustCompileString("task-create.json", `{
		"$defs": {"subtask": `+subtaskSchema+`, "transition": `+historySchema+`},
		"type": "object",
		"properties": {
			"title": {"type": "string", "pattern": "\\S"},
			"description": {"type": "string"},
			"date": {"type": ["string", "null"]},
			"status": {"type": "string"},
			"board": {"type": "string", "minLength": 1},
			"completed": {"type": "boolean"},
			"pinned": {"type": "boolean"},
			"subtasks": {"type": "array", "items": {"$ref": "#/$defs/subtask"}},
			"history": {"type": "array", "items": {"$ref": "#/$defs/transition"}}
		},
		"required": ["title", "board"]
	}`)

	updateTaskSchema = jsonschema.MustCompileString("task-update.json", `{
		"$defs": {"subtask": `+subtaskSchema+`, "transition": `+historySchema+`},
		"type": "object",
		"properties": {
			"title": {"type": "string", "pattern": "\\S"},
			"description": {"type": "string"},
			"date": {"type": ["string", "null"]},
			"status": {"type": "string", "minLength": 1},
			"board": {"type": "string"},
			"completed": {"type": "boolean"},
			"pinned": {"type": "boolean"},
			"subtasks": {"type": "array", "items": {"$ref": "#/$defs/subtask"}},
			"history": {"type": "array", "items": {"$ref": "#/$defs/transition"}}
		}
	}`)
)

// decodeValid validates body against sch and decodes it into out.
func decodeValid(sch *jsonschema.Schema, body []byte, out any) error {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return schemaError(err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// schemaError reduces a validation error to its first leaf cause.
func schemaError(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	field := strings.TrimPrefix(ve.InstanceLocation, "/")
	if field == "" {
		return errors.New(ve.Message)
	}
	return fmt.Errorf("%s: %s", strings.ReplaceAll(field, "/", "."), ve.Message)
}
