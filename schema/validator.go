// Package payloadschema validates scraper batch files before any row
// touches the catalog. Structure is checked against an embedded JSON
// Schema; a few semantic rules the schema language cannot express run
// after decoding.
package payloadschema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"gigcity.app/catalog/internal/reconcile"
)

//go:embed candidate_batch.schema.json
var candidateBatchSchemaJSON string

// CandidateBatch is one scraper run's output: a source slug and the
// events it extracted.
type CandidateBatch struct {
	PayloadVersion string                     `json:"payload_version"`
	Source         string                     `json:"source"`
	Events         []reconcile.CandidateEvent `json:"events"`
}

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

// ValidateBatchPayload checks a raw batch file and decodes it. A
// structural or semantic failure rejects the whole file; per-event
// identity problems (missing title or date) are left for the reconciler
// to count as skips.
func ValidateBatchPayload(payload json.RawMessage) (*CandidateBatch, error) {
	value, err := decodeStrictJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("decode payload JSON: %w", err)
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("normalize payload JSON: %w", err)
	}

	var batch CandidateBatch
	if err := json.Unmarshal(normalized, &batch); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}

	if err := validateSemantics(&batch); err != nil {
		return nil, err
	}

	return &batch, nil
}

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true

		if err := compiler.AddResource("candidate_batch.schema.json", strings.NewReader(candidateBatchSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}

		schema, err := compiler.Compile("candidate_batch.schema.json")
		if err != nil {
			compiledSchemaErr = fmt.Errorf("compile schema: %w", err)
			return
		}

		compiledSchema = schema
	})

	if compiledSchemaErr != nil {
		return nil, compiledSchemaErr
	}
	if compiledSchema == nil {
		return nil, fmt.Errorf("schema not initialized")
	}
	return compiledSchema, nil
}

func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("payload is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("payload contains trailing content")
	}

	return value, nil
}

func validateSemantics(batch *CandidateBatch) error {
	if batch == nil {
		return fmt.Errorf("payload is nil")
	}

	if strings.TrimSpace(batch.PayloadVersion) != "v1" {
		return fmt.Errorf("payload_version must be v1")
	}
	if strings.TrimSpace(batch.Source) == "" {
		return fmt.Errorf("source must not be empty")
	}

	for i := range batch.Events {
		if err := validateEventSemantics(i, &batch.Events[i]); err != nil {
			return err
		}
	}

	return nil
}

func validateEventSemantics(i int, ev *reconcile.CandidateEvent) error {
	if ev.SourceURL != nil {
		if err := validateURI(fmt.Sprintf("events[%d].source_url", i), *ev.SourceURL); err != nil {
			return err
		}
	}
	if ev.TicketURL != nil {
		if err := validateURI(fmt.Sprintf("events[%d].ticket_url", i), *ev.TicketURL); err != nil {
			return err
		}
	}
	if ev.ImageURL != nil {
		if err := validateURI(fmt.Sprintf("events[%d].image_url", i), *ev.ImageURL); err != nil {
			return err
		}
	}
	if ev.Venue != nil && ev.Venue.Website != nil {
		if err := validateURI(fmt.Sprintf("events[%d].venue.website", i), *ev.Venue.Website); err != nil {
			return err
		}
	}

	if ev.PriceMin != nil && ev.PriceMax != nil && *ev.PriceMin > *ev.PriceMax {
		return fmt.Errorf("events[%d]: price_min exceeds price_max", i)
	}

	for j, tag := range ev.Tags {
		if strings.TrimSpace(tag) == "" {
			return fmt.Errorf("events[%d].tags[%d] must not be empty", i, j)
		}
	}

	return nil
}

func validateURI(fieldName, value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fmt.Errorf("%s must not be empty", fieldName)
	}
	if _, err := url.ParseRequestURI(trimmed); err != nil {
		return fmt.Errorf("%s is not a valid URI: %w", fieldName, err)
	}
	return nil
}
