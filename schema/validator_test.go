package payloadschema

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestValidateBatchPayload_Valid(t *testing.T) {
	payload := json.RawMessage(`{
		"payload_version":"v1",
		"source":"terminal-west",
		"events":[
			{
				"title":"Faye Webster",
				"start_date":"2026-09-12",
				"start_time":"20:00",
				"price_min":35,
				"price_max":45,
				"ticket_url":"https://tickets.example.com/faye-webster",
				"venue":{
					"name":"Terminal West",
					"city":"Atlanta",
					"state":"GA",
					"website":"https://terminalwestatl.com"
				},
				"tags":["indie","live-music"]
			},
			{
				"title":"Trivia Night",
				"start_date":"2026-09-15",
				"venue_name":"Terminal West",
				"series":{
					"title":"Trivia Night",
					"series_type":"recurring",
					"frequency":"weekly"
				}
			}
		]
	}`)

	batch, err := ValidateBatchPayload(payload)
	if err != nil {
		t.Fatalf("expected payload to be valid, got error: %v", err)
	}

	if batch.Source != "terminal-west" {
		t.Fatalf("expected source=terminal-west, got %q", batch.Source)
	}
	if len(batch.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(batch.Events))
	}
	if batch.Events[0].Venue == nil || batch.Events[0].Venue.Name != "Terminal West" {
		t.Fatalf("expected inline venue to survive decoding, got %+v", batch.Events[0].Venue)
	}
}

func TestValidateBatchPayload_MissingSource(t *testing.T) {
	payload := json.RawMessage(`{
		"payload_version":"v1",
		"events":[]
	}`)

	_, err := ValidateBatchPayload(payload)
	if err == nil {
		t.Fatalf("expected validation to fail for missing source")
	}
}

func TestValidateBatchPayload_WrongVersion(t *testing.T) {
	payload := json.RawMessage(`{
		"payload_version":"v2",
		"source":"terminal-west",
		"events":[]
	}`)

	_, err := ValidateBatchPayload(payload)
	if err == nil {
		t.Fatalf("expected validation to fail for unknown payload version")
	}
}

func TestValidateBatchPayload_EventMissingDateStillDecodes(t *testing.T) {
	// Identity gaps are a per-event skip downstream, not a batch
	// rejection, so the schema only requires the field to exist.
	payload := json.RawMessage(`{
		"payload_version":"v1",
		"source":"beltline-art",
		"events":[
			{"title":"Lantern Parade","start_date":""}
		]
	}`)

	batch, err := ValidateBatchPayload(payload)
	if err != nil {
		t.Fatalf("expected empty start_date to pass batch validation, got: %v", err)
	}
	if reason, ok := batch.Events[0].Validate(); ok || reason != "missing start date" {
		t.Fatalf("expected reconciler-side skip for empty date, got ok=%v reason=%q", ok, reason)
	}
}

func TestValidateBatchPayload_BadTicketURL(t *testing.T) {
	payload := json.RawMessage(`{
		"payload_version":"v1",
		"source":"terminal-west",
		"events":[
			{"title":"Show","start_date":"2026-09-12","ticket_url":"not a url"}
		]
	}`)

	_, err := ValidateBatchPayload(payload)
	if err == nil {
		t.Fatalf("expected validation to fail for malformed ticket_url")
	}
	if !strings.Contains(err.Error(), "ticket_url") {
		t.Fatalf("expected ticket_url in error, got: %v", err)
	}
}

func TestValidateBatchPayload_PriceRangeInverted(t *testing.T) {
	payload := json.RawMessage(`{
		"payload_version":"v1",
		"source":"terminal-west",
		"events":[
			{"title":"Show","start_date":"2026-09-12","price_min":50,"price_max":20}
		]
	}`)

	_, err := ValidateBatchPayload(payload)
	if err == nil {
		t.Fatalf("expected validation to fail for inverted price range")
	}
}

func TestValidateBatchPayload_TrailingContent(t *testing.T) {
	payload := json.RawMessage(`{"payload_version":"v1","source":"x","events":[]} trailing`)

	_, err := ValidateBatchPayload(payload)
	if err == nil {
		t.Fatalf("expected validation to fail for trailing content")
	}
}

func TestValidateBatchPayload_UnknownField(t *testing.T) {
	payload := json.RawMessage(`{
		"payload_version":"v1",
		"source":"terminal-west",
		"events":[],
		"operator":"night-shift"
	}`)

	_, err := ValidateBatchPayload(payload)
	if err == nil {
		t.Fatalf("expected validation to fail for unknown top-level field")
	}
}
