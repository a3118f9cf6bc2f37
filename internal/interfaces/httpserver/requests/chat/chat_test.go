package chatrequests

import (
	"testing"

	"github.com/brendonwanderlust/wander-wallet-chat/internal/domain/chat"
)

func TestContextNilWhenEmpty(t *testing.T) {
	request := &ChatRequest{UserID: "u1", Message: "hello"}

	if rc := request.Context(); rc != nil {
		t.Fatalf("expected nil context for a bare request, got %+v", rc)
	}
}

func TestContextMetric(t *testing.T) {
	request := &ChatRequest{
		Message:           "hello",
		MeasurementSystem: "Metric",
		Latitude:          48.8566,
		Longitude:         2.3522,
		Activities:        []string{"hiking"},
	}

	rc := request.Context()
	if rc == nil {
		t.Fatalf("expected a context")
	}
	if rc.MeasurementSystem != chat.MeasurementMetric {
		t.Errorf("measurement system = %q", rc.MeasurementSystem)
	}
	if rc.Latitude != 48.8566 || rc.Longitude != 2.3522 {
		t.Errorf("coordinates = (%v, %v)", rc.Latitude, rc.Longitude)
	}
}

func TestContextUnknownSystemDefaultsImperial(t *testing.T) {
	request := &ChatRequest{Message: "hello", MeasurementSystem: "kelvin"}

	rc := request.Context()
	if rc == nil {
		t.Fatalf("expected a context")
	}
	if rc.MeasurementSystem != chat.MeasurementImperial {
		t.Errorf("measurement system = %q, want imperial", rc.MeasurementSystem)
	}
}

func TestContextActivitiesOnly(t *testing.T) {
	request := &ChatRequest{Message: "hello", Activities: []string{"surfing"}}

	rc := request.Context()
	if rc == nil {
		t.Fatalf("activities alone should produce a context")
	}
	if len(rc.Activities) != 1 || rc.Activities[0] != "surfing" {
		t.Errorf("activities = %v", rc.Activities)
	}
}
