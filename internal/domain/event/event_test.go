package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestType_IsValid(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		want      bool
	}{
		{name: "created", eventType: TypeInvoiceCreated, want: true},
		{name: "updated", eventType: TypeInvoiceUpdated, want: true},
		{name: "exported", eventType: TypeInvoiceExported, want: true},
		{name: "export failed", eventType: TypeInvoiceExportFailed, want: true},
		{name: "session ended", eventType: TypeSessionEnded, want: true},
		{name: "unknown", eventType: Type("invoice.deleted"), want: false},
		{name: "empty", eventType: Type(""), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.eventType.IsValid())
		})
	}
}

func TestNewEvent(t *testing.T) {
	before := time.Now()
	evt := NewEvent(TypeInvoiceUpdated, "session-1", map[string]interface{}{"section": SectionClient})

	assert.NotEmpty(t, evt.ID)
	assert.Equal(t, TypeInvoiceUpdated, evt.Type)
	assert.Equal(t, "session-1", evt.SessionID)
	assert.Equal(t, SectionClient, evt.GetPayloadString("section"))
	assert.False(t, evt.Timestamp.Before(before))

	other := NewEvent(TypeInvoiceUpdated, "session-1", nil)
	assert.NotEqual(t, evt.ID, other.ID)
	assert.NotNil(t, other.Payload)
}

func TestEvent_WithPayload(t *testing.T) {
	original := NewEvent(TypeInvoiceExported, "s", map[string]interface{}{"format": "pdf"})

	updated := original.WithPayload("size", 42)

	assert.Equal(t, int64(42), updated.GetPayloadInt("size"))
	assert.Equal(t, "pdf", updated.GetPayloadString("format"))
	assert.Equal(t, original.ID, updated.ID)
	_, exists := original.Payload["size"]
	assert.False(t, exists)
}

func TestEvent_PayloadAccessorsOnMissingKeys(t *testing.T) {
	evt := NewEvent(TypeInvoiceCreated, "s", map[string]interface{}{"n": "not a number"})

	assert.Equal(t, "", evt.GetPayloadString("missing"))
	assert.Equal(t, int64(0), evt.GetPayloadInt("n"))
	assert.Equal(t, int64(0), evt.GetPayloadInt("missing"))
}
