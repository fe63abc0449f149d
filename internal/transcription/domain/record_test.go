package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecord_Status(t *testing.T) {
	processing := StatusProcessing

	tests := []struct {
		name   string
		status *string
		want   string
	}{
		{name: "null status counts as pending", status: nil, want: StatusPending},
		{name: "explicit status", status: &processing, want: StatusProcessing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &Record{ID: "r1", ProcessingStatus: tt.status}
			assert.Equal(t, tt.want, rec.Status())
		})
	}
}

func TestRecord_IsVideo(t *testing.T) {
	tests := []struct {
		name string
		data RecordData
		want bool
	}{
		{name: "video record", data: RecordData{DataKeyType: "video"}, want: true},
		{name: "text record", data: RecordData{DataKeyType: "text"}, want: false},
		{name: "missing type", data: RecordData{}, want: false},
		{name: "non-string type", data: RecordData{DataKeyType: 7}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &Record{ID: "r1", Data: tt.data}
			assert.Equal(t, tt.want, rec.IsVideo())
		})
	}
}

func TestRecord_PayloadAccessors(t *testing.T) {
	rec := &Record{
		ID: "r1",
		Data: RecordData{
			DataKeyVideoURL:    "http://x/v.webm",
			DataKeyVideoBase64: "aGVsbG8=",
		},
	}

	assert.Equal(t, "http://x/v.webm", rec.VideoURL())
	assert.Equal(t, "aGVsbG8=", rec.VideoBase64())

	empty := &Record{ID: "r2", Data: RecordData{}}
	assert.Empty(t, empty.VideoURL())
	assert.Empty(t, empty.VideoBase64())
}
