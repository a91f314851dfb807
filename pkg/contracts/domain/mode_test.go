package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModeOf(t *testing.T) {
	tests := []struct {
		label  string
		want   Mode
		wantOK bool
	}{
		{label: "APOFF", want: ModeAPOFF, wantOK: true},
		{label: "apoff", want: ModeAPOFF, wantOK: true},
		{label: "APOFF-2", want: ModeAPOFF, wantOK: true},
		{label: "ZPPCAL", want: ModeZPPCAL, wantOK: true},
		{label: "SPON_1", want: ModeSPON, wantOK: true},
		{label: "PURGE", wantOK: false},
		{label: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, ok := ModeOf(tt.label)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
