package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "whole", input: "12", want: 1200},
		{name: "two decimals", input: "12.34", want: 1234},
		{name: "one decimal", input: "12.3", want: 1230},
		{name: "negative", input: "-7.50", want: -750},
		{name: "leading dot", input: ".99", want: 99},
		{name: "zero", input: "0", want: 0},
		{name: "whitespace", input: "  5.00 ", want: 500},
		{name: "too many decimals", input: "1.234", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "garbage", input: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "12.34", Format(1234))
	assert.Equal(t, "-7.50", Format(-750))
	assert.Equal(t, "0.05", Format(5))
	assert.Equal(t, "0.00", Format(0))
}
