package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Cents
		wantErr bool
	}{
		{name: "dot separator", input: "12.34", want: 1234},
		{name: "comma separator", input: "12,34", want: 1234},
		{name: "no fraction", input: "5000", want: 500000},
		{name: "single fraction digit", input: "12.3", want: 1230},
		{name: "third decimal rounds down", input: "12.344", want: 1234},
		{name: "third decimal rounds up", input: "12.346", want: 1235},
		{name: "leading dot", input: ".50", want: 50},
		{name: "empty", input: "", wantErr: true},
		{name: "negative", input: "-12.34", wantErr: true},
		{name: "explicit plus", input: "+12.34", wantErr: true},
		{name: "zero", input: "0", wantErr: true},
		{name: "garbage", input: "12.3a", wantErr: true},
		{name: "two dots", input: "1.2.3", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecimal(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCents_PercentFloor(t *testing.T) {
	assert.Equal(t, Cents(26000), Cents(130000).PercentFloor(20))
	assert.Equal(t, Cents(19500), Cents(130000).PercentFloor(15))
	// 333.33 * 33% = 110.00 floored from 110.0089
	assert.Equal(t, Cents(10999), Cents(33333).PercentFloor(33))
}

func TestCents_String(t *testing.T) {
	assert.Equal(t, "1234.56", Cents(123456).String())
	assert.Equal(t, "-12.30", Cents(-1230).String())
	assert.Equal(t, "0.05", Cents(5).String())
}

func TestRatioPercent(t *testing.T) {
	assert.Equal(t, 36, RatioPercent(180000, 500000))
	assert.Equal(t, 0, RatioPercent(180000, 0))
	assert.Equal(t, -36, RatioPercent(-180000, 500000))
	// 1/3 rounds to 33, 2/3 rounds to 67
	assert.Equal(t, 33, RatioPercent(100, 300))
	assert.Equal(t, 67, RatioPercent(200, 300))
}
