package validation

import (
	"testing"

	"github.com/iha-referee/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeLock(t *testing.T) {
	r, err := DecodeLock([]byte(`{
		"kilitlenmeBitisZamani": {"saat": 11, "dakika": 40, "saniye": 51, "milisaniye": 478},
		"otonom_kilitlenme": 0
	}`))
	require.NoError(t, err)
	assert.Equal(t, models.ClockTime{Hour: 11, Minute: 40, Second: 51, Millisecond: 478}, r.EndTime)
	assert.False(t, r.Autonomous)

	tests := []struct {
		name string
		body string
	}{
		{"missing end time", `{"otonom_kilitlenme": 1}`},
		{"missing flag", `{"kilitlenmeBitisZamani": {"saat": 1, "dakika": 1, "saniye": 1, "milisaniye": 1}}`},
		{"flag as string", `{"kilitlenmeBitisZamani": {"saat": 1, "dakika": 1, "saniye": 1, "milisaniye": 1}, "otonom_kilitlenme": "yes"}`},
		{"empty object", `{}`},
		{"garbage", `}{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeLock([]byte(tt.body))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestDecodeDive(t *testing.T) {
	r, err := DecodeDive([]byte(`{
		"kamikazeBaslangicZamani": {"saat": 11, "dakika": 44, "saniye": 13, "milisaniye": 361},
		"kamikazeBitisZamani": {"saat": 11, "dakika": 44, "saniye": 27, "milisaniye": 874},
		"qrMetni": "teknofest2025"
	}`))
	require.NoError(t, err)
	assert.Equal(t, "teknofest2025", r.MarkerText)
	assert.Equal(t, 44, r.StartTime.Minute)
	assert.Equal(t, 874, r.EndTime.Millisecond)

	// An empty marker is still a well-formed report.
	r, err = DecodeDive([]byte(`{
		"kamikazeBaslangicZamani": {"saat": 0, "dakika": 0, "saniye": 0, "milisaniye": 0},
		"kamikazeBitisZamani": {"saat": 0, "dakika": 0, "saniye": 1, "milisaniye": 0},
		"qrMetni": ""
	}`))
	require.NoError(t, err)
	assert.Equal(t, "", r.MarkerText)

	_, err = DecodeDive([]byte(`{"kamikazeBaslangicZamani": {"saat": 0, "dakika": 0, "saniye": 0, "milisaniye": 0}}`))
	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"kamikazeBitisZamani", "qrMetni"}, verr.Fields)
}
