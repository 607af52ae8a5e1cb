package testutil

import (
	"encoding/json"
	"testing"

	"github.com/iha-referee/backend/internal/models"
)

// Roster returns three registered teams.
func Roster() []models.RosterEntry {
	return []models.RosterEntry{
		{Login: "rota_takim", Credential: "parola123", TeamID: 1},
		{Login: "takim2", Credential: "sifre2", TeamID: 2},
		{Login: "takim3", Credential: "sifre3", TeamID: 3},
	}
}

// Telemetry returns a valid telemetry payload for team as a mutable map.
func Telemetry(team int) map[string]interface{} {
	return map[string]interface{}{
		"takim_numarasi":  team,
		"iha_enlem":       41.508775,
		"iha_boylam":      36.118335,
		"iha_irtifa":      38,
		"iha_dikilme":     7,
		"iha_yonelme":     210,
		"iha_yatis":       -30,
		"iha_hiz":         28,
		"iha_batarya":     50,
		"iha_otonom":      1,
		"iha_kilitlenme":  0,
		"hedef_merkez_X":  0,
		"hedef_merkez_Y":  0,
		"hedef_genislik":  0,
		"hedef_yukseklik": 0,
		"gps_saati": map[string]int{
			"saat": 11, "dakika": 38, "saniye": 37, "milisaniye": 654,
		},
	}
}

// JSON marshals v or fails the test.
func JSON(t testing.TB, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	return data
}

// Login returns a login body for entry.
func Login(t testing.TB, entry models.RosterEntry) []byte {
	return JSON(t, map[string]string{"kadi": entry.Login, "sifre": entry.Credential})
}

// LockBody returns a valid lock report.
func LockBody() []byte {
	return []byte(`{"kilitlenmeBitisZamani": {"saat": 11, "dakika": 40, "saniye": 51, "milisaniye": 478}, "otonom_kilitlenme": 1}`)
}

// DiveBody returns a valid dive report.
func DiveBody() []byte {
	return []byte(`{"kamikazeBaslangicZamani": {"saat": 11, "dakika": 44, "saniye": 13, "milisaniye": 361},
		"kamikazeBitisZamani": {"saat": 11, "dakika": 44, "saniye": 27, "milisaniye": 874},
		"qrMetni": "teknofest2025"}`)
}
