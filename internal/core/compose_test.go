package core

import (
	"encoding/base64"
	"io"
	"log/slog"
	"reflect"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func encoded(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func TestComposeWarningRows_FullJoin(t *testing.T) {
	groups := []GroupedAnomaly{{SN: "SN1", Count: 4}}
	devices := []DeviceRecord{{SN: "SN1", IoTKey: "key-1", AccountID: "A1", UID: "u-1"}}
	accounts := []AccountRecord{{AccountID: "A1", Email: encoded("owner@example.com")}}

	rows := ComposeWarningRows(discardLogger(), groups, devices, accounts)

	want := []WarningRow{{SN: "SN1", AccountID: "A1", Email: "owner@example.com", IoTKey: "key-1", UID: "u-1", Count: 4}}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %+v, want %+v", rows, want)
	}
}

func TestComposeWarningRows_DeviceMissSkipsGroup(t *testing.T) {
	groups := []GroupedAnomaly{
		{SN: "SN1", Count: 4},
		{SN: "SN2", Count: 7},
		{SN: "SN3", Count: 5},
	}
	devices := []DeviceRecord{
		{SN: "SN1", AccountID: "A1"},
		{SN: "SN3", AccountID: "A3"},
	}

	rows := ComposeWarningRows(discardLogger(), groups, devices, nil)

	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[0].SN != "SN1" || rows[1].SN != "SN3" {
		t.Errorf("row order = [%s %s], want [SN1 SN3]", rows[0].SN, rows[1].SN)
	}
}

func TestComposeWarningRows_EmptyAccountID(t *testing.T) {
	groups := []GroupedAnomaly{{SN: "SN1", Count: 4}}
	devices := []DeviceRecord{{SN: "SN1", UID: "u-1"}}
	// An account whose id happens to be empty must never be joined.
	accounts := []AccountRecord{{AccountID: "", Email: encoded("stray@example.com")}}

	rows := ComposeWarningRows(discardLogger(), groups, devices, accounts)

	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}
	if rows[0].Email != "" {
		t.Errorf("Email = %q, want empty", rows[0].Email)
	}
}

func TestComposeWarningRows_AccountMissLeavesEmailEmpty(t *testing.T) {
	groups := []GroupedAnomaly{{SN: "SN1", Count: 4}}
	devices := []DeviceRecord{{SN: "SN1", AccountID: "A1"}}

	rows := ComposeWarningRows(discardLogger(), groups, devices, nil)

	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}
	if rows[0].Email != "" {
		t.Errorf("Email = %q, want empty", rows[0].Email)
	}
	if rows[0].AccountID != "A1" {
		t.Errorf("AccountID = %q, want A1", rows[0].AccountID)
	}
}

func TestComposeWarningRows_UndecodableEmail(t *testing.T) {
	groups := []GroupedAnomaly{{SN: "SN1", Count: 4}}
	devices := []DeviceRecord{{SN: "SN1", AccountID: "A1"}}
	accounts := []AccountRecord{{AccountID: "A1", Email: "%%%not-base64%%%"}}

	rows := ComposeWarningRows(discardLogger(), groups, devices, accounts)

	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}
	if rows[0].Email != "" {
		t.Errorf("Email = %q, want empty", rows[0].Email)
	}
}

func TestComposeWarningRows_OrderPreserved(t *testing.T) {
	var groups []GroupedAnomaly
	var devices []DeviceRecord
	for _, sn := range []string{"SN01", "SN02", "SN03", "SN04", "SN05"} {
		groups = append(groups, GroupedAnomaly{SN: sn, Count: 4})
		devices = append(devices, DeviceRecord{SN: sn})
	}

	rows := ComposeWarningRows(discardLogger(), groups, devices, nil)

	if len(rows) != len(groups) {
		t.Fatalf("len(rows) = %d, want %d", len(rows), len(groups))
	}
	for i, g := range groups {
		if rows[i].SN != g.SN {
			t.Errorf("rows[%d].SN = %q, want %q", i, rows[i].SN, g.SN)
		}
	}
}

func TestComposeWarningRows_Idempotent(t *testing.T) {
	groups := []GroupedAnomaly{{SN: "SN1", Count: 4}, {SN: "SN2", Count: 9}}
	devices := []DeviceRecord{{SN: "SN1", AccountID: "A1"}, {SN: "SN2"}}
	accounts := []AccountRecord{{AccountID: "A1", Email: encoded("owner@example.com")}}

	first := ComposeWarningRows(discardLogger(), groups, devices, accounts)
	second := ComposeWarningRows(discardLogger(), groups, devices, accounts)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("compose is not deterministic: %+v vs %+v", first, second)
	}
}

func TestDecodeEmail(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{encoded("owner@example.com"), "owner@example.com", false},
		{"", "", false},
		{"!!!", "", true},
	}
	for _, tt := range tests {
		got, err := DecodeEmail(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("DecodeEmail(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("DecodeEmail(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
