package core

import (
	"encoding/base64"
	"log/slog"
)

// DecodeEmail decodes the base64 form accounts store their email in.
func DecodeEmail(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// ComposeWarningRows joins grouped anomalies with their device and account
// records, in the canonical group order. A group whose device record is
// missing is logged and skipped. Every other group yields exactly one row:
// an empty account id skips the account lookup, a missing account or an
// undecodable stored email leaves the row's email empty. The join never
// fails the report.
func ComposeWarningRows(log *slog.Logger, groups []GroupedAnomaly, devices []DeviceRecord, accounts []AccountRecord) []WarningRow {
	deviceBySN := make(map[string]DeviceRecord, len(devices))
	for _, d := range devices {
		deviceBySN[d.SN] = d
	}
	accountByID := make(map[string]AccountRecord, len(accounts))
	for _, a := range accounts {
		accountByID[a.AccountID] = a
	}

	rows := make([]WarningRow, 0, len(groups))
	for _, g := range groups {
		device, ok := deviceBySN[g.SN]
		if !ok {
			log.Warn("device record not found, skipping group", "sn", g.SN)
			continue
		}
		row := WarningRow{
			SN:        device.SN,
			AccountID: device.AccountID,
			IoTKey:    device.IoTKey,
			UID:       device.UID,
			Count:     g.Count,
		}
		if device.AccountID == "" {
			rows = append(rows, row)
			continue
		}
		if account, ok := accountByID[device.AccountID]; ok {
			email, err := DecodeEmail(account.Email)
			if err != nil {
				log.Warn("stored email not decodable", "sn", g.SN, "accountId", device.AccountID, "error", err)
			} else {
				row.Email = email
			}
		}
		rows = append(rows, row)
	}
	return rows
}
