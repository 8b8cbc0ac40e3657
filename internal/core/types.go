package core

import "time"

// AbnormalOTAStatus is the status code a device reports while stuck in an
// over-the-air update.
const AbnormalOTAStatus = 2

// Defaults for the aggregation stage. Operational parameters, overridable
// via configuration but never per call.
const (
	DefaultScanWindow     = 2 * time.Hour
	DefaultCountThreshold = 3
)

// GroupedAnomaly is one device that reported the abnormal status more than
// the threshold number of times inside the scan window. Serial numbers are
// unique within a run; the aggregation stage sorts them ascending and that
// order is canonical for the rest of the pipeline.
type GroupedAnomaly struct {
	SN    string `bson:"_id"`
	Count int    `bson:"count"`
}

// DeviceRecord is the stored record for one physical device.
type DeviceRecord struct {
	SN        string `bson:"sn"`
	IoTKey    string `bson:"iotKey"`
	AccountID string `bson:"accountId"`
	UID       string `bson:"uid"`
}

// AccountRecord is the owning account of a device. Email is stored
// base64-encoded and must be decoded before use.
type AccountRecord struct {
	AccountID string `bson:"accountId"`
	Email     string `bson:"email"`
}

// WarningRow is one line of the outgoing report.
type WarningRow struct {
	SN        string
	AccountID string
	Email     string
	IoTKey    string
	UID       string
	Count     int
}
