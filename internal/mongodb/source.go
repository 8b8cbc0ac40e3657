// Package mongodb implements the data source the scan reads from. The job
// only ever reads; nothing here writes to the store.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/xxxhand/scan-ota-status/internal/core"
)

// Collection names read by the scan.
const (
	colDeviceStatus = "DeviceStatusInfos"
	colDevices      = "Devices"
	colAccounts     = "Accounts"
)

// Options configure the underlying client pool.
type Options struct {
	URI            string
	Database       string
	User           string
	Password       string
	MinPoolSize    uint64
	MaxPoolSize    uint64
	ConnectTimeout time.Duration
}

// Source reads the device status, device and account collections. A Source
// is connected at the start of a run and closed when the run ends; the run
// owns it exclusively while in flight.
type Source struct {
	opts   Options
	client *mongo.Client
}

// New builds an unconnected Source.
func New(opts Options) *Source {
	return &Source{opts: opts}
}

// Connect establishes the client pool. Pair with Close.
func (s *Source) Connect(ctx context.Context) error {
	clientOpts := options.Client().
		ApplyURI(s.opts.URI).
		SetMinPoolSize(s.opts.MinPoolSize).
		SetMaxPoolSize(s.opts.MaxPoolSize).
		SetConnectTimeout(s.opts.ConnectTimeout)
	if s.opts.User != "" {
		clientOpts.SetAuth(options.Credential{
			Username: s.opts.User,
			Password: s.opts.Password,
		})
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return core.NewConnectionError("connect mongodb", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return core.NewConnectionError("ping mongodb", err)
	}
	s.client = client
	return nil
}

// AbnormalGroups runs the fixed aggregation: status records carrying the
// abnormal OTA code with updatedAt inside the trailing window, grouped by
// serial number, kept when the count exceeds minCount, sorted ascending by
// serial number. An empty result is a normal terminal state for the run.
func (s *Source) AbnormalGroups(ctx context.Context, since time.Time, minCount int) ([]core.GroupedAnomaly, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "otaStatus", Value: core.AbnormalOTAStatus},
			{Key: "updatedAt", Value: bson.D{{Key: "$gte", Value: since}}},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$sn"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$match", Value: bson.D{
			{Key: "count", Value: bson.D{{Key: "$gt", Value: minCount}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}

	cur, err := s.collection(colDeviceStatus).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, core.NewQueryError("aggregate device status", err)
	}
	var groups []core.GroupedAnomaly
	if err := cur.All(ctx, &groups); err != nil {
		return nil, core.NewQueryError("decode grouped anomalies", err)
	}
	return groups, nil
}

// DevicesBySerial looks up device records for the given serial numbers.
func (s *Source) DevicesBySerial(ctx context.Context, sns []string) ([]core.DeviceRecord, error) {
	cur, err := s.collection(colDevices).Find(ctx, bson.M{"sn": bson.M{"$in": sns}})
	if err != nil {
		return nil, core.NewQueryError("find devices", err)
	}
	var devices []core.DeviceRecord
	if err := cur.All(ctx, &devices); err != nil {
		return nil, core.NewQueryError("decode devices", err)
	}
	return devices, nil
}

// AccountsByID looks up account records for the given account ids.
func (s *Source) AccountsByID(ctx context.Context, ids []string) ([]core.AccountRecord, error) {
	cur, err := s.collection(colAccounts).Find(ctx, bson.M{"accountId": bson.M{"$in": ids}})
	if err != nil {
		return nil, core.NewQueryError("find accounts", err)
	}
	var accounts []core.AccountRecord
	if err := cur.All(ctx, &accounts); err != nil {
		return nil, core.NewQueryError("decode accounts", err)
	}
	return accounts, nil
}

// Close releases the client pool. Safe to call on an unconnected Source.
func (s *Source) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	err := s.client.Disconnect(ctx)
	s.client = nil
	if err != nil {
		return fmt.Errorf("disconnect mongodb: %w", err)
	}
	return nil
}

func (s *Source) collection(name string) *mongo.Collection {
	return s.client.Database(s.opts.Database).Collection(name)
}
