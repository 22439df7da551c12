package audit

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/oakfield-labs/doorgate/internal/access"
	"github.com/oakfield-labs/doorgate/internal/infrastructure/config"
)

const (
	influxConnectTimeout = 10 * time.Second

	// millisecondsPerSecond converts seconds to milliseconds for the
	// InfluxDB API.
	millisecondsPerSecond = 1000

	defaultBatchSize     = 100
	defaultFlushInterval = 10 // seconds
)

// InfluxRecorder writes one point per access attempt to InfluxDB for
// dashboards (attempt rates, denial spikes per door). Writes are
// non-blocking and batched; a dead InfluxDB degrades to dropped
// metrics, never to a blocked access attempt.
type InfluxRecorder struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	onError  func(err error)
}

// NewInfluxRecorder connects to InfluxDB and verifies it with a ping.
// onError receives async write failures (may be nil).
func NewInfluxRecorder(cfg config.InfluxDBConfig, onError func(err error)) (*InfluxRecorder, error) {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	flushInterval := cfg.FlushInterval
	if flushInterval <= 0 {
		flushInterval = defaultFlushInterval
	}

	// #nosec G115 -- values validated above to be positive
	client := influxdb2.NewClientWithOptions(
		cfg.URL,
		cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(uint(batchSize)).
			SetFlushInterval(uint(flushInterval)*millisecondsPerSecond),
	)

	ctx, cancel := context.WithTimeout(context.Background(), influxConnectTimeout)
	defer cancel()

	healthy, err := client.Ping(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("influxdb ping failed: %w", err)
	}
	if !healthy {
		client.Close()
		return nil, fmt.Errorf("influxdb server not healthy")
	}

	writeAPI := client.WriteAPI(cfg.Org, cfg.Bucket)

	r := &InfluxRecorder{
		client:   client,
		writeAPI: writeAPI,
		onError:  onError,
	}

	go r.handleWriteErrors(writeAPI.Errors())

	return r, nil
}

// Record implements access.Recorder. The write is queued and batched;
// it never blocks the access attempt.
func (r *InfluxRecorder) Record(_ context.Context, event access.Event) error {
	point := write.NewPoint(
		"access_attempt",
		map[string]string{
			"decision": event.Decision,
		},
		map[string]interface{}{
			"subject_external_id": event.SubjectExternalID,
			"actuator_ok":         event.ActuatorOK,
		},
		event.CreatedAt,
	)

	r.writeAPI.WritePoint(point)
	return nil
}

// handleWriteErrors forwards async write errors to the callback.
func (r *InfluxRecorder) handleWriteErrors(errorsCh <-chan error) {
	for err := range errorsCh {
		if r.onError != nil {
			r.onError(err)
		}
	}
}

// Close flushes pending writes and shuts the client down.
func (r *InfluxRecorder) Close() {
	if r.client == nil {
		return
	}
	r.writeAPI.Flush()
	r.client.Close()
}
