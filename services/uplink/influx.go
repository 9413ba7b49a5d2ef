//go:build !rp2040

package uplink

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"telemetry-node/types"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	ihttp "github.com/influxdata/influxdb-client-go/v2/api/http"
)

// Influx writes the reading as one point to an InfluxDB v2 bucket.
type Influx struct {
	Measurement string
	Tags        map[string]string
	Logger      *slog.Logger

	write api.WriteAPIBlocking
}

// InfluxConfig locates the bucket.
type InfluxConfig struct {
	URL, Token, Org, Bucket string
	Measurement             string
	Tags                    map[string]string
}

// NewInflux connects lazily; nothing is sent until Post.
func NewInflux(c InfluxConfig, logger *slog.Logger) *Influx {
	if logger == nil {
		logger = slog.Default()
	}
	if c.Measurement == "" {
		c.Measurement = "environment"
	}
	client := influxdb2.NewClient(c.URL, c.Token)
	return &Influx{
		Measurement: c.Measurement,
		Tags:        c.Tags,
		Logger:      logger,
		write:       client.WriteAPIBlocking(c.Org, c.Bucket),
	}
}

func (i *Influx) Post(ctx context.Context, p types.Payload) int {
	at := p.At
	if at.IsZero() {
		at = time.Now()
	}
	pt := influxdb2.NewPoint(i.Measurement, i.Tags, map[string]interface{}{
		"temperature": p.Temperature,
		"humidity":    p.Humidity,
	}, at)
	return i.status(i.write.WritePoint(ctx, pt))
}

// status maps a write error onto a status code. Influx answers 204 on success.
func (i *Influx) status(err error) int {
	if err == nil {
		return 204
	}
	var he *ihttp.Error
	if errors.As(err, &he) && he.StatusCode > 0 {
		i.Logger.Warn("influx:rejected", slog.Int("status", he.StatusCode), slog.String("err", he.Message))
		return he.StatusCode
	}
	i.Logger.Warn("influx:transport", slog.String("err", err.Error()))
	return TransportError
}
