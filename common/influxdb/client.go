package influxdb

import (
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/bytearena/skirmish/common/utils"
)

type Options struct {
	URL    string // empty selects the stub client
	Token  string
	Org    string
	Bucket string
}

// Client reports application metrics; without a configured server it only logs them at debug level
type Client struct {
	isStub bool

	appName        string
	influxdbClient influxdb2.Client
	writer         influxdb2_api.WriteAPI
	tickerChannel  *time.Ticker
}

func NewClient(appName string, options Options) *Client {
	tickerChannel := time.NewTicker(5 * time.Second)

	if options.URL == "" {
		utils.Debug("influxdb", "No client has been configured")

		return &Client{
			isStub:        true,
			appName:       appName,
			tickerChannel: tickerChannel,
		}
	}

	influxdbClient := influxdb2.NewClientWithOptions(
		options.URL,
		options.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(500).
			SetFlushInterval(1000),
	)

	writer := influxdbClient.WriteAPI(options.Org, options.Bucket)

	go func(errorsCh <-chan error) {
		for writeErr := range errorsCh {
			utils.Logger().Warn().Err(writeErr).Str("service", "influxdb").Msg("could not send metrics")
		}
	}(writer.Errors())

	utils.Debug("influxdb", "Influxdb reporting is enabled")

	return &Client{
		appName:        appName,
		influxdbClient: influxdbClient,
		writer:         writer,
		tickerChannel:  tickerChannel,
	}
}

func (c *Client) IsStub() bool {
	return c.isStub
}

func (c *Client) makePoint(name string, fields map[string]interface{}) *influxdb2_write.Point {
	return influxdb2.NewPoint(name, map[string]string{"app": c.appName}, fields, time.Now())
}

func (c *Client) WriteAppMetric(name string, fields map[string]interface{}) {
	point := c.makePoint(name, fields)

	if c.isStub {
		utils.Debug("influxdb-debug", influxdb2_write.PointToLineProtocol(point, time.Nanosecond))
		return
	}

	c.writer.WritePoint(point)
}

// Loop calls fn every five seconds until TearDown
func (c *Client) Loop(fn func()) {
	go func() {
		for range c.tickerChannel.C {
			fn()
		}
	}()
}

func (c *Client) TearDown() {
	c.tickerChannel.Stop()

	if c.isStub {
		return
	}

	c.writer.Flush()
	c.influxdbClient.Close()
}
