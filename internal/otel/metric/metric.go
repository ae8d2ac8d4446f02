package metric

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/Alturino/storefront/internal/log"
)

const exportInterval = 5 * time.Second

// InitMetricProvider pushes otel instruments, such as the pgx and redis ones,
// to an otlp grpc collector. Prometheus counters are scraped separately.
func InitMetricProvider(
	c context.Context,
	endpoint string,
	res *resource.Resource,
) (*metric.MeterProvider, error) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "InitMetricProvider").
		Logger()

	exporter, err := otlpmetricgrpc.New(
		c,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		err = fmt.Errorf("failed creating metric exporter with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Debug().Msg("created metric exporter")

	reader := metric.NewPeriodicReader(exporter, metric.WithInterval(exportInterval))
	return metric.NewMeterProvider(
		metric.WithReader(reader),
		metric.WithResource(res),
	), nil
}
