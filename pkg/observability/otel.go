// Package observability wires the coordinator's OTLP exporters (HTTP
// transport, for compatibility with collectors that don't speak gRPC) for
// traces, metrics, and logs, and bridges the log pipeline into log/slog.
package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// serviceVersion is bumped by hand; the coordinator has no build-stamped
// version yet.
const serviceVersion = "0.1.0"

// ParseLevel maps a SCHEDULER_LOG_LEVEL value ("debug", "info", "warn",
// "error", case-insensitively) to a slog.Level, defaulting to Info for an
// empty or unrecognized value (spec §6: "defaulting to info").
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// levelFilterHandler wraps a slog.Handler with a minimum-level gate. initLogger
// uses it in front of the OTel log bridge, which has no level option of its
// own; the plain JSON fallback gets the level through slog.HandlerOptions.
type levelFilterHandler struct {
	slog.Handler
	level slog.Level
}

func (h levelFilterHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level
}

// Providers bundles everything initTracerProvider/initMeterProvider/
// initLogger return separately, plus one Shutdown that tears all three
// down in order. The bootstrap only ever needs one handle.
type Providers struct {
	Tracer *sdktrace.TracerProvider
	Meter  *sdkmetric.MeterProvider
	Logs   *sdklog.LoggerProvider
	Logger *slog.Logger
}

// Init sets up tracing, metrics, and logging for serviceName at the given
// log level. When enabled is false every provider is a no-op and Logger
// writes JSON to stdout — the coordinator still gets structured logs
// without needing a collector.
func Init(ctx context.Context, serviceName string, enabled bool, level slog.Level) (*Providers, error) {
	tracer, err := initTracerProvider(ctx, serviceName, enabled)
	if err != nil {
		return nil, fmt.Errorf("init tracer provider: %w", err)
	}

	meter, err := initMeterProvider(ctx, serviceName, enabled)
	if err != nil {
		return nil, fmt.Errorf("init meter provider: %w", err)
	}

	logs, logger, err := initLogger(ctx, serviceName, enabled, level)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	return &Providers{Tracer: tracer, Meter: meter, Logs: logs, Logger: logger}, nil
}

// Shutdown flushes and closes every provider, collecting errors rather
// than stopping at the first one so a slow exporter doesn't block the
// others from attempting to flush.
func (p *Providers) Shutdown(ctx context.Context) error {
	var errs []error
	if p.Tracer != nil {
		if err := p.Tracer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracer provider: %w", err))
		}
	}
	if p.Meter != nil {
		if err := p.Meter.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown meter provider: %w", err))
		}
	}
	if p.Logs != nil {
		if err := p.Logs.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown logger provider: %w", err))
		}
	}
	return errors.Join(errs...)
}

// parseOTLPHeaders parses OTEL_EXPORTER_OTLP_HEADERS and URL-decodes
// values. Some collectors (e.g. Grafana Cloud) provide headers in
// URL-encoded form; the OTEL spec requires this but the Go SDK doesn't
// always decode it for you.
func parseOTLPHeaders() map[string]string {
	raw := os.Getenv("OTEL_EXPORTER_OTLP_HEADERS")
	if raw == "" {
		return nil
	}

	headers := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.TrimSpace(kv[0])
		value, err := url.QueryUnescape(kv[1])
		if err != nil {
			value = kv[1]
		}
		headers[key] = value
	}
	return headers
}

// newResource merges SDK defaults with service identity. Additional
// attributes can be set via OTEL_RESOURCE_ATTRIBUTES.
func newResource(ctx context.Context, serviceName string) (*resource.Resource, error) {
	serviceResource, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create service resource: %w", err)
	}

	res, err := resource.Merge(resource.Default(), serviceResource)
	if err != nil {
		if errors.Is(err, resource.ErrPartialResource) || errors.Is(err, resource.ErrSchemaURLConflict) {
			return res, nil
		}
		return nil, fmt.Errorf("merge resources: %w", err)
	}
	return res, nil
}

func initTracerProvider(ctx context.Context, serviceName string, enabled bool) (*sdktrace.TracerProvider, error) {
	if !enabled {
		tp := sdktrace.NewTracerProvider()
		otel.SetTracerProvider(tp)
		return tp, nil
	}

	res, err := newResource(ctx, serviceName)
	if err != nil {
		return nil, err
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithTimeout(10 * time.Second)}
	if headers := parseOTLPHeaders(); headers != nil {
		opts = append(opts, otlptracehttp.WithHeaders(headers))
	}

	exporter, err := otlptracehttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp, nil
}

func initMeterProvider(ctx context.Context, serviceName string, enabled bool) (*sdkmetric.MeterProvider, error) {
	if !enabled {
		mp := sdkmetric.NewMeterProvider()
		otel.SetMeterProvider(mp)
		return mp, nil
	}

	res, err := newResource(ctx, serviceName)
	if err != nil {
		return nil, err
	}

	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithTimeout(10 * time.Second)}
	if headers := parseOTLPHeaders(); headers != nil {
		opts = append(opts, otlpmetrichttp.WithHeaders(headers))
	}

	exporter, err := otlpmetrichttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("create metric exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(15*time.Second))),
	)

	otel.SetMeterProvider(mp)
	return mp, nil
}

func initLogger(ctx context.Context, serviceName string, enabled bool, level slog.Level) (*sdklog.LoggerProvider, *slog.Logger, error) {
	if !enabled {
		handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
		return sdklog.NewLoggerProvider(), slog.New(handler), nil
	}

	res, err := newResource(ctx, serviceName)
	if err != nil {
		return nil, nil, err
	}

	opts := []otlploghttp.Option{otlploghttp.WithTimeout(10 * time.Second)}
	if headers := parseOTLPHeaders(); headers != nil {
		opts = append(opts, otlploghttp.WithHeaders(headers))
	}

	exporter, err := otlploghttp.New(context.Background(), opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("create log exporter: %w", err)
	}

	lp := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter, sdklog.WithExportTimeout(5*time.Second))),
		sdklog.WithResource(res),
	)

	bridged := otelslog.NewLogger(serviceName, otelslog.WithLoggerProvider(lp))
	logger := slog.New(levelFilterHandler{Handler: bridged.Handler(), level: level})
	return lp, logger, nil
}
