package main

import (
	"context"
	"log/slog"

	"github.com/dukex/wflguard/pkg/cmd"
	"github.com/dukex/wflguard/pkg/eventbus"
	"github.com/dukex/wflguard/pkg/metrics"
	"github.com/dukex/wflguard/pkg/otelhelper"
	"github.com/dukex/wflguard/pkg/persistence/jsonl"
	"github.com/dukex/wflguard/pkg/services"
	"github.com/prometheus/client_golang/prometheus"
	cli "github.com/urfave/cli/v3"
)

const serviceName = "wflguard"

func verdictLogFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "verdict-log",
		Usage:   "Append every verdict to this JSONL file",
		Sources: cli.EnvVars("VERDICT_LOG"),
	}
}

func serviceFlags() []cli.Flag {
	return []cli.Flag{
		verdictLogFlag(),
		&cli.StringFlag{
			Name:    "event-bus",
			Usage:   "Verdict event bus (none, gochannel, kafka)",
			Value:   cmd.EventBusNone,
			Sources: cli.EnvVars("EVENT_BUS_TYPE"),
		},
		&cli.StringFlag{
			Name:    "kafka-brokers",
			Usage:   "Comma separated Kafka brokers",
			Sources: cli.EnvVars("KAFKA_BROKERS"),
		},
		&cli.BoolFlag{
			Name:    "otel",
			Usage:   "Export traces over OTLP HTTP",
			Sources: cli.EnvVars("OTEL_ENABLED"),
		},
	}
}

// runtime owns the long-lived dependencies of the validation service.
type runtime struct {
	service  *services.Validation
	registry *prometheus.Registry
	closers  []func(context.Context) error
}

func (r *runtime) Close(ctx context.Context, logger *slog.Logger) {
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close dependency", "error", err)
		}
	}
}

func newRuntime(ctx context.Context, command *cli.Command, logger *slog.Logger, extra ...services.Option) (*runtime, error) {
	rt := &runtime{registry: prometheus.NewRegistry()}
	opts := append([]services.Option{
		services.WithLogger(logger),
		services.WithMetrics(metrics.New(rt.registry)),
	}, extra...)

	if path := command.String("verdict-log"); path != "" {
		sink, err := jsonl.Open(path)
		if err != nil {
			return nil, err
		}

		rt.closers = append(rt.closers, sink.Close)
		opts = append(opts, services.WithVerdictSink(sink))
	}

	if command.Bool("otel") {
		tracer, shutdown, err := otelhelper.NewTracer(ctx, serviceName)
		if err != nil {
			rt.Close(ctx, logger)

			return nil, err
		}

		rt.closers = append(rt.closers, shutdown)
		opts = append(opts, services.WithTracer(tracer))
	}

	bus, err := cmd.NewEventBus(command.String("event-bus"), command.String("kafka-brokers"), logger)
	if err != nil {
		rt.Close(ctx, logger)

		return nil, err
	}

	if bus != nil {
		rt.closers = append(rt.closers, closeBus(bus))
		opts = append(opts, services.WithEventBus(bus))
	}

	rt.service = services.NewValidation(opts...)

	return rt, nil
}

func closeBus(bus eventbus.EventBus) func(context.Context) error {
	return func(context.Context) error {
		return bus.Close()
	}
}
