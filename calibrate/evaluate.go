// SPDX-License-Identifier: MIT

package calibrate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/calkernel/domain"
	"github.com/katalvlaran/calkernel/model"
	"github.com/katalvlaran/calkernel/result"
	"github.com/katalvlaran/calkernel/value"
)

var tracer = otel.Tracer("calkernel/calibrate")

// Prediction is the evaluated correlations of one instance.
type Prediction struct {
	Instance     string
	Correlations [4]*result.Result
}

// Equation is one condition equation: a predicted correlation and its
// derivative with respect to every active spid.
type Equation struct {
	Instance    string
	Correlation int
	Value       *value.Value
	Derivatives []result.Derivative
}

// Evaluate runs one work order: every instance is evaluated for req, at
// most the configured parallelism at a time. Results keep the order of
// instances. An instance must not be evaluated by two work orders at once.
func (s *Session) Evaluate(ctx context.Context, req *domain.Request, instances []*model.Instance) ([]Prediction, error) {
	id := uuid.NewString()
	seq := s.orders.Add(1)
	ctx, span := tracer.Start(ctx, "calibrate.Evaluate",
		trace.WithAttributes(
			attribute.String("work_order.id", id),
			attribute.Int64("work_order.seq", int64(seq)),
			attribute.Int64("request.generation", int64(req.Generation())),
			attribute.Int("instances", len(instances)),
		),
	)
	defer span.End()

	logger := s.opts.logger.With(slog.String("work_order", id))
	start := time.Now()

	out := make([]Prediction, len(instances))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.parallelism)
	for i, inst := range instances {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := evaluateInstance(gctx, req, inst)
			if err != nil {
				return err
			}
			out[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		workOrdersTotal.WithLabelValues("error").Inc()
		logger.Error("work order failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("Evaluate(%s): %w", id, err)
	}
	workOrdersTotal.WithLabelValues("ok").Inc()
	logger.Debug("work order completed",
		slog.Uint64("seq", seq),
		slog.Int("instances", len(instances)),
		slog.Duration("duration", time.Since(start)),
	)
	return out, nil
}

func evaluateInstance(ctx context.Context, req *domain.Request, inst *model.Instance) (Prediction, error) {
	_, span := tracer.Start(ctx, "calibrate.Instance",
		trace.WithAttributes(attribute.String("instance", inst.Name)))
	defer span.End()

	start := time.Now()
	res, err := inst.Graph.Evaluate(req, inst.Correlations[:]...)
	instanceDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Prediction{}, fmt.Errorf("instance %s: %w", inst.Name, err)
	}
	p := Prediction{Instance: inst.Name}
	copy(p.Correlations[:], res)
	return p, nil
}

// Equations evaluates instances and flattens every correlation into a
// condition equation over the active spids of req.
func (s *Session) Equations(ctx context.Context, req *domain.Request, instances []*model.Instance) ([]Equation, error) {
	preds, err := s.Evaluate(ctx, req, instances)
	if err != nil {
		return nil, err
	}
	active := req.Active()
	eqs := make([]Equation, 0, 4*len(preds))
	for _, p := range preds {
		for k, r := range p.Correlations {
			d, err := result.Derivatives(r, active)
			if err != nil {
				return nil, fmt.Errorf("Equations(%s, %d): %w", p.Instance, k, err)
			}
			eqs = append(eqs, Equation{Instance: p.Instance, Correlation: k, Value: r.Value(), Derivatives: d})
		}
	}
	equationsTotal.Add(float64(len(eqs)))
	return eqs, nil
}
