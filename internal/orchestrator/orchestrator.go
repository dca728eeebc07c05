// Package orchestrator composes the transmission pipeline: filter the
// findings, hash and encrypt the shareable payload, hand it to the
// transport, and persist every step in the audit log. A failure at any
// stage drives the record to failed and logs it; no failure is ever
// swallowed into a successful terminal state.
package orchestrator

import (
	"context"
	"encoding/json"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/verdigris-botanica/egress/internal/assessment"
	"github.com/verdigris-botanica/egress/internal/audit"
	"github.com/verdigris-botanica/egress/internal/crypto"
	"github.com/verdigris-botanica/egress/internal/observability"
	"github.com/verdigris-botanica/egress/internal/policy"
	"github.com/verdigris-botanica/egress/internal/tracker"
	"github.com/verdigris-botanica/egress/internal/transport"
	"github.com/verdigris-botanica/egress/internal/types"
)

// Result reports the outcome of one transmission attempt.
type Result struct {
	RecordID      types.ID
	Status        types.TransmissionStatus
	ReceiptID     string
	SharedCount   int
	RejectedCount int
	Err           error
}

// Orchestrator drives transmission records through the pipeline. The
// audit store is injected with an explicit lifecycle scoped to the
// orchestrator run; tests substitute an in-memory store.
type Orchestrator struct {
	tracker     *tracker.Tracker
	store       audit.Store
	codec       *crypto.Codec
	transport   transport.Transport
	key         []byte
	destination string
	logger      *slog.Logger
	parallel    int
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithParallelLimit bounds how many records TransmitAll processes
// concurrently. Defaults to 4.
func WithParallelLimit(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.parallel = n
		}
	}
}

// New creates an Orchestrator. The key handle is consumed as provided;
// key provisioning is external to the pipeline.
func New(tr *tracker.Tracker, store audit.Store, tp transport.Transport, key []byte, destination string, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		tracker:     tr,
		store:       store,
		codec:       crypto.NewCodec(),
		transport:   tp,
		key:         key,
		destination: destination,
		logger:      slog.Default(),
		parallel:    4,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Transmit runs one full transmission: filter -> hash -> encrypt ->
// attach integrity -> send -> log. Raw findings are not consulted past
// the filter stage; every later stage sees only the shareable payload.
//
// If no finding survives the filter, no record is opened and nothing
// leaves the network; the Result carries the rejection count.
func (o *Orchestrator) Transmit(ctx context.Context, findings []assessment.Finding, dataType string) Result {
	ctx, span := observability.Tracer().Start(ctx, "egress.transmit",
		trace.WithAttributes(
			attribute.String("egress.data_type", dataType),
			attribute.Int("egress.findings_in", len(findings)),
		))
	defer span.End()

	logger := observability.WithTrace(ctx, o.logger)

	pkg := o.filterStage(ctx, findings)
	if pkg.IsEmpty() {
		logger.Info("no shareable findings, nothing to transmit",
			"data_type", dataType,
			"rejected", pkg.RejectedCount)
		return Result{RejectedCount: pkg.RejectedCount}
	}

	payload, err := json.Marshal(pkg)
	if err != nil {
		err = types.WrapError(types.PERSISTENCE_FAILED, "failed to serialize shareable payload", err)
		span.SetStatus(codes.Error, err.Error())
		return Result{RejectedCount: pkg.RejectedCount, Err: err}
	}

	rec, err := o.tracker.Create(dataType, o.destination, payloadClassification(pkg), int64(len(payload)))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		logger.Error("refused to open transmission record", "error", err)
		return Result{RejectedCount: pkg.RejectedCount, Err: err}
	}
	span.SetAttributes(attribute.String("egress.record_id", rec.ID.String()))
	_ = o.tracker.SetFindingCounts(rec.ID, len(pkg.Findings), pkg.RejectedCount)

	if err := o.tracker.Advance(rec.ID, types.StatusValidated); err != nil {
		return o.fail(ctx, span, rec.ID, err)
	}

	contentHash, encrypted, err := o.encryptStage(ctx, payload)
	if err != nil {
		return o.fail(ctx, span, rec.ID, err)
	}
	if err := o.tracker.AttachIntegrity(rec.ID, contentHash, encrypted); err != nil {
		return o.fail(ctx, span, rec.ID, err)
	}

	receiptID, err := o.sendStage(ctx, encrypted)
	if err != nil {
		return o.fail(ctx, span, rec.ID, err)
	}
	if err := o.tracker.MarkTransmitted(rec.ID, receiptID); err != nil {
		return o.fail(ctx, span, rec.ID, err)
	}

	// Persist the transmitted state before flipping to logged, so the
	// aggregate log shows the record exactly as it was accepted.
	snapshot, err := o.tracker.Get(rec.ID)
	if err != nil {
		return o.fail(ctx, span, rec.ID, err)
	}
	if err := o.persistStage(ctx, snapshot); err != nil {
		return o.fail(ctx, span, rec.ID, err)
	}
	if err := o.tracker.Advance(rec.ID, types.StatusLogged); err != nil {
		return o.fail(ctx, span, rec.ID, err)
	}

	logger.Info("transmission complete",
		"record_id", rec.ID,
		"destination", o.destination,
		"receipt_id", receiptID,
		"bytes", len(payload),
		"shared", len(pkg.Findings),
		"rejected", pkg.RejectedCount)

	return Result{
		RecordID:      rec.ID,
		Status:        types.StatusLogged,
		ReceiptID:     receiptID,
		SharedCount:   len(pkg.Findings),
		RejectedCount: pkg.RejectedCount,
	}
}

// Batch is one independent unit of work for TransmitAll.
type Batch struct {
	DataType string
	Findings []assessment.Finding
}

// TransmitAll processes independent batches concurrently, one pipeline
// per record, bounded by the parallel limit. No two workers ever touch
// the same record; the shared audit log tolerates the concurrent
// appends because each append is line-atomic.
func (o *Orchestrator) TransmitAll(ctx context.Context, batches []Batch) []Result {
	results := make([]Result, len(batches))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.parallel)
	for i, b := range batches {
		i, b := i, b
		g.Go(func() error {
			results[i] = o.Transmit(ctx, b.Findings, b.DataType)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// filterStage applies the classification policy to the raw findings.
// This is the last stage with access to raw finding content.
func (o *Orchestrator) filterStage(ctx context.Context, findings []assessment.Finding) policy.ShareablePackage {
	_, span := observability.Tracer().Start(ctx, "egress.filter")
	defer span.End()

	pkg := policy.FilterFindings(findings)
	span.SetAttributes(
		attribute.Int("egress.findings_shared", len(pkg.Findings)),
		attribute.Int("egress.findings_rejected", pkg.RejectedCount),
	)
	return pkg
}

// encryptStage hashes the exact payload bytes and then encrypts them.
// The stored hash attests the plaintext content, not the wire encoding;
// ciphertext integrity is covered by the GCM authentication tag.
func (o *Orchestrator) encryptStage(ctx context.Context, payload []byte) (string, *crypto.EncryptedPackage, error) {
	_, span := observability.Tracer().Start(ctx, "egress.encrypt",
		trace.WithAttributes(attribute.Int("egress.payload_bytes", len(payload))))
	defer span.End()

	contentHash := crypto.HashPayload(payload)

	encrypted, err := o.codec.Encrypt(payload, o.key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", nil, err
	}

	return contentHash, encrypted, nil
}

// sendStage hands the encrypted package to the transport.
func (o *Orchestrator) sendStage(ctx context.Context, encrypted *crypto.EncryptedPackage) (string, error) {
	ctx, span := observability.Tracer().Start(ctx, "egress.send",
		trace.WithAttributes(attribute.String("egress.destination", o.destination)))
	defer span.End()

	receiptID, err := o.transport.Send(ctx, encrypted, o.destination)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	span.SetAttributes(attribute.String("egress.receipt_id", receiptID))
	return receiptID, nil
}

// persistStage appends the record to the aggregate log and writes its
// detail file.
func (o *Orchestrator) persistStage(ctx context.Context, snapshot tracker.TransmissionRecord) error {
	_, span := observability.Tracer().Start(ctx, "egress.persist",
		trace.WithAttributes(attribute.String("egress.record_id", snapshot.ID.String())))
	defer span.End()

	if err := o.store.Append(snapshot); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if err := o.store.WriteDetail(snapshot); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// fail drives the record to failed with the error's machine-readable
// kind and persists the failure. An abandoned record with no terminal
// log entry would be a correctness violation, so the failure append is
// attempted even when earlier persistence was the thing that failed.
func (o *Orchestrator) fail(ctx context.Context, span trace.Span, id types.ID, cause error) Result {
	span.RecordError(cause)
	span.SetStatus(codes.Error, cause.Error())

	logger := observability.WithTrace(ctx, o.logger)

	kind := types.CodeOf(cause)
	if kind == "" {
		kind = types.TRANSPORT_FAILED
	}

	if err := o.tracker.MarkFailed(id, kind, cause.Error()); err != nil {
		logger.Error("failed to mark record failed", "record_id", id, "error", err)
	}

	if snapshot, err := o.tracker.Get(id); err == nil {
		if err := o.store.Append(snapshot); err != nil {
			logger.Error("failed to persist failure entry", "record_id", id, "error", err)
		}
		if err := o.store.WriteDetail(snapshot); err != nil {
			logger.Error("failed to persist failure detail", "record_id", id, "error", err)
		}
	}

	logger.Error("transmission failed",
		"record_id", id,
		"error_kind", string(kind),
		"error", cause)

	return Result{RecordID: id, Status: types.StatusFailed, Err: cause}
}

// payloadClassification labels the outbound payload with the most
// sensitive classification present in the shareable set. The filter
// guarantees only allow-set values remain, so this is PUBLIC unless at
// least one SENSITIVE finding is included.
func payloadClassification(pkg policy.ShareablePackage) types.DataClassification {
	for _, f := range pkg.Findings {
		if f.Classification == types.ClassificationSensitive {
			return types.ClassificationSensitive
		}
	}
	return types.ClassificationPublic
}
