package chat

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/brendonwanderlust/wander-wallet-chat/internal/infrastructure/metrics"
	"github.com/brendonwanderlust/wander-wallet-chat/internal/utils/platformerrors"
)

// Fragment is one incremental piece of assistant text delivered during
// streaming generation. A terminal failure is delivered as a Fragment whose
// Err is set; the channel is closed afterwards in every case.
type Fragment struct {
	Text string
	Err  error
}

// ModelClient is the model-completion collaborator. Implementations may
// invoke the registered tool capability zero or more times before returning.
type ModelClient interface {
	// CompleteOnce returns the full reply for the ordered turns. An empty
	// reply is not an error.
	CompleteOnce(ctx context.Context, turns []openai.ChatCompletionMessage) (string, error)

	// CompleteStreaming returns a finite, non-restartable sequence of text
	// fragments. An error return means the stream never started.
	CompleteStreaming(ctx context.Context, turns []openai.ChatCompletionMessage) (<-chan Fragment, error)
}

// Orchestrator coordinates one chat turn: it records the user message,
// assembles the prompt, invokes the model, and records the assistant reply.
type Orchestrator struct {
	store     *Store
	assembler *Assembler
	model     ModelClient
	log       zerolog.Logger
}

// NewOrchestrator wires the turn pipeline.
func NewOrchestrator(store *Store, assembler *Assembler, model ModelClient, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		store:     store,
		assembler: assembler,
		model:     model,
		log:       log.With().Str("component", "orchestrator").Logger(),
	}
}

// Respond runs one non-streaming turn and returns the assistant reply. On a
// provider failure the user message is retained and no assistant message is
// appended.
func (o *Orchestrator) Respond(ctx context.Context, userID, message string, rc *RequestContext) (string, error) {
	userID = NormalizeUserID(userID)

	o.store.Append(userID, RoleUser, message)
	history := o.assembler.BuildHistory(userID, rc)

	start := time.Now()
	reply, err := o.model.CompleteOnce(ctx, history)
	metrics.InferenceDuration.WithLabelValues("false").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ProviderErrorsTotal.WithLabelValues("complete").Inc()
		metrics.RecordTurn(false, "failed")
		return "", platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "model completion failed")
	}

	o.store.Append(userID, RoleAssistant, reply)
	metrics.RecordTurn(false, "success")
	return reply, nil
}

// RespondStreaming runs one streaming turn. Fragments are yielded to the
// returned channel in order, each one accumulated after it is delivered.
// Whatever text accumulated by the time the stream ends (normally, by
// upstream failure, or by caller cancellation) is committed to history as
// the assistant turn exactly once, so history never diverges from what the
// user actually saw. An error return means the stream never started and
// nothing beyond the user message was recorded.
func (o *Orchestrator) RespondStreaming(ctx context.Context, userID, message string, rc *RequestContext) (<-chan Fragment, error) {
	userID = NormalizeUserID(userID)

	o.store.Append(userID, RoleUser, message)
	history := o.assembler.BuildHistory(userID, rc)

	upstream, err := o.model.CompleteStreaming(ctx, history)
	if err != nil {
		metrics.ProviderErrorsTotal.WithLabelValues("stream_start").Inc()
		metrics.RecordTurn(true, "failed")
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "model streaming failed")
	}

	out := make(chan Fragment)
	go o.pump(ctx, userID, upstream, out)
	return out, nil
}

func (o *Orchestrator) pump(ctx context.Context, userID string, upstream <-chan Fragment, out chan<- Fragment) {
	start := time.Now()
	status := "success"

	var accumulated strings.Builder
	flushed := false
	flush := func() {
		if flushed {
			return
		}
		flushed = true
		if accumulated.Len() > 0 {
			o.store.Append(userID, RoleAssistant, accumulated.String())
		}
	}

	defer func() {
		flush()
		metrics.InferenceDuration.WithLabelValues("true").Observe(time.Since(start).Seconds())
		metrics.RecordTurn(true, status)
		close(out)
	}()

	for {
		select {
		case fragment, ok := <-upstream:
			if !ok {
				return
			}
			if fragment.Err != nil {
				status = "failed"
				metrics.ProviderErrorsTotal.WithLabelValues("stream").Inc()
				o.log.Warn().Err(fragment.Err).Str("user_id", userID).Msg("streaming turn failed mid-stream")
				// Commit the partial reply before the failure is re-signaled.
				flush()
				select {
				case out <- Fragment{Err: fragment.Err}:
				case <-ctx.Done():
				}
				return
			}
			if fragment.Text == "" {
				continue
			}
			select {
			case out <- Fragment{Text: fragment.Text}:
				accumulated.WriteString(fragment.Text)
				metrics.StreamFragmentsTotal.Inc()
			case <-ctx.Done():
				status = "cancelled"
				return
			}
		case <-ctx.Done():
			status = "cancelled"
			return
		}
	}
}
