package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/sred-drafter/internal/core/domain"
	"github.com/custodia-labs/sred-drafter/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// probeTimeout bounds the trial embedding and completion.
const probeTimeout = 20 * time.Second

// Probe inputs. The completion probe asks for the reviewer sentinel so a
// model that cannot follow a one-line instruction is caught before a report
// run depends on it.
const (
	probeText   = "Developed a new extraction process for plant compounds."
	probeSystem = "You are a configuration check. Follow the instruction exactly."
)

var probeUser = fmt.Sprintf("Reply with the single word %s.", domain.AcceptanceSentinel)

// ConfigValidator checks provider settings by building the service and
// running one trial call against it.
type ConfigValidator struct {
	timeout      time.Duration
	newEmbedding func(*domain.EmbeddingSettings) (driven.EmbeddingService, error)
	newLLM       func(*domain.LLMSettings) (driven.TextGenerator, error)
}

// NewConfigValidator creates a validator backed by the provider factory.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{
		timeout:      probeTimeout,
		newEmbedding: CreateEmbeddingService,
		newLLM:       CreateLLMService,
	}
}

// ValidateEmbedding embeds a sample sentence and checks the vector width
// against the configured dimensions. Unconfigured settings pass.
func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	svc, err := v.newEmbedding(config)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()

	vec, err := svc.Embed(ctx, probeText)
	if err != nil {
		return fmt.Errorf("trial embedding: %w", err)
	}
	if want := svc.Dimensions(); want > 0 && len(vec) != want {
		return fmt.Errorf("%w: model %s returned %d values, expected %d",
			domain.ErrDimensionMismatch, svc.ModelName(), len(vec), want)
	}
	return nil
}

// ValidateLLM runs a one-line trial completion. An empty reply fails;
// a reply without the sentinel is accepted since some models paraphrase.
// Unconfigured settings pass.
func (v *ConfigValidator) ValidateLLM(config *domain.LLMSettings) error {
	svc, err := v.newLLM(config)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()

	reply, err := svc.Complete(ctx, probeSystem, probeUser)
	if err != nil {
		return fmt.Errorf("trial completion: %w", err)
	}
	if strings.TrimSpace(reply) == "" {
		return fmt.Errorf("trial completion with %s: %w", svc.ModelName(), domain.ErrEmptyGeneration)
	}
	return nil
}
