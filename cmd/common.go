package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/specter-ci/specter/internal/console"
	"github.com/specter-ci/specter/internal/pipeline"
	"github.com/specter-ci/specter/internal/upload"
	"github.com/specter-ci/specter/internal/webhook"
)

// parseWebhookFlags converts CLI flags into a webhook configuration. A nil
// config means no webhook.
func parseWebhookFlags(flags *WebhookFlags) (*webhook.Config, *webhook.RetryPolicy, error) {
	if flags.URL == "" {
		return nil, nil, nil
	}

	timeout, err := time.ParseDuration(flags.Timeout)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid webhook timeout duration: %w", err)
	}

	retryDelay, err := time.ParseDuration(flags.RetryDelay)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid webhook retry delay: %w", err)
	}

	conf := &webhook.Config{
		URL:       flags.URL,
		AuthType:  flags.AuthType,
		AuthToken: flags.AuthToken,
		Timeout:   timeout,
	}
	retry := &webhook.RetryPolicy{
		MaxRetries:   flags.Retries,
		InitialDelay: retryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	return conf, retry, nil
}

// finishRun ships the artifact and summary after the pipeline completes.
// Delivery failures are warnings only; the pipeline's exit code is final.
func finishRun(log *console.Logger, summary *pipeline.Summary, provider upload.Provider, conf *webhook.Config, retry *webhook.RetryPolicy) {
	// A gated run performed no work and must leave no trace beyond its
	// console output; only the summary line is emitted.
	if summary.Gated {
		outputSummary(log, summary)
		return
	}

	ctx := context.Background()

	if provider != nil && summary.ResultsFile != "" {
		if err := upload.File(ctx, provider, summary.ResultsFile); err != nil {
			log.Warningf("artifact upload failed: %v", err)
		} else {
			log.Infof("results artifact uploaded via %s", provider.Name())
		}
	}

	if conf != nil {
		client := webhook.NewClient(conf, retry)
		if err := client.Send(ctx, summary); err != nil {
			log.Warningf("webhook delivery failed: %v", err)
		}
	}

	outputSummary(log, summary)
}

// outputSummary prints one machine-readable line for downstream jobs.
func outputSummary(log *console.Logger, summary *pipeline.Summary) {
	data, err := json.Marshal(summary)
	if err != nil {
		log.Warningf("failed to marshal run summary: %v", err)
		return
	}
	fmt.Fprintln(log.Out, string(data))
}
