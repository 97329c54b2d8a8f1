package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/specter-ci/specter/internal/console"
	"github.com/specter-ci/specter/internal/pipeline"
	"github.com/specter-ci/specter/internal/upload"
)

var (
	runFlags     RunFlags
	webhookFlags WebhookFlags
	uploadFlags  UploadFlags
)

// evalDirRelPath is where the evaluation harness lives relative to the
// orchestrator binary when --work-dir is not given.
var evalDirRelPath = filepath.Join("core", "tests", "evals")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the evaluation suite and surface its results to CI",
	Long: `Run executes the evaluation sequence: verify the Python toolchain,
install dependencies, generate test data, run the evaluation, and attach the
results artifact to the build log.

The final exit code is the evaluation's own exit code; dependency installation
and test-data generation failures are propagated verbatim.`,
	Example: `  specter run
  specter run --test-type unit
  specter run -t live -a storage -a keyvault
  specter run --work-dir /src/core/tests/evals --webhook-url https://ci.example.com/hooks/evals`,
	RunE: runCommand,
}

func runCommand(cmd *cobra.Command, args []string) error {
	testType, err := pipeline.ParseTestType(runFlags.TestType)
	if err != nil {
		return err
	}

	workDir := runFlags.WorkDir
	if workDir == "" {
		workDir, err = defaultWorkDir()
		if err != nil {
			return err
		}
	}

	webhookConf, retryPolicy, err := parseWebhookFlags(&webhookFlags)
	if err != nil {
		return err
	}

	var provider upload.Provider
	if uploadFlags.Provider != "" {
		provider, err = upload.New(uploadFlags.Provider, upload.Config{
			Endpoint:  uploadFlags.Endpoint,
			AccessKey: uploadFlags.AccessKey,
			SecretKey: uploadFlags.SecretKey,
			Bucket:    uploadFlags.Bucket,
			Prefix:    uploadFlags.Prefix,
			Region:    uploadFlags.Region,
			Insecure:  uploadFlags.Insecure,
		})
		if err != nil {
			return fmt.Errorf("failed to configure upload provider: %w", err)
		}
	}

	log := console.New()
	summary := pipeline.New(&pipeline.Config{
		TestType: testType,
		Areas:    runFlags.Areas,
		WorkDir:  workDir,
		Log:      log,
	}).Run()

	finishRun(log, summary, provider, webhookConf, retryPolicy)

	if summary.ExitCode != 0 {
		return &pipeline.ExitCodeError{Code: summary.ExitCode, Step: "evaluation run"}
	}
	return nil
}

func defaultWorkDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("cannot locate orchestrator binary: %w", err)
	}
	return filepath.Join(filepath.Dir(exe), evalDirRelPath), nil
}

func init() {
	runCmd.Flags().StringVarP(&runFlags.TestType, "test-type", "t", "live", "Test type to generate: live, unit, or all")
	runCmd.Flags().StringArrayVarP(&runFlags.Areas, "area", "a", nil, "Area to include (can be used multiple times; default all areas)")
	runCmd.Flags().StringVar(&runFlags.WorkDir, "work-dir", "", "Evaluation directory (default: core/tests/evals next to the binary)")

	runCmd.Flags().StringVar(&webhookFlags.URL, "webhook-url", "", "Webhook URL to send the run summary to")
	runCmd.Flags().StringVar(&webhookFlags.AuthType, "webhook-auth-type", "none", "Authentication type: none, bearer, api-key")
	runCmd.Flags().StringVar(&webhookFlags.AuthToken, "webhook-auth-token", "", "Authentication token (use with --webhook-auth-type)")
	runCmd.Flags().IntVar(&webhookFlags.Retries, "webhook-retries", 3, "Maximum webhook retry attempts (0 = no retries)")
	runCmd.Flags().StringVar(&webhookFlags.RetryDelay, "webhook-retry-delay", "1s", "Initial delay between webhook retries")
	runCmd.Flags().StringVar(&webhookFlags.Timeout, "webhook-timeout", "30s", "Total timeout for webhook including retries")

	runCmd.Flags().StringVar(&uploadFlags.Provider, "upload-provider", "", "Upload provider for the results artifact (e.g., minio)")
	runCmd.Flags().StringVar(&uploadFlags.Endpoint, "upload-endpoint", "", "Upload endpoint host:port")
	runCmd.Flags().StringVar(&uploadFlags.Bucket, "upload-bucket", "", "Upload bucket name")
	runCmd.Flags().StringVar(&uploadFlags.Prefix, "upload-prefix", "", "Key prefix for uploaded artifacts")
	runCmd.Flags().StringVar(&uploadFlags.Region, "upload-region", "", "Upload region (default us-east-1)")
	runCmd.Flags().StringVar(&uploadFlags.AccessKey, "upload-access-key", "", "Upload access key")
	runCmd.Flags().StringVar(&uploadFlags.SecretKey, "upload-secret-key", "", "Upload secret key")
	runCmd.Flags().BoolVar(&uploadFlags.Insecure, "upload-insecure", false, "Disable TLS for uploads")
}
