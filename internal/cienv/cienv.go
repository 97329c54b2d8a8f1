// Package cienv detects the Azure Pipelines build environment and formats
// its logging commands.
package cienv

import (
	"fmt"
	"os"
)

// FlagVar is the environment variable Azure Pipelines sets on build agents.
const FlagVar = "TF_BUILD"

// flagTruthy is the exact literal the agent sets. Any other value, including
// unset, means we are not running under CI.
const flagTruthy = "True"

// InCI reports whether the process is running on an Azure Pipelines agent.
func InCI() bool {
	return os.Getenv(FlagVar) == flagTruthy
}

// UploadFileDirective returns the logging command that attaches a file to the
// build log. It must be written to stdout on its own line.
func UploadFileDirective(path string) string {
	return fmt.Sprintf("##vso[task.uploadfile]%s", path)
}

// IssueDirective returns the logging command that surfaces a warning or error
// annotation in the build summary. kind is "warning" or "error".
func IssueDirective(kind, message string) string {
	return fmt.Sprintf("##vso[task.logissue type=%s]%s", kind, message)
}
