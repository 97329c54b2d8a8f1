package cmd

// RunFlags holds the evaluation selection flags.
type RunFlags struct {
	TestType string
	Areas    []string
	WorkDir  string
}

// WebhookFlags holds the notification endpoint flags.
type WebhookFlags struct {
	URL        string
	AuthType   string
	AuthToken  string
	Timeout    string
	Retries    int
	RetryDelay string
}

// UploadFlags holds the artifact upload flags.
type UploadFlags struct {
	Provider  string
	Endpoint  string
	Bucket    string
	Prefix    string
	Region    string
	AccessKey string
	SecretKey string
	Insecure  bool
}
