package client

const (
	// API version prefix
	apiV1Prefix = "/api/v1"

	// Authentication endpoints
	endpointLogin = apiV1Prefix + "/auth/login"

	// Dataset endpoints
	endpointDatasets        = apiV1Prefix + "/datasets"             // GET, POST
	endpointDatasetComplete = apiV1Prefix + "/datasets/%s/complete" // POST

	// Pipeline endpoints
	endpointPipelines = apiV1Prefix + "/pipelines" // GET

	// Training endpoints
	endpointTrainingJobs = apiV1Prefix + "/training/jobs"           // GET
	endpointJobStream    = apiV1Prefix + "/training/jobs/%s/stream" // GET, SSE

	// Model endpoints
	endpointModels = apiV1Prefix + "/models" // GET
)
