package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/network/standard"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/h19overflow/PipeWeave/internal/cli/types"
)

// APIClient wraps a Hertz client for talking to the PipeWeave API server.
type APIClient struct {
	client *client.Client
	server string
	token  string
}

// NewAPIClient creates a new API client
func NewAPIClient(server, token string) (*APIClient, error) {
	normalizedServer, err := normalizeServerURL(server)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}

	// Standard library dialer: netpoll does not handle streaming
	// response bodies, which the job watch endpoint needs.
	c, err := client.NewClient(
		client.WithDialTimeout(10*time.Second),
		client.WithMaxIdleConnDuration(60*time.Second),
		client.WithResponseBodyStream(true),
		client.WithDialer(standard.NewDialer()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &APIClient{
		client: c,
		server: normalizedServer,
		token:  token,
	}, nil
}

// normalizeServerURL ensures the server has a scheme and no path.
func normalizeServerURL(server string) (string, error) {
	if !strings.Contains(server, "://") {
		server = "http://" + server
	}

	u, err := url.Parse(server)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid server URL")
	}

	return fmt.Sprintf("%s://%s", u.Scheme, u.Host), nil
}

// Login authenticates with email and password
func (c *APIClient) Login(ctx context.Context, email, password string) (*types.APIResponse[types.LoginData], error) {
	reqBody := types.LoginRequest{
		Email:    email,
		Password: password,
	}
	bodyBytes, err := sonic.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer func() {
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(resp)
	}()

	req.SetMethod(consts.MethodPost)
	req.SetRequestURI(c.server + endpointLogin)
	req.Header.SetContentTypeBytes([]byte("application/json"))
	req.SetBody(bodyBytes)

	if err := c.client.Do(ctx, req, resp); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("login failed with HTTP status: %d", resp.StatusCode())
	}

	var loginResp types.APIResponse[types.LoginData]
	if err := sonic.Unmarshal(resp.Body(), &loginResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &loginResp, nil
}

// getJSON performs an authenticated GET and decodes the envelope into out.
func (c *APIClient) getJSON(ctx context.Context, url string, out interface{}) error {
	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer func() {
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(resp)
	}()

	req.SetMethod(consts.MethodGet)
	req.SetRequestURI(url)
	req.Header.Set("Authorization", "Bearer "+c.token)

	if err := c.client.Do(ctx, req, resp); err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("request failed with HTTP status: %d", resp.StatusCode())
	}

	if err := sonic.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

// ListDatasets lists the user's datasets
func (c *APIClient) ListDatasets(ctx context.Context) ([]types.Dataset, error) {
	var listResp types.APIResponse[types.DatasetListData]
	if err := c.getJSON(ctx, c.server+endpointDatasets, &listResp); err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	return listResp.Data.Datasets, nil
}

// ListPipelines lists the user's pipelines
func (c *APIClient) ListPipelines(ctx context.Context) ([]types.Pipeline, error) {
	var listResp types.APIResponse[types.PipelineListData]
	if err := c.getJSON(ctx, c.server+endpointPipelines, &listResp); err != nil {
		return nil, fmt.Errorf("failed to list pipelines: %w", err)
	}
	return listResp.Data.Pipelines, nil
}

// ListTrainingJobs lists the user's training jobs
func (c *APIClient) ListTrainingJobs(ctx context.Context) ([]types.TrainingJob, error) {
	var listResp types.APIResponse[types.JobListData]
	if err := c.getJSON(ctx, c.server+endpointTrainingJobs, &listResp); err != nil {
		return nil, fmt.Errorf("failed to list training jobs: %w", err)
	}
	return listResp.Data.Jobs, nil
}

// ListModels lists the user's trained models
func (c *APIClient) ListModels(ctx context.Context) ([]types.Model, error) {
	var listResp types.APIResponse[types.ModelListData]
	if err := c.getJSON(ctx, c.server+endpointModels, &listResp); err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	return listResp.Data.Models, nil
}

// CreateDataset registers a dataset and returns the presigned upload ticket.
func (c *APIClient) CreateDataset(ctx context.Context, in *types.CreateDatasetRequest) (*types.UploadTicket, error) {
	bodyBytes, err := sonic.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer func() {
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(resp)
	}()

	req.SetMethod(consts.MethodPost)
	req.SetRequestURI(c.server + endpointDatasets)
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.SetContentTypeBytes([]byte("application/json"))
	req.SetBody(bodyBytes)

	if err := c.client.Do(ctx, req, resp); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	statusCode := resp.StatusCode()
	if statusCode < 200 || statusCode >= 300 {
		return nil, fmt.Errorf("create failed with HTTP status: %d, body: %s", statusCode, string(resp.Body()))
	}

	var createResp types.APIResponse[types.UploadTicket]
	if err := sonic.Unmarshal(resp.Body(), &createResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &createResp.Data, nil
}

// UploadFile PUTs the CSV bytes to the presigned URL. The URL points at
// object storage directly, not at the API server.
func (c *APIClient) UploadFile(ctx context.Context, uploadURL, contentType string, body []byte) error {
	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer func() {
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(resp)
	}()

	req.SetMethod(consts.MethodPut)
	req.SetRequestURI(uploadURL)
	req.Header.SetContentTypeBytes([]byte(contentType))
	req.SetBody(body)

	if err := c.client.Do(ctx, req, resp); err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	statusCode := resp.StatusCode()
	if statusCode < 200 || statusCode >= 300 {
		return fmt.Errorf("upload failed with HTTP status: %d, body: %s", statusCode, string(resp.Body()))
	}

	return nil
}

// CompleteUpload tells the server the CSV is in place and queues validation.
func (c *APIClient) CompleteUpload(ctx context.Context, datasetID string) (*types.Dataset, error) {
	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer func() {
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(resp)
	}()

	req.SetMethod(consts.MethodPost)
	req.SetRequestURI(fmt.Sprintf("%s"+endpointDatasetComplete, c.server, datasetID))
	req.Header.Set("Authorization", "Bearer "+c.token)

	if err := c.client.Do(ctx, req, resp); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	statusCode := resp.StatusCode()
	if statusCode < 200 || statusCode >= 300 {
		return nil, fmt.Errorf("complete failed with HTTP status: %d, body: %s", statusCode, string(resp.Body()))
	}

	var completeResp types.APIResponse[types.Dataset]
	if err := sonic.Unmarshal(resp.Body(), &completeResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &completeResp.Data, nil
}

// WatchJob subscribes to the SSE progress stream for a training job and
// returns channels of progress events and errors. Both close when the
// stream ends.
func (c *APIClient) WatchJob(ctx context.Context, jobID string) (<-chan types.JobProgressEvent, <-chan error, error) {
	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()

	req.SetMethod(consts.MethodGet)
	req.SetRequestURI(fmt.Sprintf("%s"+endpointJobStream, c.server, jobID))
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "text/event-stream")

	if err := c.client.Do(ctx, req, resp); err != nil {
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(resp)
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode() != 200 {
		statusCode := resp.StatusCode()
		body := resp.Body()
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(resp)
		return nil, nil, fmt.Errorf("watch failed with HTTP status: %d, body: %s", statusCode, string(body))
	}

	eventCh := make(chan types.JobProgressEvent, 10)
	errCh := make(chan error, 1)

	go func() {
		defer func() {
			close(eventCh)
			close(errCh)
			protocol.ReleaseRequest(req)
			protocol.ReleaseResponse(resp)
		}()

		bodyStream := resp.BodyStream()
		if bodyStream == nil {
			errCh <- fmt.Errorf("body stream is nil")
			return
		}

		c.parseProgressStream(bodyStream, eventCh, errCh)
	}()

	return eventCh, errCh, nil
}

// parseProgressStream reads the SSE stream line by line as frames arrive.
func (c *APIClient) parseProgressStream(reader io.Reader, eventCh chan<- types.JobProgressEvent, errCh chan<- error) {
	scanner := bufio.NewScanner(reader)

	const maxScanTokenSize = 1024 * 1024
	buf := make([]byte, maxScanTokenSize)
	scanner.Buffer(buf, maxScanTokenSize)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip blanks, comments, and the "event:" name line.
		if line == "" || strings.HasPrefix(line, ":") || strings.HasPrefix(line, "event:") {
			continue
		}

		if strings.HasPrefix(line, "data:") {
			dataStr := strings.TrimSpace(strings.TrimPrefix(line, "data:"))

			var event types.JobProgressEvent
			if err := sonic.Unmarshal([]byte(dataStr), &event); err != nil {
				errCh <- fmt.Errorf("failed to parse progress event: %w", err)
				return
			}

			select {
			case eventCh <- event:
			case <-time.After(5 * time.Second):
				errCh <- fmt.Errorf("timeout sending event to channel")
				return
			}
		}
	}

	if err := scanner.Err(); err != nil && err != io.EOF {
		errCh <- fmt.Errorf("scanner error: %w", err)
	}
}
