package inference

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"resty.dev/v3"

	"github.com/brendonwanderlust/wander-wallet-chat/internal/config"
	"github.com/brendonwanderlust/wander-wallet-chat/internal/domain/chat"
	"github.com/brendonwanderlust/wander-wallet-chat/internal/domain/tools"
	"github.com/brendonwanderlust/wander-wallet-chat/internal/infrastructure/metrics"
	"github.com/brendonwanderlust/wander-wallet-chat/internal/utils/httpclients"
	"github.com/brendonwanderlust/wander-wallet-chat/internal/utils/platformerrors"
)

const (
	channelBufferSize    = 100
	dataPrefix           = "data: "
	doneMarker           = "[DONE]"
	scannerInitialBuffer = 12 * 1024        // 12KB
	scannerMaxBuffer     = 10 * 1024 * 1024 // 10MB
)

// Client talks to an OpenAI-compatible chat completions endpoint and executes
// weather tool rounds on the model's behalf. It implements chat.ModelClient.
// A turn performs at most one tool round: the resumed request after tool
// execution advertises no tools, so the model must answer with text.
type Client struct {
	httpClient *resty.Client
	baseURL    string
	apiKey     string
	model      string
	weather    tools.WeatherCapability
	log        zerolog.Logger
}

var _ chat.ModelClient = (*Client)(nil)

// NewClient creates an inference client from configuration.
func NewClient(cfg *config.Config, weather tools.WeatherCapability, log zerolog.Logger) *Client {
	client := httpclients.NewClient("inference")
	client.SetTimeout(cfg.ModelTimeout)

	return &Client{
		httpClient: client,
		baseURL:    strings.TrimRight(cfg.ModelBaseURL, "/"),
		apiKey:     cfg.ModelAPIKey,
		model:      cfg.ModelName,
		weather:    weather,
		log:        log.With().Str("component", "inference_client").Logger(),
	}
}

// CompleteOnce runs a non-streaming completion, resolving at most one tool
// round before returning the assistant text.
func (c *Client) CompleteOnce(ctx context.Context, turns []openai.ChatCompletionMessage) (string, error) {
	response, err := c.postCompletion(ctx, c.newRequest(turns, true))
	if err != nil {
		return "", err
	}
	message, err := firstMessage(ctx, response)
	if err != nil {
		return "", err
	}
	if len(message.ToolCalls) == 0 {
		return message.Content, nil
	}

	resumed := c.runToolRound(ctx, turns, *message)
	response, err = c.postCompletion(ctx, c.newRequest(resumed, false))
	if err != nil {
		return "", err
	}
	message, err = firstMessage(ctx, response)
	if err != nil {
		return "", err
	}
	return message.Content, nil
}

// CompleteStreaming starts a streaming completion. The returned channel
// yields text fragments in arrival order; tool rounds are resolved inside the
// stream, so callers only ever see assistant text. An error return means the
// upstream request itself failed and no channel was opened.
func (c *Client) CompleteStreaming(ctx context.Context, turns []openai.ChatCompletionMessage) (<-chan chat.Fragment, error) {
	request := c.newRequest(turns, true)
	request.Stream = true

	resp, err := c.doStreamingRequest(ctx, request)
	if err != nil {
		return nil, err
	}

	out := make(chan chat.Fragment, channelBufferSize)
	go c.streamToChannel(ctx, turns, resp, out)
	return out, nil
}

func (c *Client) streamToChannel(ctx context.Context, turns []openai.ChatCompletionMessage, resp *resty.Response, out chan<- chat.Fragment) {
	defer close(out)

	toolCalls, err := c.scanStream(ctx, resp, out, true)
	if err != nil {
		c.emitError(ctx, out, err)
		return
	}
	if len(toolCalls) == 0 {
		return
	}

	assistantTurn := openai.ChatCompletionMessage{
		Role:      openai.ChatMessageRoleAssistant,
		ToolCalls: toolCalls,
	}
	resumed := c.runToolRound(ctx, turns, assistantTurn)

	request := c.newRequest(resumed, false)
	request.Stream = true
	resumeResp, err := c.doStreamingRequest(ctx, request)
	if err != nil {
		c.emitError(ctx, out, err)
		return
	}
	if _, err := c.scanStream(ctx, resumeResp, out, false); err != nil {
		c.emitError(ctx, out, err)
	}
}

// scanStream reads SSE lines until the done marker, forwarding content deltas
// as fragments. When accumulateTools is set, tool-call deltas are assembled
// by index and the completed calls returned; otherwise they are ignored.
func (c *Client) scanStream(ctx context.Context, resp *resty.Response, out chan<- chat.Fragment, accumulateTools bool) ([]openai.ToolCall, error) {
	defer func() {
		if closeErr := resp.RawResponse.Body.Close(); closeErr != nil {
			c.log.Error().Err(closeErr).Msg("unable to close response body")
		}
	}()

	accumulator := make(map[int]*toolCallAccumulator)

	scanner := bufio.NewScanner(resp.RawResponse.Body)
	scanner.Buffer(make([]byte, 0, scannerInitialBuffer), scannerMaxBuffer)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		data, found := strings.CutPrefix(scanner.Text(), dataPrefix)
		if !found || data == "" {
			continue
		}
		if data == doneMarker {
			break
		}

		var chunk openai.ChatCompletionStreamResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			c.log.Error().Err(err).Str("data", data).Msg("failed to parse stream chunk JSON")
			continue
		}

		for _, choice := range chunk.Choices {
			if choice.Delta.Content != "" {
				select {
				case out <- chat.Fragment{Text: choice.Delta.Content}:
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
			if accumulateTools {
				for i := range choice.Delta.ToolCalls {
					accumulateToolCall(&choice.Delta.ToolCalls[i], accumulator)
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "model stream read failed", err)
	}

	return completedToolCalls(accumulator), nil
}

// runToolRound executes every tool call on the assistant turn and returns the
// message sequence for the resumed request. Tool failures become apologetic
// tool results rather than errors.
func (c *Client) runToolRound(ctx context.Context, turns []openai.ChatCompletionMessage, assistantTurn openai.ChatCompletionMessage) []openai.ChatCompletionMessage {
	resumed := make([]openai.ChatCompletionMessage, 0, len(turns)+1+len(assistantTurn.ToolCalls))
	resumed = append(resumed, turns...)
	resumed = append(resumed, assistantTurn)

	for _, call := range assistantTurn.ToolCalls {
		resumed = append(resumed, openai.ChatCompletionMessage{
			Role:       openai.ChatMessageRoleTool,
			ToolCallID: call.ID,
			Content:    c.executeToolCall(ctx, call),
		})
	}
	return resumed
}

func (c *Client) executeToolCall(ctx context.Context, call openai.ToolCall) string {
	if call.Function.Name != tools.WeatherToolName {
		c.log.Warn().Str("tool", call.Function.Name).Msg("model requested an unknown tool")
		metrics.RecordToolCall(call.Function.Name, "unknown")
		return "Sorry, that tool is not available."
	}

	location, unitGroup, ok := tools.ParseWeatherArgs(call.Function.Arguments)
	if !ok {
		c.log.Warn().Str("arguments", call.Function.Arguments).Msg("model supplied unusable weather arguments")
		metrics.RecordToolCall(tools.WeatherToolName, "invalid_args")
		return "Sorry, I couldn't work out which location to look up the weather for."
	}

	c.log.Debug().Str("location", location).Str("unit_group", unitGroup).Msg("executing weather lookup")
	return c.weather.GetWeather(ctx, location, unitGroup)
}

func (c *Client) newRequest(turns []openai.ChatCompletionMessage, includeTools bool) openai.ChatCompletionRequest {
	request := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: turns,
	}
	if includeTools {
		request.Tools = []openai.Tool{tools.WeatherToolDefinition()}
	}
	return request
}

func (c *Client) postCompletion(ctx context.Context, request openai.ChatCompletionRequest) (*openai.ChatCompletionResponse, error) {
	var respBody openai.ChatCompletionResponse
	resp, err := c.prepareRequest(ctx).
		SetBody(request).
		SetResult(&respBody).
		Post(c.endpoint("/chat/completions"))
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "model request failed", err)
	}
	if resp.IsError() {
		return nil, c.errorFromStatus(ctx, resp.StatusCode(), resp.String())
	}
	return &respBody, nil
}

func (c *Client) doStreamingRequest(ctx context.Context, request openai.ChatCompletionRequest) (*resty.Response, error) {
	req := c.prepareRequest(ctx).
		SetBody(request).
		SetDoNotParseResponse(true)

	if req.Header.Get("Accept-Encoding") == "" {
		req.SetHeader("Accept-Encoding", "identity")
	}

	resp, err := req.Post(c.endpoint("/chat/completions"))
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "model streaming request failed", err)
	}
	if resp.IsError() {
		return nil, c.errorFromStatus(ctx, resp.StatusCode(), readErrorBody(resp))
	}
	if resp.RawResponse == nil || resp.RawResponse.Body == nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "model streaming request failed: empty response body", nil)
	}
	return resp, nil
}

func (c *Client) prepareRequest(ctx context.Context) *resty.Request {
	req := c.httpClient.R().SetContext(ctx)
	req.SetHeader("Content-Type", "application/json")
	if strings.TrimSpace(c.apiKey) != "" {
		req.SetHeader("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	}
	return req
}

func (c *Client) endpoint(path string) string {
	if strings.HasPrefix(path, "/") {
		return c.baseURL + path
	}
	return c.baseURL + "/" + path
}

func (c *Client) errorFromStatus(ctx context.Context, status int, body string) error {
	message := fmt.Sprintf("model provider returned status %d", status)
	if trimmed := strings.TrimSpace(body); trimmed != "" {
		message = fmt.Sprintf("%s: %s", message, trimmed)
	}
	return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, message, nil)
}

func (c *Client) emitError(ctx context.Context, out chan<- chat.Fragment, err error) {
	select {
	case out <- chat.Fragment{Err: err}:
	case <-ctx.Done():
	}
}

func firstMessage(ctx context.Context, response *openai.ChatCompletionResponse) (*openai.ChatCompletionMessage, error) {
	if len(response.Choices) == 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "model returned no choices", nil)
	}
	return &response.Choices[0].Message, nil
}

func readErrorBody(resp *resty.Response) string {
	if resp.RawResponse == nil || resp.RawResponse.Body == nil {
		return ""
	}
	defer resp.RawResponse.Body.Close()
	body, err := io.ReadAll(resp.RawResponse.Body)
	if err != nil {
		return ""
	}
	return string(body)
}

type toolCallAccumulator struct {
	ID        string
	Type      string
	Index     int
	Name      string
	Arguments string
}

func accumulateToolCall(call *openai.ToolCall, accumulator map[int]*toolCallAccumulator) {
	if call == nil || call.Index == nil {
		return
	}

	index := *call.Index
	if accumulator[index] == nil {
		accumulator[index] = &toolCallAccumulator{
			ID:    call.ID,
			Type:  string(call.Type),
			Index: index,
		}
	}
	if call.ID != "" {
		accumulator[index].ID = call.ID
	}
	if call.Function.Name != "" {
		accumulator[index].Name = call.Function.Name
	}
	if call.Function.Arguments != "" {
		accumulator[index].Arguments += call.Function.Arguments
	}
}

func completedToolCalls(accumulator map[int]*toolCallAccumulator) []openai.ToolCall {
	indexes := make([]int, 0, len(accumulator))
	for index := range accumulator {
		indexes = append(indexes, index)
	}
	sort.Ints(indexes)

	var calls []openai.ToolCall
	for _, index := range indexes {
		acc := accumulator[index]
		if acc.Name == "" {
			continue
		}
		calls = append(calls, openai.ToolCall{
			ID:   acc.ID,
			Type: openai.ToolType(acc.Type),
			Function: openai.FunctionCall{
				Name:      acc.Name,
				Arguments: acc.Arguments,
			},
		})
	}
	return calls
}
