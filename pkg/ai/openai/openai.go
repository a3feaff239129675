package openai

import (
	"sync"

	"github.com/lumen-edu/lumen/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/sync/semaphore"
)

const (
	defaultMaxConcurrentRequests = 4
	defaultTimeoutMin            = 5
)

// TutorOpenAIClient implements ai.TutorAIClient against any OpenAI-compatible
// API. It manages separate clients for embedding, chat, and vision endpoints
// so each concern can point at a different provider.
//
// A TutorOpenAIClient should be created using NewTutorOpenAIClient.
type TutorOpenAIClient struct {
	embeddingModel string
	chatModel      string
	imageModel     string

	chatURL string

	timeoutMin int
	reqLock    *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	ChatClient      *openai.Client
	EmbeddingClient *openai.Client
	ImageClient     *openai.Client
}

// NewTutorOpenAIClientParams defines the configuration for creating a new
// TutorOpenAIClient.
//
// ChatURL/ChatKey, EmbeddingURL/EmbeddingKey, and ImageURL/ImageKey
// configure the endpoints per concern; an empty URL means the provider's
// default. ExtraHeaders is attached to every request, which some gateways
// (e.g. OpenRouter) require for attribution.
type NewTutorOpenAIClientParams struct {
	EmbeddingModel string
	ChatModel      string
	ImageModel     string

	EmbeddingURL string
	EmbeddingKey string
	ChatURL      string
	ChatKey      string
	ImageURL     string
	ImageKey     string

	ExtraHeaders map[string]string

	MaxConcurrentRequests int64
	TimeoutMin            int
}

// NewTutorOpenAIClient creates and returns a new TutorOpenAIClient configured
// with the provided parameters.
//
// Example:
//
//	client := openai.NewTutorOpenAIClient(openai.NewTutorOpenAIClientParams{
//		EmbeddingModel: "mistral-embed",
//		ChatModel:      "mistral-small-latest",
//		ImageModel:     "pixtral-12b-latest",
//		ChatURL:        "https://api.mistral.ai/v1",
//		ChatKey:        os.Getenv("MISTRAL_API_KEY"),
//	})
func NewTutorOpenAIClient(
	params NewTutorOpenAIClientParams,
) *TutorOpenAIClient {
	chatClient := newOpenaiClient(params.ChatURL, params.ChatKey, params.ExtraHeaders)
	embedClient := newOpenaiClient(params.EmbeddingURL, params.EmbeddingKey, params.ExtraHeaders)
	imageClient := newOpenaiClient(params.ImageURL, params.ImageKey, params.ExtraHeaders)

	maxConcurrent := params.MaxConcurrentRequests
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrentRequests
	}
	timeoutMin := params.TimeoutMin
	if timeoutMin <= 0 {
		timeoutMin = defaultTimeoutMin
	}

	return &TutorOpenAIClient{
		embeddingModel: params.EmbeddingModel,
		chatModel:      params.ChatModel,
		imageModel:     params.ImageModel,

		chatURL: params.ChatURL,

		timeoutMin: timeoutMin,
		reqLock:    semaphore.NewWeighted(maxConcurrent),

		metricsLock: sync.Mutex{},
		metrics:     ai.ModelMetrics{},

		ChatClient:      chatClient,
		EmbeddingClient: embedClient,
		ImageClient:     imageClient,
	}
}

func newOpenaiClient(
	baseURL string,
	apiKey string,
	extraHeaders map[string]string,
) *openai.Client {
	if apiKey == "" {
		return nil
	}
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}

	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}
	for k, v := range extraHeaders {
		options = append(options, option.WithHeader(k, v))
	}

	client := openai.NewClient(options...)

	return &client
}
