package api

import "time"

type submitMetadata struct {
	Filename string `json:"filename"`
}

type submitResponse struct {
	JobId string `json:"jobId"`
}

type statusResponse struct {
	JobId       string     `json:"jobId"`
	Status      string     `json:"status"`
	Progress    float64    `json:"progress"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	ErrorKind   string     `json:"errorKind,omitempty"`
}

type eventResponse struct {
	Module string                 `json:"module"`
	Event  string                 `json:"event"`
	Ts     float64                `json:"ts"`
	Dur    float64                `json:"dur"`
	Meta   map[string]interface{} `json:"meta,omitempty"`
}

type derivedResponse struct {
	VisualScore         float64 `json:"visualScore"`
	VideoLength          float64 `json:"videoLength"`
	OriginalVideoLength  float64 `json:"originalVideoLength"`
	TranscriptSnippet    string  `json:"transcriptSnippet"`
	ProcessingTimeSec    float64 `json:"processingTimeSec"`
	PipelineVersion      string  `json:"pipelineVersion"`
}

type resultResponse struct {
	JobId              string            `json:"jobId"`
	Label              string            `json:"label"`
	Confidence         float64           `json:"confidence"`
	PerInspectorScores map[string]float64 `json:"perInspectorScores"`
	Events             []eventResponse   `json:"events"`
	Derived            derivedResponse   `json:"derived"`
	ProcessedAt        time.Time         `json:"processedAt"`
}

type errorResponse struct {
	ErrorKind   string `json:"errorKind,omitempty"`
	ErrorDetail string `json:"errorDetail"`
}
