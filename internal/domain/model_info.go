package domain

// ModelInfo describes the backend the server is configured to talk to.
type ModelInfo struct {
	ModelName       string `json:"modelName"`
	Endpoint        string `json:"endpoint"`
	Environment     string `json:"environment"`
	EnableReasoning bool   `json:"enableReasoning"`
}
