package model

// IngestResult 定义了文档入库管道对外返回的结构化结果。
// 任何一步失败都通过 Success=false 加 Message 表达，管道边界不向外抛错。
type IngestResult struct {
	DocumentID string `json:"documentId"`
	Filename   string `json:"filename"`
	ChunkCount int    `json:"chunkCount"`
	Success    bool   `json:"success"`
	Message    string `json:"message"`
}

// AskResult 定义了问答管道对外返回的结构化结果。
// 五个回答协议字段始终全部存在，Citation 缺失时渲染为 "N/A"。
type AskResult struct {
	Answer     string `json:"answer"`
	Source     string `json:"source"`
	Confidence string `json:"confidence"`
	Reasoning  string `json:"reasoning"`
	Citation   string `json:"citation"`
	Success    bool   `json:"success"`
}

// NewAskResult 由回答实体组装对外 DTO。
func NewAskResult(a *Answer, success bool) AskResult {
	citation := a.Citation
	if citation == "" {
		citation = "N/A"
	}
	return AskResult{
		Answer:     a.Text,
		Source:     a.Source,
		Confidence: string(a.Confidence),
		Reasoning:  a.Reasoning,
		Citation:   citation,
		Success:    success,
	}
}

// FailedAskResult 构造一个带低置信度哨兵回答的失败结果。
func FailedAskResult(answer, reasoning string) AskResult {
	return NewAskResult(FallbackAnswer(answer, reasoning), false)
}

// DocumentInfoDTO 定义了文档列表接口返回的条目。
type DocumentInfoDTO struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	ChunkCount int    `json:"chunkCount"`
	CreatedAt  string `json:"createdAt"`
}
