// Package tasks defines the structure for tasks that are sent to Kafka.
package tasks

// DocumentIngestTask 代表一个文档入库任务：文件已落入对象存储，等待消费者处理。
type DocumentIngestTask struct {
	Filename     string `json:"filename"`
	ObjectName   string `json:"object_name"`
	ChunkSize    int    `json:"chunk_size,omitempty"`
	ChunkOverlap int    `json:"chunk_overlap,omitempty"`
}
