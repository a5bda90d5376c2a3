// Package tasks defines the structure for tasks that are sent to Kafka.
package tasks

// UploadJobTask represents a recorded upload waiting for post-processing.
type UploadJobTask struct {
	JobOid     string `json:"job_oid"`
	FolderName string `json:"folder_name"`
	FilePath   string `json:"file_path"`
}
