package commonModels

import "time"

type DocStatus string

const (
	StatusPending    DocStatus = "pending"
	StatusProcessing DocStatus = "processing"
	StatusReady      DocStatus = "ready"
	StatusFailed     DocStatus = "failed"
)

type DocType string

var (
	PDF  DocType = "PDF"
	DOCX DocType = "DOCX"
	TXT  DocType = "TXT"
	MD   DocType = "MD"
	ERR  DocType = "ERROR"
)

type Document struct {
	Id            string    `json:"document_id"`
	Name          string    `json:"doc_name"`
	ContentType   DocType   `json:"content_type"`
	Encoding      string    `json:"encoding,omitempty"`
	SizeBytes     int64     `json:"size_bytes"`
	UploadedAt    time.Time `json:"uploaded_at"`
	Status        DocStatus `json:"status"`
	FailureReason string    `json:"failure_reason,omitempty"`
	ChunkCount    int       `json:"chunk_count"`
}

// DocChunk is immutable once created and owned by its Document.
// Offsets are rune positions in the extracted source text.
type DocChunk struct {
	DocumentId  string `json:"document_id"`
	ChunkId     string `json:"chunk_id"`
	Seq         int    `json:"seq"`
	Text        string `json:"content"`
	StartOffset int    `json:"start_offset"`
	EndOffset   int    `json:"end_offset"`
	PageNum     int    `json:"page_num"`
	Overlap     int    `json:"overlap"`
}

type SearchResult struct {
	DocumentId string  `json:"document_id"`
	ChunkId    string  `json:"chunk_id"`
	Seq        int     `json:"seq"`
	PageNum    int     `json:"page_num"`
	Text       string  `json:"content"`
	Score      float32 `json:"score"`
	Rank       int     `json:"rank"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role Role      `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

type Session struct {
	Id         string    `json:"session_id"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
	Messages   []Message `json:"messages"`
}

// Citation ties a reference marker in a generated answer to its source chunk.
// Derived per answer, never persisted on its own.
type Citation struct {
	Ref        int    `json:"ref"`
	DocumentId string `json:"document_id"`
	ChunkId    string `json:"chunk_id"`
	Excerpt    string `json:"excerpt"`
}
