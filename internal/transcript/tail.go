// Package transcript reads Claude Code JSONL conversation files.
//
// Hook invocations are latency-sensitive, so the reader never loads a
// whole transcript: it seeks to the last tailBytes of the file and scans
// lines backward until it has the newest usage counters, the newest
// assistant text, and the newest model name.
package transcript

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"
	"time"

	"github.com/theirongolddev/cgate/internal/usage"
)

// tailBytes bounds how much of a transcript is read per invocation.
// Long sessions grow to hundreds of megabytes; the tail always contains
// the latest assistant turn.
const tailBytes = 256 * 1024

// TailState is what the tail of a transcript tells us about a session.
// The three fields may come from different lines: an assistant turn that
// only invoked tools has usage but no text, so the newest text can be
// older than the newest usage.
type TailState struct {
	// Sample holds the newest assistant usage counters, or nil when the
	// tail contains no assistant entry with usage.
	Sample *usage.Sample

	// Model is the model name from the newest assistant entry.
	Model string

	// LastText is the concatenated text blocks of the newest assistant
	// entry whose text is non-empty.
	LastText string

	// LastTime is the newest timestamp seen in the tail, from any entry type.
	LastTime time.Time
}

// rawLine mirrors the fields of a transcript line the tail reader needs.
type rawLine struct {
	Type      string      `json:"type"`
	Timestamp string      `json:"timestamp,omitempty"`
	Message   *rawMessage `json:"message,omitempty"`
}

// rawMessage is the assistant message envelope. Content is raw because
// user messages carry a plain string where assistant messages carry an
// array of typed blocks.
type rawMessage struct {
	ID      string          `json:"id"`
	Role    string          `json:"role"`
	Model   string          `json:"model"`
	Content json.RawMessage `json:"content"`
	Usage   *rawUsage       `json:"usage,omitempty"`
}

type rawUsage struct {
	InputTokens              int64             `json:"input_tokens"`
	OutputTokens             int64             `json:"output_tokens"`
	CacheCreationInputTokens int64             `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int64             `json:"cache_read_input_tokens"`
	CacheCreation            *rawCacheCreation `json:"cache_creation,omitempty"`
}

// rawCacheCreation holds the breakdown of cache write tokens by TTL bucket.
type rawCacheCreation struct {
	Ephemeral5mInputTokens int64 `json:"ephemeral_5m_input_tokens"`
	Ephemeral1hInputTokens int64 `json:"ephemeral_1h_input_tokens"`
}

// ReadTail reads the last tailBytes of the transcript at path and
// extracts the newest session state. A missing or empty file yields a
// zero TailState and no error: hooks fire before the first assistant
// turn exists, and that must not break the invocation.
func ReadTail(path string) (TailState, error) {
	data, err := readFileTail(path, tailBytes)
	if err != nil {
		if os.IsNotExist(err) {
			return TailState{}, nil
		}
		return TailState{}, err
	}
	return parseTail(data), nil
}

// readFileTail returns up to maxBytes from the end of the file. When the
// read starts mid-file the first partial line is dropped.
func readFileTail(path string, maxBytes int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := fi.Size()
	if size == 0 {
		return nil, nil
	}

	start := int64(0)
	if size > maxBytes {
		start = size - maxBytes
	}
	if _, err := f.Seek(start, io.SeekStart); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	if start > 0 {
		if idx := bytes.IndexByte(data, '\n'); idx >= 0 && idx+1 < len(data) {
			data = data[idx+1:]
		}
	}
	return data, nil
}

// parseTail scans lines newest-first and stops once every TailState
// field is filled. Malformed lines are skipped.
func parseTail(data []byte) TailState {
	var st TailState

	lines := bytes.Split(data, []byte{'\n'})
	for i := len(lines) - 1; i >= 0; i-- {
		line := lines[i]
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		if st.LastTime.IsZero() {
			if ts, ok := extractTimestampBytes(line); ok {
				st.LastTime = ts
			}
		}

		// Byte-level pre-filter: only assistant entries carry usage and
		// reply text, and they are a minority of lines in a transcript.
		if extractTopLevelType(line) != "assistant" {
			continue
		}

		var entry rawLine
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		if entry.Message == nil {
			continue
		}
		msg := entry.Message

		if st.Model == "" && msg.Model != "" {
			st.Model = msg.Model
		}
		if st.Sample == nil && msg.Usage != nil {
			st.Sample = sampleFromUsage(msg.Usage)
		}
		if st.LastText == "" {
			if text := extractText(msg.Content); strings.TrimSpace(text) != "" {
				st.LastText = text
			}
		}

		if st.Sample != nil && st.LastText != "" && st.Model != "" && !st.LastTime.IsZero() {
			break
		}
	}

	return st
}

func sampleFromUsage(u *rawUsage) *usage.Sample {
	cacheCreation := u.CacheCreationInputTokens
	if u.CacheCreation != nil {
		cacheCreation = u.CacheCreation.Ephemeral5mInputTokens + u.CacheCreation.Ephemeral1hInputTokens
	}
	return &usage.Sample{
		InputTokens:         u.InputTokens,
		OutputTokens:        u.OutputTokens,
		CacheReadTokens:     u.CacheReadInputTokens,
		CacheCreationTokens: cacheCreation,
	}
}

// extractText pulls human-readable text from a message's content field.
// User messages carry a plain string; assistant messages carry an array
// of blocks, of which only the "text" blocks matter here.
func extractText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var blocks []json.RawMessage
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return ""
	}

	var parts []string
	for _, block := range blocks {
		var obj struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}
		if err := json.Unmarshal(block, &obj); err != nil {
			continue
		}
		if obj.Type == "text" && obj.Text != "" {
			parts = append(parts, obj.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// Byte patterns for field extraction.
var (
	typeKey       = []byte(`"type"`)
	patTimestamp1 = []byte(`"timestamp":"`)
	patTimestamp2 = []byte(`"timestamp": "`)
)

// extractTopLevelType finds the top-level "type" field in a JSONL line.
// Tracks brace depth and string boundaries so nested "type" keys are
// ignored. Early-exits once found, making cost O(1) vs line length.
func extractTopLevelType(line []byte) string {
	depth := 0
	for i := 0; i < len(line); {
		switch line[i] {
		case '"':
			if depth == 1 && bytes.HasPrefix(line[i:], typeKey) {
				val, isKey := typeValue(line, i+len(typeKey))
				if isKey {
					return val // found the "type" key, done regardless of value
				}
				// "type" appeared as a value, not a key. Continue scanning.
			}
			i = skipJSONString(line, i)
		case '{':
			depth++
			i++
		case '}':
			depth--
			i++
		default:
			i++
		}
	}
	return ""
}

// typeValue checks whether pos follows a JSON key (expects : then value).
// isKey=false means "type" appeared as a value, and the caller should
// keep scanning.
func typeValue(line []byte, pos int) (val string, isKey bool) {
	i := skipSpaces(line, pos)
	if i >= len(line) || line[i] != ':' {
		return "", false // no colon, this was a value not a key
	}
	i = skipSpaces(line, i+1)
	if i >= len(line) || line[i] != '"' {
		return "", true // key with non-string value (null, number, etc.)
	}
	i++ // past opening quote

	end := bytes.IndexByte(line[i:], '"')
	if end < 0 || end > 24 {
		return "", true
	}
	return string(line[i : i+end]), true
}

// skipJSONString advances past a JSON string starting at the opening quote.
func skipJSONString(line []byte, i int) int {
	i++ // skip opening quote
	for i < len(line) {
		switch line[i] {
		case '\\':
			i += 2
		case '"':
			return i + 1
		default:
			i++
		}
	}
	return i
}

func skipSpaces(line []byte, i int) int {
	for i < len(line) && line[i] == ' ' {
		i++
	}
	return i
}

// extractTimestampBytes extracts the timestamp field via byte scanning.
func extractTimestampBytes(line []byte) (time.Time, bool) {
	for _, pat := range [][]byte{patTimestamp1, patTimestamp2} {
		idx := bytes.Index(line, pat)
		if idx < 0 {
			continue
		}
		start := idx + len(pat)
		end := bytes.IndexByte(line[start:], '"')
		if end < 0 || end > 40 {
			continue
		}
		ts, err := time.Parse(time.RFC3339Nano, string(line[start:start+end]))
		if err != nil {
			return time.Time{}, false
		}
		return ts, true
	}
	return time.Time{}, false
}
