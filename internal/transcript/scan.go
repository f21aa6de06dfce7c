package transcript

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
)

// SessionFile is a JSONL transcript found during directory scanning.
type SessionFile struct {
	Path          string
	Project       string // decoded display name (e.g., "gitlore")
	ProjectDir    string // raw directory name
	SessionID     string // session key, parent-qualified for subagents
	IsSubagent    bool
	ParentSession string // for subagents: parent session UUID
}

// ScanDir walks the Claude projects directory and discovers all JSONL
// session files, main sessions and subagents alike.
func ScanDir(claudeDir string) ([]SessionFile, error) {
	projectsDir := filepath.Join(claudeDir, "projects")

	info, err := os.Stat(projectsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, nil
	}

	var files []SessionFile

	err = filepath.WalkDir(projectsDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // intentionally skip unreadable entries
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(path) != ".jsonl" {
			return nil
		}

		name := d.Name()
		rel, _ := filepath.Rel(projectsDir, path)
		parts := strings.Split(rel, string(filepath.Separator))
		if len(parts) < 2 {
			return nil
		}

		projectDir := parts[0]
		sf := SessionFile{
			Path:       path,
			Project:    decodeProjectName(projectDir),
			ProjectDir: projectDir,
		}

		// Subagent transcripts live under the parent session:
		// <project>/<session-uuid>/subagents/agent-<id>.jsonl
		if len(parts) >= 4 && parts[2] == "subagents" {
			sf.IsSubagent = true
			sf.ParentSession = parts[1]
			// Parent-qualified key so agent IDs cannot collide across sessions.
			sf.SessionID = parts[1] + "/" + strings.TrimSuffix(name, ".jsonl")
		} else {
			// Main session: <project>/<session-uuid>.jsonl
			sf.SessionID = strings.TrimSuffix(name, ".jsonl")
		}

		files = append(files, sf)
		return nil
	})

	return files, err
}

// decodeProjectName extracts a human-readable project name from the
// encoded directory name. Claude Code encodes absolute paths by
// replacing "/" with "-", so:
//
//	"-Users-alice-projects-gitlore" -> "gitlore"
//	"-Users-alice-projects-my-cool-project" -> "my-cool-project"
//
// We find the last known path component ("projects", "repos", "src",
// ...) and take everything after it. Falls back to the last non-empty
// segment.
func decodeProjectName(dirName string) string {
	parts := strings.Split(dirName, "-")

	knownParents := map[string]bool{
		"projects": true, "repos": true, "src": true,
		"code": true, "workspace": true, "dev": true,
	}

	for i := len(parts) - 2; i >= 0; i-- {
		if knownParents[strings.ToLower(parts[i])] {
			name := strings.Join(parts[i+1:], "-")
			if name != "" {
				return name
			}
		}
	}

	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] != "" {
			return parts[i]
		}
	}

	return dirName
}

// SessionSample pairs a discovered transcript with its tail state.
type SessionSample struct {
	File  SessionFile
	State TailState
}

// ProgressFunc is called during sampling to report progress.
type ProgressFunc func(current, total int)

// SampleAll reads the tail of every discovered session using a bounded
// worker pool. Sessions whose transcript cannot be read are dropped,
// and the result keeps the input order.
func SampleAll(files []SessionFile, progressFn ProgressFunc) []SessionSample {
	if len(files) == 0 {
		return nil
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	work := make(chan int, len(files))
	results := make([]*TailState, len(files))
	var wg sync.WaitGroup
	var processed atomic.Int64

	for i := range files {
		work <- i
	}
	close(work)

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				if st, err := ReadTail(files[idx].Path); err == nil {
					results[idx] = &st
				}
				n := processed.Add(1)
				if progressFn != nil {
					progressFn(int(n), len(files))
				}
			}
		}()
	}

	wg.Wait()

	samples := make([]SessionSample, 0, len(files))
	for i, st := range results {
		if st == nil {
			continue
		}
		samples = append(samples, SessionSample{File: files[i], State: *st})
	}
	return samples
}
