package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/gatehouse-io/gatehouse/internal/config"
)

// BranchInfo describes one branch directory under the log root.
type BranchInfo struct {
	Dir       string // sanitized directory name
	AuditPath string
	SizeBytes int64
}

// ListBranches returns the branch log directories under logRoot, sorted by
// name. Directories without an audit file are skipped. Discovery only
// stats the audit files; it runs on every shipper sweep, so it must not
// scan their contents. Use CountEvents where a count is wanted.
func ListBranches(logRoot string) ([]BranchInfo, error) {
	entries, err := os.ReadDir(logRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var branches []BranchInfo
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		auditPath := filepath.Join(logRoot, e.Name(), config.AuditFileName)
		info, err := os.Stat(auditPath)
		if err != nil {
			continue
		}

		branches = append(branches, BranchInfo{
			Dir:       e.Name(),
			AuditPath: auditPath,
			SizeBytes: info.Size(),
		})
	}

	sort.Slice(branches, func(i, j int) bool {
		return branches[i].Dir < branches[j].Dir
	})
	return branches, nil
}

// ReadEvents reads up to limit most-recent events from a branch's audit
// file. limit <= 0 means all events. Malformed lines are skipped so a
// partially corrupted trail still yields useful data.
func ReadEvents(logRoot, branch string, limit int) ([]Event, error) {
	path := config.BranchAuditFile(logRoot, branch)
	return ReadEventsFile(path, limit)
}

// ReadEventsFile reads events from an audit.jsonl path directly.
func ReadEventsFile(path string, limit int) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			continue
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return events, err
	}

	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}
	return events, nil
}

// CountEvents counts the non-empty lines of an audit file. This is a full
// file scan; callers that only need existence or size should stick to
// ListBranches.
func CountEvents(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		if len(scanner.Bytes()) > 0 {
			count++
		}
	}
	return count, scanner.Err()
}
