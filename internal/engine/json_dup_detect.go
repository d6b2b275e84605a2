package engine

import "io"

// DetectDuplicateKeys drains src and reports every duplicated object key with
// its JSON Pointer. maxIssues < 0 means unlimited; 0 disables reporting; > 0
// stops after that many issues and appends a truncated marker.
func DetectDuplicateKeys(src TokenSource, maxIssues int) []SimpleIssue {
	if maxIssues == 0 {
		return nil
	}
	var issues []SimpleIssue
	full := false
	enforced := WrapWithEnforcement(src, EnforceOptions{
		OnDuplicate: DupWarn,
		IssueSink: func(si SimpleIssue) {
			if full {
				return
			}
			issues = append(issues, si)
			if maxIssues > 0 && len(issues) >= maxIssues {
				issues = append(issues, SimpleIssue{Code: "truncated", Path: "/", Message: "max issues reached"})
				full = true
			}
		},
	})
	for !full {
		if _, err := enforced.NextToken(); err != nil {
			if err != io.EOF {
				issues = append(issues, SimpleIssue{Code: "parse_error", Path: "/", Message: err.Error()})
			}
			break
		}
	}
	return issues
}
