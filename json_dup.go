package reshape

import (
	"io"

	eng "github.com/reoring/reshape/internal/engine"
)

// DetectDuplicateKeys reports every duplicated object key in a JSON document,
// each at the pointer of the repeated member. maxIssues < 0 means unlimited.
func DetectDuplicateKeys(data []byte, maxIssues int) Issues {
	return fromEngineIssues(eng.DetectDuplicateKeys(eng.NewBytes(data), maxIssues))
}

// DetectDuplicateKeysReader is DetectDuplicateKeys over a reader. It consumes
// the reader fully.
func DetectDuplicateKeysReader(r io.Reader, maxIssues int) Issues {
	return fromEngineIssues(eng.DetectDuplicateKeys(eng.NewReader(r), maxIssues))
}

func fromEngineIssues(si []eng.SimpleIssue) Issues {
	var iss Issues
	for _, s := range si {
		iss = AppendIssues(iss, Issue{Code: s.Code, Path: s.Path, Message: s.Message})
	}
	return iss
}
