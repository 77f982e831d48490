// Package health combines the readiness checks of a process into one JSON report.
package health

import (
	"context"
	"net/http"

	jsoniter "github.com/json-iterator/go"
)

type Check struct {
	Name  string
	Check func(context.Context, bool) (int, string, error)
}

type dependency struct {
	Resource string `json:"resource"`
	Status   int    `json:"status"`
	Error    string `json:"error,omitempty"`
	Message  string `json:"message,omitempty"`
}

type report struct {
	Status       int          `json:"status"`
	Dependencies []dependency `json:"dependencies"`
}

// CheckAll runs every check and returns http.StatusOK only when all of them pass, together
// with a JSON report of each dependency.
func CheckAll(ctx context.Context, checkLiveness bool, checks []Check) (int, string, error) {
	r := report{
		Status:       http.StatusOK,
		Dependencies: make([]dependency, 0, len(checks)),
	}

	for _, check := range checks {
		status, message, err := check.Check(ctx, checkLiveness)
		if err != nil || status != http.StatusOK {
			r.Status = http.StatusServiceUnavailable
		}

		dep := dependency{
			Resource: check.Name,
			Status:   status,
			Message:  message,
		}

		if err != nil {
			dep.Error = err.Error()
		}

		r.Dependencies = append(r.Dependencies, dep)
	}

	b, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(r)
	if err != nil {
		return http.StatusInternalServerError, "", err
	}

	return r.Status, string(b), nil
}
