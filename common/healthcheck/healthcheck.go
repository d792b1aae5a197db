package healthcheck

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/bytearena/skirmish/common/utils"
)

type Check struct {
	Name   string `json:"name"`
	Status bool   `json:"status"`
	Error  string `json:"error,omitempty"`
}

type Response struct {
	Checks     []Check `json:"checks"`
	StatusCode int     `json:"statuscode"`
}

// Checker reports an error when the checked dependency is unhealthy
type Checker func() error

type namedChecker struct {
	name    string
	checker Checker
}

// HealthCheck serves the state of the registered checkers as JSON
type HealthCheck struct {
	lock     sync.RWMutex
	checkers []namedChecker
}

func NewHealthCheck() *HealthCheck {
	return &HealthCheck{}
}

func (hc *HealthCheck) Register(name string, checker Checker) {
	hc.lock.Lock()
	hc.checkers = append(hc.checkers, namedChecker{name: name, checker: checker})
	hc.lock.Unlock()
}

// Run evaluates every checker in registration order
func (hc *HealthCheck) Run() Response {
	hc.lock.RLock()
	checkers := make([]namedChecker, len(hc.checkers))
	copy(checkers, hc.checkers)
	hc.lock.RUnlock()

	res := Response{
		Checks:     make([]Check, 0, len(checkers)),
		StatusCode: http.StatusOK,
	}

	for _, named := range checkers {
		check := Check{Name: named.name, Status: true}

		if err := named.checker(); err != nil {
			check.Status = false
			check.Error = err.Error()
			res.StatusCode = http.StatusInternalServerError
		}

		res.Checks = append(res.Checks, check)
	}

	return res
}

func (hc *HealthCheck) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	res := hc.Run()

	data, err := json.Marshal(res)
	if err != nil {
		utils.Logger().Error().Err(err).Str("service", "healthcheck").Msg("failed to marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.StatusCode)
	w.Write(data)
}
