package party

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	resultDb "github.com/partyhost/partyhost/internal/database/result/database"
	"github.com/partyhost/partyhost/internal/logging"
)

// HandleResults serves GET /sessions/{code}/results.
func (m *Manager) HandleResults() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logging.FromContext(r.Context()).Named("party.Manager.HandleResults")

		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/sessions/"), "/"), "/")
		if len(parts) != 2 || parts[0] == "" || parts[1] != "results" {
			http.NotFound(w, r)
			return
		}

		list, err := m.Results(parts[0])
		if errors.Is(err, resultDb.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			logger.Errorf("results of %s: %v", parts[0], err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(list); err != nil {
			logger.Warnf("encode results of %s: %v", parts[0], err)
		}
	})
}
