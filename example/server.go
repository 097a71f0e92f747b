package main

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/RichardKnop/taskengine"
	"github.com/RichardKnop/taskengine/log"
)

type taskStateResponse struct {
	TaskUUID string      `json:"task_uuid"`
	State    string      `json:"state"`
	Result   interface{} `json:"result,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// newRouter exposes health, metrics and task states of the engine
func newRouter(engine *taskengine.App) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.Handle("/metrics", engine.GetMetrics().Handler())
	router.Get("/tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
		taskState := engine.AsyncResult(chi.URLParam(r, "id")).GetState()

		resp := taskStateResponse{
			TaskUUID: taskState.TaskUUID,
			State:    taskState.State,
			Result:   taskState.Result,
		}
		if taskState.Error != nil {
			resp.Error = taskState.Error.Error()
		}
		writeJSON(w, http.StatusOK, resp)
	})

	return router
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WARNING.Printf("Encoding response failed: %v", err)
	}
}
