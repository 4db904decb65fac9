package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
)

const maxBodySize = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "request body too large or unreadable")
		return nil, false
	}
	if len(body) == 0 {
		body = []byte("{}")
	}
	return body, true
}

// storeError writes the response for a repository error.
func (s *Server) storeError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, notFound)
		return
	}
	s.log.Error("store failure", "method", r.Method, "path", r.URL.Path, "err", err)
	writeError(w, http.StatusInternalServerError, "Server error")
}

func (s *Server) listBoards(w http.ResponseWriter, r *http.Request) {
	boards, err := s.db.ListBoards(r.Context(), ownerFrom(r.Context()))
	if err != nil {
		s.storeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, boards)
}

func (s *Server) createBoard(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeValid(boardSchema, body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	owner := ownerFrom(r.Context())
	b, err := s.db.CreateBoard(r.Context(), owner, req.Name)
	if err != nil {
		s.storeError(w, r, err, "")
		return
	}
	s.hub.Publish(owner, Change{Type: ChangeBoardCreated, BoardID: b.ID})
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) archiveBoard(archived bool) http.HandlerFunc {
	change := ChangeBoardRestored
	if archived {
		change = ChangeBoardArchived
	}
	return func(w http.ResponseWriter, r *http.Request) {
		owner := ownerFrom(r.Context())
		b, err := s.db.SetArchived(r.Context(), owner, mux.Vars(r)["id"], archived)
		if err != nil {
			s.storeError(w, r, err, "Board not found")
			return
		}
		s.hub.Publish(owner, Change{Type: change, BoardID: b.ID})
		writeJSON(w, http.StatusOK, b)
	}
}

func (s *Server) deleteBoard(w http.ResponseWriter, r *http.Request) {
	owner := ownerFrom(r.Context())
	id := mux.Vars(r)["id"]
	if err := s.db.DeleteBoard(r.Context(), owner, id); err != nil {
		s.storeError(w, r, err, "Board not found")
		return
	}
	s.hub.Publish(owner, Change{Type: ChangeBoardDeleted, BoardID: id})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Board deleted"})
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.db.ListTasks(r.Context(), ownerFrom(r.Context()), mux.Vars(r)["boardId"])
	if err != nil {
		s.storeError(w, r, err, "Board not found")
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	var t TaskRow
	if err := decodeValid(createTaskSchema, body, &t); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	owner := ownerFrom(r.Context())
	created, err := s.db.CreateTask(r.Context(), owner, t)
	if err != nil {
		s.storeError(w, r, err, "Board not found")
		return
	}
	s.hub.Publish(owner, Change{Type: ChangeTaskCreated, BoardID: created.BoardID, TaskID: created.ID})
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	var p TaskPatch
	if err := decodeValid(updateTaskSchema, body, &p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	owner := ownerFrom(r.Context())
	updated, err := s.db.UpdateTask(r.Context(), owner, mux.Vars(r)["id"], p)
	if err != nil {
		s.storeError(w, r, err, "Task not found")
		return
	}
	s.hub.Publish(owner, Change{Type: ChangeTaskUpdated, BoardID: updated.BoardID, TaskID: updated.ID})
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) togglePin(w http.ResponseWriter, r *http.Request) {
	owner := ownerFrom(r.Context())
	updated, err := s.db.TogglePin(r.Context(), owner, mux.Vars(r)["id"])
	if err != nil {
		s.storeError(w, r, err, "Task not found")
		return
	}
	s.hub.Publish(owner, Change{Type: ChangeTaskUpdated, BoardID: updated.BoardID, TaskID: updated.ID})
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	owner := ownerFrom(r.Context())
	deleted, err := s.db.DeleteTask(r.Context(), owner, mux.Vars(r)["id"])
	if err != nil {
		s.storeError(w, r, err, "Task not found")
		return
	}
	s.hub.Publish(owner, Change{Type: ChangeTaskDeleted, BoardID: deleted.BoardID, TaskID: deleted.ID})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted"})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
