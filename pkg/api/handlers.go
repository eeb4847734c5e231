package api

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/ssargent/udflash/pkg/flash"
	"github.com/ssargent/udflash/pkg/userdata"
)

const defaultJournalLimit = 50

// Server holds the API server state
type Server struct {
	mu      sync.Mutex
	store   RecordStore
	journal flash.Journaler // nil when the device keeps no journal
	config  ServerConfig
	metrics *Metrics
}

// NewServer creates a new API server. journal may be nil.
func NewServer(store RecordStore, journal flash.Journaler, config ServerConfig, metrics *Metrics) *Server {
	return &Server{
		store:   store,
		journal: journal,
		config:  config,
		metrics: metrics,
	}
}

// handleHealth reports the API as healthy
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// handleGetRecord reads and validates the record
func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	res, err := s.store.Read()
	s.mu.Unlock()
	if err != nil {
		sendError(w, err.Error(), errStatus(err))
		return
	}

	state := userdata.StateOf(res)
	if s.metrics != nil {
		s.metrics.RecordState(state)
	}

	sendSuccess(w, s.recordResponse(res, state))
}

// handleErase erases the record
func (s *Server) handleErase(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	err := s.store.Erase()
	s.mu.Unlock()
	if err != nil {
		sendError(w, err.Error(), errStatus(err))
		return
	}

	sendSuccess(w, OperationResponse{
		Result: userdata.ResultString(nil),
		State:  userdata.StateErased.String(),
	})
}

// handleWriteStep performs one step of the write protocol
func (s *Server) handleWriteStep(w http.ResponseWriter, r *http.Request) {
	step, err := strconv.ParseUint(chi.URLParam(r, "step"), 10, 32)
	if err != nil {
		sendError(w, "Step must be a non-negative integer", http.StatusBadRequest)
		return
	}

	var req StepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Value == nil {
		sendError(w, "Value is required", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	err = s.store.WriteStep(uint32(step), uint32(*req.Value))
	var state userdata.State
	var stateErr error
	if err == nil {
		var res userdata.ReadResult
		res, stateErr = s.store.Read()
		state = userdata.StateOf(res)
	}
	s.mu.Unlock()

	if err != nil {
		sendError(w, err.Error(), errStatus(err))
		return
	}

	resp := OperationResponse{Result: userdata.ResultString(nil)}
	if stateErr == nil {
		resp.State = state.String()
		if s.metrics != nil {
			s.metrics.RecordState(state)
		}
	}
	sendSuccess(w, resp)
}

// handleJournal lists the most recent hardware operations
func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		sendError(w, "Flash backend keeps no journal", http.StatusNotFound)
		return
	}

	limit := defaultJournalLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			sendError(w, "Limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	s.mu.Lock()
	entries, err := s.journal.Journal(limit)
	s.mu.Unlock()
	if err != nil {
		sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []flash.JournalEntry{}
	}

	sendSuccess(w, entries)
}

func (s *Server) recordResponse(res userdata.ReadResult, state userdata.State) RecordResponse {
	data := make([]Word, len(res.Record.Data))
	for i, v := range res.Record.Data {
		data[i] = Word(v)
	}

	resp := RecordResponse{
		BaseAddress: Word(s.store.BaseAddress()),
		Data:        data,
		Checksum:    Word(res.Record.Checksum),
		Computed:    Word(res.Computed),
		Valid:       res.Valid,
		State:       state.String(),
		Result:      userdata.ResultString(res.Err()),
		Raw:         hex.EncodeToString(res.Raw),
	}
	if next, ok := state.NextStep(); ok {
		n := int(next)
		resp.NextStep = &n
	}
	return resp
}

// errStatus maps engine errors onto HTTP status codes
func errStatus(err error) int {
	switch {
	case errors.Is(err, userdata.ErrInvalidStep):
		return http.StatusBadRequest
	case errors.Is(err, userdata.ErrAlreadyWritten):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
