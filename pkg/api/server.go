// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package api implements the agent's local control endpoint: snapshot and
// status queries plus remote shutdown, served on the loopback interface only.
package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vitalsd/vitals-agent/pkg/health"
	"github.com/vitalsd/vitals-agent/pkg/util/log"
	"github.com/vitalsd/vitals-agent/pkg/version"
)

// SnapshotProvider exposes the latest published evaluation snapshot
type SnapshotProvider interface {
	Snapshot() *health.Snapshot
}

// Server is the agent's command endpoint
type Server struct {
	listener net.Listener
	srv      *http.Server
	provider SnapshotProvider
	stopper  func()
}

// NewServer returns a server bound to the given loopback address. stopper is
// invoked, once, when a stop request comes in.
func NewServer(addr string, provider SnapshotProvider, stopper func()) *Server {
	s := &Server{provider: provider, stopper: stopper}

	router := mux.NewRouter()
	router.HandleFunc("/agent/ping", s.ping).Methods("GET")
	router.HandleFunc("/agent/version", s.version).Methods("GET")
	router.HandleFunc("/agent/snapshot", s.snapshot).Methods("GET")
	router.HandleFunc("/agent/stop", s.stop).Methods("POST")

	s.srv = &http.Server{Addr: addr, Handler: router}
	return s
}

// Start begins serving. It returns once the listener is bound, so a caller
// observing a nil error can immediately reach the endpoint.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	s.listener = listener
	go func() {
		if err := s.srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Errorf("api server stopped: %v", err)
		}
	}()
	log.Infof("api server listening on %s", listener.Addr())
	return nil
}

// Addr returns the bound listener address, nil before Start
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop shuts the server down, waiting for in-flight requests
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "pong"})
}

func (s *Server) version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version": version.AgentVersion,
		"commit":  version.Commit,
	})
}

func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) {
	snap := s.provider.Snapshot()
	if snap == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no evaluation completed yet"})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) stop(w http.ResponseWriter, r *http.Request) {
	log.Infof("stop requested via api")
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "stopping"})
	go s.stopper()
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("unable to encode api response: %v", err)
	}
}
