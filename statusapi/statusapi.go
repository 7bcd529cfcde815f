// Package statusapi serves read-only JSON status for a running Node: the
// current error code (if any) of the Node itself, of every Chassis, and of
// each Chassis's Scanners and ExecutionSets, plus the started state of the
// Node and of each Chassis. Cards, LogicChains, and Components are not
// listed in the status document. It has no command
// surface and no way to push configuration — that is explicitly out of
// scope (the interactive shell named in the Non-goals). Grounded on the
// teacher's main.go: same gorilla/mux router-and-handler shape, same
// map[string]interface{} JSON response convention.
package statusapi

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/foxtail-io/fxtnode/node"
)

// Server serves the status surface over HTTP.
type Server struct {
	node *node.Node
	http *http.Server
}

// New builds a Server bound to addr, serving n's status tree. It does not
// start listening until Start is called.
func New(addr string, n *node.Node) *Server {
	s := &Server{node: n}
	r := mux.NewRouter()
	r.HandleFunc("/", s.rootHandler).Methods(http.MethodGet)
	r.HandleFunc("/status", s.statusHandler).Methods(http.MethodGet)
	s.http = &http.Server{Addr: addr, Handler: r}
	return s
}

// Start binds the listen address and begins serving in the background.
// Only bind failures are returned; errors that occur after serving has
// begun (including http.ErrServerClosed after Stop) are not —
// those are the caller's fxtlog setup's concern, not this call's.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}
	go s.http.Serve(ln)
	return nil
}

// Stop closes the listener and every open connection at once
// (http.Server.Close); in-flight requests are not drained.
func (s *Server) Stop() error {
	return s.http.Close()
}

func (s *Server) rootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"service": "fxtnode-status"})
}

// statusDoc mirrors the Node/Chassis/Scanner/ExecutionSet tree, reporting
// each level's error code (omitted when healthy).
type statusDoc struct {
	Node    string       `json:"node_error,omitempty"`
	Started bool         `json:"started"`
	Chassis []chassisDoc `json:"chassis"`
}

type chassisDoc struct {
	Name          string            `json:"name"`
	Error         string            `json:"error,omitempty"`
	Started       bool              `json:"started"`
	Scanners      []scannerDoc      `json:"scanners"`
	ExecutionSets []executionSetDoc `json:"executionSets"`
}

type scannerDoc struct {
	Name  string `json:"name"`
	Error string `json:"error,omitempty"`
}

type executionSetDoc struct {
	Name  string `json:"name"`
	Error string `json:"error,omitempty"`
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	doc := statusDoc{Started: s.node.IsStarted()}
	if ferr := s.node.ErrorCode(); ferr != nil {
		doc.Node = ferr.Error()
	}

	for _, c := range s.node.Chassis() {
		cd := chassisDoc{Name: c.Name(), Started: c.Started()}
		if ferr := c.ErrorCode(); ferr != nil {
			cd.Error = ferr.Error()
		}
		for _, sc := range c.Scanners() {
			sd := scannerDoc{Name: sc.Name()}
			if ferr := sc.ErrorCode(); ferr != nil {
				sd.Error = ferr.Error()
			}
			cd.Scanners = append(cd.Scanners, sd)
		}
		for _, es := range c.ExecutionSets() {
			ed := executionSetDoc{Name: es.Name()}
			if ferr := es.ErrorCode(); ferr != nil {
				ed.Error = ferr.Error()
			}
			cd.ExecutionSets = append(cd.ExecutionSets, ed)
		}
		doc.Chassis = append(doc.Chassis, cd)
	}

	json.NewEncoder(w).Encode(doc)
}
