// Command sigserve is the thin HTTP front end for the sigparse library:
// a single POST /check-sig endpoint that parses the request body as one
// signature line of the dialect named by the sig_type query parameter and
// answers with a Pass/Fail JSON envelope. Like cmd/sigcheck it contains
// no parsing logic of its own.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/clamsig/sigparse"
	"github.com/clamsig/sigparse/observability"
	"github.com/clamsig/sigparse/sigtype"
)

type checkResponse struct {
	Result     string `json:"result"`
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	CompFLevel string `json:"comp_flevel,omitempty"`
}

func main() {
	addr := flag.String("addr", ":8999", "listen address")
	validate := flag.Bool("validate", false, "also run cross-field validation after a successful parse")
	flag.Parse()

	srv := &server{
		validate: *validate,
		logger:   observability.NopLogger{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/check-sig", srv.checkSig)

	httpSrv := &http.Server{
		Addr:         *addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := httpSrv.ListenAndServe(); err != nil {
		fmt.Fprintf(os.Stderr, "sigserve: %v\n", err)
		os.Exit(1)
	}
}

type server struct {
	validate bool
	logger   observability.Logger
}

func (s *server) checkSig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	ext := r.URL.Query().Get("sig_type")
	st, ok := sigtype.FromFileExtension(ext)
	if !ok || st.Unsupported() {
		writeJSON(w, checkResponse{Result: "Fail", Stderr: fmt.Sprintf("unsupported sig_type %q", ext)})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeJSON(w, checkResponse{Result: "Fail", Stderr: err.Error()})
		return
	}
	line := strings.TrimRight(string(body), "\r\n")

	sig, meta, err := sigparse.Parse(st, []byte(line))
	if err != nil {
		s.logger.Debug("parse failed", observability.String("sig_type", ext), observability.Error("err", err))
		writeJSON(w, checkResponse{Result: "Fail", Stderr: err.Error()})
		return
	}
	if s.validate {
		if verr := sig.Validate(); verr != nil {
			writeJSON(w, checkResponse{Result: "Fail", Stderr: verr.Error()})
			return
		}
	}

	resp := checkResponse{Result: "Pass"}
	if meta.FLevel != nil {
		resp.CompFLevel = meta.FLevel.String()
	}
	writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, resp checkResponse) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
