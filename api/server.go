// Package api - Thin HTTP layer over the tree and trace builders
// The API is ONLY responsible for: input decoding, build orchestration, output serialization.
package api

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Shopify/visualization-tools/adapters/treespec"
	"github.com/Shopify/visualization-tools/core/calc"
	"github.com/Shopify/visualization-tools/core/format"
	"github.com/Shopify/visualization-tools/core/pathcodec"
	"github.com/Shopify/visualization-tools/core/render"
	"github.com/Shopify/visualization-tools/core/table"
	"github.com/Shopify/visualization-tools/core/traces"
	"github.com/Shopify/visualization-tools/core/tree"
	"github.com/Shopify/visualization-tools/internal/config"
	"github.com/Shopify/visualization-tools/internal/errors"
	"github.com/Shopify/visualization-tools/internal/logging"
)

// MaxBodyBytes caps request bodies
const MaxBodyBytes = 32 << 20

// Server is the API server
type Server struct {
	mux       *http.ServeMux
	version   string
	cfg       *config.Config
	renderers *render.Registry
	logger    *zap.Logger
}

// NewServer creates a new API server. A nil cfg uses config.Default().
func NewServer(version string, cfg *config.Config, logger *zap.Logger) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Server{
		mux:       http.NewServeMux(),
		version:   version,
		cfg:       cfg,
		renderers: render.DefaultRegistry(),
		logger:    logging.Or(logger).With(zap.String("component", "api")),
	}
	s.registerRoutes()
	return s
}

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /tree", s.handleTree)
	s.mux.HandleFunc("POST /traces", s.handleTraces)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /version", s.handleVersion)
}

// handleTree handles POST /tree
func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req TreeRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	resp, err := s.buildTree(&req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp.InputHash = computeInputHash(&req)

	s.logger.Info("tree request",
		zap.String("tree_id", resp.ID),
		zap.String("format", resp.Format),
		zap.Int("nodes", resp.Nodes),
		zap.Duration("duration", time.Since(start)),
	)
	s.writeJSON(w, resp, http.StatusOK)
}

func (s *Server) buildTree(req *TreeRequest) (*TreeResponse, error) {
	rows, err := req.Table.table()
	if err != nil {
		return nil, err
	}

	opts := tree.Options{
		Codec:    pathcodec.Codec{Separator: s.cfg.Tree.Separator, Root: s.cfg.Tree.RootToken},
		RootName: s.cfg.Tree.RootName,
		Logger:   s.logger,
	}
	var spec *format.Spec
	proportion := req.ProportionMetric
	if req.Spec != "" {
		ts, err := treespec.Parse([]byte(req.Spec), "request.hcl")
		if err != nil {
			return nil, err
		}
		opts.Levels = ts.Options.Levels
		opts.Metrics = ts.Options.Metrics
		opts.Codec = opts.Codec.Override(ts.Options.Codec)
		if ts.Options.RootName != "" {
			opts.RootName = ts.Options.RootName
		}
		opts.Calculations = ts.Options.Calculations
		spec = ts.Format
		if proportion == "" {
			proportion = ts.ProportionMetric
		}
	}
	if len(req.Levels) > 0 {
		opts.Levels = req.Levels
	}
	if len(req.Metrics) > 0 {
		opts.Metrics = req.Metrics
	}
	if len(req.Calculations) > 0 {
		if opts.Calculations == nil {
			opts.Calculations = tree.NewCalculations()
		}
		if err := calc.Register(opts.Calculations, req.Calculations...); err != nil {
			return nil, err
		}
	}

	name := req.Format
	if name == "" {
		name = s.cfg.Output.DefaultFormat
	}
	formatter, err := s.renderers.Get(render.Format(name))
	if err != nil {
		return nil, err
	}

	t, err := tree.Build(rows, opts)
	if err != nil {
		return nil, err
	}
	labeler, err := render.NewLabeler(t, spec)
	if err != nil {
		return nil, err
	}
	labeler.ProportionMetric = proportion
	labeler.EdgeDigits = s.cfg.Output.EdgeDigits

	resp := &TreeResponse{
		ID:       t.ID.String(),
		Format:   name,
		Nodes:    t.Len(),
		Warnings: t.Warnings(),
	}
	if formatter.Format() == render.FormatJSON {
		if resp.Tree, err = render.NewDocument(t, labeler); err != nil {
			return nil, err
		}
		return resp, nil
	}
	var buf bytes.Buffer
	if err := formatter.Render(&buf, t, labeler); err != nil {
		return nil, err
	}
	resp.Output = buf.String()
	return resp, nil
}

// handleTraces handles POST /traces
func (s *Server) handleTraces(w http.ResponseWriter, r *http.Request) {
	var req TracesRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	rows, err := req.Table.table()
	if err != nil {
		s.writeError(w, err)
		return
	}
	opts := traces.Options{
		X:           req.X,
		Value:       req.Value,
		Ratio:       req.Ratio,
		PlotBy:      req.PlotBy,
		ColorBy:     req.ColorBy,
		Columns:     s.cfg.Traces.Columns,
		MaxSubplots: s.cfg.Traces.MaxSubplots,
		FirstSeen:   req.FirstSeen,
		KeepGrain:   req.KeepGrain,
		Logger:      s.logger,
	}
	if req.Columns > 0 {
		opts.Columns = req.Columns
	}
	fig, err := traces.Build(rows, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, &TracesResponse{
		InputHash: computeInputHash(&req),
		Figure:    fig,
		Warnings:  fig.Warnings,
	}, http.StatusOK)
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"status":  "healthy",
		"version": s.version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	}, http.StatusOK)
}

// handleVersion handles GET /version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	formats := make([]string, 0)
	for _, f := range s.renderers.Formats() {
		formats = append(formats, string(f))
	}
	s.writeJSON(w, map[string]interface{}{
		"version": s.version,
		"formats": formats,
	}, http.StatusOK)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.TypeInput, "invalid request body", err)
	}
	return nil
}

func (t TableInput) table() (*table.Table, error) {
	if len(t.Columns) == 0 {
		return nil, errors.Input("table.columns is required")
	}
	return table.Infer(t.Columns, t.Rows)
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to write response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.TypeOf(err)
	if code == "" {
		code = errors.TypeInternal
	}
	body := ErrorBody{Code: string(code), Message: err.Error()}
	var e *errors.Error
	if stderrors.As(err, &e) {
		body.Context = e.Context
	}
	status := statusOf(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	} else {
		s.logger.Debug("request rejected", zap.Error(err))
	}
	s.writeJSON(w, ErrorResponse{Error: body}, status)
}

// statusOf maps an error type to an HTTP status
func statusOf(t errors.Type) int {
	switch t {
	case errors.TypeInput, errors.TypeParsing, errors.TypeConfig:
		return http.StatusBadRequest
	case errors.TypeEncoding, errors.TypeDuplicateNode, errors.TypeMetricNotFound,
		errors.TypeAttributeNotFound, errors.TypeFormatKind, errors.TypeCardinality,
		errors.TypeDivisionByZero:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the server
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}

func computeInputHash(req interface{}) string {
	data, _ := json.Marshal(req)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
