package http

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/gorilla/mux"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"github.com/weaveworks/common/middleware"

	"github.com/kombineproject/kombine/pkg/build"
	konferr "github.com/kombineproject/kombine/pkg/errors"
	"github.com/kombineproject/kombine/pkg/kustomize"
	kombinemetrics "github.com/kombineproject/kombine/pkg/metrics"
)

var (
	requestDuration = stdprometheus.NewHistogramVec(stdprometheus.HistogramOpts{
		Namespace: "kombine",
		Name:      "request_duration_seconds",
		Help:      "Time (in seconds) spent serving HTTP requests.",
		Buckets:   stdprometheus.DefBuckets,
	}, []string{kombinemetrics.LabelMethod, kombinemetrics.LabelRoute, "status_code", "ws"})
)

func init() {
	stdprometheus.MustRegister(requestDuration)
}

// NewRouter declares the API routes plus a catch-all, so requests to
// unknown paths get a useful error rather than a bare 404.
func NewRouter() *mux.Router {
	r := NewAPIRouter()
	r.NewRoute().Name("NotFound").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusNotFound, MakeAPINotFound(r.URL.Path))
	})
	return r
}

// Server renders targets under a root directory over HTTP.
type Server struct {
	root    string
	version string
	builder *build.Builder
	logger  log.Logger
}

func NewServer(root, version string, builder *build.Builder, logger log.Logger) *Server {
	return &Server{root: root, version: version, builder: builder, logger: logger}
}

func NewHandler(s *Server, r *mux.Router) http.Handler {
	r.Get(Ping).HandlerFunc(s.Ping)
	r.Get(Version).HandlerFunc(s.Version)
	r.Get(BuildTarget).HandlerFunc(s.BuildTarget)
	r.Get(ListTargets).HandlerFunc(s.ListTargets)

	return middleware.Instrument{
		RouteMatcher: r,
		Duration:     requestDuration,
	}.Wrap(r)
}

func (s *Server) Ping(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) Version(w http.ResponseWriter, r *http.Request) {
	JSONResponse(w, r, s.version)
}

// resolveTarget turns the target query parameter into a directory
// under the serve root, refusing paths that escape it.
func (s *Server) resolveTarget(target string) (string, error) {
	dir := filepath.Clean(filepath.Join(s.root, target))
	if dir != s.root && !strings.HasPrefix(dir, s.root+string(filepath.Separator)) {
		return "", konferr.UserError(
			"The target requested is outside the directory being served.",
			fmt.Errorf("target %q escapes serve root", target))
	}
	return dir, nil
}

func (s *Server) BuildTarget(w http.ResponseWriter, r *http.Request) {
	target := mux.Vars(r)["target"]
	dir, err := s.resolveTarget(target)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	rendered, err := s.builder.Build(dir)
	if err != nil {
		s.logger.Log("err", err, "target", target)
		ErrorResponse(w, r, err)
		return
	}
	if pattern := r.URL.Query().Get("filter"); pattern != "" {
		rendered = build.Filter(rendered, pattern)
	}
	if negotiateContentType(r, []string{"application/x-yaml", "application/json"}) == "application/json" {
		objects := map[string]interface{}{}
		for _, id := range rendered.IDs() {
			objects[id] = rendered[id].Object()
		}
		JSONResponse(w, r, objects)
		return
	}
	body, err := rendered.MarshalSet()
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	YAMLResponse(w, r, body)
}

func (s *Server) ListTargets(w http.ResponseWriter, r *http.Request) {
	var targets []string
	err := filepath.Walk(s.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() && kustomize.IsTarget(path) {
			rel, err := filepath.Rel(s.root, path)
			if err != nil {
				return err
			}
			targets = append(targets, rel)
		}
		return nil
	})
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	if targets == nil {
		targets = []string{}
	}
	JSONResponse(w, r, targets)
}
