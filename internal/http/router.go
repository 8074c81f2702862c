package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux，外层统一加 CORS
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	withCORS(r.mux).ServeHTTP(w, req)
}

// RegisterVitalsRoutes 注册生命体征路由
// 旧路径（/data、/livedata、/temp、/spodata、/status）与现有前端保持一致
func (r *Router) RegisterVitalsRoutes(v *VitalsHandler) {
	routes := []struct {
		method  string
		paths   []string
		handler http.HandlerFunc
	}{
		{http.MethodGet, []string{"/data", "/api/v1/vitals/reading"}, v.GetReading},
		{http.MethodPost, []string{"/livedata", "/api/v1/vitals/mode/live"}, v.EnableLive},
		{http.MethodPost, []string{"/temp", "/api/v1/vitals/mode/pause"}, v.Pause},
		{http.MethodPost, []string{"/spodata", "/api/v1/vitals/mode/recorded"}, v.SelectRecorded},
		{http.MethodGet, []string{"/status", "/api/v1/vitals/status"}, v.Status},
		{http.MethodGet, []string{"/api/v1/vitals/stats"}, v.Stats},
	}

	for _, rt := range routes {
		for _, p := range rt.paths {
			r.Handle(p, onlyMethod(rt.method, rt.handler))
		}
	}
}

func onlyMethod(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != method {
			w.Header().Set("Allow", method)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h(w, req)
	}
}
