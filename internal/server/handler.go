package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"

	"rxmcp/internal/jsonrpc"
	"rxmcp/internal/tools"
)

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleInfo)
	r.Get("/health", s.handleHealth)
	r.Get("/tools", s.handleTools)
	r.Method(http.MethodGet, "/metrics", s.meters.Handler())

	r.Post("/mcp", s.handleMCP)
	r.Get("/mcp", s.handleSSE)
	r.Get("/mcp/ws", s.handleWS)

	r.Get("/.well-known/oauth-authorization-server", s.handleAuthServerMetadata)
	r.Get("/.well-known/oauth-protected-resource", s.handleProtectedResourceMetadata)

	return r
}

// requestLogger logs each request through zerolog
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		s.logger.Debug().
			Str("requestId", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remoteAddr", r.RemoteAddr).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

// handleMCP handles JSON-RPC over HTTP POST
func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	body, err := s.readBody(r)
	if err != nil {
		s.writeJSONRPCError(w, jsonrpc.NewError(jsonrpc.CodeInvalidRequest, err.Error()))
		return
	}

	// Upstream work must survive a client disconnect
	ctx := context.WithoutCancel(r.Context())

	reply := s.dispatcher.HandleMessage(ctx, body)
	if reply == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(reply)
}

func (s *Server) readBody(r *http.Request) ([]byte, error) {
	limit := s.cfg.MaxBodySize
	if limit <= 0 {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body")
		}
		return body, nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body")
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("request body too large")
	}
	return body, nil
}

// handleSSE keeps a server-sent event stream open with periodic comments
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	id := s.sessions.Add(cancel)
	defer s.sessions.Remove(id)

	fmt.Fprintf(w, ": connected %s\n\n", id)
	flusher.Flush()

	interval := s.cfg.GetKeepAliveDuration()
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

type toolsResponse struct {
	Tools []tools.Definition `json:"tools"`
	Count int                `json:"count"`
}

// handleTools lists the registered tools
func (s *Server) handleTools(w http.ResponseWriter, _ *http.Request) {
	defs := s.registry.List()
	writeJSON(w, http.StatusOK, toolsResponse{Tools: defs, Count: len(defs)})
}

type healthResponse struct {
	Status   string `json:"status"`
	Cache    string `json:"cache"`
	Upstream string `json:"upstream"`
	Breaker  string `json:"circuitBreaker"`
	Sessions int    `json:"sessions"`
	Uptime   string `json:"uptime"`
}

// handleHealth reports liveness. An open breaker marks the server degraded.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	state := s.client.BreakerState()
	status := "ok"
	if state == "open" {
		status = "degraded"
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:   status,
		Cache:    s.cfg.Cache.Backend,
		Upstream: s.cfg.Upstream.BaseURL,
		Breaker:  state,
		Sessions: s.sessions.Len(),
		Uptime:   time.Since(s.started).Round(time.Second).String(),
	})
}

type infoResponse struct {
	Name      string            `json:"name"`
	Version   string            `json:"version"`
	Protocol  string            `json:"protocol"`
	Endpoints map[string]string `json:"endpoints"`
	Tools     []string          `json:"tools"`
}

// handleInfo describes the server
func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, 0, len(s.registry.List()))
	for _, def := range s.registry.List() {
		names = append(names, def.Name)
	}

	writeJSON(w, http.StatusOK, infoResponse{
		Name:     s.cfg.ServerName,
		Version:  Version,
		Protocol: "mcp",
		Endpoints: map[string]string{
			"mcp":       "/mcp",
			"websocket": "/mcp/ws",
			"tools":     "/tools",
			"health":    "/health",
			"metrics":   "/metrics",
		},
		Tools: names,
	})
}

// handleAuthServerMetadata advertises that no authorization is required
func (s *Server) handleAuthServerMetadata(w http.ResponseWriter, r *http.Request) {
	base := baseURL(r)
	writeJSON(w, http.StatusOK, map[string]any{
		"issuer":                                base,
		"response_types_supported":              []string{},
		"grant_types_supported":                 []string{},
		"token_endpoint_auth_methods_supported": []string{"none"},
	})
}

// handleProtectedResourceMetadata describes /mcp as a resource without authorization servers
func (s *Server) handleProtectedResourceMetadata(w http.ResponseWriter, r *http.Request) {
	base := baseURL(r)
	writeJSON(w, http.StatusOK, map[string]any{
		"resource":                 base + "/mcp",
		"authorization_servers":    []string{},
		"bearer_methods_supported": []string{},
	})
}

func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// writeJSONRPCError writes a JSON-RPC error response with a null id
func (s *Server) writeJSONRPCError(w http.ResponseWriter, rpcErr *jsonrpc.Error) {
	data, err := jsonrpc.NewErrorResponse(jsonrpc.NewIDNull(), rpcErr).Bytes()
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to marshal response")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}
