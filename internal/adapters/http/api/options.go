package api

import "github.com/okian/gigrank/pkg/logger"

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithMaxLimit caps the limit accepted by the recommendation endpoints.
func WithMaxLimit(n int) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithDefaultLimit sets the limit used when a request omits one.
func WithDefaultLimit(n int) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.defaultLimit = n
		}
	}
}

// WithLogger sets the logger used by the request middleware.
func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		s.logger = l
	}
}
