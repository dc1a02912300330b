// Package net provides utilities for working with request contexts
package net

import (
	"context"

	"phishguard/internal/platform/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// WithRequest annotates ctx with the request id for chi readers and the request logger
func WithRequest(ctx context.Context, reqID string) context.Context {
	if reqID == "" {
		return ctx
	}
	ctx = context.WithValue(ctx, chimw.RequestIDKey, reqID)
	return logger.WithRequest(ctx, reqID)
}

// RequestID returns the request id on the context if present
func RequestID(ctx context.Context) string {
	return chimw.GetReqID(ctx)
}

// ClientIP returns the host part of remoteAddr, or remoteAddr itself when it has no port
func ClientIP(remoteAddr string) string {
	for i := len(remoteAddr) - 1; i >= 0; i-- {
		switch remoteAddr[i] {
		case ':':
			host := remoteAddr[:i]
			if len(host) > 1 && host[0] == '[' && host[len(host)-1] == ']' {
				return host[1 : len(host)-1]
			}
			return host
		case ']':
			return remoteAddr
		}
	}
	return remoteAddr
}
