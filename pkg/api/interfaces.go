// Package api exposes the user-data record over HTTP
package api

import (
	"context"

	"github.com/ssargent/udflash/pkg/userdata"
)

// RecordStore defines the record operations the API serves
type RecordStore interface {
	Read() (userdata.ReadResult, error)
	Erase() error
	WriteStep(step, value uint32) error
	BaseAddress() uint32
}

// ServerStarter defines the interface for starting the API server
type ServerStarter interface {
	// StartServer serves until the context is cancelled
	StartServer(ctx context.Context, server *Server, config ServerConfig) error
}

// ServerFactory creates server instances
type ServerFactory interface {
	// CreateServerStarter creates a server starter
	CreateServerStarter() ServerStarter
}
