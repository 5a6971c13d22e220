package model

import (
	"context"
	"net"
)

// SecurityLayer produces a listener, plain or TLS.
type SecurityLayer interface {
	Listen(protocol, addr string) (net.Listener, error)
}

// Server is a network server with a lifecycle.
type Server interface {
	Start(securityLayer SecurityLayer) error
	Stop(ctx context.Context) error
	Address() string
}

// TokenManager generates and validates admin API tokens.
type TokenManager interface {
	GenerateAdminToken() (string, error)
	ParseAdminToken(token string) error
}
